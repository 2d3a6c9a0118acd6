package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/elhueso/huesobot/internal/model/bot"
	catalogModel "github.com/elhueso/huesobot/internal/model/catalog"
)

// CatalogProvider supplies the current product list.
type CatalogProvider interface {
	Products(ctx context.Context) ([]catalogModel.Product, error)
}

// CatalogRenderer turns a product list into a downloadable catalog.
type CatalogRenderer interface {
	Catalog(products []catalogModel.Product) ([]byte, error)
}

// OrderLinker issues a signed, time-boxed order URL for a user.
type OrderLinker interface {
	OrderLink(jid string) (string, error)
}

// Router runs the conversational state machine. Message handling for a
// single JID is serialized; different JIDs proceed concurrently.
type Router struct {
	store    *Store
	catalog  CatalogProvider
	renderer CatalogRenderer
	orders   OrderLinker

	locks sync.Map // jid → *sync.Mutex
}

// NewRouter wires the state machine to its collaborators.
func NewRouter(store *Store, catalog CatalogProvider, renderer CatalogRenderer, orders OrderLinker) *Router {
	return &Router{
		store:    store,
		catalog:  catalog,
		renderer: renderer,
		orders:   orders,
	}
}

func (r *Router) lock(jid string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(jid, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HandleMessage routes one inbound message. A nil result means the message
// is silently ignored: no session existed and no global command applied.
// An error is returned only for request-level failures (misconfiguration,
// store breakage); recoverable collaborator failures resolve to a
// user-facing message instead.
func (r *Router) HandleMessage(ctx context.Context, jid, rawText string) (*bot.RouteResult, error) {
	mu := r.lock(jid)
	mu.Lock()
	defer mu.Unlock()

	text := strings.TrimSpace(rawText)
	cmd := strings.ToLower(text)

	// Global commands bypass session lookup.
	switch cmd {
	case cmdStart:
		return r.startSession(jid)
	case cmdEnd:
		return r.endSession(jid)
	}

	session, ok, err := r.store.Get(jid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	// Finalize wins over every state, including a stale Paused record.
	if cmd == cmdFinalize {
		if err := r.store.Delete(jid); err != nil {
			return nil, err
		}
		return &bot.RouteResult{Response: MsgFarewell, NewState: bot.StatePaused}, nil
	}

	// Finalize and end delete the session, so a persisted Paused record is
	// a stale leftover. Answer it like a dead conversation.
	if session.State == bot.StatePaused {
		return &bot.RouteResult{Response: MsgPaused, NewState: bot.StatePaused}, nil
	}

	session.LastInteractionAt = time.Now()

	switch session.State {
	case bot.StateMainMenu:
		return r.handleMainMenu(ctx, session, cmd)
	case bot.StatePromotions:
		return r.handlePromotions(session)
	default:
		log.Printf("[bot] invalid state %q for jid=%s", session.State, jid)
		return &bot.RouteResult{Response: MsgInvalidState, NewState: session.State}, nil
	}
}

func (r *Router) startSession(jid string) (*bot.RouteResult, error) {
	err := r.store.Upsert(bot.Session{
		JID:               jid,
		State:             bot.StateMainMenu,
		LastInteractionAt: time.Now(),
		Metadata:          map[string]any{},
	})
	if err != nil {
		return nil, err
	}
	return &bot.RouteResult{Response: MsgMainMenu, NewState: bot.StateMainMenu}, nil
}

func (r *Router) endSession(jid string) (*bot.RouteResult, error) {
	if err := r.store.Delete(jid); err != nil {
		return nil, err
	}
	return &bot.RouteResult{Response: MsgPaused, NewState: bot.StatePaused}, nil
}

func (r *Router) handleMainMenu(ctx context.Context, session bot.Session, cmd string) (*bot.RouteResult, error) {
	// Every main-menu branch re-persists the session, invalid input
	// included, so lastInteractionAt keeps the conversation alive.
	persist := func(state bot.State) error {
		session.State = state
		return r.store.Upsert(session)
	}

	switch cmd {
	case "1":
		if err := persist(bot.StateMainMenu); err != nil {
			return nil, err
		}
		return &bot.RouteResult{
			Response: MsgAboutUs + "\n\n" + MsgMainMenu,
			NewState: bot.StateMainMenu,
		}, nil

	case "2":
		result := r.buildCatalogResult(ctx)
		if err := persist(result.NewState); err != nil {
			return nil, err
		}
		return result, nil

	case "3":
		if err := persist(bot.StatePromotions); err != nil {
			return nil, err
		}
		return &bot.RouteResult{
			Response: "\U0001F525 *Promociones*\n" + MsgPromotions +
				"\n¿Querés hacer un pedido? Elegí 4️⃣ en el menú o finalizá con 9️⃣.",
			NewState: bot.StatePromotions,
		}, nil

	case "4":
		url, err := r.orders.OrderLink(session.JID)
		if err != nil {
			// Signing failures mean misconfiguration, not a transient
			// condition; surface them to the request.
			return nil, fmt.Errorf("issue order link: %w", err)
		}
		if err := persist(bot.StateMainMenu); err != nil {
			return nil, err
		}
		return &bot.RouteResult{
			Response: MsgOrderLink(url) + "\n\n" + MsgMainMenu,
			NewState: bot.StateMainMenu,
		}, nil

	default:
		if err := persist(bot.StateMainMenu); err != nil {
			return nil, err
		}
		return &bot.RouteResult{Response: MsgInvalidOption, NewState: bot.StateMainMenu}, nil
	}
}

// buildCatalogResult resolves option 2. Collaborator failures never leave
// this function: they degrade to an apology message in MainMenu.
func (r *Router) buildCatalogResult(ctx context.Context) *bot.RouteResult {
	products, err := r.catalog.Products(ctx)
	if err != nil {
		log.Printf("[bot] catalog fetch failed: %v", err)
		return &bot.RouteResult{Response: MsgProductsError, NewState: bot.StateMainMenu}
	}

	if len(products) == 0 {
		return &bot.RouteResult{Response: MsgProductsEmpty, NewState: bot.StateMainMenu}
	}

	content, err := r.renderer.Catalog(products)
	if err != nil {
		log.Printf("[bot] catalog render failed: %v", err)
		return &bot.RouteResult{Response: MsgProductsError, NewState: bot.StateMainMenu}
	}

	return &bot.RouteResult{
		Response: MsgMainMenu,
		NewState: bot.StateMainMenu,
		Attachment: &bot.Attachment{
			Content:  content,
			MimeType: "application/pdf",
			Filename: "catalogo-el-hueso-" + time.Now().Format("02-01-2006") + ".pdf",
			Caption:  MsgCatalogCaption,
		},
	}
}

func (r *Router) handlePromotions(session bot.Session) (*bot.RouteResult, error) {
	session.State = bot.StateMainMenu
	if err := r.store.Upsert(session); err != nil {
		return nil, err
	}
	return &bot.RouteResult{
		Response: MsgPromotions + "\n\n" + MsgMainMenu,
		NewState: bot.StateMainMenu,
	}, nil
}
