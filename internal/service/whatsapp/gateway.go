package whatsapp

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/elhueso/huesobot/internal/model/bot"
)

// ReconnectDelay is the pause before redialing after a non-logout
// disconnect. There is no retry cap: the gateway redials until process
// shutdown or an explicit logout.
const ReconnectDelay = 3 * time.Second

// ConnState is the gateway's connection lifecycle state.
type ConnState string

const (
	StateDisconnected    ConnState = "disconnected"
	StateConnecting      ConnState = "connecting"
	StateAwaitingPairing ConnState = "awaiting_pairing"
	StateConnected       ConnState = "connected"

	// StateLoggedOut is terminal: the credential was revoked and an
	// operator has to force re-pairing.
	StateLoggedOut ConnState = "logged_out"
)

// MessageRouter is the conversational state machine the gateway feeds.
type MessageRouter interface {
	HandleMessage(ctx context.Context, jid, text string) (*bot.RouteResult, error)
}

// Gateway owns the single live bridge connection: dialing, pairing,
// reconnect supervision, credential persistence, identity resolution,
// and echo suppression. It is the sole writer of the connection state.
type Gateway struct {
	transport Transport
	router    MessageRouter
	creds     *CredsStore

	sent *SentRegistry
	lids *lidCache

	reconnectDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       ConnState
	pairingCode string
	conn        Conn
	redial      *time.Timer
	closed      bool

	// gen invalidates dials that were in flight when the lifecycle was
	// reset (ForceRePair, Stop). A completed dial whose generation is
	// stale must discard its connection instead of installing it.
	gen uint64
}

// NewGateway wires the gateway. Call Start to begin connecting.
func NewGateway(transport Transport, router MessageRouter, creds *CredsStore) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		transport: transport,
		router:    router,
		creds:     creds,
		sent:      NewSentRegistry(),
		lids:      newLIDCache(),

		reconnectDelay: ReconnectDelay,
		ctx:            ctx,
		cancel:         cancel,
		state:          StateDisconnected,
	}
}

// Start begins the connection lifecycle. It returns immediately; dialing
// and reconnecting happen in the background.
func (g *Gateway) Start() {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.connect()
	}()
}

// Stop tears the gateway down: no further reconnects are scheduled, the
// live connection is released, and in-flight handlers drain naturally.
func (g *Gateway) Stop() {
	g.mu.Lock()
	g.closed = true
	g.gen++
	if g.redial != nil {
		g.redial.Stop()
		g.redial = nil
	}
	conn := g.conn
	g.conn = nil
	g.state = StateDisconnected
	g.mu.Unlock()

	g.cancel()
	if conn != nil {
		conn.Close()
	}
	g.wg.Wait()
	g.sent.Stop()
}

// State reports the current connection state.
func (g *Gateway) State() ConnState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsConnected reports whether an authenticated session is live.
func (g *Gateway) IsConnected() bool {
	return g.State() == StateConnected
}

// PairingCode returns the outstanding pairing challenge, or "" when none
// is pending.
func (g *Gateway) PairingCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateAwaitingPairing {
		return ""
	}
	return g.pairingCode
}

// ForceRePair tears down the live connection, discards persisted
// credentials and immediately redials so the network issues a fresh
// pairing challenge.
func (g *Gateway) ForceRePair() error {
	g.mu.Lock()
	g.gen++
	if g.redial != nil {
		g.redial.Stop()
		g.redial = nil
	}
	conn := g.conn
	g.conn = nil
	g.pairingCode = ""
	g.state = StateDisconnected
	closed := g.closed
	g.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if err := g.creds.Wipe(); err != nil {
		return err
	}
	log.Printf("[gateway] credentials wiped, forcing new pairing")

	if !closed {
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			g.connect()
		}()
	}
	return nil
}

// connect dials the bridge and hands the session to the event loop.
// Dial failures behave like transient disconnects. At most one session
// is live at a time: a dial that lost the race (stale generation, or a
// newer session already installed) tears its connection down instead of
// keeping a second one alive.
func (g *Gateway) connect() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	gen := g.gen
	g.state = StateConnecting
	g.mu.Unlock()

	conn, err := g.transport.Dial(g.ctx)
	if err != nil {
		if g.ctx.Err() != nil {
			return
		}
		g.mu.Lock()
		stale := g.closed || g.gen != gen
		g.mu.Unlock()
		if stale {
			return
		}
		log.Printf("[gateway] dial failed: %v, retrying in %s", err, g.reconnectDelay)
		g.scheduleReconnect()
		return
	}

	g.mu.Lock()
	if g.closed || g.gen != gen {
		g.mu.Unlock()
		conn.Close()
		return
	}
	prev := g.conn
	g.conn = conn
	g.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.eventLoop(conn)
	}()
}

func (g *Gateway) scheduleReconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.redial != nil {
		return
	}
	g.redial = time.AfterFunc(g.reconnectDelay, func() {
		g.mu.Lock()
		g.redial = nil
		g.mu.Unlock()
		g.connect()
	})
}

// eventLoop consumes one session's events until it dies.
func (g *Gateway) eventLoop(conn Conn) {
	for ev := range conn.Events() {
		switch ev := ev.(type) {
		case PairingEvent:
			g.mu.Lock()
			if g.conn == conn {
				g.state = StateAwaitingPairing
				g.pairingCode = ev.Code
			}
			g.mu.Unlock()
			log.Printf("[gateway] pairing challenge received, scan it from the admin panel")

		case ConnectedEvent:
			g.mu.Lock()
			if g.conn == conn {
				g.state = StateConnected
				g.pairingCode = ""
			}
			g.mu.Unlock()
			log.Printf("[gateway] whatsapp connection established")

		case CredsEvent:
			// Persist regardless of connection state: losing an update
			// forces a full re-pair on the next restart.
			if err := g.creds.Save(ev.Name, ev.Data); err != nil {
				log.Printf("[gateway] credential persistence failed: %v", err)
			}

		case MessageEvent:
			msg := ev.Message
			g.wg.Add(1)
			go func() {
				defer g.wg.Done()
				g.handleInbound(conn, msg)
			}()

		case DisconnectedEvent:
			g.onDisconnect(conn, ev.LoggedOut, ev.Reason)
			return
		}
	}

	// Channel closed without an explicit cause: treat as transient.
	g.onDisconnect(conn, false, "event stream closed")
}

// onDisconnect applies the close to the state machine. It is a no-op when
// conn is no longer the live session (forced re-pair or shutdown already
// replaced it).
func (g *Gateway) onDisconnect(conn Conn, loggedOut bool, reason string) {
	g.mu.Lock()
	if g.conn != conn {
		g.mu.Unlock()
		return
	}
	g.conn = nil
	g.pairingCode = ""

	if loggedOut {
		g.state = StateLoggedOut
		g.mu.Unlock()
		conn.Close()
		log.Printf("[gateway] logged out from whatsapp, operator must re-pair")
		return
	}

	g.state = StateConnecting
	closed := g.closed
	g.mu.Unlock()
	conn.Close()

	if closed {
		return
	}
	log.Printf("[gateway] connection closed (%s), reconnecting in %s", reason, g.reconnectDelay)
	g.scheduleReconnect()
}

// handleInbound runs the per-event pipeline: filter, echo suppression,
// text extraction, identity resolution, routing, reply.
func (g *Gateway) handleInbound(conn Conn, msg Message) {
	log.Printf("[gateway] inbound fromMe=%t jid=%s id=%s", msg.FromMe, msg.ChatJID, msg.ID)

	if msg.Payload == nil || msg.ChatJID == "" || isBroadcastJID(msg.ChatJID) {
		return
	}
	// The sent-ID registry beats fromMe for loop prevention: it tracks
	// what this process actually sent, while fromMe is also true for
	// messages the operator types on the paired phone, which must still
	// be routed.
	if g.sent.Contains(msg.ID) {
		return
	}

	text := msg.Payload.Text()
	if text == "" {
		return
	}

	// Sessions track the person, not the chat: in groups the participant
	// is the identity and the reply still lands in the group.
	addr := msg.ChatJID
	if isGroupJID(msg.ChatJID) && msg.Participant != "" {
		addr = msg.Participant
	}
	identity := g.lids.resolve(g.ctx, conn, addr)

	result, err := g.router.HandleMessage(g.ctx, identity, text)
	if err != nil {
		log.Printf("[gateway] routing failed for %s: %v", identity, err)
		return
	}
	if result == nil {
		return
	}

	if result.Attachment != nil {
		a := result.Attachment
		g.SendDocument(g.ctx, msg.ChatJID, Document{
			Content:  a.Content,
			MimeType: a.MimeType,
			Filename: a.Filename,
			Caption:  a.Caption,
		})
	}
	g.SendText(g.ctx, msg.ChatJID, result.Response)
}

func (g *Gateway) liveConn() Conn {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateConnected {
		return nil
	}
	return g.conn
}

// SendText delivers text to jid. Not being connected is an expected
// transient condition: the send is dropped with a warning, never an
// error to the caller.
func (g *Gateway) SendText(ctx context.Context, jid, text string) {
	conn := g.liveConn()
	if conn == nil {
		log.Printf("[gateway] cannot send message, no live connection")
		return
	}

	id, err := conn.SendText(ctx, jid, text)
	if err != nil {
		log.Printf("[gateway] send text to %s failed: %v", jid, err)
		return
	}
	g.sent.Add(id)
}

// SendDocument delivers an attachment to jid with the same no-op
// semantics as SendText.
func (g *Gateway) SendDocument(ctx context.Context, jid string, doc Document) {
	conn := g.liveConn()
	if conn == nil {
		log.Printf("[gateway] cannot send document, no live connection")
		return
	}

	id, err := conn.SendDocument(ctx, jid, doc)
	if err != nil {
		log.Printf("[gateway] send document to %s failed: %v", jid, err)
		return
	}
	g.sent.Add(id)
}
