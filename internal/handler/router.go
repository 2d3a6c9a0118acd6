package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elhueso/huesobot/internal/config"
	botHandler "github.com/elhueso/huesobot/internal/handler/bot"
	catalogHandler "github.com/elhueso/huesobot/internal/handler/catalog"
	whatsappHandler "github.com/elhueso/huesobot/internal/handler/whatsapp"
	botService "github.com/elhueso/huesobot/internal/service/bot"
	catalogService "github.com/elhueso/huesobot/internal/service/catalog"
	whatsappService "github.com/elhueso/huesobot/internal/service/whatsapp"
	"github.com/elhueso/huesobot/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(
	cfg *config.Config,
	botRouter *botService.Router,
	products *catalogService.Service,
	renderer *catalogService.Renderer,
	gateway *whatsappService.Gateway,
	cleaner *whatsappService.Cleaner,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Get("/ping", handlePing)

	botHandler.New(botRouter).RegisterRoutes(r)
	catalogHandler.New(products, renderer, cfg.Admin.Password).RegisterRoutes(r)
	whatsappHandler.New(gateway, cleaner, cfg.Admin.Password, cfg.Admin.SendPassword).RegisterRoutes(r)

	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"pong":      true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
