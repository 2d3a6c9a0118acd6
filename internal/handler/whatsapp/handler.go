package whatsapp

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/elhueso/huesobot/internal/middleware"
	whatsappService "github.com/elhueso/huesobot/internal/service/whatsapp"
	"github.com/elhueso/huesobot/pkg/utils"
)

// maxUploadBytes bounds the send-message attachment size.
const maxUploadBytes = 16 << 20

// Handler exposes the WhatsApp gateway admin surface.
type Handler struct {
	gateway       *whatsappService.Gateway
	cleaner       *whatsappService.Cleaner
	adminPassword string
	sendPassword  string
}

// New creates the WhatsApp admin handler.
func New(gateway *whatsappService.Gateway, cleaner *whatsappService.Cleaner, adminPassword, sendPassword string) *Handler {
	return &Handler{
		gateway:       gateway,
		cleaner:       cleaner,
		adminPassword: adminPassword,
		sendPassword:  sendPassword,
	}
}

// RegisterRoutes registers the admin panel, the session management API
// and the auth-directory stats endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/whatsapp", func(r chi.Router) {
		// The panel itself is public; it collects the password
		// client-side and every API call below re-checks it.
		r.Get("/", h.handlePanel)
		r.Post("/send-message", h.handleSendMessage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminGuard(h.adminPassword))
			r.Get("/qr-data", h.handleQRData)
			r.Get("/status", h.handleStatus)
			r.Delete("/session", h.handleDeleteSession)
		})
	})

	r.Get("/auth/stats", h.handleAuthStats)
}

func (h *Handler) handlePanel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, adminPanelHTML); err != nil {
		log.Printf("[whatsapp] write panel: %v", err)
	}
}

func (h *Handler) handleQRData(w http.ResponseWriter, r *http.Request) {
	qr := h.gateway.PairingCode()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"qr":           qr,
		"connected":    h.gateway.IsConnected(),
		"waitingForQr": qr != "",
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"connected":    h.gateway.IsConnected(),
		"waitingForQr": h.gateway.PairingCode() != "",
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.ForceRePair(); err != nil {
		log.Printf("[whatsapp] force re-pair: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Session deleted. A new QR will be generated.",
	})
}

// handleSendMessage pushes an ad-hoc message through the gateway. It
// accepts multipart form data with password, jid, text and an optional
// file attachment.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	if h.sendPassword == "" || r.FormValue("password") != h.sendPassword {
		utils.RespondError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	jid := strings.TrimSpace(r.FormValue("jid"))
	text := r.FormValue("text")
	if jid == "" || strings.TrimSpace(text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "jid and text are required")
		return
	}

	if !h.gateway.IsConnected() {
		utils.RespondError(w, http.StatusServiceUnavailable, "whatsapp is not connected")
		return
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == http.ErrMissingFile:
		h.gateway.SendText(r.Context(), jid, text)
	case err != nil:
		utils.RespondError(w, http.StatusBadRequest, "invalid file upload")
		return
	default:
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "failed to read file upload")
			return
		}
		h.gateway.SendDocument(r.Context(), jid, whatsappService.Document{
			Content:  content,
			MimeType: header.Header.Get("Content-Type"),
			Filename: header.Filename,
			Caption:  text,
		})
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (h *Handler) handleAuthStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.cleaner.Stats())
}
