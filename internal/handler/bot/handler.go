package bot

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	botModel "github.com/elhueso/huesobot/internal/model/bot"
	botService "github.com/elhueso/huesobot/internal/service/bot"
	"github.com/elhueso/huesobot/pkg/utils"
)

// Handler exposes the conversation router over HTTP.
type Handler struct {
	router *botService.Router
}

// New creates the chatbot handler.
func New(router *botService.Router) *Handler {
	return &Handler{router: router}
}

// RegisterRoutes registers the chatbot routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chatbot/message", h.handleMessage)
}

type incomingMessage struct {
	JID  string `json:"jid"`
	Text string `json:"text"`
}

type messageResponse struct {
	JID      string         `json:"jid"`
	Response string         `json:"response"`
	State    botModel.State `json:"state"`
}

// handleMessage runs one inbound message through the router and returns
// the reply. Ignored messages (unknown sender, expired session) return
// a JSON null, mirroring the gateway's silence.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var body incomingMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.JID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "jid is required")
		return
	}

	result, err := h.router.HandleMessage(r.Context(), body.JID, body.Text)
	if err != nil {
		log.Printf("[chatbot] handle message for %s: %v", body.JID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	if result == nil {
		utils.RespondJSON(w, http.StatusOK, nil)
		return
	}

	utils.RespondJSON(w, http.StatusOK, messageResponse{
		JID:      body.JID,
		Response: result.Response,
		State:    result.NewState,
	})
}
