package bot

import "time"

// State identifies where a conversation sits in the menu flow.
type State string

const (
	StatePaused     State = "PAUSED"
	StateMainMenu   State = "MAIN_MENU"
	StatePromotions State = "PROMOTIONS_MENU"

	// StateProducts is reserved in the persisted enum but no transition
	// currently targets it as a resting state.
	StateProducts State = "PRODUCTS_MENU"
)

// Session is one user's conversational state, keyed by WhatsApp JID.
// Records older than the store TTL are treated as absent.
type Session struct {
	JID               string         `json:"jid"`
	State             State          `json:"state"`
	LastInteractionAt time.Time      `json:"lastInteractionAt"`
	Metadata          map[string]any `json:"metadata"`
}

// Attachment is a binary payload sent alongside a text response.
type Attachment struct {
	Content  []byte
	MimeType string
	Filename string
	Caption  string
}

// RouteResult is the outcome of routing one inbound message. A nil
// *RouteResult means the message is silently ignored.
type RouteResult struct {
	Response   string      `json:"response"`
	NewState   State       `json:"state"`
	Attachment *Attachment `json:"-"`
}
