// Package whatsapp owns the live connection to the WhatsApp network and
// feeds inbound messages to the conversation router. The wire protocol
// itself (encryption, multi-device pairing, framing) lives in an external
// bridge daemon behind the Transport interface.
package whatsapp

import "context"

// Transport establishes connections to the messaging bridge.
type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is one live bridge session. Events() is closed when the session
// dies; a DisconnectedEvent is delivered first whenever the cause is
// known.
type Conn interface {
	Events() <-chan Event

	// SendText delivers a plain text message and returns the network
	// message ID.
	SendText(ctx context.Context, jid, text string) (string, error)

	// SendDocument delivers a binary attachment and returns the network
	// message ID.
	SendDocument(ctx context.Context, jid string, doc Document) (string, error)

	// ResolveLID maps a privacy-preserving LID address to its phone-number
	// JID.
	ResolveLID(ctx context.Context, lid string) (string, error)

	Close() error
}

// Document is an outbound attachment.
type Document struct {
	Content  []byte
	MimeType string
	Filename string
	Caption  string
}

// Event is a notification from the bridge session.
type Event interface{ isEvent() }

// PairingEvent carries a fresh pairing QR challenge.
type PairingEvent struct {
	Code string
}

// ConnectedEvent signals an authenticated session.
type ConnectedEvent struct{}

// DisconnectedEvent signals the session closed. LoggedOut means the
// credential was revoked and reconnecting is pointless.
type DisconnectedEvent struct {
	LoggedOut bool
	Reason    string
}

// CredsEvent carries updated credential material that must be persisted
// immediately.
type CredsEvent struct {
	Name string
	Data []byte
}

// MessageEvent carries one inbound message.
type MessageEvent struct {
	Message Message
}

func (PairingEvent) isEvent()      {}
func (ConnectedEvent) isEvent()    {}
func (DisconnectedEvent) isEvent() {}
func (CredsEvent) isEvent()        {}
func (MessageEvent) isEvent()      {}

// Message mirrors the network's message envelope.
type Message struct {
	ID          string   `json:"id"`
	ChatJID     string   `json:"chatJid"`
	Participant string   `json:"participant,omitempty"`
	FromMe      bool     `json:"fromMe"`
	Payload     *Payload `json:"payload,omitempty"`
}

// Payload holds the known text-bearing message shapes. Exactly one is
// normally populated.
type Payload struct {
	Conversation string        `json:"conversation,omitempty"`
	ExtendedText *ExtendedText `json:"extendedTextMessage,omitempty"`
}

// ExtendedText is the quoted/linked text variant.
type ExtendedText struct {
	Text string `json:"text"`
}

// Text extracts the plain text from the first populated payload shape,
// trimmed. Empty means the message carries no usable text.
func (p *Payload) Text() string {
	if p == nil {
		return ""
	}
	if t := trimSpace(p.Conversation); t != "" {
		return t
	}
	if p.ExtendedText != nil {
		return trimSpace(p.ExtendedText.Text)
	}
	return ""
}
