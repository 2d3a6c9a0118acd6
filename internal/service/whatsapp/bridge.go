package whatsapp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// The heavy protocol work (Noise handshake, multi-device crypto) runs in
// a sidecar bridge daemon; this client speaks its JSON envelope protocol
// over a websocket, mirroring the envelope names the network uses.

const (
	bridgeWriteTimeout = 10 * time.Second
	bridgeCallTimeout  = 30 * time.Second

	// Close status the bridge reports when the credential was revoked.
	bridgeCodeLoggedOut = 401
)

// envelope is one frame in either direction.
type envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  string          `json:"error,omitempty"`
}

// BridgeTransport dials the bridge daemon's websocket endpoint.
type BridgeTransport struct {
	url    string
	dialer *websocket.Dialer
}

// NewBridgeTransport returns a Transport for the given ws:// URL.
func NewBridgeTransport(url string) *BridgeTransport {
	return &BridgeTransport{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

// Dial opens a bridge session.
func (t *BridgeTransport) Dial(ctx context.Context) (Conn, error) {
	ws, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", t.url, err)
	}

	c := &bridgeConn{
		ws:      ws,
		events:  make(chan Event, 64),
		pending: make(map[string]chan envelope),
	}
	go c.readLoop()
	return c, nil
}

// bridgeConn is one live websocket session to the bridge.
type bridgeConn struct {
	ws     *websocket.Conn
	events chan Event

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan envelope
	closed  bool
}

func (c *bridgeConn) Events() <-chan Event { return c.events }

// readLoop turns bridge frames into Events and resolves pending calls.
// It owns the events channel and closes it when the socket dies.
func (c *bridgeConn) readLoop() {
	defer close(c.events)
	defer c.failPending(errors.New("bridge: connection closed"))

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.events <- DisconnectedEvent{Reason: err.Error()}
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			log.Printf("[bridge] discarding malformed frame: %v", err)
			continue
		}

		switch env.Type {
		case "qr":
			var data struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(env.Data, &data); err == nil && data.Code != "" {
				c.events <- PairingEvent{Code: data.Code}
			}

		case "open":
			c.events <- ConnectedEvent{}

		case "close":
			var data struct {
				Code   int    `json:"code"`
				Reason string `json:"reason"`
			}
			_ = json.Unmarshal(env.Data, &data)
			c.events <- DisconnectedEvent{
				LoggedOut: data.Code == bridgeCodeLoggedOut,
				Reason:    data.Reason,
			}
			return

		case "creds":
			var data struct {
				Name string `json:"name"`
				Blob []byte `json:"blob"`
			}
			if err := json.Unmarshal(env.Data, &data); err == nil && data.Name != "" {
				c.events <- CredsEvent{Name: data.Name, Data: data.Blob}
			}

		case "message":
			var msg Message
			if err := json.Unmarshal(env.Data, &msg); err == nil {
				c.events <- MessageEvent{Message: msg}
			}

		case "result":
			c.resolve(env)

		default:
			log.Printf("[bridge] ignoring unknown frame type %q", env.Type)
		}
	}
}

// call performs one correlated request/response round trip.
func (c *bridgeConn) call(ctx context.Context, kind string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s: %w", kind, err)
	}

	id := uuid.NewString()
	ch := make(chan envelope, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("bridge: connection closed")
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(envelope{Type: kind, ID: id, Data: data}); err != nil {
		return nil, err
	}

	timeout := time.NewTimer(bridgeCallTimeout)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout.C:
		return nil, fmt.Errorf("bridge: %s timed out", kind)
	case res := <-ch:
		if res.Err != "" {
			return nil, fmt.Errorf("bridge: %s: %s", kind, res.Err)
		}
		return res.Data, nil
	}
}

func (c *bridgeConn) resolve(env envelope) {
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	c.mu.Unlock()
	if ok {
		ch <- env
	}
}

// failPending unblocks every caller still waiting in call. Sends must
// not block while c.mu is held: a caller that already gave up (ctx
// timeout) never drains its channel and may itself be waiting on c.mu
// in its cleanup.
func (c *bridgeConn) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		select {
		case ch <- envelope{ID: id, Err: err.Error()}:
		default:
		}
		delete(c.pending, id)
	}
}

func (c *bridgeConn) write(env envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(bridgeWriteTimeout))
	if err := c.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("bridge: write %s: %w", env.Type, err)
	}
	return nil
}

type sendResult struct {
	MessageID string `json:"messageId"`
}

// SendText implements Conn.
func (c *bridgeConn) SendText(ctx context.Context, jid, text string) (string, error) {
	raw, err := c.call(ctx, "send_text", map[string]string{
		"jid":  jid,
		"text": text,
	})
	if err != nil {
		return "", err
	}

	var res sendResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("bridge: decode send result: %w", err)
	}
	return res.MessageID, nil
}

// SendDocument implements Conn.
func (c *bridgeConn) SendDocument(ctx context.Context, jid string, doc Document) (string, error) {
	raw, err := c.call(ctx, "send_document", map[string]string{
		"jid":      jid,
		"mimetype": doc.MimeType,
		"filename": doc.Filename,
		"caption":  doc.Caption,
		"content":  base64.StdEncoding.EncodeToString(doc.Content),
	})
	if err != nil {
		return "", err
	}

	var res sendResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("bridge: decode send result: %w", err)
	}
	return res.MessageID, nil
}

// ResolveLID implements Conn.
func (c *bridgeConn) ResolveLID(ctx context.Context, lid string) (string, error) {
	raw, err := c.call(ctx, "resolve_lid", map[string]string{"lid": lid})
	if err != nil {
		return "", err
	}

	var res struct {
		JID string `json:"jid"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("bridge: decode lid result: %w", err)
	}
	return res.JID, nil
}

// Close implements Conn.
func (c *bridgeConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return c.ws.Close()
}

func (c *bridgeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
