package whatsapp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	whatsappHandler "github.com/elhueso/huesobot/internal/handler/whatsapp"
	botModel "github.com/elhueso/huesobot/internal/model/bot"
	whatsappService "github.com/elhueso/huesobot/internal/service/whatsapp"
)

type stubConn struct {
	events chan whatsappService.Event
	once   sync.Once

	mu    sync.Mutex
	texts []string
	docs  []whatsappService.Document
}

func newStubConn(buffered ...whatsappService.Event) *stubConn {
	c := &stubConn{events: make(chan whatsappService.Event, 8)}
	for _, ev := range buffered {
		c.events <- ev
	}
	return c
}

func (c *stubConn) Events() <-chan whatsappService.Event { return c.events }

func (c *stubConn) SendText(ctx context.Context, jid, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, jid+"|"+text)
	return "SRV-TEXT", nil
}

func (c *stubConn) SendDocument(ctx context.Context, jid string, doc whatsappService.Document) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, doc)
	return "SRV-DOC", nil
}

func (c *stubConn) ResolveLID(ctx context.Context, lid string) (string, error) {
	return lid, nil
}

func (c *stubConn) Close() error {
	c.once.Do(func() { close(c.events) })
	return nil
}

func (c *stubConn) sentTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func (c *stubConn) sentDocs() []whatsappService.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]whatsappService.Document(nil), c.docs...)
}

type stubTransport struct {
	conns chan *stubConn
}

func (t *stubTransport) Dial(ctx context.Context) (whatsappService.Conn, error) {
	select {
	case conn := <-t.conns:
		return conn, nil
	default:
		return nil, errors.New("bridge unavailable")
	}
}

type noRouter struct{}

func (noRouter) HandleMessage(ctx context.Context, jid, text string) (*botModel.RouteResult, error) {
	return nil, nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

type fixture struct {
	srv     *httptest.Server
	gateway *whatsappService.Gateway
	conn    *stubConn
}

func newFixture(t *testing.T, conns ...*stubConn) *fixture {
	t.Helper()

	creds, err := whatsappService.NewCredsStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCredsStore err: %v", err)
	}

	transport := &stubTransport{conns: make(chan *stubConn, len(conns))}
	for _, c := range conns {
		transport.conns <- c
	}

	gateway := whatsappService.NewGateway(transport, noRouter{}, creds)
	gateway.Start()
	t.Cleanup(gateway.Stop)

	cleaner := whatsappService.NewCleaner(whatsappService.CleanerConfig{
		Dir:        t.TempDir(),
		Interval:   time.Hour,
		MaxPreKeys: 10,
	})

	r := chi.NewRouter()
	whatsappHandler.New(gateway, cleaner, "admin", "send-secret").RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	var first *stubConn
	if len(conns) > 0 {
		first = conns[0]
	}
	return &fixture{srv: srv, gateway: gateway, conn: first}
}

func TestPanelIsPublicHTML(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))

	resp, err := http.Get(f.srv.URL + "/whatsapp/")
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Distribuidora El Hueso") {
		t.Fatal("panel body missing expected heading")
	}
}

func TestQRDataRequiresAdmin(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))

	resp, err := http.Get(f.srv.URL + "/whatsapp/qr-data")
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", resp.StatusCode)
	}
}

func TestQRDataReflectsConnectionState(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))
	waitFor(t, f.gateway.IsConnected, "gateway never connected")

	resp, err := http.Get(f.srv.URL + "/whatsapp/qr-data?key=admin")
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		QR           string `json:"qr"`
		Connected    bool   `json:"connected"`
		WaitingForQR bool   `json:"waitingForQr"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !out.Connected || out.WaitingForQR || out.QR != "" {
		t.Fatalf("unexpected qr-data payload: %+v", out)
	}
}

func TestQRDataExposesPairingCode(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.PairingEvent{Code: "QR-CODE-1"}))
	waitFor(t, func() bool { return f.gateway.PairingCode() != "" }, "pairing code never surfaced")

	resp, err := http.Get(f.srv.URL + "/whatsapp/qr-data?key=admin")
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		QR           string `json:"qr"`
		Connected    bool   `json:"connected"`
		WaitingForQR bool   `json:"waitingForQr"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if out.QR != "QR-CODE-1" || out.Connected || !out.WaitingForQR {
		t.Fatalf("unexpected qr-data payload: %+v", out)
	}
}

func TestDeleteSessionForcesNewPairing(t *testing.T) {
	f := newFixture(t,
		newStubConn(whatsappService.ConnectedEvent{}),
		newStubConn(whatsappService.PairingEvent{Code: "QR-CODE-2"}),
	)
	waitFor(t, f.gateway.IsConnected, "gateway never connected")

	req, _ := http.NewRequest(http.MethodDelete, f.srv.URL+"/whatsapp/session?key=admin", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE err: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	waitFor(t, func() bool { return f.gateway.PairingCode() == "QR-CODE-2" }, "fresh pairing code never surfaced")
}

func multipartBody(t *testing.T, fields map[string]string, filename string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field err: %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create file part err: %v", err)
		}
		if _, err := fw.Write(fileContent); err != nil {
			t.Fatalf("write file part err: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer err: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestSendMessageRejectsWrongPassword(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))
	waitFor(t, f.gateway.IsConnected, "gateway never connected")

	body, ct := multipartBody(t, map[string]string{
		"password": "nope",
		"jid":      "5491112345678@s.whatsapp.net",
		"text":     "hola",
	}, "", nil)

	resp, err := http.Post(f.srv.URL+"/whatsapp/send-message", ct, body)
	if err != nil {
		t.Fatalf("POST err: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := f.conn.sentTexts(); len(got) != 0 {
		t.Fatalf("nothing should have been sent, got %v", got)
	}
}

func TestSendMessageText(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))
	waitFor(t, f.gateway.IsConnected, "gateway never connected")

	body, ct := multipartBody(t, map[string]string{
		"password": "send-secret",
		"jid":      "5491112345678@s.whatsapp.net",
		"text":     "hola",
	}, "", nil)

	resp, err := http.Post(f.srv.URL+"/whatsapp/send-message", ct, body)
	if err != nil {
		t.Fatalf("POST err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := f.conn.sentTexts()
	if len(got) != 1 || got[0] != "5491112345678@s.whatsapp.net|hola" {
		t.Fatalf("unexpected sends: %v", got)
	}
}

func TestSendMessageWithAttachment(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))
	waitFor(t, f.gateway.IsConnected, "gateway never connected")

	body, ct := multipartBody(t, map[string]string{
		"password": "send-secret",
		"jid":      "5491112345678@s.whatsapp.net",
		"text":     "factura adjunta",
	}, "factura.pdf", []byte("%PDF-attachment"))

	resp, err := http.Post(f.srv.URL+"/whatsapp/send-message", ct, body)
	if err != nil {
		t.Fatalf("POST err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	docs := f.conn.sentDocs()
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	if docs[0].Filename != "factura.pdf" || docs[0].Caption != "factura adjunta" {
		t.Fatalf("unexpected document: %+v", docs[0])
	}
	if string(docs[0].Content) != "%PDF-attachment" {
		t.Fatal("attachment content mangled")
	}
	if texts := f.conn.sentTexts(); len(texts) != 0 {
		t.Fatalf("text must ride as the caption, got %v", texts)
	}
}

func TestSendMessageWhileDisconnected(t *testing.T) {
	// No scripted connection: every dial fails and the gateway stays down.
	f := newFixture(t)

	body, ct := multipartBody(t, map[string]string{
		"password": "send-secret",
		"jid":      "5491112345678@s.whatsapp.net",
		"text":     "hola",
	}, "", nil)

	resp, err := http.Post(f.srv.URL+"/whatsapp/send-message", ct, body)
	if err != nil {
		t.Fatalf("POST err: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestAuthStats(t *testing.T) {
	f := newFixture(t, newStubConn(whatsappService.ConnectedEvent{}))

	resp, err := http.Get(f.srv.URL + "/auth/stats")
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stats whatsappService.AuthStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode err: %v", err)
	}
}
