package whatsapp

import "testing"

func TestPayloadTextPrefersConversation(t *testing.T) {
	p := &Payload{Conversation: " hola ", ExtendedText: &ExtendedText{Text: "otro"}}
	if got := p.Text(); got != "hola" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestPayloadTextFallsBackToExtended(t *testing.T) {
	p := &Payload{ExtendedText: &ExtendedText{Text: "  citado  "}}
	if got := p.Text(); got != "citado" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestPayloadTextEmpty(t *testing.T) {
	if got := (&Payload{}).Text(); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	var nilPayload *Payload
	if got := nilPayload.Text(); got != "" {
		t.Fatalf("expected empty for nil payload, got %q", got)
	}
}

func TestJIDClassification(t *testing.T) {
	if !isGroupJID("12036304@g.us") || isGroupJID("549111@s.whatsapp.net") {
		t.Fatal("group classification broken")
	}
	if !isLIDJID("99887766@lid") || isLIDJID("549111@s.whatsapp.net") {
		t.Fatal("lid classification broken")
	}
	if !isBroadcastJID("status@broadcast") || isBroadcastJID("549111@s.whatsapp.net") {
		t.Fatal("broadcast classification broken")
	}
}
