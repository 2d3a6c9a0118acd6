package order_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/elhueso/huesobot/internal/service/order"
)

func TestOrderLinkEmbedsSignedToken(t *testing.T) {
	issuer := order.NewIssuer("top-secret", "https://pedidos.example.com")

	link, err := issuer.OrderLink("5491112345678@s.whatsapp.net")
	if err != nil {
		t.Fatalf("OrderLink err: %v", err)
	}

	raw, ok := strings.CutPrefix(link, "https://pedidos.example.com?token=")
	if !ok {
		t.Fatalf("unexpected link shape: %s", link)
	}

	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte("top-secret"), nil
	})
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}

	if claims.Subject != "5491112345678@s.whatsapp.net" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti nonce")
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != order.TokenTTL {
		t.Fatalf("unexpected token ttl: %v", ttl)
	}
}

func TestOrderLinkTokensAreUnique(t *testing.T) {
	issuer := order.NewIssuer("top-secret", "https://pedidos.example.com")

	a, err := issuer.OrderLink("user@s.whatsapp.net")
	if err != nil {
		t.Fatalf("OrderLink err: %v", err)
	}
	b, err := issuer.OrderLink("user@s.whatsapp.net")
	if err != nil {
		t.Fatalf("OrderLink err: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens for repeated issuance")
	}
}

func TestOrderLinkMissingSecret(t *testing.T) {
	issuer := order.NewIssuer("", "https://pedidos.example.com")

	if _, err := issuer.OrderLink("user@s.whatsapp.net"); !errors.Is(err, order.ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
