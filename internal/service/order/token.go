// Package order issues signed, short-lived order links.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the validity window advertised in the order-link message.
const TokenTTL = 30 * time.Minute

var ErrNoSecret = errors.New("order: signing secret is not configured")

// Issuer builds order URLs carrying an HS256 token that embeds the user's
// JID and a fresh nonce.
type Issuer struct {
	secret      []byte
	frontendURL string
}

// NewIssuer returns an Issuer. An empty secret is tolerated here and
// rejected per request, so an unrelated misconfiguration does not keep the
// rest of the bot from serving.
func NewIssuer(secret, frontendURL string) *Issuer {
	return &Issuer{secret: []byte(secret), frontendURL: frontendURL}
}

// OrderLink returns the order URL for jid, valid for TokenTTL.
func (i *Issuer) OrderLink(jid string) (string, error) {
	token, err := i.issue(jid)
	if err != nil {
		return "", err
	}
	return i.frontendURL + "?token=" + token, nil
}

func (i *Issuer) issue(jid string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   jid,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("order: sign token: %w", err)
	}
	return signed, nil
}
