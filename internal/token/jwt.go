package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector reads claims out of bearer tokens issued by the store API. The
// client never holds the signing secret, so tokens are decoded without
// signature verification: the only question answered here is whether a
// persisted credential is worth presenting to the server at all.
type Inspector struct {
	parser *jwt.Parser
}

// NewInspector creates a token inspector.
func NewInspector() *Inspector {
	return &Inspector{parser: jwt.NewParser()}
}

// ExpiresAt returns the expiry time of the token, or the zero time when the
// token carries no exp claim.
func (i *Inspector) ExpiresAt(tokenString string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	_, _, err := i.parser.ParseUnverified(tokenString, &claims)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token has an exp claim in the past. Tokens
// that cannot be decoded count as expired.
func (i *Inspector) Expired(tokenString string, now time.Time) bool {
	exp, err := i.ExpiresAt(tokenString)
	if err != nil {
		return true
	}
	if exp.IsZero() {
		return false
	}
	return exp.Before(now)
}
