package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-server-secret"))
	require.NoError(t, err)
	return signed
}

func TestInspector_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tokenString := makeToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})

	got, err := NewInspector().ExpiresAt(tokenString)
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))
}

func TestInspector_ExpiresAt_NoClaim(t *testing.T) {
	tokenString := makeToken(t, jwt.RegisteredClaims{Subject: "u1"})

	got, err := NewInspector().ExpiresAt(tokenString)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestInspector_ExpiresAt_NotAToken(t *testing.T) {
	_, err := NewInspector().ExpiresAt("opaque-session-id")
	assert.Error(t, err)
}

func TestInspector_Expired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{
			name:  "future expiry",
			token: makeToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}),
		},
		{
			name:  "past expiry",
			token: makeToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}),
			want:  true,
		},
		{
			name:  "no expiry claim never expires",
			token: makeToken(t, jwt.RegisteredClaims{Subject: "u1"}),
		},
		{
			name:  "undecodable token counts as expired",
			token: "garbage",
			want:  true,
		},
	}

	inspector := NewInspector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inspector.Expired(tt.token, now))
		})
	}
}
