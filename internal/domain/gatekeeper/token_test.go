package gatekeeper_test

import (
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsignedToken builds header.payload.signature with a junk signature.
func unsignedToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".not-a-signature"
}

func TestExtractToken_Valid(t *testing.T) {
	token, err := gatekeeper.ExtractToken("Bearer " + unsignedToken(`{"realm":"acme","sub":"user-1"}`))
	require.NoError(t, err)

	assert.Equal(t, "acme", token.Tenant)
	assert.Equal(t, "acme", token.Claims["realm"])
	assert.Equal(t, "user-1", token.Claims["sub"])
}

func TestExtractToken_SignatureIsNotVerified(t *testing.T) {
	token, err := gatekeeper.ExtractToken("Bearer " + unsignedToken(`{"realm":"acme","exp":1}`))
	require.NoError(t, err, "expired and unsigned tokens are accepted as-is")
	assert.Equal(t, "acme", token.Tenant)
}

func TestExtractToken_MissingToken(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"no space":     "Bearer",
		"lowercase":    "bearer " + unsignedToken(`{"realm":"acme"}`),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gatekeeper.ExtractToken(header)
			require.Error(t, err)
			assert.ErrorIs(t, err, gatekeeper.ErrMissingToken)
			assert.Equal(t, http.StatusUnauthorized, gatekeeper.StatusOf(err))
			assert.Equal(t, "Missing or invalid auth token", gatekeeper.MessageOf(err))
		})
	}
}

func TestExtractToken_InvalidToken(t *testing.T) {
	cases := map[string]string{
		"garbage":       "Bearer not-a-jwt",
		"bad payload":   "Bearer aaa.%%%.ccc",
		"no realm":      "Bearer " + unsignedToken(`{"sub":"user-1"}`),
		"empty realm":   "Bearer " + unsignedToken(`{"realm":""}`),
		"numeric realm": "Bearer " + unsignedToken(`{"realm":42}`),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gatekeeper.ExtractToken(header)
			require.Error(t, err)
			assert.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
			assert.False(t, errors.Is(err, gatekeeper.ErrMissingToken))
			assert.Equal(t, http.StatusUnauthorized, gatekeeper.StatusOf(err))
			assert.Contains(t, gatekeeper.MessageOf(err), "Invalid token")
		})
	}
}

func TestExtractToken_MissingRealmMessage(t *testing.T) {
	_, err := gatekeeper.ExtractToken("Bearer " + unsignedToken(`{"sub":"user-1"}`))
	require.Error(t, err)
	assert.Equal(t, "Invalid token: Missing 'realm'", gatekeeper.MessageOf(err))
}
