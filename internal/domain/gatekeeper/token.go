package gatekeeper

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	bearerPrefix = "Bearer "
	realmClaim   = "realm"
)

var errMissingRealm = errors.New("Missing 'realm'") //nolint:staticcheck // surfaced verbatim to clients

// ExtractToken decodes the bearer token in an Authorization header value.
// The token signature is NOT verified; claims are taken as-is.
func ExtractToken(header string) (*Token, error) {
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return nil, MissingToken("Missing or invalid auth token")
	}

	raw := strings.TrimPrefix(header, bearerPrefix)

	token, _, err := jwt.NewParser().ParseUnverified(raw, Claims{})
	if err != nil {
		return nil, InvalidToken("Invalid token: "+err.Error(), err)
	}

	claims, ok := token.Claims.(Claims)
	if !ok {
		return nil, InvalidToken("Invalid token payload", nil)
	}

	realm, ok := claims[realmClaim].(string)
	if !ok || realm == "" {
		return nil, InvalidToken("Invalid token: "+errMissingRealm.Error(), errMissingRealm)
	}

	return &Token{Tenant: realm, Claims: claims}, nil
}
