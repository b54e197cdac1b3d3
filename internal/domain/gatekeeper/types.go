package gatekeeper

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are decoded from the bearer token payload without any signature check.
type Claims = jwt.MapClaims

type Token struct {
	Tenant string
	Claims Claims
}

// Request is the body of both the validate and the recordUsage calls.
type Request struct {
	OrganizationName string `json:"organization_name"`
	Method           string `json:"method"`
	Path             string `json:"path"`
}

func NewRequest(tenant, method, path string) Request {
	return Request{
		OrganizationName: tenant,
		Method:           method,
		Path:             path,
	}
}

// Result is the authorization decision exactly as returned by the remote service.
type Result = json.RawMessage

// Authorization is everything the middleware learned about a request that
// passed validation.
type Authorization struct {
	Token   *Token
	Request Request
	Result  Result
}
