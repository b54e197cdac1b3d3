package gatekeeper

import "context"

type contextKey int

const authorizationKey contextKey = iota

func WithAuthorization(ctx context.Context, authz *Authorization) context.Context {
	return context.WithValue(ctx, authorizationKey, authz)
}

func FromContext(ctx context.Context) (*Authorization, bool) {
	authz, ok := ctx.Value(authorizationKey).(*Authorization)
	return authz, ok && authz != nil
}

func TenantFrom(ctx context.Context) string {
	if authz, ok := FromContext(ctx); ok && authz.Token != nil {
		return authz.Token.Tenant
	}
	return ""
}

func ClaimsFrom(ctx context.Context) Claims {
	if authz, ok := FromContext(ctx); ok && authz.Token != nil {
		return authz.Token.Claims
	}
	return nil
}

func ResultFrom(ctx context.Context) Result {
	if authz, ok := FromContext(ctx); ok {
		return authz.Result
	}
	return nil
}
