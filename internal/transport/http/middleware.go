package http

import (
	"context"
	"time"

	"log/slog"

	appgatekeeper "github.com/astro-web3/authz-gatekeeper/internal/app/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Dispatcher runs a task detached from the request that scheduled it.
type Dispatcher func(task func())

func goDispatcher(task func()) {
	go task()
}

type MiddlewareOption func(*middlewareOptions)

type middlewareOptions struct {
	dispatch Dispatcher
}

// WithDispatcher overrides how usage recording is detached from the request.
func WithDispatcher(d Dispatcher) MiddlewareOption {
	return func(o *middlewareOptions) {
		if d != nil {
			o.dispatch = d
		}
	}
}

// GatekeeperMiddleware authorizes every request against the remote
// Authorization Service and reports usage once the handler chain is done.
//
// Requests rejected during extraction or validation are aborted with a
// {"detail": ...} body and produce no usage record.
func GatekeeperMiddleware(svc appgatekeeper.Service, opts ...MiddlewareOption) gin.HandlerFunc {
	o := middlewareOptions{dispatch: goDispatcher}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		// A client hanging up must not abandon a decision already in flight.
		detached := context.WithoutCancel(c.Request.Context())

		authz, err := svc.Authorize(detached, c.GetHeader("Authorization"), c.Request.Method, c.Request.URL.Path)
		if err != nil {
			c.AbortWithStatusJSON(gatekeeper.StatusOf(err), gin.H{"detail": gatekeeper.MessageOf(err)})
			return
		}

		c.Request = c.Request.WithContext(gatekeeper.WithAuthorization(c.Request.Context(), authz))

		// Deferred so a panicking handler still reports usage. The
		// gin.Context is recycled once this handler returns, so only values
		// captured here may cross into the detached task.
		usageCtx := gatekeeper.WithAuthorization(detached, authz)
		record := authz.Request
		defer o.dispatch(func() {
			svc.RecordUsage(usageCtx, record)
		})

		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		}
		if tenant := gatekeeper.TenantFrom(c.Request.Context()); tenant != "" {
			attrs = append(attrs, slog.String("tenant", tenant))
		}

		switch {
		case status >= 500:
			logger.ErrorContext(c.Request.Context(), "request failed", attrs...)
		case status >= 400:
			logger.WarnContext(c.Request.Context(), "request rejected", attrs...)
		default:
			logger.InfoContext(c.Request.Context(), "request completed", attrs...)
		}
	}
}
