package http

import (
	"errors"
	"net/http"

	"log/slog"

	appgatekeeper "github.com/astro-web3/authz-gatekeeper/internal/app/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/pkg/logger"
	"github.com/astro-web3/authz-gatekeeper/pkg/tracer"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Handler serves the application routes mounted behind GatekeeperMiddleware.
type Handler struct {
	appService appgatekeeper.Service
}

func NewHandler(appService appgatekeeper.Service) *Handler {
	return &Handler{appService: appService}
}

func (h *Handler) Root(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, gin.H{
		"message":    "Hello World",
		"realm":      gatekeeper.TenantFrom(ctx),
		"validation": gatekeeper.ResultFrom(ctx),
	})
}

func (h *Handler) Question(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, gin.H{
		"message":       "This is a validated /question endpoint.",
		"token_payload": gatekeeper.ClaimsFrom(ctx),
		"validation":    gatekeeper.ResultFrom(ctx),
	})
}

// Usage reports today's tally for the caller's own tenant.
func (h *Handler) Usage(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "transport.http.Usage")
	defer span.End()

	tenant := gatekeeper.TenantFrom(ctx)
	span.SetAttributes(attribute.String("gatekeeper.tenant", tenant))

	count, err := h.appService.UsageToday(ctx, tenant)
	if errors.Is(err, appgatekeeper.ErrNoTally) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "usage tally is not enabled"})
		return
	}
	if err != nil {
		span.RecordError(err)
		logger.ErrorContext(ctx, "failed to read usage tally",
			slog.String("tenant", tenant),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"realm":    tenant,
		"requests": count,
	})
}
