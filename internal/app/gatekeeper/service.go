package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/infra/cache"
	remote "github.com/astro-web3/authz-gatekeeper/internal/infra/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/metrics"
	"github.com/astro-web3/authz-gatekeeper/pkg/tracer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Service interface {
	// Authorize extracts the bearer token from header and asks the remote
	// service whether the tenant may perform method on path.
	Authorize(ctx context.Context, header, method, path string) (*gatekeeper.Authorization, error)
	// RecordUsage reports an authorized request. Failures are logged and dropped.
	RecordUsage(ctx context.Context, req gatekeeper.Request)
	// UsageToday returns the tenant's tally for the current day.
	UsageToday(ctx context.Context, tenant string) (int64, error)
}

var ErrNoTally = errors.New("usage tally is not configured")

type Option func(*service)

func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithUsageTally(tally cache.UsageTally) Option {
	return func(s *service) {
		s.tally = tally
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	client  remote.Client
	tally   cache.UsageTally
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(client remote.Client, opts ...Option) Service {
	s := &service{
		client:  client,
		log:     slog.Default(),
		metrics: metrics.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Authorize(ctx context.Context, header, method, path string) (*gatekeeper.Authorization, error) {
	ctx, span := tracer.Start(ctx, "app.gatekeeper.Authorize")
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	token, err := gatekeeper.ExtractToken(header)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token extraction failed")
		s.metrics.Validations.WithLabelValues(metrics.OutcomeUnauthenticated).Inc()
		s.log.DebugContext(ctx, "rejected request without usable token",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("gatekeeper.tenant", token.Tenant))

	req := gatekeeper.NewRequest(token.Tenant, method, path)

	start := s.now()
	result, err := s.client.Validate(ctx, req)
	s.metrics.ValidationDuration.Observe(s.now().Sub(start).Seconds())

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gatekeeper.ErrForbidden) {
			span.SetAttributes(attribute.Bool("gatekeeper.allowed", false))
			s.metrics.Validations.WithLabelValues(metrics.OutcomeForbidden).Inc()
			s.log.WarnContext(ctx, "request denied by gatekeeper",
				slog.String("tenant", token.Tenant),
				slog.String("method", method),
				slog.String("path", path),
			)
			return nil, err
		}

		span.SetStatus(codes.Error, "validation unavailable")
		s.metrics.Validations.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		s.log.ErrorContext(ctx, "gatekeeper validation failed",
			slog.String("tenant", token.Tenant),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("gatekeeper.allowed", true))
	s.metrics.Validations.WithLabelValues(metrics.OutcomeAllowed).Inc()

	return &gatekeeper.Authorization{
		Token:   token,
		Request: req,
		Result:  result,
	}, nil
}

func (s *service) RecordUsage(ctx context.Context, req gatekeeper.Request) {
	ctx, span := tracer.Start(ctx, "app.gatekeeper.RecordUsage")
	defer span.End()

	span.SetAttributes(attribute.String("gatekeeper.tenant", req.OrganizationName))

	if err := s.client.RecordUsage(ctx, req); err != nil {
		span.RecordError(err)
		s.metrics.UsageRecords.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.log.WarnContext(ctx, "usage recording failed",
			slog.String("tenant", req.OrganizationName),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
	} else {
		s.metrics.UsageRecords.WithLabelValues(metrics.OutcomeRecorded).Inc()
		s.log.DebugContext(ctx, "usage recorded", slog.String("tenant", req.OrganizationName))
	}

	if s.tally == nil {
		return
	}
	if err := s.tally.Increment(ctx, req, s.now()); err != nil {
		span.RecordError(err)
		s.log.WarnContext(ctx, "usage tally update failed",
			slog.String("tenant", req.OrganizationName),
			slog.String("error", err.Error()),
		)
	}
}

func (s *service) UsageToday(ctx context.Context, tenant string) (int64, error) {
	if s.tally == nil {
		return 0, ErrNoTally
	}
	return s.tally.Count(ctx, tenant, s.now())
}
