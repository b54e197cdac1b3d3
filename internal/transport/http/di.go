package http

import (
	"context"
	"fmt"
	"net/http"

	"log/slog"

	appgatekeeper "github.com/astro-web3/authz-gatekeeper/internal/app/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/config"
	"github.com/astro-web3/authz-gatekeeper/internal/infra/cache"
	"github.com/astro-web3/authz-gatekeeper/internal/infra/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/metrics"
	httpclient "github.com/astro-web3/authz-gatekeeper/pkg/http"
	"github.com/astro-web3/authz-gatekeeper/pkg/logger"
	"github.com/astro-web3/authz-gatekeeper/pkg/otel"
	"github.com/astro-web3/authz-gatekeeper/pkg/tracer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	httpServer *http.Server
	redis      *redis.Client
}

const (
	idleTimeoutMultiplier = 2
	serviceName           = "authz-gatekeeper"
)

func NewServer(cfg *config.Config) (*Server, error) {
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format, cfg.Observability.LogSource)

	otelCfg := otel.DefaultConfig(serviceName)
	otelCfg.Environment = cfg.Environment
	otelCfg.EndpointURL = cfg.Observability.TracingEndpointURL
	otelCfg.Enabled = cfg.Observability.TraceEnabled
	otelCfg.SampleRatio = cfg.Observability.SampleRatio
	otelCfg.Insecure = cfg.Observability.Insecure
	if err := tracer.InitTracer(serviceName, otelCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	remote := gatekeeper.NewClient(
		cfg.Gatekeeper.URL,
		gatekeeper.WithValidatePath(cfg.Gatekeeper.ValidatePath),
		gatekeeper.WithUsagePath(cfg.Gatekeeper.UsagePath),
		gatekeeper.WithHTTPClient(httpclient.NewClient(httpclient.WithTimeout(cfg.Gatekeeper.Timeout))),
	)

	opts := []appgatekeeper.Option{
		appgatekeeper.WithLogger(logger.L()),
		appgatekeeper.WithMetrics(m),
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = cache.NewRedisClient(cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		opts = append(opts, appgatekeeper.WithUsageTally(cache.NewUsageTally(redisClient, cfg.Redis.Retention)))
		logger.InfoContext(context.Background(), "usage tally enabled", slog.Duration("retention", cfg.Redis.Retention))
	}

	appService := appgatekeeper.NewService(remote, opts...)

	var metricsHandler http.Handler
	if cfg.Observability.MetricsEnabled {
		metricsHandler = m.Handler()
	}

	handler := NewHandler(appService)
	router := NewRouter(handler, GatekeeperMiddleware(appService), metricsHandler, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout * idleTimeoutMultiplier,
	}

	return &Server{
		httpServer: httpServer,
		redis:      redisClient,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight handlers.
// Detached usage records still in flight may be dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.redis != nil {
		if closeErr := s.redis.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close redis client: %w", closeErr)
		}
	}
	return err
}
