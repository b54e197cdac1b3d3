package http

import (
	"context"
	"net/http"
	"time"

	"github.com/astro-web3/authz-gatekeeper/pkg/tracer"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client is a JSON HTTP client that propagates trace context and records a
// client span per request. Requests are attempted exactly once.
type Client struct {
	resty *resty.Client
}

type ClientOption func(*resty.Client)

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *resty.Client) {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	// No cookie jar: nothing set by one response may leak into another
	// tenant's request.
	rc := resty.New().
		SetCookieJar(nil).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	for _, opt := range opts {
		opt(rc)
	}

	return &Client{resty: rc}
}

type RequestOption func(*resty.Request)

func WithBody(body any) RequestOption {
	return func(r *resty.Request) {
		r.SetBody(body)
	}
}

func (c *Client) Request(ctx context.Context, method, url string, opts ...RequestOption) (*resty.Response, error) {
	ctx, span := startClientSpan(ctx, "http.Request", method, url)
	defer span.End()

	request := c.resty.R().SetContext(ctx)

	for _, opt := range opts {
		opt(request)
	}

	injectTracingHeaders(ctx, request)

	resp, err := request.Execute(method, url)

	recordSpan(span, resp, err)
	return resp, err
}

func (c *Client) Post(ctx context.Context, url string, opts ...RequestOption) (*resty.Response, error) {
	return c.Request(ctx, http.MethodPost, url, opts...)
}

func startClientSpan(
	ctx context.Context,
	spanName string,
	method string,
	url string,
) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
}

func recordSpan(span trace.Span, resp *resty.Response, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if resp == nil {
		return
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.IsError() {
		span.SetStatus(codes.Error, resp.Status())
		return
	}
	span.SetStatus(codes.Ok, "")
}
