package gatekeeper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	httpclient "github.com/astro-web3/authz-gatekeeper/pkg/http"
	"github.com/astro-web3/authz-gatekeeper/pkg/logger"
)

const (
	DefaultValidatePath = "/validate"
	DefaultUsagePath    = "/recordUsage"
)

// Client talks to the remote Authorization Service.
type Client interface {
	Validate(ctx context.Context, req gatekeeper.Request) (gatekeeper.Result, error)
	RecordUsage(ctx context.Context, req gatekeeper.Request) error
}

type Option func(*client)

func WithValidatePath(path string) Option {
	return func(c *client) {
		if path != "" {
			c.validatePath = path
		}
	}
}

func WithUsagePath(path string) Option {
	return func(c *client) {
		if path != "" {
			c.usagePath = path
		}
	}
}

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.http = hc
		}
	}
}

type client struct {
	baseURL      string
	validatePath string
	usagePath    string
	http         *httpclient.Client
}

func NewClient(baseURL string, opts ...Option) Client {
	c := &client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		validatePath: DefaultValidatePath,
		usagePath:    DefaultUsagePath,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewClient()
	}
	return c
}

func (c *client) Validate(ctx context.Context, req gatekeeper.Request) (gatekeeper.Result, error) {
	resp, err := c.http.Post(ctx, c.baseURL+c.validatePath, httpclient.WithBody(req))
	if err != nil {
		return nil, gatekeeper.ValidationUnavailable(
			fmt.Sprintf("Gatekeeper validation failed: %v", err), err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusForbidden:
		logger.DebugContext(ctx, "gatekeeper denied request",
			slog.String("organization_name", req.OrganizationName),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
		)
		return nil, gatekeeper.Forbidden()
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return nil, gatekeeper.ValidationUnavailable(
			fmt.Sprintf("Gatekeeper validation failed: unexpected status %d", status), nil)
	}

	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return gatekeeper.Result("null"), nil
	}
	if !json.Valid(body) {
		return nil, gatekeeper.ValidationUnavailable(
			"Gatekeeper validation failed: response is not valid JSON", nil)
	}

	return gatekeeper.Result(body), nil
}

func (c *client) RecordUsage(ctx context.Context, req gatekeeper.Request) error {
	resp, err := c.http.Post(ctx, c.baseURL+c.usagePath, httpclient.WithBody(req))
	if err != nil {
		return gatekeeper.UsageRecordingFailure("usage request failed", err)
	}

	if !resp.IsSuccess() {
		return gatekeeper.UsageRecordingFailure(
			fmt.Sprintf("usage request returned %s", resp.Status()), nil)
	}

	return nil
}
