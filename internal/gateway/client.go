package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"shareit/internal/config"
	"shareit/internal/models"
	"shareit/internal/worker"

	"github.com/rs/zerolog"
)

// Request is one validated call replayed against the server tier.
type Request struct {
	Method    string
	Path      string
	RawQuery  string
	UserID    string
	RequestID string
	Body      []byte
}

// Response is relayed to the caller unchanged.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client forwards requests to the server tier.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	retry   worker.RetryPolicy
	log     zerolog.Logger
}

func NewClient(cfg config.GatewayConfig, logger *zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		retry:   worker.PolicyFromConfig(cfg.Retry),
		log:     zerolog.Nop(),
	}
	if logger != nil {
		c.log = logger.With().Str("component", "gateway_client").Logger()
	}
	return c, nil
}

// Do sends req and reads the whole response. Only GET is retried, and only
// when the server could not be reached at all.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + req.Path
	target.RawQuery = req.RawQuery

	policy := c.retry
	if req.Method != http.MethodGet {
		policy.MaxRetries = 0
	}

	var resp *Response
	attempt := 0
	err := policy.Do(ctx, isTransportError, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.log.Warn().Str("request_id", req.RequestID).Int("attempt", attempt).Str("path", req.Path).Msg("retrying upstream request")
		}
		var err error
		resp, err = c.send(ctx, target.String(), req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, target string, req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.UserID != "" {
		httpReq.Header.Set(models.HeaderUserID, req.UserID)
	}
	if req.RequestID != "" {
		httpReq.Header.Set(models.HeaderRequestID, req.RequestID)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &transportError{err: err}
	}
	return &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "upstream unreachable: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransportError(err error) bool {
	var te *transportError
	if !errors.As(err, &te) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
