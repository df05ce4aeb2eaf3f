package notifyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifications"
)

const (
	DefaultTimeout = 10 * time.Second

	userAgent    = "insurdash-notifyd/1.0"
	maxErrorBody = 1024 * 64
)

// Identity is the caller on whose behalf the API is queried.
type Identity struct {
	UserID string
	Role   string
	Token  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client talks to the notification REST API. Safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		base: base,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchSnapshot returns every notification the API holds for the caller,
// mapped to pull-origin records.
func (c *Client) FetchSnapshot(ctx context.Context, id Identity) ([]notifications.Record, error) {
	u := c.base.JoinPath("notifications")
	q := u.Query()
	q.Set("userId", id.UserID)
	q.Set("role", id.Role)
	u.RawQuery = q.Encode()

	resp, err := c.do(ctx, http.MethodGet, u, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var items []wireNotification
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}

	records := make([]notifications.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.record())
	}
	return records, nil
}

// MarkRead tells the API that one notification was read. Idempotent on the
// server side.
func (c *Client) MarkRead(ctx context.Context, id Identity, notificationID string) error {
	resp, err := c.do(ctx, http.MethodPost, c.base.JoinPath("notifications", notificationID, "read"), id)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// MarkAllRead tells the API that every notification of the caller was read.
func (c *Client) MarkAllRead(ctx context.Context, id Identity) error {
	resp, err := c.do(ctx, http.MethodPost, c.base.JoinPath("notifications", "read-all"), id)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// do sends the request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, method string, u *url.URL, id Identity) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if id.Token != "" {
		req.Header.Set("Authorization", "Bearer "+id.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "notification api call",
		slog.String("method", method),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		if msg != "" {
			return nil, fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, u.Path, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, u.Path, resp.StatusCode)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
