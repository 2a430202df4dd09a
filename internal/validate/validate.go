// Package validate checks that announcement links are live.
package validate

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds each probe.
	DefaultTimeout = 10 * time.Second
	// UserAgent is sent with every probe; several storefronts reject bare clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Validator probes URLs with HEAD, falling back to GET.
type Validator struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a validator. A zero timeout selects DefaultTimeout.
func New(client *http.Client, timeout time.Duration, logger *slog.Logger) *Validator {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Validator{client: client, timeout: timeout, logger: logger}
}

// Valid reports whether rawURL answers with a success, a redirect or 403.
func (v *Validator) Valid(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.logger.Debug("URL rejected without probe", "url", rawURL)
		return false
	}

	status, err := v.probe(ctx, http.MethodHead, u.String())
	if err == nil && acceptable(status) {
		return true
	}
	v.logger.Debug("HEAD probe inconclusive, trying GET", "url", rawURL, "status", status, "error", err)

	status, err = v.probe(ctx, http.MethodGet, u.String())
	if err == nil && acceptable(status) {
		return true
	}
	v.logger.Debug("URL unreachable", "url", rawURL, "status", status, "error", err)
	return false
}

func (v *Validator) probe(ctx context.Context, method, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			v.logger.Debug("Failed to close probe body", "error", closeErr)
		}
	}()
	return resp.StatusCode, nil
}

func acceptable(status int) bool {
	switch {
	case status >= 200 && status < 400:
		return true
	case status == http.StatusForbidden:
		return true
	}
	return false
}
