// Package probe implements existence checks against the converted-object
// namespace.
package probe

import (
	"context"
	"fmt"
	"net/http"

	"photopass/internal/locator"
	"photopass/internal/port"
)

// HTTPProber issues HEAD requests against the public converted-object URL.
type HTTPProber struct {
	locator *locator.Locator
	client  *http.Client
}

// NewHTTPProber creates a prober. A nil client uses http.DefaultClient.
func NewHTTPProber(loc *locator.Locator, client *http.Client) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{locator: loc, client: client}
}

// Exists reports presence for 2xx responses and absence for 403/404 (S3
// answers 403 for missing keys when the caller cannot list the bucket).
// Any other status is returned as an error.
func (p *HTTPProber) Exists(ctx context.Context, key string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.locator.ConvertedURL(key), http.NoBody)
	if err != nil {
		return false, fmt.Errorf("building probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("probing %s: unexpected status %d", req.URL, resp.StatusCode)
	}
}

var _ port.Prober = (*HTTPProber)(nil)
