package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goliatone/go-enhance/pkg/interfaces"
)

// HTTPFetcher retrieves module resources over HTTP. It only confirms the
// resource is retrievable; applying it to the host stays with the host's own
// fetcher implementations.
type HTTPFetcher struct {
	client *http.Client
}

// HTTPOption customizes the HTTP fetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewHTTPFetcher creates a fetcher backed by net/http. The per-resource
// deadline arrives through the request context.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	fetcher := &HTTPFetcher{client: http.DefaultClient}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

// Fetch retrieves one resource. Non-2xx responses count as load failures.
func (f *HTTPFetcher) Fetch(ctx context.Context, module string, res interfaces.Resource) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return fmt.Errorf("loader: build request for %s resource %s: %w", module, res.URL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("loader: fetch %s resource %s: %w", module, res.URL, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("loader: fetch %s resource %s: unexpected status %d", module, res.URL, resp.StatusCode)
	}
	return nil
}
