package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-enhance/pkg/interfaces"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.js" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("console.log('ok')"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(WithHTTPClient(server.Client()))

	res := interfaces.Resource{Kind: interfaces.ResourceScript, URL: server.URL + "/ok.js"}
	if err := fetcher.Fetch(context.Background(), "performance", res); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	res.URL = server.URL + "/missing.js"
	if err := fetcher.Fetch(context.Background(), "performance", res); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestHTTPFetcher_HonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(WithHTTPClient(server.Client()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := interfaces.Resource{Kind: interfaces.ResourceScript, URL: server.URL + "/slow.js"}
	if err := fetcher.Fetch(ctx, "performance", res); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
