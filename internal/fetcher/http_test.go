package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/andybalholm/brotli"

	"mercascan/internal/config"
	"mercascan/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(config.DefaultConfig(), testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func fetchURL(t *testing.T, f *HTTPFetcher, url string) (*types.Response, error) {
	t.Helper()
	req, err := types.NewRequest(url)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return f.Fetch(context.Background(), req)
}

func TestFetchPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		w.Write([]byte("<html><body>hola</body></html>"))
	}))
	defer srv.Close()

	resp, err := fetchURL(t, newTestFetcher(t), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !bytes.Contains(resp.Body, []byte("hola")) {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestFetchDecompressesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<html>comprimido</html>"))
		gz.Close()
	}))
	defer srv.Close()

	resp, err := fetchURL(t, newTestFetcher(t), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Contains(resp.Body, []byte("comprimido")) {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestFetchDecompressesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte("<html>brotli body</html>"))
		bw.Close()
	}))
	defer srv.Close()

	resp, err := fetchURL(t, newTestFetcher(t), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Contains(resp.Body, []byte("brotli body")) {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestFetchRateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := fetchURL(t, newTestFetcher(t), srv.URL)
	var ferr *types.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if !ferr.Retryable || ferr.StatusCode != 429 {
		t.Errorf("retryable = %v, status = %d", ferr.Retryable, ferr.StatusCode)
	}
	if ferr.RetryAfter.Seconds() != 7 {
		t.Errorf("retry after = %v, want 7s", ferr.RetryAfter)
	}
}

func TestFetchServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := fetchURL(t, newTestFetcher(t), srv.URL)
	var ferr *types.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if !ferr.Retryable {
		t.Error("5xx must be retryable")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want float64 // seconds
	}{
		{"", 5},
		{"10", 10},
		{"600", 120}, // capped
		{"garbage", 5},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got.Seconds() != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %vs", tt.in, got, tt.want)
		}
	}
}

func TestUserAgentRotation(t *testing.T) {
	f := newTestFetcher(t)
	first := f.nextUserAgent()
	second := f.nextUserAgent()
	if first == second {
		t.Errorf("user agents did not rotate: %q", first)
	}
}
