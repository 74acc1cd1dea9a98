package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/internal/client"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// recordedRequest is what the fake Autotask server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]interface{}
}

// fakeServer records requests and answers them with handler.
type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body map[string]interface{})) *fakeServer {
	t.Helper()

	fake := &fakeServer{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}

		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}

		fake.mu.Lock()
		fake.requests = append(fake.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		fake.mu.Unlock()

		handler(w, r, body)
	}))
	t.Cleanup(fake.Close)

	return fake
}

func (f *fakeServer) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)

	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(baseURL string) *autotask.Config {
	return &autotask.Config{
		Username:          "api@example.com",
		Secret:            "s3cret",
		IntegrationCode:   "TRACKING",
		BaseURL:           baseURL,
		Retries:           autotask.Int(1),
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		RequestsPerSecond: 1000,
	}
}

func newTestClient(t *testing.T, fake *fakeServer, mutate ...func(*autotask.Config)) *client.Client {
	t.Helper()

	cfg := testConfig(fake.URL + "/atservicesrest")
	for _, fn := range mutate {
		fn(cfg)
	}

	c, err := client.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}
