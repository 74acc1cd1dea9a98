package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	athttp "github.com/fivetwenty-io/autotask-client/internal/http"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func authChain() *autotask.InterceptorChain {
	chain := autotask.NewInterceptorChain()
	chain.AddRequestInterceptor(autotask.AuthInterceptor(autotask.Credentials{
		Username:        "api@example.com",
		Secret:          "s3cret",
		IntegrationCode: "CODE",
	}))

	return chain
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v1.0/Companies/42", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "api@example.com", request.Header.Get("UserName"))
			assert.Equal(t, "s3cret", request.Header.Get("Secret"))
			assert.Equal(t, "CODE", request.Header.Get("ApiIntegrationCode"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			_, _ = writer.Write([]byte(`{"item":{"id":42,"companyName":"Acme"}}`))
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL+"/v1.0", athttp.WithInterceptors(authChain()))

		resp, err := client.Do(context.Background(), &athttp.Request{Method: http.MethodGet, Path: "/Companies/42"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"item":{"id":42,"companyName":"Acme"}}`, string(resp.Body))
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]interface{}

			err := json.NewDecoder(request.Body).Decode(&body)
			assert.NoError(t, err)
			assert.Equal(t, "Acme", body["companyName"])

			writer.WriteHeader(http.StatusOK)
			_, _ = writer.Write([]byte(`{"itemId":7}`))
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL)

		resp, err := client.Post(context.Background(), "Companies", map[string]string{"companyName": "Acme"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"itemId":7}`, string(resp.Body))
	})

	t.Run("query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "api@example.com", request.URL.Query().Get("user"))
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL)

		_, err := client.Get(context.Background(), "zoneInformation", url.Values{"user": []string{"api@example.com"}})
		require.NoError(t, err)
	})

	t.Run("absolute path on the API host", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v1.0/Tickets/query/next", request.URL.Path)
			assert.Equal(t, "abc", request.URL.Query().Get("paging"))
			_, _ = writer.Write([]byte(`{"items":[]}`))
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL + "/v1.0")

		_, err := client.Get(context.Background(), server.URL+"/v1.0/Tickets/query/next?paging=abc", nil)
		require.NoError(t, err)
	})

	t.Run("absolute path on another host is refused", func(t *testing.T) {
		t.Parallel()

		var hit atomic.Bool

		foreign := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hit.Store(true)
		}))
		defer foreign.Close()

		client := athttp.NewClient("https://webservices5.autotask.net/atservicesrest/v1.0", athttp.WithInterceptors(authChain()))

		_, err := client.Get(context.Background(), foreign.URL+"/v1.0/Tickets/query/next?paging=abc", nil)
		require.ErrorIs(t, err, autotask.ErrForeignHost)
		assert.True(t, autotask.IsConfiguration(err))
		assert.False(t, hit.Load())
	})

	t.Run("non-2xx returns envelope and status error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Retry-After", "7")
			writer.WriteHeader(http.StatusTooManyRequests)
			_, _ = writer.Write([]byte(`{"errors":["slow down"]}`))
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL)

		resp, err := client.Get(context.Background(), "Tickets/1", nil)
		require.Error(t, err)
		require.NotNil(t, resp)

		var statusErr *autotask.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusTooManyRequests, statusErr.Response.StatusCode)
		assert.Equal(t, "7", resp.Headers.Get("Retry-After"))

		classified := autotask.Classify(err, "Tickets", http.MethodGet)
		assert.Equal(t, autotask.KindRateLimit, classified.Kind)
	})

	t.Run("single attempt on server error", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex

		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL)

		resp, err := client.Get(context.Background(), "Tickets/1", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		server.Close()

		client := athttp.NewClient(server.URL)

		resp, err := client.Get(context.Background(), "Tickets/1", nil)
		require.Error(t, err)
		assert.Nil(t, resp)

		var statusErr *autotask.StatusError
		assert.False(t, errors.As(err, &statusErr))
		assert.Equal(t, autotask.KindNetwork, autotask.Classify(err, "Tickets", http.MethodGet).Kind)
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			<-request.Context().Done()
		}))
		defer server.Close()

		client := athttp.NewClient(server.URL)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Get(ctx, "Tickets/1", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		_ = json.NewEncoder(writer).Encode(map[string]string{
			"method": request.Method,
			"body":   string(body),
		})
	}))
	defer server.Close()

	client := athttp.NewClient(server.URL)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() (*athttp.Response, error)
		method string
		body   string
	}{
		{"get", func() (*athttp.Response, error) { return client.Get(ctx, "Tickets/1", nil) }, http.MethodGet, ""},
		{"post", func() (*athttp.Response, error) { return client.Post(ctx, "Tickets", map[string]int{"id": 0}) }, http.MethodPost, `{"id":0}`},
		{"put", func() (*athttp.Response, error) { return client.Put(ctx, "Tickets", map[string]int{"id": 1}) }, http.MethodPut, `{"id":1}`},
		{"patch", func() (*athttp.Response, error) { return client.Patch(ctx, "Tickets", []byte(`{"id":2}`)) }, http.MethodPatch, `{"id":2}`},
		{"delete", func() (*athttp.Response, error) { return client.Delete(ctx, "Tickets/3") }, http.MethodDelete, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			require.NoError(t, err)

			var got map[string]string
			require.NoError(t, json.Unmarshal(resp.Body, &got))
			assert.Equal(t, tt.method, got["method"])
			assert.Equal(t, tt.body, got["body"])
		})
	}
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "my-agent/1.0", request.Header.Get("User-Agent"))
		assert.Equal(t, "29683", request.Header.Get("ImpersonationResourceId"))
		assert.Equal(t, "value", request.Header.Get("X-Custom"))
		assert.Equal(t, "req-1", request.Header.Get("X-Request-Id"))
		_, _ = writer.Write([]byte(`{}`))
	}))
	defer server.Close()

	chain := authChain()
	chain.AddRequestInterceptor(autotask.ImpersonationInterceptor(29683))
	chain.AddRequestInterceptor(autotask.RequestIDInterceptor())

	client := athttp.NewClient(server.URL,
		athttp.WithInterceptors(chain),
		athttp.WithUserAgent("my-agent/1.0"),
		athttp.WithConnectionPool(&autotask.ConnectionPoolConfig{MaxIdleConns: 10, MaxIdleConnsPerHost: 2}),
	)

	_, err := client.Do(autotask.WithRequestID(context.Background(), "req-1"), &athttp.Request{
		Method:  http.MethodGet,
		Path:    "Resources/29683",
		Headers: map[string]string{"X-Custom": "value"},
	})
	require.NoError(t, err)
}

func TestClient_NoRequestID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Empty(t, request.Header.Get("X-Request-Id"))
		_, _ = writer.Write([]byte(`{}`))
	}))
	defer server.Close()

	chain := autotask.NewInterceptorChain()
	chain.AddRequestInterceptor(autotask.RequestIDInterceptor())

	client := athttp.NewClient(server.URL, athttp.WithInterceptors(chain))

	_, err := client.Get(context.Background(), "Resources/29683", nil)
	require.NoError(t, err)
}

func TestClient_UnencodableBody(t *testing.T) {
	t.Parallel()

	var hit atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hit.Store(true)
	}))
	defer server.Close()

	client := athttp.NewClient(server.URL)

	_, err := client.Patch(context.Background(), "Tasks", map[string]interface{}{"estimatedHours": math.NaN()})
	require.Error(t, err)
	assert.True(t, autotask.IsValidation(err))
	assert.False(t, autotask.IsRetryable(autotask.KindOf(err)))
	assert.False(t, hit.Load())
}

func TestClient_InterceptorError(t *testing.T) {
	t.Parallel()

	var hit atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hit.Store(true)
	}))
	defer server.Close()

	errBlocked := errors.New("blocked")
	chain := autotask.NewInterceptorChain()
	chain.AddRequestInterceptor(func(ctx context.Context, req *autotask.Request) error {
		return errBlocked
	})

	client := athttp.NewClient(server.URL, athttp.WithInterceptors(chain))

	_, err := client.Get(context.Background(), "Tickets/1", nil)
	require.ErrorIs(t, err, errBlocked)
	assert.True(t, autotask.IsConfiguration(err))
	assert.False(t, hit.Load())
}

func TestClient_WithDebug(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"queryCount":3}`))
	}))
	defer server.Close()

	logger := &MockLogger{}
	client := athttp.NewClient(server.URL,
		athttp.WithLogger(logger),
		athttp.WithDebug(true),
		athttp.WithInterceptors(authChain()),
	)

	_, err := client.Get(context.Background(), "zoneInformation", url.Values{"user": []string{"api@example.com"}})
	require.NoError(t, err)

	require.Len(t, logger.logs, 2)
	assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
	assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])

	requestFields, ok := logger.logs[0]["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, requestFields["url"], "api@example.com")

	for _, entry := range logger.logs {
		fields, ok := entry["fields"].(map[string]interface{})
		require.True(t, ok)

		for _, value := range fields {
			if text, isString := value.(string); isString {
				assert.NotContains(t, text, "s3cret")
			}
		}
	}
}
