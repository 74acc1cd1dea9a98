package autotask_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

type logEntry struct {
	level   string
	message string
	fields  map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, message: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func TestInterceptorChain(t *testing.T) {
	t.Parallel()

	chain := autotask.NewInterceptorChain()

	var order []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *autotask.Request) error {
		order = append(order, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *autotask.Request) error {
		order = append(order, "second")

		return errBoom
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *autotask.Request) error {
		order = append(order, "never")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &autotask.Request{})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"first", "second"}, order)

	chain.AddResponseInterceptor(func(ctx context.Context, req *autotask.Request, resp *autotask.Response) error {
		return errBoom
	})

	err = chain.ExecuteResponseInterceptors(context.Background(), &autotask.Request{}, &autotask.Response{})
	require.ErrorIs(t, err, errBoom)
}

func TestAuthInterceptor(t *testing.T) {
	t.Parallel()

	req := &autotask.Request{Method: http.MethodGet, Path: "Tickets/1"}
	creds := autotask.Credentials{Username: "api@example.com", Secret: "s3cret", IntegrationCode: "TRACK"}

	require.NoError(t, autotask.AuthInterceptor(creds)(context.Background(), req))

	assert.Equal(t, "api@example.com", req.Headers.Get("UserName"))
	assert.Equal(t, "s3cret", req.Headers.Get("Secret"))
	assert.Equal(t, "TRACK", req.Headers.Get("ApiIntegrationCode"))
}

func TestImpersonationInterceptor(t *testing.T) {
	t.Parallel()

	req := &autotask.Request{}
	require.NoError(t, autotask.ImpersonationInterceptor(0)(context.Background(), req))
	assert.Nil(t, req.Headers)

	require.NoError(t, autotask.ImpersonationInterceptor(29683)(context.Background(), req))
	assert.Equal(t, "29683", req.Headers.Get("ImpersonationResourceId"))
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Parallel()

	req := &autotask.Request{}
	require.NoError(t, autotask.RequestIDInterceptor()(context.Background(), req))
	assert.Nil(t, req.Headers)

	ctx := autotask.WithRequestID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", autotask.RequestIDFromContext(ctx))
	assert.Empty(t, autotask.RequestIDFromContext(context.Background()))

	require.NoError(t, autotask.RequestIDInterceptor()(ctx, req))
	assert.Equal(t, "abc-123", req.Headers.Get("X-Request-Id"))
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &autotask.Request{}
	require.NoError(t, autotask.HeaderInterceptor(map[string]string{"X-Tenant": "acme"})(context.Background(), req))
	assert.Equal(t, "acme", req.Headers.Get("X-Tenant"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	ctx := autotask.WithRequestID(context.Background(), "req-9")
	req := &autotask.Request{Method: http.MethodPost, Path: "Tickets/query"}

	require.NoError(t, autotask.LoggingInterceptor(logger)(ctx, req))
	require.NoError(t, autotask.LoggingResponseInterceptor(logger)(ctx, req, &autotask.Response{StatusCode: 200}))
	require.NoError(t, autotask.LoggingResponseInterceptor(logger)(ctx, req, &autotask.Response{StatusCode: 500, Error: errBoom}))

	require.Len(t, logger.entries, 3)
	assert.Equal(t, "debug", logger.entries[0].level)
	assert.Equal(t, "req-9", logger.entries[0].fields["request_id"])
	assert.Equal(t, 200, logger.entries[1].fields["status_code"])
	assert.Equal(t, "error", logger.entries[2].level)
	assert.Equal(t, "boom", logger.entries[2].fields["error"])
}
