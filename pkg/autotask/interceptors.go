package autotask

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// Request represents an HTTP request that can be intercepted.
type Request struct {
	Method   string
	Path     string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response represents an HTTP response that can be intercepted.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor is called before every attempt is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after every attempt completes.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

type contextKey string

const requestIDKey contextKey = "autotask-request-id"

// WithRequestID attaches the call's request id to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)

	return id
}

func ensureHeaders(req *Request) {
	if req.Headers == nil {
		req.Headers = make(http.Header)
	}
}

// Credentials are the three values Autotask authenticates every request with.
type Credentials struct {
	Username        string
	Secret          string
	IntegrationCode string
}

// AuthInterceptor sets the UserName, Secret and ApiIntegrationCode headers.
func AuthInterceptor(creds Credentials) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		ensureHeaders(req)
		req.Headers.Set(constants.HeaderUserName, creds.Username)
		req.Headers.Set(constants.HeaderSecret, creds.Secret)
		req.Headers.Set(constants.HeaderIntegrationCode, creds.IntegrationCode)

		return nil
	}
}

// ImpersonationInterceptor attributes writes to another resource.
func ImpersonationInterceptor(resourceID int64) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if resourceID <= 0 {
			return nil
		}

		ensureHeaders(req)
		req.Headers.Set(constants.HeaderImpersonationResourceID, strconv.FormatInt(resourceID, 10))

		return nil
	}
}

// RequestIDInterceptor forwards the call's request id so retries of one call
// can be correlated in server and proxy logs.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		id := RequestIDFromContext(ctx)
		if id == "" {
			return nil
		}

		ensureHeaders(req)
		req.Headers.Set(constants.HeaderRequestID, id)

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		ensureHeaders(req)

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"method":     req.Method,
			"path":       req.Path,
			"request_id": RequestIDFromContext(ctx),
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
			"request_id":  RequestIDFromContext(ctx),
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}
