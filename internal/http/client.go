// Package http is the pooled HTTP transport every Autotask call goes through.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// maxLoggedBody bounds request and response bodies in debug logs.
const maxLoggedBody = 2048

// Request describes one HTTP call. Path is joined to the base URL unless it
// is already absolute, which is how nextPageUrl links are followed.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is the envelope handed to the error classifier.
type Response = autotask.ResponseEnvelope

// Client sends requests. It performs exactly one attempt per Do; retries
// belong to the executor, so the retryablehttp layer is configured with
// RetryMax 0 and used for its pooled transport and rewindable bodies.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	logger       autotask.Logger
	debug        bool
	userAgent    string
	interceptors *autotask.InterceptorChain
	pool         *autotask.ConnectionPoolConfig
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger autotask.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithInterceptors applies chain to every request and response.
func WithInterceptors(chain *autotask.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithConnectionPool tunes the pooled transport.
func WithConnectionPool(pool *autotask.ConnectionPoolConfig) Option {
	return func(c *Client) {
		c.pool = pool
	}
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       autotask.NoopLogger{},
		userAgent:    constants.DefaultUserAgent,
		interceptors: autotask.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	transport := cleanhttp.DefaultPooledTransport()
	if client.pool != nil {
		if client.pool.MaxIdleConns > 0 {
			transport.MaxIdleConns = client.pool.MaxIdleConns
		}

		if client.pool.MaxIdleConnsPerHost > 0 {
			transport.MaxIdleConnsPerHost = client.pool.MaxIdleConnsPerHost
		}

		if client.pool.IdleConnTimeout > 0 {
			transport.IdleConnTimeout = client.pool.IdleConnTimeout
		}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Transport: transport}
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		return false, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client.httpClient = retryClient

	return client
}

// BaseURL returns the URL relative paths are joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.HTTPClient.CloseIdleConnections()
}

// Do sends req once. Non-2xx responses are returned together with a
// *autotask.StatusError so the caller can classify status and headers.
// Failures before the request is sent come back as classified
// Configuration or Validation errors, which the executor does not retry.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.resolveURL(req.Path, req.Query)
	if err != nil {
		return nil, autotask.NewConfigurationError(err.Error(), err)
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, autotask.NewValidationError(err.Error(), err)
	}

	intercepted := &autotask.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header),
		Body:    body,
	}

	intercepted.Headers.Set("Accept", "application/json")
	intercepted.Headers.Set("User-Agent", c.userAgent)

	if body != nil {
		intercepted.Headers.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, setupError(fmt.Sprintf("preparing %s %s", req.Method, req.Path), err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, intercepted.Body)
	if err != nil {
		return nil, setupError(fmt.Sprintf("building %s %s", req.Method, req.Path), err)
	}

	httpReq.Header = intercepted.Headers

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    redactQuery(fullURL),
			"body":   truncate(intercepted.Body),
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &autotask.Response{Error: err})

		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response of %s %s: %w", req.Method, req.Path, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": req.Method,
			"url":    redactQuery(fullURL),
			"status": resp.StatusCode,
			"body":   truncate(data),
		})
	}

	var statusErr error
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr = &autotask.StatusError{Response: resp}
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &autotask.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Error:      statusErr,
	})
	if err != nil {
		return resp, err
	}

	if statusErr != nil {
		return resp, statusErr
	}

	return resp, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// setupError classifies a failure that happened before anything was sent.
// Errors that are already classified keep their kind.
func setupError(message string, err error) error {
	var classified *autotask.Error
	if errors.As(err, &classified) {
		return err
	}

	return autotask.NewConfigurationError(message+": "+err.Error(), err)
}

func (c *Client) resolveURL(path string, query url.Values) (string, error) {
	absolute := strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")

	target := path
	if !absolute {
		target = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", target, err)
	}

	// Credentials ride on every request, so absolute links must stay on the API host.
	if absolute {
		err = c.checkHost(parsed)
		if err != nil {
			return "", err
		}
	}

	if len(query) > 0 {
		merged := parsed.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}

		parsed.RawQuery = merged.Encode()
	}

	return parsed.String(), nil
}

func (c *Client) checkHost(target *url.URL) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}

	if !strings.EqualFold(base.Scheme, target.Scheme) || !strings.EqualFold(base.Host, target.Host) {
		return fmt.Errorf("%w: %s://%s", autotask.ErrForeignHost, target.Scheme, target.Host)
	}

	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case json.RawMessage:
		return value, nil
	default:
		var buf bytes.Buffer

		err := json.NewEncoder(&buf).Encode(value)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}

	return string(body)
}

// redactQuery drops the query string, which carries the user name on zone lookups.
func redactQuery(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx]
	}

	return raw
}
