package autotask

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// ErrorKind is the closed set of failure categories a call can end in.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindValidation    ErrorKind = "validation"
	KindRateLimit     ErrorKind = "rate_limit"
	KindNotFound      ErrorKind = "not_found"
	KindServer        ErrorKind = "server"
	KindNetwork       ErrorKind = "network"
	KindConfiguration ErrorKind = "configuration"
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	return string(k)
}

// IsRetryable reports whether a failure of this kind may succeed on another attempt.
func IsRetryable(kind ErrorKind) bool {
	switch kind {
	case KindNetwork, KindServer, KindRateLimit:
		return true
	case KindAuth, KindValidation, KindNotFound, KindConfiguration:
		return false
	default:
		return false
	}
}

// ShouldRetry decides whether attempt (1-based, already made) may be followed by another one.
func ShouldRetry(kind ErrorKind, attempt, retries int) bool {
	return IsRetryable(kind) && attempt <= retries
}

// Error is the only error type surfaced by the request layer. Fields are set
// at construction and never mutated afterwards.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Endpoint   string
	Method     string
	RequestID  string
	Timestamp  time.Time

	// RetryAfter is the server's hint for RateLimit errors, zero when absent.
	RetryAfter time.Duration

	// Timeout is set on Network errors caused by a deadline.
	Timeout bool

	// ValidationErrors holds field-level messages for Validation errors.
	ValidationErrors []string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString("autotask ")
	sb.WriteString(string(e.Kind))
	sb.WriteString(" error")

	if e.Method != "" || e.Endpoint != "" {
		sb.WriteString(fmt.Sprintf(" (%s %s)", e.Method, e.Endpoint))
	}

	if e.StatusCode > 0 {
		sb.WriteString(fmt.Sprintf(" status %d", e.StatusCode))
	}

	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	if len(e.ValidationErrors) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(e.ValidationErrors, "; "))
		sb.WriteString("]")
	}

	if e.Kind == KindRateLimit && e.RetryAfter > 0 {
		sb.WriteString(fmt.Sprintf(" (retry after %s)", e.RetryAfter))
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error's kind is retryable.
func (e *Error) Retryable() bool {
	return IsRetryable(e.Kind)
}

// WithRequest returns a copy carrying the request identity. The receiver is not modified.
func (e *Error) WithRequest(endpoint, method, requestID string) *Error {
	clone := *e
	if clone.Endpoint == "" {
		clone.Endpoint = endpoint
	}

	if clone.Method == "" {
		clone.Method = method
	}

	if clone.RequestID == "" {
		clone.RequestID = requestID
	}

	return &clone
}

// ResponseError is the error body returned by the Autotask API.
type ResponseError struct {
	Errors []string `json:"errors" yaml:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return "unknown error"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0]
	}

	return fmt.Sprintf("multiple errors: %s", strings.Join(e.Errors, "; "))
}

// ParseResponseError parses an error response from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// ResponseEnvelope is the fixed shape of every HTTP response handed to the classifier.
type ResponseEnvelope struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StatusError is returned by the transport for any non-2xx response.
type StatusError struct {
	Response *ResponseEnvelope
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Response == nil {
		return "unexpected response"
	}

	return fmt.Sprintf("unexpected status %d", e.Response.StatusCode)
}

// Static configuration errors for err113 compliance.
var (
	ErrConfigRequired          = errors.New("config is required")
	ErrUsernameRequired        = errors.New("username is required")
	ErrSecretRequired          = errors.New("secret is required")
	ErrIntegrationCodeRequired = errors.New("API integration code is required")
	ErrInvalidRetries          = errors.New("retries cannot be negative")
	ErrInvalidRate             = errors.New("requests per second must be positive")
	ErrInvalidTimeout          = errors.New("timeout cannot be negative")
	ErrInvalidBaseURL          = errors.New("base URL must be an absolute http(s) URL")
	ErrZoneNotResolved         = errors.New("zone discovery returned no API URL")
	ErrUnknownEntity           = errors.New("unknown entity")
	ErrOperationNotAllowed     = errors.New("operation not allowed for entity")
	ErrParentIDRequired        = errors.New("parent id is required for child entity")
	ErrEntityIDRequired        = errors.New("entity id is required")
	ErrEmptyPatch              = errors.New("patch contains no fields")
	ErrNoMoreItems             = errors.New("no more items")
	ErrQuotaNotConfigured      = errors.New("no quota store configured")
	ErrForeignHost             = errors.New("URL host does not match the API host")
)

// NewConfigurationError builds a Configuration error. These are raised before
// any network activity and are never retried.
func NewConfigurationError(message string, cause error) *Error {
	return &Error{
		Kind:      KindConfiguration,
		Message:   message,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

// NewValidationError builds a Validation error for a request that was rejected
// locally, before anything was sent.
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Kind:      KindValidation,
		Message:   message,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

// Classify maps a transport outcome onto exactly one ErrorKind. Errors that
// are already classified are returned unchanged.
func Classify(err error, endpoint, method string) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Response != nil {
		return classifyResponse(statusErr.Response, endpoint, method, err)
	}

	return &Error{
		Kind:      KindNetwork,
		Message:   err.Error(),
		Endpoint:  endpoint,
		Method:    method,
		Timestamp: time.Now(),
		Timeout:   isTimeout(err),
		Err:       err,
	}
}

// ClassifyResponse classifies a received response. 2xx responses yield nil.
func ClassifyResponse(resp *ResponseEnvelope, endpoint, method string) *Error {
	if resp == nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}

	return classifyResponse(resp, endpoint, method, &StatusError{Response: resp})
}

func classifyResponse(resp *ResponseEnvelope, endpoint, method string, cause error) *Error {
	classified := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		Method:     method,
		Timestamp:  time.Now(),
		Err:        cause,
	}

	messages := bodyMessages(resp.Body)

	switch {
	case len(messages) > 0:
		classified.Message = strings.Join(messages, "; ")
	default:
		classified.Message = http.StatusText(resp.StatusCode)
	}

	switch classified.Kind {
	case KindValidation:
		classified.ValidationErrors = messages
	case KindRateLimit:
		classified.RetryAfter = ParseRetryAfter(resp.Headers.Get(constants.HeaderRetryAfter), time.Now())
	case KindAuth, KindNotFound, KindServer, KindNetwork, KindConfiguration:
	}

	return classified
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServer
	default:
		return KindServer
	}
}

// bodyMessages extracts messages from an Autotask error body. Bodies that are
// not JSON but carry text are returned as a single message.
func bodyMessages(body []byte) []string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}

	errResp, err := ParseResponseError(body)
	if err == nil && len(errResp.Errors) > 0 {
		return errResp.Errors
	}

	var generic struct {
		Message string `json:"message"`
	}

	if json.Unmarshal(body, &generic) == nil && generic.Message != "" {
		return []string{generic.Message}
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "<") {
		return nil
	}

	return []string{trimmed}
}

// ParseRetryAfter accepts delta-seconds or an HTTP-date. Invalid or past values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}

		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if wait := at.Sub(now); wait > 0 {
			return wait
		}
	}

	return 0
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	return ""
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsAuth checks if the error is an authentication or authorization error.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsRateLimit checks if the error is a rate limit error.
func IsRateLimit(err error) bool {
	return KindOf(err) == KindRateLimit
}

// IsServer checks if the error is a server error.
func IsServer(err error) bool {
	return KindOf(err) == KindServer
}

// IsNetwork checks if the error is a network error.
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsConfiguration checks if the error is a configuration error.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}
