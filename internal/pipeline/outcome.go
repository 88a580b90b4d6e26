package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed call.
type Kind string

// Failure kinds.
const (
	KindAuth        Kind = "auth"
	KindPermission  Kind = "permission"
	KindNotFound    Kind = "not_found"
	KindValidation  Kind = "validation"
	KindRateLimited Kind = "rate_limited"
	KindNetwork     Kind = "network"
	KindServerError Kind = "server_error"
	KindUnknown     Kind = "unknown"
)

// Response is a successful call.
type Response struct {
	// StatusCode is the 2xx status of the final attempt.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// Body is the raw payload.
	Body []byte
	// Data is the parsed JSON object, nil for an empty body.
	Data map[string]any
	// Attempts is the number of transport attempts made.
	Attempts int
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Error is a failed call after retries were applied.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int
	// Message is a short sanitized description.
	Message string
	// Retryable reports how the failure was classified.
	Retryable bool
	// Attempts is the number of transport attempts made.
	Attempts int
	// Exhausted is set when a retryable failure ran out of retry budget.
	Exhausted bool
	// RetryAfter is the server hint carried by 429/503 responses.
	RetryAfter time.Duration
	// Body is a bounded copy of the error payload, if any.
	Body []byte

	cause error
}

// Error returns the sanitized message.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Exhausted {
		return fmt.Sprintf("%s (gave up after %d attempts)", e.Message, e.Attempts)
	}
	return e.Message
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsError extracts a pipeline failure from err.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the failure kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if failure, ok := AsError(err); ok {
		return failure.Kind
	}
	return KindUnknown
}
