package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

const maxErrorBody = 4 << 10

// Classify maps the raw result of one transport attempt onto a Response or
// an Error. Body content is only parsed for 2xx statuses and never inspected
// for business meaning.
func Classify(status int, body []byte, err error) (*Response, *Error) {
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if status >= 200 && status <= 299 {
		return parseSuccess(status, body)
	}
	return nil, classifyStatus(status, body)
}

func parseSuccess(status int, body []byte) (*Response, *Error) {
	resp := &Response{StatusCode: status, Body: body}
	if len(bytes.TrimSpace(body)) == 0 {
		return resp, nil
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		return nil, &Error{
			Kind:       KindUnknown,
			StatusCode: status,
			Message:    fmt.Sprintf("unparsable response body (HTTP %d)", status),
			cause:      err,
		}
	}
	resp.Data = data
	return resp, nil
}

func classifyStatus(status int, body []byte) *Error {
	failure := &Error{StatusCode: status, Body: truncate(body, maxErrorBody)}
	var text string
	switch {
	case status == http.StatusUnauthorized:
		failure.Kind, text = KindAuth, "authentication failed"
	case status == http.StatusForbidden:
		failure.Kind, text = KindPermission, "permission denied"
	case status == http.StatusNotFound:
		failure.Kind, text = KindNotFound, "resource not found"
	case status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		failure.Kind, text = KindValidation, "request rejected as invalid"
	case status == http.StatusTooManyRequests:
		failure.Kind, text, failure.Retryable = KindRateLimited, "rate limit exceeded", true
	case status >= 500 && status <= 599:
		failure.Kind, text, failure.Retryable = KindServerError, "remote server error", true
	default:
		failure.Kind, text = KindUnknown, "unexpected response status"
	}
	failure.Message = fmt.Sprintf("%s (HTTP %d)", text, status)
	return failure
}

func classifyTransportError(err error) *Error {
	failure := &Error{Kind: KindNetwork, Retryable: true, cause: err}
	var (
		netErr net.Error
		dnsErr *net.DNSError
		opErr  *net.OpError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		failure.Message = "request timed out"
	case errors.As(err, &dnsErr):
		failure.Message = "DNS lookup failed"
	case errors.Is(err, syscall.ECONNREFUSED):
		failure.Message = "connection refused"
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		failure.Message = "connection reset"
	case errors.As(err, &opErr):
		failure.Message = "connection failed"
	default:
		failure.Kind = KindUnknown
		failure.Retryable = false
		failure.Message = "request could not be sent"
	}
	return failure
}

func truncate(body []byte, limit int) []byte {
	if len(body) == 0 {
		return nil
	}
	if len(body) > limit {
		body = body[:limit]
	}
	return append([]byte(nil), body...)
}
