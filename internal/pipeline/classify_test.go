package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatusTable(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{401, KindAuth, false},
		{403, KindPermission, false},
		{404, KindNotFound, false},
		{409, KindValidation, false},
		{422, KindValidation, false},
		{429, KindRateLimited, true},
		{500, KindServerError, true},
		{502, KindServerError, true},
		{503, KindServerError, true},
		{599, KindServerError, true},
		{400, KindUnknown, false},
		{302, KindUnknown, false},
		{418, KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			resp, failure := Classify(tt.status, []byte(`{"error":"x"}`), nil)
			require.Nil(t, resp)
			require.NotNil(t, failure)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Equal(t, tt.retryable, failure.Retryable)
			assert.Equal(t, tt.status, failure.StatusCode)
			assert.Contains(t, failure.Message, fmt.Sprintf("HTTP %d", tt.status))
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	resp, failure := Classify(200, []byte(`{"feature":{"id":"1"}}`), nil)
	require.Nil(t, failure)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Data, "feature")
}

func TestClassifyEmptySuccessBody(t *testing.T) {
	resp, failure := Classify(204, nil, nil)
	require.Nil(t, failure)
	assert.Nil(t, resp.Data)

	resp, failure = Classify(200, []byte("  \n"), nil)
	require.Nil(t, failure)
	assert.Nil(t, resp.Data)
}

func TestClassifyUnparsableSuccessBody(t *testing.T) {
	for _, body := range []string{"<html>", `[1,2]`, `"text"`, "null"} {
		resp, failure := Classify(200, []byte(body), nil)
		assert.Nil(t, resp, body)
		require.NotNil(t, failure, body)
		assert.Equal(t, KindUnknown, failure.Kind)
		assert.False(t, failure.Retryable)
	}
}

func TestClassifyTransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
		message   string
	}{
		{"deadline", context.DeadlineExceeded, KindNetwork, true, "request timed out"},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.aha.io"}, KindNetwork, true, "DNS lookup failed"},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindNetwork, true, "connection refused"},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, KindNetwork, true, "connection reset"},
		{"eof", io.ErrUnexpectedEOF, KindNetwork, true, "connection reset"},
		{"op", &net.OpError{Op: "dial", Err: errors.New("boom")}, KindNetwork, true, "connection failed"},
		{"other", errors.New("unsupported protocol scheme"), KindUnknown, false, "request could not be sent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, failure := Classify(0, nil, tt.err)
			require.Nil(t, resp)
			require.NotNil(t, failure)
			assert.Equal(t, tt.kind, failure.Kind)
			assert.Equal(t, tt.retryable, failure.Retryable)
			assert.Equal(t, tt.message, failure.Message)
			assert.Zero(t, failure.StatusCode)
			assert.ErrorIs(t, failure, tt.err)
		})
	}
}

func TestClassifyTruncatesErrorBody(t *testing.T) {
	body := []byte(strings.Repeat("x", maxErrorBody*2))
	_, failure := Classify(500, body, nil)
	require.NotNil(t, failure)
	assert.Len(t, failure.Body, maxErrorBody)
}

func TestClassifyMessageIgnoresBody(t *testing.T) {
	_, failure := Classify(401, []byte(`{"error":"token sk-secret is invalid"}`), nil)
	require.NotNil(t, failure)
	assert.NotContains(t, failure.Message, "sk-secret")
}

func FuzzClassify(f *testing.F) {
	f.Add(200, []byte(`{"a":1}`))
	f.Add(500, []byte("oops"))
	f.Add(429, []byte(nil))
	f.Add(-1, []byte("{"))
	f.Fuzz(func(t *testing.T, status int, body []byte) {
		resp, failure := Classify(status, body, nil)
		if (resp == nil) == (failure == nil) {
			t.Fatalf("status %d: exactly one of response and error must be set", status)
		}
		if failure != nil {
			if failure.Kind == "" || failure.Message == "" {
				t.Fatalf("status %d: incomplete failure %+v", status, failure)
			}
			if failure.Retryable && failure.Kind != KindRateLimited && failure.Kind != KindServerError {
				t.Fatalf("status %d: kind %s must not be retryable", status, failure.Kind)
			}
			if len(failure.Body) > maxErrorBody {
				t.Fatalf("status %d: body not truncated", status)
			}
		}
	})
}
