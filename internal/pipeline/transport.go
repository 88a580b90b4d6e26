package pipeline

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

const maxResponseBody = 10 << 20

// HTTPDoer issues a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type transport struct {
	baseURL    string
	credential Credential
	userAgent  string
	headers    map[string]string
	timeout    time.Duration
	client     HTTPDoer
}

type attemptResult struct {
	status int
	header http.Header
	body   []byte
	err    error
}

// roundTrip performs exactly one HTTP attempt. It neither retries nor
// classifies.
func (t *transport) roundTrip(ctx context.Context, req Request) attemptResult {
	attemptCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.body) > 0 {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.method, req.target(t.baseURL), body)
	if err != nil {
		return attemptResult{err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	for key, value := range t.headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Authorization", t.credential.authorization())

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return attemptResult{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return attemptResult{status: resp.StatusCode, header: resp.Header, err: err}
	}
	return attemptResult{status: resp.StatusCode, header: resp.Header, body: data}
}

// newHTTPClient returns a client with a pooled keep-alive transport. The
// per-attempt timeout is applied through the request context instead.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          32,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}
