package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestBuildsDescriptor(t *testing.T) {
	req, err := NewRequest("get", "/features", Query{"q": "login", "per_page": 20, "exclude_completed": true}, nil)
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "/features", req.Path())
	assert.Equal(t, "login", req.Query().Get("q"))
	assert.Equal(t, "20", req.Query().Get("per_page"))
	assert.Equal(t, "true", req.Query().Get("exclude_completed"))
	assert.Nil(t, req.Body())
	assert.Equal(t, "GET /features?exclude_completed=true&per_page=20&q=login", req.String())
}

func TestNewRequestSerializesBodyOnce(t *testing.T) {
	req, err := NewRequest("POST", "/products/P1/features", nil, map[string]any{
		"feature": map[string]any{"name": "Login"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"feature":{"name":"Login"}}`, string(req.Body()))

	body := req.Body()
	body[0] = 'X'
	assert.JSONEq(t, `{"feature":{"name":"Login"}}`, string(req.Body()))
}

func TestNewRequestRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		query  Query
		body   any
	}{
		{"method", "PATCH", "/features", nil, nil},
		{"relative path", "GET", "features", nil, nil},
		{"query in path", "GET", "/features?q=x", nil, nil},
		{"absolute url", "GET", "/https://evil.example/x", nil, nil},
		{"empty key", "GET", "/features", Query{" ": "x"}, nil},
		{"unsupported value", "GET", "/features", Query{"ids": []string{"a"}}, nil},
		{"get body", "GET", "/features", nil, map[string]any{"a": 1}},
		{"unencodable body", "POST", "/features", nil, map[string]any{"ch": make(chan int)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.method, tt.path, tt.query, tt.body)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestRequestQueryIsCopied(t *testing.T) {
	req := MustRequest("GET", "/features", Query{"q": "a"}, nil)
	query := req.Query()
	query.Set("q", "b")
	assert.Equal(t, "a", req.Query().Get("q"))
}

func TestRequestTarget(t *testing.T) {
	req := MustRequest("DELETE", "/features/F-1", nil, nil)
	assert.Equal(t, "https://x.aha.io/api/v1/features/F-1", req.target("https://x.aha.io/api/v1"))
}

func TestMustRequestPanics(t *testing.T) {
	assert.Panics(t, func() { MustRequest("TRACE", "/", nil, nil) })
}
