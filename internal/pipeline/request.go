package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidRequest marks a malformed request descriptor. It is returned
// before any network attempt is made.
var ErrInvalidRequest = errors.New("invalid request")

// Query holds query parameters. Values must be strings, booleans, integers
// or floats.
type Query map[string]any

// Request describes one logical API call. It is immutable once built and is
// replayed byte for byte on retries.
type Request struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

// NewRequest validates and builds a request descriptor. The path is relative
// to the API root and must start with "/". The body, when non-nil, is
// serialized as JSON immediately.
func NewRequest(method, path string, query Query, body any) (Request, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return Request{}, fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, method)
	}

	if !strings.HasPrefix(path, "/") {
		return Request{}, fmt.Errorf("%w: path %q must start with /", ErrInvalidRequest, path)
	}
	if strings.ContainsAny(path, "?#") || strings.Contains(path, "://") {
		return Request{}, fmt.Errorf("%w: path %q must not carry a host, query or fragment", ErrInvalidRequest, path)
	}

	values := make(url.Values, len(query))
	for key, value := range query {
		if strings.TrimSpace(key) == "" {
			return Request{}, fmt.Errorf("%w: empty query parameter name", ErrInvalidRequest)
		}
		encoded, err := queryValue(value)
		if err != nil {
			return Request{}, fmt.Errorf("%w: query parameter %q: %v", ErrInvalidRequest, key, err)
		}
		values.Set(key, encoded)
	}

	var payload []byte
	if body != nil {
		if method == http.MethodGet {
			return Request{}, fmt.Errorf("%w: GET request cannot carry a body", ErrInvalidRequest)
		}
		data, err := json.Marshal(body)
		if err != nil {
			return Request{}, fmt.Errorf("%w: encode body: %v", ErrInvalidRequest, err)
		}
		payload = data
	}

	return Request{method: method, path: path, query: values, body: payload}, nil
}

// MustRequest is like NewRequest but panics on error. Use it only with
// constant arguments.
func MustRequest(method, path string, query Query, body any) Request {
	req, err := NewRequest(method, path, query, body)
	if err != nil {
		panic(err)
	}
	return req
}

// Method returns the HTTP method.
func (r Request) Method() string { return r.method }

// Path returns the resource path.
func (r Request) Path() string { return r.path }

// Query returns a copy of the query parameters.
func (r Request) Query() url.Values {
	out := make(url.Values, len(r.query))
	for key, values := range r.query {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// Body returns a copy of the serialized body, or nil.
func (r Request) Body() []byte {
	if r.body == nil {
		return nil
	}
	return append([]byte(nil), r.body...)
}

// String renders the request line for logs, e.g. "GET /features?per_page=20".
func (r Request) String() string {
	if len(r.query) == 0 {
		return r.method + " " + r.path
	}
	return r.method + " " + r.path + "?" + r.query.Encode()
}

func (r Request) valid() bool {
	return r.method != "" && r.path != ""
}

func (r Request) target(baseURL string) string {
	target := baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	return target
}

func queryValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported type %T", value)
	}
}
