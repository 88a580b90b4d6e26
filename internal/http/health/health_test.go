package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadinessTransitions(t *testing.T) {
	h := New()
	probe := func() (int, string) {
		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec.Code, rec.Body.String()
	}

	code, body := probe()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body)

	h.SetReady()
	code, body = probe()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	h.SetNotReady()
	assert.False(t, h.Ready())
}

func TestHealthzAlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
