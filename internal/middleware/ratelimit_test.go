package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func hit(h http.Handler, remote, fwd string) int {
	req := httptest.NewRequest(http.MethodPost, "/generate-image", nil)
	req.RemoteAddr = remote
	if fwd != "" {
		req.Header.Set("X-Forwarded-For", fwd)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(2)(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5678", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:9999", ""))

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234", ""))
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	h := RateLimitByIP(1)(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234", "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1234", "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1234", ""))
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimitByIP(0)(okHandler())
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1", ""))
	}
}
