package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
)

func TestPasswordValidator(t *testing.T) {
	v := validator.New()
	assert.Nil(t, RegisterValidators(v))

	assert.Nil(t, v.Var("longEnough1", "password"))
	assert.Error(t, v.Var("short", "password"), "Passwords under 8 characters are rejected")
	assert.Error(t, v.Var("has a space", "password"), "Passwords with whitespace are rejected")
}

func TestPhoneValidator(t *testing.T) {
	v := validator.New()
	assert.Nil(t, RegisterValidators(v))

	assert.Nil(t, v.Var("+15551234567", "phone"))
	assert.Nil(t, v.Var("5551234567", "phone"))
	assert.Error(t, v.Var("555-123", "phone"))
	assert.Error(t, v.Var("not-a-number", "phone"))
}

func TestRemoveUnknownFields(t *testing.T) {
	args := map[string]interface{}{
		"name":     "Mom",
		"phone":    "+15551234567",
		"is_admin": true,
	}

	removeUnknownFields(args, map[string]bool{"name": true, "phone": true})

	assert.Len(t, args, 2)
	assert.NotContains(t, args, "is_admin")
}

func TestRateLimiterAllow(t *testing.T) {
	limiter := newRateLimiter()

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.allow("key", 5, time.Minute), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.allow("key", 5, time.Minute), "6th request should be denied")
	assert.True(t, limiter.allow("other-key", 5, time.Minute), "limits are per key")
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := newRateLimiter()

	for i := 0; i < 3; i++ {
		limiter.allow("key", 3, 10*time.Millisecond)
	}
	assert.False(t, limiter.allow("key", 3, 10*time.Millisecond))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, limiter.allow("key", 3, 10*time.Millisecond), "should be allowed after window expires")
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:51234"
	assert.Equal(t, "10.0.0.1", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", realIP(req))
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
