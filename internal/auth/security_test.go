package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsLocalPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/announcements/3", true},
		{"/announcements?status=open", true},
		{"", false},
		{"announcements", false},
		{"//evil.com", false},
		{"https://evil.com", false},
		{"/redirect?to=https://evil.com", false},
		{"/\\evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isLocalPath(tt.path))
		})
	}

	assert.Equal(t, "/", sanitizeRedirectPath("//evil.com"))
	assert.Equal(t, "/companies/1", sanitizeRedirectPath("/companies/1"))
}

func newTestLimiter(now *time.Time) *RateLimiter {
	rl := NewRateLimiter(3, 10*time.Minute, 30*time.Minute)
	rl.now = func() time.Time { return *now }
	return rl
}

func TestRateLimiter_LocksOutAfterMaxAttempts(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(&now)

	for i := 0; i < 2; i++ {
		allowed, _ := rl.Allow("1.2.3.4", "jamie@example.com")
		assert.True(t, allowed)
		assert.False(t, rl.RecordFailure("1.2.3.4", "jamie@example.com"))
	}
	assert.True(t, rl.RecordFailure("1.2.3.4", "jamie@example.com"))

	allowed, retryAfter := rl.Allow("1.2.3.4", "jamie@example.com")
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Minute, retryAfter)

	// Other pairs are unaffected.
	allowed, _ = rl.Allow("1.2.3.4", "robin@example.com")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("5.6.7.8", "jamie@example.com")
	assert.True(t, allowed)

	now = now.Add(31 * time.Minute)
	allowed, _ = rl.Allow("1.2.3.4", "jamie@example.com")
	assert.True(t, allowed)
	assert.Empty(t, rl.attempts)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(&now)

	rl.RecordFailure("1.2.3.4", "jamie@example.com")
	rl.RecordFailure("1.2.3.4", "jamie@example.com")

	now = now.Add(11 * time.Minute)
	assert.False(t, rl.RecordFailure("1.2.3.4", "jamie@example.com"))
	allowed, _ := rl.Allow("1.2.3.4", "jamie@example.com")
	assert.True(t, allowed)
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(&now)

	rl.RecordFailure("1.2.3.4", "jamie@example.com")
	rl.RecordFailure("1.2.3.4", "jamie@example.com")
	rl.RecordSuccess("1.2.3.4", "jamie@example.com")

	assert.False(t, rl.RecordFailure("1.2.3.4", "jamie@example.com"))
	assert.False(t, rl.RecordFailure("1.2.3.4", "jamie@example.com"))
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0)
	assert.Equal(t, 5, rl.maxAttempts)
	assert.Equal(t, 15*time.Minute, rl.windowDuration)
	assert.Equal(t, 30*time.Minute, rl.lockoutDuration)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rr.Header().Get("Referrer-Policy"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "form-action 'self' https://example.com")
	assert.Contains(t, rr.Header().Get("Permissions-Policy"), "camera=()")
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(31536000))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}
