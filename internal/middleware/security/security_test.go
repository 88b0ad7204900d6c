package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/donors", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"), "no HSTS over plain HTTP")

	req := httptest.NewRequest(http.MethodGet, "/donors", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name  string
		build func() *http.Request
		want  bool
	}{
		{"plain api call", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/reports/tiers", nil)
			r.Header.Set("User-Agent", "curl/8.4.0")
			return r
		}, false},
		{"path traversal", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/donors/..%2F..%2Fetc/passwd", nil)
		}, true},
		{"script in query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/donors?tier=<script>", nil)
		}, true},
		{"scanner agent", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("User-Agent", "sqlmap/1.7")
			return r
		}, true},
		{"trace method", func() *http.Request {
			return httptest.NewRequest("TRACE", "/", nil)
		}, true},
		{"long url", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/donors?q="+strings.Repeat("a", 2100), nil)
		}, true},
		{"many proxy hops", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
			return r
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			assert.Equal(t, tt.want, d.DetectSuspiciousRequest(tt.build()))
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "203.0.113.9", d.ExtractClientIP(r), "untrusted peer cannot spoof")

	r.RemoteAddr = "10.0.0.2:5555"
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", d.ExtractClientIP(r))

	r.Header.Set("X-Real-IP", "garbage")
	assert.Equal(t, "10.0.0.2", d.ExtractClientIP(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(r))
	assert.Error(t, d.AddTrustedProxy("not-a-cidr"))
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector()
	called := 0
	h := d.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called++ }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("TRACE", "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "nikto")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 1, called, "suspicious but allowed methods still pass")
	assert.Equal(t, int64(2), d.GetMetrics().SuspiciousRequests)
}
