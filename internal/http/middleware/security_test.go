package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newSecurityRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/books", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"books": []string{}}) })
	r.POST("/books", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/swagger/*any", func(c *gin.Context) { c.String(http.StatusOK, "<html></html>") })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := newSecurityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	h := w.Header()
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": apiCSP,
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Fatalf("%s = %q; want %q", k, got, v)
		}
	}
	if h.Get("Permissions-Policy") == "" {
		t.Fatalf("missing Permissions-Policy")
	}
	if h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("optional headers set without options: %#v", h)
	}
}

func TestSecurityHeaders_DocsPolicy(t *testing.T) {
	r := newSecurityRouter(SecurityOptions{DocsPrefix: "/swagger/"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if got := w.Header().Get("Content-Security-Policy"); got != docsCSP {
		t.Fatalf("docs CSP = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))
	if got := w.Header().Get("Content-Security-Policy"); got != apiCSP {
		t.Fatalf("api CSP = %q", got)
	}
}

func TestSecurityHeaders_CacheControlByMethod(t *testing.T) {
	r := newSecurityRouter(SecurityOptions{CacheControl: true})

	cases := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "no-cache"},
		{http.MethodPost, "no-store"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, "/books", nil))
		if got := w.Header().Get("Cache-Control"); got != tc.want {
			t.Fatalf("%s Cache-Control = %q; want %q", tc.method, got, tc.want)
		}
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	r := newSecurityRouter(SecurityOptions{HSTSMaxAge: 24 * time.Hour})
	const want = "max-age=86400; includeSubDomains"

	t.Run("tls", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.TLS = &tls.ConnectionState{}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Strict-Transport-Security"); got != want {
			t.Fatalf("HSTS = %q; want %q", got, want)
		}
	})

	t.Run("forwarded proto", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set("X-Forwarded-Proto", "HTTPS")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Strict-Transport-Security"); got != want {
			t.Fatalf("HSTS = %q; want %q", got, want)
		}
	})

	t.Run("plain http", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))
		if got := w.Header().Get("Strict-Transport-Security"); got != "" {
			t.Fatalf("HSTS on plain HTTP: %q", got)
		}
	})
}

func TestSecurityHeaders_SubSecondHSTSDisabled(t *testing.T) {
	r := newSecurityRouter(SecurityOptions{HSTSMaxAge: 500 * time.Millisecond})
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no HSTS, got %q", got)
	}
}
