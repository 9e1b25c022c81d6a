package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRequestIDRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	r.GET("/ctx", func(c *gin.Context) {
		attrs := logger.FromContext(c.Request.Context())
		c.String(http.StatusOK, findAttrValue(attrs, "request_id"))
	})
	return r
}

func findAttrValue(attrs []slog.Attr, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value.String()
		}
	}
	return ""
}

func doRequestID(r *gin.Engine, path, upstream string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if upstream != "" {
		req.Header.Set(requestIDHeader, upstream)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	w := doRequestID(setupRequestIDRouter(RequestID()), "/test", "")

	body := w.Body.String()
	if _, err := uuid.Parse(body); err != nil {
		t.Fatalf("request ID %q is not a UUID: %v", body, err)
	}
	if got := w.Header().Get(requestIDHeader); got != body {
		t.Errorf("header = %q, want %q", got, body)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	r := setupRequestIDRouter(RequestID())
	a := doRequestID(r, "/test", "").Body.String()
	b := doRequestID(r, "/test", "").Body.String()
	if a == b {
		t.Errorf("expected distinct IDs, both were %q", a)
	}
}

func TestRequestID_IgnoresUpstreamByDefault(t *testing.T) {
	upstream := "0b6f3c2e-6a59-4a6c-8d4b-1f2e3d4c5b6a"
	w := doRequestID(setupRequestIDRouter(RequestID()), "/test", upstream)
	if w.Body.String() == upstream {
		t.Error("upstream ID reused without TrustUpstream")
	}
}

func TestRequestID_TrustUpstream(t *testing.T) {
	r := setupRequestIDRouter(RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))

	tests := []struct {
		name     string
		upstream string
		want     string
	}{
		{"uuid reused", "0b6f3c2e-6a59-4a6c-8d4b-1f2e3d4c5b6a", "0b6f3c2e-6a59-4a6c-8d4b-1f2e3d4c5b6a"},
		{"uppercase normalized", "0B6F3C2E-6A59-4A6C-8D4B-1F2E3D4C5B6A", "0b6f3c2e-6a59-4a6c-8d4b-1f2e3d4c5b6a"},
		{"free text replaced", "upstream-id-123", ""},
		{"braced form replaced", "{0b6f3c2e-6a59-4a6c-8d4b-1f2e3d4c5b6a}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := doRequestID(r, "/test", tt.upstream).Body.String()
			if tt.want != "" {
				if got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
				return
			}
			if got == tt.upstream {
				t.Errorf("invalid upstream %q was reused", tt.upstream)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("generated ID %q is not a UUID", got)
			}
		})
	}
}

func TestRequestID_StoredInGoContext(t *testing.T) {
	upstream := "0b6f3c2e-6a59-4a6c-8d4b-1f2e3d4c5b6a"
	r := setupRequestIDRouter(RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))
	if got := doRequestID(r, "/ctx", upstream).Body.String(); got != upstream {
		t.Errorf("context request_id = %q, want %q", got, upstream)
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetRequestID(c); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
