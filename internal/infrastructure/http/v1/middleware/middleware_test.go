package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"admissions/internal/core/apperror"
	appctx "admissions/internal/core/context"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticValidator struct {
	principal *appctx.Principal
}

func (v staticValidator) ValidateToken(token string) (*appctx.Principal, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return v.principal, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(mw...)
	return r
}

func serve(r *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTrace_KeepsIncomingRequestID(t *testing.T) {
	r := newEngine(Trace())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
	})

	rec := serve(r, "/", http.Header{HeaderRequestID: {"req-42"}})

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, rec.Header().Get(HeaderTraceID))
}

func TestTrace_RequestIDHeaderIsCaseInsensitive(t *testing.T) {
	r := newEngine(Trace())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
	})

	rec := serve(r, "/", http.Header{"x-request-id": {"req-lower"}})

	assert.Equal(t, "req-lower", seen)
	assert.Equal(t, "req-lower", rec.Header().Get(HeaderRequestID))
}

func TestAuth(t *testing.T) {
	v := staticValidator{principal: &appctx.Principal{Subject: "c1", Role: appctx.RoleCandidate}}
	r := newEngine(Auth(v))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetSubject(c.Request.Context()))
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			rec := serve(r, "/", h)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "c1", rec.Body.String())
			}
		})
	}
}

func TestRequireDepartment(t *testing.T) {
	staff := staticValidator{principal: &appctx.Principal{Subject: "s1", Role: appctx.RoleStaff, DepartmentCode: "ECO"}}
	r := newEngine(Auth(staff))
	r.GET("/:dept", RequireRole(appctx.RoleStaff), RequireDepartment("dept"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	auth := http.Header{"Authorization": {"Bearer good"}}

	assert.Equal(t, http.StatusNoContent, serve(r, "/eco", auth).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/COM", auth).Code)
}

func TestRequireRole_RejectsOtherRoles(t *testing.T) {
	cand := staticValidator{principal: &appctx.Principal{Subject: "c1", Role: appctx.RoleCandidate}}
	r := newEngine(Auth(cand))
	r.GET("/", RequireRole(appctx.RoleStaff), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := serve(r, "/", http.Header{"Authorization": {"Bearer good"}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), apperror.CodeForbidden)
}

func TestRecovery_WritesInternalError(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/", func(*gin.Context) { panic("boom") })

	rec := serve(r, "/", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperror.CodeInternal)
	assert.NotContains(t, rec.Body.String(), "boom")
}
