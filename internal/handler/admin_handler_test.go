package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/blockcms/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	protected := r.Group("/admin", AuthRequired())
	protected.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	protected.GET("/api/pages", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/pages", nil))
	expectStatus(t, rec, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	if _, err := db.SetUserPassword(env.api.DB(), "admin", "s3cret"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	env.router.POST("/login", env.api.Login)

	post := func(password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {"admin"}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := post("wrong")
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.html.H(t)["error"] == nil {
		t.Fatal("expected an error message on the login page")
	}

	rec = post("s3cret")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected a session cookie")
	}
}

func TestShowDashboardCounts(t *testing.T) {
	env := newTestEnv(t)
	createTestPage(t, env, map[string]any{"title": "One", "status": "published"})
	createTestPage(t, env, map[string]any{"title": "Two"})

	rec := env.do(t, http.MethodGet, "/admin/dashboard", nil)
	expectStatus(t, rec, http.StatusOK)
	data := env.html.H(t)
	if data["pageCount"] != int64(2) || data["publishedCount"] != int64(1) {
		t.Fatalf("unexpected counts %+v", data)
	}
	if data["componentCount"] != len(env.api.catalog.All()) {
		t.Fatalf("unexpected component count %v", data["componentCount"])
	}
}
