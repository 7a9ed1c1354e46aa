package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubHTMLRender records the template name and data instead of rendering.
type stubHTMLRender struct {
	name string
	data interface{}
}

type stubHTMLInstance struct {
	owner *stubHTMLRender
	name  string
	data  interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.name = name
	r.data = data
	return &stubHTMLInstance{owner: r, name: name, data: data}
}

func (r *stubHTMLInstance) Render(w http.ResponseWriter) error {
	_, err := io.WriteString(w, r.name)
	return err
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func (r *stubHTMLRender) H(t *testing.T) gin.H {
	t.Helper()
	h, ok := r.data.(gin.H)
	if !ok {
		t.Fatalf("expected gin.H template data, got %T", r.data)
	}
	return h
}

func setupHandlerTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

type testEnv struct {
	api    *API
	router *gin.Engine
	html   *stubHTMLRender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, cleanup := setupHandlerTestDB(t)
	t.Cleanup(cleanup)

	api, err := NewAPI(gdb, Options{
		Store:          storage.NewLocalStore(t.TempDir(), "/static/uploads"),
		MaxUploadBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}

	html := &stubHTMLRender{}
	r := gin.New()
	r.HTMLRender = html
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/healthz", api.HealthCheck)
	r.GET("/", api.ShowHome)
	r.GET("/api/site-settings/:type", api.GetSiteSetting)
	r.NoRoute(api.ShowPage)

	// 测试中跳过登录，直接写入会话用户。
	admin := r.Group("/admin", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set("user_id", uint(1))
		session.Set("username", "tester")
		c.Next()
	})
	admin.GET("/dashboard", api.ShowDashboard)
	admin.GET("/pages", api.ShowPageList)
	admin.GET("/pages/new", api.ShowPageEditor)
	admin.GET("/pages/:id/edit", api.ShowPageEditor)
	admin.GET("/settings", api.ShowSettings)

	apiGroup := admin.Group("/api")
	apiGroup.GET("/components", api.ListComponents)
	apiGroup.GET("/pages", api.ListPages)
	apiGroup.GET("/pages/:id", api.GetPage)
	apiGroup.POST("/pages", api.CreatePage)
	apiGroup.PUT("/pages/:id", api.UpdatePage)
	apiGroup.DELETE("/pages/:id", api.DeletePage)
	apiGroup.POST("/drafts", api.OpenDraft)
	apiGroup.GET("/drafts/:draft", api.GetDraft)
	apiGroup.DELETE("/drafts/:draft", api.DiscardDraft)
	apiGroup.POST("/drafts/:draft/blocks", api.AddBlock)
	apiGroup.DELETE("/drafts/:draft/blocks/:block", api.RemoveBlock)
	apiGroup.POST("/drafts/:draft/blocks/:block/move", api.MoveBlock)
	apiGroup.GET("/drafts/:draft/blocks/:block/form", api.BlockForm)
	apiGroup.POST("/drafts/:draft/blocks/:block/fields", api.SetField)
	apiGroup.POST("/drafts/:draft/blocks/:block/elements", api.AddElement)
	apiGroup.DELETE("/drafts/:draft/blocks/:block/elements", api.RemoveElement)
	apiGroup.POST("/drafts/:draft/blocks/:block/elements/move", api.MoveElement)
	apiGroup.POST("/drafts/:draft/selection", api.SetSelection)
	apiGroup.DELETE("/drafts/:draft/selection", api.CancelSelection)
	apiGroup.POST("/drafts/:draft/selection/apply", api.ApplySelection)
	apiGroup.POST("/drafts/:draft/save", api.SaveDraft)
	apiGroup.GET("/media", api.ListMedia)
	apiGroup.POST("/media", api.UploadMedia)
	apiGroup.PUT("/media/:id", api.UpdateMedia)
	apiGroup.DELETE("/media/:id", api.DeleteMedia)
	apiGroup.GET("/imagekit/auth", api.ImageKitAuth)
	apiGroup.GET("/site-settings/:type", api.GetSiteSetting)
	apiGroup.PUT("/site-settings/:type", api.UpdateSiteSetting)

	return &testEnv{api: api, router: r, html: html}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
