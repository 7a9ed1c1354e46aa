package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/handler"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T, uploadDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	api, err := handler.NewAPI(gdb, handler.Options{})
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}
	r, err := SetupRouter(api, Options{
		SessionSecret: "test-secret",
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	})
	if err != nil {
		t.Fatalf("SetupRouter: %v", err)
	}
	return r
}

func TestSetupRouterRequiresSecret(t *testing.T) {
	if _, err := SetupRouter(nil, Options{}); err == nil {
		t.Fatal("expected an error without a session secret")
	}
}

func TestSetupRouterServesUploads(t *testing.T) {
	uploadDir := t.TempDir()
	fileContent := []byte("hello uploads")
	if err := os.WriteFile(filepath.Join(uploadDir, "example.txt"), fileContent, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	r := setupTestRouter(t, uploadDir)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/uploads/example.txt", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != string(fileContent) {
		t.Fatalf("unexpected body, got %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/admin.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected embedded admin.js, got %d", rr.Code)
	}
}

func TestRoutes(t *testing.T) {
	r := setupTestRouter(t, t.TempDir())

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		contains string
	}{
		{name: "ping", method: http.MethodGet, path: "/ping", status: http.StatusOK, contains: "pong"},
		{name: "healthz", method: http.MethodGet, path: "/healthz", status: http.StatusOK, contains: `"status":"ok"`},
		{name: "login page", method: http.MethodGet, path: "/admin/login", status: http.StatusOK, contains: "<form"},
		{name: "admin redirect", method: http.MethodGet, path: "/admin/pages", status: http.StatusFound},
		{name: "admin api unauthorized", method: http.MethodGet, path: "/admin/api/pages", status: http.StatusUnauthorized, contains: "authentication required"},
		{name: "public settings", method: http.MethodGet, path: "/api/site-settings/footer", status: http.StatusOK, contains: `"success":true`},
		{name: "missing homepage", method: http.MethodGet, path: "/", status: http.StatusNotFound, contains: "No homepage"},
		{name: "missing page", method: http.MethodGet, path: "/nowhere", status: http.StatusNotFound, contains: "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.contains != "" && !strings.Contains(rr.Body.String(), tt.contains) {
				t.Fatalf("expected body to contain %q, got %s", tt.contains, rr.Body.String())
			}
		})
	}
}
