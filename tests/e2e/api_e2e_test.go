package e2e

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/handler"
	"github.com/blockcms/internal/router"
	"github.com/blockcms/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler   http.Handler
	public    httpClient
	admin     httpClient
	baseURL   string
	uploadDir string
	username  string
	adminPass string
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_EditorLifecycle(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("admin api requires login", suite.testUnauthenticated)
	suite.login(t)
	t.Run("stats array stops at six", suite.testStatsMaximum)
	t.Run("hero without background image", suite.testHeroWithoutBackground)
	t.Run("unknown block renders a placeholder", suite.testUnknownBlockPlaceholder)
	t.Run("homepage cannot be deleted", suite.testHomepageDelete)
	t.Run("media picker fills image field", suite.testMediaPicker)
	t.Run("site settings reach public pages", suite.testSiteSettings)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if _, err := db.SetUserPassword(gdb, "admin", "e2e-secret"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	uploadDir := t.TempDir()
	api, err := handler.NewAPI(gdb, handler.Options{
		Catalog: component.Default(),
		Store:   storage.NewLocalStore(uploadDir, "/uploads"),
	})
	if err != nil {
		t.Fatalf("failed to build api: %v", err)
	}
	engine, err := router.SetupRouter(api, router.Options{
		SessionSecret: "test-session-secret",
		UploadDir:     uploadDir,
		UploadURLPath: "/uploads",
	})
	if err != nil {
		t.Fatalf("failed to set up router: %v", err)
	}

	return &e2eSuite{
		handler:   engine,
		public:    newLocalClient(engine, false),
		admin:     newLocalClient(engine, true),
		baseURL:   "http://example.test",
		uploadDir: uploadDir,
		username:  "admin",
		adminPass: "e2e-secret",
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	form := url.Values{
		"username": {s.username},
		"password": {s.adminPass},
	}
	resp := s.mustRequest(t, s.admin, http.MethodPost, "/admin/login", strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login failed, status %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testUnauthenticated(t *testing.T) {
	resp := s.mustRequest(t, s.public, http.MethodGet, "/admin/api/pages", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

type draftEnvelope struct {
	Draft struct {
		ID     string            `json:"id"`
		PageID uint              `json:"pageId"`
		Blocks []component.Block `json:"blocks"`
	} `json:"draft"`
	Block component.Block `json:"block"`
	Added bool            `json:"added"`
}

func (s *e2eSuite) openDraft(t *testing.T, pageID uint) string {
	t.Helper()
	var env draftEnvelope
	s.expectJSON(t, http.MethodPost, "/admin/api/drafts", map[string]interface{}{"page_id": pageID}, http.StatusOK, &env)
	return env.Draft.ID
}

func (s *e2eSuite) addBlock(t *testing.T, draftID, blockType string) component.Block {
	t.Helper()
	var env draftEnvelope
	s.expectJSON(t, http.MethodPost, "/admin/api/drafts/"+draftID+"/blocks", map[string]interface{}{"type": blockType}, http.StatusOK, &env)
	return env.Block
}

func (s *e2eSuite) savePage(t *testing.T, draftID string, meta map[string]interface{}) db.Page {
	t.Helper()
	var saved struct {
		Page db.Page `json:"page"`
	}
	s.expectJSON(t, http.MethodPost, "/admin/api/drafts/"+draftID+"/save", meta, http.StatusOK, &saved)
	return saved.Page
}

func (s *e2eSuite) testStatsMaximum(t *testing.T) {
	draftID := s.openDraft(t, 0)
	block := s.addBlock(t, draftID, "stats_section")
	path := "/admin/api/drafts/" + draftID + "/blocks/" + block.ID

	// 先删到只剩一个，再逐个加到上限。
	for i := 0; i < 3; i++ {
		s.expectJSON(t, http.MethodDelete, path+"/elements?pointer=/stats&index=0", nil, http.StatusOK, nil)
	}
	resp := s.mustRequest(t, s.admin, http.MethodDelete, path+"/elements?pointer=/stats&index=0", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("removing the last stat: expected 409, got %d", resp.StatusCode)
	}

	var env draftEnvelope
	for i := 0; i < 5; i++ {
		s.expectJSON(t, http.MethodPost, path+"/elements", map[string]interface{}{"pointer": "/stats"}, http.StatusOK, &env)
		if !env.Added {
			t.Fatalf("add #%d should succeed", i+1)
		}
	}
	s.expectJSON(t, http.MethodPost, path+"/elements", map[string]interface{}{"pointer": "/stats"}, http.StatusOK, &env)
	if env.Added {
		t.Fatal("seventh stat should not be added")
	}
	if got := len(env.Block.Data["stats"].([]interface{})); got != 6 {
		t.Fatalf("expected 6 stats, got %d", got)
	}
}

func (s *e2eSuite) testHeroWithoutBackground(t *testing.T) {
	draftID := s.openDraft(t, 0)
	hero := s.addBlock(t, draftID, "hero_banner")
	s.expectJSON(t, http.MethodPost, "/admin/api/drafts/"+draftID+"/blocks/"+hero.ID+"/fields",
		map[string]interface{}{"pointer": "/title", "value": "Built to ship"}, http.StatusOK, nil)
	s.savePage(t, draftID, map[string]interface{}{"title": "Launch", "status": "published"})

	body := s.expectHTML(t, "/launch", http.StatusOK)
	if !strings.Contains(body, "Built to ship") {
		t.Fatalf("expected hero title in page")
	}
	if strings.Contains(body, "hero__background") || strings.Contains(body, `src=""`) {
		t.Fatalf("expected no background image element, got:\n%s", body)
	}
}

func (s *e2eSuite) testUnknownBlockPlaceholder(t *testing.T) {
	var created struct {
		Page db.Page `json:"page"`
	}
	s.expectJSON(t, http.MethodPost, "/admin/api/pages", map[string]interface{}{
		"title":  "Legacy",
		"status": "published",
		"content": []map[string]interface{}{
			{"id": "old-1", "type": "legacy_block_type", "data": map[string]interface{}{"x": 1}},
		},
	}, http.StatusOK, &created)

	body := s.expectHTML(t, "/legacy", http.StatusOK)
	if n := strings.Count(body, "block--placeholder"); n != 1 {
		t.Fatalf("expected exactly one placeholder, got %d", n)
	}
	if !strings.Contains(body, "Unknown component: legacy_block_type") {
		t.Fatalf("expected unknown component message")
	}

	// 未知类型的块在编辑后保存时原样保留。
	draftID := s.openDraft(t, created.Page.ID)
	s.addBlock(t, draftID, "cta_section")
	saved := s.savePage(t, draftID, nil)
	if len(saved.Content) != 2 || saved.Content[0].Type != "legacy_block_type" {
		t.Fatalf("expected legacy block kept first, got %+v", saved.Content)
	}
}

func (s *e2eSuite) testHomepageDelete(t *testing.T) {
	var created struct {
		Page db.Page `json:"page"`
	}
	s.expectJSON(t, http.MethodPost, "/admin/api/pages", map[string]interface{}{
		"title": "Home", "status": "published", "is_homepage": true,
	}, http.StatusOK, &created)

	var failure struct {
		Error string `json:"error"`
	}
	s.expectJSON(t, http.MethodDelete, "/admin/api/pages/"+idStr(created.Page.ID), nil, http.StatusBadRequest, &failure)
	if !strings.Contains(failure.Error, "homepage") {
		t.Fatalf("unexpected error %q", failure.Error)
	}

	s.expectHTML(t, "/", http.StatusOK)
}

func (s *e2eSuite) testMediaPicker(t *testing.T) {
	resp := s.uploadTestImage(t)
	var uploaded struct {
		Item db.MediaAsset `json:"item"`
	}
	decodeJSON(t, resp, &uploaded)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload failed with %d", resp.StatusCode)
	}

	fileResp := s.mustRequest(t, s.public, http.MethodGet, uploaded.Item.FilePath, nil, nil)
	fileResp.Body.Close()
	if fileResp.StatusCode != http.StatusOK {
		t.Fatalf("uploaded file not served: %d", fileResp.StatusCode)
	}

	draftID := s.openDraft(t, 0)
	hero := s.addBlock(t, draftID, "hero_banner")
	s.expectJSON(t, http.MethodPost, "/admin/api/drafts/"+draftID+"/selection", map[string]interface{}{
		"block_id": hero.ID, "kind": "field", "pointer": "/backgroundImage",
	}, http.StatusOK, nil)
	s.expectJSON(t, http.MethodPost, "/admin/api/drafts/"+draftID+"/selection/apply",
		map[string]interface{}{"media_id": uploaded.Item.ID}, http.StatusOK, nil)
	s.savePage(t, draftID, map[string]interface{}{"title": "Facility", "status": "published"})

	body := s.expectHTML(t, "/facility", http.StatusOK)
	if !strings.Contains(body, uploaded.Item.FilePath) {
		t.Fatalf("expected background image %s in page", uploaded.Item.FilePath)
	}
}

func (s *e2eSuite) testSiteSettings(t *testing.T) {
	s.expectJSON(t, http.MethodPut, "/admin/api/site-settings/footer", map[string]interface{}{
		"data": map[string]interface{}{"description": "Packing done right", "copyright": "Acme Ltd"},
	}, http.StatusOK, nil)

	body := s.expectHTML(t, "/facility", http.StatusOK)
	if !strings.Contains(body, "Packing done right") {
		t.Fatalf("expected footer description on public page")
	}
}

func (s *e2eSuite) uploadTestImage(t *testing.T) *http.Response {
	t.Helper()
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 16, 9))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "facility.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(img.Bytes()); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return s.mustRequest(t, s.admin, http.MethodPost, "/admin/api/media", &body,
		map[string]string{"Content-Type": writer.FormDataContentType()})
}

func (s *e2eSuite) expectJSON(t *testing.T, method, path string, payload interface{}, status int, dst interface{}) {
	t.Helper()
	var body io.Reader
	headers := map[string]string{"Accept": "application/json"}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
		headers["Content-Type"] = "application/json"
	}
	resp := s.mustRequest(t, s.admin, method, path, body, headers)
	defer resp.Body.Close()
	raw := readBody(t, resp)
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, status, resp.StatusCode, raw)
	}
	if dst != nil {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			t.Fatalf("failed to decode json: %v\nbody=%s", err, raw)
		}
	}
}

func (s *e2eSuite) expectHTML(t *testing.T, path string, status int) string {
	t.Helper()
	resp := s.mustRequest(t, s.public, http.MethodGet, path, nil, nil)
	defer resp.Body.Close()
	body := readBody(t, resp)
	if resp.StatusCode != status {
		t.Fatalf("GET %s: expected status %d, got %d: %s", path, status, resp.StatusCode, body)
	}
	return body
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
