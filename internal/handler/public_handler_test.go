package handler

import (
	"html/template"
	"net/http"
	"strings"
	"testing"

	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/service"
)

func TestBuildPageMeta(t *testing.T) {
	site := service.MetadataData{Title: "Acme", Description: "Site description"}
	site.OpenGraph.Title = "Acme OG"

	home := buildPageMeta(&db.Page{Title: "Home", IsHomepage: true}, site, "/")
	if home.Title != "Acme" || home.OGTitle != "Acme OG" {
		t.Fatalf("homepage should keep site metadata, got %+v", home)
	}

	about := buildPageMeta(&db.Page{Title: "About"}, site, "/about")
	if about.Title != "About | Acme" || about.OGTitle != "About | Acme" {
		t.Fatalf("unexpected page title %+v", about)
	}
	if about.Description != "Site description" {
		t.Fatalf("expected site description fallback, got %q", about.Description)
	}

	custom := buildPageMeta(&db.Page{Title: "About", MetaTitle: "Who we are", MetaDescription: "Our story"}, site, "/about")
	if custom.Title != "Who we are" || custom.Description != "Our story" || custom.Canonical != "/about" {
		t.Fatalf("expected page overrides, got %+v", custom)
	}
}

func TestShowPublishedPage(t *testing.T) {
	env := newTestEnv(t)
	createTestPage(t, env, map[string]any{
		"title":  "Services",
		"status": "published",
		"content": []map[string]any{
			{"id": "b1", "type": "cta_section", "data": map[string]any{"title": "Talk to us"}},
			{"id": "b2", "type": "countdown_timer", "data": map[string]any{}},
		},
	})
	createTestPage(t, env, map[string]any{"title": "Hidden"})

	rec := env.do(t, http.MethodGet, "/services", nil)
	expectStatus(t, rec, http.StatusOK)
	if env.html.name != "page.html" {
		t.Fatalf("expected page.html, got %s", env.html.name)
	}
	data := env.html.H(t)
	rendered, _ := data["body"].(template.HTML)
	body := string(rendered)
	if !strings.Contains(body, "Talk to us") {
		t.Fatalf("expected rendered cta block, got %s", body)
	}
	if !strings.Contains(body, "countdown_timer") {
		t.Fatalf("expected a placeholder for the unknown block, got %s", body)
	}

	rec = env.do(t, http.MethodGet, "/hidden", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if env.html.name != "not_found.html" {
		t.Fatalf("expected not_found.html, got %s", env.html.name)
	}
}

func TestShowHomeWithoutHomepage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	expectStatus(t, rec, http.StatusNotFound)

	createTestPage(t, env, map[string]any{"title": "Welcome", "status": "published", "is_homepage": true})
	rec = env.do(t, http.MethodGet, "/", nil)
	expectStatus(t, rec, http.StatusOK)
	page, _ := env.html.H(t)["page"].(*db.Page)
	if page == nil || page.Title != "Welcome" {
		t.Fatalf("expected the homepage, got %+v", page)
	}
}

func TestUnknownAPIPathReturnsJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/unknown", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if !strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("expected JSON 404, got %s", rec.Header().Get("Content-Type"))
	}

	rec = env.do(t, http.MethodPost, "/services", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
