package editor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/blockcms/internal/component"
)

func TestRenderBlockDisablesAddAtMax(t *testing.T) {
	form, err := NewForm()
	if err != nil {
		t.Fatalf("NewForm returned error: %v", err)
	}
	stats := make([]any, 6)
	for i := range stats {
		stats[i] = map[string]any{"number": "1", "label": "x"}
	}
	block := component.Block{ID: "s1", Type: "stats_section", Data: map[string]any{"stats": stats}}

	var buf bytes.Buffer
	if err := form.RenderBlock(&buf, "draft", component.Default(), block, SelectionTarget{}); err != nil {
		t.Fatalf("RenderBlock returned error: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, `class="js-add-element" data-array="/stats" disabled`) {
		t.Fatalf("expected add button to be disabled:\n%s", html)
	}
	if strings.Count(html, `class="array__element"`) != 6 {
		t.Fatal("expected six rendered elements")
	}
	if !strings.Contains(html, `name="/stats/5/label"`) {
		t.Fatal("expected pointer names for element fields")
	}
}

func TestRenderBlockUnknownType(t *testing.T) {
	form, err := NewForm()
	if err != nil {
		t.Fatalf("NewForm returned error: %v", err)
	}
	block := component.Block{ID: "x", Type: "legacy_block_type"}

	var buf bytes.Buffer
	if err := form.RenderBlock(&buf, "draft", component.Default(), block, SelectionTarget{}); err != nil {
		t.Fatalf("RenderBlock returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "Unknown component: legacy_block_type") {
		t.Fatalf("expected unknown notice, got:\n%s", buf.String())
	}
}

func TestBuildFieldsToleratesMalformedValues(t *testing.T) {
	def := mustDef(t, "contact_section")
	data := map[string]any{
		"title":   42.0,
		"showMap": "yes",
		"hours":   []any{"not", "an", "object"},
	}
	views := BuildFields(def.Fields, data, nil, "c", SelectionTarget{})

	byKey := map[string]FieldView{}
	for _, view := range views {
		byKey[view.Field.Key] = view
	}
	if byKey["title"].Value != "42" {
		t.Fatalf("expected stringified number, got %q", byKey["title"].Value)
	}
	if !byKey["showMap"].Checked {
		t.Fatal("expected showMap to be checked")
	}
	hours := byKey["hours"]
	if len(hours.Children) != 2 || hours.Children[0].Value != "" {
		t.Fatalf("expected empty nested fields, got %+v", hours.Children)
	}
	if hours.Children[0].Pointer != "/hours/weekdays" {
		t.Fatalf("unexpected nested pointer %q", hours.Children[0].Pointer)
	}
}

func TestBuildFieldsMarksPendingSelection(t *testing.T) {
	def := mustDef(t, "image_gallery")
	data := map[string]any{"images": []any{map[string]any{"src": ""}, map[string]any{"src": ""}}}
	target := ArrayElementTarget("g", Path{Key("images")}, 1, "src")

	views := BuildFields(def.Fields, data, nil, "g", target)
	for _, view := range views {
		if view.Field.Key != "images" {
			continue
		}
		if view.Elements[0].Fields[0].Selecting {
			t.Fatal("first image should not be selecting")
		}
		if !view.Elements[1].Fields[0].Selecting {
			t.Fatal("second image should be selecting")
		}
		return
	}
	t.Fatal("images field not rendered")
}
