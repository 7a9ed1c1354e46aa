package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/blockcms/internal/component"
)

//go:embed templates/*.html
var blockTemplates embed.FS

// EmptyMessage is shown for a page without blocks.
const EmptyMessage = "No content available"

// Catalog resolves block types.
type Catalog interface {
	Lookup(blockType string) (component.Definition, bool)
}

// Status tells how a section was produced.
type Status int

const (
	StatusRendered Status = iota
	StatusUnknown
	StatusNotImplemented
)

// Section is one rendered block.
type Section struct {
	BlockID string
	Type    string
	Kind    Kind
	Status  Status
	HTML    template.HTML
}

// Renderer projects stored blocks to HTML. It holds no per-request state;
// the same blocks always produce the same markup.
type Renderer struct {
	catalog  Catalog
	tmpl     *template.Template
	markdown *Markdown
}

func New(catalog Catalog) (*Renderer, error) {
	tmpl, err := template.New("blocks").ParseFS(blockTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse block templates: %w", err)
	}
	return &Renderer{catalog: catalog, tmpl: tmpl, markdown: NewMarkdown()}, nil
}

// Render produces one section per block, in order. Blocks of an unknown or
// unimplemented type become placeholder sections instead of failing the page.
func (r *Renderer) Render(blocks []component.Block) ([]Section, error) {
	sections := make([]Section, 0, len(blocks))
	for _, block := range blocks {
		section, err := r.renderBlock(block)
		if err != nil {
			return nil, fmt.Errorf("render block %s (%s): %w", block.ID, block.Type, err)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// RenderHTML concatenates the rendered sections, or the empty-state message
// when there is nothing to show.
func (r *Renderer) RenderHTML(blocks []component.Block) (template.HTML, error) {
	if len(blocks) == 0 {
		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, "empty", EmptyMessage); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil
	}
	sections, err := r.Render(blocks)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, section := range sections {
		b.WriteString(string(section.HTML))
	}
	return template.HTML(b.String()), nil
}

func (r *Renderer) renderBlock(block component.Block) (Section, error) {
	section := Section{BlockID: block.ID, Type: block.Type}

	if _, ok := r.catalog.Lookup(block.Type); !ok {
		section.Status = StatusUnknown
		return r.placeholder(section, "Unknown component: "+block.Type)
	}

	section.Kind = KindOf(block.Type)
	view, err := r.view(section.Kind, data(component.AsMap(block.Data)))
	if err != nil {
		return Section{}, err
	}
	if view == nil {
		section.Status = StatusNotImplemented
		return r.placeholder(section, "Component not implemented: "+block.Type)
	}

	var inner bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&inner, section.Kind.String(), view); err != nil {
		return Section{}, err
	}
	var buf bytes.Buffer
	err = r.tmpl.ExecuteTemplate(&buf, "section", map[string]any{
		"ID":   block.ID,
		"Type": block.Type,
		"Body": template.HTML(inner.String()),
	})
	if err != nil {
		return Section{}, err
	}
	section.HTML = template.HTML(buf.String())
	return section, nil
}

// view dispatches over the closed kind set. A nil view means the type is in
// the catalog but has no template.
func (r *Renderer) view(kind Kind, d data) (any, error) {
	switch kind {
	case KindHeroBanner:
		return buildHeroBanner(d), nil
	case KindHeroSplit:
		return buildHeroSplit(d), nil
	case KindFeatureGrid:
		return buildFeatureGrid(d), nil
	case KindTestimonials:
		return buildTestimonials(d), nil
	case KindCTASection:
		return buildCTA(d), nil
	case KindStatsSection:
		return buildStats(d), nil
	case KindImageGallery:
		return buildGallery(d), nil
	case KindTeamProfiles:
		return buildTeam(d), nil
	case KindContactSection:
		return buildContact(d), nil
	case KindFAQSection:
		return buildFAQ(d), nil
	case KindProcessSteps:
		return buildProcess(d), nil
	case KindWhatWeOffer:
		return buildOffer(d), nil
	case KindRichText:
		body, err := r.markdown.Render(component.AsString(d["body"]))
		if err != nil {
			return nil, err
		}
		return richTextView{
			Title: d.str("title"),
			Body:  body,
			Width: d.choice("width", "normal", "narrow", "normal", "wide"),
		}, nil
	default:
		return nil, nil
	}
}

func (r *Renderer) placeholder(section Section, message string) (Section, error) {
	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "placeholder", map[string]string{
		"ID":      section.BlockID,
		"Type":    section.Type,
		"Message": message,
	})
	if err != nil {
		return Section{}, err
	}
	section.HTML = template.HTML(buf.String())
	return section, nil
}
