package render

import (
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/blockcms/internal/component"
)

// Link is a button or anchor. Empty Text hides it.
type Link struct {
	Text string
	URL  string
}

type heroBannerView struct {
	Badge           string
	Title           string
	Subtitle        string
	Description     string
	BackgroundImage string
	Primary         Link
	Secondary       Link
	TrustText       string
	Align           string
	Overlay         string
}

type heroSplitView struct {
	Title       string
	Description string
	Image       string
	CTA         Link
	ImageLeft   bool
	Background  template.CSS
}

type featureView struct {
	Icon        string
	Title       string
	Description string
}

type featureGridView struct {
	Title    string
	Subtitle string
	Features []featureView
}

type testimonialView struct {
	Name    string
	Company string
	Text    string
	Image   string
	Stars   []struct{}
}

type testimonialsView struct {
	Title        string
	Testimonials []testimonialView
}

type ctaView struct {
	Title       string
	Description string
	CTA         Link
	Style       template.CSS
}

type statView struct {
	Number string
	Label  string
}

type statsView struct {
	Title      string
	Stats      []statView
	Background template.CSS
}

type galleryImageView struct {
	Src     string
	Alt     string
	Caption string
}

type galleryView struct {
	Title    string
	Subtitle string
	Images   []galleryImageView
	Columns  string
}

type memberView struct {
	Name     string
	Position string
	Image    string
	Bio      string
	LinkedIn string
	Email    string
}

type teamView struct {
	Title    string
	Subtitle string
	Members  []memberView
}

type contactView struct {
	Title           string
	Description     string
	Phone           string
	Email           string
	Address         string
	ShowMap         bool
	MapQuery        string
	ShowContactForm bool
	Weekdays        string
	Weekends        string
}

type faqView struct {
	Question string
	Answer   string
}

type faqSectionView struct {
	Title    string
	Subtitle string
	FAQs     []faqView
}

type stepView struct {
	Number      int
	Title       string
	Description string
	Icon        string
}

type processView struct {
	Title       string
	Subtitle    string
	Description string
	Layout      string
	ShowNumbers bool
	Background  template.CSS
	Steps       []stepView
}

type offerView struct {
	Title     string
	Subtitle  string
	Items     []string
	CardStyle string
	Layout    string
	Image     string
	CTA       Link
}

type richTextView struct {
	Title string
	Body  template.HTML
	Width string
}

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// data is a read-only view of one block's payload.
type data map[string]any

func (d data) str(key string) string {
	return strings.TrimSpace(component.AsString(d[key]))
}

func (d data) num(key string) float64 {
	return component.AsNumber(d[key])
}

func (d data) flag(key string) bool {
	return component.AsBool(d[key])
}

func (d data) list(key string) []data {
	items := component.AsSlice(d[key])
	out := make([]data, 0, len(items))
	for _, item := range items {
		out = append(out, data(component.AsMap(item)))
	}
	return out
}

func (d data) object(key string) data {
	return data(component.AsMap(d[key]))
}

func (d data) link(textKey, urlKey string) Link {
	text := d.str(textKey)
	if text == "" {
		return Link{}
	}
	target := d.str(urlKey)
	if target == "" {
		target = "#"
	}
	return Link{Text: text, URL: target}
}

// choice returns the value of key if it is one of allowed, else fallback.
func (d data) choice(key, fallback string, allowed ...string) string {
	value := d.str(key)
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return fallback
}

// color returns a CSS declaration for a hex color, or "" when the value is
// not a plain hex color.
func (d data) color(property, key string) template.CSS {
	value := d.str(key)
	if !colorPattern.MatchString(value) {
		return ""
	}
	return template.CSS(property + ": " + value + ";")
}

func buildHeroBanner(d data) heroBannerView {
	overlay := d.num("overlayOpacity")
	if _, present := d["overlayOpacity"]; !present {
		overlay = 0.85
	}
	overlay = min(max(overlay, 0), 1)
	return heroBannerView{
		Badge:           d.str("badge"),
		Title:           d.str("title"),
		Subtitle:        d.str("subtitle"),
		Description:     d.str("description"),
		BackgroundImage: d.str("backgroundImage"),
		Primary:         d.link("ctaText", "ctaLink"),
		Secondary:       d.link("secondaryCtaText", "secondaryCtaLink"),
		TrustText:       d.str("trustText"),
		Align:           d.choice("textAlign", "center", "left", "center", "right"),
		Overlay:         strconv.FormatFloat(overlay, 'f', -1, 64),
	}
}

func buildHeroSplit(d data) heroSplitView {
	return heroSplitView{
		Title:       d.str("title"),
		Description: d.str("description"),
		Image:       d.str("image"),
		CTA:         d.link("ctaText", "ctaLink"),
		ImageLeft:   d.str("imagePosition") == "left",
		Background:  d.color("background-color", "backgroundColor"),
	}
}

func buildFeatureGrid(d data) featureGridView {
	view := featureGridView{Title: d.str("title"), Subtitle: d.str("subtitle")}
	for _, item := range d.list("features") {
		view.Features = append(view.Features, featureView{
			Icon:        item.str("icon"),
			Title:       item.str("title"),
			Description: item.str("description"),
		})
	}
	return view
}

func buildTestimonials(d data) testimonialsView {
	view := testimonialsView{Title: d.str("title")}
	for _, item := range d.list("testimonials") {
		rating := int(min(max(item.num("rating"), 0), 5))
		view.Testimonials = append(view.Testimonials, testimonialView{
			Name:    item.str("name"),
			Company: item.str("company"),
			Text:    item.str("text"),
			Image:   item.str("image"),
			Stars:   make([]struct{}, rating),
		})
	}
	return view
}

func buildCTA(d data) ctaView {
	return ctaView{
		Title:       d.str("title"),
		Description: d.str("description"),
		CTA:         d.link("ctaText", "ctaLink"),
		Style:       d.color("background-color", "backgroundColor") + d.color("color", "textColor"),
	}
}

func buildStats(d data) statsView {
	view := statsView{Title: d.str("title"), Background: d.color("background-color", "backgroundColor")}
	for _, item := range d.list("stats") {
		view.Stats = append(view.Stats, statView{Number: item.str("number"), Label: item.str("label")})
	}
	return view
}

func buildGallery(d data) galleryView {
	view := galleryView{
		Title:    d.str("title"),
		Subtitle: d.str("subtitle"),
		Columns:  d.choice("columns", "3", "2", "3", "4"),
	}
	for _, item := range d.list("images") {
		src := item.str("src")
		if src == "" {
			continue
		}
		view.Images = append(view.Images, galleryImageView{Src: src, Alt: item.str("alt"), Caption: item.str("caption")})
	}
	return view
}

func buildTeam(d data) teamView {
	view := teamView{Title: d.str("title"), Subtitle: d.str("subtitle")}
	for _, item := range d.list("members") {
		view.Members = append(view.Members, memberView{
			Name:     item.str("name"),
			Position: item.str("position"),
			Image:    item.str("image"),
			Bio:      item.str("bio"),
			LinkedIn: item.str("linkedin"),
			Email:    item.str("email"),
		})
	}
	return view
}

func buildContact(d data) contactView {
	hours := d.object("hours")
	return contactView{
		Title:           d.str("title"),
		Description:     d.str("description"),
		Phone:           d.str("phone"),
		Email:           d.str("email"),
		Address:         d.str("address"),
		ShowMap:         d.flag("showMap") && d.str("address") != "",
		MapQuery:        d.str("address"),
		ShowContactForm: d.flag("showContactForm"),
		Weekdays:        hours.str("weekdays"),
		Weekends:        hours.str("weekends"),
	}
}

func buildFAQ(d data) faqSectionView {
	view := faqSectionView{Title: d.str("title"), Subtitle: d.str("subtitle")}
	for _, item := range d.list("faqs") {
		view.FAQs = append(view.FAQs, faqView{Question: item.str("question"), Answer: item.str("answer")})
	}
	return view
}

func buildProcess(d data) processView {
	view := processView{
		Title:       d.str("title"),
		Subtitle:    d.str("subtitle"),
		Description: d.str("description"),
		Layout:      d.choice("layout", "horizontal", "horizontal", "vertical", "grid"),
		ShowNumbers: d.flag("showNumbers"),
		Background:  d.color("background-color", "backgroundColor"),
	}
	for i, item := range d.list("steps") {
		view.Steps = append(view.Steps, stepView{
			Number:      i + 1,
			Title:       item.str("title"),
			Description: item.str("description"),
			Icon:        item.str("icon"),
		})
	}
	return view
}

func buildOffer(d data) offerView {
	view := offerView{
		Title:     d.str("title"),
		Subtitle:  d.str("subtitle"),
		CardStyle: d.choice("cardStyle", "default", "default", "gradient", "bordered"),
		Layout:    d.choice("layout", "split", "split", "stacked"),
		Image:     d.str("image"),
	}
	if d.flag("showCTA") {
		view.CTA = d.link("ctaText", "ctaLink")
	}
	for _, item := range d.list("items") {
		if text := item.str("text"); text != "" {
			view.Items = append(view.Items, text)
		}
	}
	return view
}
