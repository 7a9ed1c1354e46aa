package render

// Kind is the closed set of block types the renderer has templates for.
// A catalog type without a Kind renders as "not implemented".
type Kind int

const (
	KindNone Kind = iota
	KindHeroBanner
	KindHeroSplit
	KindFeatureGrid
	KindTestimonials
	KindCTASection
	KindStatsSection
	KindImageGallery
	KindTeamProfiles
	KindContactSection
	KindFAQSection
	KindProcessSteps
	KindWhatWeOffer
	KindRichText
)

var kindTypes = map[Kind]string{
	KindHeroBanner:     "hero_banner",
	KindHeroSplit:      "hero_split",
	KindFeatureGrid:    "feature_grid",
	KindTestimonials:   "testimonials",
	KindCTASection:     "cta_section",
	KindStatsSection:   "stats_section",
	KindImageGallery:   "image_gallery",
	KindTeamProfiles:   "team_profiles",
	KindContactSection: "contact_section",
	KindFAQSection:     "faq_section",
	KindProcessSteps:   "process_steps",
	KindWhatWeOffer:    "what_we_offer_card",
	KindRichText:       "rich_text",
}

var typeKinds = func() map[string]Kind {
	out := make(map[string]Kind, len(kindTypes))
	for kind, blockType := range kindTypes {
		out[blockType] = kind
	}
	return out
}()

// KindOf maps a stored type key to its Kind, or KindNone.
func KindOf(blockType string) Kind {
	return typeKinds[blockType]
}

// String returns the block type key.
func (k Kind) String() string {
	if blockType, ok := kindTypes[k]; ok {
		return blockType
	}
	return "none"
}

// Kinds lists every implemented kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindTypes))
	for k := KindHeroBanner; k <= KindRichText; k++ {
		out = append(out, k)
	}
	return out
}
