package inference

// Style is one entry of the makeup style catalog offered to callers.
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"-"`
	Category    string `json:"category"`
}

var styles = []Style{
	{
		ID:          "natural",
		Name:        "Natural Glow",
		Description: "Subtle, everyday makeup with a fresh, natural look",
		Prompt:      "Apply natural makeup with light foundation, subtle blush, neutral eyeshadow, and nude lipstick. Keep it minimal and fresh.",
		Category:    "natural",
	},
	{
		ID:          "glam",
		Name:        "Glamorous",
		Description: "Bold, dramatic makeup perfect for special occasions",
		Prompt:      "Apply glamorous makeup with full coverage foundation, dramatic winged eyeliner, bold eyeshadow, false lashes, contouring, and bold lipstick.",
		Category:    "glam",
	},
	{
		ID:          "bridal",
		Name:        "Bridal Beauty",
		Description: "Elegant, timeless makeup for wedding day",
		Prompt:      "Apply elegant bridal makeup with flawless foundation, soft pink blush, shimmery eyeshadow, natural lashes, and soft pink lipstick. Keep it romantic and timeless.",
		Category:    "bridal",
	},
	{
		ID:          "party",
		Name:        "Party Ready",
		Description: "Fun, vibrant makeup for night out",
		Prompt:      "Apply party makeup with medium coverage foundation, bright blush, colorful eyeshadow, bold eyeliner, and vibrant lipstick. Make it fun and energetic.",
		Category:    "party",
	},
	{
		ID:          "custom",
		Name:        "Custom Style",
		Description: "Create your own unique makeup look",
		Prompt:      "Apply custom makeup based on user preferences. Focus on enhancing natural features while maintaining a cohesive look.",
		Category:    "custom",
	},
}

// StyleByID returns the catalog entry, or false for an unknown id.
func StyleByID(id string) (Style, bool) {
	for _, s := range styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// Styles returns the full catalog.
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}
