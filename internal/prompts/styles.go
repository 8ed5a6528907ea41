package prompts

// Style is an illustration style offered to the user.
type Style struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"nameEn"`
	Prompt string `json:"prompt"`
}

// DefaultStyle is used for unknown style ids.
const DefaultStyle = "cartoon"

var styles = []Style{
	{
		ID:     "cartoon",
		Name:   "可爱卡通",
		NameEn: "Cute Cartoon",
		Prompt: "cute cartoon style, bright vivid colors, simple rounded shapes, child-friendly, kawaii, adorable characters, soft lighting",
	},
	{
		ID:     "watercolor",
		Name:   "水彩绘本",
		NameEn: "Watercolor Storybook",
		Prompt: "watercolor illustration, soft pastel colors, storybook style, gentle brushstrokes, dreamy atmosphere, children book illustration",
	},
	{
		ID:     "sketch",
		Name:   "简笔画",
		NameEn: "Simple Sketch",
		Prompt: "simple line drawing, minimal colors, black outline, easy to understand, clean design, children doodle style",
	},
	{
		ID:     "pixar",
		Name:   "3D动画",
		NameEn: "3D Animation",
		Prompt: "pixar style 3D render, colorful, friendly characters, high quality, smooth textures, disney-like animation style",
	},
	{
		ID:     "ghibli",
		Name:   "吉卜力",
		NameEn: "Ghibli Style",
		Prompt: "studio ghibli style, anime illustration, warm colors, detailed background, magical atmosphere, miyazaki style",
	},
}

var styleIndex = func() map[string]Style {
	m := make(map[string]Style, len(styles))
	for _, s := range styles {
		m[s.ID] = s
	}
	return m
}()

// Styles returns every style in display order.
func Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

// LookupStyle falls back to cartoon for unknown ids.
func LookupStyle(id string) Style {
	if s, ok := styleIndex[id]; ok {
		return s
	}
	return styleIndex[DefaultStyle]
}

// IsKnownStyle reports whether id names one of the built-in styles.
func IsKnownStyle(id string) bool {
	_, ok := styleIndex[id]
	return ok
}
