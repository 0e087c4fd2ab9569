package bubble

import "slices"

// Palette is an ordered list of CSS hex colors.
type Palette []string

// DefaultPalette is the gradient set used by the journal's analysis screen.
var DefaultPalette = Palette{
	"#FF6B6B", // coral
	"#4ECDC4", // teal
	"#A78BFA", // violet
	"#F472B6", // pink
	"#60A5FA", // sky
	"#FBBF24", // amber
	"#34D399", // mint
}

// MonochromePalette renders every bubble in the same soft white.
var MonochromePalette = Palette{"#E5E7EB"}

// Palettes maps palette names accepted by the CLI and API.
var Palettes = map[string]Palette{
	"default":    DefaultPalette,
	"monochrome": MonochromePalette,
}

// Color returns the palette entry for index i, wrapping around.
// An empty palette returns "".
func (p Palette) Color(i int) string {
	if len(p) == 0 {
		return ""
	}
	return p[i%len(p)]
}

// AssignColors returns a copy of bubbles with colors assigned round-robin in
// slice order. Positions and sizes are left untouched.
func AssignColors(bubbles []Bubble, p Palette) []Bubble {
	out := slices.Clone(bubbles)
	if len(p) == 0 {
		return out
	}
	for i := range out {
		out[i].Color = p.Color(i)
	}
	return out
}
