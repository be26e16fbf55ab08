package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CatppuccinMocha is the default dark theme.
var CatppuccinMocha = Theme{
	Name:     "Catppuccin Mocha",
	Base:     lipgloss.Color("#1e1e2e"),
	Surface:  lipgloss.Color("#313244"),
	Overlay:  lipgloss.Color("#45475a"),
	Text:     lipgloss.Color("#cdd6f4"),
	Subtext:  lipgloss.Color("#a6adc8"),
	Muted:    lipgloss.Color("#585b70"),
	Accent:   lipgloss.Color("#cba6f7"),
	Red:      lipgloss.Color("#f38ba8"),
	Peach:    lipgloss.Color("#fab387"),
	Yellow:   lipgloss.Color("#f9e2af"),
	Green:    lipgloss.Color("#a6e3a1"),
	Teal:     lipgloss.Color("#94e2d5"),
	Blue:     lipgloss.Color("#89b4fa"),
	Lavender: lipgloss.Color("#b4befe"),
}

// CatppuccinLatte is the light variant.
var CatppuccinLatte = Theme{
	Name:     "Catppuccin Latte",
	Base:     lipgloss.Color("#eff1f5"),
	Surface:  lipgloss.Color("#ccd0da"),
	Overlay:  lipgloss.Color("#9ca0b0"),
	Text:     lipgloss.Color("#4c4f69"),
	Subtext:  lipgloss.Color("#6c6f85"),
	Muted:    lipgloss.Color("#8c8fa1"),
	Accent:   lipgloss.Color("#8839ef"),
	Red:      lipgloss.Color("#d20f39"),
	Peach:    lipgloss.Color("#fe640b"),
	Yellow:   lipgloss.Color("#df8e1d"),
	Green:    lipgloss.Color("#40a02b"),
	Teal:     lipgloss.Color("#179299"),
	Blue:     lipgloss.Color("#1e66f5"),
	Lavender: lipgloss.Color("#7287fd"),
}

// Nord is the arctic palette.
var Nord = Theme{
	Name:     "Nord",
	Base:     lipgloss.Color("#2e3440"),
	Surface:  lipgloss.Color("#3b4252"),
	Overlay:  lipgloss.Color("#434c5e"),
	Text:     lipgloss.Color("#eceff4"),
	Subtext:  lipgloss.Color("#d8dee9"),
	Muted:    lipgloss.Color("#4c566a"),
	Accent:   lipgloss.Color("#88c0d0"),
	Red:      lipgloss.Color("#bf616a"),
	Peach:    lipgloss.Color("#d08770"),
	Yellow:   lipgloss.Color("#ebcb8b"),
	Green:    lipgloss.Color("#a3be8c"),
	Teal:     lipgloss.Color("#8fbcbb"),
	Blue:     lipgloss.Color("#81a1c1"),
	Lavender: lipgloss.Color("#b48ead"),
}

// Dracula is the classic dark palette.
var Dracula = Theme{
	Name:     "Dracula",
	Base:     lipgloss.Color("#282a36"),
	Surface:  lipgloss.Color("#44475a"),
	Overlay:  lipgloss.Color("#6272a4"),
	Text:     lipgloss.Color("#f8f8f2"),
	Subtext:  lipgloss.Color("#bfbfbf"),
	Muted:    lipgloss.Color("#6272a4"),
	Accent:   lipgloss.Color("#bd93f9"),
	Red:      lipgloss.Color("#ff5555"),
	Peach:    lipgloss.Color("#ffb86c"),
	Yellow:   lipgloss.Color("#f1fa8c"),
	Green:    lipgloss.Color("#50fa7b"),
	Teal:     lipgloss.Color("#8be9fd"),
	Blue:     lipgloss.Color("#6272a4"),
	Lavender: lipgloss.Color("#ff79c6"),
}

// Catalog maps theme names to themes.
var Catalog = map[string]Theme{}

func init() {
	register(CatppuccinMocha)
	register(CatppuccinLatte)
	register(Nord)
	register(Dracula)
}

func register(t Theme) {
	Catalog[normalizeKey(t.Name)] = t
}

// Get returns a theme by name.
func Get(name string) (Theme, bool) {
	t, ok := Catalog[normalizeKey(name)]
	return t, ok
}

// Resolve returns the named theme, or the default when unknown.
func Resolve(name string) Theme {
	if t, ok := Get(name); ok {
		return t
	}
	return Default()
}

// Default returns the default theme.
func Default() Theme {
	return CatppuccinMocha
}

// Names returns all registered theme names, sorted.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for _, t := range Catalog {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
