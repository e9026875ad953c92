// Package palette assigns colors to node groups and describes the dark and
// light color schemes.
package palette

import (
	"fmt"
	"hash/fnv"

	"github.com/lucasb-eyer/go-colorful"
)

// Color scheme modes.
const (
	ModeDark  = "dark"
	ModeLight = "light"
	ModeAuto  = "auto"
)

// Scheme describes the theme toggle for a resolved mode.
type Scheme struct {
	Mode        string // "dark" or "light"
	Icon        string
	Tooltip     string
	ColorScheme string // "dark", "light" or "light dark" when resolved from auto
}

var schemes = map[string]Scheme{
	ModeDark:  {Mode: ModeDark, Icon: "☀", Tooltip: "Toggle light mode", ColorScheme: "dark"},
	ModeLight: {Mode: ModeLight, Icon: "☾", Tooltip: "Toggle dark mode", ColorScheme: "light"},
}

// Resolve returns the scheme for mode. "auto" picks dark or light from
// prefersDark and keeps both in ColorScheme.
func Resolve(mode string, prefersDark bool) (Scheme, error) {
	switch mode {
	case ModeDark, ModeLight:
		return schemes[mode], nil
	case ModeAuto:
		s := schemes[ModeLight]
		if prefersDark {
			s = schemes[ModeDark]
		}
		s.ColorScheme = "light dark"
		return s, nil
	}
	return Scheme{}, fmt.Errorf("unknown color scheme %q", mode)
}

// ForGroup returns a stable hex color for a group name. Equal names always
// map to the same color.
func ForGroup(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	sum := h.Sum32()
	hue := float64(sum%360) + float64(sum>>16%100)/100
	return colorful.Hcl(hue, 0.5, 0.65).Clamped().Hex()
}

// Valid reports whether s parses as a hex color.
func Valid(s string) bool {
	_, err := colorful.Hex(s)
	return err == nil
}
