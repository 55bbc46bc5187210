package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB colour with alpha. A == 1 renders as "#rrggbb",
// anything else as "rgba(r, g, b, a)".
type Color struct {
	R, G, B uint8
	A       float64
}

func rgba(r, g, b uint8, a float64) Color { return Color{R: r, G: g, B: b, A: a} }

func (c Color) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// MarshalText renders the colour in its CSS form.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "#rrggbb" or "rgba(r, g, b, a)".
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if strings.HasPrefix(s, "#") {
		hex, err := colorful.Hex(s)
		if err != nil {
			return fmt.Errorf("parse colour %q: %w", s, err)
		}
		r, g, b := hex.RGB255()
		*c = Color{R: r, G: g, B: b, A: 1}
		return nil
	}
	var r, g, b uint8
	var a float64
	if _, err := fmt.Sscanf(s, "rgba(%d, %d, %d, %g)", &r, &g, &b, &a); err != nil {
		return fmt.Errorf("parse colour %q: %w", s, err)
	}
	*c = Color{R: r, G: g, B: b, A: a}
	return nil
}

// Fixed marker colours.
var (
	nodeColor    = rgba(255, 255, 255, 0.5)
	neutralColor = rgba(255, 255, 255, 0.7)
	noFireColor  = rgba(255, 255, 255, 0.7)
	trappedColor = rgba(255, 255, 255, 1)
)

// floodShades holds six shades per palette from lightest to darkest. The
// depth cascade draws with shades 1..5.
var floodShades = map[string][6]Color{
	"Red": {
		rgba(253, 237, 236, 0.7), rgba(250, 219, 216, 0.7), rgba(241, 148, 138, 0.7),
		rgba(231, 76, 60, 0.7), rgba(176, 58, 46, 0.7), rgba(120, 40, 31, 0.7),
	},
	"Yellow": {
		rgba(249, 231, 159, 0.7), rgba(247, 220, 111, 0.7), rgba(241, 196, 15, 0.7),
		rgba(212, 172, 13, 0.7), rgba(183, 149, 11, 0.7), rgba(154, 125, 10, 0.7),
	},
	"Green": {
		rgba(234, 250, 241, 0.7), rgba(171, 235, 198, 0.7), rgba(88, 214, 141, 0.7),
		rgba(40, 180, 99, 0.7), rgba(29, 131, 72, 0.7), rgba(24, 106, 59, 0.7),
	},
	"Blue": {
		rgba(234, 242, 248, 0.7), rgba(212, 230, 241, 0.7), rgba(127, 179, 213, 0.7),
		rgba(41, 128, 185, 0.7), rgba(31, 97, 141, 0.7), rgba(21, 67, 96, 0.7),
	},
	"White": {
		rgba(253, 254, 254, 0.9), rgba(251, 252, 252, 0.825), rgba(247, 249, 249, 0.75),
		rgba(244, 246, 247, 0.675), rgba(240, 243, 244, 0.6), rgba(236, 240, 241, 0.525),
	},
	"Black": {
		rgba(120, 120, 120, 0.7), rgba(100, 100, 100, 0.7), rgba(80, 80, 80, 0.7),
		rgba(60, 60, 60, 0.7), rgba(40, 40, 40, 0.7), rgba(20, 20, 20, 0.7),
	},
}

// fireShades is the single "burning" colour per palette.
var fireShades = map[string]Color{
	"Red":    rgba(170, 0, 0, 0.7),
	"Yellow": rgba(154, 125, 10, 0.7),
	"Green":  rgba(24, 106, 59, 0.7),
	"Blue":   rgba(21, 67, 96, 0.7),
	"White":  rgba(236, 240, 241, 0.525),
	"Black":  rgba(20, 20, 20, 0.7),
}

// HazardPalettes lists the hazard palette names.
func HazardPalettes() []string {
	return sortedKeys(floodShades)
}

type scaleStop struct {
	pos     float64
	r, g, b uint8
}

// ColorScale maps a normalised value in [0,1] onto a colour by linear RGB
// interpolation between stops.
type ColorScale struct {
	Name  string
	stops []scaleStop
}

// At returns the colour at v, clamped to [0,1].
func (s ColorScale) At(v float64) Color {
	if len(s.stops) == 0 {
		return Color{A: 1}
	}
	if v != v || v <= s.stops[0].pos {
		return stopColor(s.stops[0])
	}
	last := s.stops[len(s.stops)-1]
	if v >= last.pos {
		return stopColor(last)
	}
	for i := 1; i < len(s.stops); i++ {
		hi := s.stops[i]
		if v > hi.pos {
			continue
		}
		lo := s.stops[i-1]
		span := hi.pos - lo.pos
		if span <= 0 {
			return stopColor(hi)
		}
		c := toColorful(lo).BlendRgb(toColorful(hi), (v-lo.pos)/span)
		r, g, b := c.Clamped().RGB255()
		return Color{R: r, G: g, B: b, A: 1}
	}
	return stopColor(last)
}

func toColorful(s scaleStop) colorful.Color {
	return colorful.Color{R: float64(s.r) / 255, G: float64(s.g) / 255, B: float64(s.b) / 255}
}

func stopColor(s scaleStop) Color { return Color{R: s.r, G: s.g, B: s.b, A: 1} }

func evenStops(hex ...string) []scaleStop {
	out := make([]scaleStop, 0, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("bad colour stop %q: %v", h, err))
		}
		r, g, b := c.RGB255()
		out = append(out, scaleStop{pos: float64(i) / float64(len(hex)-1), r: r, g: g, b: b})
	}
	return out
}

// Agent colour scales, matching the Plotly named scales the dashboard offers.
var agentScales = map[string][]scaleStop{
	"Blackbody": {{0.0, 0, 0, 0}, {0.2, 230, 0, 0}, {0.4, 230, 210, 0}, {0.7, 255, 255, 255}, {1.0, 160, 200, 255}},
	"Bluered":   {{0.0, 0, 0, 255}, {1.0, 255, 0, 0}},
	"Blues":     {{0.0, 5, 10, 172}, {0.35, 40, 60, 190}, {0.5, 70, 100, 245}, {0.6, 90, 120, 245}, {0.7, 106, 137, 247}, {1.0, 220, 220, 220}},
	"Earth":     {{0.0, 0, 0, 130}, {0.1, 0, 180, 180}, {0.2, 40, 210, 40}, {0.4, 230, 230, 50}, {0.6, 120, 70, 20}, {1.0, 255, 255, 255}},
	"Electric":  {{0.0, 0, 0, 0}, {0.15, 30, 0, 100}, {0.4, 120, 0, 100}, {0.6, 160, 90, 0}, {0.8, 230, 200, 0}, {1.0, 255, 250, 220}},
	"Greens":    evenStops("#00441b", "#006d2c", "#238b45", "#41ab5d", "#74c476", "#a1d99b", "#c7e9c0", "#e5f5e0", "#f7fcf5"),
	"Greys":     {{0.0, 0, 0, 0}, {1.0, 255, 255, 255}},
	"Hot":       {{0.0, 0, 0, 0}, {0.3, 230, 0, 0}, {0.6, 255, 210, 0}, {1.0, 255, 255, 255}},
	"Jet":       {{0.0, 0, 0, 131}, {0.125, 0, 60, 170}, {0.375, 5, 255, 255}, {0.625, 255, 255, 0}, {0.875, 250, 0, 0}, {1.0, 128, 0, 0}},
	"Picnic":    evenStops("#0000ff", "#3399ff", "#66ccff", "#99ccff", "#ccccff", "#ffffff", "#ffccff", "#ff99ff", "#ff66cc", "#ff6666", "#ff0000"),
	"Portland":  evenStops("#0c3383", "#0a88ba", "#f2d338", "#f28f38", "#d91e1e"),
	"Rainbow":   evenStops("#96005a", "#0000c8", "#0019ff", "#0098ff", "#2cff96", "#97ff00", "#ffea00", "#ff6f00", "#ff0000"),
	"RdBu":      {{0.0, 5, 10, 172}, {0.35, 106, 137, 247}, {0.5, 190, 190, 190}, {0.6, 220, 170, 132}, {0.7, 230, 145, 90}, {1.0, 178, 10, 28}},
	"Reds":      {{0.0, 220, 220, 220}, {0.2, 245, 195, 157}, {0.4, 245, 160, 105}, {1.0, 178, 10, 28}},
	"Viridis":   evenStops("#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"),
	"YlGnBu":    evenStops("#081d58", "#253494", "#225ea8", "#1d91c0", "#41b6c4", "#7fcdbb", "#c7e9b4", "#edf8d9", "#ffffd9"),
	"YlOrRd":    evenStops("#800026", "#bd0026", "#e31a1c", "#fc4e2a", "#fd8d3c", "#feb24c", "#fed976", "#ffeda0", "#ffffcc"),
}

// DefaultAgentScale is used when no agent scale is requested.
const DefaultAgentScale = "Reds"

// AgentScale returns the named agent colour scale. An empty name selects
// DefaultAgentScale; an unknown name fails with *UnknownPaletteError.
func AgentScale(name string) (ColorScale, error) {
	if name == "" {
		name = DefaultAgentScale
	}
	st, ok := agentScales[name]
	if !ok {
		return ColorScale{}, &UnknownPaletteError{Kind: "agent", Name: name}
	}
	return ColorScale{Name: name, stops: st}, nil
}

// AgentScales lists the agent colour scale names.
func AgentScales() []string {
	return sortedKeys(agentScales)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
