// Package colormap provides the palettes used to colour scatter points.
package colormap

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// Colormap maps normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.Color
	AtIndex(i int) color.Color
}

// lutSize is the number of precomputed entries of a Ramp.
const lutSize = 256

// Ramp is a continuous palette. Colours between the stops are linearly
// interpolated once, into a lookup table, when the ramp is built.
type Ramp struct {
	stops []color.RGBA
	lut   [lutSize]color.RGBA
}

// NewRamp builds a ramp through the given stops.
func NewRamp(stops ...color.RGBA) *Ramp {
	if len(stops) == 0 {
		stops = []color.RGBA{{0, 0, 0, 255}}
	}
	r := &Ramp{stops: stops}
	for i := range r.lut {
		r.lut[i] = r.interpolate(float64(i) / (lutSize - 1))
	}
	return r
}

func (r *Ramp) interpolate(t float64) color.RGBA {
	if len(r.stops) == 1 {
		return r.stops[0]
	}
	pos := t * float64(len(r.stops)-1)
	lo := int(pos)
	if lo >= len(r.stops)-1 {
		return r.stops[len(r.stops)-1]
	}
	return mix(r.stops[lo], r.stops[lo+1], pos-float64(lo))
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + t*(float64(y)-float64(x)) + 0.5) }
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// At returns the colour at t, clamped to [0, 1]. NaN maps to the first stop.
func (r *Ramp) At(t float64) color.Color {
	switch {
	case !(t > 0):
		return r.lut[0]
	case t >= 1:
		return r.lut[lutSize-1]
	}
	return r.lut[int(t*(lutSize-1)+0.5)]
}

// AtIndex returns the i-th stop, wrapping around.
func (r *Ramp) AtIndex(i int) color.Color {
	return r.stops[wrap(i, len(r.stops))]
}

// Reversed returns the ramp running from the last stop to the first.
func (r *Ramp) Reversed() *Ramp {
	rev := make([]color.RGBA, len(r.stops))
	for i, c := range r.stops {
		rev[len(rev)-1-i] = c
	}
	return NewRamp(rev...)
}

// Palette is a list of distinct colours for categories.
type Palette []color.RGBA

// At picks the colour of the bucket t falls in.
func (p Palette) At(t float64) color.Color {
	if !(t > 0) {
		return p[0]
	}
	i := int(t * float64(len(p)))
	if i >= len(p) {
		i = len(p) - 1
	}
	return p[i]
}

// AtIndex returns the colour of category i, wrapping around.
func (p Palette) AtIndex(i int) color.Color { return p[wrap(i, len(p))] }

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("colormap: bad colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colormap: bad colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func hexes(hs ...string) []color.RGBA {
	out := make([]color.RGBA, len(hs))
	for i, h := range hs {
		c, err := ParseHex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// Viridis is the matplotlib default ramp.
var Viridis = NewRamp(hexes(
	"#440154", "#482374", "#404387", "#345e8d", "#29788e", "#20908c",
	"#22a784", "#44be70", "#79d151", "#bdde26", "#fde725",
)...)

// Plasma ramp
var Plasma = NewRamp(hexes(
	"#0d0887", "#4b03a1", "#7d03a8", "#a82296", "#cb4679", "#e56b5d",
	"#f89441", "#fdc328", "#f0f921",
)...)

// Inferno ramp
var Inferno = NewRamp(hexes(
	"#000004", "#280b54", "#65156e", "#9f2a63", "#d44842", "#f57d15",
	"#fac127", "#fcffa4",
)...)

// Magma ramp
var Magma = NewRamp(hexes(
	"#000004", "#1c1044", "#4f127b", "#812581", "#b5367a", "#e55064",
	"#fb8761", "#fec287", "#fcfdbf",
)...)

// GreyRed highlights high values against grey.
var GreyRed = NewRamp(hexes(
	"#d3d3d3", "#e9967a", "#ff0000",
)...)

// Categorical holds 20 distinct colours for labelled points.
var Categorical = Palette(hexes(
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	"#aec7e8", "#ffbb78", "#98df8a", "#ff9896", "#c5b0d5",
	"#c49c94", "#f7b6d2", "#c7c7c7", "#dbdb8d", "#9edae5",
))

var registry = map[string]Colormap{
	"viridis":     Viridis,
	"plasma":      Plasma,
	"inferno":     Inferno,
	"magma":       Magma,
	"greyred":     GreyRed,
	"categorical": Categorical,
}

// Lookup returns the palette registered under name, ignoring case. A "_r"
// suffix reverses a continuous palette.
func Lookup(name string) (Colormap, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if base, ok := strings.CutSuffix(name, "_r"); ok {
		r, ok := registry[base].(*Ramp)
		if !ok {
			return nil, false
		}
		return r.Reversed(), true
	}
	c, ok := registry[name]
	return c, ok
}

// Names returns the registered palette names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Normalize maps v from [lo, hi] into [0, 1]. A zero-width range maps to 0.
func Normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
