package viewport

import (
	"fmt"
	"math"
	"strings"
)

// Axes selects which axes follow zoom and pan gestures.
type Axes uint8

const (
	ZoomNone Axes = 0
	ZoomX    Axes = 1
	ZoomY    Axes = 2
	ZoomXY        = ZoomX | ZoomY
)

// Has reports whether a contains axis.
func (a Axes) Has(axis Axis) bool {
	switch axis {
	case X:
		return a&ZoomX != 0
	case Y:
		return a&ZoomY != 0
	}
	return false
}

func (a Axes) String() string {
	switch a {
	case ZoomX:
		return "x"
	case ZoomY:
		return "y"
	case ZoomXY:
		return "xy"
	}
	return "none"
}

// ParseAxes parses "x", "y", "xy" or "none".
func ParseAxes(s string) (Axes, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return ZoomX, nil
	case "y":
		return ZoomY, nil
	case "xy", "yx", "both":
		return ZoomXY, nil
	case "", "none", "false":
		return ZoomNone, nil
	}
	return ZoomNone, fmt.Errorf("unknown zoom axes %q", s)
}

// Axis names one plot axis.
type Axis uint8

const (
	X Axis = iota + 1
	Y
)

// Transform is a uniform scale k followed by a translation, applied to
// pixel coordinates: p' = k*p + (x, y).
type Transform struct {
	K, X, Y float64
}

// Identity is the transform of an unzoomed plot.
var Identity = Transform{K: 1}

// Apply maps a pixel of the untransformed plot to the screen.
func (t Transform) Apply(px, py float64) (float64, float64) {
	return t.K*px + t.X, t.K*py + t.Y
}

// Invert maps a screen pixel back to the untransformed plot.
func (t Transform) Invert(px, py float64) (float64, float64) {
	return (px - t.X) / t.K, (py - t.Y) / t.K
}

// Change classifies the difference between two transforms.
type Change uint8

const (
	NoChange Change = iota
	Translate
	Scale
	ScaleAndTranslate
)

func (c Change) String() string {
	switch c {
	case Translate:
		return "translate"
	case Scale:
		return "scale"
	case ScaleAndTranslate:
		return "scale+translate"
	}
	return "none"
}

const epsilon = 1e-9

// Delta is the screen-space map from the previous transform to the current
// one: a pixel p drawn under the previous transform now sits at K*p + (X, Y).
type Delta struct {
	K, X, Y float64
	Kind    Change
}

// Between returns the delta that takes from to to.
func Between(from, to Transform) Delta {
	r := to.K / from.K
	d := Delta{K: r, X: to.X - r*from.X, Y: to.Y - r*from.Y}
	scaled := math.Abs(to.K-from.K) > epsilon
	moved := math.Abs(to.X-from.X) > epsilon || math.Abs(to.Y-from.Y) > epsilon
	switch {
	case scaled && moved:
		d.Kind = ScaleAndTranslate
	case scaled:
		d.Kind = Scale
	case moved:
		d.Kind = Translate
	}
	return d
}
