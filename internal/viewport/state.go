// Package viewport holds the pan/zoom state of a plot and derives the scales
// that map data values, the normalized index space and screen pixels onto
// each other.
package viewport

import (
	"math"

	"github.com/atlasmap-sc/scatter/internal/quadtree"
	"github.com/atlasmap-sc/scatter/internal/scale"
)

// NormSize is the height of the normalized index space. Its width is
// NormSize times the aspect ratio.
const NormSize = 100

// Config describes the plot area and its zoom policy.
type Config struct {
	// Width and Height of the plot area in pixels, margins excluded.
	Width, Height int

	XDomain, YDomain [2]float64
	Y2Domain         [2]float64
	HasY2            bool

	Axes        Axes
	ScaleExtent [2]float64
	AspectRatio float64

	// ClickRadius is the hit radius in pixels.
	ClickRadius float64
}

func (c *Config) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 1
	}
	if c.Height <= 0 {
		c.Height = 1
	}
	if c.ScaleExtent[0] <= 0 {
		c.ScaleExtent[0] = 1
	}
	if c.ScaleExtent[1] == 0 {
		c.ScaleExtent[1] = 100
	}
	if c.ScaleExtent[1] < c.ScaleExtent[0] {
		c.ScaleExtent[1] = c.ScaleExtent[0]
	}
	if c.AspectRatio <= 0 {
		c.AspectRatio = 1
	}
}

// Window is a rectangle in data units with X0<=X1 and Y0<=Y1.
type Window struct {
	X0, X1, Y0, Y1 float64
}

// State is the current transform plus the fixed domain scales. It is not
// safe for concurrent use.
type State struct {
	cfg Config
	t   Transform
}

// New returns a State with the identity transform.
func New(cfg Config) *State {
	cfg.applyDefaults()
	return &State{cfg: cfg, t: Identity}
}

// Config returns the effective configuration.
func (s *State) Config() Config { return s.cfg }

// Size returns the plot area in pixels.
func (s *State) Size() (int, int) { return s.cfg.Width, s.cfg.Height }

// Axes returns the zoom policy.
func (s *State) Axes() Axes { return s.cfg.Axes }

// Transform returns the current transform.
func (s *State) Transform() Transform { return s.t }

// NormWidth returns the width of the normalized space.
func (s *State) NormWidth() float64 { return NormSize * s.cfg.AspectRatio }

// Extent returns the normalized space as an index extent.
func (s *State) Extent() quadtree.Extent {
	return quadtree.Extent{X1: s.NormWidth(), Y1: NormSize}
}

// Domain returns the full data domain of the primary axes.
func (s *State) Domain() Window {
	return sortedWindow(s.cfg.XDomain[0], s.cfg.XDomain[1], s.cfg.YDomain[0], s.cfg.YDomain[1])
}

// SetDomains replaces the data domains. The transform is kept.
func (s *State) SetDomains(x, y [2]float64) {
	s.cfg.XDomain, s.cfg.YDomain = x, y
}

// SetY2Domain replaces the secondary y domain.
func (s *State) SetY2Domain(y2 [2]float64) {
	s.cfg.Y2Domain, s.cfg.HasY2 = y2, true
}

// Resize changes the plot area and reports whether it differed. The
// transform is constrained to the new translate extent.
func (s *State) Resize(width, height int) bool {
	if width == s.cfg.Width && height == s.cfg.Height {
		return false
	}
	s.cfg.Width, s.cfg.Height = width, height
	s.cfg.applyDefaults()
	s.t = s.Constrain(s.t)
	return true
}

func (s *State) w() float64 { return float64(s.cfg.Width) }
func (s *State) h() float64 { return float64(s.cfg.Height) }

// XScale maps the x domain onto the plot width.
func (s *State) XScale() scale.Linear {
	return scale.NewLinear(s.cfg.XDomain[0], s.cfg.XDomain[1], 0, s.w())
}

// YScale maps the y domain onto the plot height, upwards.
func (s *State) YScale() scale.Linear {
	return scale.NewLinear(s.cfg.YDomain[0], s.cfg.YDomain[1], s.h(), 0)
}

// Y2Scale maps the secondary y domain onto the plot height.
func (s *State) Y2Scale() scale.Linear {
	return scale.NewLinear(s.cfg.Y2Domain[0], s.cfg.Y2Domain[1], s.h(), 0)
}

// NormXScale maps normalized x onto the plot width.
func (s *State) NormXScale() scale.Linear {
	return scale.NewLinear(0, s.NormWidth(), 0, s.w())
}

// NormYScale maps normalized y onto the plot height.
func (s *State) NormYScale() scale.Linear {
	return scale.NewLinear(0, NormSize, s.h(), 0)
}

func (s *State) TransformedX() scale.Linear     { return s.Rescale(X, s.XScale()) }
func (s *State) TransformedY() scale.Linear     { return s.Rescale(Y, s.YScale()) }
func (s *State) TransformedY2() scale.Linear    { return s.Rescale(Y, s.Y2Scale()) }
func (s *State) TransformedNormX() scale.Linear { return s.Rescale(X, s.NormXScale()) }
func (s *State) TransformedNormY() scale.Linear { return s.Rescale(Y, s.NormYScale()) }

// Rescale composes the current transform onto sc when axis follows zoom,
// and returns sc unchanged otherwise.
func (s *State) Rescale(axis Axis, sc scale.Linear) scale.Linear {
	if axis != X && axis != Y {
		panic("viewport: rescale not implemented for this axis")
	}
	if !s.cfg.Axes.Has(axis) {
		return sc
	}
	off := s.t.X
	if axis == Y {
		off = s.t.Y
	}
	r0, r1 := sc.Range()
	return sc.WithDomain(sc.Invert((r0-off)/s.t.K), sc.Invert((r1-off)/s.t.K))
}

// NormalizeX maps a data x value into the normalized space.
func (s *State) NormalizeX(v float64) float64 {
	return Normalize(v, s.cfg.XDomain, s.NormWidth())
}

// NormalizeY maps a data y value into the normalized space.
func (s *State) NormalizeY(v float64) float64 {
	return Normalize(v, s.cfg.YDomain, NormSize)
}

// NormalizeY2 maps a secondary y value into the normalized space.
func (s *State) NormalizeY2(v float64) float64 {
	return Normalize(v, s.cfg.Y2Domain, NormSize)
}

// Normalize maps v from domain d onto [0, size]. A zero-width domain maps
// to the middle.
func Normalize(v float64, d [2]float64, size float64) float64 {
	if d[1] == d[0] {
		return size / 2
	}
	return (v - d[0]) / (d[1] - d[0]) * size
}

// Visible returns the part of the normalized space currently on screen.
func (s *State) Visible() quadtree.Extent {
	nx, ny := s.TransformedNormX(), s.TransformedNormY()
	x0, x1 := nx.Invert(0), nx.Invert(s.w())
	y0, y1 := ny.Invert(s.h()), ny.Invert(0)
	return quadtree.Extent{
		X0: math.Min(x0, x1), X1: math.Max(x0, x1),
		Y0: math.Min(y0, y1), Y1: math.Max(y0, y1),
	}
}

// PixelToNormalized maps a plot-area pixel into the normalized space.
func (s *State) PixelToNormalized(px, py float64) (float64, float64) {
	return s.TransformedNormX().Invert(px), s.TransformedNormY().Invert(py)
}

// NormalizedToPixel maps a normalized point onto the plot area.
func (s *State) NormalizedToPixel(nx, ny float64) (float64, float64) {
	return s.TransformedNormX().Apply(nx), s.TransformedNormY().Apply(ny)
}

// ClickRadius converts the configured pixel radius into normalized units
// per axis, so that hit areas keep their on-screen size at any zoom.
func (s *State) ClickRadius() (rx, ry float64) {
	r := s.cfg.ClickRadius
	rx = r / (s.w() / s.NormWidth())
	ry = r / (s.h() / NormSize)
	if s.cfg.Axes.Has(X) {
		rx /= s.t.K
	}
	if s.cfg.Axes.Has(Y) {
		ry /= s.t.K
	}
	return rx, ry
}

// Window returns the visible rectangle in data units.
func (s *State) Window() Window {
	x, y := s.TransformedX(), s.TransformedY()
	return sortedWindow(x.Invert(0), x.Invert(s.w()), y.Invert(s.h()), y.Invert(0))
}

// SetWindow zooms so that w fills the plot along the zooming axes. With
// both axes zooming the smaller per-axis scale wins and w is centred, so
// the visible window contains w.
func (s *State) SetWindow(w Window) Delta {
	if s.cfg.Axes == ZoomNone {
		return Between(s.t, s.t)
	}
	xs, ys := s.XScale(), s.YScale()
	px0, px1 := xs.Apply(w.X0), xs.Apply(w.X1)
	py0, py1 := ys.Apply(w.Y0), ys.Apply(w.Y1)

	kx := s.w() / math.Abs(px1-px0)
	ky := s.h() / math.Abs(py1-py0)
	var k float64
	switch s.cfg.Axes {
	case ZoomX:
		k = kx
	case ZoomY:
		k = ky
	default:
		k = math.Min(kx, ky)
	}
	k = s.clampK(k)

	t := Transform{K: k}
	if s.cfg.Axes.Has(X) {
		t.X = s.w()/2 - k*(px0+px1)/2
	}
	if s.cfg.Axes.Has(Y) {
		t.Y = s.h()/2 - k*(py0+py1)/2
	}
	return s.SetTransform(t)
}

// SetTransform constrains and applies t, returning the change.
func (s *State) SetTransform(t Transform) Delta {
	t = s.Constrain(t)
	d := Between(s.t, t)
	s.t = t
	return d
}

// ZoomAt scales by factor around the plot pixel (px, py).
func (s *State) ZoomAt(factor, px, py float64) Delta {
	k := s.clampK(s.t.K * factor)
	r := k / s.t.K
	t := Transform{K: k, X: s.t.X, Y: s.t.Y}
	if s.cfg.Axes.Has(X) {
		t.X = px - (px-s.t.X)*r
	}
	if s.cfg.Axes.Has(Y) {
		t.Y = py - (py-s.t.Y)*r
	}
	return s.SetTransform(t)
}

// PanBy translates by (dx, dy) pixels along the zooming axes.
func (s *State) PanBy(dx, dy float64) Delta {
	t := s.t
	if s.cfg.Axes.Has(X) {
		t.X += dx
	}
	if s.cfg.Axes.Has(Y) {
		t.Y += dy
	}
	return s.SetTransform(t)
}

// Reset returns to the identity transform.
func (s *State) Reset() Delta {
	return s.SetTransform(Identity)
}

// Constrain clamps k into the scale extent and keeps the plot area covered
// by the transformed content.
func (s *State) Constrain(t Transform) Transform {
	if s.cfg.Axes == ZoomNone {
		return Identity
	}
	t.K = s.clampK(t.K)
	if !s.cfg.Axes.Has(X) {
		t.X = 0
	}
	if !s.cfg.Axes.Has(Y) {
		t.Y = 0
	}
	w, h := s.w(), s.h()
	dx := constrainAxis(-t.X/t.K, (w-t.X)/t.K-w)
	dy := constrainAxis(-t.Y/t.K, (h-t.Y)/t.K-h)
	t.X += t.K * dx
	t.Y += t.K * dy
	return t
}

func constrainAxis(d0, d1 float64) float64 {
	if d1 > d0 {
		return (d0 + d1) / 2
	}
	if v := math.Min(0, d0); v != 0 {
		return v
	}
	return math.Max(0, d1)
}

func (s *State) clampK(k float64) float64 {
	if math.IsNaN(k) {
		return s.t.K
	}
	return math.Max(s.cfg.ScaleExtent[0], math.Min(s.cfg.ScaleExtent[1], k))
}

func sortedWindow(x0, x1, y0, y1 float64) Window {
	return Window{
		X0: math.Min(x0, x1), X1: math.Max(x0, x1),
		Y0: math.Min(y0, y1), Y1: math.Max(y0, y1),
	}
}
