// Package lasso records a freehand selection path and turns it into a hit
// tester.
package lasso

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/atlasmap-sc/scatter/internal/hittest"
)

// DefaultMinDistance is the distance in pixels a pointer has to travel
// before a new path point is committed.
const DefaultMinDistance = 10.0

// Lasso accumulates pointer samples of one drag gesture in pixel space.
type Lasso struct {
	minDistance float64
	path        []orb.Point
	current     orb.Point
	active      bool
}

// New returns an idle lasso.
func New(minDistance float64) *Lasso {
	if minDistance <= 0 {
		minDistance = DefaultMinDistance
	}
	return &Lasso{minDistance: minDistance}
}

// Start discards any previous path and records the first point.
func (l *Lasso) Start(x, y float64) {
	p := orb.Point{x, y}
	l.path = append(l.path[:0], p)
	l.current = p
	l.active = true
}

// Move updates the current pointer position without committing it.
func (l *Lasso) Move(x, y float64) {
	if l.active {
		l.current = orb.Point{x, y}
	}
}

// Commit appends the current position when it is far enough from the last
// committed point, and reports whether it did.
func (l *Lasso) Commit() bool {
	if !l.active || len(l.path) == 0 {
		return false
	}
	last := l.path[len(l.path)-1]
	if math.Hypot(l.current[0]-last[0], l.current[1]-last[1]) < l.minDistance {
		return false
	}
	l.path = append(l.path, l.current)
	return true
}

// End commits the final position and stops accepting moves. The path is
// kept for a last hit test until Reset.
func (l *Lasso) End() {
	l.Commit()
	l.active = false
}

// Reset clears the path.
func (l *Lasso) Reset() {
	l.path = l.path[:0]
	l.active = false
}

// Active reports whether a gesture is in progress.
func (l *Lasso) Active() bool { return l.active }

// Path returns a copy of the committed points.
func (l *Lasso) Path() []orb.Point {
	return append([]orb.Point(nil), l.path...)
}

// Len returns the number of committed points.
func (l *Lasso) Len() int { return len(l.path) }

// Tester returns the convex hull of the path mapped through toNormalized,
// or nil when the path cannot enclose an area.
func (l *Lasso) Tester(toNormalized func(x, y float64) (float64, float64)) hittest.Tester {
	if len(l.path) < 3 {
		return nil
	}
	pts := make([]orb.Point, len(l.path))
	for i, p := range l.path {
		x, y := toNormalized(p[0], p[1])
		pts[i] = orb.Point{x, y}
	}
	poly := hittest.NewPolygon(pts)
	if poly == nil {
		return nil
	}
	return poly
}

// Draw paints the path as a closed outline with a translucent fill.
func (l *Lasso) Draw(dc *gg.Context, stroke, fill color.Color) {
	if len(l.path) < 2 {
		return
	}
	dc.NewSubPath()
	dc.MoveTo(l.path[0][0], l.path[0][1])
	for _, p := range l.path[1:] {
		dc.LineTo(p[0], p[1])
	}
	if l.active {
		dc.LineTo(l.current[0], l.current[1])
	}
	dc.ClosePath()
	if fill != nil {
		dc.SetColor(fill)
		dc.FillPreserve()
	}
	dc.SetColor(stroke)
	dc.SetLineWidth(1)
	dc.SetDash(4, 3)
	dc.Stroke()
	dc.SetDash()
}
