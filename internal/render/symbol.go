package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
)

// Style controls how a symbol renderer paints points.
type Style[T any] struct {
	// Size is the symbol diameter in pixels.
	Size  float64
	Color color.Color
	// ColorOf overrides Color per point. Setting it disables batching.
	ColorOf func(T) color.Color
}

// Factory builds a renderer drawing into dc.
type Factory[T any] func(dc *gg.Context, style Style[T]) Renderer[T]

// Symbol names a built-in point shape.
type Symbol string

const (
	Circle  Symbol = "circle"
	Square  Symbol = "square"
	Diamond Symbol = "diamond"
	Line    Symbol = "line"
)

// Symbols lists the built-in shapes.
var Symbols = []Symbol{Circle, Square, Diamond, Line}

// ParseSymbol validates a symbol name.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Symbols {
		if sym == known {
			return sym, nil
		}
	}
	return "", fmt.Errorf("unknown symbol %q", s)
}

// SymbolFactory returns the factory for a built-in shape.
func SymbolFactory[T any](sym Symbol) (Factory[T], error) {
	var shape func(dc *gg.Context, x, y, r float64)
	stroke := false
	switch sym {
	case Circle:
		shape = func(dc *gg.Context, x, y, r float64) { dc.DrawCircle(x, y, r) }
	case Square:
		shape = func(dc *gg.Context, x, y, r float64) { dc.DrawRectangle(x-r, y-r, 2*r, 2*r) }
	case Diamond:
		shape = func(dc *gg.Context, x, y, r float64) {
			dc.NewSubPath()
			dc.MoveTo(x, y-r)
			dc.LineTo(x+r, y)
			dc.LineTo(x, y+r)
			dc.LineTo(x-r, y)
			dc.ClosePath()
		}
	case Line:
		stroke = true
		shape = func(dc *gg.Context, x, y, r float64) {
			dc.NewSubPath()
			dc.MoveTo(x-r, y)
			dc.LineTo(x+r, y)
		}
	default:
		return nil, fmt.Errorf("unknown symbol %q", sym)
	}
	return func(dc *gg.Context, style Style[T]) Renderer[T] {
		return newShapeRenderer(dc, style, shape, stroke)
	}, nil
}

// shapeRenderer accumulates every point into one path and paints it in
// Done, unless points carry their own colour.
type shapeRenderer[T any] struct {
	dc     *gg.Context
	style  Style[T]
	shape  func(dc *gg.Context, x, y, r float64)
	stroke bool
	r      float64
	n      int
}

func newShapeRenderer[T any](dc *gg.Context, style Style[T], shape func(*gg.Context, float64, float64, float64), stroke bool) *shapeRenderer[T] {
	if style.Size <= 0 {
		style.Size = 2
	}
	if style.Color == nil {
		style.Color = color.Black
	}
	dc.NewSubPath()
	return &shapeRenderer[T]{
		dc:     dc,
		style:  style,
		shape:  shape,
		stroke: stroke,
		r:      math.Max(style.Size/2, 0.5),
	}
}

func (s *shapeRenderer[T]) Render(px, py float64, v T) {
	s.shape(s.dc, px, py, s.r)
	s.n++
	if s.style.ColorOf != nil {
		s.dc.SetColor(s.style.ColorOf(v))
		s.paint()
	}
}

func (s *shapeRenderer[T]) Done() {
	if s.style.ColorOf != nil || s.n == 0 {
		s.dc.ClearPath()
		return
	}
	s.dc.SetColor(s.style.Color)
	s.paint()
}

func (s *shapeRenderer[T]) paint() {
	if s.stroke {
		s.dc.SetLineWidth(math.Max(1, s.r/2))
		s.dc.Stroke()
		return
	}
	s.dc.Fill()
}
