package service

import (
	"image"
	"strconv"

	"github.com/atlasmap-sc/scatter/internal/plot"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/scale"
)

const (
	tickCount  = 5
	tickLength = 4
)

// chrome holds the surfaces drawn around the data: the grid below it and
// the axes above it.
type chrome struct {
	grid *render.Canvas
	axes *render.Canvas
}

func newChrome(width, height int) *chrome {
	return &chrome{grid: render.NewCanvas(width, height), axes: render.NewCanvas(width, height)}
}

func (c *chrome) resize(width, height int) {
	if w, h := c.axes.Size(); w == width && h == height {
		return
	}
	c.grid = render.NewCanvas(width, height)
	c.axes = render.NewCanvas(width, height)
}

// draw renders grid lines, the plot frame, ticks and tick labels for the
// transformed scales.
func (c *chrome) draw(area image.Rectangle, sc plot.Scales) {
	c.grid.Clear()
	c.axes.Clear()

	x0, y0 := float64(area.Min.X), float64(area.Min.Y)
	x1, y1 := float64(area.Max.X), float64(area.Max.Y)

	g := c.grid.Context()
	g.SetColor(plot.GridColor)
	g.SetLineWidth(1)
	xticks := visibleTicks(sc.X)
	yticks := visibleTicks(sc.Y)
	for _, v := range xticks {
		px := x0 + sc.X.Apply(v)
		g.DrawLine(px, y0, px, y1)
	}
	for _, v := range yticks {
		py := y0 + sc.Y.Apply(v)
		g.DrawLine(x0, py, x1, py)
	}
	g.Stroke()

	a := c.axes.Context()
	a.SetColor(plot.AxisColor)
	a.SetLineWidth(1)
	a.DrawRectangle(x0+0.5, y0+0.5, x1-x0-1, y1-y0-1)
	a.Stroke()
	for _, v := range xticks {
		px := x0 + sc.X.Apply(v)
		a.DrawLine(px, y1, px, y1+tickLength)
		a.Stroke()
		a.DrawStringAnchored(formatTick(v), px, y1+tickLength+2, 0.5, 1)
	}
	for _, v := range yticks {
		py := y0 + sc.Y.Apply(v)
		a.DrawLine(x0-tickLength, py, x0, py)
		a.Stroke()
		a.DrawStringAnchored(formatTick(v), x0-tickLength-2, py, 1, 0.5)
	}
	if sc.HasY2 {
		for _, v := range visibleTicks(sc.Y2) {
			py := y0 + sc.Y2.Apply(v)
			a.DrawLine(x1, py, x1+tickLength, py)
			a.Stroke()
			a.DrawStringAnchored(formatTick(v), x1+tickLength+2, py, 0, 0.5)
		}
	}
}

// visibleTicks returns the ticks of s that fall inside its range.
func visibleTicks(s scale.Linear) []float64 {
	r0, r1 := s.Range()
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	var out []float64
	for _, v := range s.Ticks(tickCount) {
		if p := s.Apply(v); p >= r0 && p <= r1 {
			out = append(out, v)
		}
	}
	return out
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
