package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Canvas is one raster surface.
type Canvas struct {
	dc *gg.Context
	im *image.RGBA
}

// NewCanvas returns a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	im := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Canvas{dc: gg.NewContextForRGBA(im), im: im}
}

// Size returns the backing size in pixels.
func (c *Canvas) Size() (int, int) { return c.im.Rect.Dx(), c.im.Rect.Dy() }

// Context returns the drawing context.
func (c *Canvas) Context() *gg.Context { return c.dc }

// Image returns the backing pixels.
func (c *Canvas) Image() *image.RGBA { return c.im }

// Clear makes every pixel transparent, ignoring the clip.
func (c *Canvas) Clear() {
	draw.Draw(c.im, c.im.Rect, image.Transparent, image.Point{}, draw.Src)
}

// Clip restricts drawing to r until ResetClip.
func (c *Canvas) Clip(r image.Rectangle) {
	c.dc.Identity()
	c.dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	c.dc.Clip()
}

// ResetClip removes the clip and the current transform.
func (c *Canvas) ResetClip() {
	c.dc.ResetClip()
	c.dc.Identity()
}

// Translate moves the drawing origin.
func (c *Canvas) Translate(x, y float64) { c.dc.Translate(x, y) }

// CopyFrom replaces the pixels of c inside clip with the sr part of src,
// placed with its top-left corner at dp.
func (c *Canvas) CopyFrom(src *Canvas, sr image.Rectangle, dp image.Point, clip image.Rectangle) {
	dst := c.im.SubImage(clip).(*image.RGBA)
	xdraw.Copy(dst, dp, src.im, sr, xdraw.Src, nil)
}

// Layers is the pair of surfaces a plot draws on: the data layer holds the
// last full traversal, the overlay holds selection and lasso.
type Layers struct {
	data    *Canvas
	overlay *Canvas
	plot    image.Rectangle
	// valid is set once the data layer holds a complete traversal.
	valid bool
}

// NewLayers allocates two canvases of width x height drawing into plot.
func NewLayers(width, height int, plot image.Rectangle) *Layers {
	return &Layers{
		data:    NewCanvas(width, height),
		overlay: NewCanvas(width, height),
		plot:    plot,
	}
}

func (l *Layers) Data() *Canvas         { return l.data }
func (l *Layers) Overlay() *Canvas      { return l.overlay }
func (l *Layers) Plot() image.Rectangle { return l.plot }

// Valid reports whether the data layer can be reused by a blit.
func (l *Layers) Valid() bool { return l.valid }

// SetValid marks the data layer as complete or stale.
func (l *Layers) SetValid(v bool) { l.valid = v }

// Size returns the canvas size.
func (l *Layers) Size() (int, int) { return l.data.Size() }

// Resize reallocates both canvases when the size changes and invalidates
// the data layer. It reports whether anything changed.
func (l *Layers) Resize(width, height int, plot image.Rectangle) bool {
	w, h := l.data.Size()
	if w == width && h == height && plot == l.plot {
		return false
	}
	l.data = NewCanvas(width, height)
	l.overlay = NewCanvas(width, height)
	l.plot = plot
	l.valid = false
	return true
}

// Swap exchanges the roles of the two canvases.
func (l *Layers) Swap() {
	l.data, l.overlay = l.overlay, l.data
}

// BlitShift redraws the data layer without a traversal: the plot area of
// the data layer is copied onto the cleared overlay mapped by
// p -> k*p + (dx, dy) in plot coordinates, and the layers are swapped.
// The overlay returned by Overlay afterwards is stale and must be redrawn.
func (l *Layers) BlitShift(k, dx, dy float64) {
	l.overlay.Clear()
	o := l.plot.Min

	if k == 1 && dx == math.Trunc(dx) && dy == math.Trunc(dy) {
		l.overlay.CopyFrom(l.data, l.plot, o.Add(image.Pt(int(dx), int(dy))), l.plot)
	} else {
		dst := l.overlay.im.SubImage(l.plot).(*image.RGBA)
		src := l.data.im
		ox, oy := float64(o.X), float64(o.Y)
		m := f64.Aff3{
			k, 0, ox*(1-k) + dx,
			0, k, oy*(1-k) + dy,
		}
		xdraw.ApproxBiLinear.Transform(dst, m, src, l.plot, xdraw.Src, nil)
	}
	l.Swap()
	Logger().Debug("blit", "k", k, "dx", dx, "dy", dy)
}
