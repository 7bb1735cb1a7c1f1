// Package plot assembles the spatial indexes, viewport, selection and
// gesture handling into an interactive scatterplot drawn on two raster
// layers.
package plot

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/atlasmap-sc/scatter/internal/event"
	"github.com/atlasmap-sc/scatter/internal/hittest"
	"github.com/atlasmap-sc/scatter/internal/interact"
	"github.com/atlasmap-sc/scatter/internal/quadtree"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/scale"
	"github.com/atlasmap-sc/scatter/internal/selection"
	"github.com/atlasmap-sc/scatter/internal/viewport"
)

// ErrNoSecondary is returned when secondary data is set on a plot without
// secondary accessors.
var ErrNoSecondary = errors.New("plot: secondary accessors not configured")

// SetLogger sets the logger of the plotting packages.
func SetLogger(l *slog.Logger) { render.SetLogger(l) }

// Logger returns the logger of the plotting packages.
func Logger() *slog.Logger { return render.Logger() }

// Accessors project a point onto the plot axes. X2 and Y2 belong to the
// secondary series of a dual-axis plot.
type Accessors[T any] struct {
	X, Y   func(T) float64
	X2, Y2 func(T) float64
}

func (a Accessors[T]) dual() bool { return a.X2 != nil && a.Y2 != nil }

// Scales are the transformed data scales handed to the axes hook.
type Scales struct {
	X, Y  scale.Linear
	Y2    scale.Linear
	HasY2 bool
}

// Hooks are the presentation callbacks of a plot.
type Hooks[T any] struct {
	RenderAxes func(Scales)
	// ShowTooltip is called with empty items to hide the tooltip.
	ShowTooltip func(items []T, x, y float64)
}

// series is one indexed point set.
type series[T comparable] struct {
	data []T
	tree *quadtree.Tree[T]
	sym  SymbolOptions[T]
	fac  render.Factory[T]
}

// Plot is an interactive scatterplot. It is not safe for concurrent use;
// drive it from the goroutine that runs its clock callbacks.
type Plot[T comparable] struct {
	opts  Options[T]
	acc   Accessors[T]
	hooks Hooks[T]

	vp     *viewport.State
	ctrl   *interact.Controller
	sel    *selection.Manager[T]
	layers *render.Layers
	bus    *event.Bus[Event[T]]
	layout layout[T]

	primary   series[T]
	secondary series[T]

	displayW, displayH int
	lastWindow         viewport.Transform
	stats              render.Stats
	version            uint64
}

// New builds a plot over data. Options are merged over DefaultOptions.
func New[T comparable](data []T, acc Accessors[T], opts Options[T], hooks Hooks[T]) (*Plot[T], error) {
	if acc.X == nil || acc.Y == nil {
		return nil, errors.New("plot: x and y accessors are required")
	}
	opts = MergeOptions(DefaultOptions[T](), opts)

	axes, err := viewport.ParseAxes(opts.Zoom.Axes)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	primaryFac, err := factory(opts.Symbol)
	if err != nil {
		return nil, fmt.Errorf("plot: symbol: %w", err)
	}
	secondaryFac, err := factory(opts.Secondary)
	if err != nil {
		return nil, fmt.Errorf("plot: secondary symbol: %w", err)
	}

	p := &Plot[T]{
		opts:     opts,
		acc:      acc,
		hooks:    hooks,
		bus:      event.NewBus[Event[T]](),
		displayW: opts.Width,
		displayH: opts.Height,
	}
	p.primary = series[T]{sym: opts.Symbol, fac: primaryFac}
	p.secondary = series[T]{sym: opts.Secondary, fac: secondaryFac}
	if acc.dual() {
		p.layout = dualAxis[T]{p}
	} else {
		p.layout = singleAxis[T]{p}
	}

	area := p.plotArea(opts.Width, opts.Height)
	p.vp = viewport.New(viewport.Config{
		Width:       area.Dx(),
		Height:      area.Dy(),
		Axes:        axes,
		ScaleExtent: opts.Zoom.ScaleExtent,
		AspectRatio: opts.AspectRatio,
		ClickRadius: opts.ClickRadius,
	})
	p.layers = render.NewLayers(opts.Width, opts.Height, area)
	p.ctrl = interact.New(p.vp, host[T]{p}, interact.Config{
		Clock:             opts.Clock,
		SelectionModifier: opts.Selection.Modifier,
		SelectionDisabled: opts.Selection.Disabled,
		LassoInterval:     opts.Lasso.Interval,
		LassoMinDistance:  opts.Lasso.MinDistance,
		SettleDelay:       opts.Zoom.SettleDelay,
		TooltipDelay:      opts.TooltipDelay,
		TooltipDisabled:   opts.TooltipDisabled,
		WheelBase:         opts.Zoom.WheelBase,
	})
	p.lastWindow = p.vp.Transform()

	p.setDomains(data, nil)
	p.primary.data = data
	x, y := p.normalized(acc.X, acc.Y, false)
	p.primary.tree = quadtree.Build(data, x, y, p.vp.Extent())
	p.sel = selection.NewManager(x, y, p.vp.Extent(), p.selectionChanged)
	return p, nil
}

func factory[T any](s SymbolOptions[T]) (render.Factory[T], error) {
	if s.Factory != nil {
		return s.Factory, nil
	}
	return render.SymbolFactory[T](s.Name)
}

func (p *Plot[T]) plotArea(width, height int) image.Rectangle {
	m := p.opts.Margins
	r := image.Rect(m.Left, m.Top, width-m.Right, height-m.Bottom)
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	return r
}

// normalized returns accessors into the normalized space. They capture the
// current domains, so an index built with them stays consistent until it is
// rebuilt.
func (p *Plot[T]) normalized(x, y func(T) float64, secondary bool) (func(T) float64, func(T) float64) {
	cfg := p.vp.Config()
	nw := p.vp.NormWidth()
	xd, yd := cfg.XDomain, cfg.YDomain
	if secondary {
		yd = cfg.Y2Domain
	}
	nx := func(v T) float64 { return viewport.Normalize(x(v), xd, nw) }
	ny := func(v T) float64 { return viewport.Normalize(y(v), yd, viewport.NormSize) }
	return nx, ny
}

// setDomains applies configured domains and computes the missing ones from
// the data.
func (p *Plot[T]) setDomains(primary, secondary []T) {
	pad := p.opts.DomainPadding
	xd, yd := p.opts.XDomain, p.opts.YDomain
	if xd == ([2]float64{}) {
		vs := project(primary, p.acc.X)
		if p.acc.X2 != nil {
			vs = append(vs, project(secondary, p.acc.X2)...)
		}
		xd[0], xd[1] = scale.Extent(vs, pad)
	}
	if yd == ([2]float64{}) {
		yd[0], yd[1] = scale.Extent(project(primary, p.acc.Y), pad)
	}
	p.vp.SetDomains(xd, yd)
	if p.acc.dual() {
		y2 := p.opts.Y2Domain
		if y2 == ([2]float64{}) {
			y2[0], y2[1] = scale.Extent(project(secondary, p.acc.Y2), pad)
		}
		p.vp.SetY2Domain(y2)
	}
}

func project[T any](data []T, f func(T) float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = f(v)
	}
	return out
}

// Data returns the primary data set.
func (p *Plot[T]) Data() []T { return p.primary.data }

// SetData replaces the primary data, rebuilds the indexes and empties the
// selection.
func (p *Plot[T]) SetData(data []T) {
	p.primary.data = data
	p.rebuild()
	Logger().Info("data replaced", "points", len(data))
	p.Render(render.Dirty, noDelta)
}

// SecondaryData returns the secondary data set.
func (p *Plot[T]) SecondaryData() []T { return p.secondary.data }

// SetSecondaryData replaces the secondary series of a dual-axis plot.
func (p *Plot[T]) SetSecondaryData(data []T) error {
	if !p.acc.dual() {
		return ErrNoSecondary
	}
	p.secondary.data = data
	p.rebuild()
	p.Render(render.Dirty, noDelta)
	return nil
}

func (p *Plot[T]) rebuild() {
	p.setDomains(p.primary.data, p.secondary.data)
	x, y := p.normalized(p.acc.X, p.acc.Y, false)
	p.primary.tree = quadtree.Build(p.primary.data, x, y, p.vp.Extent())
	if p.acc.dual() {
		x2, y2 := p.normalized(p.acc.X2, p.acc.Y2, true)
		p.secondary.tree = quadtree.Build(p.secondary.data, x2, y2, p.vp.Extent())
	}
	p.sel.Reset(x, y, p.vp.Extent())
}

// Index returns the primary spatial index. Callers must not mutate it.
func (p *Plot[T]) Index() *quadtree.Tree[T] { return p.primary.tree }

// Domain returns the full data extent.
func (p *Plot[T]) Domain() viewport.Window { return p.vp.Domain() }

// Window returns the visible data rectangle.
func (p *Plot[T]) Window() viewport.Window { return p.vp.Window() }

// SetWindow zooms to w.
func (p *Plot[T]) SetWindow(w viewport.Window) { p.ctrl.SetWindow(w) }

// ResetZoom returns to the full domain.
func (p *Plot[T]) ResetZoom() { p.ctrl.Reset() }

// ZoomBy zooms by factor around the plot-area pixel (px, py).
func (p *Plot[T]) ZoomBy(factor, px, py float64) { p.ctrl.ZoomBy(factor, px, py) }

// PanBy pans by (dx, dy) pixels.
func (p *Plot[T]) PanBy(dx, dy float64) { p.ctrl.PanBy(dx, dy) }

// Controller returns the gesture controller. Pointer coordinates are
// relative to PlotArea.
func (p *Plot[T]) Controller() *interact.Controller { return p.ctrl }

// Viewport returns the transform state.
func (p *Plot[T]) Viewport() *viewport.State { return p.vp }

// PlotArea returns the plot rectangle inside the canvas.
func (p *Plot[T]) PlotArea() image.Rectangle { return p.layers.Plot() }

// Layers returns the drawing surfaces.
func (p *Plot[T]) Layers() *render.Layers { return p.layers }

// Stats returns the traversal counts of the last full render.
func (p *Plot[T]) Stats() render.Stats { return p.stats }

// Version increases with every render pass.
func (p *Plot[T]) Version() uint64 { return p.version }

// Scales returns the transformed scales.
func (p *Plot[T]) Scales() Scales { return p.layout.transformedScales() }

// Resize records a new display size. The canvases follow on the next
// render, which becomes a full redraw.
func (p *Plot[T]) Resize(width, height int) {
	p.displayW, p.displayH = width, height
}

// Close stops pending timers.
func (p *Plot[T]) Close() { p.ctrl.Stop() }

// Selection returns the selected points.
func (p *Plot[T]) Selection() []T { return p.sel.Items() }

// SelectionIndex returns the selection index. Callers must not mutate it.
func (p *Plot[T]) SelectionIndex() *quadtree.Tree[T] { return p.sel.Tree() }

// SetSelection replaces the selection. An empty items clears it.
func (p *Plot[T]) SetSelection(items []T) bool { return p.sel.Set(items, false) }

// ClearSelection empties the selection.
func (p *Plot[T]) ClearSelection() bool { return p.sel.Clear(false) }

// AddToSelection selects items.
func (p *Plot[T]) AddToSelection(items []T) bool { return p.sel.Add(items, false) }

// RemoveFromSelection deselects items.
func (p *Plot[T]) RemoveFromSelection(items []T) bool { return p.sel.Remove(items, false) }

// Find returns the primary points accepted by t.
func (p *Plot[T]) Find(t hittest.Tester) []T { return hittest.Find(p.primary.tree, t) }

// FindAt returns the points of every series within the click radius of the
// plot-area pixel (px, py).
func (p *Plot[T]) FindAt(px, py float64) []T {
	nx, ny := p.vp.PixelToNormalized(px, py)
	rx, ry := p.vp.ClickRadius()
	return p.layout.find(hittest.Ellipse{CX: nx, CY: ny, RX: rx, RY: ry})
}

func (p *Plot[T]) selectionChanged(inProgress bool) {
	name := EventSelection
	if inProgress {
		name = EventSelectionInProgress
	}
	p.bus.Emit(name, Event[T]{Name: name, Selection: p.sel.Items()})
	p.Render(render.SelectionChanged, noDelta)
}

var noDelta = viewport.Delta{K: 1}
