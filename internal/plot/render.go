package plot

import (
	"image/color"

	"github.com/fogleman/gg"

	"github.com/atlasmap-sc/scatter/internal/hittest"
	"github.com/atlasmap-sc/scatter/internal/interact"
	"github.com/atlasmap-sc/scatter/internal/quadtree"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/viewport"
)

// Render runs one render pass. A translate during a gesture shifts the
// previous frame instead of traversing, a selection change redraws the
// overlay only, and everything else redraws both layers. A display size
// that differs from the canvases turns any pass into a full redraw.
func (p *Plot[T]) Render(reason render.Reason, d viewport.Delta) {
	if w, h := p.layers.Size(); w != p.displayW || h != p.displayH {
		area := p.plotArea(p.displayW, p.displayH)
		p.layers.Resize(p.displayW, p.displayH, area)
		p.vp.Resize(area.Dx(), area.Dy())
		reason = render.Dirty
		Logger().Debug("resize", "width", p.displayW, "height", p.displayH)
	}

	switch {
	case reason == render.PerformTranslate && p.layers.Valid():
		p.layers.BlitShift(d.K, d.X, d.Y)
		p.drawOverlay()
	case reason == render.SelectionChanged && p.layers.Valid():
		p.drawOverlay()
	default:
		p.stats = p.drawData()
		p.drawOverlay()
		p.layers.SetValid(true)
	}
	if reason != render.SelectionChanged && p.hooks.RenderAxes != nil {
		p.hooks.RenderAxes(p.layout.transformedScales())
	}
	p.version++

	Logger().Debug("render", "reason", reason, "rendered", p.stats.Rendered,
		"aggregates", p.stats.AggregateNodes, "hidden_nodes", p.stats.HiddenNodes)
	if t := p.vp.Transform(); t != p.lastWindow {
		p.lastWindow = t
		p.bus.Emit(EventWindow, Event[T]{Name: EventWindow, Window: p.vp.Window()})
	}
	p.bus.Emit(EventRender, Event[T]{Name: EventRender, Reason: reason, Delta: d, Stats: p.stats})
}

func (p *Plot[T]) beginLayer(c *render.Canvas) *gg.Context {
	c.Clear()
	area := p.layers.Plot()
	c.Clip(area)
	c.Translate(float64(area.Min.X), float64(area.Min.Y))
	return c.Context()
}

func (p *Plot[T]) drawData() render.Stats {
	c := p.layers.Data()
	dc := p.beginLayer(c)
	defer c.ResetClip()
	return p.layout.drawData(dc)
}

func (p *Plot[T]) drawOverlay() {
	c := p.layers.Overlay()
	dc := p.beginLayer(c)
	defer c.ResetClip()

	if p.sel.Size() > 0 {
		style := p.primary.style()
		style.Color = p.opts.Selection.Color
		style.ColorOf = nil
		if p.opts.Selection.Size > 0 {
			style.Size = p.opts.Selection.Size
		} else {
			style.Size += 2
		}
		p.traverse(p.sel.Tree(), p.primary.fac(dc, style))
	}
	if l := p.ctrl.Lasso(); l.Len() > 0 {
		l.Draw(dc, p.opts.Lasso.Stroke, p.opts.Lasso.Fill)
	}
}

func (s series[T]) style() render.Style[T] {
	return render.Style[T]{Size: s.sym.Size, Color: s.sym.Color, ColorOf: s.sym.ColorOf}
}

func (p *Plot[T]) traverse(tree *quadtree.Tree[T], r render.Renderer[T]) render.Stats {
	nx, ny := p.vp.TransformedNormX(), p.vp.TransformedNormY()
	return render.Traverse(render.Pass[T]{
		Tree:      tree,
		Renderer:  r,
		X:         nx.Apply,
		Y:         ny.Apply,
		Visible:   render.Within(p.vp.Visible()),
		Aggregate: render.LevelOfDetail(nx.Apply, ny.Apply, p.opts.AggregationThreshold),
		Debug:     p.opts.Debug,
	})
}

func (p *Plot[T]) drawSeries(dc *gg.Context, s series[T]) render.Stats {
	return p.traverse(s.tree, s.fac(dc, s.style()))
}

// layout is the capability set that differs between single and dual axis
// plots.
type layout[T comparable] interface {
	transformedScales() Scales
	drawData(dc *gg.Context) render.Stats
	find(t hittest.Tester) []T
}

type singleAxis[T comparable] struct {
	p *Plot[T]
}

func (l singleAxis[T]) transformedScales() Scales {
	return Scales{X: l.p.vp.TransformedX(), Y: l.p.vp.TransformedY()}
}

func (l singleAxis[T]) drawData(dc *gg.Context) render.Stats {
	return l.p.drawSeries(dc, l.p.primary)
}

func (l singleAxis[T]) find(t hittest.Tester) []T {
	return hittest.Find(l.p.primary.tree, t)
}

// dualAxis overlays a secondary series with its own y domain.
type dualAxis[T comparable] struct {
	p *Plot[T]
}

func (l dualAxis[T]) transformedScales() Scales {
	return Scales{
		X:     l.p.vp.TransformedX(),
		Y:     l.p.vp.TransformedY(),
		Y2:    l.p.vp.TransformedY2(),
		HasY2: true,
	}
}

func (l dualAxis[T]) drawData(dc *gg.Context) render.Stats {
	st := l.p.drawSeries(dc, l.p.primary)
	if l.p.secondary.tree != nil {
		s2 := l.p.drawSeries(dc, l.p.secondary)
		st.Nodes += s2.Nodes
		st.Rendered += s2.Rendered
		st.Aggregated += s2.Aggregated
		st.AggregateNodes += s2.AggregateNodes
		st.Hidden += s2.Hidden
		st.HiddenNodes += s2.HiddenNodes
	}
	return st
}

func (l dualAxis[T]) find(t hittest.Tester) []T {
	out := hittest.Find(l.p.primary.tree, t)
	if l.p.secondary.tree != nil {
		out = append(out, hittest.Find(l.p.secondary.tree, t)...)
	}
	return out
}

// host adapts a plot to the controller.
type host[T comparable] struct {
	p *Plot[T]
}

func (h host[T]) Render(reason render.Reason, d viewport.Delta) {
	h.p.Render(reason, d)
}

// SelectWithTester hits the primary series only.
func (h host[T]) SelectWithTester(t hittest.Tester, op interact.Op, inProgress bool) bool {
	items := hittest.Find(h.p.primary.tree, t)
	if op == interact.Add {
		return h.p.sel.Add(items, inProgress)
	}
	return h.p.sel.Set(items, inProgress)
}

func (h host[T]) CommitSelection() {
	h.p.bus.Emit(EventSelection, Event[T]{Name: EventSelection, Selection: h.p.sel.Items()})
}

func (h host[T]) ShowTooltip(t hittest.Tester, px, py float64) {
	if h.p.hooks.ShowTooltip == nil {
		return
	}
	items := h.p.layout.find(t)
	if n := h.p.opts.TooltipLimit; n > 0 && len(items) > n {
		items = items[:n]
	}
	h.p.hooks.ShowTooltip(items, px, py)
}

func (h host[T]) HideTooltip() {
	if h.p.hooks.ShowTooltip != nil {
		h.p.hooks.ShowTooltip(nil, 0, 0)
	}
}

// Colors used by shells that draw their own chrome.
var (
	AxisColor = color.RGBA{90, 90, 90, 255}
	GridColor = color.RGBA{230, 230, 230, 255}
)
