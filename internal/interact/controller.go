// Package interact turns pointer input into viewport changes, selection
// requests and render passes.
package interact

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atlasmap-sc/scatter/internal/hittest"
	"github.com/atlasmap-sc/scatter/internal/lasso"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/sched"
	"github.com/atlasmap-sc/scatter/internal/viewport"
)

// Mods is a set of held modifier keys.
type Mods uint8

const (
	ModShift Mods = 1 << iota
	ModAlt
	ModCtrl
	ModMeta
)

var modNames = map[string]Mods{
	"shift": ModShift,
	"alt":   ModAlt,
	"ctrl":  ModCtrl,
	"meta":  ModMeta,
}

// ParseMods parses modifier names joined by "+" or ",", e.g. "shift+alt".
// The empty string is no modifier.
func ParseMods(s string) (Mods, error) {
	var m Mods
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' }) {
		bit, ok := modNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("interact: unknown modifier %q", name)
		}
		m |= bit
	}
	return m, nil
}

// Button identifies a pointer button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a pointer sample in plot-area pixels.
type PointerEvent struct {
	X, Y   float64
	Mods   Mods
	Button Button
}

// Op tells the host how to combine a hit test result with the selection.
type Op uint8

const (
	Replace Op = iota
	Add
)

// State is the gesture the controller is tracking.
type State uint8

const (
	Idle State = iota
	LassoDragging
	Zooming
)

func (s State) String() string {
	switch s {
	case LassoDragging:
		return "lasso"
	case Zooming:
		return "zooming"
	}
	return "idle"
}

// Host is the plot side of the controller.
type Host interface {
	// Render runs a render pass.
	Render(reason render.Reason, d viewport.Delta)
	// SelectWithTester applies the points accepted by t to the selection and
	// reports whether the selection changed.
	SelectWithTester(t hittest.Tester, op Op, inProgress bool) bool
	// CommitSelection announces the end of a lasso gesture.
	CommitSelection()
	ShowTooltip(t hittest.Tester, px, py float64)
	HideTooltip()
}

// Config tunes gesture handling. Zero fields take defaults.
type Config struct {
	Clock sched.Clock

	// SelectionModifier turns a drag into a lasso and a click into an
	// additive click.
	SelectionModifier Mods
	SelectionDisabled bool

	LassoInterval    time.Duration
	LassoMinDistance float64
	SettleDelay      time.Duration
	TooltipDelay     time.Duration
	TooltipDisabled  bool

	// ClickTolerance is how far in pixels a press may travel and still count
	// as a click.
	ClickTolerance float64
	// WheelBase is the zoom factor of one wheel step.
	WheelBase float64
}

// DefaultConfig returns the default gesture settings.
func DefaultConfig() Config {
	return Config{
		Clock:             sched.Real{},
		SelectionModifier: ModShift,
		LassoInterval:     100 * time.Millisecond,
		LassoMinDistance:  lasso.DefaultMinDistance,
		SettleDelay:       300 * time.Millisecond,
		TooltipDelay:      500 * time.Millisecond,
		ClickTolerance:    3,
		WheelBase:         1.25,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.SelectionModifier == 0 {
		c.SelectionModifier = d.SelectionModifier
	}
	if c.LassoInterval <= 0 {
		c.LassoInterval = d.LassoInterval
	}
	if c.LassoMinDistance <= 0 {
		c.LassoMinDistance = d.LassoMinDistance
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = d.SettleDelay
	}
	if c.TooltipDelay <= 0 {
		c.TooltipDelay = d.TooltipDelay
	}
	if c.ClickTolerance <= 0 {
		c.ClickTolerance = d.ClickTolerance
	}
	if c.WheelBase <= 1 {
		c.WheelBase = d.WheelBase
	}
}

// Controller is the gesture state machine. All methods must be called from
// the goroutine that runs the clock's callbacks.
type Controller struct {
	cfg   Config
	host  Host
	vp    *viewport.State
	lasso *lasso.Lasso
	state State

	lassoTick *sched.Interval
	settle    *sched.Task
	tooltip   *sched.Task

	// Kinds of change seen since the last settle render.
	scaled, translated bool

	downX, downY float64
	lastX, lastY float64
	pressed      bool
	moved        bool

	hoverX, hoverY float64
	tooltipShown   bool
}

// New returns an idle controller driving vp.
func New(vp *viewport.State, host Host, cfg Config) *Controller {
	cfg.applyDefaults()
	c := &Controller{
		cfg:   cfg,
		host:  host,
		vp:    vp,
		lasso: lasso.New(cfg.LassoMinDistance),
	}
	c.lassoTick = sched.NewInterval(cfg.Clock, cfg.LassoInterval, c.commitLasso)
	c.settle = sched.NewTask(cfg.Clock, c.settled)
	c.tooltip = sched.NewTask(cfg.Clock, c.showTooltip)
	return c
}

// State returns the current gesture.
func (c *Controller) State() State { return c.state }

// Viewport returns the transform state the controller drives.
func (c *Controller) Viewport() *viewport.State { return c.vp }

// Lasso returns the lasso of the current gesture.
func (c *Controller) Lasso() *lasso.Lasso { return c.lasso }

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) selecting(mods Mods) bool {
	return !c.cfg.SelectionDisabled && mods&c.cfg.SelectionModifier != 0
}

// PointerDown starts a lasso when the selection modifier is held and a pan
// otherwise.
func (c *Controller) PointerDown(ev PointerEvent) {
	c.cancelTooltip()
	c.pressed, c.moved = true, false
	c.downX, c.downY = ev.X, ev.Y
	c.lastX, c.lastY = ev.X, ev.Y

	switch {
	case c.selecting(ev.Mods):
		c.state = LassoDragging
		c.lasso.Start(ev.X, ev.Y)
		c.lassoTick.Start()
		render.Logger().Debug("lasso start", "x", ev.X, "y", ev.Y)
	case c.vp.Axes() != viewport.ZoomNone:
		c.state = Zooming
	default:
		c.state = Idle
	}
}

// PointerMove feeds the active gesture, or arms the hover tooltip when no
// button is held.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.pressed && math.Hypot(ev.X-c.downX, ev.Y-c.downY) > c.cfg.ClickTolerance {
		c.moved = true
	}
	switch c.state {
	case LassoDragging:
		c.lasso.Move(ev.X, ev.Y)
	case Zooming:
		dx, dy := ev.X-c.lastX, ev.Y-c.lastY
		c.lastX, c.lastY = ev.X, ev.Y
		c.apply(c.vp.PanBy(dx, dy))
	default:
		if !c.pressed {
			c.hover(ev)
		}
	}
}

// PointerUp ends the gesture. A press that did not travel is a click.
func (c *Controller) PointerUp(ev PointerEvent) {
	if !c.pressed {
		return
	}
	c.PointerMove(ev)
	state, moved := c.state, c.moved
	c.pressed, c.moved = false, false
	c.state = Idle

	if state == LassoDragging {
		c.lassoTick.Stop()
		if moved {
			c.lasso.End()
			t := c.lasso.Tester(c.vp.PixelToNormalized)
			c.lasso.Reset()
			// A changed selection notifies and redraws on its own.
			if t == nil || !c.host.SelectWithTester(t, Replace, false) {
				c.host.CommitSelection()
				c.host.Render(render.SelectionChanged, noDelta)
			}
			render.Logger().Debug("lasso end")
			return
		}
		c.lasso.Reset()
	}
	if !moved && !c.cfg.SelectionDisabled {
		op := Replace
		if c.selecting(ev.Mods) {
			op = Add
		}
		c.Click(ev.X, ev.Y, op)
	}
}

// Leave hides the tooltip and abandons hover.
func (c *Controller) Leave() {
	c.cancelTooltip()
}

// Wheel zooms by WheelBase^steps around the pointer. Positive steps zoom
// in. Wheel input is ignored while the selection modifier is held.
func (c *Controller) Wheel(ev PointerEvent, steps float64) {
	if c.selecting(ev.Mods) {
		return
	}
	c.cancelTooltip()
	c.apply(c.vp.ZoomAt(math.Pow(c.cfg.WheelBase, steps), ev.X, ev.Y))
}

// ZoomBy zooms by factor around the plot pixel (px, py).
func (c *Controller) ZoomBy(factor, px, py float64) viewport.Delta {
	d := c.vp.ZoomAt(factor, px, py)
	c.apply(d)
	return d
}

// PanBy translates the view by (dx, dy) pixels.
func (c *Controller) PanBy(dx, dy float64) viewport.Delta {
	d := c.vp.PanBy(dx, dy)
	c.apply(d)
	return d
}

// SetWindow zooms to the data rectangle w with a single settle render.
func (c *Controller) SetWindow(w viewport.Window) viewport.Delta {
	d := c.vp.SetWindow(w)
	c.jump(d)
	return d
}

// Reset returns to the identity transform with a single full render.
func (c *Controller) Reset() viewport.Delta {
	d := c.vp.Reset()
	c.jump(d)
	return d
}

func (c *Controller) jump(d viewport.Delta) {
	if d.Kind == viewport.NoChange {
		return
	}
	c.settle.Cancel()
	c.scaled, c.translated = false, false
	c.host.Render(render.AfterScaleAndTranslate, d)
}

// apply renders an in-gesture change and pushes the settle render back.
func (c *Controller) apply(d viewport.Delta) {
	reason, ok := render.PerformReason(d.Kind)
	if !ok {
		return
	}
	c.scaled = c.scaled || d.Kind != viewport.Translate
	c.translated = c.translated || d.Kind != viewport.Scale
	c.host.Render(reason, d)
	c.settle.Schedule(c.cfg.SettleDelay)
}

func (c *Controller) settled() {
	reason, ok := render.AfterReason(c.scaled, c.translated)
	c.scaled, c.translated = false, false
	if ok {
		c.host.Render(reason, noDelta)
	}
}

var noDelta = viewport.Delta{K: 1}

// Click selects the points under an ellipse of the click radius at (px, py).
func (c *Controller) Click(px, py float64, op Op) bool {
	nx, ny := c.vp.PixelToNormalized(px, py)
	rx, ry := c.vp.ClickRadius()
	return c.host.SelectWithTester(hittest.Ellipse{CX: nx, CY: ny, RX: rx, RY: ry}, op, false)
}

// RetestLasso replaces the selection with the points inside the lasso. It
// returns false without touching the selection when the lasso has fewer
// than three points.
func (c *Controller) RetestLasso(inProgress bool) bool {
	t := c.lasso.Tester(c.vp.PixelToNormalized)
	if t == nil {
		return false
	}
	return c.host.SelectWithTester(t, Replace, inProgress)
}

func (c *Controller) commitLasso() {
	if !c.lasso.Commit() {
		return
	}
	if !c.RetestLasso(true) {
		// Selection unchanged; the outline still grew.
		c.host.Render(render.SelectionChanged, noDelta)
	}
}

func (c *Controller) hover(ev PointerEvent) {
	if c.cfg.TooltipDisabled {
		return
	}
	if c.tooltipShown {
		c.tooltipShown = false
		c.host.HideTooltip()
	}
	c.hoverX, c.hoverY = ev.X, ev.Y
	c.tooltip.Schedule(c.cfg.TooltipDelay)
}

func (c *Controller) showTooltip() {
	nx, ny := c.vp.PixelToNormalized(c.hoverX, c.hoverY)
	rx, ry := c.vp.ClickRadius()
	c.tooltipShown = true
	c.host.ShowTooltip(hittest.Ellipse{CX: nx, CY: ny, RX: rx, RY: ry}, c.hoverX, c.hoverY)
}

func (c *Controller) cancelTooltip() {
	c.tooltip.Cancel()
	if c.tooltipShown {
		c.tooltipShown = false
		c.host.HideTooltip()
	}
}

// Stop cancels every pending timer.
func (c *Controller) Stop() {
	c.lassoTick.Stop()
	c.settle.Cancel()
	c.tooltip.Cancel()
	c.lasso.Reset()
	c.state = Idle
	c.pressed = false
}
