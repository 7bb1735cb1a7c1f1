package interact

import (
	"testing"
	"time"

	"github.com/atlasmap-sc/scatter/internal/hittest"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/sched"
	"github.com/atlasmap-sc/scatter/internal/viewport"
)

type selectCall struct {
	tester     hittest.Tester
	op         Op
	inProgress bool
}

type fakeHost struct {
	renders  []render.Reason
	deltas   []viewport.Delta
	selects  []selectCall
	commits  int
	tooltips int
	hides    int
	changed  bool
}

func (h *fakeHost) Render(r render.Reason, d viewport.Delta) {
	h.renders = append(h.renders, r)
	h.deltas = append(h.deltas, d)
}

func (h *fakeHost) SelectWithTester(t hittest.Tester, op Op, inProgress bool) bool {
	h.selects = append(h.selects, selectCall{t, op, inProgress})
	return h.changed
}

func (h *fakeHost) CommitSelection()                             { h.commits++ }
func (h *fakeHost) ShowTooltip(t hittest.Tester, px, py float64) { h.tooltips++ }
func (h *fakeHost) HideTooltip()                                 { h.hides++ }

func (h *fakeHost) count(r render.Reason) int {
	n := 0
	for _, got := range h.renders {
		if got == r {
			n++
		}
	}
	return n
}

func setup(t *testing.T) (*Controller, *fakeHost, *sched.ManualClock) {
	t.Helper()
	clock := sched.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	vp := viewport.New(viewport.Config{
		Width: 200, Height: 200,
		XDomain: [2]float64{0, 1}, YDomain: [2]float64{0, 1},
		Axes:        viewport.ZoomXY,
		ClickRadius: 5,
	})
	host := &fakeHost{}
	c := New(vp, host, Config{Clock: clock})
	return c, host, clock
}

func TestPan_BlitThenSingleSettle(t *testing.T) {
	c, host, clock := setup(t)
	c.Viewport().SetTransform(viewport.Transform{K: 2, X: -100, Y: -100})

	c.PointerDown(PointerEvent{X: 50, Y: 50, Button: ButtonLeft})
	if c.State() != Zooming {
		t.Fatalf("state = %v, want zooming", c.State())
	}
	c.PointerMove(PointerEvent{X: 55, Y: 50, Button: ButtonLeft})
	c.PointerUp(PointerEvent{X: 55, Y: 50, Button: ButtonLeft})

	if len(host.renders) != 1 || host.renders[0] != render.PerformTranslate {
		t.Fatalf("renders = %v, want [PERFORM_TRANSLATE]", host.renders)
	}
	if d := host.deltas[0]; d.X != 5 || d.Y != 0 || d.K != 1 {
		t.Errorf("delta = %+v", d)
	}
	if len(host.selects) != 0 {
		t.Error("a drag was treated as a click")
	}

	clock.Advance(299 * time.Millisecond)
	if len(host.renders) != 1 {
		t.Fatalf("settle render before the delay: %v", host.renders)
	}
	clock.Advance(time.Millisecond)
	clock.Advance(time.Second)
	if host.count(render.AfterTranslate) != 1 || len(host.renders) != 2 {
		t.Errorf("renders = %v, want one AFTER_TRANSLATE", host.renders)
	}
}

func TestPan_BurstCollapses(t *testing.T) {
	c, host, clock := setup(t)
	c.Viewport().SetTransform(viewport.Transform{K: 4, X: -300, Y: -300})

	c.PointerDown(PointerEvent{X: 100, Y: 100})
	for i := 1; i <= 5; i++ {
		c.PointerMove(PointerEvent{X: 100 + float64(i)*4, Y: 100})
		clock.Advance(100 * time.Millisecond)
	}
	c.PointerUp(PointerEvent{X: 120, Y: 100})
	clock.Advance(time.Second)

	if got := host.count(render.PerformTranslate); got != 5 {
		t.Errorf("PERFORM_TRANSLATE renders = %d, want 5", got)
	}
	if got := host.count(render.AfterTranslate); got != 1 {
		t.Errorf("AFTER_TRANSLATE renders = %d, want 1", got)
	}
}

func TestWheel_ScaleSettle(t *testing.T) {
	c, host, clock := setup(t)
	c.Wheel(PointerEvent{X: 40, Y: 60}, 1)
	c.Wheel(PointerEvent{X: 40, Y: 60}, 1)
	clock.Advance(time.Second)

	if host.count(render.PerformScaleAndTranslate) != 2 {
		t.Errorf("renders = %v", host.renders)
	}
	if host.count(render.AfterScaleAndTranslate) != 1 {
		t.Errorf("renders = %v, want one AFTER_SCALE_AND_TRANSLATE", host.renders)
	}
	if k := c.Viewport().Transform().K; k != 1.25*1.25 {
		t.Errorf("k = %v", k)
	}

	c.Wheel(PointerEvent{X: 40, Y: 60, Mods: ModShift}, 1)
	if k := c.Viewport().Transform().K; k != 1.25*1.25 {
		t.Error("wheel zoomed while the selection modifier was held")
	}
}

func TestLasso(t *testing.T) {
	c, host, clock := setup(t)

	c.PointerDown(PointerEvent{X: 10, Y: 10, Mods: ModShift})
	if c.State() != LassoDragging {
		t.Fatalf("state = %v, want lasso", c.State())
	}
	c.PointerMove(PointerEvent{X: 150, Y: 10, Mods: ModShift})
	clock.Advance(100 * time.Millisecond)

	// Two points cannot enclose anything.
	if c.RetestLasso(true) {
		t.Error("RetestLasso with two points reported a change")
	}
	if len(host.selects) != 0 {
		t.Fatalf("selection touched with a two-point lasso: %d calls", len(host.selects))
	}
	if host.count(render.SelectionChanged) != 1 {
		t.Errorf("lasso outline not redrawn: %v", host.renders)
	}

	c.PointerMove(PointerEvent{X: 150, Y: 150, Mods: ModShift})
	clock.Advance(100 * time.Millisecond)
	if len(host.selects) != 1 || !host.selects[0].inProgress {
		t.Fatalf("expected one in-progress retest, got %+v", host.selects)
	}

	c.PointerUp(PointerEvent{X: 10, Y: 150, Mods: ModShift})
	if c.State() != Idle {
		t.Errorf("state = %v after up", c.State())
	}
	last := host.selects[len(host.selects)-1]
	if last.inProgress || last.op != Replace {
		t.Errorf("final retest = %+v", last)
	}
	if _, ok := last.tester.(*hittest.Polygon); !ok {
		t.Errorf("final tester is %T", last.tester)
	}
	if host.commits != 1 {
		t.Errorf("commits = %d", host.commits)
	}
	if c.Lasso().Len() != 0 {
		t.Error("lasso path kept after the gesture")
	}

	n := len(host.selects)
	clock.Advance(time.Second)
	if len(host.selects) != n {
		t.Error("lasso interval still running after the gesture")
	}
}

func TestLasso_ChangedSelectionNotCommittedTwice(t *testing.T) {
	c, host, clock := setup(t)
	host.changed = true

	c.PointerDown(PointerEvent{X: 10, Y: 10, Mods: ModShift})
	c.PointerMove(PointerEvent{X: 150, Y: 10, Mods: ModShift})
	clock.Advance(100 * time.Millisecond)
	redraws := host.count(render.SelectionChanged)

	// The third vertex only arrives with the release.
	c.PointerUp(PointerEvent{X: 150, Y: 150, Mods: ModShift})

	if len(host.selects) != 1 || host.selects[0].inProgress {
		t.Fatalf("selects = %+v, want one final retest", host.selects)
	}
	if host.commits != 0 {
		t.Errorf("commits = %d, want 0 after a changing retest", host.commits)
	}
	if got := host.count(render.SelectionChanged); got != redraws {
		t.Errorf("extra overlay redraws after up: %d -> %d", redraws, got)
	}
	if c.Lasso().Len() != 0 {
		t.Error("lasso path kept after the gesture")
	}
}

func TestClick(t *testing.T) {
	c, host, _ := setup(t)

	c.PointerDown(PointerEvent{X: 99, Y: 100})
	c.PointerUp(PointerEvent{X: 100, Y: 100})
	if len(host.selects) != 1 {
		t.Fatalf("selects = %d, want 1", len(host.selects))
	}
	e, ok := host.selects[0].tester.(hittest.Ellipse)
	if !ok {
		t.Fatalf("tester is %T", host.selects[0].tester)
	}
	if e.CX != 50 || e.CY != 50 || e.RX != 2.5 || e.RY != 2.5 {
		t.Errorf("ellipse = %+v", e)
	}
	if host.selects[0].op != Replace {
		t.Error("plain click should replace")
	}

	c.PointerDown(PointerEvent{X: 20, Y: 20, Mods: ModShift})
	c.PointerUp(PointerEvent{X: 20, Y: 20, Mods: ModShift})
	if len(host.selects) != 2 || host.selects[1].op != Add {
		t.Errorf("modifier click should add, got %+v", host.selects)
	}
	if host.commits != 0 {
		t.Error("a click committed a lasso")
	}
}

func TestClick_SelectionDisabled(t *testing.T) {
	clock := sched.NewManualClock(time.Time{})
	vp := viewport.New(viewport.Config{Width: 10, Height: 10, XDomain: [2]float64{0, 1}, YDomain: [2]float64{0, 1}})
	host := &fakeHost{}
	c := New(vp, host, Config{Clock: clock, SelectionDisabled: true})

	c.PointerDown(PointerEvent{X: 5, Y: 5, Mods: ModShift})
	if c.State() != Idle {
		t.Errorf("state = %v on a plot without zoom or selection", c.State())
	}
	c.PointerUp(PointerEvent{X: 5, Y: 5})
	if len(host.selects) != 0 {
		t.Error("selection disabled but click selected")
	}
}

func TestTooltip(t *testing.T) {
	c, host, clock := setup(t)
	c.PointerMove(PointerEvent{X: 30, Y: 30})
	clock.Advance(400 * time.Millisecond)
	c.PointerMove(PointerEvent{X: 32, Y: 30})
	clock.Advance(400 * time.Millisecond)
	if host.tooltips != 0 {
		t.Fatal("tooltip shown while the pointer was moving")
	}
	clock.Advance(100 * time.Millisecond)
	if host.tooltips != 1 {
		t.Fatalf("tooltips = %d, want 1", host.tooltips)
	}
	c.PointerDown(PointerEvent{X: 32, Y: 30})
	if host.hides != 1 {
		t.Errorf("hides = %d, want 1", host.hides)
	}
}

func TestResetAndWindow(t *testing.T) {
	c, host, clock := setup(t)
	if d := c.Reset(); d.Kind != viewport.NoChange || len(host.renders) != 0 {
		t.Error("reset at identity rendered")
	}
	c.SetWindow(viewport.Window{X0: 0.25, X1: 0.75, Y0: 0.25, Y1: 0.75})
	if host.count(render.AfterScaleAndTranslate) != 1 {
		t.Errorf("renders = %v", host.renders)
	}
	c.Reset()
	clock.Advance(time.Second)
	if len(host.renders) != 2 {
		t.Errorf("renders = %v, want two settle renders", host.renders)
	}
	if c.Viewport().Transform() != viewport.Identity {
		t.Error("reset did not restore identity")
	}
}

func TestParseMods(t *testing.T) {
	m, err := ParseMods("Shift+alt")
	if err != nil {
		t.Fatalf("ParseMods failed: %v", err)
	}
	if m != ModShift|ModAlt {
		t.Errorf("got %b, want shift|alt", m)
	}
	if m, _ := ParseMods(""); m != 0 {
		t.Errorf("empty string parsed as %b", m)
	}
	if _, err := ParseMods("hyper"); err == nil {
		t.Error("expected an error for an unknown modifier")
	}
}
