package viewport

import (
	"math"
	"testing"
)

const tol = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < tol }

func newState(axes Axes) *State {
	return New(Config{
		Width: 400, Height: 200,
		XDomain: [2]float64{-10, 30}, YDomain: [2]float64{0, 5},
		Axes:        axes,
		ScaleExtent: [2]float64{1, 50},
		ClickRadius: 4,
	})
}

func TestWindow_Identity(t *testing.T) {
	s := newState(ZoomXY)
	w := s.Window()
	if !near(w.X0, -10) || !near(w.X1, 30) || !near(w.Y0, 0) || !near(w.Y1, 5) {
		t.Errorf("unexpected identity window %+v", w)
	}
}

func TestWindow_RoundTrip(t *testing.T) {
	t.Run("x only", func(t *testing.T) {
		s := newState(ZoomX)
		want := Window{X0: 2, X1: 7, Y0: 0, Y1: 5}
		s.SetWindow(want)
		got := s.Window()
		if !near(got.X0, want.X0) || !near(got.X1, want.X1) || !near(got.Y0, 0) || !near(got.Y1, 5) {
			t.Errorf("window = %+v, want %+v", got, want)
		}
	})

	t.Run("y only", func(t *testing.T) {
		s := newState(ZoomY)
		want := Window{X0: -10, X1: 30, Y0: 1, Y1: 1.5}
		s.SetWindow(want)
		got := s.Window()
		if !near(got.Y0, want.Y0) || !near(got.Y1, want.Y1) || !near(got.X0, -10) {
			t.Errorf("window = %+v, want %+v", got, want)
		}
	})

	t.Run("xy proportional", func(t *testing.T) {
		s := newState(ZoomXY)
		// A quarter of each domain keeps the plot's aspect.
		want := Window{X0: 5, X1: 15, Y0: 2, Y1: 3.25}
		s.SetWindow(want)
		got := s.Window()
		if !near(got.X0, want.X0) || !near(got.X1, want.X1) || !near(got.Y0, want.Y0) || !near(got.Y1, want.Y1) {
			t.Errorf("window = %+v, want %+v", got, want)
		}
	})

	t.Run("xy contains request", func(t *testing.T) {
		s := newState(ZoomXY)
		want := Window{X0: 0, X1: 2, Y0: 1, Y1: 4}
		s.SetWindow(want)
		got := s.Window()
		if got.X0 > want.X0+tol || got.X1 < want.X1-tol || got.Y0 > want.Y0+tol || got.Y1 < want.Y1-tol {
			t.Errorf("window %+v does not contain %+v", got, want)
		}
		if !near(got.Y0, want.Y0) || !near(got.Y1, want.Y1) {
			t.Errorf("limiting axis should match exactly, got %+v", got)
		}
	})
}

func TestClickRadius_ScalesWithZoom(t *testing.T) {
	s := newState(ZoomXY)
	rx1, ry1 := s.ClickRadius()
	s.SetTransform(Transform{K: 2})
	rx2, ry2 := s.ClickRadius()
	if !near(rx2, rx1/2) || !near(ry2, ry1/2) {
		t.Errorf("radius at k=2 = (%v,%v), want half of (%v,%v)", rx2, ry2, rx1, ry1)
	}
	// 400px over 100 normalized units.
	if !near(rx1, 1) || !near(ry1, 2) {
		t.Errorf("unexpected radius at k=1 (%v,%v)", rx1, ry1)
	}

	x := newState(ZoomX)
	x.SetTransform(Transform{K: 2})
	if _, ry := x.ClickRadius(); !near(ry, 2) {
		t.Errorf("y radius should ignore zoom on x-only plots, got %v", ry)
	}
}

func TestConstrain(t *testing.T) {
	s := newState(ZoomXY)
	got := s.Constrain(Transform{K: 2, X: 50, Y: -1000})
	if got.X != 0 {
		t.Errorf("X = %v, want 0", got.X)
	}
	if !near(got.Y, -200) {
		t.Errorf("Y = %v, want -200", got.Y)
	}
	if k := s.Constrain(Transform{K: 500}).K; k != 50 {
		t.Errorf("K = %v, want 50", k)
	}
	if k := s.Constrain(Transform{K: 0.1}).K; k != 1 {
		t.Errorf("K = %v, want 1", k)
	}
	if got := newState(ZoomNone).Constrain(Transform{K: 3, X: 4}); got != Identity {
		t.Errorf("none axes should force identity, got %+v", got)
	}
}

func TestZoomAt_KeepsPointerFixed(t *testing.T) {
	s := newState(ZoomXY)
	nx, ny := s.PixelToNormalized(100, 50)
	d := s.ZoomAt(2, 100, 50)
	if d.Kind != ScaleAndTranslate {
		t.Errorf("Kind = %v", d.Kind)
	}
	gx, gy := s.PixelToNormalized(100, 50)
	if !near(nx, gx) || !near(ny, gy) {
		t.Errorf("pointer moved from (%v,%v) to (%v,%v)", nx, ny, gx, gy)
	}
}

func TestPanBy(t *testing.T) {
	s := newState(ZoomXY)
	s.SetTransform(Transform{K: 4, X: -600, Y: -300})

	d := s.PanBy(5, 0)
	if d.Kind != Translate || !near(d.X, 5) || d.Y != 0 || d.K != 1 {
		t.Errorf("unexpected delta %+v", d)
	}

	x := newState(ZoomX)
	x.SetTransform(Transform{K: 4, X: -600})
	if d := x.PanBy(0, 7); d.Kind != NoChange {
		t.Errorf("y pan on x-only plot changed the transform: %+v", d)
	}
}

func TestVisible(t *testing.T) {
	s := newState(ZoomXY)
	v := s.Visible()
	if v != s.Extent() {
		t.Errorf("identity visible %+v, want %+v", v, s.Extent())
	}
	s.SetTransform(Transform{K: 2})
	v = s.Visible()
	if !near(v.X0, 0) || !near(v.X1, 50) || !near(v.Y0, 50) || !near(v.Y1, 100) {
		t.Errorf("zoomed visible %+v", v)
	}
}

func TestNormalize(t *testing.T) {
	s := newState(ZoomXY)
	if got := s.NormalizeX(10); !near(got, 50) {
		t.Errorf("NormalizeX = %v", got)
	}
	px, py := s.NormalizedToPixel(s.NormalizeX(30), s.NormalizeY(5))
	if !near(px, 400) || !near(py, 0) {
		t.Errorf("corner maps to (%v,%v)", px, py)
	}
}

func TestRescale_UnknownAxisPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	newState(ZoomXY).Rescale(Axis(9), newState(ZoomXY).XScale())
}

func TestResize(t *testing.T) {
	s := newState(ZoomXY)
	if s.Resize(400, 200) {
		t.Error("same size reported as change")
	}
	if !s.Resize(800, 200) {
		t.Error("new size not reported")
	}
	if w, _ := s.Size(); w != 800 {
		t.Errorf("width = %d", w)
	}
}

func TestParseAxes(t *testing.T) {
	for in, want := range map[string]Axes{"x": ZoomX, "Y": ZoomY, "xy": ZoomXY, "none": ZoomNone, "": ZoomNone} {
		got, err := ParseAxes(in)
		if err != nil || got != want {
			t.Errorf("ParseAxes(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAxes("z"); err == nil {
		t.Error("expected error")
	}
}
