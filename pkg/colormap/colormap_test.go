package colormap

import (
	"image/color"
	"testing"
)

func TestRampEndpoints(t *testing.T) {
	t.Parallel()

	grey := color.RGBA{R: 211, G: 211, B: 211, A: 255}
	red := color.RGBA{R: 255, A: 255}
	if got := GreyRed.At(0); got != grey {
		t.Fatalf("GreyRed.At(0) = %#v", got)
	}
	if got := GreyRed.At(1); got != red {
		t.Fatalf("GreyRed.At(1) = %#v", got)
	}
	if got := GreyRed.At(-3); got != grey {
		t.Errorf("At below range = %#v", got)
	}
	if got := GreyRed.At(7); got != red {
		t.Errorf("At above range = %#v", got)
	}
}

func TestRampInterpolates(t *testing.T) {
	t.Parallel()

	r := NewRamp(color.RGBA{A: 255}, color.RGBA{R: 200, G: 100, A: 255})
	got := r.At(0.5).(color.RGBA)
	if got.R < 99 || got.R > 101 || got.G < 49 || got.G > 51 {
		t.Errorf("midpoint = %#v", got)
	}
	if rev := r.Reversed().At(0); rev != (color.RGBA{R: 200, G: 100, A: 255}) {
		t.Errorf("reversed start = %#v", rev)
	}
}

func TestParseHex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#ff8000", color.RGBA{255, 128, 0, 255}, true},
		{"0a0b0c", color.RGBA{10, 11, 12, 255}, true},
		{"#fff", color.RGBA{255, 255, 255, 255}, true},
		{"#ff80", color.RGBA{}, false},
		{"#gggggg", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseHex(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	c, ok := Lookup(" Viridis ")
	if !ok {
		t.Fatal("expected viridis to be registered")
	}
	if c.At(0) != Viridis.At(0) {
		t.Errorf("Lookup returned a different palette")
	}
	rev, ok := Lookup("viridis_r")
	if !ok || rev.At(0) != Viridis.At(1) {
		t.Errorf("viridis_r does not start at the end of viridis")
	}
	if _, ok := Lookup("categorical_r"); ok {
		t.Error("categorical palettes cannot be reversed")
	}
	if _, ok := Lookup("rainbow"); ok {
		t.Error("unexpected palette rainbow")
	}
	names := Names()
	if len(names) != 6 || names[0] != "categorical" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestCategoricalWraps(t *testing.T) {
	t.Parallel()

	if Categorical.AtIndex(0) != Categorical.AtIndex(20) {
		t.Error("AtIndex should wrap after 20 colours")
	}
	if Categorical.AtIndex(-1) != Categorical.AtIndex(19) {
		t.Error("negative indices should wrap")
	}
	if got := Normalize(5, 5, 5); got != 0 {
		t.Errorf("Normalize on empty range = %v", got)
	}
}
