package tui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/service"
)

func TestBrailleBuf_SetPixel(t *testing.T) {
	b := newBrailleBuf(2, 1)
	black := color.RGBA{0, 0, 0, 255}
	b.setPixel(0, 0, black)
	b.setPixel(1, 3, black)
	b.setPixel(2, 0, black)
	b.setPixel(9, 9, black) // out of range

	if b.m[0][0] != 0x01|0x80 {
		t.Errorf("cell 0 mask = %#x", b.m[0][0])
	}
	if b.m[0][1] != 0x01 {
		t.Errorf("cell 1 mask = %#x", b.m[0][1])
	}
	lines := b.toLines()
	if len(lines) != 1 || !strings.ContainsRune(lines[0], rune(0x2800+0x81)) {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	red := color.RGBA{255, 0, 0, 255}
	img.SetRGBA(3, 5, red)

	b := fromImage(img, 2, 2, color.White)
	if b.m[0][0] != 0 || b.m[0][1] != 0 || b.m[1][0] != 0 {
		t.Error("expected blank cells away from the point")
	}
	// (3, 5) is dot (1, 1) of cell (1, 1).
	if b.m[1][1] != 0x10 {
		t.Errorf("cell mask = %#x, want 0x10", b.m[1][1])
	}
	if got := b.c[1][1].hex(); got != "#ff0000" {
		t.Errorf("cell colour = %s", got)
	}
}

func TestFromImage_Downsamples(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 0xff
	}
	b := fromImage(img, 2, 2, color.White)
	for y := range b.m {
		for x := range b.m[y] {
			if b.m[y][x] != 0xff {
				t.Errorf("cell (%d,%d) mask = %#x, want full", x, y, b.m[y][x])
			}
		}
	}
}

func TestDescribe(t *testing.T) {
	ds, err := dataset.Read(strings.NewReader("x,y,name\n1,2,a\n3,4,\n5,6,c\n7,8,d\n"), dataset.Columns{Label: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if got := describe(ds, nil); got != "" {
		t.Errorf("describe(nil) = %q", got)
	}
	if got := describe(ds, []int{1}); got != "#1 (3, 4)" {
		t.Errorf("describe([1]) = %q", got)
	}
	got := describe(ds, []int{0, 1, 2, 3})
	if !strings.HasPrefix(got, "a (1, 2)") || !strings.HasSuffix(got, "+1 more") {
		t.Errorf("describe(all) = %q", got)
	}
}

func TestMods(t *testing.T) {
	if got := mods(tea.MouseMsg{Shift: true, Ctrl: true}); got != "shift+ctrl" {
		t.Errorf("mods = %q", got)
	}
	if got := mods(tea.MouseMsg{}); got != "" {
		t.Errorf("mods = %q", got)
	}
}

func newModel(t *testing.T) Model {
	t.Helper()
	var b strings.Builder
	b.WriteString("x,y\n")
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&b, "%d,%d\n", i, j)
		}
	}
	ds, err := dataset.Read(strings.NewReader(b.String()), dataset.Columns{})
	if err != nil {
		t.Fatal(err)
	}
	ds.ID = "grid"
	cfg := config.DefaultConfig().Plot
	cfg.Margins = config.MarginsConfig{Top: 1, Right: 1, Bottom: 1, Left: 1}
	s, err := service.NewSession(service.SessionConfig{ID: "tui", Dataset: ds, Plot: cfg})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return New(s, Options{Scale: 2})
}

func TestModel_ResizeAndZoom(t *testing.T) {
	m := newModel(t)
	next, cmd := m.Update(tea.WindowSizeMsg{Width: 40, Height: 23})
	m = next.(Model)
	if m.cols != 40 || m.rows != 20 {
		t.Fatalf("grid = %dx%d, want 40x20", m.cols, m.rows)
	}
	if cmd == nil {
		t.Fatal("expected a snapshot command")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.frame == nil || m.frame.w != 40 || m.frame.h != 20 {
		t.Fatalf("unexpected frame %+v", m.frame)
	}
	if m.area.Dx() != 40*2*2-2 {
		t.Errorf("plot area = %v", m.area)
	}

	before, _ := m.session.Window(context.Background())
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	m = next.(Model)
	if m.err != nil {
		t.Fatal(m.err)
	}
	after, _ := m.session.Window(context.Background())
	if after.X1-after.X0 >= before.X1-before.X0 {
		t.Errorf("zoom key did not narrow the window: %+v -> %+v", before, after)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(Model)
	if w, _ := m.session.Window(context.Background()); w != before {
		t.Errorf("reset window %+v, want %+v", w, before)
	}
}

func TestModel_ToPlot(t *testing.T) {
	m := newModel(t)
	m.cols, m.rows = 10, 5
	m.area = image.Rect(1, 1, 39, 39)

	x, y, inside := m.toPlot(0, headerHeight)
	if !inside || x != 1 || y != 3 {
		t.Errorf("toPlot(0, header) = %v, %v, %v", x, y, inside)
	}
	if _, _, inside := m.toPlot(3, 0); inside {
		t.Error("header row should be outside the plot")
	}
	if _, _, inside := m.toPlot(10, 2); inside {
		t.Error("column past the grid should be outside the plot")
	}
}

func TestModel_Quit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if _, ok := <-m.notes; ok {
		t.Error("expected the subscription to end on quit")
	}
}
