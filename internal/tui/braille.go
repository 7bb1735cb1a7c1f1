package tui

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"
)

// dotBits maps a micro-pixel inside a 2x4 cell to its braille bit.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// litThreshold is the summed RGB distance from the background above which
// a micro-pixel is drawn.
const litThreshold = 96

type brailleBuf struct {
	w, h int          // in cells
	m    [][]uint8    // per-cell 8-bit mask
	c    [][]colorSum // per-cell colour of the lit dots
}

type colorSum struct {
	r, g, b, n int
}

func (s colorSum) hex() string {
	if s.n == 0 {
		return ""
	}
	return "#" + hexByte(s.r/s.n) + hexByte(s.g/s.n) + hexByte(s.b/s.n)
}

func hexByte(v int) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4&0xf], digits[v&0xf]})
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	c := make([][]colorSum, h)
	for i := range m {
		m[i] = make([]uint8, w)
		c[i] = make([]colorSum, w)
	}
	return &brailleBuf{w: w, h: h, m: m, c: c}
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int, col color.RGBA) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBits[rx][ry]
	s := &b.c[cy][cx]
	s.r += int(col.R)
	s.g += int(col.G)
	s.b += int(col.B)
	s.n++
}

// fromImage samples img onto a w x h cell grid. img is scaled to the
// micro-pixel grid first when the sizes differ.
func fromImage(img *image.RGBA, w, h int, bg color.Color) *brailleBuf {
	b := newBrailleBuf(w, h)
	if w <= 0 || h <= 0 || img == nil {
		return b
	}
	src := img
	if img.Rect.Dx() != w*2 || img.Rect.Dy() != h*4 {
		src = image.NewRGBA(image.Rect(0, 0, w*2, h*4))
		xdraw.ApproxBiLinear.Scale(src, src.Rect, img, img.Rect, xdraw.Src, nil)
	}
	br, bgG, bb, _ := bg.RGBA()
	for my := 0; my < h*4; my++ {
		for mx := 0; mx < w*2; mx++ {
			px := src.RGBAAt(src.Rect.Min.X+mx, src.Rect.Min.Y+my)
			d := absDiff(int(px.R), int(br>>8)) + absDiff(int(px.G), int(bgG>>8)) + absDiff(int(px.B), int(bb>>8))
			if d > litThreshold {
				b.setPixel(mx, my, px)
			}
		}
	}
	return b
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// toLines renders each row, grouping runs of one colour into a single
// styled span.
func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var (
			sb    strings.Builder
			run   []rune
			runFg string
		)
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runFg == "" {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runFg)).Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			r, fg := ' ', ""
			if mask != 0 {
				r, fg = rune(0x2800+int(mask)), b.c[y][x].hex()
			}
			if fg != runFg && mask != 0 {
				flush()
				runFg = fg
			}
			run = append(run, r)
		}
		flush()
		out[y] = sb.String()
	}
	return out
}
