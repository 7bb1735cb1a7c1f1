// Package tui is a terminal front end for a scatter session. The plot is
// drawn with braille cells, two by four dots each.
package tui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/service"
)

const (
	headerHeight = 1
	footerHeight = 2

	zoomStep = 1.5
	panStep  = 0.1
)

// Options configure the terminal model.
type Options struct {
	Title string
	// Scale is the number of plot pixels per braille dot.
	Scale int
	// Background is the plot background; pixels close to it stay blank.
	Background color.Color
}

type notifyMsg service.Notification

type closedMsg struct{}

type frameMsg struct {
	buf     *brailleBuf
	area    image.Rectangle
	version uint64
}

type errMsg struct{ err error }

// Model drives one session from terminal input.
type Model struct {
	session *service.Session
	notes   <-chan service.Notification
	cancel  func()
	opts    Options

	width  int
	height int
	cols   int
	rows   int

	frame   *brailleBuf
	area    image.Rectangle
	version uint64
	latest  uint64
	pending bool

	window   service.Window
	selected int
	tooltip  string
	status   string
	err      error

	dragging bool
	help     help.Model
	showHelp bool
}

// New returns a model for s. The model subscribes to s until it quits.
func New(s *service.Session, opts Options) Model {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.Title == "" {
		opts.Title = "scatter"
	}
	notes, cancel := s.Subscribe(64)
	win, err := s.Window(context.Background())
	return Model{
		session: s,
		notes:   notes,
		cancel:  cancel,
		opts:    opts,
		window:  win,
		err:     err,
		status:  fmt.Sprintf("%s: %d points", s.Dataset().ID, s.Dataset().Len()),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitNotification(m.notes), m.snapshot())
}

func waitNotification(ch <-chan service.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return notifyMsg(n)
	}
}

// snapshot reads the current layers and samples them onto the cell grid.
func (m *Model) snapshot() tea.Cmd {
	if m.pending {
		return nil
	}
	m.pending = true
	s, cols, rows, bg := m.session, m.cols, m.rows, m.opts.Background
	return func() tea.Msg {
		img, area, version, err := s.Snapshot(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return frameMsg{buf: fromImage(img, cols, rows, bg), area: area, version: version}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.cols = max(1, msg.Width)
		m.rows = max(1, msg.Height-headerHeight-footerHeight)
		if err := m.session.Resize(context.Background(), m.cols*2*m.opts.Scale, m.rows*4*m.opts.Scale); err != nil {
			m.err = err
			return m, nil
		}
		m.pending = false
		return m, m.snapshot()

	case notifyMsg:
		cmd := m.notify(service.Notification(msg))
		return m, tea.Batch(cmd, waitNotification(m.notes))

	case closedMsg:
		m.status = "session closed"
		return m, tea.Quit

	case frameMsg:
		m.pending = false
		m.frame, m.area = msg.buf, msg.area
		if msg.version > m.version {
			m.version = msg.version
		}
		if m.latest > m.version {
			return m, m.snapshot()
		}
		return m, nil

	case errMsg:
		m.pending = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) notify(n service.Notification) tea.Cmd {
	switch n.Type {
	case "render":
		m.latest = max(m.latest, n.Version)
		if n.Version > m.version {
			return m.snapshot()
		}
	case "window":
		if n.Window != nil {
			m.window = *n.Window
		}
	case "selection", "selection-in-progress":
		m.selected = len(n.Selection)
	case service.NotifyTooltip:
		m.tooltip = describe(m.session.Dataset(), n.Items)
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	cx, cy := float64(m.area.Dx())/2, float64(m.area.Dy())/2
	var err error
	switch {
	case key.Matches(msg, keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, keys.ZoomIn):
		err = m.session.Apply(ctx, service.Gesture{Type: "zoom", Factor: zoomStep, X: cx, Y: cy})
	case key.Matches(msg, keys.ZoomOut):
		err = m.session.Apply(ctx, service.Gesture{Type: "zoom", Factor: 1 / zoomStep, X: cx, Y: cy})
	case key.Matches(msg, keys.Up):
		err = m.pan(0, panStep)
	case key.Matches(msg, keys.Down):
		err = m.pan(0, -panStep)
	case key.Matches(msg, keys.Left):
		err = m.pan(panStep, 0)
	case key.Matches(msg, keys.Right):
		err = m.pan(-panStep, 0)
	case key.Matches(msg, keys.Reset):
		err = m.session.Apply(ctx, service.Gesture{Type: "reset"})
	case key.Matches(msg, keys.Clear):
		m.tooltip = ""
		err = m.session.SetSelection(ctx, nil)
	}
	m.err = err
	return m, nil
}

// pan moves the view by a fraction of the plot size.
func (m Model) pan(fx, fy float64) error {
	return m.session.Apply(context.Background(), service.Gesture{
		Type: "pan",
		DX:   fx * float64(m.area.Dx()),
		DY:   fy * float64(m.area.Dy()),
	})
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	px, py, inside := m.toPlot(msg.X, msg.Y)
	g := service.Gesture{X: px, Y: py, Mods: mods(msg)}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		g.Type, g.Steps = "wheel", 1
	case msg.Button == tea.MouseButtonWheelDown:
		g.Type, g.Steps = "wheel", -1
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inside {
			return
		}
		m.dragging = true
		g.Type = "down"
	case msg.Action == tea.MouseActionRelease:
		if !m.dragging {
			return
		}
		m.dragging = false
		g.Type = "up"
	case msg.Action == tea.MouseActionMotion:
		if !inside && !m.dragging {
			m.tooltip = ""
			g.Type = "leave"
			break
		}
		g.Type = "move"
	default:
		return
	}
	if g.Type == "move" && !m.dragging {
		m.tooltip = ""
	}
	m.err = m.session.Apply(context.Background(), g)
}

// toPlot maps a terminal cell to the centre of its dots in plot-area
// pixels.
func (m Model) toPlot(cellX, cellY int) (float64, float64, bool) {
	cy := cellY - headerHeight
	inside := cellX >= 0 && cellX < m.cols && cy >= 0 && cy < m.rows
	scale := float64(m.opts.Scale)
	x := (float64(cellX)*2+1)*scale - float64(m.area.Min.X)
	y := (float64(cy)*4+2)*scale - float64(m.area.Min.Y)
	return x, y, inside
}

func mods(msg tea.MouseMsg) string {
	var parts []string
	if msg.Shift {
		parts = append(parts, "shift")
	}
	if msg.Alt {
		parts = append(parts, "alt")
	}
	if msg.Ctrl {
		parts = append(parts, "ctrl")
	}
	return strings.Join(parts, "+")
}

// describe formats tooltip items, listing at most three.
func describe(ds *dataset.Dataset, items []int) string {
	if len(items) == 0 {
		return ""
	}
	const limit = 3
	parts := make([]string, 0, limit+1)
	for i, idx := range items {
		if i == limit {
			parts = append(parts, fmt.Sprintf("+%d more", len(items)-limit))
			break
		}
		if idx < 0 || idx >= ds.Len() {
			continue
		}
		p := ds.Points[idx]
		if p.Label != "" {
			parts = append(parts, fmt.Sprintf("%s (%.4g, %.4g)", p.Label, p.X, p.Y))
		} else {
			parts = append(parts, fmt.Sprintf("#%d (%.4g, %.4g)", p.Index, p.X, p.Y))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  selected %d", m.status, m.selected)))
	b.WriteByte('\n')

	lines := make([]string, m.rows)
	if m.frame != nil {
		copy(lines, m.frame.toLines())
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	footer := dimStyle.Render(fmt.Sprintf("x [%.4g, %.4g]  y [%.4g, %.4g]", m.window.X0, m.window.X1, m.window.Y0, m.window.Y1))
	switch {
	case m.err != nil:
		footer += "  " + errStyle.Render("ERROR: "+m.err.Error())
	case m.tooltip != "":
		footer += "  " + tipStyle.Render(m.tooltip)
	}
	b.WriteString(footer)
	b.WriteByte('\n')
	b.WriteString(m.help.View(keys))
	return b.String()
}
