// Package service hosts interactive plots for remote shells. Each Session
// owns one plot and runs it on a private event loop.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"

	"github.com/atlasmap-sc/scatter/internal/cache"
	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/interact"
	"github.com/atlasmap-sc/scatter/internal/plot"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/sched"
	"github.com/atlasmap-sc/scatter/internal/viewport"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBadGesture      = errors.New("bad gesture")
	ErrBadIndex        = errors.New("point index out of range")
)

// Window is a data rectangle on the wire.
type Window struct {
	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`
}

func fromViewport(w viewport.Window) Window {
	return Window{X0: w.X0, X1: w.X1, Y0: w.Y0, Y1: w.Y1}
}

func (w Window) viewport() viewport.Window {
	return viewport.Window{X0: w.X0, X1: w.X1, Y0: w.Y0, Y1: w.Y1}
}

// Stats is the traversal summary of the latest full render.
type Stats struct {
	Version        uint64 `json:"version"`
	Points         int    `json:"points"`
	Selected       int    `json:"selected"`
	Nodes          int    `json:"nodes"`
	Rendered       int    `json:"rendered"`
	Aggregated     int    `json:"aggregated"`
	AggregateNodes int    `json:"aggregate_nodes"`
	HiddenNodes    int    `json:"hidden_nodes"`
}

// Notification is pushed to subscribers of a session.
type Notification struct {
	Type      string  `json:"type"`
	Version   uint64  `json:"version,omitempty"`
	Selection []int   `json:"selection,omitempty"`
	Window    *Window `json:"window,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Items     []int   `json:"items,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
}

// Notification types beyond the plot events.
const NotifyTooltip = "tooltip"

// Gesture is one pointer or programmatic view operation, in plot-area
// pixels.
type Gesture struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Factor float64 `json:"factor"`
	Steps  float64 `json:"steps"`
	Mods   string  `json:"mods"`
	Button int     `json:"button"`
}

// SessionConfig contains session configuration.
type SessionConfig struct {
	ID      string
	Dataset *dataset.Dataset
	Plot    config.PlotConfig
	Cache   *cache.Manager
	// Queue is the event loop queue length.
	Queue int
}

// Session is one interactive plot. Methods are safe for concurrent use;
// plot access is serialized on the session loop.
type Session struct {
	id      string
	ds      *dataset.Dataset
	cache   *cache.Manager
	loop    *sched.Loop
	plot    *plot.Plot[*dataset.Point]
	chrome  *chrome
	encoder *render.Encoder

	// Loop-owned: the reason of the latest render and the key of the
	// latest cached frame.
	lastReason render.Reason
	lastFrame  string

	// closed is set under subMu.
	closed  atomic.Bool
	subMu   sync.Mutex
	subs    map[int]chan Notification
	nextSub int
}

// NewSession builds the plot for cfg.Dataset and starts its loop.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Dataset == nil {
		return nil, errors.New("session: dataset is required")
	}
	opts, err := PlotOptions(cfg.Plot, cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}

	s := &Session{
		id:    cfg.ID,
		ds:    cfg.Dataset,
		cache: cfg.Cache,
		loop:  sched.NewLoop(cfg.Queue),
		subs:  make(map[int]chan Notification),
	}
	opts.Clock = s.loop.Clock()
	s.encoder = render.NewEncoder(plot.DefaultOptions[*dataset.Point]().Background)

	p, err := plot.New(cfg.Dataset.Points, Accessors(cfg.Dataset), opts, plot.Hooks[*dataset.Point]{
		RenderAxes:  s.drawAxes,
		ShowTooltip: s.tooltip,
	})
	if err != nil {
		return nil, fmt.Errorf("session plot: %w", err)
	}
	s.plot = p
	s.chrome = newChrome(p.Layers().Size())
	if cfg.Dataset.HasSecondary() {
		if err := p.SetSecondaryData(cfg.Dataset.Points); err != nil {
			return nil, fmt.Errorf("session plot: %w", err)
		}
	}
	s.subscribe()
	s.loop.Start()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Dataset returns the plotted dataset.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// drawAxes runs inside a render pass on the loop.
func (s *Session) drawAxes(sc plot.Scales) {
	w, h := s.plot.Layers().Size()
	s.chrome.resize(w, h)
	s.chrome.draw(s.plot.PlotArea(), sc)
}

func (s *Session) tooltip(items []*dataset.Point, x, y float64) {
	s.publish(Notification{Type: NotifyTooltip, Items: indices(items), X: x, Y: y})
}

func (s *Session) subscribe() {
	s.plot.On(plot.EventSelection, s.forward)
	s.plot.On(plot.EventSelectionInProgress, s.forward)
	s.plot.On(plot.EventWindow, s.forward)
	s.plot.On(plot.EventRender, s.forward)
}

func (s *Session) forward(ev plot.Event[*dataset.Point]) {
	n := Notification{Type: ev.Name, Version: s.plot.Version()}
	switch ev.Name {
	case plot.EventSelection, plot.EventSelectionInProgress:
		n.Selection = indices(ev.Selection)
		if n.Selection == nil {
			n.Selection = []int{}
		}
	case plot.EventWindow:
		w := fromViewport(ev.Window)
		n.Window = &w
	case plot.EventRender:
		s.lastReason = ev.Reason
		n.Reason = ev.Reason.String()
	}
	s.publish(n)
}

// publish fans n out without blocking; slow subscribers miss notifications.
func (s *Session) publish(n Notification) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns a channel of notifications and a function that ends
// the subscription and closes the channel. The channel of a closed session
// is already closed.
func (s *Session) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)
	s.subMu.Lock()
	if s.closed.Load() {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

func (s *Session) do(ctx context.Context, f func()) error {
	if s.closed.Load() {
		return ErrSessionNotFound
	}
	if err := s.loop.Do(ctx, f); err != nil {
		if errors.Is(err, sched.ErrStopped) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Frame returns the current frame as PNG and its render version. The first
// call triggers the initial render.
func (s *Session) Frame(ctx context.Context) ([]byte, uint64, error) {
	var (
		data    []byte
		version uint64
		encErr  error
	)
	err := s.do(ctx, func() {
		if s.plot.Version() == 0 {
			s.plot.Render(render.Dirty, viewport.Delta{K: 1})
		}
		version = s.plot.Version()
		key := cache.FrameKey(s.id, version)
		if s.cache != nil {
			if cached, ok := s.cache.GetFrame(key); ok {
				data = cached
				return
			}
		}
		l := s.plot.Layers()
		data, encErr = s.encoder.EncodeLayers(s.chrome.grid, l.Data(), l.Overlay(), s.chrome.axes)
		// Frames drawn mid-gesture are superseded by the settle render.
		if encErr != nil || s.cache == nil || s.lastReason.During() {
			return
		}
		if err := s.cache.SetFrame(key, data); err != nil {
			log.Printf("session %s: frame not cached: %v", s.id, err)
			return
		}
		s.dropFrame()
		s.lastFrame = key
	})
	if err != nil {
		return nil, 0, err
	}
	if encErr != nil {
		return nil, 0, fmt.Errorf("encode frame: %w", encErr)
	}
	return data, version, nil
}

// Snapshot returns the data and overlay layers composited over the
// background, without axes, and the plot rectangle inside it.
func (s *Session) Snapshot(ctx context.Context) (*image.RGBA, image.Rectangle, uint64, error) {
	var (
		img     *image.RGBA
		area    image.Rectangle
		version uint64
	)
	err := s.do(ctx, func() {
		if s.plot.Version() == 0 {
			s.plot.Render(render.Dirty, viewport.Delta{K: 1})
		}
		l := s.plot.Layers()
		img = s.encoder.Compose(l.Data(), l.Overlay())
		area = s.plot.PlotArea()
		version = s.plot.Version()
	})
	return img, area, version, err
}

// Resize changes the frame size. It takes effect on the next render.
func (s *Session) Resize(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadGesture, width, height)
	}
	return s.do(ctx, func() {
		s.plot.Resize(width, height)
		s.plot.Render(render.Dirty, viewport.Delta{K: 1})
	})
}

// Window returns the visible data rectangle.
func (s *Session) Window(ctx context.Context) (Window, error) {
	var w Window
	err := s.do(ctx, func() { w = fromViewport(s.plot.Window()) })
	return w, err
}

// SetWindow zooms to w and returns the resulting window.
func (s *Session) SetWindow(ctx context.Context, w Window) (Window, error) {
	if w.X0 == w.X1 && w.Y0 == w.Y1 {
		return Window{}, fmt.Errorf("%w: empty window", ErrBadGesture)
	}
	var out Window
	err := s.do(ctx, func() {
		s.plot.SetWindow(w.viewport())
		out = fromViewport(s.plot.Window())
	})
	return out, err
}

// Selection returns the selected point indices.
func (s *Session) Selection(ctx context.Context) ([]int, error) {
	var out []int
	err := s.do(ctx, func() { out = indices(s.plot.Selection()) })
	if out == nil {
		out = []int{}
	}
	return out, err
}

// SetSelection replaces the selection with the given point indices.
func (s *Session) SetSelection(ctx context.Context, idx []int) error {
	pts, err := s.points(idx)
	if err != nil {
		return err
	}
	return s.do(ctx, func() { s.plot.SetSelection(pts) })
}

// AddToSelection selects the given point indices.
func (s *Session) AddToSelection(ctx context.Context, idx []int) error {
	pts, err := s.points(idx)
	if err != nil {
		return err
	}
	return s.do(ctx, func() { s.plot.AddToSelection(pts) })
}

// RemoveFromSelection deselects the given point indices.
func (s *Session) RemoveFromSelection(ctx context.Context, idx []int) error {
	pts, err := s.points(idx)
	if err != nil {
		return err
	}
	return s.do(ctx, func() { s.plot.RemoveFromSelection(pts) })
}

func (s *Session) points(idx []int) ([]*dataset.Point, error) {
	pts := make([]*dataset.Point, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(s.ds.Points) {
			return nil, fmt.Errorf("%w: %d", ErrBadIndex, i)
		}
		pts = append(pts, s.ds.Points[i])
	}
	return pts, nil
}

// Hit returns the indices of the points within the click radius of the
// plot-area pixel (px, py).
func (s *Session) Hit(ctx context.Context, px, py float64) ([]int, error) {
	var out []int
	err := s.do(ctx, func() {
		key := cache.HitKey(s.id, s.plot.Version(), px, py)
		if s.cache != nil {
			if cached, ok := s.cache.GetQuery(key); ok {
				out = cached
				return
			}
		}
		out = indices(s.plot.FindAt(px, py))
		if out == nil {
			out = []int{}
		}
		if s.cache != nil {
			s.cache.SetQuery(key, out)
		}
	})
	return out, err
}

// Stats returns the counts of the latest full render.
func (s *Session) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.do(ctx, func() {
		rs := s.plot.Stats()
		st = Stats{
			Version:        s.plot.Version(),
			Points:         len(s.plot.Data()),
			Selected:       len(s.plot.Selection()),
			Nodes:          rs.Nodes,
			Rendered:       rs.Rendered,
			Aggregated:     rs.Aggregated,
			AggregateNodes: rs.AggregateNodes,
			HiddenNodes:    rs.HiddenNodes,
		}
	})
	return st, err
}

// Apply feeds g to the plot's gesture controller.
func (s *Session) Apply(ctx context.Context, g Gesture) error {
	mods, err := interact.ParseMods(g.Mods)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadGesture, err)
	}
	ev := interact.PointerEvent{X: g.X, Y: g.Y, Mods: mods, Button: interact.Button(g.Button)}

	var apply func(c *interact.Controller)
	switch g.Type {
	case "down":
		if ev.Button == interact.ButtonNone {
			ev.Button = interact.ButtonLeft
		}
		apply = func(c *interact.Controller) { c.PointerDown(ev) }
	case "move":
		apply = func(c *interact.Controller) { c.PointerMove(ev) }
	case "up":
		apply = func(c *interact.Controller) { c.PointerUp(ev) }
	case "leave":
		apply = func(c *interact.Controller) { c.Leave() }
	case "wheel":
		apply = func(c *interact.Controller) { c.Wheel(ev, g.Steps) }
	case "zoom":
		if g.Factor <= 0 {
			return fmt.Errorf("%w: zoom factor must be positive", ErrBadGesture)
		}
		apply = func(c *interact.Controller) { c.ZoomBy(g.Factor, g.X, g.Y) }
	case "pan":
		apply = func(c *interact.Controller) { c.PanBy(g.DX, g.DY) }
	case "reset":
		apply = func(c *interact.Controller) { c.Reset() }
	case "click":
		op := interact.Replace
		if mods != 0 {
			op = interact.Add
		}
		apply = func(c *interact.Controller) { c.Click(g.X, g.Y, op) }
	default:
		return fmt.Errorf("%w: unknown type %q", ErrBadGesture, g.Type)
	}
	return s.do(ctx, func() { apply(s.plot.Controller()) })
}

// dropFrame evicts the previously cached frame, which no later request
// can ask for. It runs on the loop.
func (s *Session) dropFrame() {
	if s.lastFrame == "" {
		return
	}
	if err := s.cache.DropFrame(s.lastFrame); err != nil {
		log.Printf("session %s: drop frame: %v", s.id, err)
	}
	s.lastFrame = ""
}

// Close ends every subscription and stops the session. It does not wait
// for a busy loop: the plot timers are stopped once the running function
// returns. Later calls fail with ErrSessionNotFound.
func (s *Session) Close() {
	s.subMu.Lock()
	if s.closed.Load() {
		s.subMu.Unlock()
		return
	}
	s.closed.Store(true)
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()

	if !s.loop.TryPost(s.shutdown) {
		s.loop.Stop()
	}
}

func (s *Session) shutdown() {
	s.plot.Close()
	if s.cache != nil {
		s.dropFrame()
	}
	s.loop.Stop()
}

func indices(pts []*dataset.Point) []int {
	if len(pts) == 0 {
		return nil
	}
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.Index
	}
	return out
}
