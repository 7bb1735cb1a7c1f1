package plot

import (
	"image/color"
	"time"

	"github.com/atlasmap-sc/scatter/internal/interact"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/sched"
)

// Margins surround the plot area inside the canvas, in pixels.
type Margins struct {
	Top, Right, Bottom, Left int
}

// ZoomOptions configures pan and zoom.
type ZoomOptions struct {
	// Axes is "x", "y", "xy" or "none".
	Axes        string
	ScaleExtent [2]float64
	SettleDelay time.Duration
	WheelBase   float64
}

// SelectionOptions configures click and lasso selection.
type SelectionOptions struct {
	Disabled bool
	Modifier interact.Mods
	Color    color.Color
	// Size of selected symbols. Zero draws them two pixels larger than the
	// data symbol.
	Size float64
}

// LassoOptions configures the freehand selection tool.
type LassoOptions struct {
	Interval    time.Duration
	MinDistance float64
	Stroke      color.Color
	Fill        color.Color
}

// SymbolOptions selects how one series is drawn.
type SymbolOptions[T any] struct {
	Name    render.Symbol
	Size    float64
	Color   color.Color
	ColorOf func(T) color.Color
	// Factory replaces the built-in symbol when set.
	Factory render.Factory[T]
}

// Options is the complete plot configuration.
type Options[T any] struct {
	Width, Height int
	Margins       Margins

	// Domains left at zero are computed from the data.
	XDomain, YDomain, Y2Domain [2]float64
	DomainPadding              float64

	Zoom      ZoomOptions
	Selection SelectionOptions
	Lasso     LassoOptions

	ClickRadius     float64
	TooltipDelay    time.Duration
	TooltipDisabled bool
	TooltipLimit    int

	Symbol    SymbolOptions[T]
	Secondary SymbolOptions[T]

	AspectRatio          float64
	AggregationThreshold float64
	Background           color.Color

	Clock sched.Clock
	Debug bool
}

// DefaultOptions returns a fresh set of defaults.
func DefaultOptions[T any]() Options[T] {
	return Options[T]{
		Width:         800,
		Height:        600,
		Margins:       Margins{Top: 20, Right: 20, Bottom: 40, Left: 50},
		DomainPadding: 0.05,
		Zoom: ZoomOptions{
			Axes:        "xy",
			ScaleExtent: [2]float64{1, 100},
			SettleDelay: 300 * time.Millisecond,
			WheelBase:   1.25,
		},
		Selection: SelectionOptions{
			Modifier: interact.ModShift,
			Color:    color.RGBA{255, 127, 14, 255},
		},
		Lasso: LassoOptions{
			Interval:    100 * time.Millisecond,
			MinDistance: 10,
			Stroke:      color.RGBA{40, 40, 40, 255},
			Fill:        color.RGBA{0, 0, 0, 24},
		},
		ClickRadius:  5,
		TooltipDelay: 500 * time.Millisecond,
		TooltipLimit: 10,
		Symbol: SymbolOptions[T]{
			Name:  render.Circle,
			Size:  3,
			Color: color.RGBA{31, 119, 180, 255},
		},
		Secondary: SymbolOptions[T]{
			Name:  render.Square,
			Size:  3,
			Color: color.RGBA{44, 160, 44, 255},
		},
		AspectRatio:          1,
		AggregationThreshold: render.DefaultAggregationThreshold,
		Background:           color.White,
		Clock:                sched.Real{},
	}
}

// MergeOptions returns base with every non-zero field of override applied.
// Boolean switches can only be turned on by an override.
func MergeOptions[T any](base, override Options[T]) Options[T] {
	out := base
	out.Width = pick(base.Width, override.Width)
	out.Height = pick(base.Height, override.Height)
	out.Margins = pick(base.Margins, override.Margins)
	out.XDomain = pick(base.XDomain, override.XDomain)
	out.YDomain = pick(base.YDomain, override.YDomain)
	out.Y2Domain = pick(base.Y2Domain, override.Y2Domain)
	out.DomainPadding = pick(base.DomainPadding, override.DomainPadding)

	out.Zoom = ZoomOptions{
		Axes:        pick(base.Zoom.Axes, override.Zoom.Axes),
		ScaleExtent: pick(base.Zoom.ScaleExtent, override.Zoom.ScaleExtent),
		SettleDelay: pick(base.Zoom.SettleDelay, override.Zoom.SettleDelay),
		WheelBase:   pick(base.Zoom.WheelBase, override.Zoom.WheelBase),
	}
	out.Selection = SelectionOptions{
		Disabled: base.Selection.Disabled || override.Selection.Disabled,
		Modifier: pick(base.Selection.Modifier, override.Selection.Modifier),
		Color:    pickColor(base.Selection.Color, override.Selection.Color),
		Size:     pick(base.Selection.Size, override.Selection.Size),
	}
	out.Lasso = LassoOptions{
		Interval:    pick(base.Lasso.Interval, override.Lasso.Interval),
		MinDistance: pick(base.Lasso.MinDistance, override.Lasso.MinDistance),
		Stroke:      pickColor(base.Lasso.Stroke, override.Lasso.Stroke),
		Fill:        pickColor(base.Lasso.Fill, override.Lasso.Fill),
	}

	out.ClickRadius = pick(base.ClickRadius, override.ClickRadius)
	out.TooltipDelay = pick(base.TooltipDelay, override.TooltipDelay)
	out.TooltipDisabled = base.TooltipDisabled || override.TooltipDisabled
	out.TooltipLimit = pick(base.TooltipLimit, override.TooltipLimit)

	out.Symbol = mergeSymbol(base.Symbol, override.Symbol)
	out.Secondary = mergeSymbol(base.Secondary, override.Secondary)

	out.AspectRatio = pick(base.AspectRatio, override.AspectRatio)
	out.AggregationThreshold = pick(base.AggregationThreshold, override.AggregationThreshold)
	out.Background = pickColor(base.Background, override.Background)
	if override.Clock != nil {
		out.Clock = override.Clock
	}
	out.Debug = base.Debug || override.Debug
	return out
}

func mergeSymbol[T any](base, override SymbolOptions[T]) SymbolOptions[T] {
	out := SymbolOptions[T]{
		Name:    pick(base.Name, override.Name),
		Size:    pick(base.Size, override.Size),
		Color:   pickColor(base.Color, override.Color),
		ColorOf: base.ColorOf,
		Factory: base.Factory,
	}
	if override.ColorOf != nil {
		out.ColorOf = override.ColorOf
	}
	if override.Factory != nil {
		out.Factory = override.Factory
	}
	return out
}

func pick[V comparable](base, override V) V {
	var zero V
	if override != zero {
		return override
	}
	return base
}

func pickColor(base, override color.Color) color.Color {
	if override != nil {
		return override
	}
	return base
}
