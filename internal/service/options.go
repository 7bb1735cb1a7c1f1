package service

import (
	"fmt"
	"image/color"
	"time"

	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/interact"
	"github.com/atlasmap-sc/scatter/internal/plot"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/pkg/colormap"
)

// PlotOptions converts the plot section of the configuration into options
// for a plot over ds. Points are coloured through the configured colormap
// when the dataset has a value column, and by category when it only has
// labels.
func PlotOptions(cfg config.PlotConfig, ds *dataset.Dataset) (plot.Options[*dataset.Point], error) {
	sym, err := render.ParseSymbol(cfg.Symbol)
	if err != nil {
		return plot.Options[*dataset.Point]{}, err
	}
	mods, err := interact.ParseMods(cfg.SelectionModifier)
	if err != nil {
		return plot.Options[*dataset.Point]{}, err
	}

	opts := plot.Options[*dataset.Point]{
		Width:  cfg.Width,
		Height: cfg.Height,
		Margins: plot.Margins{
			Top:    cfg.Margins.Top,
			Right:  cfg.Margins.Right,
			Bottom: cfg.Margins.Bottom,
			Left:   cfg.Margins.Left,
		},
		Zoom: plot.ZoomOptions{
			Axes:        cfg.ZoomAxes,
			ScaleExtent: cfg.ScaleExtent,
			SettleDelay: ms(cfg.SettleDelayMS),
		},
		Selection: plot.SelectionOptions{Modifier: mods},
		Lasso: plot.LassoOptions{
			Interval:    ms(cfg.LassoIntervalMS),
			MinDistance: cfg.LassoMinDistance,
		},
		ClickRadius:          cfg.ClickRadius,
		TooltipDelay:         ms(cfg.TooltipDelayMS),
		Symbol:               plot.SymbolOptions[*dataset.Point]{Name: sym, Size: cfg.SymbolSize},
		AspectRatio:          cfg.AspectRatio,
		AggregationThreshold: cfg.AggregationThreshold,
	}

	switch {
	case ds == nil:
	case ds.HasValue():
		cm, ok := colormap.Lookup(cfg.Colormap)
		if !ok {
			return plot.Options[*dataset.Point]{}, fmt.Errorf("unknown colormap %q", cfg.Colormap)
		}
		lo, hi := ds.Bounds.MinValue, ds.Bounds.MaxValue
		opts.Symbol.ColorOf = func(p *dataset.Point) color.Color {
			return cm.At(colormap.Normalize(p.Value, lo, hi))
		}
	case ds.HasLabel():
		cats := Categories(ds)
		opts.Symbol.ColorOf = func(p *dataset.Point) color.Color {
			return colormap.Categorical.AtIndex(cats[p.Label])
		}
	}
	return opts, nil
}

// Categories numbers the distinct labels of ds in order of first
// appearance.
func Categories(ds *dataset.Dataset) map[string]int {
	cats := make(map[string]int)
	for _, p := range ds.Points {
		if _, ok := cats[p.Label]; !ok {
			cats[p.Label] = len(cats)
		}
	}
	return cats
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Accessors returns the plot accessors for ds, dual-axis when the dataset
// carries a secondary series.
func Accessors(ds *dataset.Dataset) plot.Accessors[*dataset.Point] {
	acc := plot.Accessors[*dataset.Point]{X: dataset.PointX, Y: dataset.PointY}
	if ds != nil && ds.HasSecondary() {
		acc.X2, acc.Y2 = dataset.PointX2, dataset.PointY2
	}
	return acc
}
