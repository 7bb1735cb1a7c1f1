// Command scatterterm explores a configured dataset in the terminal.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/plot"
	"github.com/atlasmap-sc/scatter/internal/service"
	"github.com/atlasmap-sc/scatter/internal/tui"
)

func main() {
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	datasetID := flag.String("dataset", "", "Dataset id (default: the configured default)")
	scale := flag.Int("scale", 2, "Plot pixels per braille dot")
	modifier := flag.String("modifier", "alt", "Selection modifier held while dragging a lasso")
	logPath := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "scatterterm")
		if err != nil {
			log.Fatalf("Failed to open log: %v", err)
		}
		defer f.Close()
		plot.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	id := *datasetID
	if id == "" {
		id = cfg.Data.Default
	}
	dc, ok := cfg.Data.Datasets[id]
	if !ok {
		log.Fatalf("Unknown dataset %q", id)
	}
	ds, err := dataset.Load(id, dc.Path, dataset.Columns{
		X: dc.X, Y: dc.Y, X2: dc.X2, Y2: dc.Y2, Value: dc.Value, Label: dc.Label,
	})
	if err != nil {
		log.Fatalf("Failed to load dataset %q: %v", id, err)
	}

	// Axes are drawn as text around the braille grid, so the plot fills the
	// canvas.
	plotCfg := cfg.Plot
	plotCfg.Margins = config.MarginsConfig{Top: 1, Right: 1, Bottom: 1, Left: 1}
	plotCfg.SelectionModifier = *modifier

	s, err := service.NewSession(service.SessionConfig{ID: "term", Dataset: ds, Plot: plotCfg})
	if err != nil {
		log.Fatalf("Failed to create plot: %v", err)
	}
	defer s.Close()

	m := tui.New(s, tui.Options{Title: cfg.Server.Title, Scale: *scale})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		log.Printf("scatterterm: %v", err)
		os.Exit(1)
	}
}
