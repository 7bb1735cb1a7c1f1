// Package config handles configuration loading for the scatter server and
// terminal viewer.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SCATTER_PORT.
const EnvPrefix = "SCATTER"

// Config represents the complete configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Plot   PlotConfig   `yaml:"plot"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port              int      `yaml:"port"`
	Title             string   `yaml:"title"`
	CORSOrigins       []string `yaml:"cors_origins"`
	SessionLimit      int      `yaml:"session_limit"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes"`
}

// DatasetConfig locates one point file and names its columns.
type DatasetConfig struct {
	Path  string `yaml:"path"`
	X     string `yaml:"x"`
	Y     string `yaml:"y"`
	X2    string `yaml:"x2"`
	Y2    string `yaml:"y2"`
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// DataConfig holds the configured datasets in file order. The first one is
// the default unless Default names another.
type DataConfig struct {
	Default  string
	Datasets map[string]DatasetConfig
	order    []string
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	FrameSizeMB     int `yaml:"frame_size_mb"`
	FrameTTLMinutes int `yaml:"frame_ttl_minutes"`
	QueryCacheSize  int `yaml:"query_cache_size"`
}

// MarginsConfig is the space around the plot area in pixels.
type MarginsConfig struct {
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
}

// PlotConfig contains the plot defaults of every session.
type PlotConfig struct {
	Width                int           `yaml:"width"`
	Height               int           `yaml:"height"`
	Margins              MarginsConfig `yaml:"margins"`
	ZoomAxes             string        `yaml:"zoom_axes"`
	ScaleExtent          [2]float64    `yaml:"scale_extent"`
	ClickRadius          float64       `yaml:"click_radius"`
	TooltipDelayMS       int           `yaml:"tooltip_delay_ms"`
	LassoIntervalMS      int           `yaml:"lasso_interval_ms"`
	LassoMinDistance     float64       `yaml:"lasso_min_distance"`
	SettleDelayMS        int           `yaml:"settle_delay_ms"`
	AggregationThreshold float64       `yaml:"aggregation_threshold"`
	Symbol               string        `yaml:"symbol"`
	SymbolSize           float64       `yaml:"symbol_size"`
	Colormap             string        `yaml:"colormap"`
	AspectRatio          float64       `yaml:"aspect_ratio"`
	SelectionModifier    string        `yaml:"selection_modifier"`
}

// envOverrides are read from the environment after the file.
type envOverrides struct {
	Port         int      `envconfig:"PORT"`
	Title        string   `envconfig:"TITLE"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS"`
	SessionLimit int      `envconfig:"SESSION_LIMIT"`
	FrameSizeMB  int      `envconfig:"FRAME_SIZE_MB"`
	Dataset      string   `envconfig:"DATASET"`
	Colormap     string   `envconfig:"COLORMAP"`
}

// UnmarshalYAML decodes the data section, keeping datasets in file order.
// A "default" key selects the default dataset.
func (d *DataConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.New("data: expected a mapping of dataset ids")
	}
	d.Datasets = make(map[string]DatasetConfig)
	d.order = nil
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		if key == "default" {
			if err := val.Decode(&d.Default); err != nil {
				return fmt.Errorf("data.default: %w", err)
			}
			continue
		}
		var ds DatasetConfig
		if err := val.Decode(&ds); err != nil {
			return fmt.Errorf("data.%s: %w", key, err)
		}
		if _, dup := d.Datasets[key]; !dup {
			d.order = append(d.order, key)
		}
		d.Datasets[key] = ds
	}
	return nil
}

// DatasetIDs returns the dataset ids in configuration order.
func (d DataConfig) DatasetIDs() []string {
	return append([]string(nil), d.order...)
}

// Add appends a dataset, replacing one with the same id in place.
func (d *DataConfig) Add(id string, ds DatasetConfig) {
	if d.Datasets == nil {
		d.Datasets = make(map[string]DatasetConfig)
	}
	if _, ok := d.Datasets[id]; !ok {
		d.order = append(d.order, id)
	}
	d.Datasets[id] = ds
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = DefaultConfig()
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Apply defaults for missing values
	applyDefaults(cfg)

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			Title:             "Scatter",
			CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5173"},
			SessionLimit:      64,
			SessionTTLMinutes: 30,
		},
		Cache: CacheConfig{
			FrameSizeMB:     256,
			FrameTTLMinutes: 10,
			QueryCacheSize:  1000,
		},
		Plot: PlotConfig{
			Width:                800,
			Height:               600,
			Margins:              MarginsConfig{Top: 20, Right: 20, Bottom: 40, Left: 50},
			ZoomAxes:             "xy",
			ScaleExtent:          [2]float64{1, 100},
			ClickRadius:          5,
			TooltipDelayMS:       500,
			LassoIntervalMS:      100,
			LassoMinDistance:     10,
			SettleDelayMS:        300,
			AggregationThreshold: 5,
			Symbol:               "circle",
			SymbolSize:           3,
			Colormap:             "viridis",
			AspectRatio:          1,
			SelectionModifier:    "shift",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.Title == "" {
		cfg.Server.Title = defaults.Server.Title
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.SessionLimit == 0 {
		cfg.Server.SessionLimit = defaults.Server.SessionLimit
	}
	if cfg.Server.SessionTTLMinutes == 0 {
		cfg.Server.SessionTTLMinutes = defaults.Server.SessionTTLMinutes
	}
	if cfg.Cache.FrameSizeMB == 0 {
		cfg.Cache.FrameSizeMB = defaults.Cache.FrameSizeMB
	}
	if cfg.Cache.FrameTTLMinutes == 0 {
		cfg.Cache.FrameTTLMinutes = defaults.Cache.FrameTTLMinutes
	}
	if cfg.Cache.QueryCacheSize == 0 {
		cfg.Cache.QueryCacheSize = defaults.Cache.QueryCacheSize
	}

	p, d := &cfg.Plot, defaults.Plot
	if p.Width == 0 {
		p.Width = d.Width
	}
	if p.Height == 0 {
		p.Height = d.Height
	}
	if p.Margins == (MarginsConfig{}) {
		p.Margins = d.Margins
	}
	if p.ZoomAxes == "" {
		p.ZoomAxes = d.ZoomAxes
	}
	if p.ScaleExtent == [2]float64{} {
		p.ScaleExtent = d.ScaleExtent
	}
	if p.ClickRadius == 0 {
		p.ClickRadius = d.ClickRadius
	}
	if p.TooltipDelayMS == 0 {
		p.TooltipDelayMS = d.TooltipDelayMS
	}
	if p.LassoIntervalMS == 0 {
		p.LassoIntervalMS = d.LassoIntervalMS
	}
	if p.LassoMinDistance == 0 {
		p.LassoMinDistance = d.LassoMinDistance
	}
	if p.SettleDelayMS == 0 {
		p.SettleDelayMS = d.SettleDelayMS
	}
	if p.AggregationThreshold == 0 {
		p.AggregationThreshold = d.AggregationThreshold
	}
	if p.Symbol == "" {
		p.Symbol = d.Symbol
	}
	if p.SymbolSize == 0 {
		p.SymbolSize = d.SymbolSize
	}
	if p.Colormap == "" {
		p.Colormap = d.Colormap
	}
	if p.AspectRatio == 0 {
		p.AspectRatio = d.AspectRatio
	}
	if p.SelectionModifier == "" {
		p.SelectionModifier = d.SelectionModifier
	}

	if cfg.Data.Default == "" && len(cfg.Data.order) > 0 {
		cfg.Data.Default = cfg.Data.order[0]
	}
	for id, ds := range cfg.Data.Datasets {
		if ds.X == "" {
			ds.X = "x"
		}
		if ds.Y == "" {
			ds.Y = "y"
		}
		cfg.Data.Datasets[id] = ds
	}
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	if env.Title != "" {
		cfg.Server.Title = env.Title
	}
	if len(env.CORSOrigins) > 0 {
		cfg.Server.CORSOrigins = env.CORSOrigins
	}
	if env.SessionLimit != 0 {
		cfg.Server.SessionLimit = env.SessionLimit
	}
	if env.FrameSizeMB != 0 {
		cfg.Cache.FrameSizeMB = env.FrameSizeMB
	}
	if env.Colormap != "" {
		cfg.Plot.Colormap = env.Colormap
	}
	if env.Dataset != "" {
		if _, ok := cfg.Data.Datasets[env.Dataset]; !ok {
			return fmt.Errorf("environment: %s_DATASET names unknown dataset %q", EnvPrefix, env.Dataset)
		}
		cfg.Data.Default = env.Dataset
	}
	return nil
}
