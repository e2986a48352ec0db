// Package config holds the per-chart engine configuration: zoom extrema, layout
// metrics, picking tolerance and theme. Each chart instance owns its own Config;
// nothing here is package-level mutable state.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"

	"spacetime-chart/pkg/colorutil"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned (wrapped) by Validate and Load for unusable configurations.
var ErrInvalid = errors.New("invalid chart configuration")

// Config holds all configuration for one chart instance.
type Config struct {
	Zoom    ZoomConfig    `yaml:"zoom"`
	Layout  LayoutConfig  `yaml:"layout"`
	Picking PickingConfig `yaml:"picking"`
	Theme   ThemeConfig   `yaml:"theme"`
}

// ZoomConfig holds the hard zoom limits enforced by the interaction controller.
type ZoomConfig struct {
	// Horizontal zoom slider range, mapped logarithmically onto ms/px.
	MinZoomX float64 `yaml:"minZoomX"`
	MaxZoomX float64 `yaml:"maxZoomX"`

	// Vertical zoom factor range and button step.
	MinZoomY   float64 `yaml:"minZoomY"`
	MaxZoomY   float64 `yaml:"maxZoomY"`
	ZoomYDelta float64 `yaml:"zoomYDelta"`

	// MinZoomMsPerPx is the most zoomed-out time scale (largest ms/px),
	// MaxZoomMsPerPx the most zoomed-in one.
	MinZoomMsPerPx float64 `yaml:"minZoomMsPerPx"`
	MaxZoomMsPerPx float64 `yaml:"maxZoomMsPerPx"`

	// DefaultMsPerPx is the time scale a chart starts with.
	DefaultMsPerPx float64 `yaml:"defaultMsPerPx"`

	// WheelStep is the slider delta applied per wheel notch.
	WheelStep float64 `yaml:"wheelStep"`

	// MinVisibleStops caps the linear-mode rectangle zoom so at least this many
	// waypoints stay visible. Tunable heuristic.
	MinVisibleStops int `yaml:"minVisibleStops"`
}

// LayoutConfig holds pixel metrics shared by the chart and the manchette.
type LayoutConfig struct {
	BaseWaypointHeight float64 `yaml:"baseWaypointHeight"`
	FooterHeight       float64 `yaml:"footerHeight"`
	TopPadding         float64 `yaml:"topPadding"`
	CaptionHeight      float64 `yaml:"captionHeight"`
}

// PickingConfig controls the off-screen hit-testing pass.
type PickingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Tolerance is added to the visible stroke width of pickable lines.
	Tolerance   float64 `yaml:"tolerance"`
	PointRadius float64 `yaml:"pointRadius"`
}

// ThemeConfig holds colors as hex strings plus stroke metrics.
type ThemeConfig struct {
	Background      string  `yaml:"background"`
	Grid            string  `yaml:"grid"`
	GridMajor       string  `yaml:"gridMajor"`
	Text            string  `yaml:"text"`
	Path            string  `yaml:"path"`
	Hover           string  `yaml:"hover"`
	Selection       string  `yaml:"selection"`
	OccupancyZone   string  `yaml:"occupancyZone"`
	Conflict        string  `yaml:"conflict"`
	PathWidth       float64 `yaml:"pathWidth"`
	PauseWidth      float64 `yaml:"pauseWidth"`
	CaptionFontSize float64 `yaml:"captionFontSize"`
}

// Palette is a ThemeConfig with its colors parsed.
type Palette struct {
	Background    color.NRGBA
	Grid          color.NRGBA
	GridMajor     color.NRGBA
	Text          color.NRGBA
	Path          color.NRGBA
	Hover         color.NRGBA
	Selection     color.NRGBA
	OccupancyZone color.NRGBA
	Conflict      color.NRGBA

	PathWidth       float64
	PauseWidth      float64
	CaptionFontSize float64
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Zoom: ZoomConfig{
			MinZoomX:        0,
			MaxZoomX:        100,
			MinZoomY:        1,
			MaxZoomY:        10,
			ZoomYDelta:      0.5,
			MinZoomMsPerPx:  600000,
			MaxZoomMsPerPx:  625,
			DefaultMsPerPx:  7500,
			WheelStep:       5,
			MinVisibleStops: 3,
		},
		Layout: LayoutConfig{
			BaseWaypointHeight: 32,
			FooterHeight:       40,
			TopPadding:         8,
			CaptionHeight:      24,
		},
		Picking: PickingConfig{
			Enabled:     true,
			Tolerance:   5,
			PointRadius: 4,
		},
		Theme: ThemeConfig{
			Background:      "#ffffff",
			Grid:            "#ebe9e6",
			GridMajor:       "#b6b2af",
			Text:            "#312e2b",
			Path:            "#1f58b4",
			Hover:           "#d91c1c",
			Selection:       "#3f7cf640",
			OccupancyZone:   "#f5a62366",
			Conflict:        "#eb000055",
			PathWidth:       1.5,
			PauseWidth:      3,
			CaptionFontSize: 11,
		},
	}
}

// Load reads a YAML (or JSON) file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides selected settings from STC_* environment variables.
func (c *Config) ApplyEnv() {
	c.Zoom.MinZoomY = getEnvFloat("STC_MIN_ZOOM_Y", c.Zoom.MinZoomY)
	c.Zoom.MaxZoomY = getEnvFloat("STC_MAX_ZOOM_Y", c.Zoom.MaxZoomY)
	c.Zoom.DefaultMsPerPx = getEnvFloat("STC_DEFAULT_MS_PER_PX", c.Zoom.DefaultMsPerPx)
	c.Layout.BaseWaypointHeight = getEnvFloat("STC_WAYPOINT_HEIGHT", c.Layout.BaseWaypointHeight)
	c.Picking.Tolerance = getEnvFloat("STC_PICKING_TOLERANCE", c.Picking.Tolerance)
	c.Theme.Background = getEnv("STC_THEME_BACKGROUND", c.Theme.Background)
	c.Theme.Path = getEnv("STC_THEME_PATH", c.Theme.Path)
}

// Validate checks the limits are coherent and the theme parses.
func (c Config) Validate() error {
	z := c.Zoom
	switch {
	case z.MinZoomX >= z.MaxZoomX:
		return fmt.Errorf("%w: minZoomX (%g) must be below maxZoomX (%g)", ErrInvalid, z.MinZoomX, z.MaxZoomX)
	case z.MinZoomY <= 0 || z.MinZoomY > z.MaxZoomY:
		return fmt.Errorf("%w: zoom Y range [%g, %g]", ErrInvalid, z.MinZoomY, z.MaxZoomY)
	case z.ZoomYDelta <= 0:
		return fmt.Errorf("%w: zoomYDelta must be positive", ErrInvalid)
	case z.MaxZoomMsPerPx <= 0 || z.MinZoomMsPerPx <= z.MaxZoomMsPerPx:
		return fmt.Errorf("%w: time zoom range must satisfy 0 < maxZoomMsPerPx (%g) < minZoomMsPerPx (%g)",
			ErrInvalid, z.MaxZoomMsPerPx, z.MinZoomMsPerPx)
	case z.MinVisibleStops < 1:
		return fmt.Errorf("%w: minVisibleStops must be at least 1", ErrInvalid)
	case c.Layout.BaseWaypointHeight <= 0:
		return fmt.Errorf("%w: baseWaypointHeight must be positive", ErrInvalid)
	case c.Picking.Tolerance < 0:
		return fmt.Errorf("%w: picking tolerance must not be negative", ErrInvalid)
	}
	if _, err := c.Theme.Palette(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Palette parses the theme colors.
func (t ThemeConfig) Palette() (Palette, error) {
	p := Palette{
		PathWidth:       t.PathWidth,
		PauseWidth:      t.PauseWidth,
		CaptionFontSize: t.CaptionFontSize,
	}
	fields := []struct {
		name string
		src  string
		dst  *color.NRGBA
	}{
		{"background", t.Background, &p.Background},
		{"grid", t.Grid, &p.Grid},
		{"gridMajor", t.GridMajor, &p.GridMajor},
		{"text", t.Text, &p.Text},
		{"path", t.Path, &p.Path},
		{"hover", t.Hover, &p.Hover},
		{"selection", t.Selection, &p.Selection},
		{"occupancyZone", t.OccupancyZone, &p.OccupancyZone},
		{"conflict", t.Conflict, &p.Conflict},
	}
	for _, f := range fields {
		c, err := colorutil.ParseHex(f.src)
		if err != nil {
			return p, fmt.Errorf("theme.%s: %w", f.name, err)
		}
		*f.dst = c
	}
	if p.PathWidth <= 0 {
		p.PathWidth = 1
	}
	if p.PauseWidth <= 0 {
		p.PauseWidth = p.PathWidth * 2
	}
	if p.CaptionFontSize <= 0 {
		p.CaptionFontSize = 11
	}
	return p, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
