// Package chart assembles a space-time chart: it owns the interaction controller
// and the draw pipeline of one instance, registers the built-in drawables for
// paths, occupancy zones, conflicts, graduations and captions, and exposes the
// operations a front end needs.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/interaction"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/pipeline"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/colorutil"
	"spacetime-chart/pkg/geometry"
)

// Default canvas size when WithSize is not given.
const (
	defaultWidth  = 1024
	defaultHeight = 640
)

type options struct {
	logger         *slog.Logger
	width, height  int
	proportional   bool
	enableTimePan  bool
	enableSpacePan bool
}

// Option configures a Chart.
type Option func(*options)

// WithLogger sets the structured logger. Charts are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSize sets the initial canvas size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithProportional starts the chart with a true-to-distance space axis.
func WithProportional(proportional bool) Option {
	return func(o *options) { o.proportional = proportional }
}

// WithTimePan enables or disables horizontal panning.
func WithTimePan(enabled bool) Option {
	return func(o *options) { o.enableTimePan = enabled }
}

// WithSpacePan enables or disables vertical panning.
func WithSpacePan(enabled bool) Option {
	return func(o *options) { o.enableSpacePan = enabled }
}

// styledPath is a PathData with its color resolved.
type styledPath struct {
	PathData
	color color.NRGBA
}

// Chart is one space-time chart instance. It is not safe for concurrent use.
type Chart struct {
	id      uuid.UUID
	cfg     config.Config
	palette config.Palette

	width, height int

	ctrl *interaction.Controller
	pipe *pipeline.Pipeline

	paths     []styledPath
	zones     []OccupancyZone
	conflicts []Conflict

	dirty bool
	last  *image.RGBA

	logger *slog.Logger
}

// New creates a chart with its own copy of cfg.
func New(cfg config.Config, opts ...Option) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	palette, err := cfg.Theme.Palette()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	o := options{
		logger:         slog.New(slog.DiscardHandler),
		width:          defaultWidth,
		height:         defaultHeight,
		enableTimePan:  true,
		enableSpacePan: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	id := uuid.New()
	logger := o.logger.With("chart", id.String())

	c := &Chart{
		id:      id,
		cfg:     cfg,
		palette: palette,
		dirty:   true,
		logger:  logger,
	}
	c.ctrl = interaction.New(cfg,
		interaction.WithLogger(logger),
		interaction.WithProportional(o.proportional),
		interaction.WithTimePan(o.enableTimePan),
		interaction.WithSpacePan(o.enableSpacePan),
	)
	c.pipe = pipeline.New(pipeline.WithLogger(logger))
	c.ctrl.SetPicker(c.pipe)
	c.ctrl.OnChange(c.invalidate)
	c.registerDrawables()
	c.Resize(o.width, o.height)

	logger.Debug("chart created", "width", c.width, "height", c.height)
	return c, nil
}

// ID returns the instance id used in logs.
func (c *Chart) ID() string { return c.id.String() }

// Config returns the chart configuration.
func (c *Chart) Config() config.Config { return c.cfg }

// Palette returns the parsed theme.
func (c *Chart) Palette() config.Palette { return c.palette }

// Controller exposes the interaction controller, for the manchette and zoom controls.
func (c *Chart) Controller() *interaction.Controller { return c.ctrl }

// Pipeline exposes the draw pipeline so callers can add their own drawables.
func (c *Chart) Pipeline() *pipeline.Pipeline { return c.pipe }

// Size returns the canvas size.
func (c *Chart) Size() (width, height int) { return c.width, c.height }

// BodyHeight returns the height of the scrollable area above the time captions.
func (c *Chart) BodyHeight() float64 {
	return math.Max(float64(c.height)-c.cfg.Layout.FooterHeight, 0)
}

func (c *Chart) invalidate() { c.dirty = true }

// Resize sets the canvas size. The captions footer is kept out of the viewport.
func (c *Chart) Resize(width, height int) {
	c.width, c.height = max(width, 0), max(height, 0)
	c.ctrl.SetViewport(float64(c.width), c.BodyHeight())
	c.invalidate()
}

// SetTheme replaces the colors and stroke metrics.
func (c *Chart) SetTheme(theme config.ThemeConfig) error {
	palette, err := theme.Palette()
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	c.cfg.Theme = theme
	c.palette = palette
	c.restylePaths()
	c.invalidate()
	return nil
}

// SetOperationalPoints replaces the waypoints of the space axis.
func (c *Chart) SetOperationalPoints(ops []scale.OperationalPoint) {
	c.ctrl.SetOperationalPoints(ops)
}

// SetPaths replaces the drawn trajectories.
func (c *Chart) SetPaths(paths []PathData) {
	c.paths = make([]styledPath, len(paths))
	for i, p := range paths {
		p.Points = slices.Clone(p.Points)
		c.paths[i] = styledPath{PathData: p}
	}
	c.restylePaths()
	c.invalidate()
}

func (c *Chart) restylePaths() {
	for i := range c.paths {
		col := c.palette.Path
		if c.paths[i].Color != "" {
			parsed, err := colorutil.ParseHex(c.paths[i].Color)
			if err != nil {
				c.logger.Warn("path color ignored", "path", c.paths[i].ID, "error", err)
			} else {
				col = parsed
			}
		}
		c.paths[i].color = col
	}
}

// Paths returns the drawn trajectories.
func (c *Chart) Paths() []PathData {
	out := make([]PathData, len(c.paths))
	for i, p := range c.paths {
		out[i] = p.PathData
	}
	return out
}

// SetOccupancyZones replaces the occupancy blocks.
func (c *Chart) SetOccupancyZones(zones []OccupancyZone) {
	c.zones = slices.Clone(zones)
	c.invalidate()
}

// SetConflicts replaces the conflict regions.
func (c *Chart) SetConflicts(conflicts []Conflict) {
	c.conflicts = slices.Clone(conflicts)
	c.invalidate()
}

// SetProportional switches the space axis mode.
func (c *Chart) SetProportional(proportional bool) {
	c.ctrl.SetProportional(proportional)
}

// TimeExtent returns the earliest and latest times of all paths and zones.
func (c *Chart) TimeExtent() (start, end float64, ok bool) {
	var times []float64
	for _, p := range c.paths {
		for _, pt := range p.Points {
			times = append(times, pt.Time)
		}
	}
	for _, z := range c.zones {
		times = append(times, z.TimeStart, z.TimeEnd)
	}
	times = slices.DeleteFunc(times, func(t float64) bool {
		return math.IsNaN(t) || math.IsInf(t, 0)
	})
	if len(times) == 0 {
		return 0, 0, false
	}
	return floats.Min(times), floats.Max(times), true
}

// FitTime zooms the time axis so every path fits the width, with a small margin.
func (c *Chart) FitTime() bool {
	start, end, ok := c.TimeExtent()
	if !ok {
		return false
	}
	margin := (end - start) * 0.02
	c.ctrl.SetTimeWindow(start-margin, end+margin)
	return true
}

// Render draws a frame if anything changed since the last one and returns it.
// The picking buffer is rebuilt in the same pass.
func (c *Chart) Render() (*image.RGBA, error) {
	if !c.dirty && c.last != nil {
		return c.last, nil
	}
	pos, inside := c.ctrl.Pointer()
	pointer := pipeline.Pointer{Position: pos, Inside: inside}
	if h := c.ctrl.Hovered(); h != nil {
		pointer.Hovered, pointer.HasHover = *h, true
	}

	img, err := c.pipe.RenderFrame(pipeline.Frame{
		Width:       c.width,
		Height:      c.height,
		Transform:   c.ctrl.Transform(),
		Palette:     c.palette,
		Pointer:     pointer,
		Tolerance:   c.cfg.Picking.Tolerance,
		SkipPicking: !c.cfg.Picking.Enabled,
	})
	if img == nil {
		return nil, err
	}
	if err != nil {
		c.logger.Warn("frame rendered with errors", "error", err)
	}
	c.last = img
	c.dirty = false
	return img, err
}

// Pick returns the element drawn at (x, y) in the last rendered frame.
func (c *Chart) Pick(x, y int) (picking.Element, bool) {
	return c.pipe.Pick(x, y)
}

// PickingImage returns the picking buffer of the last frame.
func (c *Chart) PickingImage() *image.RGBA {
	return c.pipe.Buffer().Image()
}

// PointerDown forwards a pointer press. modifier selects the zoom rectangle.
func (c *Chart) PointerDown(x, y float64, modifier bool) {
	c.ctrl.OnPointerDown(geometry.NewPoint2D(x, y), modifier)
}

// PointerMove forwards a pointer move.
func (c *Chart) PointerMove(x, y float64) {
	c.ctrl.OnPointerMove(geometry.NewPoint2D(x, y))
}

// PointerUp forwards a pointer release.
func (c *Chart) PointerUp(x, y float64) {
	c.ctrl.OnPointerUp(geometry.NewPoint2D(x, y))
}

// PointerLeave forwards the pointer leaving the canvas.
func (c *Chart) PointerLeave() {
	c.ctrl.OnPointerLeave()
}

// Wheel forwards a wheel notch. modifier zooms instead of scrolling.
func (c *Chart) Wheel(x, y, deltaY float64, modifier bool) {
	c.ctrl.OnWheel(geometry.NewPoint2D(x, y), deltaY, modifier)
}

// ZoomYIn steps the vertical zoom in.
func (c *Chart) ZoomYIn() { c.ctrl.ZoomYIn() }

// ZoomYOut steps the vertical zoom out.
func (c *Chart) ZoomYOut() { c.ctrl.ZoomYOut() }

// ResetZoom restores the default vertical zoom.
func (c *Chart) ResetZoom() { c.ctrl.ResetZoom() }

// SetXZoom moves the horizontal zoom slider.
func (c *Chart) SetXZoom(value float64) { c.ctrl.SetXZoom(value) }

// OnPan registers the pan listener.
func (c *Chart) OnPan(fn func(interaction.Payload)) { c.ctrl.OnPan(fn) }

// OnZoom registers the zoom listener.
func (c *Chart) OnZoom(fn func(interaction.Payload)) { c.ctrl.OnZoom(fn) }

// OnClick registers the click listener.
func (c *Chart) OnClick(fn func(interaction.Payload)) { c.ctrl.OnClick(fn) }

// OnMouseMove registers the pointer move listener.
func (c *Chart) OnMouseMove(fn func(interaction.Payload)) { c.ctrl.OnMouseMove(fn) }

// OnHoveredChildUpdate registers the hover listener.
func (c *Chart) OnHoveredChildUpdate(fn func(*picking.Element)) { c.ctrl.OnHoveredChildUpdate(fn) }

// Close releases the rendering resources.
func (c *Chart) Close() error {
	return c.pipe.Close()
}
