package interaction

import (
	"log/slog"
	"math"
	"slices"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimePan enables or disables horizontal panning.
func WithTimePan(enabled bool) Option {
	return func(c *Controller) { c.enableTimePan = enabled }
}

// WithSpacePan enables or disables vertical panning.
func WithSpacePan(enabled bool) Option {
	return func(c *Controller) { c.enableSpacePan = enabled }
}

// WithProportional selects the initial space scale mode.
func WithProportional(proportional bool) Option {
	return func(c *Controller) { c.zp.IsProportional = proportional }
}

// drag holds what a gesture captured at pointer-down.
type drag struct {
	start     geometry.Point2D
	startData scale.DataPoint
	xOffset   float64
	yOffset   float64
}

// Controller is the interaction state machine. It owns the ZoomPanState; every
// mutation clamps into locals first and assigns once, so a drawer never sees an
// out-of-range view. It is not safe for concurrent use.
type Controller struct {
	zoom   config.ZoomConfig
	layout config.LayoutConfig
	limits scale.ZoomLimits

	state State
	zp    ZoomPanState
	drag  drag

	ops  []scale.OperationalPoint
	tree *scale.SpaceScaleTree

	width, height float64

	enableTimePan  bool
	enableSpacePan bool

	pointer       geometry.Point2D
	pointerInside bool
	hovered       *picking.Element
	picker        Picker

	onPan          func(Payload)
	onZoom         func(Payload)
	onClick        func(Payload)
	onMouseMove    func(Payload)
	onHoveredChild func(*picking.Element)
	onChange       func()

	logger *slog.Logger
}

// New creates an idle controller with the time axis at cfg.Zoom.DefaultMsPerPx.
func New(cfg config.Config, opts ...Option) *Controller {
	c := &Controller{
		zoom:           cfg.Zoom,
		layout:         cfg.Layout,
		limits:         scale.NewZoomLimits(cfg.Zoom),
		enableTimePan:  true,
		enableSpacePan: true,
		logger:         slog.New(slog.DiscardHandler),
	}
	c.zp.TimeScale = c.limits.ClampTimeScale(cfg.Zoom.DefaultMsPerPx)
	c.zp.YZoom = geometry.Clamp(1, cfg.Zoom.MinZoomY, cfg.Zoom.MaxZoomY)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnPan registers the pan listener.
func (c *Controller) OnPan(fn func(Payload)) { c.onPan = fn }

// OnZoom registers the zoom listener.
func (c *Controller) OnZoom(fn func(Payload)) { c.onZoom = fn }

// OnClick registers the click listener. Clicks are zero-distance drags.
func (c *Controller) OnClick(fn func(Payload)) { c.onClick = fn }

// OnMouseMove registers the pointer move listener.
func (c *Controller) OnMouseMove(fn func(Payload)) { c.onMouseMove = fn }

// OnHoveredChildUpdate registers the listener called when the hovered element
// changes; it receives nil when the pointer leaves every element.
func (c *Controller) OnHoveredChildUpdate(fn func(*picking.Element)) { c.onHoveredChild = fn }

// OnChange registers a callback run after every view state change.
func (c *Controller) OnChange(fn func()) { c.onChange = fn }

// SetPicker sets the hit tester used for hover and clicks.
func (c *Controller) SetPicker(p Picker) { c.picker = p }

// State returns the gesture state.
func (c *Controller) State() State { return c.state }

// ZoomPanState returns a copy of the view state.
func (c *Controller) ZoomPanState() ZoomPanState { return c.zp.clone() }

// Viewport returns the size of the scrollable chart body.
func (c *Controller) Viewport() geometry.Size { return geometry.NewSize(c.width, c.height) }

// OperationalPoints returns the waypoints sorted by position.
func (c *Controller) OperationalPoints() []scale.OperationalPoint {
	return slices.Clone(c.ops)
}

// Pointer returns the last pointer position and whether it is over the chart.
func (c *Controller) Pointer() (geometry.Point2D, bool) { return c.pointer, c.pointerInside }

// Hovered returns the element under the pointer, nil if none.
func (c *Controller) Hovered() *picking.Element { return c.hovered }

// SpaceTree returns the scale tree of the current state, nil without waypoints.
func (c *Controller) SpaceTree() *scale.SpaceScaleTree { return c.tree }

// Transform returns the read-only transform of the current state.
func (c *Controller) Transform() *scale.Transform {
	return c.transformFor(c.zp.TimeScale, c.zp.XOffset, c.zp.YOffset, c.tree)
}

func (c *Controller) transformFor(msPerPx, xOffset, yOffset float64, tree *scale.SpaceScaleTree) *scale.Transform {
	return &scale.Transform{
		Time:    scale.TimeScale{Origin: c.zp.TimeOrigin, MsPerPx: msPerPx, Offset: xOffset},
		Space:   tree,
		YOffset: yOffset,
		Width:   c.width,
		Height:  c.height,
	}
}

// ContentHeight returns the pixel height of all space scales.
func (c *Controller) ContentHeight() float64 {
	return scale.ContentHeight(c.zp.SpaceScales)
}

// ScrollHeight returns the scrollable height: the scales plus one unzoomed row
// below the last waypoint for its label.
func (c *Controller) ScrollHeight() float64 {
	return c.scrollHeight(c.zp.SpaceScales)
}

// MaxYOffset returns the largest vertical scroll.
func (c *Controller) MaxYOffset() float64 {
	return c.maxYOffset(c.zp.SpaceScales)
}

func (c *Controller) scrollHeight(scales []scale.SpaceScale) float64 {
	if len(scales) == 0 {
		return 0
	}
	return scale.ContentHeight(scales) + c.layout.BaseWaypointHeight
}

func (c *Controller) maxYOffset(scales []scale.SpaceScale) float64 {
	return math.Max(c.scrollHeight(scales)-c.height, 0)
}

// SetViewport sets the size of the scrollable chart body and rebuilds the
// proportional scale, which depends on the height.
func (c *Controller) SetViewport(width, height float64) {
	c.width, c.height = math.Max(width, 0), math.Max(height, 0)
	c.rebuild(c.zp.YZoom, c.zp.YOffset)
}

// SetOperationalPoints replaces the waypoints. They are sorted by position.
func (c *Controller) SetOperationalPoints(ops []scale.OperationalPoint) {
	sorted := slices.Clone(ops)
	slices.SortStableFunc(sorted, func(a, b scale.OperationalPoint) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})
	c.ops = sorted
	c.rebuild(c.zp.YZoom, c.zp.YOffset)
}

// SetProportional switches between proportional and linear space scales. The
// vertical scroll is reset since pixel heights change completely.
func (c *Controller) SetProportional(proportional bool) {
	if c.zp.IsProportional == proportional {
		return
	}
	c.zp.IsProportional = proportional
	c.rebuild(c.zp.YZoom, 0)
}

// SetPanEnabled toggles panning per axis.
func (c *Controller) SetPanEnabled(timePan, spacePan bool) {
	c.enableTimePan, c.enableSpacePan = timePan, spacePan
}

// SetTimeWindow fits [start, end] into the viewport width.
func (c *Controller) SetTimeWindow(start, end float64) {
	if end < start {
		start, end = end, start
	}
	ts := c.zp.TimeScale
	if c.width > 0 && end > start {
		ts = c.limits.ClampTimeScale((end - start) / c.width)
	}
	xOffset := 0.0
	if span := (end - start) / ts; span < c.width {
		xOffset = (c.width - span) / 2
	}
	c.zp.TimeOrigin = start
	c.zp.TimeScale = ts
	c.zp.XOffset = xOffset
	c.changed()
}

// SetTimeView restores a time axis: origin, ms/px and pixel offset.
func (c *Controller) SetTimeView(origin, msPerPx, xOffset float64) {
	ts := c.limits.ClampTimeScale(msPerPx)
	if math.IsNaN(xOffset) || math.IsInf(xOffset, 0) {
		xOffset = 0
	}
	c.zp.TimeOrigin = origin
	c.zp.TimeScale = ts
	c.zp.XOffset = xOffset
	c.changed()
}

// ScrollTo sets the vertical scroll, clamped to the content.
func (c *Controller) ScrollTo(yOffset float64) {
	y := geometry.Clamp(yOffset, 0, c.MaxYOffset())
	if math.IsNaN(y) || y == c.zp.YOffset {
		return
	}
	c.zp.YOffset = y
	c.changed()
}

// buildScales computes the space scales and tree the current waypoints give at
// yZoom. Fewer than two waypoints give an empty axis.
func (c *Controller) buildScales(yZoom float64) ([]scale.SpaceScale, *scale.SpaceScaleTree, float64) {
	origin := 0.0
	if len(c.ops) > 0 {
		origin = c.ops[0].Position
	}
	scales := scale.GetScales(c.ops, scale.ScaleOptions{
		Height:             c.height,
		IsProportional:     c.zp.IsProportional,
		YZoom:              yZoom,
		BaseWaypointHeight: c.layout.BaseWaypointHeight,
	})
	if len(scales) == 0 {
		return nil, nil, origin
	}
	tree, err := scale.NewSpaceScaleTree(origin, scales)
	if err != nil {
		c.logger.Warn("space scales rejected", "error", err)
		return nil, nil, origin
	}
	return scales, tree, origin
}

// rebuild regenerates the space axis for yZoom and assigns it together with the
// clamped scroll.
func (c *Controller) rebuild(yZoom, yOffset float64) {
	scales, tree, origin := c.buildScales(yZoom)
	y := geometry.Clamp(yOffset, 0, c.maxYOffset(scales))
	if math.IsNaN(y) {
		y = 0
	}

	c.zp.SpaceOrigin = origin
	c.zp.SpaceScales = scales
	c.zp.YZoom = yZoom
	c.zp.YOffset = y
	c.tree = tree
	c.changed()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller) payload(pos geometry.Point2D) Payload {
	tr := c.Transform()
	return Payload{
		InitialPosition: c.drag.start,
		Position:        pos,
		InitialData:     c.drag.startData,
		Data:            tr.DataAt(pos),
		IsPanning:       c.zp.Panning,
		Context:         tr,
	}
}

// pointPayload describes an event that is not part of a drag: it starts and
// ends at pos.
func (c *Controller) pointPayload(pos geometry.Point2D) Payload {
	p := c.payload(pos)
	p.InitialPosition, p.InitialData = pos, p.Data
	return p
}

func emit(fn func(Payload), p Payload) {
	if fn != nil {
		fn(p)
	}
}
