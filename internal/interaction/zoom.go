package interaction

import (
	"math"

	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

// ZoomValue returns the horizontal zoom slider value of the current time scale.
func (c *Controller) ZoomValue() float64 {
	return c.limits.TimeScaleToZoomValue(c.zp.TimeScale)
}

// SetXZoom moves the horizontal zoom slider to value, keeping the time at the
// viewport center in place.
func (c *Controller) SetXZoom(value float64) {
	c.zoomTimeAround(c.width/2, c.limits.ZoomValueToTimeScale(value))
	emit(c.onZoom, c.pointPayload(c.pointer))
}

// ZoomYIn increases the vertical zoom by one step.
func (c *Controller) ZoomYIn() {
	c.SetYZoom(c.zp.YZoom + c.zoom.ZoomYDelta)
}

// ZoomYOut decreases the vertical zoom by one step.
func (c *Controller) ZoomYOut() {
	c.SetYZoom(c.zp.YZoom - c.zoom.ZoomYDelta)
}

// ResetZoom restores yZoom 1 and scrolls back to the top.
func (c *Controller) ResetZoom() {
	c.rebuild(geometry.Clamp(1, c.zoom.MinZoomY, c.zoom.MaxZoomY), 0)
	emit(c.onZoom, c.pointPayload(c.pointer))
}

// SetYZoom sets the vertical zoom within [MinZoomY, MaxZoomY]. The scroll is
// scaled by the same ratio so the content at the top edge stays roughly in place.
func (c *Controller) SetYZoom(yZoom float64) {
	z := geometry.Clamp(yZoom, c.zoom.MinZoomY, c.zoom.MaxZoomY)
	if math.IsNaN(z) || z == c.zp.YZoom {
		return
	}
	ratio := 1.0
	if c.zp.YZoom > 0 {
		ratio = z / c.zp.YZoom
	}
	c.rebuild(z, c.zp.YOffset*ratio)
	emit(c.onZoom, c.pointPayload(c.pointer))
}

// commitRectZoom zooms so the selection fills the viewport and the selection's
// top-left corner lands on the viewport's top-left corner.
func (c *Controller) commitRectZoom() {
	tr := c.Transform()
	ts, xOffset := c.zp.TimeScale, c.zp.XOffset
	yZoom, yOffset := c.zp.YZoom, c.zp.YOffset

	var tStart, tEnd float64
	switch {
	case c.zp.IsProportional && c.zp.Rect != nil:
		r := c.zp.Rect.Normalize()
		tStart, tEnd = r.TimeStart, r.TimeEnd
		yZoom, yOffset = c.proportionalRectZoom(r, yZoom, yOffset)
	case !c.zp.IsProportional && c.zp.PixelRect != nil:
		pr := *c.zp.PixelRect
		tStart, tEnd = tr.PixelToTime(pr.X), tr.PixelToTime(pr.X+pr.Width)
		yZoom, yOffset = c.linearRectZoom(pr, yZoom, yOffset)
	default:
		return
	}

	if tEnd > tStart && c.width > 0 {
		ts = c.limits.ClampTimeScale((tEnd - tStart) / c.width)
		xOffset = -(tStart - c.zp.TimeOrigin) / ts
	}

	c.logger.Debug("rectangle zoom",
		"msPerPx", ts,
		"yZoom", yZoom,
		"proportional", c.zp.IsProportional)

	c.zp.TimeScale = ts
	c.zp.XOffset = xOffset
	c.rebuild(yZoom, yOffset)
}

// proportionalRectZoom picks the coefficient that makes the space span of r fill
// the viewport, expressed as a yZoom over the fit-all coefficient.
func (c *Controller) proportionalRectZoom(r DataRect, yZoom, yOffset float64) (float64, float64) {
	span := r.SpaceEnd - r.SpaceStart
	fit := scale.MinZoomMillimeterPerPx(c.ops, c.height, c.layout.BaseWaypointHeight)
	if span <= 0 || fit <= 0 || c.height <= 0 {
		return yZoom, yOffset
	}
	coefficient := span / c.height
	z := geometry.Clamp(fit/coefficient, c.zoom.MinZoomY, c.zoom.MaxZoomY)
	_, tree, _ := c.buildScales(z)
	if tree == nil {
		return yZoom, yOffset
	}
	return z, tree.SpaceToPixel(r.SpaceStart, false)
}

// linearRectZoom derives a waypoint height from the number of waypoints the pixel
// rectangle spans. The height is capped so MinVisibleStops waypoints stay visible.
func (c *Controller) linearRectZoom(pr geometry.Rect, yZoom, yOffset float64) (float64, float64) {
	base := c.layout.BaseWaypointHeight
	rowHeight := base * c.zp.YZoom
	n := len(c.ops)
	if pr.Height <= 0 || rowHeight <= 0 || n < 2 {
		return yZoom, yOffset
	}

	top := pr.Y + c.zp.YOffset
	bottom := pr.Y + pr.Height + c.zp.YOffset
	first := min(max(int(math.Floor(top/rowHeight)), 0), n-1)
	last := min(max(int(math.Ceil(bottom/rowHeight)), 0), n-1)
	stops := max(last-first, 1)

	drawing := math.Max(c.height-c.layout.TopPadding, 1)
	height := drawing / float64(stops)
	if minStops := c.zoom.MinVisibleStops; minStops > 0 {
		height = math.Min(height, drawing/float64(minStops))
	}
	z := geometry.Clamp(height/base, c.zoom.MinZoomY, c.zoom.MaxZoomY)
	return z, float64(first) * base * z
}
