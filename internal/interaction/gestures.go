package interaction

import (
	"math"

	"spacetime-chart/internal/picking"
	"spacetime-chart/pkg/geometry"
)

// OnPointerDown starts a gesture: a pan, or a zoom rectangle when the zoom
// modifier is held. It is ignored unless the controller is idle.
func (c *Controller) OnPointerDown(pos geometry.Point2D, modifier bool) {
	if c.state != StateIdle {
		return
	}
	c.pointer, c.pointerInside = pos, true
	c.drag = drag{
		start:     pos,
		startData: c.Transform().DataAt(pos),
		xOffset:   c.zp.XOffset,
		yOffset:   c.zp.YOffset,
	}
	if modifier {
		c.state = StateZoomRectActive
		c.updateRect(pos)
		return
	}
	c.state = StatePanning
	c.zp.Panning = true
}

// OnPointerMove tracks the pointer, drives the active gesture and refreshes the
// hovered element while no gesture is running.
func (c *Controller) OnPointerMove(pos geometry.Point2D) {
	c.pointer, c.pointerInside = pos, true

	switch c.state {
	case StatePanning:
		c.pan(pos)
		emit(c.onPan, c.payload(pos))
	case StateZoomRectActive:
		c.updateRect(pos)
		c.changed()
	default:
		c.updateHover(pos)
		// The cursor and its readout follow the pointer.
		c.changed()
		emit(c.onMouseMove, c.pointPayload(pos))
		return
	}
	emit(c.onMouseMove, c.payload(pos))
}

// OnPointerUp ends the active gesture. A gesture that never moved is a click:
// it picks the element under the pointer and commits neither pan nor zoom.
func (c *Controller) OnPointerUp(pos geometry.Point2D) {
	state := c.state
	if state == StateIdle {
		return
	}
	click := pos == c.drag.start

	switch {
	case click:
		if state == StatePanning {
			c.zp.XOffset, c.zp.YOffset = c.drag.xOffset, c.drag.yOffset
		}
		c.resetGesture()
		p := c.payload(pos)
		if el, ok := c.pick(pos); ok {
			p.Element = &el
		}
		c.changed()
		emit(c.onClick, p)
	case state == StatePanning:
		c.pan(pos)
		c.resetGesture()
		c.changed()
		emit(c.onPan, c.payload(pos))
	case state == StateZoomRectActive:
		c.updateRect(pos)
		c.commitRectZoom()
		c.resetGesture()
		c.changed()
		emit(c.onZoom, c.payload(pos))
	}
}

// OnPointerLeave ends a pan where it is, drops an uncommitted zoom rectangle and
// clears the hover.
func (c *Controller) OnPointerLeave() {
	c.pointerInside = false
	if c.state != StateIdle {
		c.resetGesture()
	}
	c.changed()
	c.setHovered(nil)
}

// OnWheel handles a wheel notch at pos. deltaY > 0 scrolls down or, with the
// zoom modifier, zooms out; the time under the pointer stays under the pointer.
func (c *Controller) OnWheel(pos geometry.Point2D, deltaY float64, modifier bool) {
	if deltaY == 0 || math.IsNaN(deltaY) {
		return
	}
	c.pointer, c.pointerInside = pos, true

	if !modifier {
		y := geometry.Clamp(c.zp.YOffset+deltaY, 0, c.MaxYOffset())
		if y == c.zp.YOffset {
			return
		}
		c.zp.YOffset = y
		c.changed()
		emit(c.onPan, c.pointPayload(pos))
		return
	}

	step := c.zoom.WheelStep
	if deltaY > 0 {
		step = -step
	}
	value := c.limits.TimeScaleToZoomValue(c.zp.TimeScale) + step
	c.zoomTimeAround(pos.X, c.limits.ZoomValueToTimeScale(value))
	emit(c.onZoom, c.pointPayload(pos))
}

// zoomTimeAround switches to msPerPx keeping the time at pixel x fixed.
func (c *Controller) zoomTimeAround(x, msPerPx float64) {
	ts := c.limits.ClampTimeScale(msPerPx)
	t := c.Transform().PixelToTime(x)
	xOffset := x - (t-c.zp.TimeOrigin)/ts

	c.zp.TimeScale = ts
	c.zp.XOffset = xOffset
	c.changed()
}

func (c *Controller) pan(pos geometry.Point2D) {
	x, y := c.zp.XOffset, c.zp.YOffset
	if c.enableTimePan {
		x = c.drag.xOffset + (pos.X - c.drag.start.X)
	}
	if c.enableSpacePan {
		y = geometry.Clamp(c.drag.yOffset-(pos.Y-c.drag.start.Y), 0, c.MaxYOffset())
	}
	c.zp.XOffset, c.zp.YOffset = x, y
	c.changed()
}

// updateRect stretches the zoom rectangle from the drag start to pos: in data
// space when proportional, in pixels otherwise.
func (c *Controller) updateRect(pos geometry.Point2D) {
	if c.zp.IsProportional {
		d := c.Transform().DataAt(pos)
		c.zp.Rect = &DataRect{
			TimeStart:  c.drag.startData.Time,
			TimeEnd:    d.Time,
			SpaceStart: c.drag.startData.Position,
			SpaceEnd:   d.Position,
		}
		c.zp.PixelRect = nil
		return
	}
	r := geometry.RectFromCorners(c.drag.start, pos)
	c.zp.PixelRect = &r
	c.zp.Rect = nil
}

func (c *Controller) resetGesture() {
	c.state = StateIdle
	c.zp.Panning = false
	c.zp.Rect = nil
	c.zp.PixelRect = nil
}

func (c *Controller) pick(pos geometry.Point2D) (picking.Element, bool) {
	if c.picker == nil {
		return picking.Element{}, false
	}
	return c.picker.Pick(int(math.Floor(pos.X)), int(math.Floor(pos.Y)))
}

func (c *Controller) updateHover(pos geometry.Point2D) {
	el, ok := c.pick(pos)
	if !ok {
		c.setHovered(nil)
		return
	}
	c.setHovered(&el)
}

func (c *Controller) setHovered(el *picking.Element) {
	switch {
	case el == nil && c.hovered == nil:
		return
	case el != nil && c.hovered != nil && *el == *c.hovered:
		return
	}
	c.hovered = el
	c.changed()
	if c.onHoveredChild != nil {
		c.onHoveredChild(el)
	}
}
