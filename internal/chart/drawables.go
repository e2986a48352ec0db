package chart

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"spacetime-chart/internal/interaction"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/pipeline"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/colorutil"
	"spacetime-chart/pkg/geometry"
)

// registerDrawables wires the built-in layers. Callers may register more on Pipeline().
func (c *Chart) registerDrawables() {
	c.pipe.RegisterLayerDrawable(pipeline.LayerGraduations, c.drawBackground)
	c.pipe.RegisterLayerDrawable(pipeline.LayerGraduations, c.drawTimeGraduations)
	c.pipe.RegisterLayerDrawable(pipeline.LayerGraduations, c.drawSpaceGraduations)
	c.pipe.RegisterLayerDrawable(pipeline.LayerBackground, c.drawOccupancyZones)
	c.pipe.RegisterLayerDrawable(pipeline.LayerPaths, c.drawPaths)
	c.pipe.RegisterLayerDrawable(pipeline.LayerOverlay, c.drawConflicts)
	c.pipe.RegisterLayerDrawable(pipeline.LayerOverlay, c.drawZoomRect)
	c.pipe.RegisterLayerDrawable(pipeline.LayerOverlay, c.drawCursor)
	c.pipe.RegisterLayerDrawable(pipeline.LayerCaptions, c.drawCaptions)

	c.pipe.RegisterPickingDrawable(c.pickOccupancyZones)
	c.pipe.RegisterPickingDrawable(c.pickConflicts)
	c.pipe.RegisterPickingDrawable(c.pickPaths)
	c.pipe.RegisterPickingDrawable(c.maskFooter)
}

// clipBody restricts drawing to the area above the captions footer.
func (c *Chart) clipBody(dc *pipeline.DrawContext) {
	dc.Canvas.DrawRectangle(0, 0, float64(dc.Width), c.BodyHeight())
	dc.Canvas.Clip()
}

func (c *Chart) drawBackground(dc *pipeline.DrawContext) error {
	dc.Canvas.SetColor(c.palette.Background)
	dc.Canvas.DrawRectangle(0, 0, float64(dc.Width), float64(dc.Height))
	return dc.Canvas.Fill()
}

// Time grid steps in ms, finest first.
var timeSteps = []float64{
	1e3, 5e3, 10e3, 30e3,
	60e3, 2 * 60e3, 5 * 60e3, 10 * 60e3, 30 * 60e3,
	3600e3, 2 * 3600e3, 6 * 3600e3, 12 * 3600e3, 24 * 3600e3,
}

const (
	minTickSpacing  = 8.0  // px between minor grid lines
	minLabelSpacing = 64.0 // px between labelled grid lines
	maxTicks        = 4096
)

// gridSteps returns the minor and major time grid steps for msPerPx.
func gridSteps(msPerPx float64) (minor, major float64) {
	minor = timeSteps[len(timeSteps)-1]
	major = minor
	for _, s := range timeSteps {
		if s/msPerPx >= minTickSpacing {
			minor = s
			break
		}
	}
	for _, s := range timeSteps {
		if s >= minor && s/msPerPx >= minLabelSpacing {
			major = s
			break
		}
	}
	return minor, major
}

// ticks returns the multiples of step in [from, to].
func ticks(from, to, step float64) []float64 {
	if step <= 0 || to < from || math.IsNaN(from) || math.IsNaN(to) {
		return nil
	}
	var out []float64
	for t := math.Ceil(from/step) * step; t <= to && len(out) < maxTicks; t += step {
		out = append(out, t)
	}
	return out
}

func (c *Chart) drawTimeGraduations(dc *pipeline.DrawContext) error {
	tr := dc.Transform
	from, to := tr.VisibleTimeRange()
	minor, major := gridSteps(tr.Time.MsPerPx)
	body := c.BodyHeight()

	cv := dc.Canvas
	cv.SetLineWidth(1)
	for _, level := range []struct {
		step float64
		col  color.NRGBA
	}{{minor, c.palette.Grid}, {major, c.palette.GridMajor}} {
		cv.SetColor(level.col)
		for _, t := range ticks(from, to, level.step) {
			x := math.Round(tr.TimeToPixel(t)) + 0.5
			cv.MoveTo(x, 0)
			cv.LineTo(x, body)
		}
		if err := cv.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chart) drawSpaceGraduations(dc *pipeline.DrawContext) error {
	tr := dc.Transform
	if tr.Space == nil {
		return nil
	}
	body := c.BodyHeight()
	width := float64(dc.Width)
	cv := dc.Canvas
	cv.SetLineWidth(1)

	for _, op := range c.ctrl.OperationalPoints() {
		top := tr.SpaceToPixel(op.Position, false)
		bottom := tr.SpaceToPixel(op.Position, true)
		if bottom < 0 || top > body {
			continue
		}
		if bottom-top > 0.5 {
			cv.SetColor(colorutil.WithAlpha(c.palette.Grid, 0.5))
			cv.DrawRectangle(0, top, width, bottom-top)
			if err := cv.Fill(); err != nil {
				return err
			}
		}
		col := c.palette.Grid
		if op.ImportanceLevel > 0 {
			col = c.palette.GridMajor
		}
		cv.SetColor(col)
		for _, y := range []float64{top, bottom} {
			y = math.Round(y) + 0.5
			cv.MoveTo(0, y)
			cv.LineTo(width, y)
		}
		if err := cv.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

// dataRect converts a data space rectangle to pixels. The space end is read from
// the end edge so a rectangle ending on a flat step covers it.
func dataRect(tr *scale.Transform, t0, t1, s0, s1 float64) geometry.Rect {
	a := geometry.NewPoint2D(tr.TimeToPixel(math.Min(t0, t1)), tr.SpaceToPixel(math.Min(s0, s1), false))
	b := geometry.NewPoint2D(tr.TimeToPixel(math.Max(t0, t1)), tr.SpaceToPixel(math.Max(s0, s1), true))
	return geometry.RectFromCorners(a, b)
}

func (c *Chart) zoneRect(tr *scale.Transform, z OccupancyZone) geometry.Rect {
	return dataRect(tr, z.TimeStart, z.TimeEnd, z.SpaceStart, z.SpaceEnd)
}

func (c *Chart) drawOccupancyZones(dc *pipeline.DrawContext) error {
	if len(c.zones) == 0 {
		return nil
	}
	c.clipBody(dc)
	view := geometry.NewRect(0, 0, float64(dc.Width), c.BodyHeight())
	for _, z := range c.zones {
		r := c.zoneRect(dc.Transform, z)
		if !r.Intersects(view) {
			continue
		}
		col := c.palette.OccupancyZone
		if z.Color != "" {
			col = colorutil.MustParseHex(z.Color, col)
		}
		if dc.Pointer.HasHover && dc.Pointer.Hovered == picking.OccupancyZoneOf(z.ID) {
			col = colorutil.WithAlpha(c.palette.Hover, 0.4)
		}
		dc.Canvas.SetColor(col)
		dc.Canvas.DrawRectangle(r.X, r.Y, math.Max(r.Width, 1), math.Max(r.Height, 1))
		if err := dc.Canvas.Fill(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chart) pickOccupancyZones(pc *pipeline.PickingContext) error {
	view := geometry.NewRect(0, 0, float64(pc.Width), float64(pc.Height))
	for _, z := range c.zones {
		r := c.zoneRect(pc.Transform, z)
		if !r.Intersects(view) {
			continue
		}
		pc.Buffer.FillRect(r, pc.Register(picking.OccupancyZoneOf(z.ID)))
	}
	return nil
}

// conflictQuad returns the corners of a conflict region, or nil when a bound is
// not a number.
func (c *Chart) conflictQuad(tr *scale.Transform, cf Conflict) []geometry.Point2D {
	r := dataRect(tr, cf.TimeStart, cf.TimeEnd, cf.SpaceStart, cf.SpaceEnd)
	if math.IsNaN(r.X) || math.IsNaN(r.Y) || math.IsNaN(r.Width) || math.IsNaN(r.Height) {
		return nil
	}
	m := r.Max()
	return []geometry.Point2D{{X: r.X, Y: r.Y}, {X: m.X, Y: r.Y}, {X: m.X, Y: m.Y}, {X: r.X, Y: m.Y}}
}

func (c *Chart) drawConflicts(dc *pipeline.DrawContext) error {
	if len(c.conflicts) == 0 {
		return nil
	}
	c.clipBody(dc)
	cv := dc.Canvas
	for _, cf := range c.conflicts {
		quad := c.conflictQuad(dc.Transform, cf)
		if quad == nil {
			continue
		}
		cv.MoveTo(quad[0].X, quad[0].Y)
		for _, p := range quad[1:] {
			cv.LineTo(p.X, p.Y)
		}
		cv.ClosePath()
		cv.SetColor(c.palette.Conflict)
		if err := cv.FillPreserve(); err != nil {
			return err
		}
		cv.SetColor(colorutil.WithAlpha(c.palette.Conflict, 1))
		cv.SetLineWidth(1)
		if err := cv.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chart) pickConflicts(pc *pipeline.PickingContext) error {
	for _, cf := range c.conflicts {
		if quad := c.conflictQuad(pc.Transform, cf); quad != nil {
			pc.Buffer.FillPolygon(quad, pc.Register(picking.QuadrilateralOf(cf.ID)))
		}
	}
	return nil
}

// maskFooter clears the captions footer so nothing under it is pickable.
func (c *Chart) maskFooter(pc *pipeline.PickingContext) error {
	body := c.BodyHeight()
	if body < float64(pc.Height) {
		pc.Buffer.FillRect(geometry.NewRect(0, math.Ceil(body), float64(pc.Width), float64(pc.Height)), color.RGBA{})
	}
	return nil
}

func (c *Chart) drawZoomRect(dc *pipeline.DrawContext) error {
	zp := c.ctrl.ZoomPanState()
	var r geometry.Rect
	switch {
	case zp.Rect != nil:
		n := zp.Rect.Normalize()
		a := dc.Transform.PixelAt(scale.DataPoint{Time: n.TimeStart, Position: n.SpaceStart}, false)
		b := dc.Transform.PixelAt(scale.DataPoint{Time: n.TimeEnd, Position: n.SpaceEnd}, false)
		r = geometry.RectFromCorners(a, b)
	case zp.PixelRect != nil:
		r = *zp.PixelRect
	default:
		return nil
	}
	if r.Empty() {
		return nil
	}
	cv := dc.Canvas
	cv.SetColor(c.palette.Selection)
	cv.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	if err := cv.Fill(); err != nil {
		return err
	}
	cv.SetColor(colorutil.WithAlpha(c.palette.Selection, 1))
	cv.SetLineWidth(1)
	cv.SetDash(4, 3)
	cv.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	err := cv.Stroke()
	cv.ClearDash()
	return err
}

func (c *Chart) pointerInBody(dc *pipeline.DrawContext) bool {
	p := dc.Pointer
	return p.Inside && p.Position.Y >= 0 && p.Position.Y < c.BodyHeight() &&
		p.Position.X >= 0 && p.Position.X < float64(dc.Width)
}

func (c *Chart) drawCursor(dc *pipeline.DrawContext) error {
	if !c.pointerInBody(dc) || c.ctrl.State() == interaction.StatePanning {
		return nil
	}
	x := math.Round(dc.Pointer.Position.X) + 0.5
	cv := dc.Canvas
	cv.SetColor(c.palette.GridMajor)
	cv.SetLineWidth(1)
	cv.SetDash(2, 2)
	cv.MoveTo(x, 0)
	cv.LineTo(x, c.BodyHeight())
	err := cv.Stroke()
	cv.ClearDash()
	return err
}

// formatTime renders ms since epoch in UTC, with seconds when the grid needs them.
func formatTime(ms float64, withSeconds bool) string {
	t := time.UnixMilli(int64(math.Round(ms))).UTC()
	if withSeconds {
		return t.Format("15:04:05")
	}
	return t.Format("15:04")
}

// formatPosition renders a position in mm as kilometres.
func formatPosition(mm float64) string {
	return fmt.Sprintf("%.3f km", mm/1e6)
}

func (c *Chart) drawCaptions(dc *pipeline.DrawContext) error {
	body := c.BodyHeight()
	footer := float64(dc.Height) - body
	if footer <= 0 {
		return nil
	}
	cv := dc.Canvas
	width := float64(dc.Width)
	cv.SetColor(c.palette.Background)
	cv.DrawRectangle(0, body, width, footer)
	if err := cv.Fill(); err != nil {
		return err
	}
	cv.SetColor(c.palette.GridMajor)
	cv.SetLineWidth(1)
	cv.MoveTo(0, body+0.5)
	cv.LineTo(width, body+0.5)
	if err := cv.Stroke(); err != nil {
		return err
	}
	if dc.Font == nil {
		return nil
	}

	tr := dc.Transform
	from, to := tr.VisibleTimeRange()
	_, major := gridSteps(tr.Time.MsPerPx)
	withSeconds := major < 60e3
	cv.SetFont(dc.Font)
	cv.SetColor(c.palette.Text)
	mid := body + footer/2
	for _, t := range ticks(from, to, major) {
		cv.DrawStringAnchored(formatTime(t, withSeconds), tr.TimeToPixel(t), mid, 0.5, 0.25)
	}

	if c.pointerInBody(dc) {
		d := tr.DataAt(dc.Pointer.Position)
		readout := formatTime(d.Time, true)
		if tr.Space != nil {
			readout += "  " + formatPosition(d.Position)
		}
		if dc.Pointer.HasHover {
			readout += "  " + dc.Pointer.Hovered.String()
		}
		w, h := cv.MeasureString(readout)
		cv.SetColor(c.palette.Background)
		cv.DrawRectangle(width-w-12, mid-h/2-2, w+12, h+4)
		if err := cv.Fill(); err != nil {
			return err
		}
		cv.SetColor(c.palette.Text)
		cv.DrawStringAnchored(readout, width-6, mid, 1, 0.25)
	}
	return nil
}
