package scale

import "spacetime-chart/pkg/geometry"

// DataPoint is a coordinate in data space: time in ms, position in mm.
type DataPoint struct {
	Time     float64 `json:"time" yaml:"time"`
	Position float64 `json:"position" yaml:"position"`
}

// Transform is the read-only view transform handed to drawing callbacks and
// event listeners. YOffset is the vertical scroll amount, so a larger offset
// moves content up.
type Transform struct {
	Time    TimeScale
	Space   *SpaceScaleTree
	YOffset float64
	Width   float64
	Height  float64
}

// TimeToPixel returns the x pixel of time t.
func (tr *Transform) TimeToPixel(t float64) float64 {
	return tr.Time.TimeToPixel(t)
}

// PixelToTime returns the time at x pixel.
func (tr *Transform) PixelToTime(x float64) float64 {
	return tr.Time.PixelToTime(x)
}

// SpaceToPixel returns the y pixel of position; see SpaceScaleTree.SpaceToPixel
// for readFromEnd.
func (tr *Transform) SpaceToPixel(position float64, readFromEnd bool) float64 {
	if tr.Space == nil {
		return -tr.YOffset
	}
	return tr.Space.SpaceToPixel(position, readFromEnd) - tr.YOffset
}

// PixelToSpace returns the position at y pixel.
func (tr *Transform) PixelToSpace(y float64) float64 {
	if tr.Space == nil {
		return 0
	}
	return tr.Space.PixelToSpace(y + tr.YOffset)
}

// DataAt converts a pixel position into data space.
func (tr *Transform) DataAt(p geometry.Point2D) DataPoint {
	return DataPoint{Time: tr.PixelToTime(p.X), Position: tr.PixelToSpace(p.Y)}
}

// PixelAt converts a data point into pixels.
func (tr *Transform) PixelAt(d DataPoint, readFromEnd bool) geometry.Point2D {
	return geometry.Point2D{X: tr.TimeToPixel(d.Time), Y: tr.SpaceToPixel(d.Position, readFromEnd)}
}

// VisibleTimeRange returns the times at the left and right canvas edges.
func (tr *Transform) VisibleTimeRange() (from, to float64) {
	return tr.PixelToTime(0), tr.PixelToTime(tr.Width)
}

// SegmentVisible reports whether the pixel segment a-b can touch the canvas,
// padded by margin pixels. Segments entirely off one side are skipped by drawers.
func (tr *Transform) SegmentVisible(a, b geometry.Point2D, margin float64) bool {
	switch {
	case a.X < -margin && b.X < -margin:
		return false
	case a.X > tr.Width+margin && b.X > tr.Width+margin:
		return false
	case a.Y < -margin && b.Y < -margin:
		return false
	case a.Y > tr.Height+margin && b.Y > tr.Height+margin:
		return false
	}
	return true
}
