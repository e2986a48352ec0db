// Package interaction owns the chart's zoom and pan state and the pointer state
// machine that mutates it: drag to pan, modifier-drag to zoom on a rectangle,
// modifier-wheel to zoom around the pointer, plain wheel to scroll.
package interaction

import (
	"math"

	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

// State is the gesture state of a Controller.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateZoomRectActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePanning:
		return "panning"
	case StateZoomRectActive:
		return "zoom-rect-active"
	default:
		return "unknown"
	}
}

// DataRect is a rectangle in data space.
type DataRect struct {
	TimeStart  float64
	TimeEnd    float64
	SpaceStart float64
	SpaceEnd   float64
}

// Normalize returns r with start <= end on both axes.
func (r DataRect) Normalize() DataRect {
	return DataRect{
		TimeStart:  math.Min(r.TimeStart, r.TimeEnd),
		TimeEnd:    math.Max(r.TimeStart, r.TimeEnd),
		SpaceStart: math.Min(r.SpaceStart, r.SpaceEnd),
		SpaceEnd:   math.Max(r.SpaceStart, r.SpaceEnd),
	}
}

// ZoomPanState is the view state shared by the scale system, the draw pipeline and
// the manchette. Only the Controller writes it.
type ZoomPanState struct {
	TimeOrigin float64 // ms
	TimeScale  float64 // ms per pixel
	XOffset    float64 // pixel of TimeOrigin
	YOffset    float64 // vertical scroll, in pixels

	SpaceOrigin    float64
	SpaceScales    []scale.SpaceScale
	YZoom          float64
	IsProportional bool

	Panning bool
	// Rect is the zoom rectangle in data space (proportional mode).
	Rect *DataRect
	// PixelRect is the zoom rectangle in canvas pixels (linear mode).
	PixelRect *geometry.Rect
}

func (s ZoomPanState) clone() ZoomPanState {
	out := s
	out.SpaceScales = append([]scale.SpaceScale(nil), s.SpaceScales...)
	if s.Rect != nil {
		r := *s.Rect
		out.Rect = &r
	}
	if s.PixelRect != nil {
		r := *s.PixelRect
		out.PixelRect = &r
	}
	return out
}

// Payload is delivered with every interaction event. Data is the pointer position in
// data space; Context is the transform the positions were resolved with.
type Payload struct {
	InitialPosition geometry.Point2D
	Position        geometry.Point2D
	InitialData     scale.DataPoint
	Data            scale.DataPoint
	IsPanning       bool
	Context         *scale.Transform

	// Element is the picked element for clicks, nil when nothing was hit.
	Element *picking.Element
}

// Picker resolves the element drawn at a canvas pixel.
type Picker interface {
	Pick(x, y int) (picking.Element, bool)
}
