package scale

import "math"

// OperationalPoint is a labelled position on the space axis.
type OperationalPoint struct {
	ID              string  `json:"id" yaml:"id"`
	Label           string  `json:"label,omitempty" yaml:"label,omitempty"`
	Position        float64 `json:"position" yaml:"position"`
	ImportanceLevel int     `json:"importanceLevel,omitempty" yaml:"importanceLevel,omitempty"`
}

// ScaleOptions drives GetScales.
type ScaleOptions struct {
	Height             float64
	IsProportional     bool
	YZoom              float64
	BaseWaypointHeight float64
}

// MinZoomMillimeterPerPx is the coefficient that fits the whole waypoint range in
// height at yZoom 1. The last waypoint row is kept out of the drawable height.
func MinZoomMillimeterPerPx(ops []OperationalPoint, height, baseWaypointHeight float64) float64 {
	if len(ops) < 2 {
		return 0
	}
	drawable := math.Max(height-baseWaypointHeight, 1)
	return (ops[len(ops)-1].Position - ops[0].Position) / drawable
}

// GetScales builds the space scales for ops, which must be sorted by position.
// Proportional mode yields one scale spanning all waypoints; linear mode yields one
// fixed-height scale per pair of consecutive waypoints.
func GetScales(ops []OperationalPoint, opts ScaleOptions) []SpaceScale {
	if len(ops) < 2 {
		return nil
	}
	yZoom := opts.YZoom
	if yZoom <= 0 || math.IsNaN(yZoom) {
		yZoom = 1
	}

	if !opts.IsProportional {
		scales := make([]SpaceScale, 0, len(ops)-1)
		for i := 0; i < len(ops)-1; i++ {
			scales = append(scales, SpaceScale{
				From: ops[i].Position,
				To:   ops[i+1].Position,
				Size: opts.BaseWaypointHeight * yZoom,
			})
		}
		return scales
	}

	return []SpaceScale{{
		From:        ops[0].Position,
		To:          ops[len(ops)-1].Position,
		Coefficient: MinZoomMillimeterPerPx(ops, opts.Height, opts.BaseWaypointHeight) / yZoom,
	}}
}

// ContentHeight returns the total pixel height of scales, the scrollable
// height of the chart body.
func ContentHeight(scales []SpaceScale) float64 {
	var h float64
	for _, s := range scales {
		h += s.PixelHeight()
	}
	return h
}
