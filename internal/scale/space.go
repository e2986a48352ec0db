// Package scale converts between data coordinates (time in ms, track position in mm)
// and pixel coordinates. The space axis is piecewise: an ordered list of SpaceScale
// ranges, each either proportional (constant mm per pixel) or linear (an exact pixel
// height), where zero-length ranges with a pixel height form flat steps.
package scale

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNoScales is returned when a tree is built from an empty scale list.
	ErrNoScales = errors.New("no space scales")
	// ErrUnorderedScales is returned for reversed, overlapping or NaN ranges.
	ErrUnorderedScales = errors.New("space scales must be ordered and non-overlapping")
)

// SpaceScale describes one contiguous range of the space axis.
//
// When Size is positive the range is drawn exactly Size pixels high (linear mode).
// Otherwise Coefficient gives the space units (mm) per pixel (proportional mode).
type SpaceScale struct {
	From        float64 `json:"from" yaml:"from"`
	To          float64 `json:"to" yaml:"to"`
	Coefficient float64 `json:"coefficient,omitempty" yaml:"coefficient,omitempty"`
	Size        float64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// IsFlat reports whether the scale covers a single space value.
func (s SpaceScale) IsFlat() bool {
	return s.From == s.To
}

// PixelHeight returns the height the scale occupies on screen. Degenerate
// scales (zero length without size, non-positive size or coefficient) resolve
// to a 1 pixel step.
func (s SpaceScale) PixelHeight() float64 {
	if s.Size > 0 && !math.IsInf(s.Size, 0) {
		return s.Size
	}
	length := s.To - s.From
	if length == 0 {
		return 1
	}
	if s.Coefficient > 0 && !math.IsInf(s.Coefficient, 0) {
		return length / s.Coefficient
	}
	return 1
}

// segment is a SpaceScale with its pixel range resolved.
type segment struct {
	from, to           float64
	pixelFrom, pixelTo float64
}

func (s segment) ratio() float64 {
	return (s.pixelTo - s.pixelFrom) / (s.to - s.from)
}

// SpaceScaleTree resolves positions and pixels over a piecewise scale. Segments are
// kept in a sorted slice searched by bisection, so lookups are O(log n) and a
// build is a single O(n) pass. Pixel 0 is the pixel of the origin position.
//
// The tree is immutable; rebuild it whenever the scales or the origin change.
type SpaceScaleTree struct {
	segments []segment
	origin   float64
}

// NewSpaceScaleTree builds the lookup structure for scales, with origin mapped to pixel 0.
func NewSpaceScaleTree(origin float64, scales []SpaceScale) (*SpaceScaleTree, error) {
	if len(scales) == 0 {
		return nil, ErrNoScales
	}

	segments := make([]segment, len(scales))
	var pixel float64
	for i, s := range scales {
		if math.IsNaN(s.From) || math.IsNaN(s.To) || s.From > s.To {
			return nil, fmt.Errorf("%w: scale %d [%g, %g]", ErrUnorderedScales, i, s.From, s.To)
		}
		if i > 0 && s.From < scales[i-1].To {
			return nil, fmt.Errorf("%w: scale %d starts at %g before previous end %g",
				ErrUnorderedScales, i, s.From, scales[i-1].To)
		}
		h := s.PixelHeight()
		segments[i] = segment{from: s.From, to: s.To, pixelFrom: pixel, pixelTo: pixel + h}
		pixel += h
	}

	t := &SpaceScaleTree{segments: segments, origin: origin}
	base := t.SpaceToPixel(origin, false)
	if base != 0 && !math.IsNaN(base) {
		for i := range t.segments {
			t.segments[i].pixelFrom -= base
			t.segments[i].pixelTo -= base
		}
	}
	return t, nil
}

// Origin returns the position mapped to pixel 0.
func (t *SpaceScaleTree) Origin() float64 {
	return t.origin
}

// Len returns the number of scales in the tree.
func (t *SpaceScaleTree) Len() int {
	return len(t.segments)
}

// Bounds returns the pixels of the first scale start and the last scale end.
func (t *SpaceScaleTree) Bounds() (top, bottom float64) {
	return t.segments[0].pixelFrom, t.segments[len(t.segments)-1].pixelTo
}

// Height returns the total pixel height of all scales.
func (t *SpaceScaleTree) Height() float64 {
	top, bottom := t.Bounds()
	return bottom - top
}

// SpaceRange returns the first and last covered positions.
func (t *SpaceScaleTree) SpaceRange() (from, to float64) {
	return t.segments[0].from, t.segments[len(t.segments)-1].to
}

// SpaceToPixel returns the pixel of position. On a flat step the position has two
// pixels: readFromEnd=false returns the start edge, true the end edge. Positions
// outside the covered range are extrapolated with the boundary scale's ratio.
func (t *SpaceScaleTree) SpaceToPixel(position float64, readFromEnd bool) float64 {
	if math.IsNaN(position) {
		return math.NaN()
	}
	segs := t.segments
	first, last := segs[0], segs[len(segs)-1]

	if position < first.from {
		if first.to == first.from {
			return first.pixelFrom
		}
		return first.pixelFrom - (first.from-position)*first.ratio()
	}
	if position > last.to {
		if last.to == last.from {
			return last.pixelTo
		}
		return last.pixelTo + (position-last.to)*last.ratio()
	}

	var i int
	if readFromEnd {
		i = sort.Search(len(segs), func(i int) bool { return segs[i].from > position }) - 1
	} else {
		i = sort.Search(len(segs), func(i int) bool { return segs[i].to >= position })
	}
	seg := segs[min(max(i, 0), len(segs)-1)]
	if seg.to == seg.from {
		if readFromEnd {
			return seg.pixelTo
		}
		return seg.pixelFrom
	}

	// Positions inside a gap between two scales clamp to the shared pixel.
	r := (position - seg.from) / (seg.to - seg.from)
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}
	return seg.pixelFrom + r*(seg.pixelTo-seg.pixelFrom)
}

// PixelToSpace returns the position drawn at pixel. Every pixel inside a flat
// step resolves to the step's position.
func (t *SpaceScaleTree) PixelToSpace(pixel float64) float64 {
	if math.IsNaN(pixel) {
		return math.NaN()
	}
	segs := t.segments
	first, last := segs[0], segs[len(segs)-1]

	if pixel < first.pixelFrom {
		if first.to == first.from {
			return first.from
		}
		return first.from - (first.pixelFrom-pixel)/first.ratio()
	}
	if pixel > last.pixelTo {
		if last.to == last.from {
			return last.to
		}
		return last.to + (pixel-last.pixelTo)/last.ratio()
	}

	i := sort.Search(len(segs), func(i int) bool { return segs[i].pixelTo >= pixel })
	seg := segs[min(i, len(segs)-1)]
	if seg.to == seg.from || seg.pixelTo == seg.pixelFrom {
		return seg.from
	}
	return seg.from + (pixel-seg.pixelFrom)/(seg.pixelTo-seg.pixelFrom)*(seg.to-seg.from)
}
