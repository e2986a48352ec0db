// Package picking implements color-encoded hit testing. Every interactive
// primitive is drawn a second time into an off-screen buffer, aliased, in a flat
// color that encodes its registry index; a hit test reads back a single pixel.
package picking

import "fmt"

// Kind tags what a picking Element refers to.
type Kind int

const (
	KindPoint Kind = iota
	KindSegment
	KindQuadrilateral
	KindOccupancyZone
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindSegment:
		return "segment"
	case KindQuadrilateral:
		return "quadrilateral"
	case KindOccupancyZone:
		return "occupancyZone"
	default:
		return "unknown"
	}
}

// Element identifies a hit primitive. PathID and Index are set for points
// (vertex index) and segments (index of the segment's first vertex); ID is set
// for quadrilaterals and occupancy zones.
type Element struct {
	Kind   Kind
	ID     string
	PathID string
	Index  int
}

// PointOf builds the element for vertex index of path pathID.
func PointOf(pathID string, index int) Element {
	return Element{Kind: KindPoint, PathID: pathID, Index: index}
}

// SegmentOf builds the element for the segment starting at vertex index.
func SegmentOf(pathID string, index int) Element {
	return Element{Kind: KindSegment, PathID: pathID, Index: index}
}

// QuadrilateralOf builds the element for a filled region.
func QuadrilateralOf(id string) Element {
	return Element{Kind: KindQuadrilateral, ID: id}
}

// OccupancyZoneOf builds the element for a track occupancy zone.
func OccupancyZoneOf(id string) Element {
	return Element{Kind: KindOccupancyZone, ID: id}
}

func (e Element) String() string {
	switch e.Kind {
	case KindPoint, KindSegment:
		return fmt.Sprintf("%s %s#%d", e.Kind, e.PathID, e.Index)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.ID)
	}
}
