package chart

import (
	"fmt"
	"strings"

	"spacetime-chart/internal/scale"
)

// EndMarker is drawn at the first or last point of a path.
type EndMarker int

const (
	EndNone EndMarker = iota
	EndArrow
	EndBlunt
)

func (m EndMarker) String() string {
	switch m {
	case EndArrow:
		return "arrow"
	case EndBlunt:
		return "blunt"
	default:
		return "none"
	}
}

// ParseEndMarker parses "none", "arrow" or "blunt". The empty string is none.
func ParseEndMarker(s string) (EndMarker, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EndNone, nil
	case "arrow":
		return EndArrow, nil
	case "blunt":
		return EndBlunt, nil
	default:
		return EndNone, fmt.Errorf("unknown end marker %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m EndMarker) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *EndMarker) UnmarshalText(b []byte) error {
	v, err := ParseEndMarker(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// PathData is one train trajectory. Points are expected in time order; out of
// order points are drawn as given.
type PathData struct {
	ID      string            `json:"id" yaml:"id"`
	Label   string            `json:"label,omitempty" yaml:"label,omitempty"`
	Color   string            `json:"color,omitempty" yaml:"color,omitempty"`
	Points  []scale.DataPoint `json:"points" yaml:"points"`
	FromEnd EndMarker         `json:"fromEnd,omitempty" yaml:"fromEnd,omitempty"`
	ToEnd   EndMarker         `json:"toEnd,omitempty" yaml:"toEnd,omitempty"`
}

// OccupancyZone is a block of track reserved over a time window.
type OccupancyZone struct {
	ID         string  `json:"id" yaml:"id"`
	TimeStart  float64 `json:"timeStart" yaml:"timeStart"`
	TimeEnd    float64 `json:"timeEnd" yaml:"timeEnd"`
	SpaceStart float64 `json:"spaceStart" yaml:"spaceStart"`
	SpaceEnd   float64 `json:"spaceEnd" yaml:"spaceEnd"`
	Color      string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Conflict is a region where two occupancies overlap.
type Conflict struct {
	ID         string  `json:"id" yaml:"id"`
	TimeStart  float64 `json:"timeStart" yaml:"timeStart"`
	TimeEnd    float64 `json:"timeEnd" yaml:"timeEnd"`
	SpaceStart float64 `json:"spaceStart" yaml:"spaceStart"`
	SpaceEnd   float64 `json:"spaceEnd" yaml:"spaceEnd"`
}
