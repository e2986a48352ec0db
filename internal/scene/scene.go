// Package scene reads and writes the files that feed a chart: waypoints,
// trajectories, occupancy zones, conflicts and an optional saved view.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"spacetime-chart/internal/chart"
	"spacetime-chart/internal/scale"
)

// ErrInvalid is returned for scenes that parse but cannot be drawn.
var ErrInvalid = errors.New("invalid scene")

// View is the time axis and space mode to restore when the scene is applied.
type View struct {
	TimeOrigin     float64 `json:"timeOrigin" yaml:"timeOrigin"`
	TimeScale      float64 `json:"timeScale" yaml:"timeScale"`
	XOffset        float64 `json:"xOffset,omitempty" yaml:"xOffset,omitempty"`
	IsProportional bool    `json:"isProportional,omitempty" yaml:"isProportional,omitempty"`
}

// Scene is the content of one scene file.
type Scene struct {
	OperationalPoints []scale.OperationalPoint `json:"operationalPoints" yaml:"operationalPoints"`
	Paths             []chart.PathData         `json:"paths,omitempty" yaml:"paths,omitempty"`
	OccupancyZones    []chart.OccupancyZone    `json:"occupancyZones,omitempty" yaml:"occupancyZones,omitempty"`
	Conflicts         []chart.Conflict         `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	View              *View                    `json:"view,omitempty" yaml:"view,omitempty"`
}

// Load reads a scene file. JSON files are read by the YAML decoder.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scene.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the scene as JSON when path ends in .json, YAML otherwise.
func (s *Scene) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that ids are present and unique per kind.
func (s *Scene) Validate() error {
	if err := uniqueIDs("operational point", len(s.OperationalPoints), func(i int) string { return s.OperationalPoints[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("path", len(s.Paths), func(i int) string { return s.Paths[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("occupancy zone", len(s.OccupancyZones), func(i int) string { return s.OccupancyZones[i].ID }); err != nil {
		return err
	}
	if err := uniqueIDs("conflict", len(s.Conflicts), func(i int) string { return s.Conflicts[i].ID }); err != nil {
		return err
	}
	for _, op := range s.OperationalPoints {
		if !isFinite(op.Position) {
			return fmt.Errorf("%w: operational point %q has position %v", ErrInvalid, op.ID, op.Position)
		}
	}
	for _, p := range s.Paths {
		for i, pt := range p.Points {
			if !isFinite(pt.Time) || !isFinite(pt.Position) {
				return fmt.Errorf("%w: path %q point %d is (%v, %v)", ErrInvalid, p.ID, i, pt.Time, pt.Position)
			}
		}
	}
	if s.View != nil && s.View.TimeScale < 0 {
		return fmt.Errorf("%w: negative time scale %v", ErrInvalid, s.View.TimeScale)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func uniqueIDs(kind string, n int, id func(int) string) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if v == "" {
			return fmt.Errorf("%w: %s %d has no id", ErrInvalid, kind, i)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: duplicate %s id %q", ErrInvalid, kind, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// Apply loads the scene into c. Without a saved view the time axis is fitted to
// the content.
func (s *Scene) Apply(c *chart.Chart) {
	proportional := s.View != nil && s.View.IsProportional
	c.SetProportional(proportional)
	c.SetOperationalPoints(s.OperationalPoints)
	c.SetPaths(s.Paths)
	c.SetOccupancyZones(s.OccupancyZones)
	c.SetConflicts(s.Conflicts)

	if s.View != nil && s.View.TimeScale > 0 {
		c.Controller().SetTimeView(s.View.TimeOrigin, s.View.TimeScale, s.View.XOffset)
		return
	}
	c.FitTime()
}

// Capture records the current view of c into the scene.
func (s *Scene) Capture(c *chart.Chart) {
	zp := c.Controller().ZoomPanState()
	s.View = &View{
		TimeOrigin:     zp.TimeOrigin,
		TimeScale:      zp.TimeScale,
		XOffset:        zp.XOffset,
		IsProportional: zp.IsProportional,
	}
}
