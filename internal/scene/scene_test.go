package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spacetime-chart/internal/chart"
	"spacetime-chart/internal/config"
	"spacetime-chart/internal/scale"
)

const sampleYAML = `
operationalPoints:
  - {id: a, label: Alpha, position: 0, importanceLevel: 1}
  - {id: b, label: Beta, position: 100000}
  - {id: c, label: Gamma, position: 200000}
paths:
  - id: ic101
    label: IC 101
    color: "#ff0000"
    toEnd: arrow
    points:
      - {time: 100000, position: 0}
      - {time: 400000, position: 200000}
occupancyZones:
  - {id: z1, timeStart: 600000, timeEnd: 700000, spaceStart: 0, spaceEnd: 100000}
view: {timeOrigin: 0, timeScale: 1000}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.OperationalPoints) != 3 || s.OperationalPoints[1].Label != "Beta" {
		t.Errorf("operational points = %+v", s.OperationalPoints)
	}
	if len(s.Paths) != 1 || s.Paths[0].ToEnd != chart.EndArrow || s.Paths[0].FromEnd != chart.EndNone {
		t.Fatalf("paths = %+v", s.Paths)
	}
	if p := s.Paths[0].Points[1]; p != (scale.DataPoint{Time: 400000, Position: 200000}) {
		t.Errorf("point = %+v", p)
	}
	if s.View == nil || s.View.TimeScale != 1000 {
		t.Errorf("view = %+v", s.View)
	}
}

func TestParseJSON(t *testing.T) {
	s, err := Parse([]byte(`{"operationalPoints":[{"id":"a","position":0},{"id":"b","position":5}],
		"paths":[{"id":"p","fromEnd":"blunt","points":[{"time":1,"position":0}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.OperationalPoints) != 2 || s.Paths[0].FromEnd != chart.EndBlunt || s.View != nil {
		t.Errorf("scene = %+v", s)
	}
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"duplicate path":  "paths: [{id: p}, {id: p}]",
		"missing op id":   "operationalPoints: [{position: 3}]",
		"negative scale":  "view: {timeScale: -1}",
		"duplicate zones": "occupancyZones: [{id: z}, {id: z}]",
		"nan position":    "paths: [{id: p, points: [{time: 0, position: .nan}]}]",
		"infinite time":   "paths: [{id: p, points: [{time: .inf, position: 0}]}]",
		"nan waypoint":    "operationalPoints: [{id: a, position: .nan}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse = %v, want ErrInvalid", err)
			}
		})
	}
	if _, err := Parse([]byte("paths: [{id: p, toEnd: circle}]")); err == nil {
		t.Error("unknown end marker accepted")
	}
	if _, err := Parse([]byte("operationalPoints: {")); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestSaveLoad(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	for _, name := range []string{"scene.yaml", "scene.json"} {
		path := filepath.Join(dir, name)
		if err := s.Save(path); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if len(got.Paths) != 1 || got.Paths[0].ToEnd != chart.EndArrow || got.Paths[0].Color != "#ff0000" {
			t.Errorf("%s: paths = %+v", name, got.Paths)
		}
		if got.View == nil || *got.View != *s.View {
			t.Errorf("%s: view = %+v", name, got.View)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestApplyAndCapture(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	c, err := chart.New(config.Default(), chart.WithSize(800, 540))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	s.Apply(c)
	if n := len(c.Controller().OperationalPoints()); n != 3 {
		t.Errorf("operational points = %d", n)
	}
	if n := len(c.Paths()); n != 1 {
		t.Errorf("paths = %d", n)
	}
	if ts := c.Controller().ZoomPanState().TimeScale; ts != 1000 {
		t.Errorf("time scale = %v", ts)
	}

	if _, err := c.Render(); err != nil {
		t.Fatal(err)
	}
	if el, ok := c.Pick(650, 16); !ok || el.ID != "z1" {
		t.Errorf("Pick = %v, %v", el, ok)
	}

	s.View = nil
	s.Apply(c)
	if ts := c.Controller().ZoomPanState().TimeScale; ts != 780 {
		t.Errorf("fitted time scale = %v", ts)
	}
	s.Capture(c)
	if s.View == nil || s.View.TimeScale != 780 || s.View.IsProportional {
		t.Errorf("captured view = %+v", s.View)
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(10 * time.Millisecond)
	reloaded := make(chan *Scene, 16)
	failed := make(chan error, 16)
	w.OnReload(func(s *Scene) {
		select {
		case reloaded <- s:
		default:
		}
	})
	w.OnError(func(err error) {
		select {
		case failed <- err:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("operationalPoints: [{id: only, position: 1}]"), 0644); err != nil {
		t.Fatal(err)
	}
	// A reload may catch the truncated file first; wait for the final content.
	deadline := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case s := <-reloaded:
			done = len(s.OperationalPoints) == 1 && s.OperationalPoints[0].ID == "only"
		case err := <-failed:
			t.Fatalf("reload failed: %v", err)
		case <-deadline:
			t.Fatal("no reload")
		}
	}

	if err := os.WriteFile(path, []byte("paths: [{id: p}, {id: p}]"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-failed:
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("invalid scene not reported")
	}
}
