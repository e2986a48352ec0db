package chart

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"testing"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scale"
)

// newTestChart builds an 800x540 chart (500 px body) with three stations 32 px
// apart and one pixel per second.
func newTestChart(t *testing.T) *Chart {
	t.Helper()
	c, err := New(config.Default(), WithSize(800, 540))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	c.SetOperationalPoints([]scale.OperationalPoint{
		{ID: "a", Position: 0, ImportanceLevel: 1},
		{ID: "b", Position: 100000},
		{ID: "c", Position: 200000, ImportanceLevel: 1},
	})
	c.Controller().SetTimeView(0, 1000, 0)
	c.SetPaths([]PathData{{
		ID:     "p1",
		Label:  "IC 101",
		Points: []scale.DataPoint{{Time: 100000, Position: 0}, {Time: 400000, Position: 200000}},
		ToEnd:  EndArrow,
	}})
	c.SetOccupancyZones([]OccupancyZone{{ID: "z1", TimeStart: 600000, TimeEnd: 700000, SpaceStart: 0, SpaceEnd: 100000}})
	c.SetConflicts([]Conflict{{ID: "k1", TimeStart: 0, TimeEnd: 50000, SpaceStart: 100000, SpaceEnd: 200000}})
	return c
}

func TestRenderAndPick(t *testing.T) {
	c := newTestChart(t)
	img, err := c.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 540 {
		t.Fatalf("image bounds %v", b)
	}

	tests := []struct {
		name string
		x, y int
		want picking.Element
		hit  bool
	}{
		{"segment", 250, 32, picking.SegmentOf("p1", 0), true},
		{"last vertex", 400, 64, picking.PointOf("p1", 1), true},
		{"zone", 650, 16, picking.OccupancyZoneOf("z1"), true},
		{"conflict", 25, 48, picking.QuadrilateralOf("k1"), true},
		{"empty", 600, 300, picking.Element{}, false},
		{"footer", 650, 520, picking.Element{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Pick(tt.x, tt.y)
			if ok != tt.hit || got != tt.want {
				t.Errorf("Pick(%d, %d) = %v, %v; want %v, %v", tt.x, tt.y, got, ok, tt.want, tt.hit)
			}
		})
	}

	bg := c.Palette().Background
	drawn := false
	for y := 31; y <= 33; y++ {
		for x := 249; x <= 251; x++ {
			p := img.RGBAAt(x, y)
			if p.R != bg.R || p.G != bg.G || p.B != bg.B {
				drawn = true
			}
		}
	}
	if !drawn {
		t.Error("path not drawn around (250, 32)")
	}
}

func TestRenderIsCached(t *testing.T) {
	c := newTestChart(t)
	if _, err := c.Render(); err != nil {
		t.Fatal(err)
	}
	if c.dirty {
		t.Fatal("chart still dirty after render")
	}
	c.Controller().ScrollTo(10)
	if c.dirty {
		t.Error("scroll beyond an unscrollable body marked the chart dirty")
	}
	c.SetPaths(nil)
	if !c.dirty {
		t.Error("SetPaths did not invalidate")
	}
	c.Render()
	c.ZoomYIn()
	if !c.dirty {
		t.Error("zoom did not invalidate")
	}
}

func TestCursorFollowsPointer(t *testing.T) {
	c := newTestChart(t)
	c.PointerMove(100, 300)
	img, err := c.Render()
	if err != nil {
		t.Fatal(err)
	}
	first := slices.Clone(img.Pix)

	c.PointerMove(700, 300)
	if !c.dirty {
		t.Fatal("pointer move over empty space left the chart clean")
	}
	img, err = c.Render()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, img.Pix) {
		t.Error("cursor and readout did not move with the pointer")
	}
	moved := slices.Clone(img.Pix)

	c.PointerLeave()
	img, err = c.Render()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(moved, img.Pix) {
		t.Error("cursor still drawn after the pointer left")
	}
}

func TestMalformedPathsRender(t *testing.T) {
	c := newTestChart(t)
	c.SetPaths([]PathData{
		{ID: "backwards", Points: []scale.DataPoint{{Time: 400000, Position: 0}, {Time: 100000, Position: 200000}, {Time: 50000, Position: 100000}}},
		{ID: "nan", Points: []scale.DataPoint{{Time: 0, Position: 0}, {Time: 100000, Position: math.NaN()}, {Time: 200000, Position: 100000}, {Time: 300000, Position: 200000}}, ToEnd: EndArrow},
		{ID: "inf", Points: []scale.DataPoint{{Time: math.Inf(1), Position: 0}, {Time: 10000, Position: math.Inf(-1)}}, FromEnd: EndBlunt},
		{ID: "single", Points: []scale.DataPoint{{Time: 5000, Position: 100000}}},
		{ID: "empty"},
	})
	c.SetConflicts([]Conflict{{ID: "k", TimeStart: math.NaN(), TimeEnd: 1000, SpaceStart: 0, SpaceEnd: 100000}})
	if _, err := c.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The finite tail of the NaN path stays pickable.
	if el, ok := c.Pick(250, 48); !ok || el != picking.SegmentOf("nan", 2) {
		t.Errorf("Pick(250, 48) = %v, %v", el, ok)
	}
	if !c.FitTime() {
		t.Error("FitTime found no finite extent")
	}
	if _, err := c.Render(); err != nil {
		t.Fatalf("Render after fit: %v", err)
	}
}

func TestInstantaneousPause(t *testing.T) {
	tree, err := scale.NewSpaceScaleTree(0, []scale.SpaceScale{{From: 0, To: 100, Size: 10}})
	if err != nil {
		t.Fatal(err)
	}
	tr := &scale.Transform{Time: scale.TimeScale{MsPerPx: 1000}, Space: tree, Width: 100, Height: 100}
	segs := pathSegments(tr, []scale.DataPoint{{Time: 0, Position: 0}, {Time: 0, Position: 50}, {Time: 5000, Position: 50}, {Time: 9000, Position: 100}})
	if len(segs) != 3 {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}
	kinds := []segmentKind{segmentPause, segmentStop, segmentMove}
	for i, s := range segs {
		if s.kind != kinds[i] {
			t.Errorf("segment %d kind = %v, want %v", i, s.kind, kinds[i])
		}
	}
	if s := segs[0]; s.a.X != s.b.X || s.a.Y == s.b.Y {
		t.Errorf("pause is not vertical: %+v", s)
	}

	c := newTestChart(t)
	if w := c.segmentWidth(segmentPause); w != c.Palette().PauseWidth {
		t.Errorf("pause width = %v", w)
	}
	c.SetPaths([]PathData{{ID: "p", Points: []scale.DataPoint{{Time: 100000, Position: 0}, {Time: 100000, Position: 200000}}}})
	if _, err := c.Render(); err != nil {
		t.Fatal(err)
	}
	if el, ok := c.Pick(100, 32); !ok || el.PathID != "p" {
		t.Errorf("pause marker not pickable: %v, %v", el, ok)
	}
}

func TestLastVertexOnArrivalEdge(t *testing.T) {
	tree, err := scale.NewSpaceScaleTree(0, []scale.SpaceScale{
		{From: 0, To: 100, Size: 10},
		{From: 100, To: 100, Size: 6},
		{From: 100, To: 200, Size: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	tr := &scale.Transform{Time: scale.TimeScale{MsPerPx: 1000}, Space: tree, Width: 100, Height: 100}
	pts := []scale.DataPoint{{Time: 0, Position: 200}, {Time: 10000, Position: 100}}
	segs := pathSegments(tr, pts)
	from, to := edgeSides(pts)
	last := tr.PixelAt(pts[1], vertexSide(from, to, 1))
	if last != segs[len(segs)-1].b || last.Y != 16 {
		t.Errorf("last vertex at %v, segment ends at %v", last, segs[len(segs)-1].b)
	}
	if first := tr.PixelAt(pts[0], vertexSide(from, to, 0)); first != segs[0].a {
		t.Errorf("first vertex at %v, segment starts at %v", first, segs[0].a)
	}
}

func TestHoverFromLastFrame(t *testing.T) {
	c := newTestChart(t)
	if _, err := c.Render(); err != nil {
		t.Fatal(err)
	}
	var hovered *picking.Element
	c.OnHoveredChildUpdate(func(el *picking.Element) { hovered = el })
	c.PointerMove(650, 16)
	if hovered == nil || *hovered != picking.OccupancyZoneOf("z1") {
		t.Fatalf("hovered = %v", hovered)
	}
	if _, err := c.Render(); err != nil {
		t.Fatal(err)
	}
	c.PointerLeave()
	if hovered != nil {
		t.Errorf("hover kept after leave: %v", hovered)
	}
}

func TestEdgeSides(t *testing.T) {
	pts := func(positions ...float64) []scale.DataPoint {
		out := make([]scale.DataPoint, len(positions))
		for i, p := range positions {
			out[i] = scale.DataPoint{Time: float64(i) * 1000, Position: p}
		}
		return out
	}
	tests := []struct {
		name     string
		points   []scale.DataPoint
		from, to []bool
	}{
		{"single point", pts(0), nil, nil},
		{"up with stop", pts(0, 100, 100, 200), []bool{true, false, true}, []bool{false, true, false}},
		{"down with stop", pts(200, 100, 100, 0), []bool{false, true, false}, []bool{true, false, true}},
		{"passing through", pts(0, 100, 200), []bool{true, true}, []bool{false, false}},
		{"stopped only", pts(100, 100), []bool{false}, []bool{false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := edgeSides(tt.points)
			if !equalBools(from, tt.from) || !equalBools(to, tt.to) {
				t.Errorf("edgeSides = %v, %v; want %v, %v", from, to, tt.from, tt.to)
			}
		})
	}
}

func equalBools(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPathSegmentsCrossFlatSteps(t *testing.T) {
	tree, err := scale.NewSpaceScaleTree(0, []scale.SpaceScale{
		{From: 0, To: 100, Size: 10},
		{From: 100, To: 100, Size: 6},
		{From: 100, To: 200, Size: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	tr := &scale.Transform{Time: scale.TimeScale{MsPerPx: 1000}, Space: tree, Width: 100, Height: 100}

	segs := pathSegments(tr, []scale.DataPoint{{Time: 0, Position: 0}, {Time: 10000, Position: 100}, {Time: 20000, Position: 200}})
	if len(segs) != 3 {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}
	if s := segs[1]; s.kind != segmentCrossing || s.a.Y != 10 || s.b.Y != 16 || s.index != 1 {
		t.Errorf("crossing = %+v", s)
	}
	if s := segs[2]; s.a.Y != 16 || s.b.Y != 26 {
		t.Errorf("second move = %+v", s)
	}

	segs = pathSegments(tr, []scale.DataPoint{{Time: 0, Position: 0}, {Time: 10000, Position: 100}, {Time: 15000, Position: 100}, {Time: 20000, Position: 200}})
	if len(segs) != 3 {
		t.Fatalf("got %d segments with a stop: %+v", len(segs), segs)
	}
	if s := segs[1]; s.kind != segmentStop || s.a.Y != 10 || s.b.Y != 16 {
		t.Errorf("stop = %+v", s)
	}
}

func TestTimeExtentAndFit(t *testing.T) {
	c := newTestChart(t)
	start, end, ok := c.TimeExtent()
	if !ok || start != 100000 || end != 700000 {
		t.Fatalf("TimeExtent = %v, %v, %v", start, end, ok)
	}
	if !c.FitTime() {
		t.Fatal("FitTime found nothing")
	}
	tr := c.Controller().Transform()
	if x := tr.TimeToPixel(88000); math.Abs(x) > 1e-6 {
		t.Errorf("window start at x=%v", x)
	}
	if x := tr.TimeToPixel(712000); math.Abs(x-800) > 1e-6 {
		t.Errorf("window end at x=%v", x)
	}

	empty, err := New(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer empty.Close()
	if _, _, ok := empty.TimeExtent(); ok {
		t.Error("empty chart has a time extent")
	}
	if empty.FitTime() {
		t.Error("FitTime succeeded on an empty chart")
	}
}

func TestSetTheme(t *testing.T) {
	c := newTestChart(t)
	theme := config.Default().Theme
	theme.Path = "not-a-color"
	if err := c.SetTheme(theme); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("SetTheme(bad) = %v", err)
	}

	theme = config.Default().Theme
	theme.Path = "#00ff00"
	if err := c.SetTheme(theme); err != nil {
		t.Fatal(err)
	}
	if got := c.paths[0].color; got.G != 0xff || got.R != 0 {
		t.Errorf("path color = %v", got)
	}
}

func TestPathColorOverride(t *testing.T) {
	c := newTestChart(t)
	c.SetPaths([]PathData{
		{ID: "a", Color: "#ff0000", Points: []scale.DataPoint{{}}},
		{ID: "b", Color: "bogus", Points: []scale.DataPoint{{}}},
	})
	if got := c.paths[0].color; got.R != 0xff || got.A != 0xff {
		t.Errorf("override = %v", got)
	}
	if got := c.paths[1].color; got != c.Palette().Path {
		t.Errorf("bad color not replaced by the theme: %v", got)
	}
}

func TestParseEndMarker(t *testing.T) {
	for in, want := range map[string]EndMarker{"": EndNone, "none": EndNone, "Arrow": EndArrow, " blunt ": EndBlunt} {
		got, err := ParseEndMarker(in)
		if err != nil || got != want {
			t.Errorf("ParseEndMarker(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseEndMarker("circle"); err == nil {
		t.Error("unknown marker accepted")
	}
	var m EndMarker
	if err := m.UnmarshalText([]byte("arrow")); err != nil || m != EndArrow {
		t.Errorf("UnmarshalText = %v, %v", m, err)
	}
}

func TestGridSteps(t *testing.T) {
	minor, major := gridSteps(1000)
	if minor != 10e3 || major != 120e3 {
		t.Errorf("gridSteps(1000) = %v, %v", minor, major)
	}
	minor, major = gridSteps(1e9)
	if minor != timeSteps[len(timeSteps)-1] || major != minor {
		t.Errorf("gridSteps(huge) = %v, %v", minor, major)
	}

	got := ticks(-5, 25, 10)
	if len(got) != 3 || got[0] != 0 || got[2] != 20 {
		t.Errorf("ticks = %v", got)
	}
	if ticks(10, 0, 1) != nil || ticks(0, 10, 0) != nil {
		t.Error("invalid ranges produced ticks")
	}
	if n := len(ticks(0, 1e12, 1)); n != maxTicks {
		t.Errorf("ticks not capped: %d", n)
	}
}

func TestFormatting(t *testing.T) {
	if got := formatTime(3723000, true); got != "01:02:03" {
		t.Errorf("formatTime = %q", got)
	}
	if got := formatTime(3723000, false); got != "01:02" {
		t.Errorf("formatTime = %q", got)
	}
	if got := formatPosition(1234567); got != "1.235 km" {
		t.Errorf("formatPosition = %q", got)
	}
}
