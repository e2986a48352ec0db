package picking

import (
	"image/color"
	"testing"

	"spacetime-chart/pkg/geometry"
)

func TestColorCodecRoundTrip(t *testing.T) {
	for _, idx := range []int{1, 2, 255, 256, 65535, 65536, 1 << 20, MaxIndex} {
		c := IndexToColor(idx)
		if c.A != 255 {
			t.Fatalf("IndexToColor(%d) not opaque: %+v", idx, c)
		}
		if got := ColorToIndex(c); got != idx {
			t.Errorf("ColorToIndex(IndexToColor(%d)) = %d", idx, got)
		}
	}
}

func TestColorCodecReservedAndInvalid(t *testing.T) {
	if got := ColorToIndex(IndexToColor(0)); got != 0 {
		t.Errorf("index 0 decoded to %d", got)
	}
	if got := ColorToIndex(IndexToColor(MaxIndex + 1)); got != 0 {
		t.Errorf("overflow index decoded to %d", got)
	}
	if got := ColorToIndex(color.RGBA{R: 1, G: 2, B: 3, A: 128}); got != 0 {
		t.Errorf("translucent pixel decoded to %d", got)
	}
}

func TestColorsAreDistinct(t *testing.T) {
	seen := make(map[color.RGBA]int)
	for idx := 1; idx <= 70000; idx++ {
		c := IndexToColor(idx)
		if prev, ok := seen[c]; ok {
			t.Fatalf("indices %d and %d share color %+v", prev, idx, c)
		}
		seen[c] = idx
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Register(SegmentOf("train-1", 0))
	b := r.Register(OccupancyZoneOf("zone-9"))
	if a != 1 || b != 2 {
		t.Fatalf("indices = %d, %d; want 1, 2", a, b)
	}
	if el, ok := r.Lookup(b); !ok || el.ID != "zone-9" || el.Kind != KindOccupancyZone {
		t.Errorf("Lookup(%d) = %+v, %v", b, el, ok)
	}
	for _, idx := range []int{-1, 0, 3, 1000} {
		if _, ok := r.Lookup(idx); ok {
			t.Errorf("Lookup(%d) should miss", idx)
		}
	}

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset = %d", r.Len())
	}
	if _, ok := r.Lookup(a); ok {
		t.Error("stale index resolved after Reset")
	}
	if idx := r.Register(PointOf("train-2", 3)); idx != 1 {
		t.Errorf("first index after Reset = %d, want 1", idx)
	}
}

func TestBufferPickUniqueness(t *testing.T) {
	buf := NewBuffer(100, 60)
	reg := NewRegistry()

	diag := reg.Register(SegmentOf("a", 0))
	buf.DrawLine(0, 0, 99, 59, 7, IndexToColor(diag))

	zone := reg.Register(OccupancyZoneOf("z"))
	buf.FillRect(geometry.NewRect(60, 5, 30, 10), IndexToColor(zone))

	quad := reg.Register(QuadrilateralOf("q"))
	buf.FillPolygon([]geometry.Point2D{{X: 5, Y: 40}, {X: 30, Y: 40}, {X: 35, Y: 55}, {X: 0, Y: 55}}, IndexToColor(quad))

	point := reg.Register(PointOf("a", 1))
	buf.FillCircle(80, 50, 4, IndexToColor(point))

	tests := []struct {
		x, y int
		want Element
		hit  bool
	}{
		{50, 30, SegmentOf("a", 0), true},
		{52, 29, SegmentOf("a", 0), true},
		{75, 10, OccupancyZoneOf("z"), true},
		{15, 48, QuadrilateralOf("q"), true},
		{80, 50, PointOf("a", 1), true},
		{5, 55 - 20, Element{}, false},
		{95, 30, Element{}, false},
		{-1, 10, Element{}, false},
		{100, 60, Element{}, false},
	}
	for _, tt := range tests {
		got, ok := reg.Pick(buf, tt.x, tt.y)
		if ok != tt.hit || got != tt.want {
			t.Errorf("Pick(%d, %d) = %v, %v; want %v, %v", tt.x, tt.y, got, ok, tt.want, tt.hit)
		}
	}

	// Aliased rendering leaves only registered colors or background.
	img := buf.Image()
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			c := img.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			if _, ok := reg.Lookup(ColorToIndex(c)); !ok {
				t.Fatalf("pixel (%d, %d) = %+v decodes to no element", x, y, c)
			}
		}
	}
}

func TestDrawLineClipsFarEndpoints(t *testing.T) {
	buf := NewBuffer(20, 20)
	col := IndexToColor(1)
	buf.DrawLine(-1e9, 10, 1e9, 10, 1, col)
	if got := buf.At(10, 10); got != col {
		t.Errorf("horizontal line missing at center: %+v", got)
	}
	buf.Clear()
	buf.DrawLine(-50, -50, -10, -10, 3, col)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if buf.At(x, y).A != 0 {
				t.Fatalf("off-screen line touched (%d, %d)", x, y)
			}
		}
	}
}

func TestBufferResize(t *testing.T) {
	buf := NewBuffer(10, 10)
	buf.FillRect(geometry.NewRect(0, 0, 9, 9), IndexToColor(4))
	buf.Resize(10, 10)
	if buf.At(5, 5).A != 0 {
		t.Error("Resize to same size should clear")
	}
	buf.Resize(30, 5)
	if buf.Width() != 30 || buf.Height() != 5 {
		t.Errorf("size = %dx%d", buf.Width(), buf.Height())
	}
}
