package pipeline

import (
	"errors"
	"image/color"
	"testing"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

func testFrame(t *testing.T) Frame {
	t.Helper()
	palette, err := config.Default().Theme.Palette()
	if err != nil {
		t.Fatal(err)
	}
	tree, err := scale.NewSpaceScaleTree(0, []scale.SpaceScale{{From: 0, To: 1000, Coefficient: 10}})
	if err != nil {
		t.Fatal(err)
	}
	return Frame{
		Width:     64,
		Height:    48,
		Transform: &scale.Transform{Time: scale.TimeScale{MsPerPx: 1000}, Space: tree, Width: 64, Height: 48},
		Palette:   palette,
		Tolerance: 2,
	}
}

func TestLayerOrder(t *testing.T) {
	p := New()
	var calls []string
	record := func(name string) DrawFunc {
		return func(dc *DrawContext) error {
			calls = append(calls, name+"@"+dc.Layer.String())
			return nil
		}
	}
	// Registered out of layer order on purpose.
	p.RegisterLayerDrawable(LayerCaptions, record("caption"))
	p.RegisterLayerDrawable(LayerPaths, record("path1"))
	p.RegisterLayerDrawable(LayerGraduations, record("grid"))
	p.RegisterLayerDrawable(LayerPaths, record("path2"))
	p.RegisterLayerDrawable(LayerOverlay, record("overlay"))
	p.RegisterLayerDrawable(LayerBackground, record("zones"))

	if _, err := p.RenderFrame(testFrame(t)); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"grid@graduations",
		"zones@background",
		"path1@paths",
		"path2@paths",
		"overlay@overlay",
		"caption@captions",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestEveryDrawableRunsEveryFrame(t *testing.T) {
	p := New()
	var draws, picks int
	p.RegisterLayerDrawable(LayerPaths, func(*DrawContext) error { draws++; return nil })
	p.RegisterPickingDrawable(func(*PickingContext) error { picks++; return nil })

	frame := testFrame(t)
	for i := 0; i < 3; i++ {
		if _, err := p.RenderFrame(frame); err != nil {
			t.Fatal(err)
		}
	}
	if draws != 3 || picks != 3 {
		t.Errorf("draws = %d, picks = %d; want 3 each", draws, picks)
	}
}

func TestUnregister(t *testing.T) {
	p := New()
	var a, b int
	unA := p.RegisterLayerDrawable(LayerPaths, func(*DrawContext) error { a++; return nil })
	p.RegisterLayerDrawable(LayerPaths, func(*DrawContext) error { b++; return nil })
	unPick := p.RegisterPickingDrawable(func(pc *PickingContext) error {
		pc.Register(picking.OccupancyZoneOf("z"))
		return nil
	})

	frame := testFrame(t)
	if _, err := p.RenderFrame(frame); err != nil {
		t.Fatal(err)
	}
	unA()
	unA()
	unPick()
	if _, err := p.RenderFrame(frame); err != nil {
		t.Fatal(err)
	}
	if a != 1 || b != 2 {
		t.Errorf("a = %d, b = %d; want 1, 2", a, b)
	}
	if got := p.DrawableCount(LayerPaths); got != 1 {
		t.Errorf("DrawableCount = %d, want 1", got)
	}
	if got := p.Registry().Len(); got != 0 {
		t.Errorf("registry not rebuilt after unregister: %d elements", got)
	}
}

func TestRenderDrawsAndPicks(t *testing.T) {
	p := New()
	p.RegisterLayerDrawable(LayerBackground, func(dc *DrawContext) error {
		dc.Canvas.SetColor(color.RGBA{R: 255, A: 255})
		dc.Canvas.DrawRectangle(10, 10, 20, 20)
		return dc.Canvas.Fill()
	})
	p.RegisterPickingDrawable(func(pc *PickingContext) error {
		col := pc.Register(picking.QuadrilateralOf("conflict-1"))
		pc.Buffer.FillRect(geometry.NewRect(10, 10, 20, 20), col)
		return nil
	})

	img, err := p.RenderFrame(testFrame(t))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Fatalf("image size = %v", img.Bounds())
	}
	if c := img.RGBAAt(20, 20); c.R < 200 || c.G > 50 || c.A < 200 {
		t.Errorf("pixel inside rectangle = %+v, want red", c)
	}
	if c := img.RGBAAt(50, 40); c.A != 0 {
		t.Errorf("pixel outside rectangle = %+v, want transparent", c)
	}

	el, ok := p.Pick(20, 20)
	if !ok || el != picking.QuadrilateralOf("conflict-1") {
		t.Errorf("Pick(20, 20) = %v, %v", el, ok)
	}
	if _, ok := p.Pick(50, 40); ok {
		t.Error("Pick outside rectangle should miss")
	}
}

func TestErrorsAreJoined(t *testing.T) {
	p := New()
	boom := errors.New("boom")
	var ran bool
	p.RegisterLayerDrawable(LayerGraduations, func(*DrawContext) error { return boom })
	p.RegisterLayerDrawable(LayerCaptions, func(*DrawContext) error { ran = true; return nil })

	img, err := p.RenderFrame(testFrame(t))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if img == nil || !ran {
		t.Error("a failing drawable must not stop the frame")
	}
}

func TestHiddenLayerSkipped(t *testing.T) {
	p := New()
	var n int
	p.RegisterLayerDrawable(LayerOverlay, func(*DrawContext) error { n++; return nil })
	p.SetLayerVisible(LayerOverlay, false)
	if _, err := p.RenderFrame(testFrame(t)); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Error("hidden layer was drawn")
	}
}

func TestEmptyFrame(t *testing.T) {
	p := New()
	if _, err := p.RenderFrame(Frame{}); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("err = %v, want ErrEmptyFrame", err)
	}
}
