// Package canvas provides the fyne widgets that display a space-time chart and
// its manchette.
package canvas

import (
	"image"
	"sync"

	"spacetime-chart/internal/chart"
	"spacetime-chart/internal/interaction"
	"spacetime-chart/internal/picking"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// zoomModifier turns a drag into a zoom rectangle and the wheel into a time zoom.
const zoomModifier = fyne.KeyModifierShift

// ChartCanvas shows a chart in a raster and forwards pointer input to it.
// Positions are converted from fyne units to raster pixels.
type ChartCanvas struct {
	widget.BaseWidget

	// mu guards chart; the raster draws on the render goroutine.
	mu    sync.Mutex
	chart *chart.Chart

	raster *fynecanvas.Raster
	scale  float32 // raster pixels per fyne unit

	onHover   func(el *picking.Element)
	onClick   func(p interaction.Payload)
	onChanged func()
}

// NewChartCanvas creates a canvas for c. The canvas owns all calls into c from
// then on; use Do to reach it from elsewhere.
func NewChartCanvas(c *chart.Chart) *ChartCanvas {
	cc := &ChartCanvas{chart: c, scale: 1}
	cc.raster = fynecanvas.NewRaster(cc.draw)
	cc.raster.ScaleMode = fynecanvas.ImageScalePixels

	c.OnHoveredChildUpdate(func(el *picking.Element) {
		if cc.onHover != nil {
			cc.onHover(el)
		}
	})
	c.OnClick(func(p interaction.Payload) {
		if cc.onClick != nil {
			cc.onClick(p)
		}
	})

	cc.ExtendBaseWidget(cc)
	return cc
}

// Do runs fn with exclusive access to the chart and redraws afterwards.
func (cc *ChartCanvas) Do(fn func(c *chart.Chart)) {
	cc.mu.Lock()
	fn(cc.chart)
	cc.mu.Unlock()
	cc.changed()
}

// Read runs fn with exclusive access to the chart without redrawing.
func (cc *ChartCanvas) Read(fn func(c *chart.Chart)) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	fn(cc.chart)
}

// OnHover sets the callback for hovered element changes. It runs with the
// chart locked.
func (cc *ChartCanvas) OnHover(fn func(el *picking.Element)) { cc.onHover = fn }

// OnClick sets the click callback. It runs with the chart locked.
func (cc *ChartCanvas) OnClick(fn func(p interaction.Payload)) { cc.onClick = fn }

// OnChanged sets a callback run after every redraw request, outside the lock.
func (cc *ChartCanvas) OnChanged(fn func()) { cc.onChanged = fn }

// PixelScale returns the raster pixels per fyne unit of the last frame.
func (cc *ChartCanvas) PixelScale() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.scale
}

func (cc *ChartCanvas) changed() {
	cc.raster.Refresh()
	if cc.onChanged != nil {
		cc.onChanged()
	}
}

func (cc *ChartCanvas) draw(w, h int) image.Image {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if size := cc.Size(); size.Width > 0 {
		cc.scale = float32(w) / size.Width
	}
	if cw, ch := cc.chart.Size(); cw != w || ch != h {
		cc.chart.Resize(w, h)
	}
	img, err := cc.chart.Render()
	if img == nil {
		fyne.LogError("chart render failed", err)
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return img
}

// point converts a widget position to raster pixels.
func (cc *ChartCanvas) point(pos fyne.Position) (float64, float64) {
	return float64(pos.X * cc.scale), float64(pos.Y * cc.scale)
}

// MouseDown implements desktop.Mouseable.
func (cc *ChartCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	cc.mu.Lock()
	x, y := cc.point(ev.Position)
	cc.chart.PointerDown(x, y, ev.Modifier&zoomModifier != 0)
	cc.mu.Unlock()
	cc.changed()
}

// MouseUp implements desktop.Mouseable.
func (cc *ChartCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	cc.mu.Lock()
	x, y := cc.point(ev.Position)
	cc.chart.PointerUp(x, y)
	cc.mu.Unlock()
	cc.changed()
}

// MouseIn implements desktop.Hoverable.
func (cc *ChartCanvas) MouseIn(ev *desktop.MouseEvent) {
	cc.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable.
func (cc *ChartCanvas) MouseMoved(ev *desktop.MouseEvent) {
	cc.move(ev.Position)
}

// MouseOut implements desktop.Hoverable.
func (cc *ChartCanvas) MouseOut() {
	cc.mu.Lock()
	cc.chart.PointerLeave()
	cc.mu.Unlock()
	cc.changed()
}

// Dragged implements fyne.Draggable. Drags are followed here as well since not
// every driver reports hover moves while a button is held.
func (cc *ChartCanvas) Dragged(ev *fyne.DragEvent) {
	cc.move(ev.Position)
}

// DragEnd implements fyne.Draggable. The release itself arrives via MouseUp.
func (cc *ChartCanvas) DragEnd() {}

func (cc *ChartCanvas) move(pos fyne.Position) {
	cc.mu.Lock()
	x, y := cc.point(pos)
	cc.chart.PointerMove(x, y)
	cc.mu.Unlock()
	cc.changed()
}

// Scrolled implements fyne.Scrollable. fyne reports wheel-up as a positive DY.
func (cc *ChartCanvas) Scrolled(ev *fyne.ScrollEvent) {
	cc.mu.Lock()
	x, y := cc.point(ev.Position)
	modifier := false
	if d, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
		modifier = d.CurrentKeyModifiers()&zoomModifier != 0
	}
	delta := -float64(ev.Scrolled.DY * cc.scale)
	if ev.Scrolled.DY == 0 {
		delta = -float64(ev.Scrolled.DX * cc.scale)
	}
	cc.chart.Wheel(x, y, delta, modifier)
	cc.mu.Unlock()
	cc.changed()
}

// MinSize keeps the chart usable in small windows.
func (cc *ChartCanvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

// CreateRenderer implements fyne.Widget.
func (cc *ChartCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}
