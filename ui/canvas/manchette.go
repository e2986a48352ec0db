package canvas

import (
	"image/color"

	"spacetime-chart/internal/manchette"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ManchetteView lists the waypoints beside the chart, aligned with its rows.
// It shares the chart lock of the ChartCanvas it was built for.
type ManchetteView struct {
	widget.BaseWidget

	chart *ChartCanvas
	m     *manchette.Manchette

	onSelect func(id string)
}

// NewManchetteView creates the label column for m, which must be linked to the
// chart shown by cc.
func NewManchetteView(cc *ChartCanvas, m *manchette.Manchette) *ManchetteView {
	mv := &ManchetteView{chart: cc, m: m}
	mv.ExtendBaseWidget(mv)
	return mv
}

// OnSelect sets the callback for a tapped waypoint label.
func (mv *ManchetteView) OnSelect(fn func(id string)) { mv.onSelect = fn }

// items returns the manchette rows converted to fyne units.
func (mv *ManchetteView) items() []manchette.Item {
	scale := mv.chart.PixelScale()
	mv.chart.mu.Lock()
	items := mv.m.Items()
	mv.chart.mu.Unlock()
	if scale > 0 && scale != 1 {
		for i := range items {
			items[i].Top /= float64(scale)
			items[i].Height /= float64(scale)
		}
	}
	return items
}

// Scrolled implements fyne.Scrollable; the chart follows.
func (mv *ManchetteView) Scrolled(ev *fyne.ScrollEvent) {
	scale := mv.chart.PixelScale()
	mv.chart.mu.Lock()
	mv.m.OnScroll(mv.m.ScrollTop() - float64(ev.Scrolled.DY*scale))
	mv.chart.mu.Unlock()
	mv.chart.changed()
	mv.Refresh()
}

// Tapped implements fyne.Tappable: the tapped waypoint is kept in view.
func (mv *ManchetteView) Tapped(ev *fyne.PointEvent) {
	y := float64(ev.Position.Y)
	for _, it := range mv.items() {
		if it.Visible && y >= it.Top && y < it.Bottom() {
			mv.chart.mu.Lock()
			mv.m.KeepInView(it.Point.ID)
			mv.chart.mu.Unlock()
			if mv.onSelect != nil {
				mv.onSelect(it.Point.ID)
			}
			return
		}
	}
}

// MinSize implements fyne.Widget.
func (mv *ManchetteView) MinSize() fyne.Size {
	return fyne.NewSize(140, 100)
}

// CreateRenderer implements fyne.Widget.
func (mv *ManchetteView) CreateRenderer() fyne.WidgetRenderer {
	r := &manchetteRenderer{view: mv, bg: fynecanvas.NewRectangle(theme.BackgroundColor())}
	r.Refresh()
	return r
}

type manchetteRenderer struct {
	view    *ManchetteView
	bg      *fynecanvas.Rectangle
	labels  []*fynecanvas.Text
	rules   []*fynecanvas.Line
	objects []fyne.CanvasObject
}

func (r *manchetteRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.place(size)
}

func (r *manchetteRenderer) MinSize() fyne.Size {
	return r.view.MinSize()
}

func (r *manchetteRenderer) Refresh() {
	items := r.view.items()
	for len(r.labels) < len(items) {
		r.labels = append(r.labels, fynecanvas.NewText("", theme.ForegroundColor()))
		r.rules = append(r.rules, fynecanvas.NewLine(color.NRGBA{A: 0x40}))
	}
	r.objects = r.objects[:0]
	r.objects = append(r.objects, r.bg)
	for i, it := range items {
		t := r.labels[i]
		t.Text = it.Point.Label
		if t.Text == "" {
			t.Text = it.Point.ID
		}
		t.TextSize = theme.TextSize()
		t.TextStyle = fyne.TextStyle{Bold: it.Point.ImportanceLevel > 0}
		t.Color = theme.ForegroundColor()
		r.objects = append(r.objects, r.rules[i], t)
	}
	r.labels, r.rules = r.labels[:len(items)], r.rules[:len(items)]
	r.bg.FillColor = theme.BackgroundColor()
	r.place(r.view.Size())
	fynecanvas.Refresh(r.view)
}

// place positions each label on the top edge of its row.
func (r *manchetteRenderer) place(size fyne.Size) {
	items := r.view.items()
	for i, it := range items {
		if i >= len(r.labels) {
			break
		}
		visible := it.Visible && size.Height > 0
		top := float32(it.Top)
		r.rules[i].Position1 = fyne.NewPos(0, top)
		r.rules[i].Position2 = fyne.NewPos(size.Width, top)
		r.labels[i].Move(fyne.NewPos(theme.Padding(), top+1))
		if visible {
			r.labels[i].Show()
			r.rules[i].Show()
		} else {
			r.labels[i].Hide()
			r.rules[i].Hide()
		}
	}
}

func (r *manchetteRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *manchetteRenderer) Destroy() {}
