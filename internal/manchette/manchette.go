// Package manchette lays out the waypoint label column next to the chart. It reads
// the same space scale tree and scroll as the chart, forwards its own scroll back to
// the interaction controller, and can keep one waypoint in view while it animates.
package manchette

import (
	"log/slog"
	"math"
	"sync"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/interaction"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

// View is the part of the interaction controller the manchette reads and scrolls.
type View interface {
	ZoomPanState() interaction.ZoomPanState
	OperationalPoints() []scale.OperationalPoint
	SpaceTree() *scale.SpaceScaleTree
	Viewport() geometry.Size
	ScrollHeight() float64
	ScrollTo(yOffset float64)
}

// Item is one waypoint row. Top is in viewport pixels, after scrolling.
type Item struct {
	Point   scale.OperationalPoint
	Top     float64
	Height  float64
	Visible bool
}

// Bottom returns the pixel just below the row.
func (it Item) Bottom() float64 {
	return it.Top + it.Height
}

// Option configures a Manchette.
type Option func(*Manchette)

// WithScheduler replaces the timer based frame scheduler.
func WithScheduler(s FrameScheduler) Option {
	return func(m *Manchette) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manchette) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manchette is the label column linked to a chart's view.
type Manchette struct {
	view      View
	rowHeight float64
	scheduler FrameScheduler
	logger    *slog.Logger

	mu      sync.Mutex
	keepID  string
	cancel  func()
	running bool
	closed  bool
	// gen changes whenever a loop starts or stops; frames of older loops return.
	gen        uint64
	frames     int
	settled    int
	lastScroll float64
	scrolled   bool
}

const (
	// SettleFrames is how many frames in a row the kept row must stay in view
	// without scrolling before the loop ends by itself.
	SettleFrames = 8
	// MaxKeepFrames bounds a loop that never settles, about three seconds at 60 Hz.
	MaxKeepFrames = 180
)

// New links a manchette to view. Rows below the last waypoint use the unzoomed
// waypoint height from layout.
func New(view View, layout config.LayoutConfig, opts ...Option) *Manchette {
	m := &Manchette{
		view:      view,
		rowHeight: layout.BaseWaypointHeight,
		scheduler: TimerScheduler{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Items returns one row per waypoint, positioned with the chart's scale tree so
// labels line up with the graduations. A waypoint on a flat step starts at the
// step's top edge.
func (m *Manchette) Items() []Item {
	ops := m.view.OperationalPoints()
	tree := m.view.SpaceTree()
	if len(ops) == 0 || tree == nil {
		return nil
	}
	yOffset := m.view.ZoomPanState().YOffset
	viewport := m.view.Viewport()

	items := make([]Item, len(ops))
	for i, op := range ops {
		items[i] = Item{Point: op, Top: tree.SpaceToPixel(op.Position, false) - yOffset}
	}
	for i := range items {
		if i+1 < len(items) {
			items[i].Height = math.Max(items[i+1].Top-items[i].Top, 0)
		} else {
			items[i].Height = m.rowHeight
		}
		items[i].Visible = items[i].Bottom() > 0 && items[i].Top < viewport.Height
	}
	return items
}

// ContentHeight returns the scrollable height of the column, the same as the chart's.
func (m *Manchette) ContentHeight() float64 {
	return m.view.ScrollHeight()
}

// ScrollTop returns the current vertical scroll.
func (m *Manchette) ScrollTop() float64 {
	return m.view.ZoomPanState().YOffset
}

// OnScroll forwards the column's own scroll to the chart. The controller clamps
// it. A user scroll ends any keep-in-view loop.
func (m *Manchette) OnScroll(scrollTop float64) {
	m.AnimationEnd()
	m.view.ScrollTo(scrollTop)
}

// KeepInView scrolls the waypoint id into view on every frame. The loop ends by
// itself once the row has stayed in view for SettleFrames frames, after
// MaxKeepFrames frames, when the view is scrolled by someone else, or on
// AnimationEnd or Close. Calling it again retargets the running loop.
func (m *Manchette) KeepInView(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.keepID = id
	m.frames, m.settled, m.scrolled = 0, 0, false
	if m.running {
		return
	}
	m.running = true
	m.gen++
	m.scheduleLocked()
}

// AnimationEnd stops the keep-in-view loop and cancels its pending frame.
func (m *Manchette) AnimationEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Close stops the loop for good. Later KeepInView calls are ignored.
func (m *Manchette) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.closed = true
}

// Running reports whether a keep-in-view loop is active.
func (m *Manchette) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manchette) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.running = false
	m.keepID = ""
	m.gen++
}

func (m *Manchette) scheduleLocked() {
	gen := m.gen
	m.cancel = m.scheduler.RequestFrame(func() { m.frame(gen) })
}

func (m *Manchette) frame(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.gen {
		m.mu.Unlock()
		return
	}
	id := m.keepID
	m.cancel = nil
	if m.scrolled && m.ScrollTop() != m.lastScroll {
		m.logger.Debug("keep-in-view interrupted by scroll", "id", id)
		m.stopLocked()
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	found, moved := m.scrollIntoView(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || gen != m.gen {
		return
	}
	if !found {
		m.logger.Debug("keep-in-view target gone", "id", id)
		m.stopLocked()
		return
	}
	m.frames++
	m.settled++
	if moved {
		m.settled = 0
	}
	m.lastScroll, m.scrolled = m.ScrollTop(), true
	if m.settled >= SettleFrames || m.frames >= MaxKeepFrames {
		m.stopLocked()
		return
	}
	m.scheduleLocked()
}

// scrollIntoView scrolls the least amount that shows the row of id, aligning its
// top when the row is taller than the viewport. moved reports whether the
// scroll changed.
func (m *Manchette) scrollIntoView(id string) (found, moved bool) {
	for _, it := range m.Items() {
		if it.Point.ID != id {
			continue
		}
		height := m.view.Viewport().Height
		y := m.ScrollTop()
		delta := 0.0
		switch {
		case it.Top < 0:
			delta = it.Top
		case it.Bottom() > height:
			delta = math.Min(it.Bottom()-height, it.Top)
		}
		if delta != 0 {
			m.view.ScrollTo(y + delta)
		}
		return true, m.ScrollTop() != y
	}
	return false, false
}
