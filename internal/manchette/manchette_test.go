package manchette

import (
	"fmt"
	"testing"
	"time"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/interaction"
	"spacetime-chart/internal/scale"
)

// manualScheduler holds at most one pending frame until step is called.
type manualScheduler struct {
	pending  func()
	requests int
	cancels  int
}

func (s *manualScheduler) RequestFrame(fn func()) func() {
	s.requests++
	s.pending = fn
	return func() {
		s.cancels++
		s.pending = nil
	}
}

func (s *manualScheduler) step() bool {
	fn := s.pending
	if fn == nil {
		return false
	}
	s.pending = nil
	fn()
	return true
}

func newLinked(t *testing.T, stops int) (*interaction.Controller, *Manchette, *manualScheduler) {
	t.Helper()
	cfg := config.Default()
	ctrl := interaction.New(cfg)
	ctrl.SetViewport(800, 300)
	ops := make([]scale.OperationalPoint, stops)
	for i := range ops {
		ops[i] = scale.OperationalPoint{ID: fmt.Sprintf("s%d", i), Position: float64(i) * 1000}
	}
	ctrl.SetOperationalPoints(ops)
	sched := &manualScheduler{}
	return ctrl, New(ctrl, cfg.Layout, WithScheduler(sched)), sched
}

func TestItemsFollowScroll(t *testing.T) {
	ctrl, m, _ := newLinked(t, 30)
	items := m.Items()
	if len(items) != 30 {
		t.Fatalf("got %d items", len(items))
	}
	if items[3].Top != 96 || items[3].Height != 32 {
		t.Errorf("item 3 = %+v", items[3])
	}
	if !items[0].Visible || items[20].Visible {
		t.Error("visibility wrong before scroll")
	}

	m.OnScroll(100)
	if ctrl.ZoomPanState().YOffset != 100 || m.ScrollTop() != 100 {
		t.Fatalf("scroll not forwarded: %v", ctrl.ZoomPanState().YOffset)
	}
	items = m.Items()
	if items[3].Top != -4 || !items[3].Visible || items[2].Visible {
		t.Errorf("after scroll item 2 = %+v, item 3 = %+v", items[2], items[3])
	}
}

func TestScrollClampedAndShared(t *testing.T) {
	ctrl, m, _ := newLinked(t, 30)
	if got, want := m.ContentHeight(), 29*32.0+32; got != want {
		t.Errorf("ContentHeight = %v, want %v", got, want)
	}
	m.OnScroll(1e6)
	if y := ctrl.ZoomPanState().YOffset; y != m.ContentHeight()-300 {
		t.Errorf("yOffset = %v, want %v", y, m.ContentHeight()-300)
	}
	m.OnScroll(-10)
	if y := ctrl.ZoomPanState().YOffset; y != 0 {
		t.Errorf("yOffset = %v, want 0", y)
	}
}

func TestKeepInView(t *testing.T) {
	ctrl, m, sched := newLinked(t, 30)
	m.KeepInView("s29")
	if !m.Running() || sched.requests != 1 {
		t.Fatalf("loop not started: running %v, requests %d", m.Running(), sched.requests)
	}

	sched.step()
	last := m.Items()[29]
	if last.Top < 0 || last.Bottom() > 300 {
		t.Errorf("s29 not in view: %+v (yOffset %v)", last, ctrl.ZoomPanState().YOffset)
	}
	if sched.pending == nil {
		t.Fatal("loop did not reschedule")
	}

	// Retarget the running loop upward.
	m.KeepInView("s1")
	sched.step()
	if it := m.Items()[1]; it.Top != 0 {
		t.Errorf("s1 top = %v, want 0", it.Top)
	}

	m.AnimationEnd()
	if m.Running() || sched.pending != nil || sched.cancels != 1 {
		t.Errorf("AnimationEnd left the loop alive: running %v, cancels %d", m.Running(), sched.cancels)
	}
	if sched.step() {
		t.Error("frame ran after AnimationEnd")
	}
}

func TestKeepInViewSettles(t *testing.T) {
	ctrl, m, sched := newLinked(t, 30)
	m.KeepInView("s20")
	steps := 0
	for sched.step() {
		steps++
		if steps > MaxKeepFrames {
			t.Fatal("loop never ended")
		}
	}
	if m.Running() {
		t.Error("loop still running after settling")
	}
	// One frame scrolls, then the row has to stay put for SettleFrames frames.
	if steps != SettleFrames+1 {
		t.Errorf("steps = %d, want %d", steps, SettleFrames+1)
	}
	if it := m.Items()[20]; it.Top < 0 || it.Bottom() > 300 {
		t.Errorf("s20 not in view: %+v (yOffset %v)", it, ctrl.ZoomPanState().YOffset)
	}
}

func TestKeepInViewYieldsToScroll(t *testing.T) {
	ctrl, m, sched := newLinked(t, 30)
	m.KeepInView("s0")
	m.OnScroll(400)
	if m.Running() || sched.pending != nil {
		t.Error("manchette scroll did not end the loop")
	}
	if y := ctrl.ZoomPanState().YOffset; y != 400 {
		t.Errorf("yOffset = %v, want 400", y)
	}

	m.KeepInView("s29")
	sched.step()
	ctrl.ScrollTo(0)
	sched.step()
	if m.Running() || sched.pending != nil {
		t.Error("chart scroll did not end the loop")
	}
	if y := ctrl.ZoomPanState().YOffset; y != 0 {
		t.Errorf("loop scrolled back to %v", y)
	}
}

func TestStaleFrameIgnored(t *testing.T) {
	ctrl, m, sched := newLinked(t, 30)
	m.KeepInView("s29")
	stale := sched.pending
	m.AnimationEnd()
	m.KeepInView("s0")
	if sched.requests != 2 {
		t.Fatalf("requests = %d", sched.requests)
	}
	current := sched.pending

	stale()
	if sched.requests != 2 || ctrl.ZoomPanState().YOffset != 0 {
		t.Errorf("stale frame ran: requests %d, yOffset %v", sched.requests, ctrl.ZoomPanState().YOffset)
	}
	if sched.pending == nil {
		t.Fatal("stale frame dropped the current request")
	}
	sched.pending = nil
	current()
	if !m.Running() || sched.requests != 3 {
		t.Errorf("current loop broken: running %v, requests %d", m.Running(), sched.requests)
	}
}

func TestKeepInViewStopsOnUnknownID(t *testing.T) {
	_, m, sched := newLinked(t, 5)
	m.KeepInView("missing")
	sched.step()
	if m.Running() || sched.pending != nil {
		t.Error("loop kept running for an unknown waypoint")
	}
}

func TestCloseCancels(t *testing.T) {
	_, m, sched := newLinked(t, 30)
	m.KeepInView("s10")
	m.Close()
	if sched.pending != nil || sched.cancels != 1 {
		t.Errorf("Close did not cancel the pending frame")
	}
	m.KeepInView("s10")
	if sched.requests != 1 || m.Running() {
		t.Error("KeepInView after Close started a loop")
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := TimerScheduler{Interval: time.Millisecond}

	cancel := s.RequestFrame(func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("frame never fired")
	}
	cancel()

	cancel = s.RequestFrame(func() { fired <- struct{}{} })
	cancel()
	select {
	case <-fired:
		t.Error("cancelled frame fired")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimerSchedulerDispatch(t *testing.T) {
	var dispatched int
	done := make(chan struct{})
	s := TimerScheduler{
		Interval: time.Millisecond,
		Dispatch: func(fn func()) {
			dispatched++
			fn()
		},
	}
	s.RequestFrame(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("frame never fired")
	}
	if dispatched != 1 {
		t.Errorf("dispatched = %d", dispatched)
	}
}
