package manchette

import "time"

// FrameScheduler runs fn once on the next frame. The returned function cancels
// the request if it has not fired yet.
type FrameScheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// DefaultFrameInterval is roughly one frame at 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// TimerScheduler schedules frames with time.AfterFunc. Frames fire on the timer's
// goroutine unless Dispatch hands them to the UI thread.
type TimerScheduler struct {
	Interval time.Duration
	Dispatch func(func())
}

// RequestFrame implements FrameScheduler.
func (s TimerScheduler) RequestFrame(fn func()) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	run := fn
	if s.Dispatch != nil {
		run = func() { s.Dispatch(fn) }
	}
	t := time.AfterFunc(interval, run)
	return func() { t.Stop() }
}
