package core

import "time"

// NewTickerScheduler creates a frame scheduler that fires at the
// configured frames per second.
func NewTickerScheduler(cfg SchedulerConfiguration) *TickerScheduler {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	return &TickerScheduler{
		fps:      cfg.FramesPerSecond,
		interval: interval,
		epoch:    time.Now(),
	}
}

// TickerScheduler implements FrameScheduler on top of wall-clock timers.
// Each scheduled frame fires once after one frame interval, on the
// timer's goroutine.
type TickerScheduler struct {
	fps      int
	interval time.Duration
	epoch    time.Time
}

// Fps gets the configured frames per second
func (s *TickerScheduler) Fps() int {
	return s.fps
}

// ScheduleFrame arms a one-shot timer for the next frame slot. The
// returned CancelFunc stops the timer; it is a no-op once the frame has
// fired.
func (s *TickerScheduler) ScheduleFrame(frame func(now float64)) CancelFunc {
	timer := time.AfterFunc(s.interval, func() {
		frame(float64(time.Since(s.epoch)) / float64(time.Millisecond))
	})
	return func() { timer.Stop() }
}
