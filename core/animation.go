package core

import "sync"

// animationDriver is the Stopped/Running state machine behind
// StartAnimating and StopAnimating. It owns the cancellation token for
// the currently scheduled frame and re-schedules itself after each frame
// completes, so frames never overlap.
type animationDriver struct {
	scheduler FrameScheduler

	mu      sync.Mutex
	running bool
	cancel  CancelFunc
}

func (d *animationDriver) start(frame func(now float64)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.schedule(frame)
}

// schedule must be called with d.mu held.
func (d *animationDriver) schedule(frame func(now float64)) {
	d.cancel = d.scheduler.ScheduleFrame(func(now float64) {
		// A stop issued after scheduling but before the tick fired
		// wins: the frame body never runs.
		d.mu.Lock()
		if !d.running {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		frame(now)

		d.mu.Lock()
		if d.running {
			d.schedule(frame)
		}
		d.mu.Unlock()
	})
}

func (d *animationDriver) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *animationDriver) animating() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
