package core

// defaultFramesPerSecond is used when Build runs without an explicit
// scheduler, approximating a typical display refresh.
const defaultFramesPerSecond = 60

// SchedulerConfiguration contains settings for the ticker scheduler
type SchedulerConfiguration struct {

	// FramesPerSecond sets the frame cadence, 0 means unbounded
	FramesPerSecond int
}
