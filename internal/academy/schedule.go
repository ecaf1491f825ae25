package academy

import "time"

// Scheduler runs f once after d. The returned cancel func stops a pending
// call; calling it after f ran is harmless.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, f func()) func()

func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) func() {
	return fn(d, f)
}
