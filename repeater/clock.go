package repeater

import "time"

// SystemClock is the wall clock. time.Now carries a monotonic reading, so
// durations derived from it are immune to wall-clock steps.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
