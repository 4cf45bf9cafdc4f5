package clock

import (
	"time"

	"github.com/haguru/kakashi/internal/interfaces"
)

// Clock is the wall-clock Scheduler backed by time.AfterFunc.
type Clock struct{}

// New returns a Scheduler running tasks on the real clock.
func New() interfaces.Scheduler {
	return Clock{}
}

// AfterFunc schedules f on its own goroutine after d.
func (Clock) AfterFunc(d time.Duration, f func()) interfaces.Timer {
	return time.AfterFunc(d, f)
}

func (Clock) Now() time.Time {
	return time.Now()
}
