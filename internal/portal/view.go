package portal

import (
	"sync"
	"time"

	"github.com/haguru/kakashi/internal/submission"
)

// View is one visitor's signup page. It owns the page's submission
// controller and is that controller's navigator: a navigation is recorded
// here and carried out on the visitor's next page load.
type View struct {
	ID         string
	controller *submission.Controller

	mu       sync.Mutex
	location string
	lastSeen time.Time
}

// Navigate records path as the view's next location.
func (v *View) Navigate(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.location = path
}

// Location returns the recorded navigation target, or "".
func (v *View) Location() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.location
}

// Controller returns the view's submission controller.
func (v *View) Controller() *submission.Controller {
	return v.controller
}

func (v *View) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}
