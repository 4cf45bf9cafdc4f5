package portal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/submission"
)

// ControllerFactory builds the controller of a new view, navigating through nav.
type ControllerFactory func(nav interfaces.Navigator) *submission.Controller

// Registry holds the live views keyed by id. Removing a view closes its
// controller, which cancels any pending redirect.
type Registry struct {
	newController ControllerFactory
	scheduler     interfaces.Scheduler
	ttl           time.Duration
	logger        interfaces.Logger
	metrics       interfaces.Metrics

	mu    sync.Mutex
	views map[string]*View
}

// NewRegistry creates an empty registry. A non-positive ttl uses
// DefaultViewTTL. metrics may be nil.
func NewRegistry(factory ControllerFactory, scheduler interfaces.Scheduler, ttl time.Duration,
	logger interfaces.Logger, metrics interfaces.Metrics,
) *Registry {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &Registry{
		newController: factory,
		scheduler:     scheduler,
		ttl:           ttl,
		logger:        logger,
		metrics:       metrics,
		views:         make(map[string]*View),
	}
}

// RegisterMetrics registers the collectors the registry and handlers report to.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterGauge(ActiveViews, ActiveViewsHelp)
	m.RegisterCounter(ViewsEvictedTotal, ViewsEvictedTotalHelp)
	m.RegisterCounterVec(LoginSubmissionsTotal, LoginSubmissionsTotalHelp, []string{"result"})
}

// Create starts a new view with its own controller.
func (r *Registry) Create() *View {
	view := &View{ID: uuid.NewString()}
	view.controller = r.newController(view)
	view.touch(r.scheduler.Now())

	r.mu.Lock()
	r.views[view.ID] = view
	n := len(r.views)
	r.mu.Unlock()

	r.setActive(n)
	r.logger.Debug(LogViewCreated, "view", view.ID)
	return view
}

// Get returns the view with id and marks it as seen.
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.Lock()
	view, ok := r.views[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	view.touch(r.scheduler.Now())
	return view, true
}

// Remove drops the view and closes its controller. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	view, ok := r.views[id]
	delete(r.views, id)
	n := len(r.views)
	r.mu.Unlock()
	if !ok {
		return
	}

	view.controller.Close()
	r.setActive(n)
	r.logger.Debug(LogViewRemoved, "view", id)
}

// Sweep evicts idle views unseen for longer than the ttl and returns how many
// were removed. Views with a submission in flight are kept.
func (r *Registry) Sweep() int {
	cutoff := r.scheduler.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*View
	for id, view := range r.views {
		if view.idleSince().Before(cutoff) && view.controller.State() == submission.StateIdle {
			expired = append(expired, view)
			delete(r.views, id)
		}
	}
	n := len(r.views)
	r.mu.Unlock()

	for _, view := range expired {
		view.controller.Close()
	}
	if len(expired) > 0 {
		r.setActive(n)
		if r.metrics != nil {
			r.metrics.AddCounter(ViewsEvictedTotal, float64(len(expired)))
		}
		r.logger.Info(LogViewsSwept, "count", len(expired), "remaining", n)
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes every view.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer r.CloseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll removes every view.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*View)
	r.mu.Unlock()

	for _, view := range views {
		view.controller.Close()
	}
	r.setActive(0)
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) setActive(n int) {
	if r.metrics != nil {
		r.metrics.SetGauge(ActiveViews, float64(n))
	}
}
