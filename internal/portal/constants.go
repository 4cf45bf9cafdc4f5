package portal

import "time"

const (
	// ViewCookieName identifies a visitor's signup view.
	ViewCookieName = "kakashi_view"
	// SessionCookieName carries the token returned by a successful login.
	SessionCookieName = "session_token"

	SignupPath      = "/signup"
	SignupStatePath = "/signup/state"
	LoginPath       = "/login"

	DefaultViewTTL       = 30 * time.Minute
	DefaultSweepInterval = time.Minute

	// UI messages
	MsgLoginSuccessful      = "Login successful"
	MsgSubmissionInProgress = "A signup is already in progress"
	MsgInvalidForm          = "The form could not be read"

	// log messages
	LogViewCreated = "Signup view created"
	LogViewRemoved = "Signup view removed"
	LogViewsSwept  = "Idle signup views evicted"
	LogRenderError = "Failed to render page"

	ContentType     = "Content-Type"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJson = "application/json"

	// metrics constants
	ActiveViews               = "portal_active_views"
	ActiveViewsHelp           = "Number of signup views currently held in memory"
	ViewsEvictedTotal         = "portal_views_evicted_total"
	ViewsEvictedTotalHelp     = "Total number of signup views evicted after sitting idle"
	LoginSubmissionsTotal     = "portal_login_submissions_total"
	LoginSubmissionsTotalHelp = "Total number of login form submissions, by result"
)
