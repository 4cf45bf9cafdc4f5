package submission

import "time"

const (
	// DefaultRedirectDelay is how long the success message stays up before navigating.
	DefaultRedirectDelay = 2000 * time.Millisecond
	// DefaultLoginPath is where a successful signup navigates to.
	DefaultLoginPath = "/login"

	// UI messages
	MsgSignupSuccess = "🎉 You have successfully registered! Redirecting to login..."
	MsgGenericError  = "An error occurred"

	// log messages
	LogSubmissionFailed   = "Signup submission failed"
	LogSubmissionRejected = "Signup submission rejected"
	LogRedirectScheduled  = "Redirect scheduled"
	LogRedirectCancelled  = "Pending redirect cancelled"
	LogNavigating         = "Navigating after signup"
	LogLateOutcomeDropped = "Signup resolved after controller closed, outcome dropped"

	// metrics constants
	SubmissionsTotal              = "signup_submissions_total"
	SubmissionsTotalHelp          = "Total number of signup submissions started"
	SubmissionsSucceededTotal     = "signup_submissions_succeeded_total"
	SubmissionsSucceededTotalHelp = "Total number of signup submissions that succeeded"
	SubmissionsFailedTotal        = "signup_submissions_failed_total"
	SubmissionsFailedTotalHelp    = "Total number of signup submissions that failed"
	SubmissionsRejectedTotal      = "signup_submissions_rejected_total"
	SubmissionsRejectedTotalHelp  = "Total number of signup submissions refused while one was in flight or after close"
	RedirectsTotal                = "signup_redirects_total"
	RedirectsTotalHelp            = "Total number of post-signup navigations performed"
	SubmissionDurationSeconds     = "signup_submission_duration_seconds"
	SubmissionDurationSecondsHelp = "Duration of the signup call made by a submission in seconds"
)

var SubmissionDurationSecondsBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
