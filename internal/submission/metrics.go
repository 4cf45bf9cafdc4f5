package submission

import "github.com/haguru/kakashi/internal/interfaces"

// RegisterMetrics registers the collectors a Controller reports to.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterCounter(SubmissionsTotal, SubmissionsTotalHelp)
	m.RegisterCounter(SubmissionsSucceededTotal, SubmissionsSucceededTotalHelp)
	m.RegisterCounter(SubmissionsFailedTotal, SubmissionsFailedTotalHelp)
	m.RegisterCounter(SubmissionsRejectedTotal, SubmissionsRejectedTotalHelp)
	m.RegisterCounter(RedirectsTotal, RedirectsTotalHelp)
	m.RegisterHistogram(SubmissionDurationSeconds, SubmissionDurationSecondsHelp, SubmissionDurationSecondsBuckets)
}
