package submission

import "errors"

var (
	// ErrSubmissionInFlight is returned when Submit is called while another
	// submission has not resolved yet.
	ErrSubmissionInFlight = errors.New("a signup submission is already in progress")
	// ErrControllerClosed is returned when Submit is called after Close.
	ErrControllerClosed = errors.New("submission controller is closed")
)

// ResponseError is implemented by errors that carry the message of the
// backend's error payload.
type ResponseError interface {
	error
	ResponseMessage() string
}

// DisplayMessage turns a signup failure into the single line shown to the user:
// the backend's message verbatim when it is non-empty, MsgGenericError otherwise.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var respErr ResponseError
	if errors.As(err, &respErr) {
		if msg := respErr.ResponseMessage(); msg != "" {
			return msg
		}
	}
	return MsgGenericError
}
