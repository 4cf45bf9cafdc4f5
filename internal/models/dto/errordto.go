package dto

// ErrorResponseDTO is the body of every non-2xx backend response.
// Message is safe to show to the user; Error carries the internal cause.
type ErrorResponseDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type RateLimitResponse struct {
	Message string `json:"message"`
}

// SignupStateDTO is the polling view of a signup page.
type SignupStateDTO struct {
	State          string `json:"state"`
	ErrorMessage   string `json:"error_message,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`
	RedirectTo     string `json:"redirect_to,omitempty"`
}

type HealthResponseDTO struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
