package routes

var (
	SignupDurationSecondsBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	LoginDurationSecondsBuckets  = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}
)

const (
	// API route constants
	HealthRouteAPI  = "/api/health"
	MetricsRouteAPI = "/metrics"
	LoginRouteAPI   = "/api/login"
	SignupRouteAPI  = "/api/signup"

	// Content-Type constants
	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"

	SessionCookieName = "session_token"

	// message constants, shown to the user by the portal
	MsgLoginSuccessful        = "Login successful"
	MsgUserCreatedFormat      = "User created successfully with ID: %s"
	MsgUsernameTaken          = "Username already taken"
	MsgEmailTaken             = "Email already in use"
	MsgFailedToRegisterUser   = "Failed to register user"
	MsgInvalidCredentials     = "Invalid username or password"
	MsgMethodNotAllowed       = "Method not allowed"
	MsgInvalidContentType     = "Request Content-Type must be application/json"
	MsgInvalidRequestBody     = "Invalid request body"
	MsgSignupValidationFailed = "Signup data validation failed"
	MsgLoginValidationFailed  = "Login data validation failed"
	MsgFailedToGenerateToken  = "Failed to generate session token"
	MsgFailedToAuthenticate   = "Failed to authenticate user"
	MsgServiceUnavailable     = "Service unavailable"
	StatusOK                  = "ok"
	StatusUnavailable         = "unavailable"

	// Error messages
	ErrMethodNotAllowedFormat   = "method %s not allowed"
	ErrInvalidContentTypeFormat = "invalid content-type: %s"
	ErrValidationFailed         = "data validation failed"

	// metrics constants
	SignupRequestsTotal       = "signup_requests_total"
	SignupRequestsTotalHelp   = "Total number of signup requests received"
	SignupSuccessTotal        = "signup_success_total"
	SignupSuccessTotalHelp    = "Total number of successful signup requests"
	SignupErrorsTotal         = "signup_errors_total"
	SignupErrorsTotalHelp     = "Total number of errors during signup requests"
	SignupConflictsTotal      = "signup_conflicts_total"
	SignupConflictsTotalHelp  = "Total number of signup requests rejected as duplicates, by field"
	SignupDurationSeconds     = "signup_duration_seconds"
	SignupDurationSecondsHelp = "Duration of signup requests in seconds"
	LoginRequestsTotal        = "login_requests_total"
	LoginRequestsTotalHelp    = "Total number of login requests received"
	LoginSuccessTotal         = "login_success_total"
	LoginSuccessTotalHelp     = "Total number of successful login requests"
	LoginFailedTotal          = "login_failed_total"
	LoginFailedTotalHelp      = "Total number of failed login requests"
	LoginDurationSeconds      = "login_duration_seconds"
	LoginDurationSecondsHelp  = "Duration of login requests in seconds"
)
