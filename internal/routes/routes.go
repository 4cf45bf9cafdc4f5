package routes

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/haguru/kakashi/internal/auth"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/internal/userservice"
	"github.com/haguru/kakashi/pkg/helper"

	structValidator "github.com/go-playground/validator/v10"
)

type Route struct {
	Metrics     interfaces.Metrics
	UserService interfaces.UserService
	PrivateKey  *ecdsa.PrivateKey
	Logger      interfaces.Logger
	validator   *structValidator.Validate
}

// NewRoute creates a new Route instance.
func NewRoute(metrics interfaces.Metrics, userService interfaces.UserService,
	privateKey *ecdsa.PrivateKey, validator *structValidator.Validate, logger interfaces.Logger,
) *Route {

	return &Route{
		Metrics:     metrics,
		UserService: userService,
		PrivateKey:  privateKey,
		Logger:      logger,
		validator:   validator,
	}
}

// RegisterMetrics registers the collectors the handlers report to.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterCounter(SignupRequestsTotal, SignupRequestsTotalHelp)
	m.RegisterCounter(SignupSuccessTotal, SignupSuccessTotalHelp)
	m.RegisterCounter(SignupErrorsTotal, SignupErrorsTotalHelp)
	m.RegisterCounterVec(SignupConflictsTotal, SignupConflictsTotalHelp, []string{"field"})
	m.RegisterHistogram(SignupDurationSeconds, SignupDurationSecondsHelp, SignupDurationSecondsBuckets)
	m.RegisterCounter(LoginRequestsTotal, LoginRequestsTotalHelp)
	m.RegisterCounter(LoginSuccessTotal, LoginSuccessTotalHelp)
	m.RegisterCounter(LoginFailedTotal, LoginFailedTotalHelp)
	m.RegisterHistogram(LoginDurationSeconds, LoginDurationSecondsHelp, LoginDurationSecondsBuckets)
}

// Signup handles user signup requests.
func (r *Route) Signup(w http.ResponseWriter, req *http.Request) {
	funcName := helper.GetFuncName()
	r.Logger.Debug("Entering function", "func", funcName)
	defer r.Logger.Debug("Exiting function", "func", funcName)

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf(ErrMethodNotAllowedFormat, req.Method), MsgMethodNotAllowed)
		return
	}

	r.incCounter(SignupRequestsTotal)

	if !isJSON(req) {
		r.errorResponse(w, http.StatusBadRequest, fmt.Errorf(ErrInvalidContentTypeFormat, req.Header.Get(ContentType)), MsgInvalidContentType)
		r.incCounter(SignupErrorsTotal)
		return
	}

	signupRequest := &dto.SignupRequestDTO{}
	if err := json.NewDecoder(req.Body).Decode(signupRequest); err != nil {
		r.errorResponse(w, http.StatusBadRequest, err, MsgInvalidRequestBody)
		r.incCounter(SignupErrorsTotal)
		return
	}

	if err := r.validator.Struct(signupRequest); err != nil {
		r.errorResponse(w, http.StatusBadRequest, fmt.Errorf("%s: %w", ErrValidationFailed, err), MsgSignupValidationFailed)
		r.incCounter(SignupErrorsTotal)
		return
	}

	startTime := time.Now()
	userID, err := r.UserService.RegisterUser(req.Context(), *signupRequest)
	r.observe(SignupDurationSeconds, startTime)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrUsernameTaken):
			r.conflict(SignupConflictsTotal, "username")
			r.errorResponse(w, http.StatusConflict, err, MsgUsernameTaken)
		case errors.Is(err, userservice.ErrEmailTaken):
			r.conflict(SignupConflictsTotal, "email")
			r.errorResponse(w, http.StatusConflict, err, MsgEmailTaken)
		default:
			r.Logger.Error(MsgFailedToRegisterUser, "func", funcName, "user", signupRequest.Username, "error", err)
			r.errorResponse(w, http.StatusInternalServerError, err, MsgFailedToRegisterUser)
		}
		r.incCounter(SignupErrorsTotal)
		return
	}

	r.incCounter(SignupSuccessTotal)
	r.writeJSON(w, http.StatusCreated, &dto.SignupResponseDTO{
		Message: fmt.Sprintf(MsgUserCreatedFormat, userID),
		UserID:  userID,
	})
}

// Login handles user login requests. A successful login sets the
// session_token cookie to an ES256 JWT.
func (r *Route) Login(w http.ResponseWriter, req *http.Request) {
	funcName := helper.GetFuncName()
	r.Logger.Debug("Entering function", "func", funcName)
	defer r.Logger.Debug("Exiting function", "func", funcName)

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf(ErrMethodNotAllowedFormat, req.Method), MsgMethodNotAllowed)
		r.incCounter(LoginFailedTotal)
		return
	}

	r.incCounter(LoginRequestsTotal)

	if !isJSON(req) {
		r.errorResponse(w, http.StatusBadRequest, fmt.Errorf(ErrInvalidContentTypeFormat, req.Header.Get(ContentType)), MsgInvalidContentType)
		r.incCounter(LoginFailedTotal)
		return
	}

	loginRequest := &dto.LoginRequestDTO{}
	if err := json.NewDecoder(req.Body).Decode(loginRequest); err != nil {
		r.errorResponse(w, http.StatusBadRequest, err, MsgInvalidRequestBody)
		r.incCounter(LoginFailedTotal)
		return
	}

	if err := r.validator.Struct(loginRequest); err != nil {
		r.errorResponse(w, http.StatusBadRequest, fmt.Errorf("%s: %w", ErrValidationFailed, err), MsgLoginValidationFailed)
		r.incCounter(LoginFailedTotal)
		return
	}

	startTime := time.Now()
	user, err := r.UserService.AuthenticateUser(req.Context(), loginRequest.Username, loginRequest.Password)
	r.observe(LoginDurationSeconds, startTime)
	if err != nil {
		r.incCounter(LoginFailedTotal)
		if errors.Is(err, userservice.ErrInvalidCredentials) {
			r.errorResponse(w, http.StatusUnauthorized, err, MsgInvalidCredentials)
			return
		}
		r.Logger.Error(MsgFailedToAuthenticate, "func", funcName, "user", loginRequest.Username, "error", err)
		r.errorResponse(w, http.StatusInternalServerError, err, MsgFailedToAuthenticate)
		return
	}

	sessionToken, err := auth.CreateToken(user.Username, user.Role.String(), r.PrivateKey)
	if err != nil {
		r.Logger.Error(MsgFailedToGenerateToken, "func", funcName, "user", user.Username, "error", err)
		r.errorResponse(w, http.StatusInternalServerError, err, MsgFailedToGenerateToken)
		r.incCounter(LoginFailedTotal)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   req.TLS != nil,
	})

	r.incCounter(LoginSuccessTotal)
	r.writeJSON(w, http.StatusOK, &dto.LoginResponseDTO{
		Message: MsgLoginSuccessful,
		Role:    user.Role.String(),
	})
}

// Health reports whether the user store is reachable.
func (r *Route) Health(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf(ErrMethodNotAllowedFormat, req.Method), MsgMethodNotAllowed)
		return
	}

	if err := r.UserService.Ping(req.Context()); err != nil {
		r.Logger.Warn(MsgServiceUnavailable, "error", err)
		r.writeJSON(w, http.StatusServiceUnavailable, &dto.HealthResponseDTO{Status: StatusUnavailable, Error: err.Error()})
		return
	}
	r.writeJSON(w, http.StatusOK, &dto.HealthResponseDTO{Status: StatusOK})
}

func (r *Route) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.Logger.Error("failed to encode response", "status", status, "error", err)
	}
}

func (r *Route) errorResponse(w http.ResponseWriter, status int, err error, message string) {
	r.writeJSON(w, status, &dto.ErrorResponseDTO{
		Error:   err.Error(),
		Message: message,
	})
}

func (r *Route) incCounter(name string) {
	if r.Metrics != nil {
		r.Metrics.IncCounter(name)
	}
}

func (r *Route) conflict(name, field string) {
	if r.Metrics != nil {
		r.Metrics.IncCounterVec(name, field)
	}
}

func (r *Route) observe(name string, start time.Time) {
	if r.Metrics != nil {
		r.Metrics.ObserveHistogram(name, time.Since(start).Seconds())
	}
}

func isJSON(req *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get(ContentType))
	return err == nil && mediaType == ContentTypeJson
}
