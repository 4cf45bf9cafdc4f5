package portal

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"time"

	"github.com/haguru/kakashi/internal/form"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/middleware"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/internal/submission"
	"github.com/haguru/kakashi/pkg/helper"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the data every template renders.
type page struct {
	Title          string
	Action         string
	SubmitLabel    string
	Fields         []form.Field
	Values         map[string]string
	Errors         form.Errors
	ErrorMessage   string
	SuccessMessage string
	Submitting     bool
	RefreshURL     string
	RefreshSeconds int
	LoginURL       string
	SignupURL      string
}

// Handler serves the signup and login views.
type Handler struct {
	registry       *Registry
	forms          *form.Validator
	auth           interfaces.AuthClient
	logger         interfaces.Logger
	metrics        interfaces.Metrics
	templates      *template.Template
	requestTimeout time.Duration
	loginPath      string
}

// NewHandler parses the embedded templates. A non-positive requestTimeout
// leaves the request context as is; an empty loginPath serves the login view
// at LoginPath. metrics may be nil.
func NewHandler(registry *Registry, forms *form.Validator, authClient interfaces.AuthClient,
	logger interfaces.Logger, metrics interfaces.Metrics, requestTimeout time.Duration, loginPath string,
) (*Handler, error) {
	if loginPath == "" {
		loginPath = LoginPath
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		registry:       registry,
		forms:          forms,
		auth:           authClient,
		logger:         logger,
		metrics:        metrics,
		templates:      tmpl,
		requestTimeout: requestTimeout,
		loginPath:      loginPath,
	}, nil
}

// LoginPath is where the login view is served.
func (h *Handler) LoginPath() string {
	return h.loginPath
}

// Index sends visitors to the signup view.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, SignupPath, http.StatusSeeOther)
}

// SignupPage renders the signup view. Once the view's controller has
// navigated, the visitor is sent to the recorded location and the view is
// torn down.
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	view := h.viewFor(w, r)

	if location := view.Location(); location != "" {
		h.registry.Remove(view.ID)
		h.clearViewCookie(w)
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}

	p := h.signupPage(view, nil, nil)
	if view.Controller().RedirectPending() {
		p.RefreshURL = SignupPath
		p.RefreshSeconds = 1
	}
	h.render(w, http.StatusOK, "signup.html", p)
}

// SignupSubmit validates the posted form and hands it to the view's controller.
// Field errors never reach the controller.
func (h *Handler) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	funcName := helper.GetFuncName()
	h.logger.Debug("Entering function", "func", funcName)
	defer h.logger.Debug("Exiting function", "func", funcName)

	view := h.viewFor(w, r)

	req, err := form.DecodeSignup(r)
	if err != nil {
		p := h.signupPage(view, nil, nil)
		p.ErrorMessage = MsgInvalidForm
		h.render(w, http.StatusBadRequest, "signup.html", p)
		return
	}

	values := signupValues(req)
	if errs := h.forms.ValidateSignup(req); len(errs) > 0 {
		h.render(w, http.StatusUnprocessableEntity, "signup.html", h.signupPage(view, values, errs))
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	_, err = view.Controller().Submit(ctx, req)
	switch {
	case errors.Is(err, submission.ErrSubmissionInFlight):
		p := h.signupPage(view, values, nil)
		p.ErrorMessage = MsgSubmissionInProgress
		p.Submitting = true
		h.render(w, http.StatusConflict, "signup.html", p)
		return
	case errors.Is(err, submission.ErrControllerClosed):
		// the view was evicted while the form was open; start over on a fresh one
		h.clearViewCookie(w)
		http.Redirect(w, r, SignupPath, http.StatusSeeOther)
		return
	}

	p := h.signupPage(view, values, nil)
	if p.SuccessMessage != "" {
		p.RefreshURL = SignupPath
		p.RefreshSeconds = int(math.Ceil(view.Controller().Options().RedirectDelay.Seconds()))
	}
	h.render(w, http.StatusOK, "signup.html", p)
}

// SignupState reports the view's state as JSON for polling clients.
func (h *Handler) SignupState(w http.ResponseWriter, r *http.Request) {
	state := dto.SignupStateDTO{State: submission.StateIdle.String()}
	if view, ok := h.lookupView(r); ok {
		ui := view.Controller().UI()
		state = dto.SignupStateDTO{
			State:          view.Controller().State().String(),
			ErrorMessage:   ui.ErrorMessage,
			SuccessMessage: ui.SuccessMessage,
			RedirectTo:     view.Location(),
		}
	}

	w.Header().Set(ContentType, ContentTypeJson)
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// LoginPage renders the login view.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", h.loginPage(nil, nil))
}

// LoginSubmit posts the credentials to the auth backend and stores the
// returned session token in a cookie.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	funcName := helper.GetFuncName()
	h.logger.Debug("Entering function", "func", funcName)
	defer h.logger.Debug("Exiting function", "func", funcName)

	req, err := form.DecodeLogin(r)
	if err != nil {
		p := h.loginPage(nil, nil)
		p.ErrorMessage = MsgInvalidForm
		h.render(w, http.StatusBadRequest, "login.html", p)
		return
	}

	values := map[string]string{"username": req.Username}
	if errs := h.forms.ValidateLogin(req); len(errs) > 0 {
		h.render(w, http.StatusUnprocessableEntity, "login.html", h.loginPage(values, errs))
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	token, err := h.auth.Login(ctx, req)
	if err != nil {
		h.countLogin("failed")
		h.logger.Warn("Login failed", "func", funcName, "user", req.Username,
			"request_id", middleware.RequestIDFromContext(r.Context()), "error", err)
		p := h.loginPage(values, nil)
		p.ErrorMessage = submission.DisplayMessage(err)
		h.render(w, http.StatusOK, "login.html", p)
		return
	}

	h.countLogin("succeeded")
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	p := h.loginPage(values, nil)
	p.SuccessMessage = MsgLoginSuccessful
	h.render(w, http.StatusOK, "login.html", p)
}

// viewFor returns the visitor's view, creating one and setting its cookie
// when the visitor has none or it has been evicted.
func (h *Handler) viewFor(w http.ResponseWriter, r *http.Request) *View {
	if view, ok := h.lookupView(r); ok {
		return view
	}
	view := h.registry.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     ViewCookieName,
		Value:    view.ID,
		Path:     SignupPath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return view
}

func (h *Handler) lookupView(r *http.Request) (*View, bool) {
	cookie, err := r.Cookie(ViewCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return h.registry.Get(cookie.Value)
}

func (h *Handler) clearViewCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ViewCookieName,
		Value:    "",
		Path:     SignupPath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

func (h *Handler) signupPage(view *View, values map[string]string, errs form.Errors) page {
	ui := view.Controller().UI()
	return page{
		Title:          "Sign up",
		Action:         SignupPath,
		SubmitLabel:    "Sign up",
		Fields:         form.SignupFields,
		Values:         values,
		Errors:         errs,
		ErrorMessage:   ui.ErrorMessage,
		SuccessMessage: ui.SuccessMessage,
		Submitting:     view.Controller().State() == submission.StateSubmitting,
		LoginURL:       view.Controller().Options().LoginPath,
	}
}

func (h *Handler) loginPage(values map[string]string, errs form.Errors) page {
	return page{
		Title:       "Log in",
		Action:      h.loginPath,
		SubmitLabel: "Log in",
		Fields:      form.LoginFields,
		Values:      values,
		Errors:      errs,
		SignupURL:   SignupPath,
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, p page) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, p); err != nil {
		h.logger.Error(LogRenderError, "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set(ContentType, ContentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn(LogRenderError, "template", name, "error", err)
	}
}

func (h *Handler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.IncCounterVec(LoginSubmissionsTotal, result)
	}
}

func signupValues(req dto.SignupRequestDTO) map[string]string {
	return map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"role":     req.Role,
	}
}
