package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/haguru/kakashi/internal/authclient"
	"github.com/haguru/kakashi/internal/form"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/interfaces/mocks"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/internal/submission"
	"github.com/haguru/kakashi/pkg/clock"
	"github.com/haguru/kakashi/pkg/metrics"
	"github.com/haguru/kakashi/pkg/zerolog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var aliceForm = url.Values{
	"username": {"alice"},
	"email":    {"alice@x.com"},
	"password": {"secret"},
	"role":     {"admin"},
}

var aliceRequest = dto.SignupRequestDTO{
	Username: "alice",
	Email:    "alice@x.com",
	Password: "secret",
	Role:     "admin",
}

type handlerFixture struct {
	handler  *Handler
	registry *Registry
	clock    *clock.Fake
	mux      *http.ServeMux
	cookies  []*http.Cookie
}

func newHandlerFixture(t *testing.T, authClient interfaces.AuthClient, m interfaces.Metrics) *handlerFixture {
	t.Helper()
	return newHandlerFixtureWithLogin(t, authClient, m, "")
}

// newHandlerFixtureWithLogin mounts the views the way the app does, with the
// login view and the post-signup redirect both at loginPath.
func newHandlerFixtureWithLogin(t *testing.T, authClient interfaces.AuthClient, m interfaces.Metrics, loginPath string) *handlerFixture {
	t.Helper()
	fake := clock.NewFake(testStart)
	logger := zerolog.NewNopLogger()
	factory := func(nav interfaces.Navigator) *submission.Controller {
		return submission.NewController(authClient, nav, fake, logger, nil, submission.Options{LoginPath: loginPath})
	}
	registry := NewRegistry(factory, fake, time.Minute, logger, m)

	handler, err := NewHandler(registry, form.NewValidator(), authClient, logger, m, time.Second, loginPath)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.Index)
	mux.HandleFunc("GET "+SignupPath, handler.SignupPage)
	mux.HandleFunc("POST "+SignupPath, handler.SignupSubmit)
	mux.HandleFunc("GET "+SignupStatePath, handler.SignupState)
	mux.HandleFunc("GET "+handler.LoginPath(), handler.LoginPage)
	mux.HandleFunc("POST "+handler.LoginPath(), handler.LoginSubmit)

	return &handlerFixture{handler: handler, registry: registry, clock: fake, mux: mux}
}

// do sends a request carrying the view cookie from earlier responses, like a browser would.
func (f *handlerFixture) do(method, path string, values url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if values != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name != ViewCookieName {
			continue
		}
		f.cookies = nil
		if c.MaxAge >= 0 && c.Value != "" {
			f.cookies = []*http.Cookie{{Name: c.Name, Value: c.Value}}
		}
	}
	return rec
}

func (f *handlerFixture) state(t *testing.T) dto.SignupStateDTO {
	t.Helper()
	rec := f.do(http.MethodGet, SignupStatePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state dto.SignupStateDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	return state
}

func TestHandler_IndexRedirectsToSignup(t *testing.T) {
	f := newHandlerFixture(t, mocks.NewMockAuthClient(t), nil)

	rec := f.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, SignupPath, rec.Header().Get("Location"))
}

func TestHandler_SignupPageRendersForm(t *testing.T) {
	f := newHandlerFixture(t, mocks.NewMockAuthClient(t), nil)

	rec := f.do(http.MethodGet, SignupPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeHTML, rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `<form method="post" action="/signup"`)
	for _, name := range []string{"username", "email", "password", "role"} {
		assert.Contains(t, body, `name="`+name+`"`)
	}
	assert.Contains(t, body, `<option value="accountant">Accountant</option>`)
	assert.Contains(t, body, `href="/login"`)
	assert.NotContains(t, body, `http-equiv="refresh"`)

	require.Len(t, f.cookies, 1)
	assert.Equal(t, 1, f.registry.Len())

	// the same visitor keeps the same view
	f.do(http.MethodGet, SignupPath, nil)
	assert.Equal(t, 1, f.registry.Len())
}

func TestHandler_SignupSubmitFieldErrors(t *testing.T) {
	authClient := mocks.NewMockAuthClient(t)
	f := newHandlerFixture(t, authClient, nil)

	rec := f.do(http.MethodPost, SignupPath, url.Values{
		"username": {"alice"},
		"email":    {"not-an-email"},
		"password": {"secret"},
		"role":     {"wizard"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Email must be a valid email address")
	assert.Contains(t, body, "Role must be one of: admin, accountant")
	assert.Contains(t, body, `value="alice"`)
	assert.NotContains(t, body, `value="secret"`)

	authClient.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestHandler_SignupSubmitUnreadableForm(t *testing.T) {
	f := newHandlerFixture(t, mocks.NewMockAuthClient(t), nil)

	req := httptest.NewRequest(http.MethodPost, SignupPath, strings.NewReader("username=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgInvalidForm)
}

func TestHandler_SignupSubmitFailureShowsMessage(t *testing.T) {
	tests := []struct {
		name        string
		signupErr   error
		wantMessage string
	}{
		{
			name: "backend message",
			signupErr: &authclient.ResponseError{
				StatusCode: http.StatusConflict,
				Data:       dto.ErrorResponseDTO{Error: "duplicate", Message: "Username already taken"},
			},
			wantMessage: "Username already taken",
		},
		{
			name:        "transport failure",
			signupErr:   errors.New("connection refused"),
			wantMessage: "An error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authClient := mocks.NewMockAuthClient(t)
			authClient.On("Signup", mock.Anything, aliceRequest).Return(tt.signupErr).Once()
			f := newHandlerFixture(t, authClient, nil)

			rec := f.do(http.MethodPost, SignupPath, aliceForm)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `<p class="message error" role="alert">`+tt.wantMessage+`</p>`)
			assert.NotContains(t, body, "message success")
			assert.NotContains(t, body, `http-equiv="refresh"`)

			state := f.state(t)
			assert.Equal(t, "idle", state.State)
			assert.Equal(t, tt.wantMessage, state.ErrorMessage)
			assert.Empty(t, state.SuccessMessage)
		})
	}
}

func TestHandler_SignupSuccessRedirectsAfterDelay(t *testing.T) {
	authClient := mocks.NewMockAuthClient(t)
	authClient.On("Signup", mock.Anything, aliceRequest).Return(nil).Once()
	f := newHandlerFixture(t, authClient, nil)

	rec := f.do(http.MethodPost, SignupPath, aliceForm)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, submission.MsgSignupSuccess)
	assert.Contains(t, body, `<meta http-equiv="refresh" content="2;url=/signup">`)
	assert.NotContains(t, body, "<form")

	// reloading before the delay keeps the message up
	rec = f.do(http.MethodGet, SignupPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), submission.MsgSignupSuccess)
	assert.Contains(t, rec.Body.String(), `content="1;url=/signup"`)

	f.clock.Advance(1999 * time.Millisecond)
	assert.Empty(t, f.state(t).RedirectTo)

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, "/login", f.state(t).RedirectTo)

	rec = f.do(http.MethodGet, SignupPath, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 0, f.registry.Len())
	assert.Empty(t, f.cookies)

	// the next visit starts from a clean form
	rec = f.do(http.MethodGet, SignupPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), submission.MsgSignupSuccess)
}

func TestHandler_ResubmitCancelsPendingRedirect(t *testing.T) {
	authClient := mocks.NewMockAuthClient(t)
	authClient.On("Signup", mock.Anything, aliceRequest).Return(nil).Once()
	f := newHandlerFixture(t, authClient, nil)

	f.do(http.MethodPost, SignupPath, aliceForm)

	bob := url.Values{"username": {"bob"}, "email": {"bob@x.com"}, "password": {"secret"}, "role": {"accountant"}}
	authClient.On("Signup", mock.Anything, mock.MatchedBy(func(req dto.SignupRequestDTO) bool {
		return req.Username == "bob"
	})).Return(&authclient.ResponseError{
		StatusCode: http.StatusConflict,
		Data:       dto.ErrorResponseDTO{Message: "Email already in use"},
	}).Once()

	rec := f.do(http.MethodPost, SignupPath, bob)
	assert.Contains(t, rec.Body.String(), "Email already in use")
	assert.NotContains(t, rec.Body.String(), submission.MsgSignupSuccess)

	f.clock.Advance(time.Minute)
	assert.Empty(t, f.state(t).RedirectTo)
}

func TestHandler_SignupSubmitWhileInFlight(t *testing.T) {
	authClient := mocks.NewMockAuthClient(t)
	started := make(chan struct{})
	release := make(chan struct{})
	authClient.On("Signup", mock.Anything, aliceRequest).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil).Once()
	f := newHandlerFixture(t, authClient, nil)

	// open the view first so both posts share it
	f.do(http.MethodGet, SignupPath, nil)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- f.do(http.MethodPost, SignupPath, aliceForm)
	}()
	<-started

	assert.Equal(t, "submitting", f.state(t).State)

	rec := f.do(http.MethodPost, SignupPath, aliceForm)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgSubmissionInProgress)
	assert.Contains(t, rec.Body.String(), "disabled")

	close(release)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), submission.MsgSignupSuccess)
}

func TestHandler_SignupStateWithoutView(t *testing.T) {
	f := newHandlerFixture(t, mocks.NewMockAuthClient(t), nil)

	state := f.state(t)
	assert.Equal(t, dto.SignupStateDTO{State: "idle"}, state)
	assert.Equal(t, 0, f.registry.Len())
}

func TestHandler_EvictedViewStartsOver(t *testing.T) {
	f := newHandlerFixture(t, mocks.NewMockAuthClient(t), nil)

	f.do(http.MethodGet, SignupPath, nil)
	require.Len(t, f.cookies, 1)
	oldID := f.cookies[0].Value

	f.clock.Advance(2 * time.Minute)
	require.Equal(t, 1, f.registry.Sweep())

	rec := f.do(http.MethodGet, SignupPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.cookies, 1)
	assert.NotEqual(t, oldID, f.cookies[0].Value)
}

func TestHandler_Login(t *testing.T) {
	creds := dto.LoginRequestDTO{Username: "alice", Password: "secret"}

	tests := []struct {
		name        string
		loginToken  string
		loginErr    error
		wantMessage string
		wantCookie  bool
		wantResult  string
	}{
		{
			name:        "success",
			loginToken:  "token-123",
			wantMessage: "Login successful",
			wantCookie:  true,
			wantResult:  "succeeded",
		},
		{
			name: "invalid credentials",
			loginErr: &authclient.ResponseError{
				StatusCode: http.StatusUnauthorized,
				Data:       dto.ErrorResponseDTO{Message: "Invalid username or password"},
			},
			wantMessage: "Invalid username or password",
			wantResult:  "failed",
		},
		{
			name:        "backend down",
			loginErr:    errors.New("connection refused"),
			wantMessage: "An error occurred",
			wantResult:  "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewMetrics("kakashi")
			RegisterMetrics(m)
			authClient := mocks.NewMockAuthClient(t)
			authClient.On("Login", mock.Anything, creds).Return(tt.loginToken, tt.loginErr).Once()
			f := newHandlerFixture(t, authClient, m)

			rec := f.do(http.MethodPost, LoginPath, url.Values{"username": {"alice"}, "password": {"secret"}})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMessage)

			var session *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == SessionCookieName {
					session = c
				}
			}
			if tt.wantCookie {
				require.NotNil(t, session)
				assert.Equal(t, tt.loginToken, session.Value)
				assert.True(t, session.HttpOnly)
			} else {
				assert.Nil(t, session)
			}

			expected := `
# HELP kakashi_portal_login_submissions_total Total number of login form submissions, by result
# TYPE kakashi_portal_login_submissions_total counter
kakashi_portal_login_submissions_total{result="` + tt.wantResult + `"} 1
`
			assert.NoError(t, testutil.GatherAndCompare(m.GetRegistry(), strings.NewReader(expected),
				"kakashi_portal_login_submissions_total"))
		})
	}
}

func TestHandler_LoginFieldErrors(t *testing.T) {
	authClient := mocks.NewMockAuthClient(t)
	f := newHandlerFixture(t, authClient, nil)

	rec := f.do(http.MethodPost, LoginPath, url.Values{"username": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username is required")
	assert.Contains(t, rec.Body.String(), "Password is required")
	assert.Contains(t, rec.Body.String(), `href="/signup"`)

	authClient.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

// The portal against a live backend: the backend's conflict message reaches
// the page verbatim.
func TestPortal_BackendConflictEndToEnd(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, authclient.SignupPath, r.URL.Path)
		var req dto.SignupRequestDTO
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, aliceRequest, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(dto.ErrorResponseDTO{Error: "email taken", Message: "Email already in use"})
	}))
	defer backend.Close()

	f := newHandlerFixture(t, authclient.NewClient(backend.URL, time.Second, zerolog.NewNopLogger()), nil)

	rec := f.do(http.MethodPost, SignupPath, aliceForm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<p class="message error" role="alert">Email already in use</p>`)

	f.clock.Advance(time.Minute)
	rec = f.do(http.MethodGet, SignupPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already in use")
}

func TestPortal_BackendSuccessEndToEnd(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(dto.SignupResponseDTO{Message: "User registered successfully", UserID: "u1"})
	}))
	defer backend.Close()

	f := newHandlerFixture(t, authclient.NewClient(backend.URL, time.Second, zerolog.NewNopLogger()), nil)

	rec := f.do(http.MethodPost, SignupPath, aliceForm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), submission.MsgSignupSuccess)

	f.clock.Advance(2000 * time.Millisecond)
	rec = f.do(http.MethodGet, SignupPath, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestHandler_ShortCredentialsReachBackend(t *testing.T) {
	short := dto.SignupRequestDTO{Username: "al", Email: "al@x.com", Password: "pw", Role: "admin"}
	authClient := mocks.NewMockAuthClient(t)
	authClient.On("Signup", mock.Anything, short).Return(nil).Once()
	f := newHandlerFixture(t, authClient, nil)

	rec := f.do(http.MethodPost, SignupPath, url.Values{
		"username": {"al"},
		"email":    {"al@x.com"},
		"password": {"pw"},
		"role":     {"admin"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), submission.MsgSignupSuccess)
}

func TestHandler_CustomLoginPath(t *testing.T) {
	authClient := mocks.NewMockAuthClient(t)
	authClient.On("Signup", mock.Anything, aliceRequest).Return(nil).Once()
	authClient.On("Login", mock.Anything, dto.LoginRequestDTO{Username: "alice", Password: "secret"}).
		Return("token-123", nil).Once()
	f := newHandlerFixtureWithLogin(t, authClient, nil, "/account/login")

	rec := f.do(http.MethodPost, SignupPath, aliceForm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/account/login"`)

	f.clock.Advance(2000 * time.Millisecond)
	rec = f.do(http.MethodGet, SignupPath, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.Equal(t, "/account/login", location)

	// the redirect target is served
	rec = f.do(http.MethodGet, location, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form method="post" action="/account/login"`)

	rec = f.do(http.MethodPost, location, url.Values{"username": {"alice"}, "password": {"secret"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgLoginSuccessful)

	rec = f.do(http.MethodGet, LoginPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
