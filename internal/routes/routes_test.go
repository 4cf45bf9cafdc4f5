package routes

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haguru/kakashi/internal/auth"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/interfaces/mocks"
	"github.com/haguru/kakashi/internal/models"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/internal/userservice"
	"github.com/haguru/kakashi/pkg/metrics"
	"github.com/haguru/kakashi/pkg/zerolog"
)

const validSignupBody = `{"username":"alice","email":"alice@x.com","password":"s3cret!","role":"admin"}`

func newTestRoute(t *testing.T, svc *mocks.MockUserService) (*Route, interfaces.Metrics, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	m := metrics.NewMetrics("kakashi")
	RegisterMetrics(m)
	return NewRoute(m, svc, key, structValidator.New(), zerolog.NewNopLogger()), m, key
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponseDTO {
	t.Helper()
	var body dto.ErrorResponseDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestRoute_Signup(t *testing.T) {
	signup := dto.SignupRequestDTO{Username: "alice", Email: "alice@x.com", Password: "s3cret!", Role: "admin"}

	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		serviceErr     error
		callsService   bool
		wantStatusCode int
		wantMessage    string
	}{
		{
			name:           "Valid signup request",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           validSignupBody,
			callsService:   true,
			wantStatusCode: http.StatusCreated,
			wantMessage:    "User created successfully with ID: user-1",
		},
		{
			name:           "Content-Type with charset",
			method:         http.MethodPost,
			contentType:    "application/json; charset=utf-8",
			body:           validSignupBody,
			callsService:   true,
			wantStatusCode: http.StatusCreated,
			wantMessage:    "User created successfully with ID: user-1",
		},
		{
			name:           "Username taken",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           validSignupBody,
			serviceErr:     userservice.ErrUsernameTaken,
			callsService:   true,
			wantStatusCode: http.StatusConflict,
			wantMessage:    MsgUsernameTaken,
		},
		{
			name:           "Email taken",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           validSignupBody,
			serviceErr:     userservice.ErrEmailTaken,
			callsService:   true,
			wantStatusCode: http.StatusConflict,
			wantMessage:    MsgEmailTaken,
		},
		{
			name:           "Storage failure",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           validSignupBody,
			serviceErr:     fmt.Errorf("failed to register user: %w", errors.New("connection reset")),
			callsService:   true,
			wantStatusCode: http.StatusInternalServerError,
			wantMessage:    MsgFailedToRegisterUser,
		},
		{
			name:           "Invalid method",
			method:         http.MethodGet,
			wantStatusCode: http.StatusMethodNotAllowed,
			wantMessage:    MsgMethodNotAllowed,
		},
		{
			name:           "Missing Content-Type",
			method:         http.MethodPost,
			body:           validSignupBody,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    MsgInvalidContentType,
		},
		{
			name:           "Invalid JSON body",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"alice""password":"x"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    MsgInvalidRequestBody,
		},
		{
			name:           "Unknown role",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"alice","email":"alice@x.com","password":"s3cret!","role":"owner"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    MsgSignupValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockUserService(t)
			if tt.callsService {
				userID := ""
				if tt.serviceErr == nil {
					userID = "user-1"
				}
				svc.On("RegisterUser", mock.Anything, signup).Return(userID, tt.serviceErr).Once()
			}
			r, _, _ := newTestRoute(t, svc)

			req := httptest.NewRequest(tt.method, SignupRouteAPI, bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set(ContentType, tt.contentType)
			}
			rr := httptest.NewRecorder()
			r.Signup(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, ContentTypeJson, rr.Header().Get(ContentType))
			assert.Equal(t, tt.wantMessage, decodeError(t, rr).Message)
		})
	}
}

func TestRoute_Signup_Metrics(t *testing.T) {
	svc := mocks.NewMockUserService(t)
	svc.On("RegisterUser", mock.Anything, mock.Anything).Return("", userservice.ErrEmailTaken).Once()
	svc.On("RegisterUser", mock.Anything, mock.Anything).Return("user-2", nil).Once()
	r, m, _ := newTestRoute(t, svc)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, SignupRouteAPI, strings.NewReader(validSignupBody))
		req.Header.Set(ContentType, ContentTypeJson)
		r.Signup(httptest.NewRecorder(), req)
	}

	expected := `
# HELP kakashi_signup_conflicts_total Total number of signup requests rejected as duplicates, by field
# TYPE kakashi_signup_conflicts_total counter
kakashi_signup_conflicts_total{field="email"} 1
# HELP kakashi_signup_errors_total Total number of errors during signup requests
# TYPE kakashi_signup_errors_total counter
kakashi_signup_errors_total 1
# HELP kakashi_signup_requests_total Total number of signup requests received
# TYPE kakashi_signup_requests_total counter
kakashi_signup_requests_total 2
# HELP kakashi_signup_success_total Total number of successful signup requests
# TYPE kakashi_signup_success_total counter
kakashi_signup_success_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.GetRegistry(), strings.NewReader(expected),
		"kakashi_signup_conflicts_total", "kakashi_signup_errors_total",
		"kakashi_signup_requests_total", "kakashi_signup_success_total"))
}

func TestRoute_Login(t *testing.T) {
	stored := &models.User{ID: "user-1", Username: "testuser", Role: models.RoleAccountant}

	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		user           *models.User
		serviceErr     error
		callsService   bool
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name:           "Valid login request",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"testuser","password":"testpass"}`,
			user:           stored,
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
		},
		{
			name:           "Wrong password",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"testuser","password":"wrongpass"}`,
			serviceErr:     fmt.Errorf("invalid password: %w", userservice.ErrInvalidCredentials),
			callsService:   true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "Store unavailable",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"testuser","password":"testpass"}`,
			serviceErr:     errors.New("error retrieving user: timeout"),
			callsService:   true,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "Invalid method",
			method:         http.MethodGet,
			wantStatusCode: http.StatusMethodNotAllowed,
		},
		{
			name:           "Missing Content-Type",
			method:         http.MethodPost,
			body:           `{"username":"testuser","password":"testpass"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "Invalid JSON body",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"testuser""password":"testpass"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "Password missing",
			method:         http.MethodPost,
			contentType:    "application/json",
			body:           `{"username":"testuser"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockUserService(t)
			if tt.callsService {
				svc.On("AuthenticateUser", mock.Anything, "testuser", mock.AnythingOfType("string")).
					Return(tt.user, tt.serviceErr).Once()
			}
			r, _, key := newTestRoute(t, svc)

			req := httptest.NewRequest(tt.method, LoginRouteAPI, bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set(ContentType, tt.contentType)
			}
			rr := httptest.NewRecorder()
			r.Login(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)

			var session *http.Cookie
			for _, c := range rr.Result().Cookies() {
				if c.Name == SessionCookieName {
					session = c
				}
			}
			if !tt.wantCookie {
				assert.Nil(t, session)
				return
			}

			require.NotNil(t, session)
			assert.True(t, session.HttpOnly)
			claims, err := auth.VerifyToken(session.Value, &key.PublicKey)
			require.NoError(t, err)
			assert.Equal(t, "testuser", claims.UserID)
			assert.Equal(t, "accountant", claims.Role)

			var body dto.LoginResponseDTO
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, MsgLoginSuccessful, body.Message)
			assert.Equal(t, "accountant", body.Role)
		})
	}
}

func TestRoute_Health(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		pingErr    error
		pings      bool
		wantStatus int
		wantBody   string
	}{
		{name: "healthy", method: http.MethodGet, pings: true, wantStatus: http.StatusOK, wantBody: StatusOK},
		{name: "store down", method: http.MethodGet, pingErr: errors.New("connection refused"), pings: true, wantStatus: http.StatusServiceUnavailable, wantBody: StatusUnavailable},
		{name: "wrong method", method: http.MethodPost, wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockUserService(t)
			if tt.pings {
				svc.On("Ping", mock.Anything).Return(tt.pingErr).Once()
			}
			r, _, _ := newTestRoute(t, svc)

			rr := httptest.NewRecorder()
			r.Health(rr, httptest.NewRequest(tt.method, HealthRouteAPI, nil).WithContext(context.Background()))
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody == "" {
				return
			}
			var body dto.HealthResponseDTO
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body.Status)
		})
	}
}
