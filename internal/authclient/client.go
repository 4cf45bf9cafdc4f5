// Package authclient talks to the auth backend's JSON API.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/pkg/helper"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ResponseError is returned for any non-2xx backend response.
type ResponseError struct {
	StatusCode int
	Data       dto.ErrorResponseDTO
}

func (e *ResponseError) Error() string {
	if e.Data.Error != "" {
		return fmt.Sprintf("auth backend responded %d: %s", e.StatusCode, e.Data.Error)
	}
	return fmt.Sprintf("auth backend responded %d", e.StatusCode)
}

// ResponseMessage returns the user-facing message of the error payload.
func (e *ResponseError) ResponseMessage() string {
	return e.Data.Message
}

// Client handles communication with the auth backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewClient creates a client for the backend at baseURL. Requests are traced
// through an otelhttp transport.
func NewClient(baseURL string, timeout time.Duration, logger interfaces.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Signup registers a new account. A rejected request yields a *ResponseError.
func (c *Client) Signup(ctx context.Context, req dto.SignupRequestDTO) error {
	funcName := helper.GetFuncName()
	c.logger.Debug("Entering function", "func", funcName, "user", req.Username)
	defer c.logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	resp, err := c.post(ctx, SignupPath, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Info("Signup accepted by auth backend", "func", funcName, "user", req.Username, "status", resp.StatusCode)
	return nil
}

// Login authenticates and returns the session token set by the backend.
func (c *Client) Login(ctx context.Context, req dto.LoginRequestDTO) (string, error) {
	funcName := helper.GetFuncName()
	c.logger.Debug("Entering function", "func", funcName, "user", req.Username)
	defer c.logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	resp, err := c.post(ctx, LoginPath, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.responseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookieName && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("%s", ErrMissingSessionCookie)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToEncodeRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToBuildRequest, err)
	}
	httpReq.Header.Set(ContentType, ContentTypeJson)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error(ErrRequestFailed, "path", path, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRequestFailed, err)
	}
	return resp, nil
}

// responseError decodes the backend's error payload when there is one.
func (c *Client) responseError(resp *http.Response) error {
	respErr := &ResponseError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		c.logger.Warn("Failed to read error response", "status", resp.StatusCode, "error", err)
		return respErr
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &respErr.Data); err != nil {
			c.logger.Warn("Error response is not JSON", "status", resp.StatusCode, "error", err)
		}
	}
	return respErr
}
