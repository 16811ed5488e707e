package api

import (
	"context"
	"fmt"
	"net/http"

	"quiz-client/internal/domain"
)

// Client wraps the gateway with typed endpoint calls. It is the only place
// that knows concrete paths and payload shapes.
type Client struct {
	gw *Gateway
}

func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw}
}

// IsAuthenticated reports whether an access token is currently stored.
func (c *Client) IsAuthenticated() bool {
	return c.gw.Credentials().HasAccess()
}

// ListTests returns the public catalog.
func (c *Client) ListTests(ctx context.Context) ([]domain.TestSummary, error) {
	var tests []domain.TestSummary
	err := c.gw.Dispatch(ctx, Request{Method: http.MethodGet, Path: "/tests/"}, &tests)
	return tests, err
}

// GetTest fetches a full test definition with questions and choices.
func (c *Client) GetTest(ctx context.Context, id int) (domain.TestDefinition, error) {
	var test domain.TestDefinition
	err := c.gw.Dispatch(ctx, Request{Method: http.MethodGet, Path: fmt.Sprintf("/tests/%d/", id)}, &test)
	return test, err
}

// Register creates an account. It has no session side effect; callers log in
// separately.
func (c *Client) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	var user domain.User
	err := c.gw.Dispatch(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/register/",
		Body:   registerRequest{Username: username, Email: email, Password: password},
		Exempt: true,
	}, &user)
	return user, err
}

// Login obtains and stores a fresh credential pair.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var pair tokenPairResponse
	err := c.gw.Dispatch(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login/",
		Body:   loginRequest{Username: username, Password: password},
		Exempt: true,
	}, &pair)
	if err != nil {
		return err
	}
	c.gw.Credentials().Set(pair.Access, pair.Refresh)
	return nil
}

// Logout clears all stored credentials unconditionally.
func (c *Client) Logout() {
	c.gw.Credentials().Clear()
}

// Me returns the authenticated profile. A failure here usually means the
// stored credentials are no longer usable.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	err := c.gw.Dispatch(ctx, Request{Method: http.MethodGet, Path: "/auth/me/"}, &user)
	return user, err
}

// PreviewAttempt scores a payload without persisting anything server-side.
func (c *Client) PreviewAttempt(ctx context.Context, payload AttemptPayload) (domain.AttemptResult, error) {
	if err := payload.Validate(); err != nil {
		return domain.AttemptResult{}, err
	}
	var resp attemptResponse
	err := c.gw.Dispatch(ctx, Request{
		Method: http.MethodPost,
		Path:   "/attempts/preview/",
		Body:   payload,
		Exempt: true,
	}, &resp)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	return resp.result(), nil
}

// CreateAttempt persists a scored attempt for the authenticated user.
func (c *Client) CreateAttempt(ctx context.Context, payload AttemptPayload) (domain.AttemptResult, error) {
	if err := payload.Validate(); err != nil {
		return domain.AttemptResult{}, err
	}
	var resp attemptResponse
	err := c.gw.Dispatch(ctx, Request{
		Method: http.MethodPost,
		Path:   "/attempts/",
		Body:   payload,
	}, &resp)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	return resp.result(), nil
}

// MyAttempts lists the authenticated user's past attempts, newest first.
func (c *Client) MyAttempts(ctx context.Context) ([]domain.AttemptSummary, error) {
	var attempts []domain.AttemptSummary
	err := c.gw.Dispatch(ctx, Request{Method: http.MethodGet, Path: "/attempts/my/"}, &attempts)
	return attempts, err
}
