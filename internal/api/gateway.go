package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"quiz-client/internal/domain"
)

// Request describes one API call. Exempt requests skip credential attachment
// and never trigger the refresh protocol (the refresh call itself, login,
// register, guest previews).
type Request struct {
	Method string
	Path   string
	Body   any
	Exempt bool
}

// Gateway owns credential storage and request dispatch. It transparently
// renews an expired access token: any number of concurrently failing
// requests share a single refresh call, and each original request is
// re-issued at most once with the new token.
type Gateway struct {
	baseURL string
	client  *http.Client
	creds   *CredentialStore
	logger  zerolog.Logger

	// refresh serializes concurrent 401 responses into one refresh call;
	// the group key acts as the shared in-flight ticket.
	refresh singleflight.Group
}

// NewGateway builds a gateway for the API at baseURL using the given store.
func NewGateway(baseURL string, creds *CredentialStore, timeout time.Duration, logger zerolog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Gateway{
		baseURL: NormalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: timeout},
		creds:   creds,
		logger:  logger,
	}
}

var apiPathRe = regexp.MustCompile(`/api(/|$)`)

// NormalizeBaseURL trims trailing slashes and appends /api when the URL does
// not already contain it.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		base = "http://127.0.0.1:8000"
	}
	if !apiPathRe.MatchString(base) {
		base += "/api"
	}
	return base
}

// Credentials exposes the underlying store for login/logout flows.
func (g *Gateway) Credentials() *CredentialStore {
	return g.creds
}

// Dispatch sends req and decodes a 2xx JSON response into out (which may be
// nil). On a 401 for a non-exempt request it performs at most one
// coordinated refresh and retry; a 401 on the retried request is a hard
// failure that clears the stored credentials.
func (g *Gateway) Dispatch(ctx context.Context, req Request, out any) error {
	body, err := marshalBody(req.Body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	token := ""
	if !req.Exempt {
		token = g.creds.Access()
	}
	g.logger.Debug().Str("method", req.Method).Str("path", req.Path).Bool("auth", token != "").Msg("dispatch")

	status, respBody, err := g.send(ctx, req.Method, req.Path, body, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !req.Exempt {
		access, err := g.refreshAccess(ctx)
		if err != nil {
			return err
		}
		// Re-issue once with the renewed token; method and body unchanged.
		status, respBody, err = g.send(ctx, req.Method, req.Path, body, access)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			g.creds.Clear()
			return apiError(status, respBody)
		}
	}

	if status < 200 || status >= 300 {
		return apiError(status, respBody)
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// refreshAccess joins or starts the single in-flight refresh. On any failure
// all stored credentials are cleared, demoting the session to guest.
func (g *Gateway) refreshAccess(ctx context.Context) (string, error) {
	v, err, shared := g.refresh.Do("refresh", func() (interface{}, error) {
		refresh := g.creds.RefreshToken()
		if refresh == "" {
			g.creds.Clear()
			return nil, domain.ErrNoRefreshToken
		}

		body, err := marshalBody(map[string]string{"refresh": refresh})
		if err != nil {
			return nil, err
		}
		status, respBody, err := g.send(ctx, http.MethodPost, "/auth/refresh/", body, "")
		if err != nil {
			g.creds.Clear()
			return nil, err
		}
		if status < 200 || status >= 300 {
			g.creds.Clear()
			return nil, fmt.Errorf("%w: status %d", domain.ErrCredentialRejected, status)
		}

		var parsed struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Access == "" {
			g.creds.Clear()
			return nil, domain.ErrCredentialRejected
		}
		g.creds.SetAccess(parsed.Access)
		return parsed.Access, nil
	})
	if err != nil {
		g.logger.Debug().Err(err).Msg("token refresh failed")
		return "", err
	}
	g.logger.Debug().Bool("shared", shared).Msg("access token refreshed")
	return v.(string), nil
}

func (g *Gateway) send(ctx context.Context, method, path string, body []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if len(body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

// apiError extracts the server-supplied message from an error body, checking
// the conventional detail/message fields before falling back to the raw body.
func apiError(status int, body []byte) error {
	var parsed struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Detail != "" {
			message = parsed.Detail
		} else if parsed.Message != "" {
			message = parsed.Message
		}
	}
	if message == "" && len(body) > 0 {
		message = strings.TrimSpace(string(body))
	}
	return &domain.APIError{Status: status, Message: message}
}
