package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/starterkit/internal/domain"
	"github.com/starterkit/internal/provider"
)

// Name is the registry key of this provider
const Name = "supabase"

const (
	authPath       = "/auth/v1"
	maxBodyBytes   = 1 << 20
	clientInfo     = "starterkit-go"
	defaultTimeout = 10 * time.Second
)

// credentialsRequest is the body of sign-in and sign-up calls
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// apiUser mirrors the GoTrue user object
type apiUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	CreatedAt        time.Time  `json:"created_at"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// sessionResponse is returned by the token endpoint, and by signup when
// email confirmation is disabled
type sessionResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         *apiUser `json:"user"`
}

// signUpResponse covers both signup shapes: a bare user, or a session with a nested user
type signUpResponse struct {
	apiUser
	sessionResponse
}

// errorResponse covers the error shapes GoTrue has used across versions
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *errorResponse) message() string {
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

// Client talks to the Supabase GoTrue REST API
type Client struct {
	baseURL string
	apiKey  string
	client  provider.HTTPClient
	timeout time.Duration
	now     func() time.Time
}

// New is the provider.Factory for the hosted provider
func New(opts provider.Options) (domain.AuthProvider, error) {
	if opts.URL == "" || opts.APIKey == "" {
		return nil, fmt.Errorf("%w: supabase needs a URL and an API key", provider.ErrInvalidConfiguration)
	}
	return NewClient(opts.URL, opts.APIKey, opts.HTTPClient, opts.Timeout), nil
}

// NewClient creates a new GoTrue client. A nil httpClient uses http.Client.
func NewClient(baseURL, apiKey string, httpClient provider.HTTPClient, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL + authPath,
		apiKey:  apiKey,
		client:  httpClient,
		timeout: timeout,
		now:     time.Now,
	}
}

// Name returns the provider's identifier
func (c *Client) Name() string {
	return Name
}

// SignIn exchanges an email and password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, domain.WrapProviderRejected("", fmt.Errorf("token response without access_token"))
	}

	session := c.toSession(&resp)
	slog.DebugContext(ctx, "supabase sign in succeeded", "userID", userID(session.User), "expiresIn", session.ExpiresIn)
	return session, nil
}

// SignUp registers a new account. When the project auto-confirms, GoTrue
// returns a session; only its user is kept.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	var resp signUpResponse
	err := c.do(ctx, http.MethodPost, "/signup", "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken != "" && resp.User != nil {
		return toUser(resp.User), nil
	}
	if resp.apiUser.ID == "" {
		return nil, domain.WrapProviderRejected("", fmt.Errorf("signup response without user"))
	}

	slog.DebugContext(ctx, "supabase sign up succeeded", "userID", resp.apiUser.ID)
	return toUser(&resp.apiUser), nil
}

// GetUser returns the user owning accessToken
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrSessionNotFound
	}

	var resp apiUser
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return toUser(&resp), nil
}

// SignOut revokes the refresh tokens of the session behind accessToken
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// do sends one request. bearer defaults to the API key. Non-2xx answers become
// rejections carrying the API's own message.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("X-Client-Info", clientInfo)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "supabase request failed", "method", method, "path", path, "error", err)
		return domain.WrapProviderRequest(method+" "+path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.WrapProviderRequest(method+" "+path, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		msg := apiErr.message()
		slog.WarnContext(ctx, "supabase rejected request", "method", method, "path", path, "status", resp.StatusCode, "errorCode", apiErr.ErrorCode, "message", msg)
		if msg == "" {
			msg = fmt.Sprintf("auth provider returned status %d", resp.StatusCode)
		}
		return domain.WrapProviderRejected(msg, fmt.Errorf("status %d", resp.StatusCode))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return domain.WrapProviderRequest(method+" "+path, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

func (c *Client) toSession(resp *sessionResponse) *domain.Session {
	// zero when GoTrue sent neither field; the cookie then reads exp from the token
	var expiresAt time.Time
	switch {
	case resp.ExpiresAt > 0:
		expiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		expiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}

	session := &domain.Session{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		ExpiresAt:    expiresAt,
	}
	if resp.User != nil {
		session.User = toUser(resp.User)
	}
	return session
}

func toUser(u *apiUser) *domain.User {
	confirmed := u.EmailConfirmedAt
	if confirmed == nil {
		confirmed = u.ConfirmedAt
	}
	return &domain.User{
		ID:          u.ID,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		ConfirmedAt: confirmed,
	}
}

func userID(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
