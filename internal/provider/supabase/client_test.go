package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/starterkit/internal/domain"
	"github.com/starterkit/internal/provider"
)

const (
	testBaseURL  = "https://project.supabase.co"
	testAPIKey   = "anon-key"
	tokenURL     = testBaseURL + "/auth/v1/token?grant_type=password"
	signUpURL    = testBaseURL + "/auth/v1/signup"
	userURL      = testBaseURL + "/auth/v1/user"
	logoutURL    = testBaseURL + "/auth/v1/logout"
	testUserJSON = `{"id":"user-123","email":"jane@example.com","created_at":"2024-01-02T03:04:05Z","email_confirmed_at":"2024-01-02T03:05:00Z"}`
)

func newTestClient(mockClient *MockHTTPClient) *Client {
	client := NewClient(testBaseURL, testAPIKey, mockClient, time.Second)
	client.now = func() time.Time { return time.Unix(1700000000, 0) }
	return client
}

func TestSignIn(t *testing.T) {
	mockClient := NewMockHTTPClient()
	client := newTestClient(mockClient)

	mockClient.SetMockResponse(http.MethodPost, tokenURL, MockResponse{
		StatusCode: http.StatusOK,
		Body: `{"access_token":"access-abc","token_type":"bearer","expires_in":3600,"expires_at":1700003600,` +
			`"refresh_token":"refresh-xyz","user":` + testUserJSON + `}`,
	})

	session, err := client.SignIn(context.Background(), "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if session.AccessToken != "access-abc" {
		t.Errorf("Expected access token 'access-abc', got %s", session.AccessToken)
	}
	if session.ExpiresIn != 3600 {
		t.Errorf("Expected expires_in 3600, got %d", session.ExpiresIn)
	}
	if !session.ExpiresAt.Equal(time.Unix(1700003600, 0)) {
		t.Errorf("Expected expires_at from response, got %s", session.ExpiresAt)
	}
	if session.User == nil || session.User.ID != "user-123" {
		t.Errorf("Expected nested user, got %+v", session.User)
	}
	if session.User.ConfirmedAt == nil {
		t.Error("Expected email_confirmed_at to populate ConfirmedAt")
	}

	record, ok := mockClient.LastRequest()
	if !ok {
		t.Fatal("Expected a request to be recorded")
	}
	if record.Method != http.MethodPost || record.URL != tokenURL {
		t.Errorf("Unexpected request %s %s", record.Method, record.URL)
	}
	if record.Headers.Get("apikey") != testAPIKey {
		t.Errorf("Expected apikey header, got %q", record.Headers.Get("apikey"))
	}
	if record.Headers.Get("Authorization") != "Bearer "+testAPIKey {
		t.Errorf("Expected anon key bearer, got %q", record.Headers.Get("Authorization"))
	}

	var body credentialsRequest
	if err := json.Unmarshal([]byte(record.Body), &body); err != nil {
		t.Fatalf("Failed to unmarshal request body: %v", err)
	}
	if body.Email != "jane@example.com" || body.Password != "secret1" {
		t.Errorf("Unexpected request body %+v", body)
	}
}

func TestSignIn_ComputesExpiresAt(t *testing.T) {
	mockClient := NewMockHTTPClient()
	client := newTestClient(mockClient)

	mockClient.SetMockResponse(http.MethodPost, tokenURL, MockResponse{
		Body: `{"access_token":"access-abc","token_type":"bearer","expires_in":60}`,
	})

	session, err := client.SignIn(context.Background(), "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if want := time.Unix(1700000060, 0); !session.ExpiresAt.Equal(want) {
		t.Errorf("Expected expires_at %s, got %s", want, session.ExpiresAt)
	}
}

func TestSignIn_NoExpiryLeavesExpiresAtZero(t *testing.T) {
	mockClient := NewMockHTTPClient()
	client := newTestClient(mockClient)

	mockClient.SetMockResponse(http.MethodPost, tokenURL, MockResponse{
		Body: `{"access_token":"access-abc","token_type":"bearer"}`,
	})

	session, err := client.SignIn(context.Background(), "jane@example.com", "secret1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !session.ExpiresAt.IsZero() {
		t.Errorf("Expected zero expires_at, got %s", session.ExpiresAt)
	}
	if session.ExpiresIn != 0 {
		t.Errorf("Expected expires_in 0, got %d", session.ExpiresIn)
	}
}

func TestSignIn_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		clientErr error
		wantMsg   string
		wantIs    error
	}{
		{
			name:    "current error shape",
			status:  http.StatusBadRequest,
			body:    `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`,
			wantMsg: "Invalid login credentials",
			wantIs:  domain.ErrProviderRejected,
		},
		{
			name:    "legacy oauth shape",
			status:  http.StatusBadRequest,
			body:    `{"error":"invalid_grant","error_description":"Email not confirmed"}`,
			wantMsg: "Email not confirmed",
			wantIs:  domain.ErrProviderRejected,
		},
		{
			name:    "message field",
			status:  http.StatusTooManyRequests,
			body:    `{"message":"Request rate limit reached"}`,
			wantMsg: "Request rate limit reached",
			wantIs:  domain.ErrProviderRejected,
		},
		{
			name:    "unparseable body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantMsg: "auth provider returned status 502",
			wantIs:  domain.ErrProviderRejected,
		},
		{
			name:    "success without token",
			status:  http.StatusOK,
			body:    `{}`,
			wantMsg: domain.ErrProviderRejected.Message,
			wantIs:  domain.ErrProviderRejected,
		},
		{
			name:      "transport failure",
			clientErr: errors.New("connection refused"),
			wantMsg:   domain.ErrProviderRequest.Message,
			wantIs:    domain.ErrProviderRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := NewMockHTTPClient()
			mockClient.Err = tt.clientErr
			client := newTestClient(mockClient)
			mockClient.SetMockResponse(http.MethodPost, tokenURL, MockResponse{StatusCode: tt.status, Body: tt.body})

			session, err := client.SignIn(context.Background(), "jane@example.com", "wrong-password")
			if err == nil {
				t.Fatalf("Expected error, got session %+v", session)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Expected error to match %v, got %v", tt.wantIs, err)
			}
			if got := domain.UserMessage(err); got != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"confirmation required returns bare user", testUserJSON},
		{"autoconfirm returns session", `{"access_token":"access-abc","expires_in":3600,"user":` + testUserJSON + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := NewMockHTTPClient()
			client := newTestClient(mockClient)
			mockClient.SetMockResponse(http.MethodPost, signUpURL, MockResponse{Body: tt.body})

			user, err := client.SignUp(context.Background(), "jane@example.com", "secret1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if user.ID != "user-123" || user.Email != "jane@example.com" {
				t.Errorf("Unexpected user %+v", user)
			}
			if !mockClient.AssertRequestMade(http.MethodPost, signUpURL) {
				t.Error("Expected POST request to signup")
			}
		})
	}
}

func TestSignUp_AlreadyRegistered(t *testing.T) {
	mockClient := NewMockHTTPClient()
	client := newTestClient(mockClient)
	mockClient.SetMockResponse(http.MethodPost, signUpURL, MockResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`,
	})

	_, err := client.SignUp(context.Background(), "jane@example.com", "secret1")
	if got := domain.UserMessage(err); got != "User already registered" {
		t.Errorf("Expected provider message, got %q (err=%v)", got, err)
	}
}

func TestGetUserAndSignOut(t *testing.T) {
	mockClient := NewMockHTTPClient()
	client := newTestClient(mockClient)
	mockClient.SetMockResponse(http.MethodGet, userURL, MockResponse{Body: testUserJSON})
	mockClient.SetMockResponse(http.MethodPost, logoutURL, MockResponse{StatusCode: http.StatusNoContent})

	user, err := client.GetUser(context.Background(), "access-abc")
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user.Email != "jane@example.com" {
		t.Errorf("Expected email jane@example.com, got %s", user.Email)
	}

	record, _ := mockClient.LastRequest()
	if record.Headers.Get("Authorization") != "Bearer access-abc" {
		t.Errorf("Expected user token as bearer, got %q", record.Headers.Get("Authorization"))
	}

	if err := client.SignOut(context.Background(), "access-abc"); err != nil {
		t.Errorf("SignOut() error: %v", err)
	}
	if !mockClient.AssertRequestMade(http.MethodPost, logoutURL) {
		t.Error("Expected POST request to logout")
	}

	if _, err := client.GetUser(context.Background(), ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for empty token, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(provider.Options{URL: testBaseURL}); !errors.Is(err, provider.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration without key, got %v", err)
	}

	p, err := New(provider.Options{URL: testBaseURL, APIKey: testAPIKey})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if p.Name() != Name {
		t.Errorf("Expected name %q, got %q", Name, p.Name())
	}
}
