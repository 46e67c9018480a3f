package domain

import "time"

// Credentials is the submitted sign-in / sign-up form
type Credentials struct {
	Email    string
	Password string
	IsSignIn bool
}

// FieldErrors is the 422 payload returned when a submission fails
type FieldErrors struct {
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Service  []string `json:"service,omitempty"`
}

// Empty reports whether no error has been collected
func (e FieldErrors) Empty() bool {
	return e.Email == "" && e.Password == "" && len(e.Service) == 0
}

// AddService appends a service-level message
func (e *FieldErrors) AddService(message string) {
	e.Service = append(e.Service, message)
}

// Session is issued by the auth provider on sign-in
type Session struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}

// MaxAge returns the session lifetime as a duration
func (s *Session) MaxAge() time.Duration {
	return time.Duration(s.ExpiresIn) * time.Second
}

// User is an account known to the auth provider
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// AuthOutcome is the result of handling one form submission
type AuthOutcome struct {
	Errors  FieldErrors
	Session *Session
	User    *User
}

// Redirect returns the path the browser is sent to when no error was collected.
// Sign-in sessions win over users; with neither the form is shown again.
func (o *AuthOutcome) Redirect() string {
	switch {
	case o.Session != nil:
		return PathProfile
	case o.User != nil:
		return PathWelcome
	default:
		return PathAuth
	}
}

// Page paths shared by the handler and the auth outcome
const (
	PathAuth    = "/auth"
	PathProfile = "/profile"
	PathWelcome = "/welcome"
	PathLogout  = "/logout"
	PathHealth  = "/api/health"
)
