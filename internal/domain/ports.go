package domain

import "context"

// ============================================================================
// Primary Ports (Application Use Cases)
// ============================================================================

// AuthService defines the primary port for the sign-in / sign-up use cases
type AuthService interface {
	Authenticate(ctx context.Context, creds Credentials) (*AuthOutcome, error)
	CurrentUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
	ProviderName() string
}

// ============================================================================
// Secondary Ports (Infrastructure)
// ============================================================================

// AuthProvider is the hosted service that verifies credentials and issues
// sessions. Rejections carry a user-facing message via DomainError.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error

	// Name returns the provider's identifier (e.g., "supabase", "local")
	Name() string
}
