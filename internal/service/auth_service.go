package service

import (
	"context"
	"log/slog"

	"github.com/starterkit/internal/domain"
	"github.com/starterkit/internal/validation"
)

// authService implements the AuthService interface
type authService struct {
	provider domain.AuthProvider
	logger   *slog.Logger
}

// NewAuthService creates a new auth service on top of an auth provider
func NewAuthService(provider domain.AuthProvider, logger *slog.Logger) domain.AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		provider: provider,
		logger:   logger,
	}
}

// ProviderName returns the name of the configured provider
func (s *authService) ProviderName() string {
	return s.provider.Name()
}

// Authenticate handles one sign-in or sign-up submission with exactly one
// provider call. Field and provider failures are collected into the outcome;
// the returned error is only set when the request was abandoned before the
// provider was asked.
func (s *authService) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.AuthOutcome, error) {
	outcome := &domain.AuthOutcome{
		Errors: validation.ValidateCredentials(creds),
	}
	// the provider is asked even when a field failed
	if !outcome.Errors.Empty() {
		s.logger.DebugContext(ctx, "auth form failed validation",
			"signIn", creds.IsSignIn,
			"emailError", outcome.Errors.Email != "",
			"passwordError", outcome.Errors.Password != "",
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if creds.IsSignIn {
		session, err := s.provider.SignIn(ctx, creds.Email, creds.Password)
		if err != nil {
			s.recordProviderError(ctx, outcome, "sign in", err)
			return outcome, nil
		}
		if session == nil || session.AccessToken == "" {
			s.logger.WarnContext(ctx, "provider returned no session", "provider", s.provider.Name())
			return outcome, nil
		}
		outcome.Session = session
		s.logger.InfoContext(ctx, "user signed in", "provider", s.provider.Name(), "userID", userID(session.User))
		return outcome, nil
	}

	user, err := s.provider.SignUp(ctx, creds.Email, creds.Password)
	if err != nil {
		s.recordProviderError(ctx, outcome, "sign up", err)
		return outcome, nil
	}
	if user == nil {
		s.logger.WarnContext(ctx, "provider returned no user", "provider", s.provider.Name())
		return outcome, nil
	}
	outcome.User = user
	s.logger.InfoContext(ctx, "user signed up", "provider", s.provider.Name(), "userID", userID(user))
	return outcome, nil
}

// CurrentUser resolves the user behind an access token
func (s *authService) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrSessionNotFound
	}

	user, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		if domain.IsInfrastructureError(err) {
			s.logger.ErrorContext(ctx, "failed to get current user", "provider", s.provider.Name(), "error", err)
		} else {
			s.logger.DebugContext(ctx, "access token rejected", "provider", s.provider.Name(), "error", err)
		}
		return nil, err
	}
	return user, nil
}

// SignOut ends the provider session. Tokens the provider no longer accepts
// count as signed out.
func (s *authService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}

	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		if domain.IsSessionError(err) {
			return nil
		}
		s.logger.WarnContext(ctx, "provider sign out failed", "provider", s.provider.Name(), "error", err)
		return err
	}
	return nil
}

func (s *authService) recordProviderError(ctx context.Context, outcome *domain.AuthOutcome, op string, err error) {
	if domain.IsInfrastructureError(err) {
		s.logger.ErrorContext(ctx, "auth provider call failed", "operation", op, "provider", s.provider.Name(), "error", err)
	} else {
		s.logger.WarnContext(ctx, "auth attempt rejected", "operation", op, "provider", s.provider.Name(), "error", err)
	}
	outcome.Errors.AddService(domain.UserMessage(err))
}

func userID(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
