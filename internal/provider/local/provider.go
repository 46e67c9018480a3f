// Package local is a self-contained auth provider for development and tests.
// Accounts live in SQLite, passwords are bcrypt hashes, and access tokens are
// HS256 JWTs whose id claim points at a row in the sessions table.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-pkgz/auth/token"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/starterkit/internal/db"
	"github.com/starterkit/internal/domain"
	"github.com/starterkit/internal/provider"
)

// Name is the registry key of this provider
const Name = "local"

const (
	issuer   = "starterkit"
	audience = "starterkit"
)

// dummyHash is compared against when the email is unknown so both paths cost a bcrypt round
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Provider implements domain.AuthProvider on top of the local database
type Provider struct {
	database *db.DB
	tokens   *token.Service
	ttl      time.Duration
	now      func() time.Time
}

// New is the provider.Factory for the local provider
func New(opts provider.Options) (domain.AuthProvider, error) {
	if opts.Database == nil {
		return nil, fmt.Errorf("%w: local provider needs a database", provider.ErrInvalidConfiguration)
	}
	if opts.TokenSecret == "" {
		return nil, fmt.Errorf("%w: local provider needs a token secret", provider.ErrInvalidConfiguration)
	}
	if opts.TokenTTL <= 0 {
		return nil, fmt.Errorf("%w: local provider needs a positive token TTL", provider.ErrInvalidConfiguration)
	}
	return NewProvider(opts.Database, opts.TokenSecret, opts.TokenTTL), nil
}

// NewProvider creates a local provider
func NewProvider(database *db.DB, secret string, ttl time.Duration) *Provider {
	tokens := token.NewService(token.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return secret, nil
		}),
		TokenDuration: ttl,
		Issuer:        issuer,
		DisableXSRF:   true,
	})

	return &Provider{
		database: database,
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Name returns the provider's identifier
func (p *Provider) Name() string {
	return Name
}

// SignIn checks the password and opens a new session
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := p.database.GetUserByEmail(email)
	if errors.Is(err, db.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		slog.InfoContext(ctx, "local sign in for unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.WrapDatabaseOperation("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "local sign in with wrong password", "userID", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	session := db.NewSession(user.ID, p.ttl)
	if err := p.database.CreateSession(session); err != nil {
		return nil, domain.WrapDatabaseOperation("create session", err)
	}

	accessToken, err := p.tokens.Token(token.Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        session.ID,
			Subject:   user.ID,
			Audience:  audience,
			Issuer:    issuer,
			IssuedAt:  p.now().Unix(),
			ExpiresAt: session.ExpiresAt.Unix(),
		},
		User: &token.User{
			ID:    user.ID,
			Name:  user.Email,
			Email: user.Email,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &domain.Session{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(p.ttl / time.Second),
		ExpiresAt:   session.ExpiresAt,
		User:        toDomainUser(user),
	}, nil
}

// SignUp registers a confirmed account
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.WrapProviderRejected("Password cannot be longer than 72 bytes", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := db.NewUser(email, string(hash))
	if err := p.database.CreateUser(user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, domain.WrapDatabaseOperation("create user", err)
	}

	slog.InfoContext(ctx, "local account created", "userID", user.ID)
	return toDomainUser(user), nil
}

// GetUser resolves an access token to its user. The token must verify, be
// unexpired, and point at a live session.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	session, err := p.activeSession(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := p.database.GetUser(session.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabaseOperation("get user", err)
	}
	return toDomainUser(user), nil
}

// SignOut revokes the session behind accessToken. Unknown or expired tokens
// are already signed out.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.parse(accessToken)
	if err != nil {
		return nil
	}

	if err := p.database.RevokeSession(claims.Id, p.now()); err != nil && !errors.Is(err, db.ErrNotFound) {
		return domain.WrapDatabaseOperation("revoke session", err)
	}
	slog.InfoContext(ctx, "local session revoked", "sessionID", claims.Id)
	return nil
}

func (p *Provider) activeSession(accessToken string) (*db.Session, error) {
	claims, err := p.parse(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt <= p.now().Unix() {
		return nil, domain.ErrSessionExpired
	}

	session, err := p.database.GetSession(claims.Id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, domain.WrapDatabaseOperation("get session", err)
	}
	if !session.Active(p.now()) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// parse verifies the signature; go-pkgz/auth leaves expiry to the caller
func (p *Provider) parse(accessToken string) (token.Claims, error) {
	if accessToken == "" {
		return token.Claims{}, domain.ErrSessionNotFound
	}
	claims, err := p.tokens.Parse(accessToken)
	if err != nil {
		return token.Claims{}, domain.WrapProviderRejected("invalid access token", err)
	}
	if claims.Id == "" || claims.Audience != audience {
		return token.Claims{}, domain.WrapProviderRejected("invalid access token", nil)
	}
	return claims, nil
}

func toDomainUser(u *db.User) *domain.User {
	return &domain.User{
		ID:          u.ID,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		ConfirmedAt: u.ConfirmedAt,
	}
}
