package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/donation-management/internal"
)

// Credentials are the login relevant columns of a live user row.
type Credentials struct {
	UserID         int64
	Email          string
	HashedPassword string
	IsActive       bool
	GoogleID       *string
}

type RepositoryAPI interface {
	// FindCredentials returns nil when no live user has the email.
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
	// ResolveUser returns nil when the user is missing, soft-deleted or inactive.
	ResolveUser(ctx context.Context, userID int64) (*User, error)
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
}

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	GoogleLogin(ctx context.Context, dto GoogleLoginDTO) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*User, error)
}

type Service struct {
	repo     RepositoryAPI
	tokens   TokenGeneratorAPI
	identity IdentityVerifier
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, identity IdentityVerifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, identity: identity, logger: logger}
}

// Login checks email and password and issues an access token.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.repo.FindCredentials(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if creds == nil || VerifyPassword(creds.HashedPassword, dto.Password) != nil {
		return nil, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return nil, internal.ErrUserInactive
	}

	return s.issue(ctx, creds.UserID)
}

// GoogleLogin accepts a Google ID token for an already registered email. The
// first successful login links the Google subject to the user; later logins
// must present the same subject.
func (s *Service) GoogleLogin(ctx context.Context, dto GoogleLoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if s.identity == nil {
		return nil, internal.NewUnauthorizedError("google login is not available", internal.ErrCodeInvalidCredentials)
	}

	identity, err := s.identity.Verify(ctx, dto.IDToken)
	if err != nil {
		s.logger.WarnContext(ctx, "google token rejected", "error", err)
		return nil, internal.ErrInvalidToken
	}

	creds, err := s.repo.FindCredentials(ctx, identity.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if creds == nil {
		return nil, internal.NewUnauthorizedError("user is not registered", internal.ErrCodeInvalidCredentials)
	}
	if !creds.IsActive {
		return nil, internal.ErrUserInactive
	}

	switch {
	case creds.GoogleID == nil || *creds.GoogleID == "":
		if err := s.repo.LinkGoogleID(ctx, creds.UserID, identity.Subject); err != nil {
			return nil, internal.NewInternalError("failed to link google account", err)
		}
		s.logger.InfoContext(ctx, "google account linked", "user_id", creds.UserID)
	case *creds.GoogleID != identity.Subject:
		return nil, internal.NewUnauthorizedError("google account does not match", internal.ErrCodeInvalidCredentials)
	}

	return s.issue(ctx, creds.UserID)
}

func (s *Service) issue(ctx context.Context, userID int64) (*LoginResponse, error) {
	user, err := s.repo.ResolveUser(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve user", err)
	}
	if user == nil {
		return nil, internal.ErrUnauthenticated
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate verifies a bearer token and resolves the current principal.
// Inactive or deleted users are unauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	user, err := s.repo.ResolveUser(ctx, claims.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve user", err)
	}
	if user == nil {
		return nil, internal.ErrUnauthenticated
	}
	return user, nil
}
