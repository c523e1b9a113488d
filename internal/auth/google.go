package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Identity is a verified federated identity.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

var ErrIdentityNotConfigured = errors.New("google login is not configured")

// GoogleVerifier checks Google ID tokens issued for one OAuth client.
type GoogleVerifier struct {
	audience  string
	validator *idtoken.Validator
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &GoogleVerifier{audience: clientID, validator: v}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if g == nil || g.audience == "" {
		return nil, ErrIdentityNotConfigured
	}
	payload, err := g.validator.Validate(ctx, token, g.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	name, _ := payload.Claims["name"].(string)
	if email == "" || !verified {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidToken)
	}
	return &Identity{Subject: payload.Subject, Email: email, Name: name}, nil
}
