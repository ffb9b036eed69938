package auth

import (
	"context"
	"strings"

	"github.com/sbpickleball/match_app/pkg/errors"
)

const (
	ProviderKakao = "kakao"
	ProviderDev   = "dev"
)

// Identity is what a sign-in provider tells us about the user.
type Identity struct {
	Provider       string
	ProviderUserID string
	Nickname       string
	AvatarURL      string
}

// Provider exchanges an authorization code for an identity.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// DevProvider trusts the code as the user handle. Registered only in development.
type DevProvider struct{}

func (DevProvider) Name() string { return ProviderDev }

func (DevProvider) AuthCodeURL(state string) string { return "" }

func (DevProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	handle := strings.TrimSpace(code)
	if handle == "" {
		return nil, errors.New(errors.ErrCodeValidation, "dev sign-in needs a handle")
	}
	return &Identity{
		Provider:       ProviderDev,
		ProviderUserID: handle,
		Nickname:       handle,
	}, nil
}
