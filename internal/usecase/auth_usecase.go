package usecase

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dms/internal/domain/entity"
	"dms/internal/domain/policy"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
	"dms/pkg/logger"
)

type AuthUseCase struct {
	directory repository.Directory
	issuer    TokenIssuer
}

// NewAuthUseCase wires password login. issuer may be nil when an external
// identity provider mints tokens, in which case Login is disabled.
func NewAuthUseCase(directory repository.Directory, issuer TokenIssuer) *AuthUseCase {
	return &AuthUseCase{
		directory: directory,
		issuer:    issuer,
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User      *entity.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type Profile struct {
	Actor       *entity.Actor  `json:"actor"`
	Holder      *entity.Holder `json:"holder,omitempty"`
	Permissions []string       `json:"permissions"`
}

func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if uc.issuer == nil {
		return nil, errors.Unauthorized("Password login is disabled", nil)
	}

	user, err := uc.directory.UserByEmail(strings.TrimSpace(input.Email))
	if err != nil {
		logger.Debug("Login failed for %s: %v", input.Email, err)
		return nil, errors.Unauthorized("Invalid credentials", nil)
	}
	if !user.Active || user.PasswordHash == "" {
		return nil, errors.Unauthorized("Invalid credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		logger.Debug("Password mismatch for %s", user.ID)
		return nil, errors.Unauthorized("Invalid credentials", err)
	}

	token, expiresAt, err := uc.issuer.Issue(user.Actor())
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	logger.Info("User %s logged in as %s", user.ID, user.Role)
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Me describes the caller: identity, holder record and allowed operations.
func (uc *AuthUseCase) Me(ctx context.Context, actor *entity.Actor) (*Profile, error) {
	if actor == nil {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	profile := &Profile{
		Actor:       actor,
		Permissions: policy.Permissions(actor.Role),
	}
	if h, err := uc.directory.Holder(actor.Holder); err == nil {
		profile.Holder = h
	}
	return profile, nil
}

// HashPassword is used to prepare directory entries.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
