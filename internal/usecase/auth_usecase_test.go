package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms/internal/domain/entity"
	"dms/internal/infrastructure/directory"
	"dms/pkg/errors"
)

type stubIssuer struct {
	issued []*entity.Actor
}

func (s *stubIssuer) Issue(actor *entity.Actor) (string, time.Time, error) {
	s.issued = append(s.issued, actor)
	return "token-" + actor.ID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), nil
}

func authDirectory(t *testing.T) *directory.Directory {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	dir, err := directory.New(
		[]*entity.Holder{{Name: alpha, Tier: entity.LocationSubDistributor, Parent: entity.MainDistribution}},
		[]*entity.User{
			{ID: "u-sub-a", Name: "Alpha", Email: "alpha@example.com", Role: entity.RoleSubDistributor, Holder: alpha, PasswordHash: hash, Active: true},
			{ID: "u-gone", Name: "Gone", Email: "gone@example.com", Role: entity.RoleOperator, Holder: entity.MainDistribution, PasswordHash: hash, Active: false},
		},
	)
	require.NoError(t, err)
	return dir
}

func TestLogin(t *testing.T) {
	issuer := &stubIssuer{}
	uc := NewAuthUseCase(authDirectory(t), issuer)
	ctx := context.Background()

	result, err := uc.Login(ctx, LoginInput{Email: "Alpha@Example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "token-u-sub-a", result.Token)
	assert.Equal(t, entity.RoleSubDistributor, result.User.Role)
	require.Len(t, issuer.issued, 1)
	assert.Equal(t, alpha, issuer.issued[0].Holder)

	_, err = uc.Login(ctx, LoginInput{Email: "alpha@example.com", Password: "wrong"})
	requireCode(t, err, errors.CodeUnauthorized)

	_, err = uc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "s3cret"})
	requireCode(t, err, errors.CodeUnauthorized)

	_, err = uc.Login(ctx, LoginInput{Email: "gone@example.com", Password: "s3cret"})
	requireCode(t, err, errors.CodeUnauthorized)
}

func TestLoginDisabledWithoutIssuer(t *testing.T) {
	uc := NewAuthUseCase(authDirectory(t), nil)

	_, err := uc.Login(context.Background(), LoginInput{Email: "alpha@example.com", Password: "s3cret"})
	requireCode(t, err, errors.CodeUnauthorized)
}

func TestMe(t *testing.T) {
	uc := NewAuthUseCase(authDirectory(t), nil)

	profile, err := uc.Me(context.Background(), subAlpha)
	require.NoError(t, err)
	require.NotNil(t, profile.Holder)
	assert.Equal(t, entity.LocationSubDistributor, profile.Holder.Tier)
	assert.Contains(t, profile.Permissions, "distributions:decide")
	assert.NotContains(t, profile.Permissions, "devices:register")

	_, err = uc.Me(context.Background(), nil)
	requireCode(t, err, errors.CodeUnauthorized)
}
