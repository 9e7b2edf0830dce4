package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
	"dms/pkg/logger"
)

// FirebaseAuthClient verifies Firebase ID tokens and maps the uid onto a
// directory user. Custom claims role and holder, when present, must agree
// with the directory entry.
type FirebaseAuthClient struct {
	client    *auth.Client
	directory repository.Directory
}

func NewFirebaseAuthClient(client *auth.Client, directory repository.Directory) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:    client,
		directory: directory,
	}
}

func (f *FirebaseAuthClient) Verify(ctx context.Context, token string) (*entity.Actor, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := f.directory.UserByID(result.UID)
	if err != nil {
		email, _ := result.Claims["email"].(string)
		if email == "" {
			return nil, errors.Unauthorized("Unknown user", err)
		}
		if user, err = f.directory.UserByEmail(email); err != nil {
			return nil, errors.Unauthorized("Unknown user", err)
		}
	}
	if !user.Active {
		return nil, errors.Unauthorized("User is disabled", nil)
	}

	if role, ok := result.Claims["role"].(string); ok && role != string(user.Role) {
		logger.Warn("Firebase role claim %q for %s disagrees with directory role %q", role, user.ID, user.Role)
		return nil, errors.Unauthorized("Role claim does not match directory", nil)
	}
	if holder, ok := result.Claims["holder"].(string); ok && holder != user.Holder {
		return nil, errors.Unauthorized("Holder claim does not match directory", nil)
	}

	return user.Actor(), nil
}

// SyncClaims pushes role and holder from the directory into the user's custom
// claims so client apps can read them.
func (f *FirebaseAuthClient) SyncClaims(ctx context.Context, user *entity.User) error {
	return f.client.SetCustomUserClaims(ctx, user.ID, map[string]interface{}{
		"role":   string(user.Role),
		"holder": user.Holder,
	})
}
