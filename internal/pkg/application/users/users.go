package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/authadmin"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
)

const MinPasswordLength int = 6

var ErrInvalidUser = fmt.Errorf("invalid user")
var ErrNotFound = fmt.Errorf("user not found")

//go:generate moq -rm -out users_mock.go . UserManagement

type UserManagement interface {
	List(ctx context.Context) ([]types.UserProfile, error)
	Get(ctx context.Context, id string) (types.UserProfile, error)
	Create(ctx context.Context, email, password, role string) (types.UserProfile, error)
	Update(ctx context.Context, id, email, password, role string) (types.UserProfile, error)
	Delete(ctx context.Context, id string) error
}

type userManagement struct {
	auth  authadmin.Client
	store database.Datastore
}

func New(auth authadmin.Client, store database.Datastore) UserManagement {
	return &userManagement{
		auth:  auth,
		store: store,
	}
}

func (um *userManagement) List(ctx context.Context) ([]types.UserProfile, error) {
	return um.store.GetProfiles(ctx)
}

func (um *userManagement) Get(ctx context.Context, id string) (types.UserProfile, error) {
	p, err := um.store.GetProfile(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return types.UserProfile{}, ErrNotFound
	}
	return p, err
}

// Create registers the identity with the auth backend before the profile row is written.
// A failing profile write leaves the identity in place.
func (um *userManagement) Create(ctx context.Context, email, password, role string) (types.UserProfile, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return types.UserProfile{}, fmt.Errorf("%w: email is required", ErrInvalidUser)
	}
	if len(password) < MinPasswordLength {
		return types.UserProfile{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, MinPasswordLength)
	}

	role, err := validRole(role)
	if err != nil {
		return types.UserProfile{}, err
	}

	user, err := um.auth.CreateUser(ctx, email, password)
	if err != nil {
		return types.UserProfile{}, err
	}

	profile := types.UserProfile{
		ID:        user.ID,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	err = um.store.CreateProfile(ctx, profile)
	if err != nil {
		return types.UserProfile{}, fmt.Errorf("identity %s created but profile could not be stored: %w", user.ID, err)
	}

	logger := logging.GetFromContext(ctx)
	logger.Info().Str("user_id", user.ID).Str("role", role).Msg("user created")

	return profile, nil
}

// Update changes the identity first. The password is only changed when it is long enough,
// a shorter value is treated as "keep the current password".
func (um *userManagement) Update(ctx context.Context, id, email, password, role string) (types.UserProfile, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return types.UserProfile{}, fmt.Errorf("%w: email is required", ErrInvalidUser)
	}

	role, err := validRole(role)
	if err != nil {
		return types.UserProfile{}, err
	}

	attrs := authadmin.UserAttributes{Email: email}
	if len(password) >= MinPasswordLength {
		attrs.Password = password
	}

	_, err = um.auth.UpdateUser(ctx, id, attrs)
	if err != nil {
		return types.UserProfile{}, err
	}

	err = um.store.UpdateProfile(ctx, id, email, role)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.UserProfile{}, ErrNotFound
		}
		return types.UserProfile{}, err
	}

	return um.Get(ctx, id)
}

func (um *userManagement) Delete(ctx context.Context, id string) error {
	err := um.auth.DeleteUser(ctx, id)
	if err != nil {
		return err
	}

	err = um.store.DeleteProfile(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	logger := logging.GetFromContext(ctx)
	logger.Info().Str("user_id", id).Msg("user deleted")

	return nil
}

func validRole(role string) (string, error) {
	switch role {
	case "":
		return types.RoleUser, nil
	case types.RoleUser, types.RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}
}
