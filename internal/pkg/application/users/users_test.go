package users

import (
	"context"
	"errors"
	"testing"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/authadmin"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestCreateUser(t *testing.T) {
	is, ctx, auth, store := testSetup(t)

	um := New(auth, store)

	profile, err := um.Create(ctx, "grower@example.com", "secret1", "")
	is.NoErr(err)

	is.Equal(profile.ID, "user-1")
	is.Equal(profile.Role, types.RoleUser)
	is.Equal(len(auth.CreateUserCalls()), 1)

	stored, err := store.GetProfile(ctx, "user-1")
	is.NoErr(err)
	is.Equal(stored.Email, "grower@example.com")
}

func TestThatShortPasswordIsRejectedOnCreate(t *testing.T) {
	is, ctx, auth, store := testSetup(t)

	_, err := New(auth, store).Create(ctx, "grower@example.com", "12345", types.RoleAdmin)

	is.True(errors.Is(err, ErrInvalidUser))
	is.Equal(len(auth.CreateUserCalls()), 0)
}

func TestThatUnknownRoleIsRejected(t *testing.T) {
	is, ctx, auth, store := testSetup(t)

	_, err := New(auth, store).Create(ctx, "grower@example.com", "secret1", "gardener")
	is.True(errors.Is(err, ErrInvalidUser))
}

func TestThatShortPasswordIsNotSentOnUpdate(t *testing.T) {
	is, ctx, auth, store := testSetup(t)

	um := New(auth, store)
	_, err := um.Create(ctx, "grower@example.com", "secret1", types.RoleUser)
	is.NoErr(err)

	updated, err := um.Update(ctx, "user-1", "boss@example.com", "abc", types.RoleAdmin)
	is.NoErr(err)

	is.Equal(updated.Role, types.RoleAdmin)
	is.Equal(updated.Email, "boss@example.com")
	is.Equal(auth.UpdateUserCalls()[0].Attrs, authadmin.UserAttributes{Email: "boss@example.com"})

	_, err = um.Update(ctx, "user-1", "boss@example.com", "longenough", types.RoleAdmin)
	is.NoErr(err)
	is.Equal(auth.UpdateUserCalls()[1].Attrs.Password, "longenough")
}

func TestThatAuthFailureLeavesProfileUntouched(t *testing.T) {
	is, ctx, auth, store := testSetup(t)

	um := New(auth, store)
	_, err := um.Create(ctx, "grower@example.com", "secret1", types.RoleUser)
	is.NoErr(err)

	auth.UpdateUserFunc = func(ctx context.Context, id string, attrs authadmin.UserAttributes) (authadmin.User, error) {
		return authadmin.User{}, &authadmin.Error{StatusCode: 422, Message: "email exists"}
	}

	_, err = um.Update(ctx, "user-1", "taken@example.com", "", types.RoleAdmin)
	is.Equal(err.Error(), "email exists")

	stored, err := store.GetProfile(ctx, "user-1")
	is.NoErr(err)
	is.Equal(stored.Email, "grower@example.com")
	is.Equal(stored.Role, types.RoleUser)
}

func TestDeleteUser(t *testing.T) {
	is, ctx, auth, store := testSetup(t)

	um := New(auth, store)
	_, err := um.Create(ctx, "grower@example.com", "secret1", types.RoleUser)
	is.NoErr(err)

	is.NoErr(um.Delete(ctx, "user-1"))
	is.Equal(auth.DeleteUserCalls()[0].ID, "user-1")

	_, err = um.Get(ctx, "user-1")
	is.True(errors.Is(err, ErrNotFound))

	// the identity is removed even though no profile row exists
	is.True(errors.Is(um.Delete(ctx, "user-1"), ErrNotFound))
	is.Equal(len(auth.DeleteUserCalls()), 2)
}

func testSetup(t *testing.T) (*is.I, context.Context, *authadmin.ClientMock, database.Datastore) {
	is := is.New(t)

	store, err := database.New(database.NewSQLiteConnector(zerolog.Nop()))
	is.NoErr(err)

	auth := &authadmin.ClientMock{
		CreateUserFunc: func(ctx context.Context, email, password string) (authadmin.User, error) {
			return authadmin.User{ID: "user-1", Email: email}, nil
		},
		UpdateUserFunc: func(ctx context.Context, id string, attrs authadmin.UserAttributes) (authadmin.User, error) {
			return authadmin.User{ID: id, Email: attrs.Email}, nil
		},
		DeleteUserFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}

	return is, context.Background(), auth, store
}
