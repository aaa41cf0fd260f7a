package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/db/dbtest"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/store"
)

func newService(t *testing.T) (*Service, *Tokens) {
	t.Helper()
	st := store.NewGormStore(dbtest.Open(t), sql.LevelDefault)
	tokens := NewTokens(config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour}, nil)
	return NewService(st, tokens, zap.NewNop()), tokens
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc, tokens := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: " Ann@Example.com ", Password: "s3cret-pass", FullName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Email: "ann@example.com", Password: "other-pass", FullName: "Ann 2"})
	assert.ErrorIs(t, err, apperror.Conflict(""))

	tok, err := svc.Authenticate(ctx, "ANN@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	p, err := tokens.Parse(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)

	profile, err := svc.Profile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.FullName)
}

func TestService_AuthenticateFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "right-pass", FullName: "Bob"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "bob@example.com", "wrong-pass")
	assert.ErrorIs(t, err, apperror.Unauthorized(""))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "right-pass")
	assert.ErrorIs(t, err, apperror.Unauthorized(""))
}

func TestService_UpdateUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Email: "cat@example.com", Password: "pass-word", FullName: "Cat"})
	require.NoError(t, err)

	cashier := model.RoleCashier
	name := "Cat Cashier"
	updated, err := svc.UpdateUser(ctx, user.ID, UserUpdate{FullName: &name, Role: &cashier})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCashier, updated.Role)
	assert.Equal(t, "Cat Cashier", updated.FullName)

	bogus := model.Role("ADMIN")
	_, err = svc.UpdateUser(ctx, user.ID, UserUpdate{Role: &bogus})
	assert.ErrorIs(t, err, apperror.InvalidInput(""))

	_, err = svc.UpdateUser(ctx, 999, UserUpdate{Role: &cashier})
	assert.ErrorIs(t, err, apperror.NotFound(""))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.RoleCashier, users[0].Role)
}
