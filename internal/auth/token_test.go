package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/model"
)

const testSecret = "0123456789abcdef-test"

func TestTokens_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tokens := NewTokens(config.AuthConfig{JWTSecret: testSecret, TokenTTL: 30 * time.Minute}, func() time.Time { return now })

	raw, err := tokens.Issue(&model.User{ID: 42, Email: "ann@example.com", Role: model.RoleCashier})
	require.NoError(t, err)

	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 42, Role: model.RoleCashier, Email: "ann@example.com"}, p)
}

func TestTokens_Rejects(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := now
	tokens := NewTokens(config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Minute}, func() time.Time { return clock })
	valid, err := tokens.Issue(&model.User{ID: 1, Role: model.RoleUser})
	require.NoError(t, err)

	other := NewTokens(config.AuthConfig{JWTSecret: "another-secret-of-length"}, func() time.Time { return now })
	foreign, err := other.Issue(&model.User{ID: 1, Role: model.RoleUser})
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             "OWNER",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
		at    time.Time
	}{
		{name: "garbage", token: "not-a-token", at: now},
		{name: "wrong secret", token: foreign, at: now},
		{name: "alg none", token: noneSigned, at: now},
		{name: "unknown role", token: badRole, at: now},
		{name: "expired", token: valid, at: now.Add(2 * time.Minute)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock = tc.at
			_, err := tokens.Parse(tc.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestAuthorize(t *testing.T) {
	testCases := []struct {
		role    model.Role
		cashier bool
		owner   bool
	}{
		{role: model.RoleOwner, cashier: true, owner: true},
		{role: model.RoleManager, cashier: true, owner: false},
		{role: model.RoleCashier, cashier: true, owner: false},
		{role: model.RoleMaintenance, cashier: false, owner: false},
		{role: model.RoleUser, cashier: false, owner: false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			p := Principal{UserID: 1, Role: tc.role}
			assert.Equal(t, tc.cashier, HasRole(p, CashierGroup...))
			assert.Equal(t, tc.owner, HasRole(p, OwnerGroup...))

			if err := Authorize(p, OwnerGroup...); !tc.owner {
				assert.ErrorIs(t, err, apperror.Forbidden(""))
			}
		})
	}
}
