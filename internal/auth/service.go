package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/store"
)

// UserStore is the account storage the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SaveUser(ctx context.Context, user *model.User) error
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// UserUpdate lists the fields an owner may change; nil fields are left alone.
type UserUpdate struct {
	FullName *string
	Role     *model.Role
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service manages accounts and logins.
type Service struct {
	users  UserStore
	tokens *Tokens
	log    *zap.Logger
}

func NewService(users UserStore, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         model.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Authenticate checks credentials and issues an access token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Token, error) {
	invalid := apperror.Unauthorized("Incorrect email or password")

	user, err := s.users.UserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return Token{}, invalid
	}
	if err != nil {
		return Token{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Token{}, invalid
	}

	access, err := s.tokens.Issue(user)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: access, TokenType: "bearer"}, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, p Principal) (*model.User, error) {
	return s.GetUser(ctx, p.UserID)
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("User")
	}
	return user, err
}

// UpdateUser applies an owner's changes, including role promotion.
func (s *Service) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		user.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, apperror.InvalidInput(fmt.Sprintf("Unknown role %q", *upd.Role))
		}
		user.Role = *upd.Role
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user updated", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}
