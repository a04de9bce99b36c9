package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"college/internal/apperr"
	"college/internal/model"
	"college/internal/users"
)

// Directory is the user lookup and creation the auth service needs.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (users.Account, error)
	Create(ctx context.Context, in users.NewAccount) (users.Account, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	UserID    int64      `json:"userId"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// RegisterInput carries a new account request. Role is decided by the
// caller, never by the request body.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Service implements login and registration.
type Service struct {
	users  Directory
	hasher *Hasher
	tokens *TokenService
	logger *slog.Logger
}

// NewService wires the auth service.
func NewService(dir Directory, hasher *Hasher, tokens *TokenService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: dir, hasher: hasher, tokens: tokens, logger: logger}
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acct, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, users.ErrNotFound) {
		s.hasher.VerifyMissing(ctx, password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !s.hasher.Verify(ctx, password, acct.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	role, ok := model.ParseRole(acct.Role)
	if !ok {
		s.logger.Warn("unrecognized stored role, issuing student token",
			slog.Int64("user_id", acct.ID),
			slog.String("stored_role", acct.Role))
		role = model.RoleStudent
	}

	token, exp, err := s.tokens.Issue(acct.ID, role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return LoginResult{Token: token, UserID: acct.ID, Role: role, ExpiresAt: exp}, nil
}

// Register creates an account with the caller-chosen role. Concurrent
// registrations of one email yield one account; the rest get ErrEmailTaken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return model.User{}, fmt.Errorf("%w: name and email are required", apperr.ErrValidation)
	}
	if _, ok := model.ParseRole(in.Role.String()); !ok {
		return model.User{}, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, in.Role)
	}

	// Fast path only; the conditional insert below is what decides.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, users.ErrNotFound) {
		return model.User{}, fmt.Errorf("auth: lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return model.User{}, err
	}

	acct, err := s.users.Create(ctx, users.NewAccount{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if errors.Is(err, users.ErrEmailExists) {
		return model.User{}, ErrEmailTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("auth: create user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("user_id", acct.ID), slog.String("role", acct.Role))
	return model.User{
		ID:        acct.ID,
		Name:      acct.Name,
		Email:     acct.Email,
		Role:      in.Role,
		CreatedAt: acct.CreatedAt,
	}, nil
}
