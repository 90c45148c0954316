package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/idx"
	"github.com/goodbridge/givestack/pkg/jwtx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

type AuthService struct {
	Store     store.Store
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

// Register creates a new account. Emails are stored lowercased so lookups
// are case-insensitive. An empty role defaults to the regular user role.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}

	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	l.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login checks the credentials and mints an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn time comparably to a real verify so the two failure
			// modes are harder to tell apart.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			return "", domain.User{}, ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login failed", slog.String("user_id", user.ID))
		return "", domain.User{}, ErrInvalidCredentials
	}

	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(
		user.ID, user.Email, user.Name, string(user.Role),
		ttl, s.Issuer, time.Now().UTC(),
	)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", domain.User{}, err
	}

	l.Info("login succeeded", slog.String("user_id", user.ID))
	return token, user, nil
}
