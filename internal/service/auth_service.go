package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hospital-auth/internal/auth"
	"github.com/spec-kit/hospital-auth/internal/cache"
	"github.com/spec-kit/hospital-auth/internal/config"
	"github.com/spec-kit/hospital-auth/internal/domain"
	"github.com/spec-kit/hospital-auth/internal/events"
	"github.com/spec-kit/hospital-auth/internal/repository"
)

// AuthService coordinates registration, login, profile lookup and the
// opaque-token flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.ActionTokenRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	profiles   *cache.ProfileCache
	bcryptCost int
	actionTTL  time.Duration
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo        repository.UserRepository
	ActionTokenRepo repository.ActionTokenRepository
	Dispatcher      events.Dispatcher
	ProfileCache    *cache.ProfileCache
}

// NewAuthService builds the service. Fails when the signing secret is absent;
// the caller is expected to abort startup.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	tokenMgr, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.ActionTokenRepo,
		tokenMgr:   tokenMgr,
		dispatcher: deps.Dispatcher,
		profiles:   deps.ProfileCache,
		bcryptCost: cfg.Auth.BcryptCost,
		actionTTL:  time.Duration(cfg.Auth.ActionTokenTTLMinutes) * time.Minute,
	}, nil
}

// Register creates a new account and issues a session token.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, string, time.Time, error) {
	if !role.Valid() {
		return nil, "", time.Time{}, errors.New("unknown role")
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, errors.New("email already registered")
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.Generate(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		UserID:  user.ID,
		Payload: events.UserRegisteredPayload{Email: user.Email, Role: user.Role},
	})
	return user, token, exp, nil
}

// Login authenticates an account and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, errors.New("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !user.Active {
		return nil, "", time.Time{}, errors.New("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}

	token, exp, err := s.tokenMgr.Generate(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err == nil {
		user.LastLoginAt = &now
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserLoggedIn,
		UserID:  user.ID,
		Payload: events.UserLoggedInPayload{Email: user.Email},
	})
	return user, token, exp, nil
}

// Profile resolves a session token to the account it belongs to. This backs
// the /auth/me endpoint the exchange flow calls.
func (s *AuthService) Profile(ctx context.Context, tokenStr string) (*domain.User, error) {
	claims, err := s.tokenMgr.Verify(tokenStr)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	if cached, ok := s.profiles.Get(ctx, claims.SubjectID); ok {
		return &domain.User{
			ID:     cached.ID,
			Name:   cached.Name,
			Email:  cached.Email,
			Role:   cached.Role,
			Active: true,
		}, nil
	}

	user, err := s.users.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, auth.ErrInvalidToken
	}

	s.profiles.Set(ctx, &cache.CachedProfile{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
	return user, nil
}

// Logout no-ops for the stateless JWT approach; expiry is the only boundary.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset persists a reset token for the account email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.ActionToken, error) {
	return s.requestActionToken(ctx, email, domain.TokenPurposePasswordReset, events.EventPasswordResetRequested)
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.consumeActionToken(ctx, domain.TokenPurposePasswordReset, tokenStr)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.profiles.Invalidate(ctx, user.ID)

	s.publish(ctx, events.Event{
		Type:    events.EventPasswordChanged,
		UserID:  user.ID,
		Payload: events.UserLoggedInPayload{Email: user.Email},
	})
	return s.tokens.MarkUsed(ctx, token.ID)
}

// RequestEmailVerification persists a verification token for the account email.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) (*domain.ActionToken, error) {
	return s.requestActionToken(ctx, email, domain.TokenPurposeEmailVerification, events.EventEmailVerificationRequested)
}

// ConfirmEmailVerification validates the token and marks the email verified.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, tokenStr string) error {
	token, err := s.consumeActionToken(ctx, domain.TokenPurposeEmailVerification, tokenStr)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	user.EmailVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.profiles.Invalidate(ctx, user.ID)

	s.publish(ctx, events.Event{Type: events.EventEmailVerified, UserID: user.ID})
	return s.tokens.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return errors.New("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.profiles.Invalidate(ctx, user.ID)

	s.publish(ctx, events.Event{
		Type:    events.EventPasswordChanged,
		UserID:  user.ID,
		Payload: events.UserLoggedInPayload{Email: user.Email},
	})
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) requestActionToken(ctx context.Context, email string, purpose domain.TokenPurpose, eventType events.EventType) (*domain.ActionToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	opaque, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	token := &domain.ActionToken{
		UserID:    user.ID,
		Purpose:   purpose,
		Token:     opaque,
		ExpiresAt: time.Now().Add(s.actionTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:   eventType,
		UserID: user.ID,
		Payload: events.ActionTokenPayload{
			Email:     user.Email,
			Purpose:   purpose,
			ExpiresAt: token.ExpiresAt,
		},
	})
	return token, nil
}

func (s *AuthService) consumeActionToken(ctx context.Context, purpose domain.TokenPurpose, tokenStr string) (*domain.ActionToken, error) {
	token, err := s.tokens.GetByToken(ctx, purpose, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New("token expired or used")
		}
		return nil, err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return nil, errors.New("token expired or used")
	}
	return token, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
