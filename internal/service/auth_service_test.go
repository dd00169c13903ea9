package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hospital-auth/internal/auth"
	"github.com/spec-kit/hospital-auth/internal/config"
	"github.com/spec-kit/hospital-auth/internal/domain"
	"github.com/spec-kit/hospital-auth/internal/events"
)

type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.byID {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLoginAt = &at
	return nil
}

type fakeActionTokenRepo struct {
	byID map[string]*domain.ActionToken
}

func newFakeActionTokenRepo() *fakeActionTokenRepo {
	return &fakeActionTokenRepo{byID: make(map[string]*domain.ActionToken)}
}

func (r *fakeActionTokenRepo) Create(_ context.Context, token *domain.ActionToken) error {
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	clone := *token
	r.byID[token.ID] = &clone
	return nil
}

func (r *fakeActionTokenRepo) GetByToken(_ context.Context, purpose domain.TokenPurpose, tokenStr string) (*domain.ActionToken, error) {
	for _, token := range r.byID {
		if token.Purpose == purpose && token.Token == tokenStr {
			clone := *token
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeActionTokenRepo) MarkUsed(_ context.Context, id string) error {
	token, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	token.UsedAt = &now
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "unit-test-secret",
			AccessTokenTTLMinutes: 15,
			ActionTokenTTLMinutes: 30,
			BcryptCost:            4,
		},
	}
}

type serviceFixture struct {
	svc        *AuthService
	users      *fakeUserRepo
	tokens     *fakeActionTokenRepo
	dispatcher events.Dispatcher
	published  *[]events.Event
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()

	users := newFakeUserRepo()
	tokens := newFakeActionTokenRepo()
	dispatcher := events.NewInMemoryDispatcher()

	published := &[]events.Event{}
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventUserLoggedIn,
		events.EventPasswordResetRequested,
		events.EventPasswordChanged,
		events.EventEmailVerificationRequested,
		events.EventEmailVerified,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			*published = append(*published, event)
			return nil
		})
	}

	svc, err := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:        users,
		ActionTokenRepo: tokens,
		Dispatcher:      dispatcher,
	})
	require.NoError(t, err)

	return serviceFixture{svc: svc, users: users, tokens: tokens, dispatcher: dispatcher, published: published}
}

func TestNewAuthService_MissingSecretFails(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""

	_, err := NewAuthService(cfg, AuthDependencies{
		UserRepo:        newFakeUserRepo(),
		ActionTokenRepo: newFakeActionTokenRepo(),
	})
	require.Error(t, err)
}

func TestRegister_IssuesVerifiableToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, token, exp, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.True(t, user.Active)
	require.True(t, exp.After(time.Now()))

	claims, err := f.svc.TokenManager().Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.SubjectID)

	require.Len(t, *f.published, 1)
	require.Equal(t, events.EventUserRegistered, (*f.published)[0].Type)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)

	_, _, _, err = f.svc.Register(ctx, "Other", "nina@hospital.test", "s3cret", domain.RoleDoctor)
	require.Error(t, err)
}

func TestRegister_UnknownRole(t *testing.T) {
	f := newServiceFixture(t)

	_, _, _, err := f.svc.Register(context.Background(), "X", "x@hospital.test", "pw", domain.Role("janitor"))
	require.Error(t, err)
}

func TestLogin_Succeeds(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	registered, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)

	user, token, _, err := f.svc.Login(ctx, "nina@hospital.test", "s3cret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.NotNil(t, user.LastLoginAt)
	require.NotEmpty(t, token)
}

func TestLogin_BadPassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)

	_, _, _, err = f.svc.Login(ctx, "nina@hospital.test", "wrong")
	require.Error(t, err)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	_, _, _, err := f.svc.Login(context.Background(), "ghost@hospital.test", "pw")
	require.Error(t, err)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)

	stored := f.users.byID[user.ID]
	stored.Active = false

	_, _, _, err = f.svc.Login(ctx, "nina@hospital.test", "s3cret")
	require.Error(t, err)
}

func TestProfile_ResolvesToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	registered, token, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)

	user, err := f.svc.Profile(ctx, token)
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Equal(t, domain.RoleNurse, user.Role)
}

func TestProfile_InvalidToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Profile(context.Background(), "garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestProfile_DeletedUser(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, token, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "s3cret", domain.RoleNurse)
	require.NoError(t, err)

	delete(f.users.byID, user.ID)

	_, err = f.svc.Profile(ctx, token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPasswordReset_FullFlow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "old-pw", domain.RoleNurse)
	require.NoError(t, err)

	token, err := f.svc.RequestPasswordReset(ctx, "nina@hospital.test")
	require.NoError(t, err)
	require.Len(t, token.Token, 64, "opaque token must be 32 hex-encoded bytes")

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, token.Token, "new-pw"))

	_, _, _, err = f.svc.Login(ctx, "nina@hospital.test", "old-pw")
	require.Error(t, err)
	_, _, _, err = f.svc.Login(ctx, "nina@hospital.test", "new-pw")
	require.NoError(t, err)

	// Single use.
	err = f.svc.ConfirmPasswordReset(ctx, token.Token, "another-pw")
	require.Error(t, err)
}

func TestPasswordReset_ExpiredToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "pw", domain.RoleNurse)
	require.NoError(t, err)

	token, err := f.svc.RequestPasswordReset(ctx, "nina@hospital.test")
	require.NoError(t, err)

	stored := f.tokens.byID[token.ID]
	stored.ExpiresAt = time.Now().Add(-time.Minute)

	err = f.svc.ConfirmPasswordReset(ctx, token.Token, "new-pw")
	require.Error(t, err)
}

func TestEmailVerification_FullFlow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "pw", domain.RoleNurse)
	require.NoError(t, err)
	require.False(t, user.EmailVerified)

	token, err := f.svc.RequestEmailVerification(ctx, "nina@hospital.test")
	require.NoError(t, err)

	require.NoError(t, f.svc.ConfirmEmailVerification(ctx, token.Token))

	updated, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, updated.EmailVerified)
}

func TestChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, _, _, err := f.svc.Register(ctx, "Nina", "nina@hospital.test", "old-pw", domain.RoleNurse)
	require.NoError(t, err)

	require.Error(t, f.svc.ChangePassword(ctx, user.ID, "wrong", "new-pw"))
	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, "old-pw", "new-pw"))

	_, _, _, err = f.svc.Login(ctx, "nina@hospital.test", "new-pw")
	require.NoError(t, err)
}
