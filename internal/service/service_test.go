package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/location"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:                   "test-secret",
			AccessTokenTTLMinutes:       60,
			PasswordResetTTLMinutes:     30,
			EmailVerificationTTLMinutes: 60,
			BcryptCost:                  4,
			MinPasswordLength:           8,
		},
		Lockout: config.LockoutConfig{MaxAttempts: 5, Duration: 15 * time.Minute},
		Media:   config.MediaConfig{MaxUploadBytes: 1 << 20, AllowedFormats: []string{"jpg", "png"}},
	}
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, code, de.Code, de.Message)
	return de
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Limit: 20}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: 100, Offset: 0}, Page{Limit: 500, Offset: -3}.Normalize())
	assert.Equal(t, Page{Limit: 5, Offset: 10}, Page{Limit: 5, Offset: 10}.Normalize())
}

func TestLockoutServiceFailsOpen(t *testing.T) {
	store := newFakeLockoutStore()
	store.err = assert.AnError
	svc := NewLockoutService(store, config.LockoutConfig{}, nil)

	assert.False(t, svc.Check(context.Background(), "a@example.com").Locked)
	assert.False(t, svc.RecordAttempt(context.Background(), "a@example.com", false).Locked)
	assert.Equal(t, 5, svc.AttemptsRemaining(context.Background(), "a@example.com"))
}

func TestLockoutServiceLiftsAfterDuration(t *testing.T) {
	store := newFakeLockoutStore()
	svc := NewLockoutService(store, config.LockoutConfig{MaxAttempts: 5, Duration: 15 * time.Minute}, nil)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		assert.False(t, svc.RecordAttempt(ctx, "a@example.com", false).Locked, "attempt %d", i)
	}
	assert.Equal(t, 1, svc.AttemptsRemaining(ctx, "a@example.com"))

	status := svc.RecordAttempt(ctx, "a@example.com", false)
	assert.True(t, status.Locked)
	assert.Equal(t, 15*time.Minute, status.Remaining)

	now = now.Add(14 * time.Minute)
	assert.True(t, svc.Check(ctx, "a@example.com").Locked)

	now = now.Add(time.Minute)
	assert.False(t, svc.Check(ctx, "a@example.com").Locked)
	rec, err := svc.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func newTestAuth(t *testing.T, users *fakeUsers) (*AuthService, *fakeTokens, *LockoutService, *recordingDispatcher) {
	t.Helper()
	tokens := newFakeTokens()
	lockout := NewLockoutService(newFakeLockoutStore(), testConfig().Lockout, nil)
	dispatcher := &recordingDispatcher{}
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:         users,
		AccountTokenRepo: tokens,
		Lockout:          lockout,
		Locator:          fakeLocator{locations: map[string]location.Location{"395004": {City: "Surat", State: "Gujarat"}}},
		Dispatcher:       dispatcher,
	})
	return svc, tokens, lockout, dispatcher
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc, _, _, dispatcher := newTestAuth(t, users)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		FirstName: "Asha", LastName: "Patel", Email: " Asha@Example.com ", Password: "s3cretpass", Pincode: "395004",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Equal(t, "Surat", res.User.City)
	assert.Equal(t, "Gujarat", res.User.State)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.VerificationToken)
	assert.Equal(t, []events.EventType{events.EventUserRegistered, events.EventEmailVerificationIssued}, dispatcher.types())

	claims, err := svc.TokenManager().ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())

	_, err = svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "P", Email: "asha@example.com", Password: "s3cretpass"})
	requireCode(t, err, "CONFLICT")

	login, err := svc.Login(ctx, "ASHA@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestAuth(t, newFakeUsers())
	_, err := svc.Register(context.Background(), RegisterInput{Email: "nope", Password: "short", Pincode: "012345"})
	de := requireCode(t, err, "VALIDATION_FAILED")
	for _, field := range []string{"first_name", "last_name", "email", "password", "pincode"} {
		assert.Contains(t, de.Details, field)
	}
}

func TestLoginLocksOnFifthFailure(t *testing.T) {
	users := newFakeUsers()
	svc, _, lockout, _ := newTestAuth(t, users)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	lockout.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		_, err := svc.Login(ctx, "asha@example.com", "wrong-password")
		requireCode(t, err, "UNAUTHORIZED")
	}

	_, err = svc.Login(ctx, "asha@example.com", "wrong-password")
	de := requireCode(t, err, "ACCOUNT_LOCKED")
	assert.Equal(t, "Too many failed attempts. Account locked for 15 minutes", de.Message)
	assert.Equal(t, 900, de.Details["remaining_seconds"])

	now = now.Add(5 * time.Minute)
	_, err = svc.Login(ctx, "asha@example.com", "s3cretpass")
	de = requireCode(t, err, "ACCOUNT_LOCKED")
	assert.Equal(t, "Account temporarily locked. Try again in 10 minutes", de.Message)

	now = now.Add(10 * time.Minute)
	_, err = svc.Login(ctx, "asha@example.com", "s3cretpass")
	require.NoError(t, err)
}

func TestSuccessfulLoginResetsCounter(t *testing.T) {
	users := newFakeUsers()
	svc, _, lockout, _ := newTestAuth(t, users)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = svc.Login(ctx, "asha@example.com", "wrong-password")
	}
	assert.Equal(t, 2, lockout.AttemptsRemaining(ctx, "asha@example.com"))

	_, err = svc.Login(ctx, "asha@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, 5, lockout.AttemptsRemaining(ctx, "asha@example.com"))
}

func TestLoginRejectsBannedUser(t *testing.T) {
	users := newFakeUsers()
	svc, _, _, _ := newTestAuth(t, users)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	res.User.IsBanned = true
	require.NoError(t, users.put(ctx, res.User))

	_, err = svc.Login(ctx, "asha@example.com", "s3cretpass")
	requireCode(t, err, "FORBIDDEN")
}

func TestPasswordResetFlow(t *testing.T) {
	users := newFakeUsers()
	svc, tokens, lockout, dispatcher := newTestAuth(t, users)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "asha@example.com", "wrong-password")
	}
	assert.True(t, lockout.Check(ctx, "asha@example.com").Locked)

	missing, err := svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	token, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Contains(t, dispatcher.types(), events.EventPasswordResetRequested)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "brand-new-pass"))
	assert.False(t, lockout.Check(ctx, "asha@example.com").Locked)

	err = svc.ConfirmPasswordReset(ctx, token.Token, "another-pass-1")
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Login(ctx, "asha@example.com", "brand-new-pass")
	require.NoError(t, err)
	assert.NotNil(t, tokens.latest(domain.TokenPurposePasswordReset).UsedAt)
}

func TestVerifyEmail(t *testing.T) {
	users := newFakeUsers()
	svc, _, _, _ := newTestAuth(t, users)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	_, err = svc.VerifyEmail(ctx, "not-a-token")
	requireCode(t, err, "VALIDATION_FAILED")

	user, err := svc.VerifyEmail(ctx, res.VerificationToken)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)

	_, err = svc.ResendVerification(ctx, user)
	requireCode(t, err, "CONFLICT")
}

func TestChangePassword(t *testing.T) {
	users := newFakeUsers()
	svc, _, _, _ := newTestAuth(t, users)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, res.User, "wrong-current", "next-password")
	requireCode(t, err, "UNAUTHORIZED")

	require.NoError(t, svc.ChangePassword(ctx, res.User, "s3cretpass", "next-password"))
	_, err = svc.Login(ctx, "asha@example.com", "next-password")
	require.NoError(t, err)
}

func TestChangePasswordKeepsBanIssuedMeanwhile(t *testing.T) {
	users := newFakeUsers()
	svc, _, _, _ := newTestAuth(t, users)
	admin := NewAdminService(AdminDependencies{UserRepo: users})
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	principal := res.User

	_, err = admin.Ban(ctx, &domain.User{ID: "root", Role: domain.RoleAdmin}, principal.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, principal, "s3cretpass", "next-password"))

	stored, err := users.GetByID(ctx, principal.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBanned)
	assert.NotNil(t, stored.BannedAt)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "next-password"))
}

func TestVerifyEmailKeepsRoleGrantedMeanwhile(t *testing.T) {
	users := newFakeUsers()
	svc, tokens, _, _ := newTestAuth(t, users)
	admin := NewAdminService(AdminDependencies{UserRepo: users})
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	_, err = admin.SetAdmin(ctx, res.User.ID)
	require.NoError(t, err)

	verified, err := svc.VerifyEmail(ctx, tokens.latest(domain.TokenPurposeEmailVerification).Token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	stored, err := users.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.True(t, stored.IsAdmin())
}

type stubGoogle struct {
	user *auth.GoogleUser
}

func (s stubGoogle) AuthURL(state string) string { return "https://accounts.test/auth?state=" + state }

func (s stubGoogle) Exchange(context.Context, string) (*auth.GoogleUser, error) { return s.user, nil }

func TestGoogleCallbackLinksExistingAccount(t *testing.T) {
	users := newFakeUsers(&domain.User{FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", ProfileVisible: true})
	svc, _, _, _ := newTestAuth(t, users)
	svc.google = stubGoogle{user: &auth.GoogleUser{Subject: "g-1", Email: "ASHA@example.com", EmailVerified: true, Picture: "https://img.test/a.png"}}
	ctx := context.Background()

	res, err := svc.GoogleCallback(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.User.ID)
	require.NotNil(t, res.User.GoogleSubject)
	assert.Equal(t, "g-1", *res.User.GoogleSubject)
	assert.True(t, res.User.EmailVerified)
	assert.Equal(t, "https://img.test/a.png", res.User.AvatarURL)

	again, err := svc.GoogleCallback(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "u-1", again.User.ID)
}

func TestGoogleDisabled(t *testing.T) {
	svc, _, _, _ := newTestAuth(t, newFakeUsers())
	assert.False(t, svc.GoogleEnabled())
	_, err := svc.GoogleAuthURL("state")
	requireCode(t, err, "NOT_CONFIGURED")
}
