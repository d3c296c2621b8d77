package service

import (
	"context"
	"errors"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/location"
	"github.com/skill-swap/skillswap/internal/repository"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

// Locator resolves postal codes to a city and state.
type Locator interface {
	Resolve(ctx context.Context, pincode string) (*location.Location, error)
}

// GoogleAuthenticator performs the Google authorization code flow.
type GoogleAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	tokens      repository.AccountTokenRepository
	lockout     *LockoutService
	locator     Locator
	google      GoogleAuthenticator
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	minPassword int
	resetTTL    time.Duration
	verifyTTL   time.Duration
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	AccountTokenRepo repository.AccountTokenRepository
	Lockout          *LockoutService
	Locator          Locator
	Google           GoogleAuthenticator
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	minPassword := cfg.Auth.MinPasswordLength
	if minPassword <= 0 {
		minPassword = 8
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokens:      deps.AccountTokenRepo,
		lockout:     deps.Lockout,
		locator:     deps.Locator,
		google:      deps.Google,
		dispatcher:  deps.Dispatcher,
		logger:      orNop(deps.Logger),
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		minPassword: minPassword,
		resetTTL:    time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		verifyTTL:   time.Duration(cfg.Auth.EmailVerificationTTLMinutes) * time.Minute,
	}
}

// RegisterInput carries sign-up fields.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Mobile    string
	Pincode   string
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	// VerificationToken is set on registration until mail delivery exists.
	VerificationToken string
}

// Register creates a new member account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user := &domain.User{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          domain.NormalizeEmail(in.Email),
		Mobile:         strings.TrimSpace(in.Mobile),
		Pincode:        strings.TrimSpace(in.Pincode),
		ProfileVisible: true,
		Role:           domain.RoleUser,
	}

	fields := map[string]any{}
	if user.FirstName == "" {
		fields["first_name"] = "required"
	}
	if user.LastName == "" {
		fields["last_name"] = "required"
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if err := auth.ValidatePassword(in.Password, s.minPassword); err != nil {
		fields["password"] = err.Error()
	}
	if user.Pincode != "" && !location.IsValidPincode(user.Pincode) {
		fields["pincode"] = "must be a 6 digit postal code"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", fields)
	}

	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if user.Pincode != "" {
		s.applyLocation(ctx, user)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	s.publish(ctx, events.New(events.EventUserRegistered, user.ID, user.ID, nil))

	verification, err := s.issueAccountToken(ctx, user, domain.TokenPurposeEmailVerification, s.verifyTTL)
	if err != nil {
		return nil, err
	}

	result, err := s.signIn(user)
	if err != nil {
		return nil, err
	}
	result.VerificationToken = verification.Token
	return result, nil
}

// Login authenticates with email and password, enforcing the lockout policy.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	if status := s.lockout.Check(ctx, email); status.Locked {
		return nil, lockedError("Account temporarily locked. Try again in "+domain.FormatLockoutTime(status.Remaining), status)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if user == nil || auth.ComparePassword(user.PasswordHash, password) != nil {
		status := s.lockout.RecordAttempt(ctx, email, false)
		if status.Locked {
			return nil, lockedError("Too many failed attempts. Account locked for "+domain.FormatLockoutTime(status.Remaining), status)
		}
		return nil, apperrors.NewUnauthorized("invalid email or password")
	}

	if user.IsBanned {
		return nil, apperrors.NewForbidden("account has been banned")
	}

	s.lockout.RecordAttempt(ctx, email, true)
	return s.signIn(user)
}

func lockedError(message string, status domain.LockoutStatus) error {
	return apperrors.NewLocked(message, map[string]any{
		"remaining_seconds": int(math.Ceil(status.Remaining.Seconds())),
	})
}

// GoogleEnabled reports whether Google sign-in is configured.
func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

// GoogleAuthURL returns the consent page URL for state.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", errGoogleDisabled
	}
	return s.google.AuthURL(state), nil
}

var errGoogleDisabled = apperrors.NewDomainError("NOT_CONFIGURED", "google sign-in is not configured", 501, nil)

// GoogleCallback signs in the Google account, linking it to an existing user by email
// or creating a new member.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*AuthResult, error) {
	if s.google == nil {
		return nil, errGoogleDisabled
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.NewValidationError("missing authorization code", nil)
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("google exchange failed", zap.Error(err))
		return nil, apperrors.NewUnauthorized("google sign-in failed")
	}

	user, err := s.users.GetByGoogleSubject(ctx, profile.Subject)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		user, err = s.linkOrCreateGoogleUser(ctx, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if user.IsBanned {
		return nil, apperrors.NewForbidden("account has been banned")
	}
	return s.signIn(user)
}

func (s *AuthService) linkOrCreateGoogleUser(ctx context.Context, profile *auth.GoogleUser) (*domain.User, error) {
	subject := profile.Subject
	email := domain.NormalizeEmail(profile.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		linked, err := s.users.LinkGoogle(ctx, existing.ID, subject, profile.EmailVerified, profile.Picture)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, apperrors.NewConflict("account already linked", nil)
			}
			return nil, err
		}
		return linked, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	user := &domain.User{
		FirstName:      strings.TrimSpace(profile.GivenName),
		LastName:       strings.TrimSpace(profile.FamilyName),
		Email:          email,
		GoogleSubject:  &subject,
		AvatarURL:      profile.Picture,
		ProfileVisible: true,
		Role:           domain.RoleUser,
		EmailVerified:  profile.EmailVerified,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("account already linked", nil)
		}
		return nil, err
	}
	s.publish(ctx, events.New(events.EventUserRegistered, user.ID, user.ID, nil))
	return user, nil
}

// RequestPasswordReset issues a reset token. Unknown emails return nil without error
// so callers cannot learn which addresses are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.AccountToken, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.issueAccountToken(ctx, user, domain.TokenPurposePasswordReset, s.resetTTL)
}

// ConfirmPasswordReset validates the reset token, updates the password and lifts any lockout.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword, s.minPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	token, err := s.redeem(ctx, tokenStr, domain.TokenPurposePasswordReset)
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
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.lockout.Clear(ctx, user.Email); err != nil {
		s.logger.Warn("lockout clear failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// VerifyEmail marks the owner of the token as email-verified.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) (*domain.User, error) {
	token, err := s.redeem(ctx, tokenStr, domain.TokenPurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	return user, nil
}

// ResendVerification issues a fresh email verification token.
func (s *AuthService) ResendVerification(ctx context.Context, user *domain.User) (*domain.AccountToken, error) {
	if user.EmailVerified {
		return nil, apperrors.NewConflict("email already verified", nil)
	}
	return s.issueAccountToken(ctx, user, domain.TokenPurposeEmailVerification, s.verifyTTL)
}

// ChangePassword verifies the current password before updating to the new hash.
// Accounts created through Google sign-in may set a first password without one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword, s.minPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	stored, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return notFound(err, "user")
	}
	if stored.PasswordHash != "" {
		if err := auth.ComparePassword(stored.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return notFound(err, "user")
	}
	user.PasswordHash = hash
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) signIn(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) issueAccountToken(ctx context.Context, user *domain.User, purpose domain.TokenPurpose, ttl time.Duration) (*domain.AccountToken, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	token := &domain.AccountToken{
		UserID:    user.ID,
		Purpose:   purpose,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	eventType := events.EventEmailVerificationIssued
	if purpose == domain.TokenPurposePasswordReset {
		eventType = events.EventPasswordResetRequested
	}
	s.publish(ctx, events.New(eventType, user.ID, user.ID, events.AccountTokenPayload{
		Email:     user.Email,
		Purpose:   purpose,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}))
	return token, nil
}

func (s *AuthService) redeem(ctx context.Context, tokenStr string, purpose domain.TokenPurpose) (*domain.AccountToken, error) {
	invalid := apperrors.NewValidationError("token is invalid or has expired", nil)

	token, err := s.tokens.GetByToken(ctx, strings.TrimSpace(tokenStr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}
	if !token.Usable(purpose, time.Now()) {
		return nil, invalid
	}
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}
	return token, nil
}

func (s *AuthService) applyLocation(ctx context.Context, user *domain.User) {
	if s.locator == nil {
		return
	}
	loc, err := s.locator.Resolve(ctx, user.Pincode)
	if err != nil {
		s.logger.Debug("pincode lookup skipped", zap.String("pincode", user.Pincode), zap.Error(err))
		return
	}
	user.City = loc.City
	user.State = loc.State
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}
