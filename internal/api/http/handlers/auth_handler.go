package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/api/dto"
	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/service"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

const oauthStateCookie = "oauth_state"

// AuthHandler exposes sign-up, sign-in and account recovery endpoints.
type AuthHandler struct {
	auth *service.AuthService
	// exposeTokens echoes account tokens in responses; development only.
	exposeTokens bool
	secureCookie bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, development bool) *AuthHandler {
	return &AuthHandler{auth: authService, exposeTokens: development, secureCookie: !development}
}

func authPayload(res *service.AuthResult) fiber.Map {
	return fiber.Map{
		"user": dto.NewUserResponse(res.User),
		"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Mobile:    req.Mobile,
		Pincode:   req.Pincode,
	})
	if err != nil {
		return err
	}

	payload := authPayload(res)
	if h.exposeTokens {
		payload["verification_token"] = res.VerificationToken
	}
	return data(c, http.StatusCreated, payload)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, authPayload(res))
}

// GoogleLogin redirects to the Google consent page with a fresh state cookie.
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state := auth.NewOAuthState()
	url, err := h.auth.GoogleAuthURL(state)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(url, http.StatusFound)
}

// GoogleCallback completes the Google flow.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return apperrors.NewValidationError("invalid oauth state", nil)
	}
	c.ClearCookie(oauthStateCookie)

	if reason := c.Query("error"); reason != "" {
		return apperrors.NewUnauthorized("google sign-in was cancelled")
	}

	res, err := h.auth.GoogleCallback(c.UserContext(), c.Query("code"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, authPayload(res))
}

// RequestPasswordReset handles POST /auth/password/reset/request. The response is
// the same whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	payload := fiber.Map{"status": "if the account exists, a reset link has been sent"}
	if h.exposeTokens && token != nil {
		payload["reset_token"] = token.Token
	}
	return data(c, http.StatusAccepted, payload)
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirm
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"status": "password updated"})
}

// VerifyEmail handles POST /auth/email/verify.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.auth.VerifyEmail(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// ResendVerification handles POST /auth/email/resend.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	token, err := h.auth.ResendVerification(c.UserContext(), user)
	if err != nil {
		return err
	}
	payload := fiber.Map{"status": "verification email sent"}
	if h.exposeTokens {
		payload["verification_token"] = token.Token
	}
	return data(c, http.StatusAccepted, payload)
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), user, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"status": "password updated"})
}
