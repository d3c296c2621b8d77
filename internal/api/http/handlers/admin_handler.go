package handlers

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/api/dto"
	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/service"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

// AdminHandler exposes moderation endpoints.
type AdminHandler struct {
	admin   *service.AdminService
	swaps   *service.SwapService
	lockout *service.LockoutService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService, swaps *service.SwapService, lockout *service.LockoutService) *AdminHandler {
	return &AdminHandler{admin: admin, swaps: swaps, lockout: lockout}
}

// ListUsers GET /admin/users?q=&verified=&banned=&role=.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter := service.AdminUserFilter{
		Search:   c.Query("q"),
		Verified: parseBool(c.Query("verified")),
		Banned:   parseBool(c.Query("banned")),
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": raw})
		}
		filter.Role = &role
	}
	users, err := h.admin.ListUsers(c.UserContext(), filter, parsePage(c))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return data(c, http.StatusOK, items)
}

type userMutation func(ctx context.Context, id string) (*domain.User, error)

func (h *AdminHandler) mutate(c *fiber.Ctx, fn userMutation) error {
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := fn(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(user))
}

// Verify POST /admin/users/:id/verify.
func (h *AdminHandler) Verify(c *fiber.Ctx) error { return h.mutate(c, h.admin.Verify) }

// Unverify POST /admin/users/:id/unverify.
func (h *AdminHandler) Unverify(c *fiber.Ctx) error { return h.mutate(c, h.admin.Unverify) }

// Unban POST /admin/users/:id/unban.
func (h *AdminHandler) Unban(c *fiber.Ctx) error { return h.mutate(c, h.admin.Unban) }

// SetAdmin POST /admin/users/:id/admin.
func (h *AdminHandler) SetAdmin(c *fiber.Ctx) error { return h.mutate(c, h.admin.SetAdmin) }

// Ban POST /admin/users/:id/ban.
func (h *AdminHandler) Ban(c *fiber.Ctx) error {
	admin, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	return h.mutate(c, func(ctx context.Context, id string) (*domain.User, error) {
		return h.admin.Ban(ctx, admin, id)
	})
}

// RemoveAdmin DELETE /admin/users/:id/admin.
func (h *AdminHandler) RemoveAdmin(c *fiber.Ctx) error {
	admin, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	return h.mutate(c, func(ctx context.Context, id string) (*domain.User, error) {
		return h.admin.RemoveAdmin(ctx, admin, id)
	})
}

// ListRequests GET /admin/requests?status=&user_id=.
func (h *AdminHandler) ListRequests(c *fiber.Ctx) error {
	status, err := parseStatus(c)
	if err != nil {
		return err
	}
	var participant *string
	if raw := c.Query("user_id"); raw != "" {
		if err := requireID(raw, "user_id"); err != nil {
			return err
		}
		participant = &raw
	}
	reqs, err := h.swaps.ListAll(c.UserContext(), participant, status, parsePage(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, swapResponses(reqs))
}

// Dashboard GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	dash, err := h.admin.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dash)
}

// Announce POST /admin/announcements.
func (h *AdminHandler) Announce(c *fiber.Ctx) error {
	admin, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.AnnouncementRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	a, err := h.admin.Announce(c.UserContext(), admin, req.Title, req.Body)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewAnnouncementResponse(a))
}

// ListAnnouncements GET /announcements.
func (h *AdminHandler) ListAnnouncements(c *fiber.Ctx) error {
	items, err := h.admin.ListAnnouncements(c.UserContext(), parsePage(c))
	if err != nil {
		return err
	}
	out := make([]dto.AnnouncementResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewAnnouncementResponse(&items[i]))
	}
	return data(c, http.StatusOK, out)
}

// GetLockout GET /admin/lockouts/:email.
func (h *AdminHandler) GetLockout(c *fiber.Ctx) error {
	email := emailParam(c)
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	rec, err := h.lockout.Get(c.UserContext(), email)
	if err != nil {
		return apperrors.NewBadGateway("lockout store unavailable", nil, err)
	}

	resp := dto.LockoutResponse{Email: email, AttemptsRemaining: h.lockout.AttemptsRemaining(c.UserContext(), email)}
	if rec != nil {
		status := rec.StatusAt(time.Now())
		last := rec.LastAttemptAt
		resp.Attempts = rec.Attempts
		resp.LastAttemptAt = &last
		resp.LockedUntil = rec.LockedUntil
		resp.Locked = status.Locked
		resp.RemainingSeconds = int(math.Ceil(status.Remaining.Seconds()))
	}
	return data(c, http.StatusOK, resp)
}

// ClearLockout DELETE /admin/lockouts/:email.
func (h *AdminHandler) ClearLockout(c *fiber.Ctx) error {
	email := emailParam(c)
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.lockout.Clear(c.UserContext(), email); err != nil {
		return apperrors.NewBadGateway("lockout store unavailable", nil, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func emailParam(c *fiber.Ctx) string {
	raw := c.Params("email")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return domain.NormalizeEmail(raw)
}
