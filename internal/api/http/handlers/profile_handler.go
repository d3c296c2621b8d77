package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/api/dto"
	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/service"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

// ProfileHandler serves the caller's profile and member discovery.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me GET /me.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	fresh, err := h.profiles.GetOwn(c.UserContext(), user)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(fresh))
}

// UpdateMe PATCH /me.
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	updated, err := h.profiles.Update(c.UserContext(), user, service.ProfilePatch{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Mobile:         req.Mobile,
		Pincode:        req.Pincode,
		City:           req.City,
		State:          req.State,
		Bio:            req.Bio,
		SkillsOffered:  req.SkillsOffered,
		SkillsWanted:   req.SkillsWanted,
		Availability:   req.Availability,
		ProfileVisible: req.ProfileVisible,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(updated))
}

// DeleteMe DELETE /me.
func (h *ProfileHandler) DeleteMe(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	if err := h.profiles.Delete(c.UserContext(), user); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UploadAvatar POST /me/avatar with a multipart "image" field.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("image")
	if err != nil {
		return apperrors.NewValidationError("image file required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable image", nil)
	}
	defer file.Close()

	updated, err := h.profiles.UploadAvatar(c.UserContext(), user, header.Filename, header.Size, file)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewUserResponse(updated))
}

// Browse GET /users?q=.
func (h *ProfileHandler) Browse(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	users, err := h.profiles.Browse(c.UserContext(), user, c.Query("q"), parsePage(c))
	if err != nil {
		return err
	}
	items := make([]dto.PublicProfile, 0, len(users))
	for i := range users {
		items = append(items, dto.NewPublicProfile(&users[i]))
	}
	return data(c, http.StatusOK, items)
}

// View GET /users/:id.
func (h *ProfileHandler) View(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "user")
	if err != nil {
		return err
	}
	view, err := h.profiles.View(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	if view.Restricted {
		return data(c, http.StatusOK, dto.NewRestrictedProfile(view.User))
	}
	return data(c, http.StatusOK, dto.NewPublicProfile(view.User))
}
