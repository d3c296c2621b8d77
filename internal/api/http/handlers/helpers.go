package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/service"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

// parsePage reads page (1-based) and page_size query parameters.
func parsePage(c *fiber.Ctx) service.Page {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return service.Page{Limit: pageSize, Offset: (page - 1) * pageSize}.Normalize()
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) *bool {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseStatus(c *fiber.Ctx) (*domain.RequestStatus, error) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := domain.ParseRequestStatus(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
	}
	return &status, nil
}

// idParam returns the named path parameter. Ids that are not UUIDs cannot exist,
// so they are reported as missing resource.
func idParam(c *fiber.Ctx, name, resource string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(resource, nil)
	}
	return id, nil
}

// requireID validates an id carried in a request body.
func requireID(value, field string) error {
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return apperrors.NewValidationError("invalid "+field, map[string]any{field: "must be a valid id"})
	}
	return nil
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
