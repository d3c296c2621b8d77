package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/service"
)

// LocationHandler resolves postal codes.
type LocationHandler struct {
	locator service.Locator
}

// NewLocationHandler constructs handler.
func NewLocationHandler(locator service.Locator) *LocationHandler {
	return &LocationHandler{locator: locator}
}

// Pincode GET /location/pincode/:code.
func (h *LocationHandler) Pincode(c *fiber.Ctx) error {
	loc, err := h.locator.Resolve(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, loc)
}
