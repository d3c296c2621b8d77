package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/api/dto"
	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/service"
)

// RequestsHandler manages swap request endpoints.
type RequestsHandler struct {
	swaps *service.SwapService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(swaps *service.SwapService) *RequestsHandler {
	return &RequestsHandler{swaps: swaps}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateSwapRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := requireID(req.ReceiverID, "receiver_id"); err != nil {
		return err
	}
	created, err := h.swaps.Create(c.UserContext(), user, service.CreateSwapRequestInput{
		ReceiverID:   req.ReceiverID,
		SkillOffered: req.SkillOffered,
		SkillWanted:  req.SkillWanted,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewSwapRequestResponse(created))
}

// ListSent GET /requests/sent.
func (h *RequestsHandler) ListSent(c *fiber.Ctx) error {
	return h.list(c, h.swaps.ListSent)
}

// ListReceived GET /requests/received.
func (h *RequestsHandler) ListReceived(c *fiber.Ctx) error {
	return h.list(c, h.swaps.ListReceived)
}

type listFunc func(context.Context, *domain.User, *domain.RequestStatus, service.Page) ([]domain.SwapRequest, error)

func (h *RequestsHandler) list(c *fiber.Ctx, fn listFunc) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	status, err := parseStatus(c)
	if err != nil {
		return err
	}
	reqs, err := fn(c.UserContext(), user, status, parsePage(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, swapResponses(reqs))
}

// Accept POST /requests/:id/accept.
func (h *RequestsHandler) Accept(c *fiber.Ctx) error {
	return h.respond(c, true)
}

// Reject POST /requests/:id/reject.
func (h *RequestsHandler) Reject(c *fiber.Ctx) error {
	return h.respond(c, false)
}

func (h *RequestsHandler) respond(c *fiber.Ctx, accept bool) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "swap request")
	if err != nil {
		return err
	}
	updated, err := h.swaps.Respond(c.UserContext(), user, id, accept)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewSwapRequestResponse(updated))
}

// Delete DELETE /requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id", "swap request")
	if err != nil {
		return err
	}
	if err := h.swaps.Delete(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func swapResponses(reqs []domain.SwapRequest) []dto.SwapRequestResponse {
	items := make([]dto.SwapRequestResponse, 0, len(reqs))
	for i := range reqs {
		items = append(items, dto.NewSwapRequestResponse(&reqs[i]))
	}
	return items
}
