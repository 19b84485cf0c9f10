package handlers

import (
	"context"

	"campusledger/internal/middleware"
	"campusledger/internal/models"
	"campusledger/internal/services/event"
	"campusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EventHandler struct {
	eventService event.Service
}

func NewEventHandler(eventService event.Service) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req event.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	req.CreatedByUserID = claims.UserID

	if !claims.ManagesGroup(req.GroupID) {
		return utils.Forbidden(c, "user does not manage this group")
	}

	ev, err := h.eventService.CreateEvent(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, fiber.Map{"event": ev})
}

type statusChange func(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error)

func (h *EventHandler) Publish(c *fiber.Ctx) error {
	return h.changeStatus(c, h.eventService.Publish)
}

func (h *EventHandler) Close(c *fiber.Ctx) error {
	return h.changeStatus(c, h.eventService.Close)
}

func (h *EventHandler) CancelEvent(c *fiber.Ctx) error {
	return h.changeStatus(c, h.eventService.CancelEvent)
}

func (h *EventHandler) changeStatus(c *fiber.Ctx, fn statusChange) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid event id")
	}

	ev, err := fn(c.Context(), eventID, claims)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"event": ev})
}

func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid event id")
	}

	ev, err := h.eventService.GetEvent(c.Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"event": ev})
}

func (h *EventHandler) ListOpen(c *fiber.Ctx) error {
	events, err := h.eventService.ListOpen(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"events": events})
}

func (h *EventHandler) Register(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid event id")
	}

	var req struct {
		WalletID uuid.UUID `json:"wallet_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.WalletID == uuid.Nil {
		return utils.BadRequest(c, "wallet_id is required")
	}

	p, err := h.eventService.Register(c.Context(), eventID, req.WalletID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, fiber.Map{"participation": p})
}

func (h *EventHandler) CancelRegistration(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid event id")
	}
	walletID, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return utils.BadRequest(c, "invalid wallet id")
	}

	if err := h.eventService.CancelRegistration(c.Context(), eventID, walletID); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "registration canceled"})
}

func (h *EventHandler) Validate(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	participantID, err := uuid.Parse(c.Params("participantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid participant id")
	}

	p, err := h.eventService.Validate(c.Context(), participantID, claims)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"participation": p})
}

func (h *EventHandler) Reject(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	participantID, err := uuid.Parse(c.Params("participantId"))
	if err != nil {
		return utils.BadRequest(c, "invalid participant id")
	}

	p, err := h.eventService.Reject(c.Context(), participantID, claims)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"participation": p})
}

func (h *EventHandler) ListParticipants(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid event id")
	}

	participants, err := h.eventService.ListParticipants(c.Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"participants": participants})
}
