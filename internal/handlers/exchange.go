package handlers

import (
	"campusledger/internal/services/exchange"
	"campusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ExchangeHandler struct {
	exchangeService exchange.Service
}

func NewExchangeHandler(exchangeService exchange.Service) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

// UpsertRule creates or replaces the exchange rule for a group pair.
// Admin only.
func (h *ExchangeHandler) UpsertRule(c *fiber.Ctx) error {
	var req exchange.UpsertRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	rule, err := h.exchangeService.UpsertRule(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"rule": rule})
}

func (h *ExchangeHandler) GetRule(c *fiber.Ctx) error {
	fromGroupID, err := uuid.Parse(c.Params("fromGroupId"))
	if err != nil {
		return utils.BadRequest(c, "invalid from group id")
	}
	toGroupID, err := uuid.Parse(c.Params("toGroupId"))
	if err != nil {
		return utils.BadRequest(c, "invalid to group id")
	}

	rule, err := h.exchangeService.GetRule(c.Context(), fromGroupID, toGroupID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"rule": rule})
}

func (h *ExchangeHandler) GetTrustScore(c *fiber.Ctx) error {
	fromGroupID, err := uuid.Parse(c.Params("fromGroupId"))
	if err != nil {
		return utils.BadRequest(c, "invalid from group id")
	}
	toGroupID, err := uuid.Parse(c.Params("toGroupId"))
	if err != nil {
		return utils.BadRequest(c, "invalid to group id")
	}

	score, err := h.exchangeService.GetTrustScore(c.Context(), fromGroupID, toGroupID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"trust_score": score})
}
