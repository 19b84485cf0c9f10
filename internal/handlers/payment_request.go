package handlers

import (
	"campusledger/internal/middleware"
	"campusledger/internal/services/payment"
	"campusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PaymentRequestHandler struct {
	paymentService payment.Service
}

func NewPaymentRequestHandler(paymentService payment.Service) *PaymentRequestHandler {
	return &PaymentRequestHandler{paymentService: paymentService}
}

func (h *PaymentRequestHandler) Create(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req payment.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if !claims.ManagesGroup(req.BDEGroupID) {
		return utils.Forbidden(c, "user does not manage this group")
	}

	pr, err := h.paymentService.CreateRequest(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, fiber.Map{"request": pr})
}

func (h *PaymentRequestHandler) Get(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	pr, err := h.paymentService.GetRequest(c.Context(), requestID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"request": pr})
}

// Respond lets the addressed student pay or reject a pending request.
func (h *PaymentRequestHandler) Respond(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	result, err := h.paymentService.Respond(c.Context(), requestID, claims.UserID, req.Action)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *PaymentRequestHandler) ListMine(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	reqs, err := h.paymentService.ListStudentRequests(c.Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"requests": reqs})
}

func (h *PaymentRequestHandler) ListByGroup(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return utils.BadRequest(c, "invalid group id")
	}
	if !claims.ManagesGroup(groupID) {
		return utils.Forbidden(c, "user does not manage this group")
	}

	reqs, err := h.paymentService.ListGroupRequests(c.Context(), groupID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"requests": reqs})
}
