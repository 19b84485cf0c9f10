package handlers

import (
	"campusledger/internal/services/purchase"
	"campusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PurchaseHandler struct {
	purchaseService purchase.Service
}

func NewPurchaseHandler(purchaseService purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) ListPacks(c *fiber.Ctx) error {
	return utils.Success(c, fiber.Map{"packs": h.purchaseService.ListPacks()})
}

// Fulfill is called by the payment provider webhook relay after a capture
// is confirmed. Admin only.
func (h *PurchaseHandler) Fulfill(c *fiber.Ctx) error {
	var req struct {
		StudentUserID uuid.UUID `json:"student_user_id"`
		GroupID       uuid.UUID `json:"group_id"`
		ProductID     string    `json:"product_id"`
		OrderRef      string    `json:"order_ref"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	result, err := h.purchaseService.FulfillOrder(c.Context(), req.StudentUserID, req.GroupID, req.ProductID, req.OrderRef)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, result)
}
