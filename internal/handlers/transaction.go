package handlers

import (
	"campusledger/internal/middleware"
	"campusledger/internal/repositories"
	"campusledger/internal/services/ledger"
	"campusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TransactionHandler struct {
	ledgerService ledger.Service
}

func NewTransactionHandler(ledgerService ledger.Service) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req ledger.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	req.InitiatorUserID = claims.UserID

	txn, err := h.ledgerService.Transfer(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": txn})
}

// ExternalCredit issues value with no source wallet. Admin only.
func (h *TransactionHandler) ExternalCredit(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}

	var req ledger.CreditRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	initiator := claims.UserID
	req.InitiatorUserID = &initiator

	txn, err := h.ledgerService.ExternalCredit(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": txn})
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid transaction id")
	}

	txn, err := h.ledgerService.GetTransaction(c.Context(), transactionID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": txn})
}

// Settle executes a transaction held PENDING by an approval-requiring
// exchange rule.
func (h *TransactionHandler) Settle(c *fiber.Ctx) error {
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid transaction id")
	}

	txn, err := h.ledgerService.Settle(c.Context(), transactionID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": txn})
}

func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid transaction id")
	}

	var initiator *uuid.UUID
	if !claims.IsAdmin() {
		id := claims.UserID
		initiator = &id
	}

	txn, err := h.ledgerService.Cancel(c.Context(), transactionID, initiator)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"transaction": txn})
}

func (h *TransactionHandler) GetHistory(c *fiber.Ctx) error {
	walletID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "invalid wallet id")
	}

	opts := repositories.HistoryOptions{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
		Status: c.Query("status"),
	}

	entries, err := h.ledgerService.GetHistory(c.Context(), walletID, opts)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"transactions": entries})
}
