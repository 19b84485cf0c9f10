package handlers

import (
	"errors"

	"campusledger/internal/repositories"
	"campusledger/internal/services/event"
	"campusledger/internal/services/exchange"
	"campusledger/internal/services/ledger"
	"campusledger/internal/services/payment"
	"campusledger/internal/services/purchase"
	"campusledger/internal/services/wallet"
	"campusledger/internal/utils"

	"github.com/gofiber/fiber/v2"
)

var notFoundErrors = []error{
	wallet.ErrWalletNotFound,
	ledger.ErrWalletNotFound,
	ledger.ErrTransactionNotFound,
	event.ErrEventNotFound,
	event.ErrParticipationNotFound,
	payment.ErrRequestNotFound,
	repositories.ErrRuleNotFound,
	repositories.ErrTrustScoreNotFound,
	repositories.ErrWalletNotFound,
}

var badRequestErrors = []error{
	wallet.ErrMissingOwner,
	wallet.ErrInvalidCurrency,
	wallet.ErrAlreadyActive,
	wallet.ErrWalletInactive,
	ledger.ErrInvalidAmount,
	ledger.ErrCurrencyMismatch,
	ledger.ErrSameWallet,
	ledger.ErrInsufficientFunds,
	ledger.ErrWalletInactive,
	exchange.ErrAmountOverRuleMax,
	exchange.ErrDailyLimitReached,
	exchange.ErrInsufficientTrust,
	exchange.ErrRuleInactive,
	exchange.ErrInvalidRule,
	event.ErrInvalidEvent,
	event.ErrEventNotOpen,
	event.ErrEventFull,
	payment.ErrInvalidRequest,
	payment.ErrInvalidAction,
	purchase.ErrInvalidOrder,
	purchase.ErrUnknownProduct,
	repositories.ErrWalletInactive,
	repositories.ErrInsufficientFunds,
}

var forbiddenErrors = []error{
	event.ErrForbidden,
	payment.ErrForbidden,
	ledger.ErrNotOwner,
}

var conflictErrors = []error{
	event.ErrAlreadyRegistered,
	event.ErrAlreadyProcessed,
	event.ErrInvalidTransition,
	payment.ErrAlreadyProcessed,
	ledger.ErrNotPending,
	repositories.ErrDuplicateWallet,
}

// respondError maps a service error onto the HTTP status taxonomy. Unknown
// errors surface as 500 without leaking internals.
func respondError(c *fiber.Ctx, err error) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return utils.NotFound(c, err.Error())
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return utils.BadRequest(c, err.Error())
		}
	}
	for _, target := range forbiddenErrors {
		if errors.Is(err, target) {
			return utils.Forbidden(c, err.Error())
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return utils.Conflict(c, err.Error())
		}
	}
	return utils.InternalError(c, "internal error")
}
