package exchange

import "errors"

var (
	ErrAmountOverRuleMax = errors.New("amount exceeds the per-transaction limit for this group pair")
	ErrDailyLimitReached = errors.New("daily exchange limit reached for this group pair")
	ErrInsufficientTrust = errors.New("trust score between groups is below the required minimum")
	ErrRuleInactive      = errors.New("exchange rule for this group pair is inactive")
	ErrInvalidRule       = errors.New("invalid exchange rule")
)
