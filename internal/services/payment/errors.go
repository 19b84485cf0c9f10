package payment

import "errors"

var (
	ErrRequestNotFound  = errors.New("payment request not found")
	ErrInvalidRequest   = errors.New("invalid payment request")
	ErrInvalidAction    = errors.New("action must be PAY or REJECT")
	ErrForbidden        = errors.New("payment request is addressed to another student")
	ErrAlreadyProcessed = errors.New("payment request has already been processed")
)
