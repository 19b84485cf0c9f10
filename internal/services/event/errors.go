package event

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrEventNotOpen          = errors.New("event is not open for registration")
	ErrEventFull             = errors.New("event has reached its participant limit")
	ErrAlreadyRegistered     = errors.New("wallet is already registered for this event")
	ErrAlreadyProcessed      = errors.New("participation has already been processed")
	ErrInvalidTransition     = errors.New("invalid event status transition")
	ErrInvalidEvent          = errors.New("invalid event")
	ErrForbidden             = errors.New("user does not manage this event's group")
)
