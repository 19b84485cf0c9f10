package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateEventRequest describes a new event. Events start in DRAFT and must
// be published before anyone can register.
type CreateEventRequest struct {
	GroupID         uuid.UUID       `json:"group_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	EventDate       time.Time       `json:"event_date"`
	RewardPoints    decimal.Decimal `json:"reward_points"`
	MaxParticipants *int            `json:"max_participants,omitempty"`
	CreatedByUserID uuid.UUID       `json:"-"`
}
