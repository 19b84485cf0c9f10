package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event statuses
const (
	EventStatusDraft     = "DRAFT"
	EventStatusOpen      = "OPEN"
	EventStatusFull      = "FULL"
	EventStatusClosed    = "CLOSED"
	EventStatusCancelled = "CANCELLED"
)

// Participation statuses. A wallet is credited only on the PENDING to
// VERIFIED transition, exactly once.
const (
	ParticipationStatusPending  = "PENDING"
	ParticipationStatusVerified = "VERIFIED"
	ParticipationStatusRejected = "REJECTED"
)

// Event is a points-earning activity run by a group. CurrentParticipants
// is maintained in the same storage transaction as the participation rows.
type Event struct {
	EventID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"event_id"`
	GroupID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"group_id"`
	Title               string          `gorm:"not null" json:"title"`
	Description         string          `json:"description"`
	EventDate           time.Time       `gorm:"not null" json:"event_date"`
	RewardPoints        decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0;check:reward_points >= 0" json:"reward_points"`
	MaxParticipants     *int            `json:"max_participants,omitempty"`
	CurrentParticipants int             `gorm:"not null;default:0" json:"current_participants"`
	Status              string          `gorm:"not null;default:'DRAFT'" json:"status"`
	CreatedByUserID     uuid.UUID       `gorm:"type:uuid" json:"created_by_user_id"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

// EventParticipation records a wallet's registration for an event.
// PointsEarned is snapshotted from the event at registration time so later
// edits to the event do not change already-registered payouts.
type EventParticipation struct {
	ParticipantID  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"participant_id"`
	EventID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_event_participants_event_wallet" json:"event_id"`
	WalletID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_event_participants_event_wallet;index" json:"wallet_id"`
	PointsEarned   decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"points_earned"`
	Status         string          `gorm:"not null;default:'PENDING'" json:"status"`
	ParticipatedAt time.Time       `json:"participated_at"`
}

func (p *EventParticipation) BeforeCreate(tx *gorm.DB) error {
	if p.ParticipantID == uuid.Nil {
		p.ParticipantID = uuid.New()
	}
	return nil
}
