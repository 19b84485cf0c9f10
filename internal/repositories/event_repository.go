package repositories

import (
	"context"
	"errors"
	"fmt"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository persists events and their participation rows. Capacity
// bookkeeping happens under a row lock taken through GetEventForUpdate, in
// the same storage transaction that touches the participation rows.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	// GetEventForUpdate loads the event under a row lock; call it inside
	// ExecuteInTransaction.
	GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	SaveEvent(ctx context.Context, event *models.Event) error
	ListByStatus(ctx context.Context, statuses []string) ([]*models.Event, error)

	// CreateParticipation inserts a PENDING participation. The unique
	// (event_id, wallet_id) constraint closes the duplicate-registration
	// race; violations surface as ErrDuplicateParticipation.
	CreateParticipation(ctx context.Context, p *models.EventParticipation) error
	GetParticipation(ctx context.Context, participantID uuid.UUID) (*models.EventParticipation, error)
	GetParticipationByEventWallet(ctx context.Context, eventID, walletID uuid.UUID) (*models.EventParticipation, error)
	// SetParticipationStatus flips a PENDING participation to a terminal
	// status; false means it was already processed.
	SetParticipationStatus(ctx context.Context, participantID uuid.UUID, status string) (bool, error)
	DeleteParticipation(ctx context.Context, participantID uuid.UUID) error
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]*models.EventParticipation, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, "event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, "event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) SaveEvent(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListByStatus(ctx context.Context, statuses []string) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("event_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) CreateParticipation(ctx context.Context, p *models.EventParticipation) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateParticipation
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

func (r *eventRepository) GetParticipation(ctx context.Context, participantID uuid.UUID) (*models.EventParticipation, error) {
	var p models.EventParticipation
	err := r.db.WithContext(ctx).First(&p, "participant_id = ?", participantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return &p, nil
}

func (r *eventRepository) GetParticipationByEventWallet(ctx context.Context, eventID, walletID uuid.UUID) (*models.EventParticipation, error) {
	var p models.EventParticipation
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND wallet_id = ?", eventID, walletID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return &p, nil
}

func (r *eventRepository) SetParticipationStatus(ctx context.Context, participantID uuid.UUID, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.EventParticipation{}).
		Where("participant_id = ? AND status = ?", participantID, models.ParticipationStatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set participation status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepository) DeleteParticipation(ctx context.Context, participantID uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.EventParticipation{}, "participant_id = ?", participantID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete participation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrParticipationNotFound
	}
	return nil
}

func (r *eventRepository) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]*models.EventParticipation, error) {
	var participants []*models.EventParticipation
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("participated_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}
