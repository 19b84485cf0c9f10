// Package event runs the event lifecycle and its participation payouts.
// Registration and capacity bookkeeping share one storage transaction under
// a row lock on the event; validation credits the reward exactly once, in
// the same storage transaction that flips the participation status.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/models"
	"campusledger/internal/repositories"
	"campusledger/internal/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error)
	Publish(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error)
	Close(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error)
	CancelEvent(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	ListOpen(ctx context.Context) ([]*models.Event, error)

	// Register enrolls a wallet in an OPEN event. The reward amount is
	// snapshotted on the participation row at registration time.
	Register(ctx context.Context, eventID, walletID uuid.UUID) (*models.EventParticipation, error)
	CancelRegistration(ctx context.Context, eventID, walletID uuid.UUID) error

	// Validate confirms a PENDING participation and credits the snapshotted
	// reward to the wallet. A participation is credited at most once; calling
	// Validate again returns ErrAlreadyProcessed.
	Validate(ctx context.Context, participantID uuid.UUID, actor *models.UserClaims) (*models.EventParticipation, error)
	Reject(ctx context.Context, participantID uuid.UUID, actor *models.UserClaims) (*models.EventParticipation, error)

	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]*models.EventParticipation, error)
}

// Crediter issues a reward credit inside the caller's storage transaction.
// Satisfied by the ledger service.
type Crediter interface {
	CreditInTx(ctx context.Context, store repositories.Store, req ledger.CreditRequest) (*models.Transaction, error)
}

type service struct {
	store    repositories.Store
	crediter Crediter
	log      *zap.Logger
}

func NewService(store repositories.Store, crediter Crediter, log *zap.Logger) Service {
	if store == nil {
		panic("event: store is required")
	}
	if crediter == nil {
		panic("event: crediter is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, crediter: crediter, log: log}
}

func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if req.GroupID == uuid.Nil {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidEvent)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if req.RewardPoints.IsNegative() {
		return nil, fmt.Errorf("%w: reward points cannot be negative", ErrInvalidEvent)
	}
	if req.MaxParticipants != nil && *req.MaxParticipants <= 0 {
		return nil, fmt.Errorf("%w: max participants must be positive", ErrInvalidEvent)
	}

	ev := &models.Event{
		GroupID:         req.GroupID,
		Title:           req.Title,
		Description:     req.Description,
		EventDate:       req.EventDate,
		RewardPoints:    req.RewardPoints,
		MaxParticipants: req.MaxParticipants,
		Status:          models.EventStatusDraft,
		CreatedByUserID: req.CreatedByUserID,
	}
	if err := s.store.Events().CreateEvent(ctx, ev); err != nil {
		return nil, err
	}

	s.log.Info("event created",
		zap.String("event_id", ev.EventID.String()),
		zap.String("title", ev.Title))
	return ev, nil
}

func (s *service) Publish(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, models.EventStatusOpen, []string{models.EventStatusDraft})
}

func (s *service) Close(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, models.EventStatusClosed,
		[]string{models.EventStatusOpen, models.EventStatusFull})
}

func (s *service) CancelEvent(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims) (*models.Event, error) {
	return s.transition(ctx, eventID, actor, models.EventStatusCancelled,
		[]string{models.EventStatusDraft, models.EventStatusOpen, models.EventStatusFull})
}

func (s *service) transition(ctx context.Context, eventID uuid.UUID, actor *models.UserClaims, target string, from []string) (*models.Event, error) {
	var ev *models.Event
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		var err error
		ev, err = tx.Events().GetEventForUpdate(ctx, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		if err := authorize(actor, ev.GroupID); err != nil {
			return err
		}
		if !contains(from, ev.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, ev.Status, target)
		}
		ev.Status = target
		return tx.Events().SaveEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("event status changed",
		zap.String("event_id", eventID.String()),
		zap.String("status", target))
	return ev, nil
}

func (s *service) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	ev, err := s.store.Events().GetEvent(ctx, eventID)
	if err != nil {
		return nil, mapEventErr(err)
	}
	return ev, nil
}

func (s *service) ListOpen(ctx context.Context) ([]*models.Event, error) {
	return s.store.Events().ListByStatus(ctx, []string{models.EventStatusOpen, models.EventStatusFull})
}

func (s *service) Register(ctx context.Context, eventID, walletID uuid.UUID) (*models.EventParticipation, error) {
	var p *models.EventParticipation
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		ev, err := tx.Events().GetEventForUpdate(ctx, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		switch ev.Status {
		case models.EventStatusOpen:
		case models.EventStatusFull:
			return ErrEventFull
		default:
			return fmt.Errorf("%w: status %s", ErrEventNotOpen, ev.Status)
		}
		if ev.MaxParticipants != nil && ev.CurrentParticipants >= *ev.MaxParticipants {
			return ErrEventFull
		}

		w, err := tx.Wallets().GetByID(ctx, walletID)
		if err != nil {
			return err
		}
		if w.Status != models.WalletStatusActive {
			return repositories.ErrWalletInactive
		}

		p = &models.EventParticipation{
			EventID:        ev.EventID,
			WalletID:       walletID,
			PointsEarned:   ev.RewardPoints,
			Status:         models.ParticipationStatusPending,
			ParticipatedAt: time.Now(),
		}
		if err := tx.Events().CreateParticipation(ctx, p); err != nil {
			if errors.Is(err, repositories.ErrDuplicateParticipation) {
				return ErrAlreadyRegistered
			}
			return err
		}

		ev.CurrentParticipants++
		if ev.MaxParticipants != nil && ev.CurrentParticipants >= *ev.MaxParticipants {
			ev.Status = models.EventStatusFull
		}
		return tx.Events().SaveEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("participation registered",
		zap.String("event_id", eventID.String()),
		zap.String("wallet_id", walletID.String()))
	return p, nil
}

func (s *service) CancelRegistration(ctx context.Context, eventID, walletID uuid.UUID) error {
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		ev, err := tx.Events().GetEventForUpdate(ctx, eventID)
		if err != nil {
			return mapEventErr(err)
		}

		p, err := tx.Events().GetParticipationByEventWallet(ctx, eventID, walletID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipationNotFound) {
				return ErrParticipationNotFound
			}
			return err
		}
		if p.Status != models.ParticipationStatusPending {
			return ErrAlreadyProcessed
		}

		if err := tx.Events().DeleteParticipation(ctx, p.ParticipantID); err != nil {
			return err
		}
		if ev.CurrentParticipants > 0 {
			ev.CurrentParticipants--
		}
		if ev.Status == models.EventStatusFull {
			ev.Status = models.EventStatusOpen
		}
		return tx.Events().SaveEvent(ctx, ev)
	})
	if err != nil {
		return err
	}

	s.log.Info("participation canceled",
		zap.String("event_id", eventID.String()),
		zap.String("wallet_id", walletID.String()))
	return nil
}

func (s *service) Validate(ctx context.Context, participantID uuid.UUID, actor *models.UserClaims) (*models.EventParticipation, error) {
	var p *models.EventParticipation
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		var err error
		p, err = tx.Events().GetParticipation(ctx, participantID)
		if err != nil {
			return mapEventErr(err)
		}
		ev, err := tx.Events().GetEvent(ctx, p.EventID)
		if err != nil {
			return mapEventErr(err)
		}
		if err := authorize(actor, ev.GroupID); err != nil {
			return err
		}

		// The guarded status flip is what makes crediting exactly-once: a
		// second Validate finds no PENDING row to flip and stops here.
		ok, err := tx.Events().SetParticipationStatus(ctx, participantID, models.ParticipationStatusVerified)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		p.Status = models.ParticipationStatusVerified

		if p.PointsEarned.IsPositive() {
			_, err = s.crediter.CreditInTx(ctx, tx, ledger.CreditRequest{
				InitiatorUserID:     actorRef(actor),
				DestinationWalletID: p.WalletID,
				Amount:              p.PointsEarned,
				Type:                models.TransactionTypeReward,
				Description:         fmt.Sprintf("Reward for event %q", ev.Title),
				Metadata: map[string]interface{}{
					"event_id":       ev.EventID.String(),
					"participant_id": p.ParticipantID.String(),
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("participation validated",
		zap.String("participant_id", participantID.String()),
		zap.String("points", p.PointsEarned.String()))
	return p, nil
}

func (s *service) Reject(ctx context.Context, participantID uuid.UUID, actor *models.UserClaims) (*models.EventParticipation, error) {
	p, err := s.store.Events().GetParticipation(ctx, participantID)
	if err != nil {
		return nil, mapEventErr(err)
	}
	ev, err := s.store.Events().GetEvent(ctx, p.EventID)
	if err != nil {
		return nil, mapEventErr(err)
	}
	if err := authorize(actor, ev.GroupID); err != nil {
		return nil, err
	}

	ok, err := s.store.Events().SetParticipationStatus(ctx, participantID, models.ParticipationStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}
	p.Status = models.ParticipationStatusRejected

	s.log.Info("participation rejected", zap.String("participant_id", participantID.String()))
	return p, nil
}

func (s *service) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]*models.EventParticipation, error) {
	if _, err := s.store.Events().GetEvent(ctx, eventID); err != nil {
		return nil, mapEventErr(err)
	}
	return s.store.Events().ListParticipants(ctx, eventID)
}

func authorize(actor *models.UserClaims, groupID uuid.UUID) error {
	if actor == nil {
		return nil
	}
	if actor.IsAdmin() || actor.ManagesGroup(groupID) {
		return nil
	}
	return ErrForbidden
}

func actorRef(actor *models.UserClaims) *uuid.UUID {
	if actor == nil {
		return nil
	}
	id := actor.UserID
	return &id
}

func mapEventErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrParticipationNotFound):
		return ErrParticipationNotFound
	}
	return err
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
