package storetest

import (
	"time"

	"campusledger/internal/models"

	"github.com/google/uuid"
)

func cloneUUIDPtr(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneWallet(w *models.Wallet) *models.Wallet {
	c := *w
	c.OwnerUserID = cloneUUIDPtr(w.OwnerUserID)
	c.OwnerGroupID = cloneUUIDPtr(w.OwnerGroupID)
	return &c
}

func cloneTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	c.InitiatorUserID = cloneUUIDPtr(t.InitiatorUserID)
	c.SourceWalletID = cloneUUIDPtr(t.SourceWalletID)
	c.ExecutedAt = cloneTimePtr(t.ExecutedAt)
	if t.Metadata != nil {
		c.Metadata = make(models.JSON, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func cloneRule(r *models.ExchangeRule) *models.ExchangeRule {
	c := *r
	if r.MaxTransactionAmount != nil {
		v := *r.MaxTransactionAmount
		c.MaxTransactionAmount = &v
	}
	if r.DailyLimit != nil {
		v := *r.DailyLimit
		c.DailyLimit = &v
	}
	return &c
}

func cloneTrust(t *models.GroupTrustScore) *models.GroupTrustScore {
	c := *t
	return &c
}

func cloneEvent(e *models.Event) *models.Event {
	c := *e
	c.MaxParticipants = cloneIntPtr(e.MaxParticipants)
	return &c
}

func cloneParticipation(p *models.EventParticipation) *models.EventParticipation {
	c := *p
	return &c
}

func cloneRequest(r *models.PaymentRequest) *models.PaymentRequest {
	c := *r
	return &c
}
