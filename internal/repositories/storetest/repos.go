package storetest

import (
	"context"
	"errors"
	"sort"
	"time"

	"campusledger/internal/models"
	"campusledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type walletRepo struct {
	s      *Store
	locked bool
}

func (r walletRepo) Create(_ context.Context, w *models.Wallet) error {
	defer r.s.lock(r.locked)()
	if w.OwnerUserID == nil && w.OwnerGroupID != nil {
		for _, existing := range r.s.st.wallets {
			if existing.OwnerUserID == nil && existing.OwnerGroupID != nil &&
				*existing.OwnerGroupID == *w.OwnerGroupID && existing.Currency == w.Currency {
				return repositories.ErrDuplicateWallet
			}
		}
	}
	if w.WalletID == uuid.Nil {
		w.WalletID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt, w.UpdatedAt = now, now
	r.s.st.wallets[w.WalletID] = cloneWallet(w)
	return nil
}

func (r walletRepo) GetByID(_ context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	defer r.s.lock(r.locked)()
	w, ok := r.s.st.wallets[walletID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

func (r walletRepo) GetUserWallet(_ context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	defer r.s.lock(r.locked)()
	for _, w := range r.s.st.wallets {
		if w.OwnerUserID != nil && *w.OwnerUserID == userID && w.Currency == currency {
			return cloneWallet(w), nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r walletRepo) GetGroupWallet(_ context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error) {
	defer r.s.lock(r.locked)()
	for _, w := range r.s.st.wallets {
		if w.OwnerUserID == nil && w.OwnerGroupID != nil && *w.OwnerGroupID == groupID && w.Currency == currency {
			return cloneWallet(w), nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (r walletRepo) GetOrCreateGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error) {
	w, err := r.GetGroupWallet(ctx, groupID, currency)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}
	w = &models.Wallet{
		OwnerGroupID: &groupID,
		Currency:     currency,
		Status:       models.WalletStatusActive,
	}
	err = r.Create(ctx, w)
	if errors.Is(err, repositories.ErrDuplicateWallet) {
		return r.GetGroupWallet(ctx, groupID, currency)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r walletRepo) ListByGroup(_ context.Context, groupID uuid.UUID) ([]*models.Wallet, error) {
	defer r.s.lock(r.locked)()
	var out []*models.Wallet
	for _, w := range r.s.st.wallets {
		if w.OwnerGroupID != nil && *w.OwnerGroupID == groupID {
			out = append(out, cloneWallet(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r walletRepo) AdjustBalance(_ context.Context, walletID uuid.UUID, delta decimal.Decimal) (*models.Wallet, error) {
	defer r.s.lock(r.locked)()
	if err, ok := r.s.adjustFailures[walletID]; ok {
		return nil, err
	}
	w, ok := r.s.st.wallets[walletID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	if w.Status != models.WalletStatusActive {
		return nil, repositories.ErrWalletInactive
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return nil, repositories.ErrInsufficientFunds
	}
	w.Balance = next
	w.UpdatedAt = time.Now()
	return cloneWallet(w), nil
}

func (r walletRepo) UpdateStatus(_ context.Context, walletID uuid.UUID, status, reason string) (*models.Wallet, error) {
	defer r.s.lock(r.locked)()
	w, ok := r.s.st.wallets[walletID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	w.Status = status
	w.StatusReason = reason
	w.UpdatedAt = time.Now()
	return cloneWallet(w), nil
}

type txnRepo struct {
	s      *Store
	locked bool
}

func (r txnRepo) Create(_ context.Context, txn *models.Transaction) error {
	defer r.s.lock(r.locked)()
	if txn.TransactionID == uuid.Nil {
		txn.TransactionID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	r.s.st.transactions[txn.TransactionID] = cloneTransaction(txn)
	return nil
}

func (r txnRepo) GetByID(_ context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	defer r.s.lock(r.locked)()
	txn, ok := r.s.st.transactions[transactionID]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return cloneTransaction(txn), nil
}

func (r txnRepo) MarkSettled(_ context.Context, transactionID uuid.UUID, status, reasonCode string, executedAt time.Time) (bool, error) {
	defer r.s.lock(r.locked)()
	txn, ok := r.s.st.transactions[transactionID]
	if !ok || txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	txn.Status = status
	txn.ReasonCode = reasonCode
	at := executedAt
	txn.ExecutedAt = &at
	return true, nil
}

func (r txnRepo) ListByWallet(_ context.Context, walletID uuid.UUID, opts repositories.HistoryOptions) ([]*models.Transaction, error) {
	defer r.s.lock(r.locked)()
	var out []*models.Transaction
	for _, txn := range r.s.st.transactions {
		touches := txn.DestinationWalletID == walletID ||
			(txn.SourceWalletID != nil && *txn.SourceWalletID == walletID)
		if !touches {
			continue
		}
		if opts.Status != "" && txn.Status != opts.Status {
			continue
		}
		out = append(out, cloneTransaction(txn))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r txnRepo) SumPendingOutgoing(_ context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	defer r.s.lock(r.locked)()
	sum := decimal.Zero
	for _, txn := range r.s.st.transactions {
		if txn.Status == models.TransactionStatusPending &&
			txn.SourceWalletID != nil && *txn.SourceWalletID == walletID {
			sum = sum.Add(txn.Amount)
		}
	}
	return sum, nil
}

func (r txnRepo) SumInterGroupVolume(_ context.Context, fromGroupID, toGroupID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	defer r.s.lock(r.locked)()
	sum := decimal.Zero
	for _, txn := range r.s.st.transactions {
		if txn.Status != models.TransactionStatusSuccess || txn.CreatedAt.Before(since) || txn.SourceWalletID == nil {
			continue
		}
		src, ok := r.s.st.wallets[*txn.SourceWalletID]
		if !ok || src.OwnerGroupID == nil || *src.OwnerGroupID != fromGroupID {
			continue
		}
		dst, ok := r.s.st.wallets[txn.DestinationWalletID]
		if !ok || dst.OwnerGroupID == nil || *dst.OwnerGroupID != toGroupID {
			continue
		}
		sum = sum.Add(txn.Amount)
	}
	return sum, nil
}

type exchangeRepo struct {
	s      *Store
	locked bool
}

func (r exchangeRepo) GetActiveRule(_ context.Context, fromGroupID, toGroupID uuid.UUID) (*models.ExchangeRule, error) {
	defer r.s.lock(r.locked)()
	rule, ok := r.s.st.rules[pairKey{fromGroupID, toGroupID}]
	if !ok || !rule.Active {
		return nil, repositories.ErrRuleNotFound
	}
	return cloneRule(rule), nil
}

func (r exchangeRepo) UpsertRule(_ context.Context, rule *models.ExchangeRule) error {
	defer r.s.lock(r.locked)()
	if rule.RuleID == uuid.Nil {
		rule.RuleID = uuid.New()
	}
	key := pairKey{rule.FromGroupID, rule.ToGroupID}
	if existing, ok := r.s.st.rules[key]; ok {
		rule.RuleID = existing.RuleID
	}
	r.s.st.rules[key] = cloneRule(rule)
	return nil
}

func (r exchangeRepo) GetTrustScore(_ context.Context, fromGroupID, toGroupID uuid.UUID) (*models.GroupTrustScore, error) {
	defer r.s.lock(r.locked)()
	ts, ok := r.s.st.trust[pairKey{fromGroupID, toGroupID}]
	if !ok {
		return nil, repositories.ErrTrustScoreNotFound
	}
	return cloneTrust(ts), nil
}

func (r exchangeRepo) RecordOutcome(_ context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal, success bool) error {
	defer r.s.lock(r.locked)()
	var successes, failures int64 = 1, 0
	if !success {
		successes, failures = 0, 1
	}

	key := pairKey{fromGroupID, toGroupID}
	ts, ok := r.s.st.trust[key]
	if !ok {
		ts = &models.GroupTrustScore{
			TrustID:     uuid.New(),
			FromGroupID: fromGroupID,
			ToGroupID:   toGroupID,
		}
		r.s.st.trust[key] = ts
	}
	ts.TotalTransactions++
	ts.TotalVolume = ts.TotalVolume.Add(amount)
	ts.SuccessfulTransactions += successes
	ts.FailedTransactions += failures
	ts.TrustScore = trustScore(ts.SuccessfulTransactions, ts.TotalTransactions)
	ts.LastUpdated = time.Now()
	return nil
}

// trustScore mirrors the SQL recomputation: clamp(0, 100, 50 + ratio * 50).
func trustScore(successful, total int64) decimal.Decimal {
	score := decimal.NewFromInt(50).Add(
		decimal.NewFromInt(successful).
			Div(decimal.NewFromInt(total)).
			Mul(decimal.NewFromInt(50)))
	if score.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	if score.IsNegative() {
		return decimal.Zero
	}
	return score
}

type eventRepo struct {
	s      *Store
	locked bool
}

func (r eventRepo) CreateEvent(_ context.Context, ev *models.Event) error {
	defer r.s.lock(r.locked)()
	if ev.EventID == uuid.Nil {
		ev.EventID = uuid.New()
	}
	now := time.Now()
	ev.CreatedAt, ev.UpdatedAt = now, now
	r.s.st.events[ev.EventID] = cloneEvent(ev)
	return nil
}

func (r eventRepo) GetEvent(_ context.Context, eventID uuid.UUID) (*models.Event, error) {
	defer r.s.lock(r.locked)()
	ev, ok := r.s.st.events[eventID]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return cloneEvent(ev), nil
}

func (r eventRepo) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return r.GetEvent(ctx, eventID)
}

func (r eventRepo) SaveEvent(_ context.Context, ev *models.Event) error {
	defer r.s.lock(r.locked)()
	if _, ok := r.s.st.events[ev.EventID]; !ok {
		return repositories.ErrEventNotFound
	}
	ev.UpdatedAt = time.Now()
	r.s.st.events[ev.EventID] = cloneEvent(ev)
	return nil
}

func (r eventRepo) ListByStatus(_ context.Context, statuses []string) ([]*models.Event, error) {
	defer r.s.lock(r.locked)()
	var out []*models.Event
	for _, ev := range r.s.st.events {
		for _, st := range statuses {
			if ev.Status == st {
				out = append(out, cloneEvent(ev))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (r eventRepo) CreateParticipation(_ context.Context, p *models.EventParticipation) error {
	defer r.s.lock(r.locked)()
	for _, existing := range r.s.st.participations {
		if existing.EventID == p.EventID && existing.WalletID == p.WalletID {
			return repositories.ErrDuplicateParticipation
		}
	}
	if p.ParticipantID == uuid.Nil {
		p.ParticipantID = uuid.New()
	}
	if p.ParticipatedAt.IsZero() {
		p.ParticipatedAt = time.Now()
	}
	r.s.st.participations[p.ParticipantID] = cloneParticipation(p)
	return nil
}

func (r eventRepo) GetParticipation(_ context.Context, participantID uuid.UUID) (*models.EventParticipation, error) {
	defer r.s.lock(r.locked)()
	p, ok := r.s.st.participations[participantID]
	if !ok {
		return nil, repositories.ErrParticipationNotFound
	}
	return cloneParticipation(p), nil
}

func (r eventRepo) GetParticipationByEventWallet(_ context.Context, eventID, walletID uuid.UUID) (*models.EventParticipation, error) {
	defer r.s.lock(r.locked)()
	for _, p := range r.s.st.participations {
		if p.EventID == eventID && p.WalletID == walletID {
			return cloneParticipation(p), nil
		}
	}
	return nil, repositories.ErrParticipationNotFound
}

func (r eventRepo) SetParticipationStatus(_ context.Context, participantID uuid.UUID, status string) (bool, error) {
	defer r.s.lock(r.locked)()
	p, ok := r.s.st.participations[participantID]
	if !ok || p.Status != models.ParticipationStatusPending {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (r eventRepo) DeleteParticipation(_ context.Context, participantID uuid.UUID) error {
	defer r.s.lock(r.locked)()
	if _, ok := r.s.st.participations[participantID]; !ok {
		return repositories.ErrParticipationNotFound
	}
	delete(r.s.st.participations, participantID)
	return nil
}

func (r eventRepo) ListParticipants(_ context.Context, eventID uuid.UUID) ([]*models.EventParticipation, error) {
	defer r.s.lock(r.locked)()
	var out []*models.EventParticipation
	for _, p := range r.s.st.participations {
		if p.EventID == eventID {
			out = append(out, cloneParticipation(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipatedAt.Before(out[j].ParticipatedAt) })
	return out, nil
}

type requestRepo struct {
	s      *Store
	locked bool
}

func (r requestRepo) Create(_ context.Context, req *models.PaymentRequest) error {
	defer r.s.lock(r.locked)()
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}
	now := time.Now()
	req.CreatedAt, req.UpdatedAt = now, now
	r.s.st.requests[req.RequestID] = cloneRequest(req)
	return nil
}

func (r requestRepo) GetByID(_ context.Context, requestID uuid.UUID) (*models.PaymentRequest, error) {
	defer r.s.lock(r.locked)()
	req, ok := r.s.st.requests[requestID]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r requestRepo) SetStatus(_ context.Context, requestID uuid.UUID, status string) (bool, error) {
	defer r.s.lock(r.locked)()
	req, ok := r.s.st.requests[requestID]
	if !ok || req.Status != models.PaymentRequestStatusPending {
		return false, nil
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return true, nil
}

func (r requestRepo) ListPendingByStudent(_ context.Context, studentUserID uuid.UUID) ([]*models.PaymentRequest, error) {
	defer r.s.lock(r.locked)()
	var out []*models.PaymentRequest
	for _, req := range r.s.st.requests {
		if req.StudentUserID == studentUserID && req.Status == models.PaymentRequestStatusPending {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r requestRepo) ListByGroup(_ context.Context, groupID uuid.UUID) ([]*models.PaymentRequest, error) {
	defer r.s.lock(r.locked)()
	var out []*models.PaymentRequest
	for _, req := range r.s.st.requests {
		if req.BDEGroupID == groupID {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
