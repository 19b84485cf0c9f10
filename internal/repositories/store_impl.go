package repositories

import "gorm.io/gorm"

type gormStore struct {
	db *gorm.DB
}

// NewStore builds the canonical GORM-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Wallets() WalletRepository {
	return NewWalletRepository(s.db)
}

func (s *gormStore) Transactions() TransactionRepository {
	return NewTransactionRepository(s.db)
}

func (s *gormStore) Exchange() ExchangeRepository {
	return NewExchangeRepository(s.db)
}

func (s *gormStore) Events() EventRepository {
	return NewEventRepository(s.db)
}

func (s *gormStore) PaymentRequests() PaymentRequestRepository {
	return NewPaymentRequestRepository(s.db)
}

func (s *gormStore) ExecuteInTransaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
