package payment

import (
	"context"
	"time"

	walletRepo "appointly/database/repository/wallet"
	"appointly/models"

	"github.com/google/uuid"
)

// LedgerService tracks wallet balances through an append-only ledger.
type LedgerService interface {
	// Credit appends a credit-like entry (CREDIT, REFUND, PAYOUT,
	// FORFEITURE_SPLIT) and raises the balance.
	Credit(ctx context.Context, userID string, amount float64, entryType models.LedgerEntryType, reason, referenceID string) (*models.WalletLedgerEntry, error)
	// Debit lowers the balance, failing atomically with
	// InsufficientFundsError when amount exceeds the current balance.
	Debit(ctx context.Context, userID string, amount float64, reason, referenceID string) (*models.WalletLedgerEntry, error)
	Balance(ctx context.Context, userID string) (float64, error)
	Entries(ctx context.Context, userID string) ([]models.WalletLedgerEntry, error)
}

// DefaultLedgerService implements LedgerService over the wallet repository.
// Serialization of concurrent mutations lives in the repository's conditional
// updates; this layer owns entry construction and the error taxonomy.
type DefaultLedgerService struct {
	Repo walletRepo.WalletRepository
}

func (s *DefaultLedgerService) Credit(ctx context.Context, userID string, amount float64, entryType models.LedgerEntryType, reason, referenceID string) (*models.WalletLedgerEntry, error) {
	entry := &models.WalletLedgerEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        entryType,
		Amount:      amount,
		Reason:      reason,
		ReferenceID: referenceID,
		Status:      models.LedgerEntryPending,
		CreatedAt:   time.Now(),
	}
	if err := s.Repo.ApplyCredit(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *DefaultLedgerService) Debit(ctx context.Context, userID string, amount float64, reason, referenceID string) (*models.WalletLedgerEntry, error) {
	entry := &models.WalletLedgerEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        models.LedgerDebit,
		Amount:      amount,
		Reason:      reason,
		ReferenceID: referenceID,
		Status:      models.LedgerEntryPending,
		CreatedAt:   time.Now(),
	}
	applied, err := s.Repo.ApplyDebit(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !applied {
		balance, berr := s.Repo.Balance(ctx, userID)
		if berr != nil {
			balance = 0
		}
		return nil, &InsufficientFundsError{Shortfall: amount - balance}
	}
	return entry, nil
}

func (s *DefaultLedgerService) Balance(ctx context.Context, userID string) (float64, error) {
	return s.Repo.Balance(ctx, userID)
}

func (s *DefaultLedgerService) Entries(ctx context.Context, userID string) ([]models.WalletLedgerEntry, error) {
	return s.Repo.Entries(ctx, userID)
}
