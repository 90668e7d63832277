package walletRepo

import (
	"context"

	"appointly/models"
)

// WalletRepository persists wallet balances and their append-only ledger.
// Debits are conditional on sufficient balance; ledger entries and the
// balance change commit in the same transaction.
type WalletRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error)
	Balance(ctx context.Context, userID string) (float64, error)
	// ApplyDebit decrements the balance and appends the ledger entry only when
	// balance >= entry.Amount. It reports whether the debit was applied and
	// fills BalanceBefore/BalanceAfter on the entry.
	ApplyDebit(ctx context.Context, entry *models.WalletLedgerEntry) (bool, error)
	// ApplyCredit increments the balance and appends the ledger entry.
	ApplyCredit(ctx context.Context, entry *models.WalletLedgerEntry) error
	Entries(ctx context.Context, userID string) ([]models.WalletLedgerEntry, error)
	// AuditBalance re-sums the ledger; used only for consistency checks.
	AuditBalance(ctx context.Context, userID string) (float64, error)
}
