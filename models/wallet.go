package models

import "time"

// LedgerEntryType classifies a wallet mutation.
type LedgerEntryType string

const (
	LedgerCredit          LedgerEntryType = "CREDIT"
	LedgerDebit           LedgerEntryType = "DEBIT"
	LedgerRefund          LedgerEntryType = "REFUND"
	LedgerPayout          LedgerEntryType = "PAYOUT"
	LedgerForfeitureSplit LedgerEntryType = "FORFEITURE_SPLIT"
)

// LedgerEntryStatus is the state of a ledger entry.
type LedgerEntryStatus string

const (
	LedgerEntryPending   LedgerEntryStatus = "PENDING"
	LedgerEntryCompleted LedgerEntryStatus = "COMPLETED"
	LedgerEntryFailed    LedgerEntryStatus = "FAILED"
)

// Wallet holds the current balance for a user. The balance always equals the
// balanceAfter of the user's most recent COMPLETED ledger entry; summation over
// entries is an audit tool, never the hot-path read.
type Wallet struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Balance   float64   `bson:"balance" json:"balance"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WalletLedgerEntry is an append-only record of a single wallet mutation.
// Amount is always a positive magnitude; the type determines its sign.
type WalletLedgerEntry struct {
	ID            string            `bson:"id" json:"id"`
	UserID        string            `bson:"user_id" json:"user_id"`
	Type          LedgerEntryType   `bson:"type" json:"type"`
	Amount        float64           `bson:"amount" json:"amount"`
	BalanceBefore float64           `bson:"balance_before" json:"balance_before"`
	BalanceAfter  float64           `bson:"balance_after" json:"balance_after"`
	Reason        string            `bson:"reason" json:"reason"`
	ReferenceID   string            `bson:"reference_id,omitempty" json:"reference_id,omitempty"`
	Status        LedgerEntryStatus `bson:"status" json:"status"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
}

// Delta returns the signed balance change this entry represents. Only DEBIT
// reduces a balance; FORFEITURE_SPLIT is the retained share credited to the
// specialist's wallet.
func (e WalletLedgerEntry) Delta() float64 {
	if e.Type == LedgerDebit {
		return -e.Amount
	}
	return e.Amount
}
