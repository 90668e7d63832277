package walletRepo

import (
	"context"
	"fmt"
	"time"

	"appointly/database"
	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWalletRepo implements WalletRepository backed by MongoDB.
type MongoWalletRepo struct {
	walletColl *mongo.Collection
	ledgerColl *mongo.Collection
}

func NewMongoWalletRepo() *MongoWalletRepo {
	return &MongoWalletRepo{
		walletColl: database.DB().Collection("wallets"),
		ledgerColl: database.DB().Collection("wallet_ledger"),
	}
}

func (repo *MongoWalletRepo) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{"user_id": userID, "balance": 0.0, "updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var wallet models.Wallet
	if err := repo.walletColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&wallet); err != nil {
		return nil, fmt.Errorf("failed to get or create wallet for %s: %w", userID, err)
	}
	return &wallet, nil
}

func (repo *MongoWalletRepo) Balance(ctx context.Context, userID string) (float64, error) {
	wallet, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (repo *MongoWalletRepo) withTransaction(ctx context.Context, txnFn func(sc mongo.SessionContext) error) error {
	client := repo.walletColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// ApplyDebit performs a conditional decrement: the filter requires
// balance >= amount, so concurrent debits can never overdraw the wallet.
func (repo *MongoWalletRepo) ApplyDebit(ctx context.Context, entry *models.WalletLedgerEntry) (bool, error) {
	if _, err := repo.GetOrCreate(ctx, entry.UserID); err != nil {
		return false, err
	}

	applied := false
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{"user_id": entry.UserID, "balance": bson.M{"$gte": entry.Amount}}
		update := bson.M{
			"$inc": bson.M{"balance": -entry.Amount},
			"$set": bson.M{"updated_at": time.Now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var wallet models.Wallet
		if err := repo.walletColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&wallet); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil // insufficient balance, nothing applied
			}
			return fmt.Errorf("debit update failed: %w", err)
		}

		entry.BalanceAfter = wallet.Balance
		entry.BalanceBefore = wallet.Balance + entry.Amount
		entry.Status = models.LedgerEntryCompleted
		if _, err := repo.ledgerColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("ledger insert failed: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("debit transaction failed: %w", err)
	}
	return applied, nil
}

func (repo *MongoWalletRepo) ApplyCredit(ctx context.Context, entry *models.WalletLedgerEntry) error {
	if _, err := repo.GetOrCreate(ctx, entry.UserID); err != nil {
		return err
	}

	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{"user_id": entry.UserID}
		update := bson.M{
			"$inc": bson.M{"balance": entry.Amount},
			"$set": bson.M{"updated_at": time.Now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var wallet models.Wallet
		if err := repo.walletColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&wallet); err != nil {
			return fmt.Errorf("credit update failed: %w", err)
		}

		entry.BalanceAfter = wallet.Balance
		entry.BalanceBefore = wallet.Balance - entry.Amount
		entry.Status = models.LedgerEntryCompleted
		if _, err := repo.ledgerColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("ledger insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("credit transaction failed: %w", err)
	}
	return nil
}

func (repo *MongoWalletRepo) Entries(ctx context.Context, userID string) ([]models.WalletLedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := repo.ledgerColl.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	var entries []models.WalletLedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

// AuditBalance replays the ledger for consistency checks; the hot path reads
// the wallet document instead.
func (repo *MongoWalletRepo) AuditBalance(ctx context.Context, userID string) (float64, error) {
	entries, err := repo.Entries(ctx, userID)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, e := range entries {
		if e.Status == models.LedgerEntryCompleted {
			sum += e.Delta()
		}
	}
	return sum, nil
}
