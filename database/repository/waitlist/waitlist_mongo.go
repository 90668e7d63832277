package waitlistRepo

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

// WaitlistRepository persists waitlist entries. Promotion ordering is
// oldest-first among entries that have not yet missed a notification.
type WaitlistRepository interface {
	Insert(ctx context.Context, entry *models.WaitlistEntry) error
	GetByID(ctx context.Context, id string) (*models.WaitlistEntry, error)
	// Waiting returns WAITING entries for the specialist/date, ordered by
	// (missed notifications, created_at) so untried entries come first.
	Waiting(ctx context.Context, specialistID, date string) ([]models.WaitlistEntry, error)
	// MarkNotified flips WAITING to NOTIFIED with a deadline and the slot the
	// entry was offered; conditional on the entry still being WAITING.
	MarkNotified(ctx context.Context, id string, deadline time.Time, slotStart, slotDuration int) (bool, error)
	// RevertNotified flips NOTIFIED back to WAITING and bumps the missed
	// counter. Conditional on the entry still being NOTIFIED.
	RevertNotified(ctx context.Context, id string) (bool, error)
	// MarkConverted flips the user's NOTIFIED entry for the specialist/date to
	// CONVERTED, but only when the booked start falls inside the offered slot.
	MarkConverted(ctx context.Context, userID, specialistID, date string, startMinute int) (bool, error)
	// FindNotifiedPastDeadline returns NOTIFIED entries whose deadline passed.
	FindNotifiedPastDeadline(ctx context.Context, now time.Time) ([]models.WaitlistEntry, error)
	// ExpirePastDates flips WAITING entries whose preferred date has passed.
	ExpirePastDates(ctx context.Context, today string) (int64, error)
}

// MongoWaitlistRepo implements WaitlistRepository backed by MongoDB.
type MongoWaitlistRepo struct {
	coll *mongo.Collection
}

func NewMongoWaitlistRepo() *MongoWaitlistRepo {
	return &MongoWaitlistRepo{coll: database.DB().Collection("waitlist_entries")}
}

func (repo *MongoWaitlistRepo) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	if _, err := repo.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert waitlist entry: %w", err)
	}
	return nil
}

func (repo *MongoWaitlistRepo) GetByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("waitlist entry %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch waitlist entry %s: %w", id, err)
	}
	return &entry, nil
}

func (repo *MongoWaitlistRepo) Waiting(ctx context.Context, specialistID, date string) ([]models.WaitlistEntry, error) {
	filter := bson.M{
		"specialist_id":  specialistID,
		"preferred_date": date,
		"status":         models.WaitlistWaiting,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "missed_notifications", Value: 1},
		{Key: "created_at", Value: 1},
	})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query waitlist: %w", err)
	}
	var entries []models.WaitlistEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode waitlist entries: %w", err)
	}
	return entries, nil
}

func (repo *MongoWaitlistRepo) MarkNotified(ctx context.Context, id string, deadline time.Time, slotStart, slotDuration int) (bool, error) {
	filter := bson.M{"id": id, "status": models.WaitlistWaiting}
	update := bson.M{"$set": bson.M{
		"status":                 models.WaitlistNotified,
		"notify_deadline":        deadline,
		"notified_slot_start":    slotStart,
		"notified_slot_duration": slotDuration,
	}}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark waitlist entry notified: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (repo *MongoWaitlistRepo) RevertNotified(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": models.WaitlistNotified}
	update := bson.M{
		"$set": bson.M{"status": models.WaitlistWaiting},
		"$unset": bson.M{
			"notify_deadline":        "",
			"notified_slot_start":    "",
			"notified_slot_duration": "",
		},
		"$inc": bson.M{"missed_notifications": 1},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to revert waitlist entry: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (repo *MongoWaitlistRepo) MarkConverted(ctx context.Context, userID, specialistID, date string, startMinute int) (bool, error) {
	filter := bson.M{
		"user_id":             userID,
		"specialist_id":       specialistID,
		"preferred_date":      date,
		"status":              models.WaitlistNotified,
		"notified_slot_start": bson.M{"$lte": startMinute},
		"$expr": bson.M{"$lt": bson.A{
			startMinute,
			bson.M{"$add": bson.A{"$notified_slot_start", "$notified_slot_duration"}},
		}},
	}
	update := bson.M{"$set": bson.M{"status": models.WaitlistConverted}}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark waitlist entry converted: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (repo *MongoWaitlistRepo) FindNotifiedPastDeadline(ctx context.Context, now time.Time) ([]models.WaitlistEntry, error) {
	filter := bson.M{
		"status":          models.WaitlistNotified,
		"notify_deadline": bson.M{"$lte": now},
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue notifications: %w", err)
	}
	var entries []models.WaitlistEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode overdue notifications: %w", err)
	}
	return entries, nil
}

func (repo *MongoWaitlistRepo) ExpirePastDates(ctx context.Context, today string) (int64, error) {
	filter := bson.M{
		"status":         models.WaitlistWaiting,
		"preferred_date": bson.M{"$lt": today},
	}
	res, err := repo.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": models.WaitlistExpired}})
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale waitlist entries: %w", err)
	}
	return res.ModifiedCount, nil
}
