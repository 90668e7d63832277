package availabilityRepo

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

// AvailabilityRepository loads a specialist's working windows. Read-mostly;
// explicit-date overrides take precedence over weekly recurrences.
type AvailabilityRepository interface {
	WindowsFor(ctx context.Context, specialistID string, date time.Time) ([]models.AvailabilityWindow, error)
}

// MongoAvailabilityRepo implements AvailabilityRepository backed by MongoDB.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

func NewMongoAvailabilityRepo() *MongoAvailabilityRepo {
	return &MongoAvailabilityRepo{coll: database.DB().Collection("availability_windows")}
}

func (repo *MongoAvailabilityRepo) WindowsFor(ctx context.Context, specialistID string, date time.Time) ([]models.AvailabilityWindow, error) {
	dateStr := date.Format("2006-01-02")
	filter := bson.M{
		"specialist_id": specialistID,
		"$or": bson.A{
			bson.M{"date": dateStr},
			bson.M{"date": bson.M{"$in": bson.A{nil, ""}}, "day_of_week": int(date.Weekday())},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_minute", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability windows: %w", err)
	}
	var windows []models.AvailabilityWindow
	if err := cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode availability windows: %w", err)
	}

	// Explicit-date windows override the weekly recurrence for that day.
	var overrides []models.AvailabilityWindow
	for _, w := range windows {
		if w.Date == dateStr {
			overrides = append(overrides, w)
		}
	}
	if len(overrides) > 0 {
		return overrides, nil
	}
	return windows, nil
}
