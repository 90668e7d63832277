package bookingRepo

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

// MongoBookingRepo implements BookingRepository backed by MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{coll: database.DB().Collection("bookings")}
}

func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("booking %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

// overlapFilter matches active bookings for the specialist whose half-open
// interval intersects [start, end). End is derived from scheduled_at plus
// duration_minutes, so the filter uses an aggregation expression.
func overlapFilter(specialistID string, start, end time.Time) bson.M {
	return bson.M{
		"specialist_id": specialistID,
		"status":        bson.M{"$in": models.ActiveBookingStatuses},
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$lt": bson.A{"$scheduled_at", end}},
			bson.M{"$gt": bson.A{
				bson.M{"$add": bson.A{"$scheduled_at", bson.M{"$multiply": bson.A{"$duration_minutes", 60000}}}},
				start,
			}},
		}},
	}
}

func (repo *MongoBookingRepo) FindOverlapping(ctx context.Context, specialistID string, start time.Time, durationMinutes int) ([]models.Booking, error) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	cursor, err := repo.coll.Find(ctx, overlapFilter(specialistID, start, end))
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}
	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) FindActiveBetween(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"specialist_id": specialistID,
		"status":        bson.M{"$in": models.ActiveBookingStatuses},
		"scheduled_at":  bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) TransitionStatus(ctx context.Context, id string, from []models.BookingStatus, upd StatusUpdate) (bool, error) {
	set := bson.M{"status": upd.Status}
	if upd.CancelReason != "" {
		set["cancel_reason"] = upd.CancelReason
	}
	if upd.SpecialistNotes != "" {
		set["specialist_notes"] = upd.SpecialistNotes
	}
	if upd.ConfirmedAt != nil {
		set["confirmed_at"] = upd.ConfirmedAt
	}
	if upd.CompletedAt != nil {
		set["completed_at"] = upd.CompletedAt
	}
	if upd.CancelledAt != nil {
		set["cancelled_at"] = upd.CancelledAt
	}

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition booking %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}
