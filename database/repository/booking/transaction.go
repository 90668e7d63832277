package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// withTransaction runs txnFn inside a mongo session transaction.
func (repo *MongoBookingRepo) withTransaction(ctx context.Context, txnFn func(sc mongo.SessionContext) error) error {
	client := repo.coll.Database().Client()
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

// Reserve re-checks the overlap invariant and inserts the booking in one
// transaction. Callers must hold the per-specialist reservation lock; the
// transaction keeps the check-and-insert durable as a unit, the lock
// serializes concurrent reservations for the same specialist.
func (repo *MongoBookingRepo) Reserve(ctx context.Context, booking *models.Booking) ([]string, error) {
	var conflicts []string
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		end := booking.EndsAt()
		cursor, err := repo.coll.Find(sc, overlapFilter(booking.SpecialistID, booking.ScheduledAt, end))
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		var existing []models.Booking
		if err := cursor.All(sc, &existing); err != nil {
			return fmt.Errorf("overlap decode failed: %w", err)
		}
		if len(existing) > 0 {
			for _, b := range existing {
				conflicts = append(conflicts, b.ID)
			}
			return fmt.Errorf("slot already reserved")
		}
		if _, err := repo.coll.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
	if err != nil && len(conflicts) > 0 {
		return conflicts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reservation transaction failed: %w", err)
	}
	return nil, nil
}

// Reschedule moves the booking to newStart, re-checking the overlap invariant
// against all other active bookings inside one transaction. Either the old
// reservation is released and the new one taken, or nothing changes.
func (repo *MongoBookingRepo) Reschedule(ctx context.Context, bookingID string, newStart time.Time) ([]string, error) {
	var conflicts []string
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		var booking models.Booking
		if err := repo.coll.FindOne(sc, bson.M{"id": bookingID}).Decode(&booking); err != nil {
			return fmt.Errorf("booking %s not found: %w", bookingID, err)
		}

		end := newStart.Add(time.Duration(booking.DurationMinutes) * time.Minute)
		cursor, err := repo.coll.Find(sc, overlapFilter(booking.SpecialistID, newStart, end))
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		var existing []models.Booking
		if err := cursor.All(sc, &existing); err != nil {
			return fmt.Errorf("overlap decode failed: %w", err)
		}
		for _, b := range existing {
			if b.ID != bookingID {
				conflicts = append(conflicts, b.ID)
			}
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("new slot already reserved")
		}

		res, err := repo.coll.UpdateOne(sc,
			bson.M{"id": bookingID},
			bson.M{"$set": bson.M{"scheduled_at": newStart}},
		)
		if err != nil {
			return fmt.Errorf("reschedule update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("booking %s disappeared during reschedule", bookingID)
		}
		return nil
	})
	if err != nil && len(conflicts) > 0 {
		return conflicts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reschedule transaction failed: %w", err)
	}
	return nil, nil
}
