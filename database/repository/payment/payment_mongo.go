package paymentRepo

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

// MongoPaymentIntentRepo implements PaymentIntentRepository backed by MongoDB.
type MongoPaymentIntentRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentIntentRepo() *MongoPaymentIntentRepo {
	return &MongoPaymentIntentRepo{coll: database.DB().Collection("payment_intents")}
}

var nonTerminalStatuses = []models.PaymentIntentStatus{
	models.IntentPending,
	models.IntentAwaitingConfirmation,
}

func (repo *MongoPaymentIntentRepo) Insert(ctx context.Context, intent *models.PaymentIntent) error {
	if _, err := repo.coll.InsertOne(ctx, intent); err != nil {
		return fmt.Errorf("failed to insert payment intent: %w", err)
	}
	return nil
}

func (repo *MongoPaymentIntentRepo) GetByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&intent); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment intent %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch payment intent %s: %w", id, err)
	}
	return &intent, nil
}

func (repo *MongoPaymentIntentRepo) GetByReference(ctx context.Context, ref string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := repo.coll.FindOne(ctx, bson.M{"external_reference": ref}).Decode(&intent); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment intent with reference %s not found", ref)
		}
		return nil, fmt.Errorf("failed to fetch payment intent by reference: %w", err)
	}
	return &intent, nil
}

func (repo *MongoPaymentIntentRepo) ActiveForBooking(ctx context.Context, bookingID string) (*models.PaymentIntent, error) {
	filter := bson.M{
		"booking_id": bookingID,
		"status":     bson.M{"$in": nonTerminalStatuses},
	}
	var intent models.PaymentIntent
	if err := repo.coll.FindOne(ctx, filter).Decode(&intent); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active intent for booking %s: %w", bookingID, err)
	}
	return &intent, nil
}

func (repo *MongoPaymentIntentRepo) CompletedForBooking(ctx context.Context, bookingID string) (*models.PaymentIntent, error) {
	filter := bson.M{"booking_id": bookingID, "status": models.IntentCompleted}
	var intent models.PaymentIntent
	if err := repo.coll.FindOne(ctx, filter).Decode(&intent); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch completed intent for booking %s: %w", bookingID, err)
	}
	return &intent, nil
}

func (repo *MongoPaymentIntentRepo) CompleteByReference(ctx context.Context, ref string) (*models.PaymentIntent, bool, error) {
	filter := bson.M{
		"external_reference": ref,
		"status":             models.IntentAwaitingConfirmation,
	}
	update := bson.M{"$set": bson.M{"status": models.IntentCompleted}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var intent models.PaymentIntent
	err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&intent)
	if err == nil {
		return &intent, true, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, fmt.Errorf("failed to complete intent by reference: %w", err)
	}

	// Already transitioned or unknown reference; fetch for the caller.
	existing, ferr := repo.GetByReference(ctx, ref)
	if ferr != nil {
		return nil, false, ferr
	}
	return existing, false, nil
}

func (repo *MongoPaymentIntentRepo) TransitionStatus(ctx context.Context, id string, from []models.PaymentIntentStatus, to models.PaymentIntentStatus) (bool, error) {
	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return false, fmt.Errorf("failed to transition payment intent %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (repo *MongoPaymentIntentRepo) FindExpired(ctx context.Context, now time.Time) ([]models.PaymentIntent, error) {
	filter := bson.M{
		"status":     bson.M{"$in": nonTerminalStatuses},
		"expires_at": bson.M{"$lte": now},
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired intents: %w", err)
	}
	var intents []models.PaymentIntent
	if err := cursor.All(ctx, &intents); err != nil {
		return nil, fmt.Errorf("failed to decode expired intents: %w", err)
	}
	return intents, nil
}
