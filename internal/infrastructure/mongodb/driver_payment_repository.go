package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulmarket/billing-service/internal/domain"
	sharedMongo "github.com/haulmarket/billing-service/pkg/mongodb"
)

// DriverPaymentRepository persists driver payouts.
type DriverPaymentRepository struct {
	collection *mongo.Collection
}

// NewDriverPaymentRepository creates a new driver payment repository
func NewDriverPaymentRepository(db *mongo.Database) *DriverPaymentRepository {
	collection := db.Collection("driver_payments")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "paymentNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "whtNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &DriverPaymentRepository{collection: collection}
}

// Save persists a driver payment
func (r *DriverPaymentRepository) Save(ctx context.Context, payment *domain.DriverPayment) error {
	_, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrNumberingRace
		}
		return fmt.Errorf("failed to save driver payment: %w", err)
	}
	return nil
}

// FindByID retrieves a driver payment by ID
func (r *DriverPaymentRepository) FindByID(ctx context.Context, id string) (*domain.DriverPayment, error) {
	var payment domain.DriverPayment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find driver payment: %w", err)
	}
	return &payment, nil
}

// FindByDriverID retrieves payments for a driver
func (r *DriverPaymentRepository) FindByDriverID(ctx context.Context, driverID string, pagination domain.Pagination) ([]*domain.DriverPayment, error) {
	opts := options.Find().
		SetSort(sharedMongo.SortDescending("createdAt")).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, bson.M{"driverId": driverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*domain.DriverPayment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode driver payments: %w", err)
	}
	return payments, nil
}
