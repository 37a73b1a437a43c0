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

// BillingRepository persists the Billing aggregate. Unique sparse indexes on
// the embedded document numbers back the never-reused guarantee: a duplicate
// key on write surfaces as domain.ErrNumberingRace so the caller retries the
// whole unit with a fresh number.
type BillingRepository struct {
	collection *mongo.Collection
}

// NewBillingRepository creates a new billing repository
func NewBillingRepository(db *mongo.Database) *BillingRepository {
	collection := db.Collection("billings")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invoice.invoiceNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "receipts.receiptNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "adjustmentNotes.adjustmentNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "shipmentIds", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "state", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &BillingRepository{collection: collection}
}

// Save persists a new billing
func (r *BillingRepository) Save(ctx context.Context, billing *domain.Billing) error {
	_, err := r.collection.InsertOne(ctx, billing)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrNumberingRace
		}
		return fmt.Errorf("failed to save billing: %w", err)
	}
	return nil
}

// Update persists the current state of a billing
func (r *BillingRepository) Update(ctx context.Context, billing *domain.Billing) error {
	billing.UpdatedAt = sharedMongo.Now()

	filter := bson.M{"_id": billing.ID}
	update := bson.M{"$set": billing}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrNumberingRace
		}
		return fmt.Errorf("failed to update billing: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// FindByID retrieves a billing by ID
func (r *BillingRepository) FindByID(ctx context.Context, id string) (*domain.Billing, error) {
	var billing domain.Billing
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&billing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find billing: %w", err)
	}
	return &billing, nil
}

// FindByShipmentID retrieves the billing referencing a shipment
func (r *BillingRepository) FindByShipmentID(ctx context.Context, shipmentID string) (*domain.Billing, error) {
	var billing domain.Billing
	err := r.collection.FindOne(ctx, bson.M{"shipmentIds": shipmentID}).Decode(&billing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find billing by shipment: %w", err)
	}
	return &billing, nil
}

// List retrieves billings matching the filter
func (r *BillingRepository) List(ctx context.Context, filter domain.BillingFilter, pagination domain.Pagination) ([]*domain.Billing, error) {
	opts := options.Find().
		SetSort(sharedMongo.SortDescending("createdAt")).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, r.buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list billings: %w", err)
	}
	defer cursor.Close(ctx)

	var billings []*domain.Billing
	if err := cursor.All(ctx, &billings); err != nil {
		return nil, fmt.Errorf("failed to decode billings: %w", err)
	}
	return billings, nil
}

// Count returns total count matching filter
func (r *BillingRepository) Count(ctx context.Context, filter domain.BillingFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, r.buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count billings: %w", err)
	}
	return count, nil
}

func (r *BillingRepository) buildFilter(filter domain.BillingFilter) bson.M {
	query := bson.M{}

	if filter.State != nil {
		query["state"] = *filter.State
	}
	if filter.PaymentMethod != nil {
		query["paymentMethod"] = *filter.PaymentMethod
	}
	if filter.ShipmentID != nil {
		query["shipmentIds"] = *filter.ShipmentID
	}
	if filter.InvoiceNumber != nil {
		query["invoice.invoiceNumber"] = *filter.InvoiceNumber
	}
	if filter.FromDate != nil || filter.ToDate != nil {
		dateRange := bson.M{}
		if filter.FromDate != nil {
			start, _ := sharedMongo.DayBounds(*filter.FromDate)
			dateRange["$gte"] = start
		}
		if filter.ToDate != nil {
			_, end := sharedMongo.DayBounds(*filter.ToDate)
			dateRange["$lte"] = end
		}
		query["createdAt"] = dateRange
	}

	return query
}
