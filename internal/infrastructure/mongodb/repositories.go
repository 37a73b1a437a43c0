package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulmarket/billing-service/internal/domain"
	sharedMongo "github.com/haulmarket/billing-service/pkg/mongodb"
)

const indexTimeout = 10 * time.Second

// RateCardRepository persists distance-tier rate cards.
type RateCardRepository struct {
	collection *mongo.Collection
}

// NewRateCardRepository creates a new rate card repository
func NewRateCardRepository(db *mongo.Database) *RateCardRepository {
	collection := db.Collection("rate_cards")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "vehicleTypeId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &RateCardRepository{collection: collection}
}

// FindByVehicleType retrieves the rate card for a vehicle type
func (r *RateCardRepository) FindByVehicleType(ctx context.Context, vehicleTypeID string) (*domain.RateCard, error) {
	var card domain.RateCard
	err := r.collection.FindOne(ctx, bson.M{"vehicleTypeId": vehicleTypeID}).Decode(&card)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find rate card: %w", err)
	}
	return &card, nil
}

// Save persists a rate card
func (r *RateCardRepository) Save(ctx context.Context, card *domain.RateCard) error {
	filter := bson.M{"_id": card.ID}
	update := bson.M{"$set": card}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save rate card: %w", err)
	}
	return nil
}

// AdditionalServiceRepository persists the additional-service rate table.
type AdditionalServiceRepository struct {
	collection *mongo.Collection
}

// NewAdditionalServiceRepository creates a new additional service repository
func NewAdditionalServiceRepository(db *mongo.Database) *AdditionalServiceRepository {
	collection := db.Collection("additional_services")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "serviceRef", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &AdditionalServiceRepository{collection: collection}
}

// FindByRefs retrieves service rates keyed by serviceRef
func (r *AdditionalServiceRepository) FindByRefs(ctx context.Context, serviceRefs []string) (map[string]*domain.AdditionalServiceRate, error) {
	result := make(map[string]*domain.AdditionalServiceRate, len(serviceRefs))
	if len(serviceRefs) == 0 {
		return result, nil
	}

	rates, err := r.findMany(ctx, bson.M{"serviceRef": bson.M{"$in": serviceRefs}}, nil)
	if err != nil {
		return nil, err
	}
	for _, rate := range rates {
		result[rate.ServiceRef] = rate
	}
	return result, nil
}

// Save persists a service rate
func (r *AdditionalServiceRepository) Save(ctx context.Context, rate *domain.AdditionalServiceRate) error {
	filter := bson.M{"_id": rate.ID}
	update := bson.M{"$set": rate}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save service rate: %w", err)
	}
	return nil
}

func (r *AdditionalServiceRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.AdditionalServiceRate, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find service rates: %w", err)
	}
	defer cursor.Close(ctx)

	var rates []*domain.AdditionalServiceRate
	if err := cursor.All(ctx, &rates); err != nil {
		return nil, fmt.Errorf("failed to decode service rates: %w", err)
	}
	return rates, nil
}

// DiscountRepository persists discount codes and their usage counters. The
// counters live in a separate collection keyed by (code, userId); the global
// counter for a code is the sum across its users.
type DiscountRepository struct {
	collection      *mongo.Collection
	usageCollection *mongo.Collection
}

// NewDiscountRepository creates a new discount repository
func NewDiscountRepository(db *mongo.Database) *DiscountRepository {
	collection := db.Collection("discounts")
	usageCollection := db.Collection("discount_usage")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	usageIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = usageCollection.Indexes().CreateMany(ctx, usageIndexes)

	return &DiscountRepository{
		collection:      collection,
		usageCollection: usageCollection,
	}
}

// FindByCode retrieves a discount by code
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	var discount domain.Discount
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&discount)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find discount: %w", err)
	}
	return &discount, nil
}

// Save persists a discount
func (r *DiscountRepository) Save(ctx context.Context, discount *domain.Discount) error {
	filter := bson.M{"_id": discount.ID}
	update := bson.M{"$set": discount}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save discount: %w", err)
	}
	return nil
}

// Usage returns the global and per-user usage counters for a code
func (r *DiscountRepository) Usage(ctx context.Context, code, userID string) (domain.DiscountUsage, error) {
	var usage domain.DiscountUsage

	pipeline := []bson.M{
		{"$match": bson.M{"code": code}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$count"},
		}},
	}
	cursor, err := r.usageCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return usage, fmt.Errorf("failed to aggregate discount usage: %w", err)
	}
	defer cursor.Close(ctx)

	var totals []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return usage, fmt.Errorf("failed to decode discount usage: %w", err)
	}
	if len(totals) > 0 {
		usage.Total = totals[0].Total
	}

	var userDoc struct {
		Count int64 `bson:"count"`
	}
	err = r.usageCollection.FindOne(ctx, bson.M{"code": code, "userId": userID}).Decode(&userDoc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return usage, fmt.Errorf("failed to find user discount usage: %w", err)
	}
	usage.ByUser = userDoc.Count

	return usage, nil
}

// IncrementUsage records one application of a code by a user
func (r *DiscountRepository) IncrementUsage(ctx context.Context, code, userID string) error {
	filter := bson.M{"code": code, "userId": userID}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updatedAt": sharedMongo.Now()},
	}
	opts := options.Update().SetUpsert(true)

	_, err := r.usageCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to increment discount usage: %w", err)
	}
	return nil
}

// QuotationRepository persists calculation results.
type QuotationRepository struct {
	collection *mongo.Collection
}

// NewQuotationRepository creates a new quotation repository
func NewQuotationRepository(db *mongo.Database) *QuotationRepository {
	collection := db.Collection("quotations")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "input.userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "input.vehicleTypeId", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &QuotationRepository{collection: collection}
}

// Save persists a quotation
func (r *QuotationRepository) Save(ctx context.Context, quotation *domain.Quotation) error {
	filter := bson.M{"_id": quotation.ID}
	update := bson.M{"$set": quotation}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save quotation: %w", err)
	}
	return nil
}

// FindByID retrieves a quotation by ID
func (r *QuotationRepository) FindByID(ctx context.Context, id string) (*domain.Quotation, error) {
	var quotation domain.Quotation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quotation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quotation: %w", err)
	}
	return &quotation, nil
}
