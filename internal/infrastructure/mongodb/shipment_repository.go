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

// ShipmentRepository persists shipments and serves the listing flows.
type ShipmentRepository struct {
	collection *mongo.Collection
}

// NewShipmentRepository creates a new shipment repository
func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	collection := db.Collection("shipments")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "pickupDate", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "pickupDate", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "billingId", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &ShipmentRepository{collection: collection}
}

// Save persists a shipment
func (r *ShipmentRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	_, err := r.collection.InsertOne(ctx, shipment)
	if err != nil {
		return fmt.Errorf("failed to save shipment: %w", err)
	}
	return nil
}

// Update persists the current state of a shipment
func (r *ShipmentRepository) Update(ctx context.Context, shipment *domain.Shipment) error {
	shipment.UpdatedAt = sharedMongo.Now()

	filter := bson.M{"_id": shipment.ID}
	update := bson.M{"$set": shipment}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update shipment: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// FindByID retrieves a shipment by ID
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&shipment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find shipment: %w", err)
	}
	return &shipment, nil
}

// FindByIDs retrieves shipments by IDs
func (r *ShipmentRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Shipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	opts := options.Find().SetSort(sharedMongo.SortAscending("_id"))
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find shipments: %w", err)
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, fmt.Errorf("failed to decode shipments: %w", err)
	}
	return shipments, nil
}

// List runs the compiled listing pipeline over shipments
func (r *ShipmentRepository) List(ctx context.Context, criteria domain.ShipmentCriteria) ([]domain.ShipmentListing, error) {
	cursor, err := r.collection.Aggregate(ctx, buildListingPipeline(criteria))
	if err != nil {
		return nil, fmt.Errorf("failed to run shipment listing: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []domain.ShipmentListing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode shipment listing: %w", err)
	}
	return listings, nil
}
