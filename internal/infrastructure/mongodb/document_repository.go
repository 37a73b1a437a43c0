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

// DocumentRepository is the artifact-pointer registry. The unique index on
// ownerRef plus the single upsert write make registration idempotent: the
// first call for an owner inserts, every later call updates the filename in
// place.
type DocumentRepository struct {
	collection *mongo.Collection
}

// NewDocumentRepository creates a new billing document repository
func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	collection := db.Collection("billing_documents")

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerRef", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "documentType", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &DocumentRepository{collection: collection}
}

// Upsert creates the document record for ownerRef on first call and updates
// its filename on every later call
func (r *DocumentRepository) Upsert(ctx context.Context, ownerRef string, documentType domain.DocumentType, filename string) (*domain.BillingDocument, error) {
	now := sharedMongo.Now()

	filter := bson.M{"ownerRef": ownerRef}
	update := bson.M{
		"$set": bson.M{
			"documentType": documentType,
			"filename":     filename,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       sharedMongo.GenerateIDString(),
			"ownerRef":  ownerRef,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var document domain.BillingDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&document)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert billing document: %w", err)
	}
	return &document, nil
}

// FindByOwnerRef retrieves the document record for an owner
func (r *DocumentRepository) FindByOwnerRef(ctx context.Context, ownerRef string) (*domain.BillingDocument, error) {
	var document domain.BillingDocument
	err := r.collection.FindOne(ctx, bson.M{"ownerRef": ownerRef}).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find billing document: %w", err)
	}
	return &document, nil
}

// SetWHTReceivedDate records when a signed WHT certificate came back
func (r *DocumentRepository) SetWHTReceivedDate(ctx context.Context, ownerRef string, receivedAt time.Time) error {
	filter := bson.M{
		"ownerRef":     ownerRef,
		"documentType": domain.DocumentTypeWHTCertificate,
	}
	update := sharedMongo.BuildUpdateWithTimestamp(bson.M{
		"receivedWhtDocumentDate": receivedAt,
	})

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set WHT received date: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
