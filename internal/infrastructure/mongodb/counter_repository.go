package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulmarket/billing-service/internal/domain"
)

// DefaultNumberPrefixes maps each document type to its number prefix. Callers
// may override any entry through configuration; the padded counter shape
// itself is fixed.
var DefaultNumberPrefixes = map[domain.DocumentType]string{
	domain.DocumentTypeInvoice:        "INV",
	domain.DocumentTypeReceipt:        "RCT",
	domain.DocumentTypeAdjustment:     "ADJ",
	domain.DocumentTypeDriverPayment:  "PAY",
	domain.DocumentTypeWHTCertificate: "WHT",
}

// CounterSequencer implements domain.NumberSequencer on a counters
// collection. Next is a single findAndModify with $inc, so two concurrent
// callers always observe distinct sequence values. The increment runs on the
// plain client context, never inside the caller's transaction: a rolled-back
// issuance burns its number instead of handing it to someone else.
type CounterSequencer struct {
	collection *mongo.Collection
	prefixes   map[domain.DocumentType]string
}

// NewCounterSequencer creates a sequencer over the counters collection.
// Missing prefix entries fall back to DefaultNumberPrefixes.
func NewCounterSequencer(db *mongo.Database, prefixes map[domain.DocumentType]string) *CounterSequencer {
	merged := make(map[domain.DocumentType]string, len(DefaultNumberPrefixes))
	for documentType, prefix := range DefaultNumberPrefixes {
		merged[documentType] = prefix
	}
	for documentType, prefix := range prefixes {
		merged[documentType] = prefix
	}

	return &CounterSequencer{
		collection: db.Collection("counters"),
		prefixes:   merged,
	}
}

// Next assigns the next document number for a document type
func (s *CounterSequencer) Next(ctx context.Context, documentType domain.DocumentType) (string, error) {
	if !documentType.IsValid() {
		return "", fmt.Errorf("unknown document type %q", documentType)
	}

	filter := bson.M{"_id": string(documentType)}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return "", fmt.Errorf("failed to advance %s counter: %w", documentType, err)
	}

	return fmt.Sprintf("%s%08d", s.prefixes[documentType], counter.Seq), nil
}
