package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/haulmarket/billing-service/internal/domain"
)

func TestRepositoryConstructors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("rate card", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewRateCardRepository(mt.DB))
	})

	mt.Run("additional service", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewAdditionalServiceRepository(mt.DB))
	})

	mt.Run("discount", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // discounts indexes
			mtest.CreateSuccessResponse(), // usage indexes
		)
		require.NotNil(t, NewDiscountRepository(mt.DB))
	})

	mt.Run("billing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewBillingRepository(mt.DB))
	})

	mt.Run("document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewDocumentRepository(mt.DB))
	})

	mt.Run("shipment", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NotNil(t, NewShipmentRepository(mt.DB))
	})
}

func TestCounterSequencer_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("next formats prefix and padded sequence", func(mt *mtest.T) {
		sequencer := &CounterSequencer{
			collection: mt.DB.Collection("counters"),
			prefixes:   DefaultNumberPrefixes,
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value", Value: bson.D{
				{Key: "_id", Value: "INVOICE"},
				{Key: "seq", Value: int64(7)},
			},
		}))

		number, err := sequencer.Next(context.Background(), domain.DocumentTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, "INV00000007", number)
	})

	mt.Run("unknown document type rejected before any write", func(mt *mtest.T) {
		sequencer := &CounterSequencer{
			collection: mt.DB.Collection("counters"),
			prefixes:   DefaultNumberPrefixes,
		}

		_, err := sequencer.Next(context.Background(), domain.DocumentType("BOGUS"))
		require.Error(t, err)
	})
}

func TestBillingRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id maps missing to nil", func(mt *mtest.T) {
		coll := mt.DB.Collection("billings")
		repo := &BillingRepository{collection: coll}
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		billing, err := repo.FindByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, billing)
	})

	mt.Run("duplicate number maps to numbering race", func(mt *mtest.T) {
		repo := &BillingRepository{collection: mt.DB.Collection("billings")}

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Save(context.Background(), &domain.Billing{ID: "bil-1"})
		assert.ErrorIs(t, err, domain.ErrNumberingRace)
	})

	mt.Run("find by shipment decodes match", func(mt *mtest.T) {
		coll := mt.DB.Collection("billings")
		repo := &BillingRepository{collection: coll}
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "bil-1"},
			{Key: "shipmentIds", Value: bson.A{"shp-1"}},
			{Key: "state", Value: "ISSUED"},
		}))

		billing, err := repo.FindByShipmentID(context.Background(), "shp-1")
		require.NoError(t, err)
		require.NotNil(t, billing)
		assert.Equal(t, "bil-1", billing.ID)
		assert.Equal(t, domain.BillingStateIssued, billing.State)
	})
}

func TestDocumentRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert returns the stored record", func(mt *mtest.T) {
		repo := &DocumentRepository{collection: mt.DB.Collection("billing_documents")}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value", Value: bson.D{
				{Key: "_id", Value: "doc-1"},
				{Key: "ownerRef", Value: "INV00000001"},
				{Key: "documentType", Value: "INVOICE"},
				{Key: "filename", Value: "INV00000001.pdf"},
			},
		}))

		document, err := repo.Upsert(context.Background(), "INV00000001", domain.DocumentTypeInvoice, "INV00000001.pdf")
		require.NoError(t, err)
		require.NotNil(t, document)
		assert.Equal(t, "INV00000001", document.OwnerRef)
		assert.Equal(t, "INV00000001.pdf", document.Filename)
	})

	mt.Run("wht received date on missing owner", func(mt *mtest.T) {
		repo := &DocumentRepository{collection: mt.DB.Collection("billing_documents")}

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.SetWHTReceivedDate(context.Background(), "WHT99999999", time.Now().UTC())
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestDriverPaymentRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate payment number maps to numbering race", func(mt *mtest.T) {
		repo := &DriverPaymentRepository{collection: mt.DB.Collection("driver_payments")}

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Save(context.Background(), &domain.DriverPayment{ID: "pay-1"})
		assert.ErrorIs(t, err, domain.ErrNumberingRace)
	})

	mt.Run("find by id decodes payment", func(mt *mtest.T) {
		coll := mt.DB.Collection("driver_payments")
		repo := &DriverPaymentRepository{collection: coll}
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "pay-1"},
			{Key: "paymentNumber", Value: "PAY00000001"},
			{Key: "subTotal", Value: 1000.0},
			{Key: "tax", Value: 10.0},
			{Key: "netTotal", Value: 990.0},
		}))

		payment, err := repo.FindByID(context.Background(), "pay-1")
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, "PAY00000001", payment.PaymentNumber)
		assert.Equal(t, 990.0, payment.NetTotal)
	})
}
