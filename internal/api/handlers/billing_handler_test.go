package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/events"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/metrics"
	"github.com/haulmarket/billing-service/pkg/middleware"
	"github.com/haulmarket/billing-service/pkg/outbox"
)

func TestMain(m *testing.M) {
	middleware.InitValidator()
	os.Exit(m.Run())
}

type fakeBillingRepo struct {
	saveFn             func(context.Context, *domain.Billing) error
	updateFn           func(context.Context, *domain.Billing) error
	findByIDFn         func(context.Context, string) (*domain.Billing, error)
	findByShipmentIDFn func(context.Context, string) (*domain.Billing, error)
	listFn             func(context.Context, domain.BillingFilter, domain.Pagination) ([]*domain.Billing, error)
	countFn            func(context.Context, domain.BillingFilter) (int64, error)
}

func (f *fakeBillingRepo) Save(ctx context.Context, billing *domain.Billing) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, billing)
	}
	return nil
}

func (f *fakeBillingRepo) Update(ctx context.Context, billing *domain.Billing) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, billing)
	}
	return nil
}

func (f *fakeBillingRepo) FindByID(ctx context.Context, id string) (*domain.Billing, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeBillingRepo) FindByShipmentID(ctx context.Context, shipmentID string) (*domain.Billing, error) {
	if f.findByShipmentIDFn != nil {
		return f.findByShipmentIDFn(ctx, shipmentID)
	}
	return nil, nil
}

func (f *fakeBillingRepo) List(ctx context.Context, filter domain.BillingFilter, pagination domain.Pagination) ([]*domain.Billing, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter, pagination)
	}
	return nil, nil
}

func (f *fakeBillingRepo) Count(ctx context.Context, filter domain.BillingFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

type fakeDocumentRepo struct {
	upsertFn func(context.Context, string, domain.DocumentType, string) (*domain.BillingDocument, error)
	findFn   func(context.Context, string) (*domain.BillingDocument, error)
	whtFn    func(context.Context, string, time.Time) error
}

func (f *fakeDocumentRepo) Upsert(ctx context.Context, ownerRef string, documentType domain.DocumentType, filename string) (*domain.BillingDocument, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, ownerRef, documentType, filename)
	}
	return &domain.BillingDocument{ID: "doc-" + ownerRef, OwnerRef: ownerRef, DocumentType: documentType, Filename: filename}, nil
}

func (f *fakeDocumentRepo) FindByOwnerRef(ctx context.Context, ownerRef string) (*domain.BillingDocument, error) {
	if f.findFn != nil {
		return f.findFn(ctx, ownerRef)
	}
	return nil, nil
}

func (f *fakeDocumentRepo) SetWHTReceivedDate(ctx context.Context, ownerRef string, receivedAt time.Time) error {
	if f.whtFn != nil {
		return f.whtFn(ctx, ownerRef, receivedAt)
	}
	return nil
}

type fakeSequencer struct {
	nextFn func(context.Context, domain.DocumentType) (string, error)
}

func (f *fakeSequencer) Next(ctx context.Context, documentType domain.DocumentType) (string, error) {
	if f.nextFn != nil {
		return f.nextFn(ctx, documentType)
	}
	return string(documentType[:3]) + "00000001", nil
}

type fakeOutboxRepo struct{}

func (f *fakeOutboxRepo) Save(ctx context.Context, event *outbox.OutboxEvent) error { return nil }

func (f *fakeOutboxRepo) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	return nil
}

func (f *fakeOutboxRepo) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkPublished(ctx context.Context, eventID string) error { return nil }

func (f *fakeOutboxRepo) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	return nil
}

func (f *fakeOutboxRepo) DeletePublished(ctx context.Context, olderThan int64) error { return nil }

type fakeTxnRunner struct{}

func (f *fakeTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("handler-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func makeRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newBillingHandler(billingRepo domain.BillingRepository, documentRepo domain.BillingDocumentRepository) *BillingHandler {
	service := application.NewBillingService(
		billingRepo,
		documentRepo,
		&fakeSequencer{},
		&fakeOutboxRepo{},
		events.NewEventFactory("/billing-service-test"),
		&fakeTxnRunner{},
		nil,
		metrics.New(metrics.DefaultConfig("handler-test")),
		testLogger(),
		0.07,
		5*time.Second,
	)
	return NewBillingHandler(service, testLogger())
}

func draftBilling(t *testing.T) *domain.Billing {
	t.Helper()
	detail, err := domain.NewPaymentDetail(domain.PaymentMethodCredit, nil, &domain.CreditDetail{
		CompanyName: "Acme Logistics",
		TaxID:       "0105540087061",
	})
	require.NoError(t, err)

	billing, err := domain.OpenBilling([]string{"shp-1"}, detail, "quo-1", domain.Amount{
		SubTotal: 1000,
		Tax:      70,
		Total:    1070,
	})
	require.NoError(t, err)
	billing.ClearDomainEvents()
	return billing
}

func TestBillingHandlerOpenBilling(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newBillingHandler(&fakeBillingRepo{}, &fakeDocumentRepo{})
	router.POST("/api/v1/billings", handler.OpenBilling)

	rec := makeRequest(router, http.MethodPost, "/api/v1/billings", map[string]interface{}{
		"shipmentIds":   []string{"shp-1", "shp-2"},
		"paymentMethod": "CREDIT",
		"quotationRef":  "quo-1",
		"creditDetail": map[string]interface{}{
			"companyName": "Acme Logistics",
			"taxId":       "0105540087061",
		},
		"amount": map[string]interface{}{
			"subTotal": 1000,
			"tax":      70,
			"total":    1070,
		},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// missing shipments
	rec = makeRequest(router, http.MethodPost, "/api/v1/billings", map[string]interface{}{
		"paymentMethod": "CREDIT",
		"quotationRef":  "quo-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillingHandlerIssueInvoice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	billing := draftBilling(t)
	billing.ID = "bil-1"
	repo := &fakeBillingRepo{
		findByIDFn: func(_ context.Context, id string) (*domain.Billing, error) {
			if id == billing.ID {
				return billing, nil
			}
			return nil, nil
		},
	}
	handler := newBillingHandler(repo, &fakeDocumentRepo{})
	router.POST("/api/v1/billings/:billingId/invoice", handler.IssueInvoice)

	rec := makeRequest(router, http.MethodPost, "/api/v1/billings/bil-1/invoice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data application.BillingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Invoice)
	assert.Equal(t, "INV00000001", resp.Data.Invoice.InvoiceNumber)
	assert.Equal(t, string(domain.BillingStateIssued), resp.Data.State)

	rec = makeRequest(router, http.MethodPost, "/api/v1/billings/missing/invoice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillingHandlerRecordReceipt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	billing := draftBilling(t)
	billing.ID = "bil-1"
	_, err := billing.IssueInvoice("INV00000001", time.Now().UTC())
	require.NoError(t, err)
	billing.ClearDomainEvents()

	repo := &fakeBillingRepo{
		findByIDFn: func(_ context.Context, _ string) (*domain.Billing, error) {
			return billing, nil
		},
	}
	handler := newBillingHandler(repo, &fakeDocumentRepo{})
	router.POST("/api/v1/billings/:billingId/receipts", handler.RecordReceipt)

	rec := makeRequest(router, http.MethodPost, "/api/v1/billings/bil-1/receipts", map[string]interface{}{
		"subTotal": 400,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data application.BillingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.BillingStatePartiallyPaid), resp.Data.State)
	assert.Equal(t, 600.0, resp.Data.Outstanding)

	// negative amount rejected by binding
	rec = makeRequest(router, http.MethodPost, "/api/v1/billings/bil-1/receipts", map[string]interface{}{
		"subTotal": -10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillingHandlerRecordReceiptOnDraft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	billing := draftBilling(t)
	billing.ID = "bil-1"
	repo := &fakeBillingRepo{
		findByIDFn: func(_ context.Context, _ string) (*domain.Billing, error) {
			return billing, nil
		},
	}
	handler := newBillingHandler(repo, &fakeDocumentRepo{})
	router.POST("/api/v1/billings/:billingId/receipts", handler.RecordReceipt)

	rec := makeRequest(router, http.MethodPost, "/api/v1/billings/bil-1/receipts", map[string]interface{}{
		"subTotal": 400,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBillingHandlerCancelBilling(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	billing := draftBilling(t)
	billing.ID = "bil-1"
	repo := &fakeBillingRepo{
		findByIDFn: func(_ context.Context, _ string) (*domain.Billing, error) {
			return billing, nil
		},
	}
	handler := newBillingHandler(repo, &fakeDocumentRepo{})
	router.POST("/api/v1/billings/:billingId/cancel", handler.CancelBilling)

	rec := makeRequest(router, http.MethodPost, "/api/v1/billings/bil-1/cancel", map[string]interface{}{
		"reason": "duplicate booking",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// reason is required
	rec = makeRequest(router, http.MethodPost, "/api/v1/billings/bil-1/cancel", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillingHandlerListBillings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var captured domain.BillingFilter
	repo := &fakeBillingRepo{
		listFn: func(_ context.Context, filter domain.BillingFilter, _ domain.Pagination) ([]*domain.Billing, error) {
			captured = filter
			return nil, nil
		},
	}
	handler := newBillingHandler(repo, &fakeDocumentRepo{})
	router.GET("/api/v1/billings", handler.ListBillings)

	rec := makeRequest(router, http.MethodGet, "/api/v1/billings?state=PAID&paymentMethod=CREDIT&page=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured.State)
	assert.Equal(t, domain.BillingStatePaid, *captured.State)
	require.NotNil(t, captured.PaymentMethod)
	assert.Equal(t, domain.PaymentMethodCredit, *captured.PaymentMethod)

	rec = makeRequest(router, http.MethodGet, "/api/v1/billings?fromDate=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandlerGetAndRegenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	documentRepo := &fakeDocumentRepo{
		findFn: func(_ context.Context, ownerRef string) (*domain.BillingDocument, error) {
			if ownerRef == "INV00000001" {
				return &domain.BillingDocument{
					ID:           "doc-1",
					OwnerRef:     ownerRef,
					DocumentType: domain.DocumentTypeInvoice,
					Filename:     "INV00000001.pdf",
				}, nil
			}
			return nil, nil
		},
	}
	handler := NewDocumentHandler(
		newBillingHandler(&fakeBillingRepo{}, documentRepo).service,
		testLogger(),
	)
	router.GET("/api/v1/documents/:ownerRef", handler.GetDocument)
	router.POST("/api/v1/documents/:ownerRef/regenerate", handler.RegenerateDocument)

	rec := makeRequest(router, http.MethodGet, "/api/v1/documents/INV00000001", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/documents/INV99999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = makeRequest(router, http.MethodPost, "/api/v1/documents/INV00000001/regenerate", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodPost, "/api/v1/documents/INV99999999/regenerate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentHandlerMarkWHTReceived(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewDocumentHandler(
		newBillingHandler(&fakeBillingRepo{}, &fakeDocumentRepo{}).service,
		testLogger(),
	)
	router.PUT("/api/v1/documents/:ownerRef/wht-received", handler.MarkWHTReceived)

	rec := makeRequest(router, http.MethodPut, "/api/v1/documents/WHT00000001/wht-received", map[string]interface{}{
		"receivedAt": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodPut, "/api/v1/documents/WHT00000001/wht-received", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
