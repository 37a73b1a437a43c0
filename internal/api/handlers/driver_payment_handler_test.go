package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/events"
	"github.com/haulmarket/billing-service/pkg/metrics"
)

type fakeDriverPaymentRepo struct {
	saved []*domain.DriverPayment
}

func (f *fakeDriverPaymentRepo) Save(ctx context.Context, payment *domain.DriverPayment) error {
	f.saved = append(f.saved, payment)
	return nil
}

func (f *fakeDriverPaymentRepo) FindByID(ctx context.Context, id string) (*domain.DriverPayment, error) {
	for _, payment := range f.saved {
		if payment.ID == id {
			return payment, nil
		}
	}
	return nil, nil
}

func (f *fakeDriverPaymentRepo) FindByDriverID(ctx context.Context, driverID string, pagination domain.Pagination) ([]*domain.DriverPayment, error) {
	var found []*domain.DriverPayment
	for _, payment := range f.saved {
		if payment.DriverID == driverID {
			found = append(found, payment)
		}
	}
	return found, nil
}

func newDriverPaymentHandler(shipmentRepo domain.ShipmentRepository) *DriverPaymentHandler {
	service := application.NewDriverPaymentService(
		&fakeDriverPaymentRepo{},
		shipmentRepo,
		&fakeDocumentRepo{},
		&fakeSequencer{},
		&fakeOutboxRepo{},
		events.NewEventFactory("/billing-service-test"),
		&fakeTxnRunner{},
		nil,
		metrics.New(metrics.DefaultConfig("handler-test")),
		testLogger(),
		0.01,
	)
	return NewDriverPaymentHandler(service, testLogger())
}

func deliveredShipments() map[string]*domain.Shipment {
	return map[string]*domain.Shipment{
		"shp-1": {ID: "shp-1", DriverID: "drv-1", Status: domain.ShipmentStatusDelivered},
		"shp-2": {ID: "shp-2", DriverID: "drv-1", Status: domain.ShipmentStatusInTransit},
	}
}

func TestDriverPaymentHandlerCreatePayment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newDriverPaymentHandler(&fakeShipmentRepo{shipments: deliveredShipments()})
	router.POST("/api/v1/driver-payments", handler.CreatePayment)

	rec := makeRequest(router, http.MethodPost, "/api/v1/driver-payments", map[string]interface{}{
		"driverId": "drv-1",
		"transactions": []map[string]interface{}{
			{"shipmentId": "shp-1", "amount": 1000},
		},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data application.DriverPaymentDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1000.0, resp.Data.SubTotal)
	assert.Equal(t, 10.0, resp.Data.Tax)
	assert.Equal(t, 990.0, resp.Data.NetTotal)
}

func TestDriverPaymentHandlerCreatePaymentRejections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newDriverPaymentHandler(&fakeShipmentRepo{shipments: deliveredShipments()})
	router.POST("/api/v1/driver-payments", handler.CreatePayment)

	// unknown shipment
	rec := makeRequest(router, http.MethodPost, "/api/v1/driver-payments", map[string]interface{}{
		"driverId": "drv-1",
		"transactions": []map[string]interface{}{
			{"shipmentId": "shp-404", "amount": 1000},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// shipment not yet delivered
	rec = makeRequest(router, http.MethodPost, "/api/v1/driver-payments", map[string]interface{}{
		"driverId": "drv-1",
		"transactions": []map[string]interface{}{
			{"shipmentId": "shp-2", "amount": 500},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// transactions required
	rec = makeRequest(router, http.MethodPost, "/api/v1/driver-payments", map[string]interface{}{
		"driverId":     "drv-1",
		"transactions": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDriverPaymentHandlerGetPaymentNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newDriverPaymentHandler(&fakeShipmentRepo{shipments: deliveredShipments()})
	router.GET("/api/v1/driver-payments/:paymentId", handler.GetPayment)

	rec := makeRequest(router, http.MethodGet, "/api/v1/driver-payments/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDriverPaymentHandlerListPayments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newDriverPaymentHandler(&fakeShipmentRepo{shipments: deliveredShipments()})
	router.POST("/api/v1/driver-payments", handler.CreatePayment)
	router.GET("/api/v1/drivers/:driverId/payments", handler.ListPayments)

	rec := makeRequest(router, http.MethodPost, "/api/v1/driver-payments", map[string]interface{}{
		"driverId": "drv-1",
		"transactions": []map[string]interface{}{
			{"shipmentId": "shp-1", "amount": 1000},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/drivers/drv-1/payments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp application.DriverPaymentListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}
