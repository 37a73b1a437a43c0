package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/internal/domain"
)

type fakeShipmentRepo struct {
	shipments map[string]*domain.Shipment
	listFn    func(context.Context, domain.ShipmentCriteria) ([]domain.ShipmentListing, error)
}

func (f *fakeShipmentRepo) Save(ctx context.Context, shipment *domain.Shipment) error { return nil }

func (f *fakeShipmentRepo) Update(ctx context.Context, shipment *domain.Shipment) error { return nil }

func (f *fakeShipmentRepo) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return f.shipments[id], nil
}

func (f *fakeShipmentRepo) FindByIDs(ctx context.Context, ids []string) ([]*domain.Shipment, error) {
	var found []*domain.Shipment
	for _, id := range ids {
		if shipment, ok := f.shipments[id]; ok {
			found = append(found, shipment)
		}
	}
	return found, nil
}

func (f *fakeShipmentRepo) List(ctx context.Context, criteria domain.ShipmentCriteria) ([]domain.ShipmentListing, error) {
	if f.listFn != nil {
		return f.listFn(ctx, criteria)
	}
	return nil, nil
}

func TestShipmentHandlerListShipments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var captured domain.ShipmentCriteria
	repo := &fakeShipmentRepo{
		listFn: func(_ context.Context, criteria domain.ShipmentCriteria) ([]domain.ShipmentListing, error) {
			captured = criteria
			return []domain.ShipmentListing{{ID: "shp-1", Status: domain.ShipmentStatusDelivered}}, nil
		},
	}
	handler := NewShipmentHandler(application.NewShipmentService(repo, testLogger()), testLogger())
	router.GET("/api/v1/shipments", handler.ListShipments)

	rec := makeRequest(router, http.MethodGet,
		"/api/v1/shipments?driverId=drv-1&status=DELIVERED&status=IN_TRANSIT&customerName=somchai&sortBy=pickupDate&sortDir=asc&skip=20&limit=10", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, captured.DriverID)
	assert.Equal(t, "drv-1", *captured.DriverID)
	assert.Equal(t, []domain.ShipmentStatus{
		domain.ShipmentStatusDelivered,
		domain.ShipmentStatusInTransit,
	}, captured.Statuses)
	require.NotNil(t, captured.CustomerName)
	assert.Equal(t, "somchai", *captured.CustomerName)
	require.Len(t, captured.Sort, 1)
	assert.Equal(t, domain.SortField{Field: "pickupDate", Ascending: true}, captured.Sort[0])
	require.NotNil(t, captured.Skip)
	assert.Equal(t, int64(20), *captured.Skip)
	require.NotNil(t, captured.Limit)
	assert.Equal(t, int64(10), *captured.Limit)
}

func TestShipmentHandlerListShipmentsBadPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewShipmentHandler(application.NewShipmentService(&fakeShipmentRepo{}, testLogger()), testLogger())
	router.GET("/api/v1/shipments", handler.ListShipments)

	rec := makeRequest(router, http.MethodGet, "/api/v1/shipments?skip=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/shipments?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/shipments?pickupFrom=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
