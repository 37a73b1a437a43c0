package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulmarket/billing-service/internal/domain"
)

func TestListShipmentsBuildsCriteria(t *testing.T) {
	var captured domain.ShipmentCriteria
	repo := &fakeShipmentRepo{
		listFn: func(_ context.Context, criteria domain.ShipmentCriteria) ([]domain.ShipmentListing, error) {
			captured = criteria
			return []domain.ShipmentListing{
				{ID: "shp-1", Status: domain.ShipmentStatusPending, StatusWeight: 0, VehicleName: "4-wheel truck"},
			}, nil
		},
	}
	service := NewShipmentService(repo, testLogger())

	customerID := "cus-1"
	customerName := "somchai"
	sortField := "pickupDate"
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	skip := int64(20)
	limit := int64(10)

	resp, err := service.ListShipments(context.Background(), ListShipmentsQuery{
		CustomerID:    &customerID,
		CustomerName:  &customerName,
		Statuses:      []string{"PENDING", "CONFIRMED"},
		PickupFrom:    &from,
		SortField:     &sortField,
		SortAscending: true,
		Skip:          &skip,
		Limit:         &limit,
	})

	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "shp-1", resp.Data[0].ID)
	assert.Equal(t, "4-wheel truck", resp.Data[0].VehicleName)

	assert.Equal(t, &customerID, captured.CustomerID)
	assert.Equal(t, &customerName, captured.CustomerName)
	assert.Equal(t, []domain.ShipmentStatus{domain.ShipmentStatusPending, domain.ShipmentStatusConfirmed}, captured.Statuses)
	assert.Equal(t, &from, captured.PickupFrom)
	require.Len(t, captured.Sort, 1)
	assert.Equal(t, "pickupDate", captured.Sort[0].Field)
	assert.True(t, captured.Sort[0].Ascending)
	assert.Equal(t, &skip, captured.Skip)
	assert.Equal(t, &limit, captured.Limit)
}

func TestListShipmentsNoCriteria(t *testing.T) {
	var captured domain.ShipmentCriteria
	repo := &fakeShipmentRepo{
		listFn: func(_ context.Context, criteria domain.ShipmentCriteria) ([]domain.ShipmentListing, error) {
			captured = criteria
			return nil, nil
		},
	}
	service := NewShipmentService(repo, testLogger())

	resp, err := service.ListShipments(context.Background(), ListShipmentsQuery{})

	require.NoError(t, err)
	assert.Empty(t, resp.Data)
	assert.Nil(t, captured.CustomerID)
	assert.Empty(t, captured.Statuses)
	assert.Empty(t, captured.Sort)
	assert.Nil(t, captured.Skip)
	assert.Nil(t, captured.Limit)
}
