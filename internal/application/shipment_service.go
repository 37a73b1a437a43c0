package application

import (
	"context"
	"fmt"

	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/logging"
)

// ShipmentService serves the back-office shipment listing flows
type ShipmentService struct {
	shipmentRepo domain.ShipmentRepository
	logger       *logging.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(shipmentRepo domain.ShipmentRepository, logger *logging.Logger) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		logger:       logger,
	}
}

// ListShipments runs the listing pipeline over shipments. Absent criteria
// contribute no filtering at all; without a caller sort, open work surfaces
// first by status weight, newest pickups first within a status.
func (s *ShipmentService) ListShipments(ctx context.Context, query ListShipmentsQuery) (*ShipmentListResponse, error) {
	criteria := domain.ShipmentCriteria{
		ShipmentID:    query.ShipmentID,
		CustomerID:    query.CustomerID,
		DriverID:      query.DriverID,
		VehicleTypeID: query.VehicleTypeID,
		BillingID:     query.BillingID,
		PickupFrom:    query.PickupFrom,
		PickupTo:      query.PickupTo,
		CustomerName:  query.CustomerName,
		DriverName:    query.DriverName,
		Skip:          query.Skip,
		Limit:         query.Limit,
	}

	for _, status := range query.Statuses {
		criteria.Statuses = append(criteria.Statuses, domain.ShipmentStatus(status))
	}
	if query.SortField != nil && *query.SortField != "" {
		criteria.Sort = []domain.SortField{{Field: *query.SortField, Ascending: query.SortAscending}}
	}

	listings, err := s.shipmentRepo.List(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}

	dtos := make([]ShipmentListingDTO, len(listings))
	for i, l := range listings {
		dtos[i] = ToShipmentListingDTO(l)
	}

	return &ShipmentListResponse{Data: dtos}, nil
}
