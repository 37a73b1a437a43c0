package domain

import (
	"time"
)

// ShipmentStatus represents the delivery state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "PENDING"
	ShipmentStatusConfirmed ShipmentStatus = "CONFIRMED"
	ShipmentStatusInTransit ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
	ShipmentStatusCancelled ShipmentStatus = "CANCELLED"
)

// StatusWeight maps a status to its listing rank. Lower ranks list first;
// unlisted statuses get the highest rank so they always sort last.
var StatusWeight = map[ShipmentStatus]int{
	ShipmentStatusPending:   0,
	ShipmentStatusConfirmed: 1,
	ShipmentStatusInTransit: 2,
	ShipmentStatusDelivered: 3,
	ShipmentStatusCancelled: 4,
}

// StatusWeightDefault is the rank assigned to statuses not in StatusWeight.
const StatusWeightDefault = 5

// Shipment is the booking record the billing flows hang off. The customer,
// driver and vehicle fields are opaque references resolved at read time by
// the query planner.
type Shipment struct {
	ID             string         `bson:"_id" json:"id"`
	CustomerID     string         `bson:"customerId" json:"customerId"`
	DriverID       string         `bson:"driverId,omitempty" json:"driverId,omitempty"`
	VehicleTypeID  string         `bson:"vehicleTypeId" json:"vehicleTypeId"`
	Origin         string         `bson:"origin" json:"origin"`
	Destination    string         `bson:"destination" json:"destination"`
	Distance       float64        `bson:"distance" json:"distance"`
	ReturnDistance float64        `bson:"returnDistance,omitempty" json:"returnDistance,omitempty"`
	IsRounded      bool           `bson:"isRounded" json:"isRounded"`
	Status         ShipmentStatus `bson:"status" json:"status"`
	QuotationID    string         `bson:"quotationId,omitempty" json:"quotationId,omitempty"`
	BillingID      string         `bson:"billingId,omitempty" json:"billingId,omitempty"`
	PickupDate     time.Time      `bson:"pickupDate" json:"pickupDate"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Billable reports whether the shipment has reached a state that allows a
// Billing to be opened for it.
func (s *Shipment) Billable() bool {
	return s.Status == ShipmentStatusDelivered
}
