package domain

import (
	"context"
	"time"
)

// NumberSequencer assigns document numbers. Next is a single atomic
// increment-and-read per document type; concurrent callers never observe the
// same number twice. All document numbering (invoice, receipt, adjustment,
// driver payment, WHT) goes through this one method.
type NumberSequencer interface {
	Next(ctx context.Context, documentType DocumentType) (string, error)
}

// RateCardRepository reads the distance-tier reference data.
type RateCardRepository interface {
	// FindByVehicleType retrieves the rate card for a vehicle type
	FindByVehicleType(ctx context.Context, vehicleTypeID string) (*RateCard, error)
}

// AdditionalServiceRepository reads the additional-service rate table.
type AdditionalServiceRepository interface {
	// FindByRefs retrieves service rates keyed by serviceRef
	FindByRefs(ctx context.Context, serviceRefs []string) (map[string]*AdditionalServiceRate, error)
}

// DiscountRepository reads discount codes and tracks their usage counters.
type DiscountRepository interface {
	// FindByCode retrieves a discount by code
	FindByCode(ctx context.Context, code string) (*Discount, error)

	// Usage returns the global and per-user usage counters for a code
	Usage(ctx context.Context, code, userID string) (DiscountUsage, error)

	// IncrementUsage records one application of a code by a user. Called by
	// the quotation flow after the calculation is committed, never during
	// resolution.
	IncrementUsage(ctx context.Context, code, userID string) error
}

// QuotationRepository persists calculation results.
type QuotationRepository interface {
	// Save persists a quotation
	Save(ctx context.Context, quotation *Quotation) error

	// FindByID retrieves a quotation by ID
	FindByID(ctx context.Context, id string) (*Quotation, error)
}

// BillingRepository persists the Billing aggregate.
type BillingRepository interface {
	// Save persists a new billing
	Save(ctx context.Context, billing *Billing) error

	// Update persists the current state of a billing
	Update(ctx context.Context, billing *Billing) error

	// FindByID retrieves a billing by ID
	FindByID(ctx context.Context, id string) (*Billing, error)

	// FindByShipmentID retrieves the billing referencing a shipment
	FindByShipmentID(ctx context.Context, shipmentID string) (*Billing, error)

	// List retrieves billings matching the filter
	List(ctx context.Context, filter BillingFilter, pagination Pagination) ([]*Billing, error)

	// Count returns total count matching filter
	Count(ctx context.Context, filter BillingFilter) (int64, error)
}

// BillingDocumentRepository is the idempotent artifact-pointer registry.
type BillingDocumentRepository interface {
	// Upsert creates the document record for ownerRef on first call and
	// updates its filename on every later call. At most one record ever
	// exists per owner.
	Upsert(ctx context.Context, ownerRef string, documentType DocumentType, filename string) (*BillingDocument, error)

	// FindByOwnerRef retrieves the document record for an owner
	FindByOwnerRef(ctx context.Context, ownerRef string) (*BillingDocument, error)

	// SetWHTReceivedDate records when a signed WHT certificate came back
	SetWHTReceivedDate(ctx context.Context, ownerRef string, receivedAt time.Time) error
}

// DriverPaymentRepository persists driver payouts.
type DriverPaymentRepository interface {
	// Save persists a driver payment
	Save(ctx context.Context, payment *DriverPayment) error

	// FindByID retrieves a driver payment by ID
	FindByID(ctx context.Context, id string) (*DriverPayment, error)

	// FindByDriverID retrieves payments for a driver
	FindByDriverID(ctx context.Context, driverID string, pagination Pagination) ([]*DriverPayment, error)
}

// ShipmentRepository persists shipments and serves the listing flows.
type ShipmentRepository interface {
	// Save persists a shipment
	Save(ctx context.Context, shipment *Shipment) error

	// Update persists the current state of a shipment
	Update(ctx context.Context, shipment *Shipment) error

	// FindByID retrieves a shipment by ID
	FindByID(ctx context.Context, id string) (*Shipment, error)

	// FindByIDs retrieves shipments by IDs
	FindByIDs(ctx context.Context, ids []string) ([]*Shipment, error)

	// List runs the compiled listing pipeline over shipments
	List(ctx context.Context, criteria ShipmentCriteria) ([]ShipmentListing, error)
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}

// BillingFilter represents filter options for querying billings
type BillingFilter struct {
	State         *BillingState
	PaymentMethod *PaymentMethod
	ShipmentID    *string
	InvoiceNumber *string
	FromDate      *time.Time
	ToDate        *time.Time
}

// SortField is one caller-supplied sort key for the listing pipeline.
type SortField struct {
	Field     string
	Ascending bool
}

// ShipmentCriteria carries the optional listing filters. A nil criterion
// contributes no pipeline stage at all.
type ShipmentCriteria struct {
	ShipmentID    *string
	CustomerID    *string
	DriverID      *string
	VehicleTypeID *string
	BillingID     *string
	Statuses      []ShipmentStatus
	PickupFrom    *time.Time
	PickupTo      *time.Time
	CustomerName  *string
	DriverName    *string
	Sort          []SortField
	Skip          *int64
	Limit         *int64
}

// ShipmentListing is one row of the listing pipeline output, with the
// reference-expanded and derived fields projected in.
type ShipmentListing struct {
	ID             string         `bson:"_id" json:"id"`
	Status         ShipmentStatus `bson:"status" json:"status"`
	StatusWeight   int            `bson:"statusWeight" json:"statusWeight"`
	Origin         string         `bson:"origin" json:"origin"`
	Destination    string         `bson:"destination" json:"destination"`
	Distance       float64        `bson:"distance" json:"distance"`
	PickupDate     time.Time      `bson:"pickupDate" json:"pickupDate"`
	CustomerName   string         `bson:"customerFullName,omitempty" json:"customerName,omitempty"`
	DriverName     string         `bson:"driverFullName,omitempty" json:"driverName,omitempty"`
	VehicleTypeID  string         `bson:"vehicleTypeId" json:"vehicleTypeId"`
	VehicleName    string         `bson:"vehicleName,omitempty" json:"vehicleName,omitempty"`
	BillingID      string         `bson:"billingId,omitempty" json:"billingId,omitempty"`
	BillingState   BillingState   `bson:"billingState,omitempty" json:"billingState,omitempty"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
}
