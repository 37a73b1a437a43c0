package domain

import "time"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BillingOpenedEvent is emitted when a billing is opened in draft
type BillingOpenedEvent struct {
	BillingID     string    `json:"billingId"`
	ShipmentIDs   []string  `json:"shipmentIds"`
	PaymentMethod string    `json:"paymentMethod"`
	SubTotal      float64   `json:"subTotal"`
	OpenedAt      time.Time `json:"openedAt"`
}

func (e *BillingOpenedEvent) EventType() string     { return "billing.opened" }
func (e *BillingOpenedEvent) OccurredAt() time.Time { return e.OpenedAt }

// InvoiceIssuedEvent is emitted when an invoice number is bound to a billing
type InvoiceIssuedEvent struct {
	BillingID     string    `json:"billingId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	SubTotal      float64   `json:"subTotal"`
	IssuedAt      time.Time `json:"issuedAt"`
}

func (e *InvoiceIssuedEvent) EventType() string     { return "billing.invoice.issued" }
func (e *InvoiceIssuedEvent) OccurredAt() time.Time { return e.IssuedAt }

// ReceiptRecordedEvent is emitted on each confirmed payment event
type ReceiptRecordedEvent struct {
	BillingID     string    `json:"billingId"`
	ReceiptNumber string    `json:"receiptNumber"`
	SubTotal      float64   `json:"subTotal"`
	Outstanding   float64   `json:"outstanding"`
	State         string    `json:"state"`
	RecordedAt    time.Time `json:"recordedAt"`
}

func (e *ReceiptRecordedEvent) EventType() string     { return "billing.receipt.recorded" }
func (e *ReceiptRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// BillingAdjustedEvent is emitted when an adjustment note is posted
type BillingAdjustedEvent struct {
	BillingID          string    `json:"billingId"`
	AdjustmentNumber   string    `json:"adjustmentNumber"`
	OriginalSubTotal   float64   `json:"originalSubTotal"`
	NewSubTotal        float64   `json:"newSubTotal"`
	AdjustmentSubTotal float64   `json:"adjustmentSubTotal"`
	PostedAt           time.Time `json:"postedAt"`
}

func (e *BillingAdjustedEvent) EventType() string     { return "billing.adjusted" }
func (e *BillingAdjustedEvent) OccurredAt() time.Time { return e.PostedAt }

// BillingCancelledEvent is emitted when a draft billing is cancelled
type BillingCancelledEvent struct {
	BillingID   string    `json:"billingId"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *BillingCancelledEvent) EventType() string     { return "billing.cancelled" }
func (e *BillingCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// DriverPaymentIssuedEvent is emitted when a driver payout is issued
type DriverPaymentIssuedEvent struct {
	PaymentID     string    `json:"paymentId"`
	DriverID      string    `json:"driverId"`
	PaymentNumber string    `json:"paymentNumber"`
	NetTotal      float64   `json:"netTotal"`
	Tax           float64   `json:"tax"`
	IssuedAt      time.Time `json:"issuedAt"`
}

func (e *DriverPaymentIssuedEvent) EventType() string     { return "billing.driver-payment.issued" }
func (e *DriverPaymentIssuedEvent) OccurredAt() time.Time { return e.IssuedAt }
