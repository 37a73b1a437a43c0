package events

import (
	"time"
)

// EventType constants for billing domain events
const (
	// Quotation events
	QuotationPriced = "marketplace.quotation.priced"

	// Billing lifecycle events
	BillingOpened   = "marketplace.billing.opened"
	InvoiceIssued   = "marketplace.billing.invoice-issued"
	ReceiptRecorded = "marketplace.billing.receipt-recorded"
	BillingPaid     = "marketplace.billing.paid"
	BillingAdjusted = "marketplace.billing.adjusted"
	BillingCancelled = "marketplace.billing.cancelled"

	// Driver payment events
	DriverPaymentIssued = "marketplace.payment.driver-payment-issued"

	// Document events
	DocumentRegistered  = "marketplace.document.registered"
	DocumentRegenerated = "marketplace.document.regenerated"
)

// Source constants for event sources
const (
	SourceBilling = "/marketplace/billing-service"
)

// CloudEvent represents a CloudEvents v1.0 compliant event
type CloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Marketplace extensions
	CorrelationID string `json:"correlationid,omitempty"`
	ShipmentID    string `json:"shipmentid,omitempty"`
	BillingID     string `json:"billingid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// QuotationPricedData represents the data payload for QuotationPriced
type QuotationPricedData struct {
	ShipmentID    string  `json:"shipmentId"`
	VehicleType   string  `json:"vehicleType"`
	Distance      float64 `json:"distance"`
	PaymentMethod string  `json:"paymentMethod"`
	SubTotal      float64 `json:"subTotal"`
	Total         float64 `json:"total"`
	DiscountCode  string  `json:"discountCode,omitempty"`
}

// InvoiceIssuedData represents the data payload for InvoiceIssued
type InvoiceIssuedData struct {
	BillingID     string  `json:"billingId"`
	ShipmentID    string  `json:"shipmentId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	SubTotal      float64 `json:"subTotal"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// ReceiptRecordedData represents the data payload for ReceiptRecorded
type ReceiptRecordedData struct {
	BillingID     string  `json:"billingId"`
	ReceiptNumber string  `json:"receiptNumber"`
	SubTotal      float64 `json:"subTotal"`
	Outstanding   float64 `json:"outstanding"`
	Status        string  `json:"status"`
}

// BillingAdjustedData represents the data payload for BillingAdjusted
type BillingAdjustedData struct {
	BillingID          string  `json:"billingId"`
	AdjustmentNumber   string  `json:"adjustmentNumber"`
	OriginalSubTotal   float64 `json:"originalSubTotal"`
	NewSubTotal        float64 `json:"newSubTotal"`
	AdjustmentSubTotal float64 `json:"adjustmentSubTotal"`
}

// BillingCancelledData represents the data payload for BillingCancelled
type BillingCancelledData struct {
	BillingID  string `json:"billingId"`
	ShipmentID string `json:"shipmentId"`
	Reason     string `json:"reason,omitempty"`
}

// DriverPaymentIssuedData represents the data payload for DriverPaymentIssued
type DriverPaymentIssuedData struct {
	PaymentID     string  `json:"paymentId"`
	ShipmentID    string  `json:"shipmentId"`
	DriverID      string  `json:"driverId"`
	PaymentNumber string  `json:"paymentNumber"`
	WHTNumber     string  `json:"whtNumber,omitempty"`
	NetTotal      float64 `json:"netTotal"`
	Tax           float64 `json:"tax"`
}

// DocumentRegisteredData represents the data payload for document events
type DocumentRegisteredData struct {
	DocumentID   string `json:"documentId"`
	OwnerRef     string `json:"ownerRef"`
	DocumentType string `json:"documentType"`
	FileURL      string `json:"fileUrl"`
}
