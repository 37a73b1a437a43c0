package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for billing domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new CloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	event := &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
) *CloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	return event
}

// CreateInvoiceIssuedEvent creates an InvoiceIssued event
func (f *EventFactory) CreateInvoiceIssuedEvent(
	ctx context.Context,
	billingID string,
	shipmentID string,
	invoiceNumber string,
	subTotal float64,
	issuedAt time.Time,
) *CloudEvent {
	data := InvoiceIssuedData{
		BillingID:     billingID,
		ShipmentID:    shipmentID,
		InvoiceNumber: invoiceNumber,
		SubTotal:      subTotal,
		IssuedAt:      issuedAt,
	}
	event := f.CreateEvent(ctx, InvoiceIssued, "billing/"+billingID, data)
	event.BillingID = billingID
	event.ShipmentID = shipmentID
	return event
}

// CreateReceiptRecordedEvent creates a ReceiptRecorded event
func (f *EventFactory) CreateReceiptRecordedEvent(
	ctx context.Context,
	billingID string,
	receiptNumber string,
	subTotal float64,
	outstanding float64,
	status string,
) *CloudEvent {
	data := ReceiptRecordedData{
		BillingID:     billingID,
		ReceiptNumber: receiptNumber,
		SubTotal:      subTotal,
		Outstanding:   outstanding,
		Status:        status,
	}
	event := f.CreateEvent(ctx, ReceiptRecorded, "billing/"+billingID, data)
	event.BillingID = billingID
	return event
}

// CreateBillingAdjustedEvent creates a BillingAdjusted event
func (f *EventFactory) CreateBillingAdjustedEvent(
	ctx context.Context,
	billingID string,
	adjustmentNumber string,
	originalSubTotal float64,
	newSubTotal float64,
) *CloudEvent {
	data := BillingAdjustedData{
		BillingID:          billingID,
		AdjustmentNumber:   adjustmentNumber,
		OriginalSubTotal:   originalSubTotal,
		NewSubTotal:        newSubTotal,
		AdjustmentSubTotal: newSubTotal - originalSubTotal,
	}
	event := f.CreateEvent(ctx, BillingAdjusted, "billing/"+billingID, data)
	event.BillingID = billingID
	return event
}

// CreateBillingCancelledEvent creates a BillingCancelled event
func (f *EventFactory) CreateBillingCancelledEvent(
	ctx context.Context,
	billingID string,
	shipmentID string,
	reason string,
) *CloudEvent {
	data := BillingCancelledData{
		BillingID:  billingID,
		ShipmentID: shipmentID,
		Reason:     reason,
	}
	event := f.CreateEvent(ctx, BillingCancelled, "billing/"+billingID, data)
	event.BillingID = billingID
	event.ShipmentID = shipmentID
	return event
}

// CreateDriverPaymentIssuedEvent creates a DriverPaymentIssued event
func (f *EventFactory) CreateDriverPaymentIssuedEvent(
	ctx context.Context,
	paymentID string,
	shipmentID string,
	driverID string,
	paymentNumber string,
	whtNumber string,
	netTotal float64,
	tax float64,
) *CloudEvent {
	data := DriverPaymentIssuedData{
		PaymentID:     paymentID,
		ShipmentID:    shipmentID,
		DriverID:      driverID,
		PaymentNumber: paymentNumber,
		WHTNumber:     whtNumber,
		NetTotal:      netTotal,
		Tax:           tax,
	}
	event := f.CreateEvent(ctx, DriverPaymentIssued, "payment/"+paymentID, data)
	event.ShipmentID = shipmentID
	return event
}

// CreateDocumentRegisteredEvent creates a DocumentRegistered event
func (f *EventFactory) CreateDocumentRegisteredEvent(
	ctx context.Context,
	documentID string,
	ownerRef string,
	documentType string,
	fileURL string,
	regenerated bool,
) *CloudEvent {
	data := DocumentRegisteredData{
		DocumentID:   documentID,
		OwnerRef:     ownerRef,
		DocumentType: documentType,
		FileURL:      fileURL,
	}
	eventType := DocumentRegistered
	if regenerated {
		eventType = DocumentRegenerated
	}
	return f.CreateEvent(ctx, eventType, "document/"+documentID, data)
}
