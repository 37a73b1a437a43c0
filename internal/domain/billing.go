package domain

import (
	"time"

	"github.com/google/uuid"
)

// BillingState represents the lifecycle state of a Billing.
type BillingState string

const (
	BillingStateDraft         BillingState = "DRAFT"
	BillingStateIssued        BillingState = "ISSUED"
	BillingStatePartiallyPaid BillingState = "PARTIALLY_PAID"
	BillingStatePaid          BillingState = "PAID"
	BillingStateAdjusted      BillingState = "ADJUSTED"
	BillingStateCancelled     BillingState = "CANCELLED"
)

// AdjustmentType distinguishes debit (increase) from credit (decrease) notes.
type AdjustmentType string

const (
	AdjustmentTypeDebit  AdjustmentType = "debit"
	AdjustmentTypeCredit AdjustmentType = "credit"
)

// Amount groups the running totals of a Billing.
type Amount struct {
	SubTotal float64 `bson:"subTotal" json:"subTotal"`
	Tax      float64 `bson:"tax" json:"tax"`
	Total    float64 `bson:"total" json:"total"`
}

// Invoice is the single financial document issued for a Billing. Its number
// is assigned once and never changes, even across artifact regeneration.
type Invoice struct {
	InvoiceNumber string    `bson:"invoiceNumber" json:"invoiceNumber"`
	SubTotal      float64   `bson:"subTotal" json:"subTotal"`
	Tax           float64   `bson:"tax" json:"tax"`
	Total         float64   `bson:"total" json:"total"`
	IssuedAt      time.Time `bson:"issuedAt" json:"issuedAt"`
}

// Receipt confirms one payment event against a Billing. RefReceiptNumber
// links an advance receipt to its final counterpart.
type Receipt struct {
	ReceiptNumber    string    `bson:"receiptNumber" json:"receiptNumber"`
	ReceiptDate      time.Time `bson:"receiptDate" json:"receiptDate"`
	SubTotal         float64   `bson:"subTotal" json:"subTotal"`
	Tax              float64   `bson:"tax" json:"tax"`
	Total            float64   `bson:"total" json:"total"`
	RefReceiptNumber string    `bson:"refReceiptNumber,omitempty" json:"refReceiptNumber,omitempty"`
}

// AdjustmentItem is one corrected line on an adjustment note.
type AdjustmentItem struct {
	Description string  `bson:"description" json:"description"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// AdjustmentNote is a debit or credit correction issued after an Invoice.
// The original Invoice is never mutated.
type AdjustmentNote struct {
	AdjustmentNumber   string           `bson:"adjustmentNumber" json:"adjustmentNumber"`
	AdjustmentType     AdjustmentType   `bson:"adjustmentType" json:"adjustmentType"`
	Items              []AdjustmentItem `bson:"items" json:"items"`
	OriginalSubTotal   float64          `bson:"originalSubTotal" json:"originalSubTotal"`
	NewSubTotal        float64          `bson:"newSubTotal" json:"newSubTotal"`
	AdjustmentSubTotal float64          `bson:"adjustmentSubTotal" json:"adjustmentSubTotal"`
	TaxAmount          float64          `bson:"taxAmount" json:"taxAmount"`
	TotalAmount        float64          `bson:"totalAmount" json:"totalAmount"`
	Remarks            string           `bson:"remarks,omitempty" json:"remarks,omitempty"`
	PostedAt           time.Time        `bson:"postedAt" json:"postedAt"`
}

// Billing aggregates one or more shipments for invoicing and payment. It
// owns exactly one Invoice, 1..N Receipts and 0..N AdjustmentNotes, and is
// the aggregate root for the document state machine.
type Billing struct {
	ID              string           `bson:"_id" json:"id"`
	ShipmentIDs     []string         `bson:"shipmentIds" json:"shipmentIds"`
	PaymentMethod   PaymentMethod    `bson:"paymentMethod" json:"paymentMethod"`
	CashDetail      *CashDetail      `bson:"cashDetail,omitempty" json:"cashDetail,omitempty"`
	CreditDetail    *CreditDetail    `bson:"creditDetail,omitempty" json:"creditDetail,omitempty"`
	QuotationRef    string           `bson:"quotationRef" json:"quotationRef"`
	Invoice         *Invoice         `bson:"invoice,omitempty" json:"invoice,omitempty"`
	Receipts        []Receipt        `bson:"receipts" json:"receipts"`
	AdjustmentNotes []AdjustmentNote `bson:"adjustmentNotes" json:"adjustmentNotes"`
	Amount          Amount           `bson:"amount" json:"amount"`
	State           BillingState     `bson:"state" json:"state"`
	CreatedAt       time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time        `bson:"updatedAt" json:"updatedAt"`

	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// OpenBilling creates a Billing in DRAFT for a batch of shipments.
func OpenBilling(shipmentIDs []string, detail PaymentDetail, quotationRef string, amount Amount) (*Billing, error) {
	if len(shipmentIDs) == 0 {
		return nil, ErrNoShipments
	}
	if detail == nil {
		return nil, ErrInvalidPaymentMethod
	}
	if amount.SubTotal < 0 || amount.Tax < 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	b := &Billing{
		ID:              uuid.New().String(),
		ShipmentIDs:     shipmentIDs,
		PaymentMethod:   detail.Method(),
		QuotationRef:    quotationRef,
		Receipts:        make([]Receipt, 0),
		AdjustmentNotes: make([]AdjustmentNote, 0),
		Amount:          amount,
		State:           BillingStateDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
		domainEvents:    make([]DomainEvent, 0),
	}

	switch d := detail.(type) {
	case CashDetail:
		b.CashDetail = &d
	case CreditDetail:
		b.CreditDetail = &d
	}

	b.addDomainEvent(&BillingOpenedEvent{
		BillingID:     b.ID,
		ShipmentIDs:   shipmentIDs,
		PaymentMethod: string(b.PaymentMethod),
		SubTotal:      amount.SubTotal,
		OpenedAt:      now,
	})

	return b, nil
}

// PaymentDetail resolves the tagged payment detail stored on the Billing.
func (b *Billing) PaymentDetail() PaymentDetail {
	if b.CreditDetail != nil {
		return *b.CreditDetail
	}
	if b.CashDetail != nil {
		return *b.CashDetail
	}
	return CashDetail{}
}

// IssueInvoice transitions DRAFT to ISSUED and binds the invoice number.
// Calling it on an already-issued Billing returns the existing Invoice
// unchanged, so concurrent or retried issuance never assigns a second
// number.
func (b *Billing) IssueInvoice(invoiceNumber string, now time.Time) (*Invoice, error) {
	if b.State == BillingStateCancelled {
		return nil, ErrBillingCancelled
	}
	if b.Invoice != nil {
		return b.Invoice, nil
	}
	if b.State != BillingStateDraft {
		return nil, ErrBillingNotIssued
	}

	b.Invoice = &Invoice{
		InvoiceNumber: invoiceNumber,
		SubTotal:      b.Amount.SubTotal,
		Tax:           b.Amount.Tax,
		Total:         b.Amount.Total,
		IssuedAt:      now,
	}
	b.State = BillingStateIssued
	b.UpdatedAt = now

	b.addDomainEvent(&InvoiceIssuedEvent{
		BillingID:     b.ID,
		InvoiceNumber: invoiceNumber,
		SubTotal:      b.Invoice.SubTotal,
		IssuedAt:      now,
	})

	return b.Invoice, nil
}

// PaidSubTotal returns the cumulative subtotal across all receipts.
func (b *Billing) PaidSubTotal() float64 {
	var sum float64
	for _, r := range b.Receipts {
		sum += r.SubTotal
	}
	return sum
}

// Outstanding returns the balance still owed:
// invoice subtotal plus adjustments minus receipts.
func (b *Billing) Outstanding() float64 {
	if b.Invoice == nil {
		return 0
	}
	outstanding := b.Invoice.SubTotal
	for _, n := range b.AdjustmentNotes {
		outstanding += n.AdjustmentSubTotal
	}
	return outstanding - b.PaidSubTotal()
}

// RecordReceipt appends a Receipt for a confirmed payment event. The state
// moves to PAID when the cumulative receipt subtotal reaches the invoice
// subtotal, otherwise to PARTIALLY_PAID.
func (b *Billing) RecordReceipt(receiptNumber string, subTotal, tax float64, refReceiptNumber string, now time.Time) (*Receipt, error) {
	if b.State != BillingStateIssued && b.State != BillingStatePartiallyPaid {
		return nil, ErrReceiptNotAllowed
	}
	if subTotal < 0 || tax < 0 {
		return nil, ErrInvalidAmount
	}

	receipt := Receipt{
		ReceiptNumber:    receiptNumber,
		ReceiptDate:      now,
		SubTotal:         subTotal,
		Tax:              tax,
		Total:            subTotal + tax,
		RefReceiptNumber: refReceiptNumber,
	}
	b.Receipts = append(b.Receipts, receipt)

	if b.PaidSubTotal() >= b.Invoice.SubTotal {
		b.State = BillingStatePaid
	} else {
		b.State = BillingStatePartiallyPaid
	}
	b.UpdatedAt = now

	b.addDomainEvent(&ReceiptRecordedEvent{
		BillingID:     b.ID,
		ReceiptNumber: receiptNumber,
		SubTotal:      subTotal,
		Outstanding:   b.Outstanding(),
		State:         string(b.State),
		RecordedAt:    now,
	})

	return &b.Receipts[len(b.Receipts)-1], nil
}

// PostAdjustment appends an AdjustmentNote correcting the billed amount
// without mutating the original Invoice. The note's sign determines debit
// vs credit; the Billing moves to ADJUSTED. Notes accumulate: a later note
// corrects the subtotal the previous notes arrived at, so the adjustment
// subtotals stay summable when recomputing the outstanding balance.
func (b *Billing) PostAdjustment(adjustmentNumber string, newSubTotal float64, taxRate float64, items []AdjustmentItem, remarks string, now time.Time) (*AdjustmentNote, error) {
	if b.State != BillingStatePaid && b.State != BillingStatePartiallyPaid && b.State != BillingStateAdjusted {
		return nil, ErrAdjustmentNotAllowed
	}
	if newSubTotal < 0 {
		return nil, ErrInvalidAmount
	}

	originalSubTotal := b.Invoice.SubTotal
	for _, n := range b.AdjustmentNotes {
		originalSubTotal += n.AdjustmentSubTotal
	}
	adjustmentSubTotal := newSubTotal - originalSubTotal

	adjustmentType := AdjustmentTypeDebit
	if adjustmentSubTotal < 0 {
		adjustmentType = AdjustmentTypeCredit
	}

	taxAmount := adjustmentSubTotal * taxRate
	note := AdjustmentNote{
		AdjustmentNumber:   adjustmentNumber,
		AdjustmentType:     adjustmentType,
		Items:              items,
		OriginalSubTotal:   originalSubTotal,
		NewSubTotal:        newSubTotal,
		AdjustmentSubTotal: adjustmentSubTotal,
		TaxAmount:          taxAmount,
		TotalAmount:        adjustmentSubTotal + taxAmount,
		Remarks:            remarks,
		PostedAt:           now,
	}
	b.AdjustmentNotes = append(b.AdjustmentNotes, note)
	b.State = BillingStateAdjusted
	b.UpdatedAt = now

	b.addDomainEvent(&BillingAdjustedEvent{
		BillingID:          b.ID,
		AdjustmentNumber:   adjustmentNumber,
		OriginalSubTotal:   originalSubTotal,
		NewSubTotal:        newSubTotal,
		AdjustmentSubTotal: adjustmentSubTotal,
		PostedAt:           now,
	})

	return &b.AdjustmentNotes[len(b.AdjustmentNotes)-1], nil
}

// Cancel is the only terminal escape before any Receipt exists. A Billing
// with recorded receipts can never be cancelled.
func (b *Billing) Cancel(reason string, now time.Time) error {
	if len(b.Receipts) > 0 {
		return ErrBillingHasReceipts
	}
	if b.State != BillingStateDraft {
		return ErrBillingNotCancelable
	}

	b.State = BillingStateCancelled
	b.UpdatedAt = now

	b.addDomainEvent(&BillingCancelledEvent{
		BillingID:   b.ID,
		Reason:      reason,
		CancelledAt: now,
	})

	return nil
}

func (b *Billing) addDomainEvent(event DomainEvent) {
	b.domainEvents = append(b.domainEvents, event)
}

// DomainEvents returns all pending domain events
func (b *Billing) DomainEvents() []DomainEvent {
	return b.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (b *Billing) ClearDomainEvents() {
	b.domainEvents = make([]DomainEvent, 0)
}
