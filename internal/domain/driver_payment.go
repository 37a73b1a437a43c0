package domain

import (
	"time"

	"github.com/google/uuid"
)

// DriverPaymentTransaction is one shipment payout line on a driver payment.
type DriverPaymentTransaction struct {
	ShipmentID  string  `bson:"shipmentId" json:"shipmentId"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// DriverPayment settles one or more completed shipments with a driver.
// Withholding tax is deducted at source: NetTotal + Tax == SubTotal.
type DriverPayment struct {
	ID            string                     `bson:"_id" json:"id"`
	DriverID      string                     `bson:"driverId" json:"driverId"`
	PaymentNumber string                     `bson:"paymentNumber" json:"paymentNumber"`
	Transactions  []DriverPaymentTransaction `bson:"transactions" json:"transactions"`
	SubTotal      float64                    `bson:"subTotal" json:"subTotal"`
	Tax           float64                    `bson:"tax" json:"tax"`
	NetTotal      float64                    `bson:"netTotal" json:"netTotal"`
	WHTRate       float64                    `bson:"whtRate" json:"whtRate"`
	WHTNumber     string                     `bson:"whtNumber,omitempty" json:"whtNumber,omitempty"`
	WHTBookNo     string                     `bson:"whtBookNo,omitempty" json:"whtBookNo,omitempty"`
	CreatedAt     time.Time                  `bson:"createdAt" json:"createdAt"`

	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewDriverPayment builds a payment over the given transactions, withholding
// tax at whtRate (a fraction, 0.01 for 1%).
func NewDriverPayment(
	driverID string,
	transactions []DriverPaymentTransaction,
	whtRate float64,
	paymentNumber, whtNumber, whtBookNo string,
) (*DriverPayment, error) {
	if len(transactions) == 0 {
		return nil, ErrNoTransactions
	}

	var subtotal float64
	for _, txn := range transactions {
		if txn.Amount < 0 {
			return nil, ErrInvalidAmount
		}
		subtotal += txn.Amount
	}

	withholding := Withhold(subtotal, whtRate)
	now := time.Now().UTC()

	p := &DriverPayment{
		ID:            uuid.New().String(),
		DriverID:      driverID,
		PaymentNumber: paymentNumber,
		Transactions:  transactions,
		SubTotal:      withholding.SubTotal,
		Tax:           withholding.Tax,
		NetTotal:      withholding.NetTotal,
		WHTRate:       whtRate,
		WHTNumber:     whtNumber,
		WHTBookNo:     whtBookNo,
		CreatedAt:     now,
		domainEvents:  make([]DomainEvent, 0),
	}

	p.domainEvents = append(p.domainEvents, &DriverPaymentIssuedEvent{
		PaymentID:     p.ID,
		DriverID:      driverID,
		PaymentNumber: paymentNumber,
		NetTotal:      p.NetTotal,
		Tax:           p.Tax,
		IssuedAt:      now,
	})

	return p, nil
}

// DomainEvents returns all pending domain events
func (p *DriverPayment) DomainEvents() []DomainEvent {
	return p.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (p *DriverPayment) ClearDomainEvents() {
	p.domainEvents = make([]DomainEvent, 0)
}
