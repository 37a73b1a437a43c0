package domain

import (
	"time"

	"github.com/google/uuid"
)

// LineAmount is one priced or costed service line on a quotation.
type LineAmount struct {
	ServiceRef string  `bson:"serviceRef" json:"serviceRef"`
	Name       string  `bson:"name" json:"name"`
	Amount     float64 `bson:"amount" json:"amount"`
}

// Price is the customer-facing side of a quotation.
type Price struct {
	Shipping float64      `bson:"shipping" json:"shipping"`
	Services []LineAmount `bson:"services" json:"services"`
	Discount float64      `bson:"discount" json:"discount"`
	Tax      float64      `bson:"tax" json:"tax"`
	SubTotal float64      `bson:"subTotal" json:"subTotal"`
	Total    float64      `bson:"total" json:"total"`
}

// Cost mirrors Price for internal margin tracking. It carries no
// customer-facing discount and no tax.
type Cost struct {
	Shipping float64      `bson:"shipping" json:"shipping"`
	Services []LineAmount `bson:"services" json:"services"`
	SubTotal float64      `bson:"subTotal" json:"subTotal"`
	Total    float64      `bson:"total" json:"total"`
}

// QuotationInput carries the booking fields that drive a calculation.
type QuotationInput struct {
	VehicleTypeID  string        `bson:"vehicleTypeId" json:"vehicleTypeId"`
	Distance       float64       `bson:"distance" json:"distance"`
	ReturnDistance float64       `bson:"returnDistance" json:"returnDistance"`
	IsRounded      bool          `bson:"isRounded" json:"isRounded"`
	DropPoint      int           `bson:"dropPoint" json:"dropPoint"`
	ServiceIDs     []string      `bson:"serviceIds" json:"serviceIds"`
	DiscountCode   string        `bson:"discountCode,omitempty" json:"discountCode,omitempty"`
	UserID         string        `bson:"userId,omitempty" json:"userId,omitempty"`
	PaymentMethod  PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
}

// DisplayDistance is the distance shown to the customer: the outbound leg
// plus the return leg on round-trip bookings.
func (in QuotationInput) DisplayDistance() float64 {
	if in.IsRounded {
		return in.Distance + in.ReturnDistance
	}
	return in.Distance
}

// Quotation is the persisted result of one calculation.
type Quotation struct {
	ID           string         `bson:"_id" json:"id"`
	Input        QuotationInput `bson:"input" json:"input"`
	Price        Price          `bson:"price" json:"price"`
	Cost         Cost           `bson:"cost" json:"cost"`
	DiscountCode string         `bson:"discountCode,omitempty" json:"discountCode,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
}

// QuotationCalculator combines rate lookups, additional services and a
// resolved discount into a priced and costed quotation. It holds no mutable
// state and performs no I/O, so calls may run with unbounded concurrency and
// are safe to retry.
type QuotationCalculator struct {
	vatRate           float64
	roundedServiceRef string
}

// NewQuotationCalculator creates a calculator. vatRate is a fraction
// (0.07 for 7%); roundedServiceRef names the additional service applied for
// round-trip bookings.
func NewQuotationCalculator(vatRate float64, roundedServiceRef string) *QuotationCalculator {
	return &QuotationCalculator{
		vatRate:           vatRate,
		roundedServiceRef: roundedServiceRef,
	}
}

// RoundedServiceRef returns the service ref applied for round-trip bookings.
func (c *QuotationCalculator) RoundedServiceRef() string {
	return c.roundedServiceRef
}

// Calculate produces the Price/Cost pair for a booking. The discount must
// already be resolved by the caller; a nil discount applies no discount.
// Usage counters are incremented by the caller after the calculation is
// committed, never here.
func (c *QuotationCalculator) Calculate(
	card *RateCard,
	services map[string]*AdditionalServiceRate,
	discount *Discount,
	input QuotationInput,
) (*Quotation, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	tier, err := card.TierFor(input.Distance)
	if err != nil {
		return nil, err
	}

	price := Price{Shipping: tier.Price, Services: make([]LineAmount, 0)}
	cost := Cost{Shipping: tier.Cost, Services: make([]LineAmount, 0)}

	if input.IsRounded && c.roundedServiceRef != "" {
		if rate, ok := services[c.roundedServiceRef]; ok {
			price.Services = append(price.Services, LineAmount{
				ServiceRef: rate.ServiceRef,
				Name:       rate.Name,
				Amount:     rate.PriceAmount(price.Shipping),
			})
			cost.Services = append(cost.Services, LineAmount{
				ServiceRef: rate.ServiceRef,
				Name:       rate.Name,
				Amount:     rate.CostAmount(price.Shipping),
			})
		}
	}

	for _, serviceID := range input.ServiceIDs {
		rate, ok := services[serviceID]
		if !ok || !rate.Available {
			return nil, &ServiceUnavailableError{ServiceRef: serviceID}
		}
		price.Services = append(price.Services, LineAmount{
			ServiceRef: rate.ServiceRef,
			Name:       rate.Name,
			Amount:     rate.PriceAmount(price.Shipping),
		})
		cost.Services = append(cost.Services, LineAmount{
			ServiceRef: rate.ServiceRef,
			Name:       rate.Name,
			Amount:     rate.CostAmount(price.Shipping),
		})
	}

	subtotalBeforeDiscount := price.Shipping
	for _, line := range price.Services {
		subtotalBeforeDiscount += line.Amount
	}

	if discount != nil {
		price.Discount = discount.Amount(subtotalBeforeDiscount)
	}

	price.SubTotal = subtotalBeforeDiscount - price.Discount
	if price.SubTotal < 0 {
		price.SubTotal = 0
	}

	// VAT applies to credit billing only; cash settlements carry no tax.
	if input.PaymentMethod == PaymentMethodCredit {
		price.Tax = price.SubTotal * c.vatRate
	}
	price.Total = price.SubTotal + price.Tax

	cost.SubTotal = cost.Shipping
	for _, line := range cost.Services {
		cost.SubTotal += line.Amount
	}
	cost.Total = cost.SubTotal

	return &Quotation{
		ID:           uuid.New().String(),
		Input:        input,
		Price:        price,
		Cost:         cost,
		DiscountCode: input.DiscountCode,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
