package domain

// PaymentMethod distinguishes cash from credit billing.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCredit PaymentMethod = "CREDIT"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCredit
}

// PaymentDetail is the tagged union over the cash and credit payment shapes.
// The method is resolved exactly once, where payment details first enter the
// system; callers match on the concrete type instead of re-testing the
// method string.
type PaymentDetail interface {
	Method() PaymentMethod
}

// CashDetail carries the cash-specific payment fields.
type CashDetail struct {
	ReceivedAmount float64 `bson:"receivedAmount" json:"receivedAmount"`
	ReceivedBy     string  `bson:"receivedBy,omitempty" json:"receivedBy,omitempty"`
}

func (d CashDetail) Method() PaymentMethod { return PaymentMethodCash }

// CreditDetail carries the credit-billing payment fields. WHT certificates
// are only issued for credit settlements.
type CreditDetail struct {
	CompanyName    string `bson:"companyName" json:"companyName"`
	TaxID          string `bson:"taxId" json:"taxId"`
	BillingAddress string `bson:"billingAddress,omitempty" json:"billingAddress,omitempty"`
	CreditTermDays int    `bson:"creditTermDays" json:"creditTermDays"`
}

func (d CreditDetail) Method() PaymentMethod { return PaymentMethodCredit }

// NewPaymentDetail resolves the tagged union from a method plus the raw
// detail shapes. Exactly one of cash/credit must match the method.
func NewPaymentDetail(method PaymentMethod, cash *CashDetail, credit *CreditDetail) (PaymentDetail, error) {
	switch method {
	case PaymentMethodCash:
		if cash == nil {
			return CashDetail{}, nil
		}
		return *cash, nil
	case PaymentMethodCredit:
		if credit == nil {
			return nil, ErrInvalidPaymentMethod
		}
		return *credit, nil
	}
	return nil, ErrInvalidPaymentMethod
}
