package domain

// Withholding is the result of a withholding-tax computation.
type Withholding struct {
	SubTotal float64 `bson:"subTotal" json:"subTotal"`
	Tax      float64 `bson:"tax" json:"tax"`
	NetTotal float64 `bson:"netTotal" json:"netTotal"`
}

// Withhold computes the tax withheld at source from a payment. rate is a
// fraction (0.01 for 1%). NetTotal + Tax always equals SubTotal.
func Withhold(subtotal, rate float64) Withholding {
	tax := subtotal * rate
	return Withholding{
		SubTotal: subtotal,
		Tax:      tax,
		NetTotal: subtotal - tax,
	}
}
