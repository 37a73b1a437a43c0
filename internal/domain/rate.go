package domain

import (
	"time"
)

// DistanceTier is a configured [From, To] distance band with an associated
// cost and price. Bands for a vehicle type are ascending and non-overlapping.
type DistanceTier struct {
	From  float64 `bson:"from" json:"from"`
	To    float64 `bson:"to" json:"to"`
	Unit  string  `bson:"unit" json:"unit"`
	Cost  float64 `bson:"cost" json:"cost"`
	Price float64 `bson:"price" json:"price"`
}

// Contains reports whether the tier covers the distance, inclusive on both
// bounds.
func (t DistanceTier) Contains(distance float64) bool {
	return distance >= t.From && distance <= t.To
}

// RateCard holds the distance tiers for one vehicle type.
type RateCard struct {
	ID            string         `bson:"_id" json:"id"`
	VehicleTypeID string         `bson:"vehicleTypeId" json:"vehicleTypeId"`
	Tiers         []DistanceTier `bson:"tiers" json:"tiers"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// TierFor returns the tier whose range contains the distance. When tiers are
// contiguous the lower tier wins at a shared boundary, so repeated calls for
// the same distance always resolve to the same tier. A gap in the
// configuration is an error, never a silent zero rate.
func (rc *RateCard) TierFor(distance float64) (*DistanceTier, error) {
	for i := range rc.Tiers {
		if rc.Tiers[i].Contains(distance) {
			return &rc.Tiers[i], nil
		}
	}
	return nil, ErrRateNotFound
}

// AmountType distinguishes fixed-currency service rates from
// percentage-of-shipping rates.
type AmountType string

const (
	AmountTypeCurrency AmountType = "CURRENCY"
	AmountTypePercent  AmountType = "PERCENT"
)

// AdditionalServiceRate prices one optional service. Percent rates compute
// against the resolved shipping price, never against cost.
type AdditionalServiceRate struct {
	ID         string     `bson:"_id" json:"id"`
	ServiceRef string     `bson:"serviceRef" json:"serviceRef"`
	Name       string     `bson:"name" json:"name"`
	Cost       float64    `bson:"cost" json:"cost"`
	Price      float64    `bson:"price" json:"price"`
	AmountType AmountType `bson:"amountType" json:"amountType"`
	Available  bool       `bson:"available" json:"available"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// PriceAmount resolves the customer-facing amount for this service.
func (r *AdditionalServiceRate) PriceAmount(shippingPrice float64) float64 {
	if r.AmountType == AmountTypePercent {
		return shippingPrice * r.Price / 100
	}
	return r.Price
}

// CostAmount resolves the internal cost amount for this service.
func (r *AdditionalServiceRate) CostAmount(shippingPrice float64) float64 {
	if r.AmountType == AmountTypePercent {
		return shippingPrice * r.Cost / 100
	}
	return r.Cost
}
