package domain

import (
	"math"
	"time"
)

// DiscountUnit distinguishes fixed-currency discounts from percentage
// discounts.
type DiscountUnit string

const (
	DiscountUnitCurrency   DiscountUnit = "CURRENCY"
	DiscountUnitPercentage DiscountUnit = "PERCENTAGE"
)

// DiscountStatus represents the administrative state of a discount code.
type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "active"
	DiscountStatusInactive DiscountStatus = "inactive"
)

// Discount is a privilege code applied to a quotation subtotal.
type Discount struct {
	ID               string         `bson:"_id" json:"id"`
	Code             string         `bson:"code" json:"code"`
	Name             string         `bson:"name" json:"name"`
	DiscountNumber   float64        `bson:"discountNumber" json:"discountNumber"`
	Unit             DiscountUnit   `bson:"unit" json:"unit"`
	StartDate        *time.Time     `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate          *time.Time     `bson:"endDate,omitempty" json:"endDate,omitempty"`
	MinPrice         *float64       `bson:"minPrice,omitempty" json:"minPrice,omitempty"`
	MaxDiscountPrice *float64       `bson:"maxDiscountPrice,omitempty" json:"maxDiscountPrice,omitempty"`
	LimitAmount      *int64         `bson:"limitAmount,omitempty" json:"limitAmount,omitempty"`
	LimitPerUser     *int64         `bson:"limitPerUser,omitempty" json:"limitPerUser,omitempty"`
	Status           DiscountStatus `bson:"status" json:"status"`
	CreatedAt        time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// DiscountUsage carries the usage counters the resolution checks run against.
// The counters are read by the caller; resolution itself never mutates them.
type DiscountUsage struct {
	Total  int64
	ByUser int64
}

// Resolve runs the resolution checks in order: status, date window, minimum
// subtotal, global usage limit, per-user usage limit. The first failed check
// yields a DiscountInvalidError with its reason.
func (d *Discount) Resolve(now time.Time, subtotal float64, usage DiscountUsage) error {
	if d.Status != DiscountStatusActive {
		return &DiscountInvalidError{Code: d.Code, Reason: DiscountReasonInactive}
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return &DiscountInvalidError{Code: d.Code, Reason: DiscountReasonNotStarted}
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return &DiscountInvalidError{Code: d.Code, Reason: DiscountReasonExpired}
	}
	if d.MinPrice != nil && subtotal < *d.MinPrice {
		return &DiscountInvalidError{Code: d.Code, Reason: DiscountReasonBelowMin}
	}
	if d.LimitAmount != nil && usage.Total >= *d.LimitAmount {
		return &DiscountInvalidError{Code: d.Code, Reason: DiscountReasonLimitReached}
	}
	if d.LimitPerUser != nil && usage.ByUser >= *d.LimitPerUser {
		return &DiscountInvalidError{Code: d.Code, Reason: DiscountReasonUserLimit}
	}
	return nil
}

// Amount computes the discount amount against a subtotal. Currency discounts
// never exceed the subtotal; percentage discounts are capped by
// MaxDiscountPrice when set.
func (d *Discount) Amount(subtotal float64) float64 {
	switch d.Unit {
	case DiscountUnitCurrency:
		return math.Min(d.DiscountNumber, subtotal)
	case DiscountUnitPercentage:
		amount := subtotal * d.DiscountNumber / 100
		if d.MaxDiscountPrice != nil {
			amount = math.Min(amount, *d.MaxDiscountPrice)
		}
		return amount
	}
	return 0
}
