package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }
func int64Ptr(i int64) *int64        { return &i }

func activeDiscount() *Discount {
	return &Discount{
		ID:             "disc-1",
		Code:           "WELCOME100",
		Name:           "Welcome discount",
		DiscountNumber: 100,
		Unit:           DiscountUnitCurrency,
		Status:         DiscountStatusActive,
	}
}

// TestDiscountResolve tests the ordered resolution checks
func TestDiscountResolve(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		modify     func(d *Discount)
		subtotal   float64
		usage      DiscountUsage
		wantReason string
	}{
		{
			name:     "Active discount resolves",
			modify:   func(d *Discount) {},
			subtotal: 180,
		},
		{
			name:       "Inactive status fails first",
			modify:     func(d *Discount) { d.Status = DiscountStatusInactive },
			subtotal:   180,
			wantReason: DiscountReasonInactive,
		},
		{
			name:       "Not yet started",
			modify:     func(d *Discount) { d.StartDate = timePtr(now.Add(24 * time.Hour)) },
			subtotal:   180,
			wantReason: DiscountReasonNotStarted,
		},
		{
			name:       "Expired",
			modify:     func(d *Discount) { d.EndDate = timePtr(now.Add(-24 * time.Hour)) },
			subtotal:   180,
			wantReason: DiscountReasonExpired,
		},
		{
			name:       "Below minimum subtotal",
			modify:     func(d *Discount) { d.MinPrice = floatPtr(200) },
			subtotal:   180,
			wantReason: DiscountReasonBelowMin,
		},
		{
			name:     "Subtotal at minimum resolves",
			modify:   func(d *Discount) { d.MinPrice = floatPtr(180) },
			subtotal: 180,
		},
		{
			name:       "Global usage limit reached",
			modify:     func(d *Discount) { d.LimitAmount = int64Ptr(10) },
			subtotal:   180,
			usage:      DiscountUsage{Total: 10},
			wantReason: DiscountReasonLimitReached,
		},
		{
			name:       "Per-user usage limit reached",
			modify:     func(d *Discount) { d.LimitPerUser = int64Ptr(1) },
			subtotal:   180,
			usage:      DiscountUsage{ByUser: 1},
			wantReason: DiscountReasonUserLimit,
		},
		{
			name: "Inactive reported before expiry",
			modify: func(d *Discount) {
				d.Status = DiscountStatusInactive
				d.EndDate = timePtr(now.Add(-24 * time.Hour))
			},
			subtotal:   180,
			wantReason: DiscountReasonInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := activeDiscount()
			tt.modify(d)

			err := d.Resolve(now, tt.subtotal, tt.usage)

			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var invalid *DiscountInvalidError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantReason, invalid.Reason)
			assert.Equal(t, d.Code, invalid.Code)
		})
	}
}

// TestDiscountAmount tests currency and percentage amount calculation
func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		discount *Discount
		subtotal float64
		want     float64
	}{
		{
			name: "Currency discount below subtotal",
			discount: &Discount{
				Unit:           DiscountUnitCurrency,
				DiscountNumber: 100,
			},
			subtotal: 180,
			want:     100,
		},
		{
			name: "Currency discount clamped to subtotal",
			discount: &Discount{
				Unit:           DiscountUnitCurrency,
				DiscountNumber: 250,
			},
			subtotal: 180,
			want:     180,
		},
		{
			name: "Percentage discount",
			discount: &Discount{
				Unit:           DiscountUnitPercentage,
				DiscountNumber: 10,
			},
			subtotal: 180,
			want:     18,
		},
		{
			name: "Percentage discount capped by max discount price",
			discount: &Discount{
				Unit:             DiscountUnitPercentage,
				DiscountNumber:   50,
				MaxDiscountPrice: floatPtr(40),
			},
			subtotal: 180,
			want:     40,
		},
		{
			name: "Percentage cap above computed amount has no effect",
			discount: &Discount{
				Unit:             DiscountUnitPercentage,
				DiscountNumber:   10,
				MaxDiscountPrice: floatPtr(40),
			},
			subtotal: 180,
			want:     18,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.discount.Amount(tt.subtotal), 1e-9)
		})
	}
}
