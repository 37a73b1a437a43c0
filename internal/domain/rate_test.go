package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRateCard() *RateCard {
	return &RateCard{
		ID:            "rate-4wheel",
		VehicleTypeID: "4WHEEL",
		Tiers: []DistanceTier{
			{From: 0, To: 10, Unit: "km", Cost: 100, Price: 150},
			{From: 10, To: 20, Unit: "km", Cost: 120, Price: 180},
			{From: 20, To: 50, Unit: "km", Cost: 150, Price: 220},
		},
	}
}

// TestTierFor tests distance tier resolution
func TestTierFor(t *testing.T) {
	card := testRateCard()

	tests := []struct {
		name      string
		distance  float64
		wantCost  float64
		wantPrice float64
		wantErr   error
	}{
		{name: "Within first tier", distance: 5, wantCost: 100, wantPrice: 150},
		{name: "Within second tier", distance: 12, wantCost: 120, wantPrice: 180},
		{name: "Lower bound of first tier", distance: 0, wantCost: 100, wantPrice: 150},
		{name: "Shared boundary resolves to lower tier", distance: 10, wantCost: 100, wantPrice: 150},
		{name: "Upper bound of last tier", distance: 50, wantCost: 150, wantPrice: 220},
		{name: "Beyond last tier", distance: 51, wantErr: ErrRateNotFound},
		{name: "Negative distance", distance: -1, wantErr: ErrRateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, err := card.TierFor(tt.distance)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tier)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, tier.Cost)
			assert.Equal(t, tt.wantPrice, tier.Price)
		})
	}
}

// TestTierForBoundaryDeterminism verifies repeated calls at a shared tier
// boundary resolve to the same tier every time.
func TestTierForBoundaryDeterminism(t *testing.T) {
	card := testRateCard()

	first, err := card.TierFor(10)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		tier, err := card.TierFor(10)
		require.NoError(t, err)
		assert.Equal(t, first, tier)
	}
}

// TestTierForGap verifies a configuration gap fails instead of defaulting
func TestTierForGap(t *testing.T) {
	card := &RateCard{
		VehicleTypeID: "6WHEEL",
		Tiers: []DistanceTier{
			{From: 0, To: 10, Cost: 100, Price: 150},
			{From: 15, To: 20, Cost: 120, Price: 180},
		},
	}

	tier, err := card.TierFor(12)
	assert.ErrorIs(t, err, ErrRateNotFound)
	assert.Nil(t, tier)
}

// TestServiceRateAmounts tests currency and percent amount resolution
func TestServiceRateAmounts(t *testing.T) {
	tests := []struct {
		name          string
		rate          AdditionalServiceRate
		shippingPrice float64
		wantPrice     float64
		wantCost      float64
	}{
		{
			name:          "Currency rate is a fixed amount",
			rate:          AdditionalServiceRate{Cost: 30, Price: 50, AmountType: AmountTypeCurrency},
			shippingPrice: 180,
			wantPrice:     50,
			wantCost:      30,
		},
		{
			name:          "Percent rate computes against shipping price",
			rate:          AdditionalServiceRate{Cost: 10, Price: 20, AmountType: AmountTypePercent},
			shippingPrice: 180,
			wantPrice:     36,
			wantCost:      18,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantPrice, tt.rate.PriceAmount(tt.shippingPrice), 1e-9)
			assert.InDelta(t, tt.wantCost, tt.rate.CostAmount(tt.shippingPrice), 1e-9)
		})
	}
}
