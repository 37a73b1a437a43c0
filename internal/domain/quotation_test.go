package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServiceRates() map[string]*AdditionalServiceRate {
	return map[string]*AdditionalServiceRate{
		"svc-labor": {
			ServiceRef: "svc-labor",
			Name:       "Extra labor",
			Cost:       30,
			Price:      50,
			AmountType: AmountTypeCurrency,
			Available:  true,
		},
		"svc-insurance": {
			ServiceRef: "svc-insurance",
			Name:       "Cargo insurance",
			Cost:       5,
			Price:      10,
			AmountType: AmountTypePercent,
			Available:  true,
		},
		"svc-retired": {
			ServiceRef: "svc-retired",
			Name:       "Retired service",
			Cost:       10,
			Price:      20,
			AmountType: AmountTypeCurrency,
			Available:  false,
		},
		"svc-rounded": {
			ServiceRef: "svc-rounded",
			Name:       "Round trip",
			Cost:       40,
			Price:      60,
			AmountType: AmountTypeCurrency,
			Available:  true,
		},
	}
}

// TestCalculateShippingOnly tests tier-based shipping price and cost
func TestCalculateShippingOnly(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "svc-rounded")

	quotation, err := calc.Calculate(testRateCard(), testServiceRates(), nil, QuotationInput{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		PaymentMethod: PaymentMethodCash,
	})

	require.NoError(t, err)
	assert.Equal(t, 180.0, quotation.Price.Shipping)
	assert.Equal(t, 120.0, quotation.Cost.Shipping)
	assert.Equal(t, 180.0, quotation.Price.SubTotal)
	assert.Equal(t, 0.0, quotation.Price.Tax)
	assert.Equal(t, 180.0, quotation.Price.Total)
	assert.Equal(t, 120.0, quotation.Cost.Total)
	assert.NotEmpty(t, quotation.ID)
}

// TestCalculateInvariants tests the pricing identities across inputs
func TestCalculateInvariants(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "svc-rounded")

	tests := []struct {
		name     string
		discount *Discount
		input    QuotationInput
	}{
		{
			name: "Cash with services",
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				ServiceIDs:    []string{"svc-labor", "svc-insurance"},
				PaymentMethod: PaymentMethodCash,
			},
		},
		{
			name: "Credit with services",
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				ServiceIDs:    []string{"svc-labor"},
				PaymentMethod: PaymentMethodCredit,
			},
		},
		{
			name: "Round trip credit with discount",
			discount: &Discount{
				Unit:           DiscountUnitPercentage,
				DiscountNumber: 10,
				Status:         DiscountStatusActive,
			},
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      5,
				IsRounded:     true,
				PaymentMethod: PaymentMethodCredit,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotation, err := calc.Calculate(testRateCard(), testServiceRates(), tt.discount, tt.input)
			require.NoError(t, err)

			lines := quotation.Price.Shipping
			for _, line := range quotation.Price.Services {
				lines += line.Amount
			}
			assert.InDelta(t, lines-quotation.Price.Discount, quotation.Price.SubTotal, 1e-9)
			assert.InDelta(t, quotation.Price.SubTotal+quotation.Price.Tax, quotation.Price.Total, 1e-9)

			costLines := quotation.Cost.Shipping
			for _, line := range quotation.Cost.Services {
				costLines += line.Amount
			}
			assert.InDelta(t, costLines, quotation.Cost.SubTotal, 1e-9)
			assert.Equal(t, quotation.Cost.SubTotal, quotation.Cost.Total)
		})
	}
}

// TestCalculateVATCreditOnly tests that tax applies to credit billing only
func TestCalculateVATCreditOnly(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "")

	tests := []struct {
		name    string
		method  PaymentMethod
		wantTax float64
	}{
		{name: "Cash carries no tax", method: PaymentMethodCash, wantTax: 0},
		{name: "Credit carries VAT", method: PaymentMethodCredit, wantTax: 180 * 0.07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotation, err := calc.Calculate(testRateCard(), testServiceRates(), nil, QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				PaymentMethod: tt.method,
			})
			require.NoError(t, err)
			assert.InDelta(t, tt.wantTax, quotation.Price.Tax, 1e-9)
			assert.InDelta(t, quotation.Price.SubTotal+tt.wantTax, quotation.Price.Total, 1e-9)
		})
	}
}

// TestCalculateDiscountAppliedOnce tests the discount hits the subtotal once
func TestCalculateDiscountAppliedOnce(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "")
	discount := &Discount{
		Unit:           DiscountUnitCurrency,
		DiscountNumber: 100,
		Status:         DiscountStatusActive,
	}

	quotation, err := calc.Calculate(testRateCard(), testServiceRates(), discount, QuotationInput{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		PaymentMethod: PaymentMethodCash,
	})

	require.NoError(t, err)
	assert.Equal(t, 100.0, quotation.Price.Discount)
	assert.Equal(t, 80.0, quotation.Price.SubTotal)
	assert.Equal(t, 80.0, quotation.Price.Total)
	// Cost side never sees the discount.
	assert.Equal(t, 120.0, quotation.Cost.SubTotal)
}

// TestCalculateSubTotalClamp tests that an oversized discount never drives
// the subtotal negative.
func TestCalculateSubTotalClamp(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "")
	discount := &Discount{
		Unit:           DiscountUnitCurrency,
		DiscountNumber: 10000,
		Status:         DiscountStatusActive,
	}

	quotation, err := calc.Calculate(testRateCard(), testServiceRates(), discount, QuotationInput{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		PaymentMethod: PaymentMethodCredit,
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, quotation.Price.SubTotal)
	assert.Equal(t, 0.0, quotation.Price.Tax)
	assert.Equal(t, 0.0, quotation.Price.Total)
}

// TestCalculatePercentServiceAgainstPrice tests percent services compute
// against the resolved shipping price for both price and cost amounts.
func TestCalculatePercentServiceAgainstPrice(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "")

	quotation, err := calc.Calculate(testRateCard(), testServiceRates(), nil, QuotationInput{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		ServiceIDs:    []string{"svc-insurance"},
		PaymentMethod: PaymentMethodCash,
	})

	require.NoError(t, err)
	require.Len(t, quotation.Price.Services, 1)
	require.Len(t, quotation.Cost.Services, 1)
	assert.InDelta(t, 18.0, quotation.Price.Services[0].Amount, 1e-9) // 10% of 180
	assert.InDelta(t, 9.0, quotation.Cost.Services[0].Amount, 1e-9)   // 5% of 180
}

// TestCalculateRoundedService tests the round-trip service line
func TestCalculateRoundedService(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "svc-rounded")

	quotation, err := calc.Calculate(testRateCard(), testServiceRates(), nil, QuotationInput{
		VehicleTypeID: "4WHEEL",
		Distance:      5,
		IsRounded:     true,
		PaymentMethod: PaymentMethodCash,
	})

	require.NoError(t, err)
	require.Len(t, quotation.Price.Services, 1)
	assert.Equal(t, "svc-rounded", quotation.Price.Services[0].ServiceRef)
	assert.Equal(t, 60.0, quotation.Price.Services[0].Amount)
	assert.Equal(t, 150.0+60.0, quotation.Price.SubTotal)
}

// TestCalculateErrors tests the failure paths
func TestCalculateErrors(t *testing.T) {
	calc := NewQuotationCalculator(0.07, "")

	tests := []struct {
		name  string
		input QuotationInput
		check func(t *testing.T, err error)
	}{
		{
			name: "Invalid payment method",
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				PaymentMethod: PaymentMethod("BARTER"),
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
			},
		},
		{
			name: "No matching tier",
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      999,
				PaymentMethod: PaymentMethodCash,
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRateNotFound)
			},
		},
		{
			name: "Unknown service",
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				ServiceIDs:    []string{"svc-missing"},
				PaymentMethod: PaymentMethodCash,
			},
			check: func(t *testing.T, err error) {
				var unavailable *ServiceUnavailableError
				require.True(t, errors.As(err, &unavailable))
				assert.Equal(t, "svc-missing", unavailable.ServiceRef)
			},
		},
		{
			name: "Unavailable service",
			input: QuotationInput{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				ServiceIDs:    []string{"svc-retired"},
				PaymentMethod: PaymentMethodCash,
			},
			check: func(t *testing.T, err error) {
				var unavailable *ServiceUnavailableError
				require.True(t, errors.As(err, &unavailable))
				assert.Equal(t, "svc-retired", unavailable.ServiceRef)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotation, err := calc.Calculate(testRateCard(), testServiceRates(), nil, tt.input)
			require.Error(t, err)
			assert.Nil(t, quotation)
			tt.check(t, err)
		})
	}
}

func TestDisplayDistance(t *testing.T) {
	oneWay := QuotationInput{Distance: 12, ReturnDistance: 8}
	assert.Equal(t, 12.0, oneWay.DisplayDistance())

	rounded := QuotationInput{Distance: 12, ReturnDistance: 8, IsRounded: true}
	assert.Equal(t, 20.0, rounded.DisplayDistance())
}
