package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulmarket/billing-service/internal/domain"
	sharedErrors "github.com/haulmarket/billing-service/pkg/errors"
)

func floatPtr(f float64) *float64 { return &f }
func int64Ptr(i int64) *int64     { return &i }

type fakeRateRepo struct {
	findByVehicleTypeFn func(context.Context, string) (*domain.RateCard, error)
}

func (f *fakeRateRepo) FindByVehicleType(ctx context.Context, vehicleTypeID string) (*domain.RateCard, error) {
	if f.findByVehicleTypeFn != nil {
		return f.findByVehicleTypeFn(ctx, vehicleTypeID)
	}
	return nil, nil
}

type fakeServiceRepo struct {
	rates map[string]*domain.AdditionalServiceRate
}

func (f *fakeServiceRepo) FindByRefs(ctx context.Context, serviceRefs []string) (map[string]*domain.AdditionalServiceRate, error) {
	found := make(map[string]*domain.AdditionalServiceRate)
	for _, ref := range serviceRefs {
		if rate, ok := f.rates[ref]; ok {
			found[ref] = rate
		}
	}
	return found, nil
}

type fakeDiscountRepo struct {
	mu         sync.Mutex
	increments []string

	findByCodeFn func(context.Context, string) (*domain.Discount, error)
	usageFn      func(context.Context, string, string) (domain.DiscountUsage, error)
}

func (f *fakeDiscountRepo) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	if f.findByCodeFn != nil {
		return f.findByCodeFn(ctx, code)
	}
	return nil, nil
}

func (f *fakeDiscountRepo) Usage(ctx context.Context, code, userID string) (domain.DiscountUsage, error) {
	if f.usageFn != nil {
		return f.usageFn(ctx, code, userID)
	}
	return domain.DiscountUsage{}, nil
}

func (f *fakeDiscountRepo) IncrementUsage(ctx context.Context, code, userID string) error {
	f.mu.Lock()
	f.increments = append(f.increments, code+"/"+userID)
	f.mu.Unlock()
	return nil
}

type fakeQuotationRepo struct {
	saveFn     func(context.Context, *domain.Quotation) error
	findByIDFn func(context.Context, string) (*domain.Quotation, error)
}

func (f *fakeQuotationRepo) Save(ctx context.Context, quotation *domain.Quotation) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, quotation)
	}
	return nil
}

func (f *fakeQuotationRepo) FindByID(ctx context.Context, id string) (*domain.Quotation, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

type quotationServiceFixture struct {
	rateRepo      *fakeRateRepo
	serviceRepo   *fakeServiceRepo
	discountRepo  *fakeDiscountRepo
	quotationRepo *fakeQuotationRepo
	service       *QuotationService
}

func newQuotationServiceFixture() *quotationServiceFixture {
	f := &quotationServiceFixture{
		rateRepo: &fakeRateRepo{
			findByVehicleTypeFn: func(_ context.Context, vehicleTypeID string) (*domain.RateCard, error) {
				if vehicleTypeID != "4WHEEL" {
					return nil, nil
				}
				return &domain.RateCard{
					ID:            "rate-4wheel",
					VehicleTypeID: "4WHEEL",
					Tiers: []domain.DistanceTier{
						{From: 0, To: 10, Unit: "km", Cost: 100, Price: 150},
						{From: 10, To: 20, Unit: "km", Cost: 120, Price: 180},
					},
				}, nil
			},
		},
		serviceRepo: &fakeServiceRepo{
			rates: map[string]*domain.AdditionalServiceRate{
				"svc-labor": {
					ServiceRef: "svc-labor",
					Name:       "Extra labor",
					Cost:       30,
					Price:      50,
					AmountType: domain.AmountTypeCurrency,
					Available:  true,
				},
				"svc-rounded": {
					ServiceRef: "svc-rounded",
					Name:       "Round trip",
					Cost:       40,
					Price:      60,
					AmountType: domain.AmountTypeCurrency,
					Available:  true,
				},
			},
		},
		discountRepo:  &fakeDiscountRepo{},
		quotationRepo: &fakeQuotationRepo{},
	}
	f.service = NewQuotationService(
		f.rateRepo,
		f.serviceRepo,
		f.discountRepo,
		f.quotationRepo,
		domain.NewQuotationCalculator(0.07, "svc-rounded"),
		testMetrics(),
		testLogger(),
	)
	return f
}

func TestCalculateQuotationSuccess(t *testing.T) {
	f := newQuotationServiceFixture()
	var saved *domain.Quotation
	f.quotationRepo.saveFn = func(_ context.Context, quotation *domain.Quotation) error {
		saved = quotation
		return nil
	}

	dto, err := f.service.Calculate(context.Background(), CalculateQuotationCommand{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		ServiceIDs:    []string{"svc-labor"},
		PaymentMethod: "CREDIT",
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, saved.ID, dto.ID)
	assert.Equal(t, 180.0, dto.Price.Shipping)
	assert.Equal(t, 230.0, dto.Price.SubTotal)
	assert.InDelta(t, 230*0.07, dto.Price.Tax, 1e-9)
	assert.InDelta(t, dto.Price.SubTotal+dto.Price.Tax, dto.Price.Total, 1e-9)
	assert.Empty(t, f.discountRepo.increments)

	assert.Equal(t, 12.0, dto.Distance)
	assert.Equal(t, 0.0, dto.ReturnDistance)
	assert.Equal(t, 12.0, dto.DisplayDistance)
	assert.Equal(t, "4WHEEL", dto.Detail.VehicleTypeID)
	assert.Equal(t, []string{"svc-labor"}, dto.Detail.ServiceIDs)
	assert.Equal(t, "CREDIT", dto.Detail.PaymentMethod)
}

func TestCalculateQuotationRoundedTrip(t *testing.T) {
	f := newQuotationServiceFixture()

	dto, err := f.service.Calculate(context.Background(), CalculateQuotationCommand{
		VehicleTypeID:  "4WHEEL",
		Distance:       5,
		ReturnDistance: 4,
		IsRounded:      true,
		PaymentMethod:  "CASH",
	})

	require.NoError(t, err)
	require.Len(t, dto.Price.Services, 1)
	assert.Equal(t, "svc-rounded", dto.Price.Services[0].ServiceRef)
	assert.Equal(t, 210.0, dto.Price.SubTotal)
	assert.Equal(t, 9.0, dto.DisplayDistance)
	assert.True(t, dto.Detail.IsRounded)
}

func TestCalculateQuotationWithDiscount(t *testing.T) {
	f := newQuotationServiceFixture()
	f.discountRepo.findByCodeFn = func(_ context.Context, code string) (*domain.Discount, error) {
		return &domain.Discount{
			ID:             "disc-1",
			Code:           code,
			DiscountNumber: 100,
			Unit:           domain.DiscountUnitCurrency,
			Status:         domain.DiscountStatusActive,
		}, nil
	}

	dto, err := f.service.Calculate(context.Background(), CalculateQuotationCommand{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		DiscountCode:  "WELCOME100",
		UserID:        "usr-1",
		PaymentMethod: "CASH",
	})

	require.NoError(t, err)
	assert.Equal(t, 100.0, dto.Price.Discount)
	assert.Equal(t, 80.0, dto.Price.SubTotal)
	assert.Equal(t, []string{"WELCOME100/usr-1"}, f.discountRepo.increments)
}

func TestCalculateQuotationDiscountRejections(t *testing.T) {
	now := time.Now().UTC()
	expired := now.Add(-24 * time.Hour)

	tests := []struct {
		name       string
		discount   *domain.Discount
		usage      domain.DiscountUsage
		wantReason string
	}{
		{
			name:       "Unknown code",
			discount:   nil,
			wantReason: domain.DiscountReasonNotFound,
		},
		{
			name: "Expired code",
			discount: &domain.Discount{
				Code:           "WELCOME100",
				DiscountNumber: 100,
				Unit:           domain.DiscountUnitCurrency,
				Status:         domain.DiscountStatusActive,
				EndDate:        &expired,
			},
			wantReason: domain.DiscountReasonExpired,
		},
		{
			name: "Usage limit reached",
			discount: &domain.Discount{
				Code:           "WELCOME100",
				DiscountNumber: 100,
				Unit:           domain.DiscountUnitCurrency,
				Status:         domain.DiscountStatusActive,
				LimitAmount:    int64Ptr(5),
			},
			usage:      domain.DiscountUsage{Total: 5},
			wantReason: domain.DiscountReasonLimitReached,
		},
		{
			name: "Below minimum price",
			discount: &domain.Discount{
				Code:           "WELCOME100",
				DiscountNumber: 100,
				Unit:           domain.DiscountUnitCurrency,
				Status:         domain.DiscountStatusActive,
				MinPrice:       floatPtr(500),
			},
			wantReason: domain.DiscountReasonBelowMin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuotationServiceFixture()
			f.discountRepo.findByCodeFn = func(_ context.Context, code string) (*domain.Discount, error) {
				return tt.discount, nil
			}
			f.discountRepo.usageFn = func(_ context.Context, code, userID string) (domain.DiscountUsage, error) {
				return tt.usage, nil
			}

			_, err := f.service.Calculate(context.Background(), CalculateQuotationCommand{
				VehicleTypeID: "4WHEEL",
				Distance:      12,
				DiscountCode:  "WELCOME100",
				UserID:        "usr-1",
				PaymentMethod: "CASH",
			})

			require.Error(t, err)
			var appErr *sharedErrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, sharedErrors.CodeUnprocessable, appErr.Code)
			assert.Equal(t, tt.wantReason, appErr.Details["reason"])
			assert.Empty(t, f.discountRepo.increments)
		})
	}
}

func TestCalculateQuotationUnknownVehicleType(t *testing.T) {
	f := newQuotationServiceFixture()

	_, err := f.service.Calculate(context.Background(), CalculateQuotationCommand{
		VehicleTypeID: "18WHEEL",
		Distance:      12,
		PaymentMethod: "CASH",
	})

	require.Error(t, err)
	var appErr *sharedErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, sharedErrors.CodeNotFound, appErr.Code)
}

func TestCalculateQuotationUnknownService(t *testing.T) {
	f := newQuotationServiceFixture()

	_, err := f.service.Calculate(context.Background(), CalculateQuotationCommand{
		VehicleTypeID: "4WHEEL",
		Distance:      12,
		ServiceIDs:    []string{"svc-missing"},
		PaymentMethod: "CASH",
	})

	require.Error(t, err)
	var appErr *sharedErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, sharedErrors.CodeUnprocessable, appErr.Code)
	assert.Equal(t, "svc-missing", appErr.Details["serviceRef"])
}

func TestGetQuotationNotFound(t *testing.T) {
	f := newQuotationServiceFixture()

	_, err := f.service.GetQuotation(context.Background(), "missing")

	require.Error(t, err)
	var appErr *sharedErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, sharedErrors.CodeNotFound, appErr.Code)
}
