package application

import (
	"context"
	"fmt"
	"time"

	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/metrics"
)

// QuotationService handles pricing use cases
type QuotationService struct {
	rateRepo      domain.RateCardRepository
	serviceRepo   domain.AdditionalServiceRepository
	discountRepo  domain.DiscountRepository
	quotationRepo domain.QuotationRepository
	calculator    *domain.QuotationCalculator
	metrics       *metrics.Metrics
	logger        *logging.Logger
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(
	rateRepo domain.RateCardRepository,
	serviceRepo domain.AdditionalServiceRepository,
	discountRepo domain.DiscountRepository,
	quotationRepo domain.QuotationRepository,
	calculator *domain.QuotationCalculator,
	metrics *metrics.Metrics,
	logger *logging.Logger,
) *QuotationService {
	return &QuotationService{
		rateRepo:      rateRepo,
		serviceRepo:   serviceRepo,
		discountRepo:  discountRepo,
		quotationRepo: quotationRepo,
		calculator:    calculator,
		metrics:       metrics,
		logger:        logger,
	}
}

// Calculate prices a booking and persists the resulting quotation
func (s *QuotationService) Calculate(ctx context.Context, cmd CalculateQuotationCommand) (*QuotationDTO, error) {
	method := domain.PaymentMethod(cmd.PaymentMethod)
	if !method.IsValid() {
		return nil, errors.ErrValidation("invalid payment method")
	}

	card, err := s.rateRepo.FindByVehicleType(ctx, cmd.VehicleTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate card: %w", err)
	}
	if card == nil {
		return nil, errors.ErrNotFoundWithID("rate card", cmd.VehicleTypeID)
	}

	refs := cmd.ServiceIDs
	if cmd.IsRounded && s.calculator.RoundedServiceRef() != "" {
		refs = append(append([]string{}, cmd.ServiceIDs...), s.calculator.RoundedServiceRef())
	}
	services, err := s.serviceRepo.FindByRefs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get service rates: %w", err)
	}

	var discount *domain.Discount
	if cmd.DiscountCode != "" {
		discount, err = s.resolveDiscount(ctx, cmd, card, services)
		if err != nil {
			return nil, err
		}
	}

	quotation, err := s.calculator.Calculate(card, services, discount, domain.QuotationInput{
		VehicleTypeID:  cmd.VehicleTypeID,
		Distance:       cmd.Distance,
		ReturnDistance: cmd.ReturnDistance,
		IsRounded:      cmd.IsRounded,
		DropPoint:      cmd.DropPoint,
		ServiceIDs:     cmd.ServiceIDs,
		DiscountCode:   cmd.DiscountCode,
		UserID:         cmd.UserID,
		PaymentMethod:  method,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.quotationRepo.Save(ctx, quotation); err != nil {
		s.logger.WithError(err).Error("Failed to save quotation", "quotationId", quotation.ID)
		return nil, fmt.Errorf("failed to save quotation: %w", err)
	}

	// Usage counts only after the quotation is committed.
	if discount != nil {
		if err := s.discountRepo.IncrementUsage(ctx, discount.Code, cmd.UserID); err != nil {
			s.logger.WithError(err).Warn("Failed to increment discount usage",
				"code", discount.Code, "quotationId", quotation.ID)
		}
		s.metrics.RecordDiscountApplied(discount.Code)
	}
	s.metrics.RecordQuotationPriced(cmd.VehicleTypeID, cmd.PaymentMethod)

	s.logger.Info("Quotation priced",
		"quotationId", quotation.ID,
		"vehicleTypeId", cmd.VehicleTypeID,
		"subTotal", quotation.Price.SubTotal,
		"total", quotation.Price.Total,
	)

	return ToQuotationDTO(quotation), nil
}

// resolveDiscount looks up and validates the discount code against the
// pre-discount subtotal. An invalid code fails the whole calculation; it is
// never silently skipped.
func (s *QuotationService) resolveDiscount(
	ctx context.Context,
	cmd CalculateQuotationCommand,
	card *domain.RateCard,
	services map[string]*domain.AdditionalServiceRate,
) (*domain.Discount, error) {
	discount, err := s.discountRepo.FindByCode(ctx, cmd.DiscountCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	if discount == nil {
		return nil, mapDomainError(&domain.DiscountInvalidError{
			Code:   cmd.DiscountCode,
			Reason: domain.DiscountReasonNotFound,
		})
	}

	usage, err := s.discountRepo.Usage(ctx, cmd.DiscountCode, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get discount usage: %w", err)
	}

	subtotal, err := s.preDiscountSubtotal(cmd, card, services)
	if err != nil {
		return nil, err
	}

	if err := discount.Resolve(time.Now().UTC(), subtotal, usage); err != nil {
		return nil, mapDomainError(err)
	}

	return discount, nil
}

// preDiscountSubtotal computes shipping plus service lines so minimum-price
// checks run against the same subtotal the discount will be applied to.
func (s *QuotationService) preDiscountSubtotal(
	cmd CalculateQuotationCommand,
	card *domain.RateCard,
	services map[string]*domain.AdditionalServiceRate,
) (float64, error) {
	tier, err := card.TierFor(cmd.Distance)
	if err != nil {
		return 0, mapDomainError(err)
	}

	subtotal := tier.Price
	refs := cmd.ServiceIDs
	if cmd.IsRounded && s.calculator.RoundedServiceRef() != "" {
		refs = append(append([]string{}, cmd.ServiceIDs...), s.calculator.RoundedServiceRef())
	}
	for _, id := range refs {
		if rate, ok := services[id]; ok && rate.Available {
			subtotal += rate.PriceAmount(tier.Price)
		}
	}

	return subtotal, nil
}

// GetQuotation retrieves a quotation by ID
func (s *QuotationService) GetQuotation(ctx context.Context, id string) (*QuotationDTO, error) {
	quotation, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	if quotation == nil {
		return nil, errors.ErrNotFoundWithID("quotation", id)
	}
	return ToQuotationDTO(quotation), nil
}
