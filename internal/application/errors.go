package application

import (
	stderrors "errors"

	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/errors"
)

// mapDomainError converts domain failures into transport-ready AppErrors.
// Lifecycle violations map to 422 so callers can distinguish a wrong-state
// request from malformed input.
func mapDomainError(err error) *errors.AppError {
	if err == nil {
		return nil
	}

	var discountErr *domain.DiscountInvalidError
	if stderrors.As(err, &discountErr) {
		return errors.ErrUnprocessable(discountErr.Error()).
			WithDetail("code", discountErr.Code).
			WithDetail("reason", discountErr.Reason)
	}

	var serviceErr *domain.ServiceUnavailableError
	if stderrors.As(err, &serviceErr) {
		return errors.ErrUnprocessable(serviceErr.Error()).
			WithDetail("serviceRef", serviceErr.ServiceRef)
	}

	switch {
	case stderrors.Is(err, domain.ErrRateNotFound):
		return errors.ErrNotFound("distance tier").Wrap(err)
	case stderrors.Is(err, domain.ErrDocumentNotFound):
		return errors.ErrNotFound("document").Wrap(err)
	case stderrors.Is(err, domain.ErrNumberingRace):
		// A duplicate document number means the sequencer invariant broke.
		// Unlike a write conflict this is not retryable, so it surfaces as
		// an internal fault rather than a 409.
		return errors.ErrInternal(err.Error()).Wrap(err)
	case stderrors.Is(err, domain.ErrConcurrencyConflict):
		return errors.ErrConflict(err.Error()).Wrap(err)
	case stderrors.Is(err, domain.ErrBillingCancelled),
		stderrors.Is(err, domain.ErrBillingNotIssued),
		stderrors.Is(err, domain.ErrBillingHasReceipts),
		stderrors.Is(err, domain.ErrBillingNotCancelable),
		stderrors.Is(err, domain.ErrReceiptNotAllowed),
		stderrors.Is(err, domain.ErrAdjustmentNotAllowed):
		return errors.ErrUnprocessable(err.Error()).Wrap(err)
	case stderrors.Is(err, domain.ErrInvalidAmount),
		stderrors.Is(err, domain.ErrInvalidPaymentMethod),
		stderrors.Is(err, domain.ErrNoShipments),
		stderrors.Is(err, domain.ErrNoTransactions):
		return errors.ErrValidation(err.Error()).Wrap(err)
	default:
		return errors.FromError(err)
	}
}

// isNumberingRace reports whether the error chain contains a duplicate
// document number violation.
func isNumberingRace(err error) bool {
	return stderrors.Is(err, domain.ErrNumberingRace)
}
