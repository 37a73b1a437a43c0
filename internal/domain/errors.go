package domain

import (
	"errors"
	"fmt"
)

// Errors for the billing domain
var (
	ErrRateNotFound         = errors.New("no distance tier covers the requested distance")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrConcurrencyConflict  = errors.New("transaction retry budget exhausted")
	ErrNumberingRace        = errors.New("duplicate document number assigned")
	ErrBillingCancelled     = errors.New("billing is cancelled")
	ErrBillingNotIssued     = errors.New("billing has no issued invoice")
	ErrBillingHasReceipts   = errors.New("billing with recorded receipts cannot be cancelled")
	ErrBillingNotCancelable = errors.New("only draft billings can be cancelled")
	ErrReceiptNotAllowed    = errors.New("receipts can only be recorded on issued or partially paid billings")
	ErrAdjustmentNotAllowed = errors.New("adjustments can only be posted on paid or partially paid billings")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrInvalidPaymentMethod = errors.New("payment method must be CASH or CREDIT")
	ErrNoShipments          = errors.New("billing requires at least one shipment")
	ErrNoTransactions       = errors.New("driver payment requires at least one transaction")
)

// ServiceUnavailableError indicates a requested additional service cannot be
// applied to the quotation.
type ServiceUnavailableError struct {
	ServiceRef string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("additional service %s is not available", e.ServiceRef)
}

// Discount rejection reasons
const (
	DiscountReasonNotFound     = "not_found"
	DiscountReasonInactive     = "inactive"
	DiscountReasonNotStarted   = "not_started"
	DiscountReasonExpired      = "expired"
	DiscountReasonBelowMin     = "below_minimum_price"
	DiscountReasonLimitReached = "usage_limit_reached"
	DiscountReasonUserLimit    = "per_user_limit_reached"
)

// DiscountInvalidError indicates a discount code failed one of its resolution
// checks. Reason carries the specific failed check.
type DiscountInvalidError struct {
	Code   string
	Reason string
}

func (e *DiscountInvalidError) Error() string {
	return fmt.Sprintf("discount %s invalid: %s", e.Code, e.Reason)
}

// IsDiscountInvalid reports whether err is a DiscountInvalidError.
func IsDiscountInvalid(err error) bool {
	var de *DiscountInvalidError
	return errors.As(err, &de)
}
