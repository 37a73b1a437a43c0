package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/middleware"
)

// BillingHandler handles HTTP requests for billing
type BillingHandler struct {
	service *application.BillingService
	logger  *logging.Logger
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(service *application.BillingService, logger *logging.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		logger:  logger,
	}
}

// OpenBilling handles POST /api/v1/billings
func (h *BillingHandler) OpenBilling(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.OpenBillingCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"payment.method":  cmd.PaymentMethod,
		"shipments.count": len(cmd.ShipmentIDs),
	})

	result, err := h.service.OpenBilling(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// GetBilling handles GET /api/v1/billings/:billingId
func (h *BillingHandler) GetBilling(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	billingID := c.Param("billingId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"billing.id": billingID,
	})

	result, err := h.service.GetBilling(c.Request.Context(), billingID)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetBillingByShipment handles GET /api/v1/shipments/:shipmentId/billing
func (h *BillingHandler) GetBillingByShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	shipmentID := c.Param("shipmentId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.id": shipmentID,
	})

	result, err := h.service.GetBillingByShipment(c.Request.Context(), shipmentID)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListBillings handles GET /api/v1/billings
func (h *BillingHandler) ListBillings(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.DefaultQuery("pageSize", "20"), 10, 64)

	query := application.ListBillingsQuery{
		Page:     page,
		PageSize: pageSize,
	}

	if state := c.Query("state"); state != "" {
		query.State = &state
	}
	if method := c.Query("paymentMethod"); method != "" {
		query.PaymentMethod = &method
	}
	if shipmentID := c.Query("shipmentId"); shipmentID != "" {
		query.ShipmentID = &shipmentID
	}
	if invoiceNumber := c.Query("invoiceNumber"); invoiceNumber != "" {
		query.InvoiceNumber = &invoiceNumber
	}
	if fromStr := c.Query("fromDate"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			responder.RespondWithAppError(errors.ErrValidation("invalid fromDate format"))
			return
		}
		query.FromDate = &from
	}
	if toStr := c.Query("toDate"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			responder.RespondWithAppError(errors.ErrValidation("invalid toDate format"))
			return
		}
		query.ToDate = &to
	}

	result, err := h.service.ListBillings(c.Request.Context(), query)
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// IssueInvoice handles POST /api/v1/billings/:billingId/invoice
func (h *BillingHandler) IssueInvoice(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	billingID := c.Param("billingId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"billing.id": billingID,
	})

	result, err := h.service.IssueInvoice(c.Request.Context(), billingID)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RecordReceipt handles POST /api/v1/billings/:billingId/receipts
func (h *BillingHandler) RecordReceipt(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.RecordReceiptCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.BillingID = c.Param("billingId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"billing.id":       cmd.BillingID,
		"receipt.subTotal": cmd.SubTotal,
	})

	result, err := h.service.RecordReceipt(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// PostAdjustment handles POST /api/v1/billings/:billingId/adjustments
func (h *BillingHandler) PostAdjustment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.PostAdjustmentCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.BillingID = c.Param("billingId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"billing.id":             cmd.BillingID,
		"adjustment.newSubTotal": cmd.NewSubTotal,
	})

	result, err := h.service.PostAdjustment(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// CancelBilling handles POST /api/v1/billings/:billingId/cancel
func (h *BillingHandler) CancelBilling(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CancelBillingCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.BillingID = c.Param("billingId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"billing.id": cmd.BillingID,
	})

	result, err := h.service.CancelBilling(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
