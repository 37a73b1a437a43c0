package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/middleware"
)

// DriverPaymentHandler handles HTTP requests for driver payouts
type DriverPaymentHandler struct {
	service *application.DriverPaymentService
	logger  *logging.Logger
}

// NewDriverPaymentHandler creates a new DriverPaymentHandler
func NewDriverPaymentHandler(service *application.DriverPaymentService, logger *logging.Logger) *DriverPaymentHandler {
	return &DriverPaymentHandler{
		service: service,
		logger:  logger,
	}
}

// CreatePayment handles POST /api/v1/driver-payments
func (h *DriverPaymentHandler) CreatePayment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateDriverPaymentCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"driver.id":          cmd.DriverID,
		"transactions.count": len(cmd.Transactions),
	})

	result, err := h.service.CreatePayment(c.Request.Context(), cmd)
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

// GetPayment handles GET /api/v1/driver-payments/:paymentId
func (h *DriverPaymentHandler) GetPayment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	paymentID := c.Param("paymentId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"payment.id": paymentID,
	})

	result, err := h.service.GetPayment(c.Request.Context(), paymentID)
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

// ListPayments handles GET /api/v1/drivers/:driverId/payments
func (h *DriverPaymentHandler) ListPayments(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	driverID := c.Param("driverId")
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.DefaultQuery("pageSize", "20"), 10, 64)

	query := application.ListDriverPaymentsQuery{
		DriverID: driverID,
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.service.ListPayments(c.Request.Context(), query)
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
