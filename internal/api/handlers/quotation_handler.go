package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/middleware"
)

// QuotationHandler handles HTTP requests for quotations
type QuotationHandler struct {
	service *application.QuotationService
	logger  *logging.Logger
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(service *application.QuotationService, logger *logging.Logger) *QuotationHandler {
	return &QuotationHandler{
		service: service,
		logger:  logger,
	}
}

// Calculate handles POST /api/v1/quotations
func (h *QuotationHandler) Calculate(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CalculateQuotationCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"vehicle.type":   cmd.VehicleTypeID,
		"payment.method": cmd.PaymentMethod,
	})

	result, err := h.service.Calculate(c.Request.Context(), cmd)
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

// GetQuotation handles GET /api/v1/quotations/:quotationId
func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	quotationID := c.Param("quotationId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quotation.id": quotationID,
	})

	result, err := h.service.GetQuotation(c.Request.Context(), quotationID)
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
