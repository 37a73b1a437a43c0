package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/middleware"
)

// DocumentHandler handles HTTP requests for billing document artifacts
type DocumentHandler struct {
	service *application.BillingService
	logger  *logging.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service *application.BillingService, logger *logging.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// GetDocument handles GET /api/v1/documents/:ownerRef
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ownerRef := c.Param("ownerRef")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"document.ownerRef": ownerRef,
	})

	result, err := h.service.GetDocument(c.Request.Context(), ownerRef)
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

// RegenerateDocument handles POST /api/v1/documents/:ownerRef/regenerate
func (h *DocumentHandler) RegenerateDocument(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ownerRef := c.Param("ownerRef")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"document.ownerRef": ownerRef,
	})

	result, err := h.service.RegenerateDocument(c.Request.Context(), ownerRef)
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

// MarkWHTReceived handles PUT /api/v1/documents/:ownerRef/wht-received
func (h *DocumentHandler) MarkWHTReceived(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.MarkWHTReceivedCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	cmd.OwnerRef = c.Param("ownerRef")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"document.ownerRef": cmd.OwnerRef,
	})

	if err := h.service.MarkWHTReceived(c.Request.Context(), cmd); err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ownerRef": cmd.OwnerRef}})
}
