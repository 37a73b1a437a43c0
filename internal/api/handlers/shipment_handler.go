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

// ShipmentHandler handles HTTP requests for shipment listings
type ShipmentHandler struct {
	service *application.ShipmentService
	logger  *logging.Logger
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(service *application.ShipmentService, logger *logging.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		service: service,
		logger:  logger,
	}
}

// ListShipments handles GET /api/v1/shipments
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var query application.ListShipmentsQuery

	if shipmentID := c.Query("shipmentId"); shipmentID != "" {
		query.ShipmentID = &shipmentID
	}
	if customerID := c.Query("customerId"); customerID != "" {
		query.CustomerID = &customerID
	}
	if driverID := c.Query("driverId"); driverID != "" {
		query.DriverID = &driverID
	}
	if vehicleTypeID := c.Query("vehicleTypeId"); vehicleTypeID != "" {
		query.VehicleTypeID = &vehicleTypeID
	}
	if billingID := c.Query("billingId"); billingID != "" {
		query.BillingID = &billingID
	}
	if statuses := c.QueryArray("status"); len(statuses) > 0 {
		query.Statuses = statuses
	}
	if customerName := c.Query("customerName"); customerName != "" {
		query.CustomerName = &customerName
	}
	if driverName := c.Query("driverName"); driverName != "" {
		query.DriverName = &driverName
	}
	if fromStr := c.Query("pickupFrom"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			responder.RespondWithAppError(errors.ErrValidation("invalid pickupFrom format"))
			return
		}
		query.PickupFrom = &from
	}
	if toStr := c.Query("pickupTo"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			responder.RespondWithAppError(errors.ErrValidation("invalid pickupTo format"))
			return
		}
		query.PickupTo = &to
	}
	if sortField := c.Query("sortBy"); sortField != "" {
		query.SortField = &sortField
		query.SortAscending = c.DefaultQuery("sortDir", "desc") == "asc"
	}
	if skipStr := c.Query("skip"); skipStr != "" {
		skip, err := strconv.ParseInt(skipStr, 10, 64)
		if err != nil || skip < 0 {
			responder.RespondWithAppError(errors.ErrValidation("invalid skip value"))
			return
		}
		query.Skip = &skip
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || limit <= 0 {
			responder.RespondWithAppError(errors.ErrValidation("invalid limit value"))
			return
		}
		query.Limit = &limit
	}

	result, err := h.service.ListShipments(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
