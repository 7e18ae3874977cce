package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/service"
	"github.com/clubhub/calendar-service/pkg/response"
	"github.com/clubhub/calendar-service/pkg/telemetry"
)

// StaffHandler handles event staff assignment HTTP requests
type StaffHandler struct {
	staffService service.StaffService
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(staffService service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// ListAssigned handles GET /events/:id/staff
func (h *StaffHandler) ListAssigned(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.staff.list_assigned")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.staffService.Assigned(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ListAvailable handles GET /events/:id/staff/available
// Optional q narrows the pool by a case-insensitive match over name, email,
// and role.
func (h *StaffHandler) ListAvailable(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.staff.list_available")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	query := c.Query("q")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("query", query),
	)

	result, err := h.staffService.Available(ctx, eventID, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Assign handles POST /events/:id/staff/:staffId
func (h *StaffHandler) Assign(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.staff.assign")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	staffID := c.Param("staffId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("staff_id", staffID),
	)

	result, err := h.staffService.Assign(ctx, eventID, staffID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// Unassign handles DELETE /events/:id/staff/:staffId
func (h *StaffHandler) Unassign(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.staff.unassign")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	staffID := c.Param("staffId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("staff_id", staffID),
	)

	result, err := h.staffService.Unassign(ctx, eventID, staffID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// handleError converts domain errors to HTTP responses
func (h *StaffHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		response.Error(c, http.StatusNotFound, "EVENT_NOT_FOUND", err.Error(), "")
	case errors.Is(err, domain.ErrStaffNotFound):
		response.Error(c, http.StatusNotFound, "STAFF_NOT_FOUND", err.Error(),
			"Staff member is not in the assignable pool for this event.")
	case errors.Is(err, domain.ErrStaffAlreadyAssigned):
		response.Error(c, http.StatusConflict, "ALREADY_ASSIGNED", err.Error(), "")
	case errors.Is(err, domain.ErrStaffNotAssigned):
		response.Error(c, http.StatusConflict, "NOT_ASSIGNED", err.Error(), "")
	case errors.Is(err, domain.ErrStaffBusy):
		response.Error(c, http.StatusConflict, "STAFF_BUSY", err.Error(),
			"Another change for this staff member is still in flight; retry shortly.")
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "")
	case errors.Is(err, domain.ErrUpstreamTimeout):
		response.Error(c, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", err.Error(), "")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		response.BadGateway(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
