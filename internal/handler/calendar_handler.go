package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/dto"
	"github.com/clubhub/calendar-service/internal/service"
	"github.com/clubhub/calendar-service/pkg/response"
	"github.com/clubhub/calendar-service/pkg/telemetry"
)

// CalendarHandler handles calendar feed HTTP requests
type CalendarHandler struct {
	calendarService service.CalendarService
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// List handles GET /calendar
// Query params: after, before (date or RFC3339), program_id, participant_id,
// location_id, program_type. Missing bounds fall back to the default window.
func (h *CalendarHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.calendar.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	after, err := dto.ParseWindowBound(c.Query("after"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid after")
		response.Error(c, http.StatusBadRequest, "INVALID_WINDOW", "invalid after", err.Error())
		return
	}
	before, err := dto.ParseWindowBound(c.Query("before"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid before")
		response.Error(c, http.StatusBadRequest, "INVALID_WINDOW", "invalid before", err.Error())
		return
	}

	query := &dto.CalendarQuery{
		After:         after,
		Before:        before,
		ProgramID:     c.Query("program_id"),
		ParticipantID: c.Query("participant_id"),
		LocationID:    c.Query("location_id"),
		ProgramType:   c.Query("program_type"),
	}

	span.SetAttributes(
		attribute.String("calendar.program_type", query.ProgramType),
		attribute.String("calendar.location_id", query.LocationID),
	)

	feed, err := h.calendarService.List(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("calendar.events", len(feed.Events)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, feed)
}

// handleError converts domain errors to HTTP responses
func (h *CalendarHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidWindow):
		response.Error(c, http.StatusBadRequest, "INVALID_WINDOW", err.Error(), "")
	case errors.Is(err, domain.ErrUpstreamTimeout):
		response.Error(c, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", err.Error(),
			"One of the calendar sources did not respond in time.")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		response.BadGateway(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
