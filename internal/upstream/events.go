package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/dto"
)

// EventDTO is the events service wire shape. All dates are ISO-8601 strings.
type EventDTO struct {
	ID        string          `json:"id"`
	StartAt   string          `json:"start_at"`
	EndAt     string          `json:"end_at"`
	Capacity  int             `json:"capacity"`
	Location  LocationDTO     `json:"location"`
	Program   ProgramDTO      `json:"program"`
	Team      TeamDTO         `json:"team"`
	CreatedBy AuditUserDTO    `json:"created_by"`
	UpdatedBy AuditUserDTO    `json:"updated_by"`
	Customers []CustomerDTO   `json:"customers"`
	Staff     []EventStaffDTO `json:"staff"`
}

type LocationDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ProgramDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type TeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AuditUserDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CustomerDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// EventStaffDTO is the per-event staff shape embedded in event details.
type EventStaffDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	RoleName  string `json:"role_name"`
}

// EventsClient talks to the events service, which filters server-side.
type EventsClient struct {
	*Client
}

// NewEventsClient creates a client for the events service.
func NewEventsClient(baseURL string, timeout time.Duration) *EventsClient {
	return &EventsClient{Client: NewClient("events-service", baseURL, timeout)}
}

// List fetches events for the window and filters. The service applies the full
// query itself, including program_type and location_id.
func (c *EventsClient) List(ctx context.Context, q *dto.CalendarQuery) ([]EventDTO, error) {
	params := url.Values{}
	params.Set("after", q.After.UTC().Format("2006-01-02"))
	params.Set("before", q.Before.UTC().Format("2006-01-02"))
	params.Set("response_type", "date")
	if q.ProgramID != "" {
		params.Set("program_id", q.ProgramID)
	}
	if q.ParticipantID != "" {
		params.Set("participant_id", q.ParticipantID)
	}
	if q.LocationID != "" {
		params.Set("location_id", q.LocationID)
	}
	if q.ProgramType != "" {
		params.Set("program_type", q.ProgramType)
	}

	var events []EventDTO
	if err := c.getJSON(ctx, "/api/v1/events", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Get fetches a single event including its embedded staff list.
func (c *EventsClient) Get(ctx context.Context, eventID string) (*EventDTO, error) {
	var event EventDTO
	err := c.getJSON(ctx, "/api/v1/events/"+url.PathEscape(eventID), nil, &event)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
		}
		return nil, err
	}
	return &event, nil
}

// GetStaff fetches the event's current staff list.
func (c *EventsClient) GetStaff(ctx context.Context, eventID string) ([]EventStaffDTO, error) {
	event, err := c.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.Staff, nil
}

// AssignStaff adds a staff member to the event's assignment sub-resource.
func (c *EventsClient) AssignStaff(ctx context.Context, eventID, staffID string) error {
	path := fmt.Sprintf("/api/v1/events/%s/staff/%s", url.PathEscape(eventID), url.PathEscape(staffID))
	return c.postJSON(ctx, path)
}

// UnassignStaff removes a staff member from the event.
func (c *EventsClient) UnassignStaff(ctx context.Context, eventID, staffID string) error {
	path := fmt.Sprintf("/api/v1/events/%s/staff/%s", url.PathEscape(eventID), url.PathEscape(staffID))
	return c.deleteJSON(ctx, path)
}
