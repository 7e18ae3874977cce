package dto

import "github.com/clubhub/calendar-service/internal/domain"

// EventStaffResponse is the reconciled assigned list for one event.
type EventStaffResponse struct {
	EventID string               `json:"event_id"`
	Staff   []domain.StaffMember `json:"staff"`
}

// AvailableStaffResponse is the assignable pool for one event, optionally
// narrowed by a search term.
type AvailableStaffResponse struct {
	EventID string               `json:"event_id"`
	Query   string               `json:"query,omitempty"`
	Staff   []domain.StaffMember `json:"staff"`
}

// StaffMutationResponse reports the outcome of an assign/unassign.
type StaffMutationResponse struct {
	EventID  string               `json:"event_id"`
	StaffID  string               `json:"staff_id"`
	Assigned []domain.StaffMember `json:"assigned"`
}

