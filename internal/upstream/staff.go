package upstream

import (
	"context"
	"net/url"
	"time"
)

// RosterUserDTO is the staff service roster shape. Its field casing differs
// from every other upstream; do not "fix" it here, the staff service is older
// and serializes exported Go field names directly.
type RosterUserDTO struct {
	ID        string       `json:"ID"`
	Name      string       `json:"Name"`
	Email     string       `json:"Email"`
	Phone     string       `json:"Phone"`
	StaffInfo StaffInfoDTO `json:"StaffInfo"`
}

type StaffInfoDTO struct {
	Role string `json:"Role"`
}

// StaffClient talks to the staff roster service.
type StaffClient struct {
	*Client
}

// NewStaffClient creates a client for the staff service.
func NewStaffClient(baseURL string, timeout time.Duration) *StaffClient {
	return &StaffClient{Client: NewClient("staff-service", baseURL, timeout)}
}

// ListRoster fetches the staff roster, optionally narrowed by role.
func (c *StaffClient) ListRoster(ctx context.Context, role string) ([]RosterUserDTO, error) {
	var params url.Values
	if role != "" {
		params = url.Values{}
		params.Set("role", role)
	}

	var roster []RosterUserDTO
	if err := c.getJSON(ctx, "/api/v1/staffs", params, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
