package upstream

import (
	"context"
	"time"
)

// PracticeDTO is the practices service wire shape. Like games, the endpoint
// returns the full collection unfiltered. Optional fields come back as empty
// strings when the practice has no program or team attached.
type PracticeDTO struct {
	ID           string `json:"id"`
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at"`
	Capacity     int    `json:"capacity"`
	LocationID   string `json:"location_id,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	ProgramID    string `json:"program_id,omitempty"`
	ProgramName  string `json:"program_name,omitempty"`
	TeamID       string `json:"team_id,omitempty"`
	TeamName     string `json:"team_name,omitempty"`
}

// PracticesClient talks to the practices service.
type PracticesClient struct {
	*Client
}

// NewPracticesClient creates a client for the practices service.
func NewPracticesClient(baseURL string, timeout time.Duration) *PracticesClient {
	return &PracticesClient{Client: NewClient("practices-service", baseURL, timeout)}
}

// List fetches the entire practices collection.
func (c *PracticesClient) List(ctx context.Context) ([]PracticeDTO, error) {
	var practices []PracticeDTO
	if err := c.getJSON(ctx, "/api/v1/practices", nil, &practices); err != nil {
		return nil, err
	}
	return practices, nil
}
