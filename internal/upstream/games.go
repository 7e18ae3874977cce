package upstream

import (
	"context"
	"time"
)

// GameDTO is the games service wire shape. The endpoint has no filtering; it
// returns the whole collection and the aggregation layer windows it.
type GameDTO struct {
	ID           string `json:"id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	HomeTeamName string `json:"home_team_name"`
	AwayTeamName string `json:"away_team_name"`
}

// GamesClient talks to the games service.
type GamesClient struct {
	*Client
}

// NewGamesClient creates a client for the games service.
func NewGamesClient(baseURL string, timeout time.Duration) *GamesClient {
	return &GamesClient{Client: NewClient("games-service", baseURL, timeout)}
}

// List fetches the entire games collection.
func (c *GamesClient) List(ctx context.Context) ([]GameDTO, error) {
	var games []GameDTO
	if err := c.getJSON(ctx, "/api/v1/games", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}
