package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/clubhub/calendar-service/internal/domain"
)

// CalendarQuery carries the feed filters. Zero After/Before means "use the
// default window".
type CalendarQuery struct {
	After         time.Time
	Before        time.Time
	ProgramID     string
	ParticipantID string
	LocationID    string
	ProgramType   string
}

// ParseWindowBound parses a window boundary. Day-precision values
// ("2024-06-01") are anchored at UTC midnight explicitly; full RFC3339
// timestamps are accepted as-is. The zero time and an error come back for
// anything else.
func ParseWindowBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date or RFC3339 timestamp", domain.ErrInvalidWindow, s)
}

// Validate rejects an inverted window. Empty bounds are fine; the service
// substitutes the default window.
func (q *CalendarQuery) Validate() error {
	if !q.After.IsZero() && !q.Before.IsZero() && q.Before.Before(q.After) {
		return fmt.Errorf("%w: before precedes after", domain.ErrInvalidWindow)
	}
	return nil
}

// CacheKey returns a canonical string for this query, used as the redis cache
// key and the singleflight group key.
func (q *CalendarQuery) CacheKey() string {
	parts := []string{
		q.After.UTC().Format(time.RFC3339),
		q.Before.UTC().Format(time.RFC3339),
		q.ProgramID,
		q.ParticipantID,
		q.LocationID,
		q.ProgramType,
	}
	return "calendar:" + strings.Join(parts, "|")
}

// CalendarFeedResponse wraps the merged feed with its resolved window.
type CalendarFeedResponse struct {
	After  time.Time              `json:"after"`
	Before time.Time              `json:"before"`
	Events []domain.CalendarEvent `json:"events"`
}
