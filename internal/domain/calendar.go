package domain

import (
	"fmt"
	"time"
)

// Program types recognized by the calendar. Anything else falls through to the
// default color.
const (
	ProgramTypeGame     = "game"
	ProgramTypePractice = "practice"
	ProgramTypeCourse   = "course"
)

// colorPalette is indexed by program type; the feed color is a pure function of
// the type and is never stored upstream.
var colorPalette = [3]string{"red", "green", "blue"}

// DefaultEventColor is used for unknown or missing program types.
const DefaultEventColor = "gray"

// ColorForProgramType derives the display color for a program type. Total:
// every input maps to a palette entry or the default.
func ColorForProgramType(programType string) string {
	switch programType {
	case ProgramTypeGame:
		return colorPalette[0]
	case ProgramTypePractice:
		return colorPalette[1]
	case ProgramTypeCourse:
		return colorPalette[2]
	default:
		return DefaultEventColor
	}
}

// Palette returns the full fixed color set including the default.
func Palette() []string {
	return []string{colorPalette[0], colorPalette[1], colorPalette[2], DefaultEventColor}
}

// Location is the denormalized venue of an event. Games and practices often
// carry only a name; missing fields stay empty strings.
type Location struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Program is the activity category an event belongs to.
type Program struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Team is the owning team, when the source has one.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuditUser identifies who created or last updated a record. Games and
// practices carry no audit identity, so all fields are empty for them.
type AuditUser struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Customer is a participant enrolled in a generic event.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// CalendarEvent is the unified view-model the aggregation produces from the
// three heterogeneous sources. StartAt/EndAt are always real timestamps and
// Color always matches Program.Type; both are established by the normalizer.
type CalendarEvent struct {
	ID        string        `json:"id"`
	StartAt   time.Time     `json:"start_at"`
	EndAt     time.Time     `json:"end_at"`
	Capacity  int           `json:"capacity"`
	Color     string        `json:"color"`
	Location  Location      `json:"location"`
	Program   Program       `json:"program"`
	Team      Team          `json:"team"`
	Customers []Customer    `json:"customers"`
	Staff     []StaffMember `json:"staff"`
	CreatedBy AuditUser     `json:"created_by"`
	UpdatedBy AuditUser     `json:"updated_by"`
}

// Key returns a handle that is unique across sources. IDs are only unique
// within their originating source; the merged feed itself is not deduplicated.
func (e *CalendarEvent) Key() string {
	return fmt.Sprintf("%s:%s", e.Program.Type, e.ID)
}
