package service

import (
	"strings"
	"time"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/upstream"
)

// The normalizers are pure and total: every source record maps to a
// CalendarEvent, missing concepts become explicit defaults (empty strings,
// zero capacity, empty slices), and Color is always derived from the program
// type. Synthesized defaults per source:
//
//	generic event: nothing synthesized, direct field map
//	practice:      program id falls back to the practice id, program name to
//	               "Practice"; no customers, staff, or audit identity
//	game:          capacity 0, program name "{home} vs {away}", no program id,
//	               team, customers, staff, or audit identity

// timeLayouts are tried in order when parsing upstream timestamps. Bare
// layouts are anchored to UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseEventTime parses an ISO-8601 wire timestamp. Total: unparseable input
// yields the zero time rather than an error, mirroring how the feed treats a
// source record it cannot place (it sorts first and never matches a window).
func parseEventTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalizeEvent maps a generic event record. The events service already
// applied every filter server-side, so the result is used as-is.
func normalizeEvent(e upstream.EventDTO) domain.CalendarEvent {
	customers := make([]domain.Customer, 0, len(e.Customers))
	for _, c := range e.Customers {
		customers = append(customers, domain.Customer{
			ID:        c.ID,
			Email:     c.Email,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Phone:     c.Phone,
		})
	}

	staff := make([]domain.StaffMember, 0, len(e.Staff))
	for _, s := range e.Staff {
		staff = append(staff, staffFromEventDTO(s))
	}

	return domain.CalendarEvent{
		ID:       e.ID,
		StartAt:  parseEventTime(e.StartAt),
		EndAt:    parseEventTime(e.EndAt),
		Capacity: e.Capacity,
		Color:    domain.ColorForProgramType(e.Program.Type),
		Location: domain.Location{
			ID:      e.Location.ID,
			Name:    e.Location.Name,
			Address: e.Location.Address,
		},
		Program: domain.Program{
			ID:   e.Program.ID,
			Name: e.Program.Name,
			Type: e.Program.Type,
		},
		Team: domain.Team{
			ID:   e.Team.ID,
			Name: e.Team.Name,
		},
		Customers: customers,
		Staff:     staff,
		CreatedBy: domain.AuditUser{
			ID:        e.CreatedBy.ID,
			FirstName: e.CreatedBy.FirstName,
			LastName:  e.CreatedBy.LastName,
		},
		UpdatedBy: domain.AuditUser{
			ID:        e.UpdatedBy.ID,
			FirstName: e.UpdatedBy.FirstName,
			LastName:  e.UpdatedBy.LastName,
		},
	}
}

// normalizePractice maps a practice record.
func normalizePractice(p upstream.PracticeDTO) domain.CalendarEvent {
	programID := p.ProgramID
	if programID == "" {
		programID = p.ID
	}
	programName := p.ProgramName
	if programName == "" {
		programName = "Practice"
	}

	return domain.CalendarEvent{
		ID:       p.ID,
		StartAt:  parseEventTime(p.StartAt),
		EndAt:    parseEventTime(p.EndAt),
		Capacity: p.Capacity,
		Color:    domain.ColorForProgramType(domain.ProgramTypePractice),
		Location: domain.Location{
			ID:      p.LocationID,
			Name:    p.LocationName,
			Address: "",
		},
		Program: domain.Program{
			ID:   programID,
			Name: programName,
			Type: domain.ProgramTypePractice,
		},
		Team: domain.Team{
			ID:   p.TeamID,
			Name: p.TeamName,
		},
		Customers: []domain.Customer{},
		Staff:     []domain.StaffMember{},
		CreatedBy: domain.AuditUser{},
		UpdatedBy: domain.AuditUser{},
	}
}

// normalizeGame maps a game record. Capacity does not apply to games.
func normalizeGame(g upstream.GameDTO) domain.CalendarEvent {
	return domain.CalendarEvent{
		ID:       g.ID,
		StartAt:  parseEventTime(g.StartTime),
		EndAt:    parseEventTime(g.EndTime),
		Capacity: 0,
		Color:    domain.ColorForProgramType(domain.ProgramTypeGame),
		Location: domain.Location{
			ID:      g.LocationID,
			Name:    g.LocationName,
			Address: "",
		},
		Program: domain.Program{
			ID:   "",
			Name: g.HomeTeamName + " vs " + g.AwayTeamName,
			Type: domain.ProgramTypeGame,
		},
		Team:      domain.Team{},
		Customers: []domain.Customer{},
		Staff:     []domain.StaffMember{},
		CreatedBy: domain.AuditUser{},
		UpdatedBy: domain.AuditUser{},
	}
}

// staffFromEventDTO maps the event-staff wire shape to the canonical staff
// record.
func staffFromEventDTO(s upstream.EventStaffDTO) domain.StaffMember {
	return domain.StaffMember{
		ID:        s.ID,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Phone:     s.Phone,
		Gender:    s.Gender,
		RoleName:  s.RoleName,
	}
}

// staffFromRoster maps a roster user to the canonical staff record. The
// roster carries one combined Name; the first token becomes the first name
// and the remainder the last name. The roster has no gender field, so that
// stays empty.
func staffFromRoster(u upstream.RosterUserDTO) domain.StaffMember {
	first, last := splitName(u.Name)
	return domain.StaffMember{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: first,
		LastName:  last,
		Phone:     u.Phone,
		Gender:    "",
		RoleName:  u.StaffInfo.Role,
	}
}

func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
