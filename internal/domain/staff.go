package domain

import (
	"sort"
	"strings"
)

// StaffMember is the canonical per-person shape used by the assignment tab.
// Two upstream shapes feed it (the event-staff DTO and the roster record);
// both mappers must produce field-identical output for the same person.
type StaffMember struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	RoleName  string `json:"role_name"`
}

// FullName returns "First Last" with surrounding whitespace trimmed, so a
// person with only one name part still compares cleanly.
func (s StaffMember) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// SortStaffByName orders staff by full name, case-insensitive, in place.
// Ties fall back to ID so the order is deterministic.
func SortStaffByName(staff []StaffMember) {
	sort.SliceStable(staff, func(i, j int) bool {
		a := strings.ToLower(staff[i].FullName())
		b := strings.ToLower(staff[j].FullName())
		if a != b {
			return a < b
		}
		return staff[i].ID < staff[j].ID
	})
}

// StaffListsEqual reports whether two staff lists are element-wise identical.
// Value comparison, not reference: used by the refresh path to short-circuit
// redundant state replacement and change notifications.
func StaffListsEqual(a, b []StaffMember) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CloneStaff returns a structural copy, used for optimistic-mutation
// snapshots that must survive later changes to the original slice.
func CloneStaff(staff []StaffMember) []StaffMember {
	out := make([]StaffMember, len(staff))
	copy(out, staff)
	return out
}
