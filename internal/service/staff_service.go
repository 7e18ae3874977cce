package service

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/dto"
	"github.com/clubhub/calendar-service/internal/repository"
	"github.com/clubhub/calendar-service/internal/upstream"
	"github.com/clubhub/calendar-service/pkg/logger"
	"github.com/clubhub/calendar-service/pkg/telemetry"
)

// EventStaffGateway is the events service surface the reconciler mutates
// through. Satisfied by *upstream.EventsClient.
type EventStaffGateway interface {
	GetStaff(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error)
	AssignStaff(ctx context.Context, eventID, staffID string) error
	UnassignStaff(ctx context.Context, eventID, staffID string) error
}

// RosterFetcher lists the assignable staff pool. Satisfied by
// *upstream.StaffClient.
type RosterFetcher interface {
	ListRoster(ctx context.Context, role string) ([]upstream.RosterUserDTO, error)
}

// StaffService exposes the per-event staff reconciliation operations.
type StaffService interface {
	// Assigned refreshes and returns the event's assigned staff, sorted by
	// name.
	Assigned(ctx context.Context, eventID string) (*dto.EventStaffResponse, error)

	// Available returns the roster members not currently assigned to the
	// event, optionally narrowed by a case-insensitive search term over name,
	// email, and role. The search never mutates the underlying pool.
	Available(ctx context.Context, eventID, query string) (*dto.AvailableStaffResponse, error)

	// Assign moves a staff member from the available pool onto the event.
	// Returns ErrStaffBusy while another change for the same member is in
	// flight.
	Assign(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error)

	// Unassign removes a staff member from the event back into the pool.
	Unassign(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error)
}

// StaffServiceConfig contains configuration for the staff service
type StaffServiceConfig struct {
	// RosterRole narrows the roster fetch to one role; empty fetches all.
	RosterRole string
}

type staffService struct {
	events    EventStaffGateway
	roster    RosterFetcher
	cache     repository.CalendarCache
	publisher NotificationPublisher
	cfg       StaffServiceConfig

	mu          sync.Mutex
	reconcilers map[string]*staffReconciler
}

// NewStaffService creates a new staff service. cache and publisher may be
// nil; both are best-effort side channels.
func NewStaffService(
	events EventStaffGateway,
	roster RosterFetcher,
	cache repository.CalendarCache,
	publisher NotificationPublisher,
	cfg *StaffServiceConfig,
) StaffService {
	s := &staffService{
		events:      events,
		roster:      roster,
		cache:       cache,
		publisher:   publisher,
		reconcilers: make(map[string]*staffReconciler),
	}
	if cfg != nil {
		s.cfg = *cfg
	}
	return s
}

// reconciler returns the per-event reconciler, creating it on first use.
// Creation does not touch the network; seeding happens on the first refresh.
func (s *staffService) reconciler(eventID string) *staffReconciler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.reconcilers[eventID]; ok {
		return r
	}
	r := newStaffReconciler(eventID, s.events, s.roster, s.cfg.RosterRole)
	r.onChange = func(assigned []domain.StaffMember) {
		logger.Get().Info("Event staff changed",
			zap.String("event_id", eventID),
			zap.Int("assigned", len(assigned)),
		)
	}
	s.reconcilers[eventID] = r
	return r
}

func (s *staffService) Assigned(ctx context.Context, eventID string) (*dto.EventStaffResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.staff.assigned")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}

	r := s.reconciler(eventID)
	if err := r.Refresh(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &dto.EventStaffResponse{EventID: eventID, Staff: r.Assigned()}, nil
}

func (s *staffService) Available(ctx context.Context, eventID, query string) (*dto.AvailableStaffResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.staff.available")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}

	r := s.reconciler(eventID)
	if err := r.Refresh(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := r.RefreshAvailable(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &dto.AvailableStaffResponse{
		EventID: eventID,
		Query:   query,
		Staff:   r.Search(query),
	}, nil
}

func (s *staffService) Assign(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
	return s.mutate(ctx, eventID, staffID, true)
}

func (s *staffService) Unassign(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
	return s.mutate(ctx, eventID, staffID, false)
}

func (s *staffService) mutate(ctx context.Context, eventID, staffID string, assign bool) (*dto.StaffMutationResponse, error) {
	op := "service.staff.assign"
	if !assign {
		op = "service.staff.unassign"
	}
	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", eventID),
		attribute.String("staff.id", staffID),
	)

	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	if staffID == "" {
		return nil, domain.ErrInvalidStaffID
	}

	r := s.reconciler(eventID)
	if err := r.Refresh(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if assign {
		if err := r.RefreshAvailable(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	var (
		staff domain.StaffMember
		err   error
	)
	if assign {
		staff, err = r.Assign(ctx, staffID)
	} else {
		staff, err = r.Unassign(ctx, staffID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Side effects after a confirmed remote write are best-effort: a failed
	// cache drop or publish is logged and never unwinds the assignment.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Get().Warn("Calendar cache invalidation failed after staff change",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
		}
	}
	if s.publisher != nil {
		var pubErr error
		if assign {
			pubErr = s.publisher.PublishStaffAssigned(ctx, eventID, staff)
		} else {
			pubErr = s.publisher.PublishStaffUnassigned(ctx, eventID, staff)
		}
		if pubErr != nil {
			logger.Get().Warn("Staff change notification publish failed",
				zap.String("event_id", eventID),
				zap.String("staff_id", staffID),
				zap.Error(pubErr),
			)
		}
	}

	// Authoritative re-fetch replaces the optimistic state. A failure here is
	// only logged; the remote write already succeeded.
	if err := r.Refresh(ctx); err != nil {
		logger.Get().Warn("Post-mutation staff refresh failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	return &dto.StaffMutationResponse{
		EventID:  eventID,
		StaffID:  staffID,
		Assigned: r.Assigned(),
	}, nil
}

// staffReconciler owns the assigned and available lists for one event and
// keeps them disjoint across refreshes and optimistic mutations.
//
// Concurrency model: reads and list swaps happen under mu. Remote calls never
// hold mu. A refresh that was in flight when a mutation landed is detected by
// the generation counter and its result discarded, so a mutation is never
// clobbered by a stale fetch.
type staffReconciler struct {
	eventID    string
	events     EventStaffGateway
	roster     RosterFetcher
	rosterRole string
	onChange   func(assigned []domain.StaffMember)

	mu         sync.Mutex
	assigned   []domain.StaffMember
	available  []domain.StaffMember
	generation uint64
	pending    map[string]struct{}
}

func newStaffReconciler(eventID string, events EventStaffGateway, roster RosterFetcher, rosterRole string) *staffReconciler {
	return &staffReconciler{
		eventID:    eventID,
		events:     events,
		roster:     roster,
		rosterRole: rosterRole,
		pending:    make(map[string]struct{}),
	}
}

// Assigned returns a copy of the current assigned list.
func (r *staffReconciler) Assigned() []domain.StaffMember {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.CloneStaff(r.assigned)
}

// Refresh re-fetches the event's assigned staff and swaps it in. If the
// fetched list is value-identical to the current one the swap and the change
// notification are both skipped. Refreshes are deliberately not coalesced;
// each caller gets its own fetch and the generation counter arbitrates.
func (r *staffReconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	startGen := r.generation
	r.mu.Unlock()

	dtos, err := r.events.GetStaff(ctx, r.eventID)
	if err != nil {
		return err
	}

	fetched := make([]domain.StaffMember, 0, len(dtos))
	for _, d := range dtos {
		fetched = append(fetched, staffFromEventDTO(d))
	}
	domain.SortStaffByName(fetched)

	r.mu.Lock()
	defer r.mu.Unlock()

	// A mutation (or a later refresh) committed while this fetch was in
	// flight; its state is newer than ours.
	if r.generation != startGen {
		return nil
	}
	if domain.StaffListsEqual(r.assigned, fetched) {
		return nil
	}

	r.assigned = fetched
	r.available = subtractStaff(r.available, fetched)
	r.generation++
	if r.onChange != nil {
		r.onChange(domain.CloneStaff(fetched))
	}
	return nil
}

// RefreshAvailable re-fetches the roster and recomputes the assignable pool
// as roster minus assigned.
func (r *staffReconciler) RefreshAvailable(ctx context.Context) error {
	users, err := r.roster.ListRoster(ctx, r.rosterRole)
	if err != nil {
		return err
	}

	pool := make([]domain.StaffMember, 0, len(users))
	for _, u := range users {
		pool = append(pool, staffFromRoster(u))
	}
	domain.SortStaffByName(pool)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.available = subtractStaff(pool, r.assigned)
	return nil
}

// Search filters the available pool by a case-insensitive substring match
// over full name, email, and role name. Empty query returns the whole pool.
// The pool itself is never modified.
func (r *staffReconciler) Search(query string) []domain.StaffMember {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.CloneStaff(r.available)
	}

	out := make([]domain.StaffMember, 0, len(r.available))
	for _, m := range r.available {
		if strings.Contains(strings.ToLower(m.FullName()), q) ||
			strings.Contains(strings.ToLower(m.Email), q) ||
			strings.Contains(strings.ToLower(m.RoleName), q) {
			out = append(out, m)
		}
	}
	return out
}

// Assign optimistically moves staffID from available to assigned, confirms
// the move with the events service, and rolls the local state back to a
// pre-mutation snapshot if the remote write fails.
func (r *staffReconciler) Assign(ctx context.Context, staffID string) (domain.StaffMember, error) {
	r.mu.Lock()
	if _, busy := r.pending[staffID]; busy {
		r.mu.Unlock()
		return domain.StaffMember{}, domain.ErrStaffBusy
	}
	if indexOfStaff(r.assigned, staffID) >= 0 {
		r.mu.Unlock()
		return domain.StaffMember{}, domain.ErrStaffAlreadyAssigned
	}
	idx := indexOfStaff(r.available, staffID)
	if idx < 0 {
		r.mu.Unlock()
		return domain.StaffMember{}, domain.ErrStaffNotFound
	}

	member := r.available[idx]
	assignedSnap := domain.CloneStaff(r.assigned)
	availableSnap := domain.CloneStaff(r.available)

	r.available = append(r.available[:idx:idx], r.available[idx+1:]...)
	r.assigned = append(domain.CloneStaff(r.assigned), member)
	domain.SortStaffByName(r.assigned)
	r.generation++
	r.pending[staffID] = struct{}{}
	r.mu.Unlock()

	err := r.events.AssignStaff(ctx, r.eventID, staffID)

	r.mu.Lock()
	delete(r.pending, staffID)
	if err != nil {
		r.assigned = assignedSnap
		r.available = availableSnap
		r.generation++
		r.mu.Unlock()
		return domain.StaffMember{}, err
	}
	r.mu.Unlock()
	return member, nil
}

// Unassign is the mirror of Assign: assigned to available, confirmed
// remotely, rolled back on failure.
func (r *staffReconciler) Unassign(ctx context.Context, staffID string) (domain.StaffMember, error) {
	r.mu.Lock()
	if _, busy := r.pending[staffID]; busy {
		r.mu.Unlock()
		return domain.StaffMember{}, domain.ErrStaffBusy
	}
	idx := indexOfStaff(r.assigned, staffID)
	if idx < 0 {
		r.mu.Unlock()
		return domain.StaffMember{}, domain.ErrStaffNotAssigned
	}

	member := r.assigned[idx]
	assignedSnap := domain.CloneStaff(r.assigned)
	availableSnap := domain.CloneStaff(r.available)

	r.assigned = append(r.assigned[:idx:idx], r.assigned[idx+1:]...)
	r.available = append(domain.CloneStaff(r.available), member)
	domain.SortStaffByName(r.available)
	r.generation++
	r.pending[staffID] = struct{}{}
	r.mu.Unlock()

	err := r.events.UnassignStaff(ctx, r.eventID, staffID)

	r.mu.Lock()
	delete(r.pending, staffID)
	if err != nil {
		r.assigned = assignedSnap
		r.available = availableSnap
		r.generation++
		r.mu.Unlock()
		return domain.StaffMember{}, err
	}
	r.mu.Unlock()
	return member, nil
}

func indexOfStaff(staff []domain.StaffMember, id string) int {
	for i := range staff {
		if staff[i].ID == id {
			return i
		}
	}
	return -1
}

// subtractStaff returns the members of pool whose IDs do not appear in taken.
func subtractStaff(pool, taken []domain.StaffMember) []domain.StaffMember {
	if len(pool) == 0 {
		return pool
	}
	ids := make(map[string]struct{}, len(taken))
	for _, m := range taken {
		ids[m.ID] = struct{}{}
	}
	out := make([]domain.StaffMember, 0, len(pool))
	for _, m := range pool {
		if _, ok := ids[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}
