package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/upstream"
)

// MockEventStaffGateway is a mock implementation of EventStaffGateway
type MockEventStaffGateway struct {
	GetStaffFunc      func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error)
	AssignStaffFunc   func(ctx context.Context, eventID, staffID string) error
	UnassignStaffFunc func(ctx context.Context, eventID, staffID string) error
}

func (m *MockEventStaffGateway) GetStaff(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
	if m.GetStaffFunc != nil {
		return m.GetStaffFunc(ctx, eventID)
	}
	return []upstream.EventStaffDTO{}, nil
}

func (m *MockEventStaffGateway) AssignStaff(ctx context.Context, eventID, staffID string) error {
	if m.AssignStaffFunc != nil {
		return m.AssignStaffFunc(ctx, eventID, staffID)
	}
	return nil
}

func (m *MockEventStaffGateway) UnassignStaff(ctx context.Context, eventID, staffID string) error {
	if m.UnassignStaffFunc != nil {
		return m.UnassignStaffFunc(ctx, eventID, staffID)
	}
	return nil
}

// MockRosterFetcher is a mock implementation of RosterFetcher
type MockRosterFetcher struct {
	ListRosterFunc func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error)
}

func (m *MockRosterFetcher) ListRoster(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
	if m.ListRosterFunc != nil {
		return m.ListRosterFunc(ctx, role)
	}
	return []upstream.RosterUserDTO{}, nil
}

// MockNotificationPublisher records published staff changes
type MockNotificationPublisher struct {
	Assigned   []string
	Unassigned []string
	Err        error
}

func (m *MockNotificationPublisher) PublishStaffAssigned(ctx context.Context, eventID string, staff domain.StaffMember) error {
	m.Assigned = append(m.Assigned, staff.ID)
	return m.Err
}

func (m *MockNotificationPublisher) PublishStaffUnassigned(ctx context.Context, eventID string, staff domain.StaffMember) error {
	m.Unassigned = append(m.Unassigned, staff.ID)
	return m.Err
}

func (m *MockNotificationPublisher) Close() error { return nil }

func eventStaff(ids ...string) []upstream.EventStaffDTO {
	out := make([]upstream.EventStaffDTO, 0, len(ids))
	for _, id := range ids {
		out = append(out, upstream.EventStaffDTO{
			ID:        id,
			Email:     id + "@club.test",
			FirstName: "Staff",
			LastName:  id,
			RoleName:  "coach",
		})
	}
	return out
}

func rosterUsers(ids ...string) []upstream.RosterUserDTO {
	out := make([]upstream.RosterUserDTO, 0, len(ids))
	for _, id := range ids {
		out = append(out, upstream.RosterUserDTO{
			ID:        id,
			Name:      "Staff " + id,
			Email:     id + "@club.test",
			StaffInfo: upstream.StaffInfoDTO{Role: "coach"},
		})
	}
	return out
}

func staffIDs(staff []domain.StaffMember) []string {
	out := make([]string, 0, len(staff))
	for _, m := range staff {
		out = append(out, m.ID)
	}
	return out
}

func TestStaffReconciler_RefreshShortCircuit(t *testing.T) {
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return eventStaff("s1", "s2"), nil
		},
	}

	r := newStaffReconciler("ev1", gateway, &MockRosterFetcher{}, "")

	changes := 0
	r.onChange = func(assigned []domain.StaffMember) { changes++ }

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, changes, "first refresh populates and notifies")

	// Identical remote state: no swap, no notification.
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, changes, "identical refresh must not notify")

	gateway.GetStaffFunc = func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
		return eventStaff("s1", "s2", "s3"), nil
	}
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 2, changes, "a real change notifies again")
}

func TestStaffReconciler_RefreshOrderInsensitive(t *testing.T) {
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return eventStaff("s1", "s2"), nil
		},
	}

	r := newStaffReconciler("ev1", gateway, &MockRosterFetcher{}, "")
	changes := 0
	r.onChange = func([]domain.StaffMember) { changes++ }

	require.NoError(t, r.Refresh(context.Background()))

	// Same people, reversed wire order: sorted before comparison, so no change.
	gateway.GetStaffFunc = func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
		return eventStaff("s2", "s1"), nil
	}
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, changes)
}

func TestStaffReconciler_StaleRefreshDiscarded(t *testing.T) {
	fetchStarted := make(chan struct{})
	releaseFetch := make(chan struct{})

	stale := true
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			if stale {
				close(fetchStarted)
				<-releaseFetch
				return eventStaff("old"), nil
			}
			return eventStaff("s1"), nil
		},
	}

	r := newStaffReconciler("ev1", gateway, &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1"), nil
		},
	}, "")

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background()) }()
	<-fetchStarted
	stale = false

	// A mutation commits while the stale fetch is parked.
	require.NoError(t, r.RefreshAvailable(context.Background()))
	_, err := r.Assign(context.Background(), "s1")
	require.NoError(t, err)

	close(releaseFetch)
	require.NoError(t, <-done)

	// The stale result must not have replaced the mutated state.
	assert.Equal(t, []string{"s1"}, staffIDs(r.Assigned()))
}

func TestStaffService_AssignMovesBetweenDisjointLists(t *testing.T) {
	remote := map[string]bool{"s1": true}
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			var ids []string
			for id := range remote {
				ids = append(ids, id)
			}
			return eventStaff(ids...), nil
		},
		AssignStaffFunc: func(ctx context.Context, eventID, staffID string) error {
			remote[staffID] = true
			return nil
		},
		UnassignStaffFunc: func(ctx context.Context, eventID, staffID string) error {
			delete(remote, staffID)
			return nil
		},
	}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1", "s2", "s3"), nil
		},
	}
	publisher := &MockNotificationPublisher{}

	svc := NewStaffService(gateway, roster, nil, publisher, nil)
	ctx := context.Background()

	available, err := svc.Available(ctx, "ev1", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s2", "s3"}, staffIDs(available.Staff),
		"assigned member must not appear in the pool")

	result, err := svc.Assign(ctx, "ev1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, staffIDs(result.Assigned))
	assert.Equal(t, []string{"s2"}, publisher.Assigned)

	available, err = svc.Available(ctx, "ev1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, staffIDs(available.Staff))

	result, err = svc.Unassign(ctx, "ev1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, staffIDs(result.Assigned))
	assert.Equal(t, []string{"s1"}, publisher.Unassigned)

	// Conservation: nobody was created or lost along the way.
	available, err = svc.Available(ctx, "ev1", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s3"}, staffIDs(available.Staff))
}

func TestStaffService_AssignRollbackOnRemoteFailure(t *testing.T) {
	remoteErr := errors.New("events service rejected the assignment")

	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return eventStaff("s1"), nil
		},
		AssignStaffFunc: func(ctx context.Context, eventID, staffID string) error {
			return remoteErr
		},
	}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1", "s2"), nil
		},
	}
	publisher := &MockNotificationPublisher{}

	svc := NewStaffService(gateway, roster, nil, publisher, nil)
	ctx := context.Background()

	before, err := svc.Available(ctx, "ev1", "")
	require.NoError(t, err)

	_, err = svc.Assign(ctx, "ev1", "s2")
	assert.ErrorIs(t, err, remoteErr)

	// Both lists must be byte-for-byte what they were before the attempt.
	assigned, err := svc.Assigned(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, staffIDs(assigned.Staff))

	after, err := svc.Available(ctx, "ev1", "")
	require.NoError(t, err)
	assert.Equal(t, before.Staff, after.Staff)

	// Failed mutations never publish.
	assert.Empty(t, publisher.Assigned)
}

func TestStaffService_UnassignRollbackOnRemoteFailure(t *testing.T) {
	remoteErr := errors.New("events service unavailable")

	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return eventStaff("s1", "s2"), nil
		},
		UnassignStaffFunc: func(ctx context.Context, eventID, staffID string) error {
			return remoteErr
		},
	}

	svc := NewStaffService(gateway, &MockRosterFetcher{}, nil, &MockNotificationPublisher{}, nil)
	ctx := context.Background()

	_, err := svc.Unassign(ctx, "ev1", "s2")
	assert.ErrorIs(t, err, remoteErr)

	assigned, err := svc.Assigned(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, staffIDs(assigned.Staff))
}

func TestStaffService_AssignConflicts(t *testing.T) {
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return eventStaff("s1"), nil
		},
	}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1", "s2"), nil
		},
	}

	svc := NewStaffService(gateway, roster, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Assign(ctx, "ev1", "s1")
	assert.ErrorIs(t, err, domain.ErrStaffAlreadyAssigned)

	_, err = svc.Assign(ctx, "ev1", "ghost")
	assert.ErrorIs(t, err, domain.ErrStaffNotFound)

	_, err = svc.Unassign(ctx, "ev1", "s2")
	assert.ErrorIs(t, err, domain.ErrStaffNotAssigned)

	_, err = svc.Assign(ctx, "", "s2")
	assert.ErrorIs(t, err, domain.ErrInvalidEventID)

	_, err = svc.Assign(ctx, "ev1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidStaffID)
}

func TestStaffReconciler_PendingLockRejectsConcurrentChange(t *testing.T) {
	callStarted := make(chan struct{})
	releaseCall := make(chan struct{})

	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return []upstream.EventStaffDTO{}, nil
		},
		AssignStaffFunc: func(ctx context.Context, eventID, staffID string) error {
			close(callStarted)
			<-releaseCall
			return nil
		},
	}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1"), nil
		},
	}

	r := newStaffReconciler("ev1", gateway, roster, "")
	ctx := context.Background()
	require.NoError(t, r.RefreshAvailable(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := r.Assign(ctx, "s1")
		done <- err
	}()
	<-callStarted

	// While the first change is in flight the member is locked.
	_, err := r.Unassign(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStaffBusy)
	_, err = r.Assign(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStaffBusy)

	close(releaseCall)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"s1"}, staffIDs(r.Assigned()))
}

func TestStaffReconciler_Search(t *testing.T) {
	gateway := &MockEventStaffGateway{}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return []upstream.RosterUserDTO{
				{ID: "s1", Name: "Alice Smith", Email: "alice@club.test", StaffInfo: upstream.StaffInfoDTO{Role: "coach"}},
				{ID: "s2", Name: "Bob Jones", Email: "bob@club.test", StaffInfo: upstream.StaffInfoDTO{Role: "referee"}},
				{ID: "s3", Name: "Carol Smithson", Email: "carol@club.test", StaffInfo: upstream.StaffInfoDTO{Role: "coach"}},
			}, nil
		},
	}

	r := newStaffReconciler("ev1", gateway, roster, "")
	require.NoError(t, r.RefreshAvailable(context.Background()))

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "empty returns all", query: "", wantIDs: []string{"s1", "s2", "s3"}},
		{name: "name substring case-insensitive", query: "SMITH", wantIDs: []string{"s1", "s3"}},
		{name: "email match", query: "bob@", wantIDs: []string{"s2"}},
		{name: "role match", query: "referee", wantIDs: []string{"s2"}},
		{name: "no match", query: "zzz", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Search(tt.query)
			assert.ElementsMatch(t, tt.wantIDs, staffIDs(got))
		})
	}

	// Searching must not shrink the pool itself.
	assert.Len(t, r.Search(""), 3)
}

func TestStaffService_MutationInvalidatesCache(t *testing.T) {
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			return []upstream.EventStaffDTO{}, nil
		},
	}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1"), nil
		},
	}
	cache := &MockCalendarCache{}

	svc := NewStaffService(gateway, roster, cache, nil, nil)
	ctx := context.Background()

	_, err := svc.Assign(ctx, "ev1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.InvalidateCalls)
}

func TestStaffService_SideEffectFailuresDoNotUnwind(t *testing.T) {
	assigned := false
	gateway := &MockEventStaffGateway{
		GetStaffFunc: func(ctx context.Context, eventID string) ([]upstream.EventStaffDTO, error) {
			if assigned {
				return eventStaff("s1"), nil
			}
			return []upstream.EventStaffDTO{}, nil
		},
		AssignStaffFunc: func(ctx context.Context, eventID, staffID string) error {
			assigned = true
			return nil
		},
	}
	roster := &MockRosterFetcher{
		ListRosterFunc: func(ctx context.Context, role string) ([]upstream.RosterUserDTO, error) {
			return rosterUsers("s1"), nil
		},
	}
	cache := &MockCalendarCache{
		InvalidateFunc: func(ctx context.Context) error {
			return errors.New("redis down")
		},
	}
	publisher := &MockNotificationPublisher{Err: errors.New("broker down")}

	svc := NewStaffService(gateway, roster, cache, publisher, nil)

	result, err := svc.Assign(context.Background(), "ev1", "s1")
	require.NoError(t, err, "side effect failures must not fail the mutation")
	assert.Equal(t, []string{"s1"}, staffIDs(result.Assigned))
}
