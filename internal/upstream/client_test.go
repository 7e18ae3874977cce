package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/dto"
)

func TestEventsClient_List(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"id": "e1", "start_at": "2024-06-03T08:00:00Z", "end_at": "2024-06-03T09:00:00Z",
				 "program": {"id": "prog1", "name": "Skills", "type": "course"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewEventsClient(server.URL, 5*time.Second)

	events, err := client.List(context.Background(), &dto.CalendarQuery{
		After:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Before:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		LocationID:  "loc1",
		ProgramType: "course",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "course", events[0].Program.Type)

	assert.Equal(t, "2024-06-01", gotQuery["after"])
	assert.Equal(t, "2024-06-30", gotQuery["before"])
	assert.Equal(t, "date", gotQuery["response_type"])
	assert.Equal(t, "loc1", gotQuery["location_id"])
	assert.Equal(t, "course", gotQuery["program_type"])
	_, hasProgramID := gotQuery["program_id"]
	assert.False(t, hasProgramID, "empty filters must be omitted")
}

func TestEventsClient_Get_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success": false, "error": {"code": "NOT_FOUND", "message": "no such event"}}`))
	}))
	defer server.Close()

	client := NewEventsClient(server.URL, 5*time.Second)

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventsClient_AssignStaff(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewEventsClient(server.URL, 5*time.Second)

	require.NoError(t, client.AssignStaff(context.Background(), "ev1", "s1"))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/events/ev1/staff/s1", gotPath)

	require.NoError(t, client.UnassignStaff(context.Background(), "ev1", "s1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestEventsClient_AssignStaff_SurfacesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success": false, "error": {"code": "CONFLICT", "message": "staff member double booked"}}`))
	}))
	defer server.Close()

	client := NewEventsClient(server.URL, 5*time.Second)

	err := client.AssignStaff(context.Background(), "ev1", "s1")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "staff member double booked")
}

func TestStaffClient_ListRoster_CapitalizedFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/staffs", r.URL.Path)
		assert.Equal(t, "coach", r.URL.Query().Get("role"))
		w.Header().Set("Content-Type", "application/json")
		// the staff service serializes exported Go field names
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"ID": "s1", "Name": "Alice Smith", "Email": "alice@club.test",
				 "Phone": "555-0100", "StaffInfo": {"Role": "coach"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewStaffClient(server.URL, 5*time.Second)

	roster, err := client.ListRoster(context.Background(), "coach")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "s1", roster[0].ID)
	assert.Equal(t, "Alice Smith", roster[0].Name)
	assert.Equal(t, "coach", roster[0].StaffInfo.Role)
}

func TestClient_BarePayloadFallback(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			// no envelope, the payload comes back bare
			w.Write([]byte(`[{"id": "g1", "start_time": "2024-06-05T18:00:00Z", "end_time": "2024-06-05T20:00:00Z"}]`))
		}))
		defer server.Close()

		client := NewGamesClient(server.URL, 5*time.Second)

		games, err := client.List(context.Background())
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, "g1", games[0].ID)
	})

	t.Run("bare object", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "e1", "start_at": "2024-06-03T08:00:00Z", "end_at": "2024-06-03T09:00:00Z"}`))
		}))
		defer server.Close()

		client := NewEventsClient(server.URL, 5*time.Second)

		event, err := client.Get(context.Background(), "e1")
		require.NoError(t, err)
		assert.Equal(t, "e1", event.ID)
	})

	t.Run("non-json body is still an upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway error</html>`))
		}))
		defer server.Close()

		client := NewGamesClient(server.URL, 5*time.Second)

		_, err := client.List(context.Background())
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewGamesClient(server.URL, 50*time.Millisecond)

	_, err := client.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewPracticesClient(server.URL, time.Second)

	_, err := client.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
