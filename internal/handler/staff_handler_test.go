package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/internal/dto"
	"github.com/clubhub/calendar-service/pkg/response"
)

// MockStaffService is a mock implementation of StaffService for testing
type MockStaffService struct {
	AssignedFunc  func(ctx context.Context, eventID string) (*dto.EventStaffResponse, error)
	AvailableFunc func(ctx context.Context, eventID, query string) (*dto.AvailableStaffResponse, error)
	AssignFunc    func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error)
	UnassignFunc  func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error)
}

func (m *MockStaffService) Assigned(ctx context.Context, eventID string) (*dto.EventStaffResponse, error) {
	if m.AssignedFunc != nil {
		return m.AssignedFunc(ctx, eventID)
	}
	return &dto.EventStaffResponse{EventID: eventID, Staff: []domain.StaffMember{}}, nil
}

func (m *MockStaffService) Available(ctx context.Context, eventID, query string) (*dto.AvailableStaffResponse, error) {
	if m.AvailableFunc != nil {
		return m.AvailableFunc(ctx, eventID, query)
	}
	return &dto.AvailableStaffResponse{EventID: eventID, Staff: []domain.StaffMember{}}, nil
}

func (m *MockStaffService) Assign(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, eventID, staffID)
	}
	return &dto.StaffMutationResponse{EventID: eventID, StaffID: staffID}, nil
}

func (m *MockStaffService) Unassign(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
	if m.UnassignFunc != nil {
		return m.UnassignFunc(ctx, eventID, staffID)
	}
	return &dto.StaffMutationResponse{EventID: eventID, StaffID: staffID}, nil
}

func setupStaffRouter(svc *MockStaffService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewStaffHandler(svc)

	router.GET("/events/:id/staff", h.ListAssigned)
	router.GET("/events/:id/staff/available", h.ListAvailable)
	router.POST("/events/:id/staff/:staffId", h.Assign)
	router.DELETE("/events/:id/staff/:staffId", h.Unassign)

	return router
}

func TestStaffHandler_Assign(t *testing.T) {
	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "successful assignment",
			mockFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
				return &dto.StaffMutationResponse{
					EventID: eventID,
					StaffID: staffID,
					Assigned: []domain.StaffMember{
						{ID: staffID, FirstName: "Alice", LastName: "Smith"},
					},
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "already assigned",
			mockFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
				return nil, domain.ErrStaffAlreadyAssigned
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "ALREADY_ASSIGNED",
		},
		{
			name: "staff not in pool",
			mockFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
				return nil, domain.ErrStaffNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "STAFF_NOT_FOUND",
		},
		{
			name: "change already in flight",
			mockFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
				return nil, domain.ErrStaffBusy
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "STAFF_BUSY",
		},
		{
			name: "event missing",
			mockFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
				return nil, domain.ErrEventNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "EVENT_NOT_FOUND",
		},
		{
			name: "events service down",
			mockFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
				return nil, domain.ErrUpstreamUnavailable
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "UPSTREAM_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupStaffRouter(&MockStaffService{AssignFunc: tt.mockFunc})

			req := httptest.NewRequest(http.MethodPost, "/events/ev1/staff/s1", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Assign() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.expectedCode != "" {
				var resp response.Response
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if resp.Success {
					t.Error("Assign() error response must not report success")
				}
				if resp.Error == nil || resp.Error.Code != tt.expectedCode {
					t.Errorf("Assign() error = %+v, want code %s", resp.Error, tt.expectedCode)
				}
			}
		})
	}
}

func TestStaffHandler_Unassign(t *testing.T) {
	svc := &MockStaffService{
		UnassignFunc: func(ctx context.Context, eventID, staffID string) (*dto.StaffMutationResponse, error) {
			return nil, domain.ErrStaffNotAssigned
		},
	}
	router := setupStaffRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/events/ev1/staff/s1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Unassign() status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestStaffHandler_ListAvailable_PassesQuery(t *testing.T) {
	var gotQuery string
	svc := &MockStaffService{
		AvailableFunc: func(ctx context.Context, eventID, query string) (*dto.AvailableStaffResponse, error) {
			gotQuery = query
			return &dto.AvailableStaffResponse{EventID: eventID, Query: query, Staff: []domain.StaffMember{}}, nil
		},
	}
	router := setupStaffRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/events/ev1/staff/available?q=smith", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("ListAvailable() status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotQuery != "smith" {
		t.Errorf("ListAvailable() passed query %q, want %q", gotQuery, "smith")
	}
}

func TestStaffHandler_ListAssigned(t *testing.T) {
	svc := &MockStaffService{
		AssignedFunc: func(ctx context.Context, eventID string) (*dto.EventStaffResponse, error) {
			return &dto.EventStaffResponse{
				EventID: eventID,
				Staff: []domain.StaffMember{
					{ID: "s1", FirstName: "Alice", LastName: "Smith"},
				},
			}, nil
		},
	}
	router := setupStaffRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/events/ev1/staff", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ListAssigned() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Success bool                   `json:"success"`
		Data    dto.EventStaffResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || len(resp.Data.Staff) != 1 || resp.Data.Staff[0].ID != "s1" {
		t.Errorf("ListAssigned() body = %+v, want one staff member s1", resp)
	}
}
