package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/orghub-api/internal/domain"
	jwtinfra "github.com/orghub-api/internal/infrastructure/jwt"
	"github.com/orghub-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationService) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

// withClaims attaches authenticated claims the way the Auth middleware would.
func withClaims(r *http.Request, userID, role string) *http.Request {
	claims := &jwtinfra.Claims{UserID: userID, Role: role}
	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsKey, claims))
}

func newNotificationRouter(svc *mockNotificationService) http.Handler {
	h := NewNotificationHandler(svc)
	r := chi.NewRouter()
	r.Get("/notifications", h.ListUnread)
	r.Put("/notifications/{id}", h.MarkAsRead)
	return r
}

// --- tests ---

func TestListUnread_NoClaims_Unauthorized(t *testing.T) {
	router := newNotificationRouter(&mockNotificationService{})

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListUnread_ReturnsCallersRows(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("ListUnread", mock.Anything, "u1").Return([]domain.Notification{
		{NotificationID: "n1", UserID: "u1", Category: domain.CategoryEvent, Title: "Team offsite"},
	}, nil)
	router := newNotificationRouter(svc)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/notifications", nil), "u1", "member")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []domain.Notification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].NotificationID)
	svc.AssertExpectations(t)
}

func TestMarkAsRead_ForbiddenMapsTo403(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("MarkAsRead", mock.Anything, "n1", "u1").Return(nil, domain.ErrForbidden)
	router := newNotificationRouter(svc)

	req := withClaims(httptest.NewRequest(http.MethodPut, "/notifications/n1", nil), "u1", "member")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMarkAsRead_HappyPath(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("MarkAsRead", mock.Anything, "n1", "u1").Return(&domain.Notification{
		NotificationID: "n1", UserID: "u1", Read: true,
	}, nil)
	router := newNotificationRouter(svc)

	req := withClaims(httptest.NewRequest(http.MethodPut, "/notifications/n1", nil), "u1", "member")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.Notification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.True(t, got.Read)
	svc.AssertExpectations(t)
}
