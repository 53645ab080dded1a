package user

import (
	"context"
	"log/slog"

	"github.com/orghub-api/internal/application/dispatch"
	"github.com/orghub-api/internal/domain"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error)
	// UpdatePreferences replaces the user's flags wholesale; omitted fields
	// reset to default-on.
	UpdatePreferences(ctx context.Context, userID string, req domain.UpdatePreferencesRequest) (*domain.NotificationPreferences, error)
	List(ctx context.Context) ([]domain.User, error)
	// Announce broadcasts an ANNOUNCEMENT notification to every enabled user.
	Announce(ctx context.Context, p domain.Payload) (dispatch.Result, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	ListEnabled(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	repo       userStore
	dispatcher dispatch.Service
	logger     *slog.Logger
}

func NewService(repo userStore, dispatcher dispatch.Service, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, dispatcher: dispatcher, logger: logger}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Preferences == nil {
		return &domain.NotificationPreferences{}, nil
	}
	return u.Preferences, nil
}

func (s *service) UpdatePreferences(ctx context.Context, userID string, req domain.UpdatePreferencesRequest) (*domain.NotificationPreferences, error) {
	prefs := &domain.NotificationPreferences{
		Push:          req.Push,
		Budget:        req.Budget,
		Approvals:     req.Approvals,
		Events:        req.Events,
		Tasks:         req.Tasks,
		Security:      req.Security,
		Announcements: req.Announcements,
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{
		"notification_preferences": prefs,
	}); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListEnabled(ctx)
}

func (s *service) Announce(ctx context.Context, p domain.Payload) (dispatch.Result, error) {
	users, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return dispatch.Result{}, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	p.Category = domain.CategoryAnnouncement
	res, err := s.dispatcher.Dispatch(ctx, ids, p)
	if err != nil {
		return res, err
	}
	s.logger.Info("announcement dispatched",
		"recipients", res.Recorded, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}
