package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orghub-api/internal/application/dispatch"
	"github.com/orghub-api/internal/domain"
	"github.com/orghub-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, actorID string, req domain.CreateEventRequest) (*domain.Event, error)
	Update(ctx context.Context, actorID, eventID string, req domain.UpdateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
}

type eventStore interface {
	Put(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Scan(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, eventID string, updates map[string]interface{}) error
}

type userStore interface {
	ListEnabled(ctx context.Context) ([]domain.User, error)
}

type service struct {
	repo       eventStore
	users      userStore
	dispatcher dispatch.Service
	logger     *slog.Logger
}

func NewService(repo eventStore, users userStore, dispatcher dispatch.Service, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, users: users, dispatcher: dispatcher, logger: logger}
}

func (s *service) Create(ctx context.Context, actorID string, req domain.CreateEventRequest) (*domain.Event, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	e := &domain.Event{
		EventID:     id.New(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    startsAt.UTC(),
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, err
	}

	s.notifyMembers(ctx, e, "New event: "+e.Title)
	return e, nil
}

func (s *service) Update(ctx context.Context, actorID, eventID string, req domain.UpdateEventRequest) (*domain.Event, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.StartsAt != nil {
		startsAt, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("invalid starts_at: %w", domain.ErrBadRequest)
		}
		updates["starts_at"] = startsAt.UTC().Format(time.RFC3339)
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, eventID)
	}
	if err := s.repo.Update(ctx, eventID, updates); err != nil {
		return nil, err
	}
	e, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.notifyMembers(ctx, e, "Event updated: "+e.Title)
	return e, nil
}

func (s *service) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.repo.Get(ctx, eventID)
}

func (s *service) List(ctx context.Context) ([]domain.Event, error) {
	return s.repo.Scan(ctx)
}

// notifyMembers pushes an EVENT notification to the whole membership.
// Delivery is a side effect: failures are logged, never surfaced to the
// caller's flow.
func (s *service) notifyMembers(ctx context.Context, e *domain.Event, title string) {
	users, err := s.users.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("list recipients for event notification", "err", err)
		return
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	url := "/events/" + e.EventID
	_, err = s.dispatcher.Dispatch(ctx, ids, domain.Payload{
		Category: domain.CategoryEvent,
		Title:    title,
		Body:     e.StartsAt.Format("Mon Jan 2, 15:04") + " at " + e.Location,
		URL:      &url,
		Data:     map[string]string{"event_id": e.EventID},
	})
	if err != nil {
		s.logger.Error("dispatch event notification", "err", err, "event_id", e.EventID)
	}
}
