package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orghub-api/internal/domain"
	"github.com/orghub-api/internal/pkg/id"
)

type Service interface {
	// Register upserts a push registration. Tokens are unique system-wide:
	// a token that already exists is re-homed to userID and reactivated
	// instead of inserted twice.
	Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error)
	List(ctx context.Context, userID string) ([]domain.Device, error)
	// Deactivate tombstones the caller's own device.
	Deactivate(ctx context.Context, userID, deviceID string) error
}

type deviceStore interface {
	Put(ctx context.Context, d *domain.Device) error
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
}

type service struct {
	repo deviceStore
}

func NewService(repo deviceStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error) {
	now := time.Now().UTC()

	existing, err := s.repo.GetByToken(ctx, req.Token)
	if err == nil {
		updates := map[string]interface{}{
			"user_id":      userID,
			"platform":     req.Platform,
			"is_active":    true,
			"last_seen_at": now.Format(time.RFC3339),
		}
		if err := s.repo.Update(ctx, existing.DeviceID, updates); err != nil {
			return nil, err
		}
		return s.repo.Get(ctx, existing.DeviceID)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	d := &domain.Device{
		DeviceID:   id.New(),
		UserID:     userID,
		Token:      req.Token,
		Platform:   req.Platform,
		LastSeenAt: now,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Deactivate(ctx context.Context, userID, deviceID string) error {
	d, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	if d.UserID != userID {
		return fmt.Errorf("device belongs to another user: %w", domain.ErrForbidden)
	}
	if !d.IsActive {
		return nil
	}
	return s.repo.Update(ctx, deviceID, map[string]interface{}{"is_active": false})
}
