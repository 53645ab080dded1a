package http

import (
	"context"
	"io"

	"github.com/orghub-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	// ListEnabled returns enabled users via the `enable-index` GSI.
	// This is not a full table scan.
	ListEnabled(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// DeviceRepository is the minimal interface the router requires from a device store.
type DeviceRepository interface {
	Put(ctx context.Context, d *domain.Device) error
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
}

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

// EventRepository is the minimal interface the router requires from an event store.
type EventRepository interface {
	Put(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Scan(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, eventID string, updates map[string]interface{}) error
}

// BudgetRepository is the minimal interface the router requires from a budget store.
type BudgetRepository interface {
	Put(ctx context.Context, b *domain.BudgetRecord) error
	Get(ctx context.Context, budgetID string) (*domain.BudgetRecord, error)
	Scan(ctx context.Context) ([]domain.BudgetRecord, error)
	Update(ctx context.Context, budgetID string, updates map[string]interface{}) error
}

// ApprovalRepository is the minimal interface the router requires from an approval store.
type ApprovalRepository interface {
	Put(ctx context.Context, a *domain.Approval) error
	Get(ctx context.Context, approvalID string) (*domain.Approval, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Approval, error)
	Update(ctx context.Context, approvalID string, updates map[string]interface{}) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
