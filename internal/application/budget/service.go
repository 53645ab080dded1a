package budget

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/orghub-api/internal/application/dispatch"
	"github.com/orghub-api/internal/domain"
	"github.com/orghub-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, actorID string, req domain.CreateBudgetRequest) (*domain.BudgetRecord, error)
	Get(ctx context.Context, budgetID string) (*domain.BudgetRecord, error)
	List(ctx context.Context) ([]domain.BudgetRecord, error)
	// AttachReceipt stores the receipt in the object store and links it to
	// the record.
	AttachReceipt(ctx context.Context, budgetID string, r io.Reader, contentType string) (*domain.BudgetRecord, error)
	// DownloadReceipt streams the attached receipt. The caller must close
	// the reader.
	DownloadReceipt(ctx context.Context, budgetID string) (io.ReadCloser, error)
	// RemoveReceipt deletes the stored object and unlinks it from the record.
	RemoveReceipt(ctx context.Context, budgetID string) (*domain.BudgetRecord, error)
}

type budgetStore interface {
	Put(ctx context.Context, b *domain.BudgetRecord) error
	Get(ctx context.Context, budgetID string) (*domain.BudgetRecord, error)
	Scan(ctx context.Context) ([]domain.BudgetRecord, error)
	Update(ctx context.Context, budgetID string, updates map[string]interface{}) error
}

type userStore interface {
	ListEnabled(ctx context.Context) ([]domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo       budgetStore
	users      userStore
	objects    objectStore
	dispatcher dispatch.Service
	logger     *slog.Logger
}

func NewService(repo budgetStore, users userStore, objects objectStore, dispatcher dispatch.Service, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, users: users, objects: objects, dispatcher: dispatcher, logger: logger}
}

func (s *service) Create(ctx context.Context, actorID string, req domain.CreateBudgetRequest) (*domain.BudgetRecord, error) {
	now := time.Now().UTC()
	b := &domain.BudgetRecord{
		BudgetID:    id.New(),
		Label:       req.Label,
		AmountCents: req.AmountCents,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, b); err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, b)
	return b, nil
}

func (s *service) Get(ctx context.Context, budgetID string) (*domain.BudgetRecord, error) {
	return s.repo.Get(ctx, budgetID)
}

func (s *service) List(ctx context.Context) ([]domain.BudgetRecord, error) {
	return s.repo.Scan(ctx)
}

func (s *service) AttachReceipt(ctx context.Context, budgetID string, r io.Reader, contentType string) (*domain.BudgetRecord, error) {
	if _, err := s.repo.Get(ctx, budgetID); err != nil {
		return nil, err
	}
	key := "receipts/" + budgetID
	if _, err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("upload receipt: %w", err)
	}
	if err := s.repo.Update(ctx, budgetID, map[string]interface{}{"receipt_key": key}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, budgetID)
}

func (s *service) DownloadReceipt(ctx context.Context, budgetID string) (io.ReadCloser, error) {
	b, err := s.repo.Get(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.ReceiptKey == nil {
		return nil, fmt.Errorf("no receipt attached: %w", domain.ErrNotFound)
	}
	return s.objects.Download(ctx, *b.ReceiptKey)
}

func (s *service) RemoveReceipt(ctx context.Context, budgetID string) (*domain.BudgetRecord, error) {
	b, err := s.repo.Get(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.ReceiptKey == nil {
		return b, nil
	}
	if err := s.objects.Delete(ctx, *b.ReceiptKey); err != nil {
		return nil, fmt.Errorf("delete receipt: %w", err)
	}
	if err := s.repo.Update(ctx, budgetID, map[string]interface{}{"receipt_key": nil}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, budgetID)
}

// notifyAdmins pushes a BUDGET notification to every enabled admin.
func (s *service) notifyAdmins(ctx context.Context, b *domain.BudgetRecord) {
	users, err := s.users.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("list recipients for budget notification", "err", err)
		return
	}
	var ids []string
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			ids = append(ids, u.UserID)
		}
	}
	url := "/finance/" + b.BudgetID
	_, err = s.dispatcher.Dispatch(ctx, ids, domain.Payload{
		Category: domain.CategoryBudget,
		Title:    "Budget entry: " + b.Label,
		Body:     fmt.Sprintf("Amount: %.2f", float64(b.AmountCents)/100),
		URL:      &url,
		Data:     map[string]string{"budget_id": b.BudgetID},
	})
	if err != nil {
		s.logger.Error("dispatch budget notification", "err", err, "budget_id", b.BudgetID)
	}
}
