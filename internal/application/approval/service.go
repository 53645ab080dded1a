package approval

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
	// Submit files a new approval request and notifies the admins who can
	// decide it.
	Submit(ctx context.Context, requesterID string, req domain.CreateApprovalRequest) (*domain.Approval, error)
	// Decide resolves a pending request and notifies the requester.
	Decide(ctx context.Context, deciderID, approvalID string, approve bool) (*domain.Approval, error)
	Get(ctx context.Context, approvalID string) (*domain.Approval, error)
	ListPending(ctx context.Context) ([]domain.Approval, error)
}

type approvalStore interface {
	Put(ctx context.Context, a *domain.Approval) error
	Get(ctx context.Context, approvalID string) (*domain.Approval, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Approval, error)
	Update(ctx context.Context, approvalID string, updates map[string]interface{}) error
}

type userStore interface {
	ListEnabled(ctx context.Context) ([]domain.User, error)
}

type service struct {
	repo       approvalStore
	users      userStore
	dispatcher dispatch.Service
	logger     *slog.Logger
}

func NewService(repo approvalStore, users userStore, dispatcher dispatch.Service, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, users: users, dispatcher: dispatcher, logger: logger}
}

func (s *service) Submit(ctx context.Context, requesterID string, req domain.CreateApprovalRequest) (*domain.Approval, error) {
	now := time.Now().UTC()
	a := &domain.Approval{
		ApprovalID:  id.New(),
		Subject:     req.Subject,
		Detail:      req.Detail,
		RequesterID: requesterID,
		Status:      domain.ApprovalPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, s.adminIDs(ctx), a, "Approval requested: "+a.Subject)
	return a, nil
}

func (s *service) Decide(ctx context.Context, deciderID, approvalID string, approve bool) (*domain.Approval, error) {
	a, err := s.repo.Get(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.ApprovalPending {
		return nil, fmt.Errorf("approval already decided: %w", domain.ErrConflict)
	}

	status := domain.ApprovalRejected
	if approve {
		status = domain.ApprovalApproved
	}
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, approvalID, map[string]interface{}{
		"status":     status,
		"decided_by": deciderID,
		"decided_at": now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	a, err = s.repo.Get(ctx, approvalID)
	if err != nil {
		return nil, err
	}

	title := "Approved: " + a.Subject
	if !approve {
		title = "Rejected: " + a.Subject
	}
	s.notify(ctx, []string{a.RequesterID}, a, title)
	return a, nil
}

func (s *service) Get(ctx context.Context, approvalID string) (*domain.Approval, error) {
	return s.repo.Get(ctx, approvalID)
}

func (s *service) ListPending(ctx context.Context) ([]domain.Approval, error) {
	return s.repo.ListByStatus(ctx, domain.ApprovalPending)
}

func (s *service) adminIDs(ctx context.Context) []string {
	users, err := s.users.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("list recipients for approval notification", "err", err)
		return nil
	}
	var ids []string
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			ids = append(ids, u.UserID)
		}
	}
	return ids
}

func (s *service) notify(ctx context.Context, recipients []string, a *domain.Approval, title string) {
	url := "/approvals/" + a.ApprovalID
	_, err := s.dispatcher.Dispatch(ctx, recipients, domain.Payload{
		Category: domain.CategoryApproval,
		Title:    title,
		Body:     a.Detail,
		URL:      &url,
		Data:     map[string]string{"approval_id": a.ApprovalID},
	})
	if err != nil {
		s.logger.Error("dispatch approval notification", "err", err, "approval_id", a.ApprovalID)
	}
}
