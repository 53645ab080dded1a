package domain

import "time"

const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Approval is a request awaiting an admin decision (USG applications,
// spending sign-offs and the like).
type Approval struct {
	ApprovalID  string     `json:"id" dynamodbav:"approval_id"`
	Subject     string     `json:"subject" dynamodbav:"subject"`
	Detail      string     `json:"detail" dynamodbav:"detail"`
	RequesterID string     `json:"requester_id" dynamodbav:"requester_id"`
	Status      string     `json:"status" dynamodbav:"status"`
	DecidedBy   *string    `json:"decided_by,omitempty" dynamodbav:"decided_by"`
	DecidedAt   *time.Time `json:"decided_at,omitempty" dynamodbav:"decided_at"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateApprovalRequest struct {
	Subject string `json:"subject" validate:"required"`
	Detail  string `json:"detail"`
}

type DecideApprovalRequest struct {
	Approve bool `json:"approve"`
}
