package domain

import "time"

// BudgetRecord is a single finance ledger entry. Amounts are integer cents.
type BudgetRecord struct {
	BudgetID    string    `json:"id" dynamodbav:"budget_id"`
	Label       string    `json:"label" dynamodbav:"label"`
	AmountCents int64     `json:"amount_cents" dynamodbav:"amount_cents"`
	ReceiptKey  *string   `json:"receipt_key,omitempty" dynamodbav:"receipt_key"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateBudgetRequest struct {
	Label       string `json:"label" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required"`
}
