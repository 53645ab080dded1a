package domain

import "time"

// Category classifies a notification. The set is closed; each category has a
// matching per-user opt-out flag in NotificationPreferences.
type Category string

const (
	CategoryBudget       Category = "BUDGET"
	CategoryApproval     Category = "APPROVAL"
	CategoryEvent        Category = "EVENT"
	CategoryTask         Category = "TASK"
	CategorySecurity     Category = "SECURITY"
	CategoryAnnouncement Category = "ANNOUNCEMENT"
)

// Categories lists every valid category, in declaration order.
var Categories = []Category{
	CategoryBudget,
	CategoryApproval,
	CategoryEvent,
	CategoryTask,
	CategorySecurity,
	CategoryAnnouncement,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryBudget, CategoryApproval, CategoryEvent, CategoryTask, CategorySecurity, CategoryAnnouncement:
		return true
	}
	return false
}

// Notification is the durable in-app record. One row is written per eligible
// recipient per dispatch; push delivery mirrors these rows, never the reverse.
type Notification struct {
	NotificationID string            `json:"id" dynamodbav:"notification_id"`
	UserID         string            `json:"user_id" dynamodbav:"user_id"`
	Category       Category          `json:"category" dynamodbav:"category"`
	Title          string            `json:"title" dynamodbav:"title"`
	Body           string            `json:"body" dynamodbav:"body"`
	URL            *string           `json:"url,omitempty" dynamodbav:"url"`
	Data           map[string]string `json:"data,omitempty" dynamodbav:"data"`
	Read           bool              `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time         `json:"created" dynamodbav:"created_at"`
}

// Payload is the unit of work callers hand to the dispatcher. Content is
// assumed pre-formatted; the dispatcher does no templating.
type Payload struct {
	Category Category          `json:"category" validate:"required"`
	Title    string            `json:"title" validate:"required"`
	Body     string            `json:"body" validate:"required"`
	URL      *string           `json:"url,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}
