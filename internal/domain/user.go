package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// NotificationPreferences holds the per-user opt-out flags. Pointers
// distinguish "explicitly set" from "absent"; an absent flag means allowed
// (opt-out semantics, default-on).
type NotificationPreferences struct {
	Push          *bool `json:"push,omitempty" dynamodbav:"push"`
	Budget        *bool `json:"budget,omitempty" dynamodbav:"budget"`
	Approvals     *bool `json:"approvals,omitempty" dynamodbav:"approvals"`
	Events        *bool `json:"events,omitempty" dynamodbav:"events"`
	Tasks         *bool `json:"tasks,omitempty" dynamodbav:"tasks"`
	Security      *bool `json:"security,omitempty" dynamodbav:"security"`
	Announcements *bool `json:"announcements,omitempty" dynamodbav:"announcements"`
}

// ForCategory returns the flag governing the given category, or nil when the
// category was never configured.
func (p *NotificationPreferences) ForCategory(c Category) *bool {
	if p == nil {
		return nil
	}
	switch c {
	case CategoryBudget:
		return p.Budget
	case CategoryApproval:
		return p.Approvals
	case CategoryEvent:
		return p.Events
	case CategoryTask:
		return p.Tasks
	case CategorySecurity:
		return p.Security
	case CategoryAnnouncement:
		return p.Announcements
	}
	return nil
}

type User struct {
	UserID      string                   `json:"id" dynamodbav:"user_id"`
	OrgID       string                   `json:"org_id" dynamodbav:"org_id"`
	Email       string                   `json:"email" dynamodbav:"email"`
	FirstName   string                   `json:"first_name" dynamodbav:"first_name"`
	LastName    string                   `json:"last_name" dynamodbav:"last_name"`
	Role        string                   `json:"role" dynamodbav:"role"`
	Preferences *NotificationPreferences `json:"notification_preferences,omitempty" dynamodbav:"notification_preferences"`
	Enable      int                      `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time                `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time                `json:"updated" dynamodbav:"updated_at"`
}

// UpdatePreferencesRequest replaces the caller's preference flags. Omitted
// fields clear the corresponding flag back to default-on.
type UpdatePreferencesRequest struct {
	Push          *bool `json:"push"`
	Budget        *bool `json:"budget"`
	Approvals     *bool `json:"approvals"`
	Events        *bool `json:"events"`
	Tasks         *bool `json:"tasks"`
	Security      *bool `json:"security"`
	Announcements *bool `json:"announcements"`
}
