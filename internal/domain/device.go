package domain

import "time"

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Device maps a user to one push-registration token. A token is unique across
// the whole directory; deactivation is a tombstone (is_active=false), never a
// hard delete, so re-registration simply flips the row back on.
type Device struct {
	DeviceID   string    `json:"id" dynamodbav:"device_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Token      string    `json:"token" dynamodbav:"token"`
	Platform   string    `json:"platform" dynamodbav:"platform"`
	LastSeenAt time.Time `json:"last_seen_at" dynamodbav:"last_seen_at"`
	IsActive   bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}
