package models

import "time"

// User represents an account within the VidVault platform.
type User struct {
	ID        int64
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
}

// Video stores catalog metadata for an uploaded video. Username carries the
// owner's display name when the row was joined against users. Thumbnail is
// empty until a preview image has been generated.
type Video struct {
	ID          int64
	VideoID     string
	Title       string
	Description string
	Filename    string
	Thumbnail   string
	UserID      int64
	Username    string
	Views       int64
	CreatedAt   time.Time
}

// Session roles, resolved once when the session is issued.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)
