package models

import "time"

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "superadmin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the admin identity handed back by a successful sign-in.
// Times are unix milliseconds, matching what the identity endpoints emit.
type User struct {
	ProjectID     string `json:"projectId"`
	UID           string `json:"uid"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	CreatedTime   int64  `json:"createdTime"`
	LastLoginTime int64  `json:"lastLoginTime"`
}

// Admin is the stored account behind a User.
type Admin struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// Profile projects an Admin onto the User shape for the given project.
func (a Admin) Profile(projectID string) User {
	user := User{
		ProjectID:   projectID,
		UID:         a.ID,
		Name:        a.DisplayName,
		Email:       a.Email,
		CreatedTime: a.CreatedAt.UnixMilli(),
	}
	if a.LastLoginAt != nil {
		user.LastLoginTime = a.LastLoginAt.UnixMilli()
	}
	return user
}

type Session struct {
	ID         string
	UserID     string
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

type Media struct {
	ID          string
	UploadedBy  string
	Bucket      string
	ObjectKey   string
	Format      string
	ContentType string
	SizeBytes   int64
	Checksum    []byte
	Signature   []byte
	CreatedAt   time.Time
}
