package model

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

type UserRole string

const (
	UserStatusNormal    UserStatus = "normal"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Email        *string    `db:"email" json:"email,omitempty"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Campus       *string    `db:"campus" json:"campus,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	PopupSeen    bool       `db:"popup_seen" json:"popup_seen"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
