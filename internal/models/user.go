package models

import "time"

// Role controls which consensus and moderation operations a user may invoke.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Registered reports whether the role may submit and vote.
func (r Role) Registered() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(16);not null" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}

// UserPatch lists the profile fields a user may change.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

func (p UserPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Username != nil && *p.Username != "" {
		cols["username"] = *p.Username
	}
	if p.Email != nil && *p.Email != "" {
		cols["email"] = *p.Email
	}
	return cols
}
