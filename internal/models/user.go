package models

import "time"

// Roles known to the gate.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered citizen or administrator.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(80);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(120);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialised
	Phone     string    `json:"phone" gorm:"type:varchar(20);not null"`
	CPF       string    `json:"cpf" gorm:"column:cpf;uniqueIndex;type:varchar(14);not null"`
	AvatarURL *string   `json:"avatar_url,omitempty" gorm:"type:varchar(255)"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null;default:user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the stored role is admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
