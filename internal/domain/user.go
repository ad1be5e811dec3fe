package domain

import "time"

// Roles assigned to users. Role is fixed at creation time.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`            // Primary key
	Username  string    `gorm:"unique;not null" json:"username"` // Unique username
	Email     string    `gorm:"unique;not null" json:"email"`    // Unique email
	Password  string    `gorm:"not null" json:"-"`               // Hashed password, never serialized
	Role      string    `gorm:"default:user" json:"role"`        // Role: user or admin
	CreatedAt time.Time `json:"created_at"`                      // Timestamp of creation
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
