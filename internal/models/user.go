package models

import "time"

// Roles a user account can hold. Role gates course authoring, grading and
// administrative endpoints.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents an account on the platform: a learner, a course author or
// an administrator.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;not null;default:student" json:"role"`
	Avatar    string    `gorm:"size:512" json:"avatar"`
	Bio       string    `gorm:"type:text" json:"bio"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanModerate reports whether the user may act on resources owned by others.
func (u User) CanModerate() bool {
	return u.Role == RoleAdmin
}
