package models

import "time"

// Role values recognised by the platform.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents a platform account. Trial accounts carry an expiry date and
// are subject to daily usage limits until upgraded.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role           string     `gorm:"size:32;not null;default:student" json:"role"`
	IsTrial        bool       `gorm:"not null;default:false" json:"is_trial"`
	TrialExpiresAt *time.Time `json:"trial_expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsStudent reports whether the account is a regular student.
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// TrialExpired reports whether the trial window closed before the given instant.
func (u User) TrialExpired(now time.Time) bool {
	return u.IsTrial && u.TrialExpiresAt != nil && u.TrialExpiresAt.Before(now)
}
