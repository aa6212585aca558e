package models

import "time"

// Class groups students that share the same enabled feature set.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassEnrollment links a student to a class.
type ClassEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_user" json:"class_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
}

// ClassFeaturePermission enables one feature for every member of a class.
// No history is retained: granting creates the row, revoking deletes it.
type ClassFeaturePermission struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ClassID    uint       `gorm:"not null;uniqueIndex:idx_class_feature" json:"class_id"`
	FeatureKey FeatureKey `gorm:"size:32;not null;uniqueIndex:idx_class_feature" json:"feature_key"`
	CreatedAt  time.Time  `json:"created_at"`
}
