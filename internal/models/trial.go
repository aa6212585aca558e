package models

import "time"

// TrialAllowedContent whitelists a single content item for trial accounts.
type TrialAllowedContent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContentType string    `gorm:"size:32;not null;uniqueIndex:idx_trial_content" json:"content_type"`
	ContentID   uint      `gorm:"not null;uniqueIndex:idx_trial_content" json:"content_id"`
	CreatedAt   time.Time `json:"created_at"`
}
