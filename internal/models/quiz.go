package models

import "time"

// QuizAttempt records one completed quiz run.
type QuizAttempt struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	QuizID        uint      `gorm:"not null" json:"quiz_id"`
	QuestionCount int       `gorm:"not null" json:"question_count"`
	CorrectCount  int       `gorm:"not null" json:"correct_count"`
	DurationSec   int       `json:"duration_sec"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuizAnswer stores a single answered question within an attempt.
type QuizAnswer struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	AttemptID  uint        `gorm:"not null;index" json:"attempt_id"`
	QuestionID uint        `gorm:"not null" json:"question_id"`
	Selected   string      `gorm:"size:8" json:"selected"`
	Correct    bool        `gorm:"not null" json:"correct"`
	CreatedAt  time.Time   `json:"created_at"`
	Attempt    QuizAttempt `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attempt"`
}
