package models

import "time"

// Activity types accepted by the score ledger.
const (
	ActivityFlashcards = "flashcards"
	ActivityQuiz       = "quiz"
	ActivityEssay      = "essay"
	ActivitySimulation = "simulation"
	ActivityForumPost  = "forum_post"
	ActivityForumReply = "forum_reply"
	ActivityForumLike  = "forum_like"
)

// Score is an append-only ledger row recording the XP awarded for one
// completed activity. Rows are never mutated after insert.
type Score struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ActivityType string    `gorm:"size:32;not null" json:"activity_type"`
	ActivityID   uint      `gorm:"not null" json:"activity_id"`
	ScoreValue   int       `gorm:"not null" json:"score_value"`
	Accuracy     float64   `json:"accuracy"`
	ItemCount    int       `json:"item_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProgress aggregates the ledger into the totals that drive level and
// ranking. TotalXP is only ever moved by atomic database-side increments.
type UserProgress struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalXP        int64      `gorm:"not null;default:0" json:"total_xp"`
	QuizCount      int        `gorm:"not null;default:0" json:"quiz_count"`
	FlashcardCount int        `gorm:"not null;default:0" json:"flashcard_count"`
	EssayCount     int        `gorm:"not null;default:0" json:"essay_count"`
	StreakDays     int        `gorm:"not null;default:0" json:"streak_days"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Level derives the display level from total XP.
func (p UserProgress) Level() int {
	return int(p.TotalXP/100) + 1
}
