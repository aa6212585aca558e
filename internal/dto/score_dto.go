package dto

import (
	"time"

	"github.com/mentoria/mentoria-api/internal/models"
)

// ScoreSubmitRequest reports a completed activity outcome.
type ScoreSubmitRequest struct {
	ActivityType string  `json:"activity_type" validate:"required,oneof=flashcards quiz essay simulation forum_post forum_reply forum_like"`
	ActivityID   uint    `json:"activity_id" validate:"required,gt=0"`
	ItemCount    int     `json:"item_count" validate:"gte=0"`
	Accuracy     float64 `json:"accuracy" validate:"gte=0,lte=100"`
	DurationSec  int     `json:"duration_sec" validate:"gte=0"`
	WordCount    int     `json:"word_count" validate:"gte=0"`
	Rating       int     `json:"rating" validate:"gte=0,lte=5"`
}

// UnlockedAchievement describes a grant awarded during this score submission.
type UnlockedAchievement struct {
	ID       uint   `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	XPReward int    `json:"xp_reward"`
}

// ScoreResult is the typed outcome of recording a score. Achievement
// evaluation failures are reported here instead of being swallowed.
type ScoreResult struct {
	XPAwarded              int                   `json:"xp_awarded"`
	TotalXP                int64                 `json:"total_xp"`
	Level                  int                   `json:"level"`
	UnlockedAchievements   []UnlockedAchievement `json:"unlocked_achievements"`
	AchievementCheckFailed bool                  `json:"achievement_check_failed"`
}

// ScoreEntry serializes one ledger row.
type ScoreEntry struct {
	ID           uint      `json:"id"`
	ActivityType string    `json:"activity_type"`
	ActivityID   uint      `json:"activity_id"`
	ScoreValue   int       `json:"score_value"`
	Accuracy     float64   `json:"accuracy"`
	ItemCount    int       `json:"item_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewScoreEntry converts a ledger model into a DTO.
func NewScoreEntry(model models.Score) ScoreEntry {
	return ScoreEntry{
		ID:           model.ID,
		ActivityType: model.ActivityType,
		ActivityID:   model.ActivityID,
		ScoreValue:   model.ScoreValue,
		Accuracy:     model.Accuracy,
		ItemCount:    model.ItemCount,
		CreatedAt:    model.CreatedAt,
	}
}
