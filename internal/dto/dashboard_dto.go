package dto

import "time"

// AchievementBadge summarizes an unlocked achievement on the dashboard.
type AchievementBadge struct {
	ID         uint      `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// DashboardResponse aggregates a student's progress view.
type DashboardResponse struct {
	TotalXP        int64              `json:"total_xp"`
	Level          int                `json:"level"`
	Rank           int64              `json:"rank"`
	QuizCount      int                `json:"quiz_count"`
	FlashcardCount int                `json:"flashcard_count"`
	EssayCount     int                `json:"essay_count"`
	StreakDays     int                `json:"streak_days"`
	RecentScores   []ScoreEntry       `json:"recent_scores"`
	Achievements   []AchievementBadge `json:"achievements"`
}

// LeaderboardEntry is one row of the XP ranking.
type LeaderboardEntry struct {
	Position int64  `json:"position"`
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	TotalXP  int64  `json:"total_xp"`
	Level    int    `json:"level"`
}

// LeaderboardResponse wraps the ranking plus the requester's own position.
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
	Me      *LeaderboardEntry  `json:"me,omitempty"`
}
