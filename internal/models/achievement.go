package models

import (
	"time"

	"gorm.io/datatypes"
)

// Achievement kinds drive which predicate evaluates the criteria document.
const (
	AchievementKindXPTotal       = "xp_total"
	AchievementKindActivityCount = "activity_count"
	AchievementKindStreak        = "streak"
	AchievementKindRank          = "rank"
)

// Achievement defines a threshold-based unlock. Criteria is a JSON document
// validated against a schema when administrators create or update the rule.
type Achievement struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Slug        string            `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Kind        string            `gorm:"size:32;not null" json:"kind"`
	Criteria    datatypes.JSONMap `gorm:"type:json" json:"criteria"`
	XPReward    int               `gorm:"not null;default:0" json:"xp_reward"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// UserAchievement records a single grant. The unique index on
// (user_id, achievement_id) is what makes granting idempotent.
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	UnlockedAt    time.Time   `gorm:"not null" json:"unlocked_at"`
	Achievement   Achievement `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"achievement"`
}
