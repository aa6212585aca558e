package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mentoria/mentoria-api/internal/models"
)

// PaginationMeta describes paging state for list endpoints.
type PaginationMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// AdminFeatureGrantRequest enables a feature for a class.
type AdminFeatureGrantRequest struct {
	FeatureKey string `json:"feature_key" validate:"required"`
}

// ClassFeaturesResponse lists the features currently enabled for a class.
type ClassFeaturesResponse struct {
	ClassID  uint                `json:"class_id"`
	Features []models.FeatureKey `json:"features"`
}

// AdminTrialContentRequest adds an item to the trial allow-list.
type AdminTrialContentRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=quiz flashcards video_lesson audio_lesson essay_prompt"`
	ContentID   uint   `json:"content_id" validate:"required,gt=0"`
}

// AdminAchievementRequest creates or updates an achievement definition.
type AdminAchievementRequest struct {
	Slug        string                 `json:"slug" validate:"required,min=3,max=64"`
	Title       string                 `json:"title" validate:"required,min=3"`
	Description string                 `json:"description"`
	Kind        string                 `json:"kind" validate:"required,oneof=xp_total activity_count streak rank"`
	Criteria    map[string]interface{} `json:"criteria" validate:"required"`
	XPReward    int                    `json:"xp_reward" validate:"gte=0"`
}

// AchievementResponse serializes an achievement definition.
type AchievementResponse struct {
	ID          uint                   `json:"id"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Kind        string                 `json:"kind"`
	Criteria    map[string]interface{} `json:"criteria"`
	XPReward    int                    `json:"xp_reward"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewAchievementResponse converts an achievement model into a DTO.
func NewAchievementResponse(model models.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:          model.ID,
		Slug:        model.Slug,
		Title:       model.Title,
		Description: model.Description,
		Kind:        model.Kind,
		Criteria:    metadataFromJSON(model.Criteria),
		XPReward:    model.XPReward,
		CreatedAt:   model.CreatedAt,
	}
}

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
}

// AdminActivityCreateRequest captures manual activity log creation payloads.
type AdminActivityCreateRequest struct {
	Action     string                 `json:"action" validate:"required,min=3"`
	EntityType string                 `json:"entity_type" validate:"required,min=2"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata" validate:"omitempty"`
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewAdminActivityResponse converts a model into an activity DTO.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	result := make(map[string]interface{}, len(data))
	for key, value := range data {
		result[key] = value
	}
	return result
}
