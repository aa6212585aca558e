package dto

import (
	"time"

	"github.com/mentoria/mentoria-api/internal/models"
)

// EssayCreateRequest is the payload for submitting an essay.
type EssayCreateRequest struct {
	PromptID       uint   `json:"prompt_id" form:"prompt_id" validate:"required,gt=0"`
	SubmissionText string `json:"submission_text" form:"submission_text" validate:"required,min=50"`
}

// EssayFilter describes query string filters for listing essays.
type EssayFilter struct {
	UserID   *uint   `query:"user_id"`
	PromptID *uint   `query:"prompt_id"`
	Status   *string `query:"status" validate:"omitempty,oneof=submitted reviewing corrected"`
}

// Segment is one piece of the rendered essay text: either a literal gap or a
// highlighted annotation span.
type Segment struct {
	Text         string `json:"text"`
	Highlighted  bool   `json:"highlighted"`
	AnnotationID uint   `json:"annotation_id,omitempty"`
}

// PromptLite summarizes the prompt inside essay responses.
type PromptLite struct {
	ID                 uint    `json:"id"`
	Title              string  `json:"title"`
	CompetencyMaxScore float64 `json:"competency_max_score"`
	CompetencyCount    int     `json:"competency_count"`
}

// EssayResponse is returned to API clients when viewing essays.
type EssayResponse struct {
	ID             uint                 `json:"id"`
	PromptID       uint                 `json:"prompt_id"`
	UserID         uint                 `json:"user_id"`
	SubmissionText string               `json:"submission_text"`
	ManuscriptURL  string               `json:"manuscript_url,omitempty"`
	Status         string               `json:"status"`
	Grade          *float64             `json:"grade"`
	Feedback       string               `json:"feedback"`
	CorrectedBy    *uint                `json:"corrected_by"`
	CorrectedAt    *time.Time           `json:"corrected_at"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Prompt         PromptLite           `json:"prompt"`
	Segments       []Segment            `json:"segments,omitempty"`
	Annotations    []AnnotationResponse `json:"annotations,omitempty"`
}

// NewEssayResponse converts an Essay model into a DTO.
func NewEssayResponse(model models.Essay) EssayResponse {
	return EssayResponse{
		ID:             model.ID,
		PromptID:       model.PromptID,
		UserID:         model.UserID,
		SubmissionText: model.SubmissionText,
		ManuscriptURL:  model.ManuscriptURL,
		Status:         model.Status,
		Grade:          model.Grade,
		Feedback:       model.Feedback,
		CorrectedBy:    model.CorrectedBy,
		CorrectedAt:    model.CorrectedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		Prompt: PromptLite{
			ID:                 model.Prompt.ID,
			Title:              model.Prompt.Title,
			CompetencyMaxScore: model.Prompt.CompetencyMaxScore,
			CompetencyCount:    model.Prompt.CompetencyCount,
		},
	}
}

// CompetenceScoreInput is one per-competency sub-score in a finalize payload.
type CompetenceScoreInput struct {
	Competence int     `json:"competence" validate:"required,gte=1"`
	Score      float64 `json:"score" validate:"gte=0"`
}

// EssayFinalizeRequest closes the correction. Either Grade is entered manually
// or CompetenceScores are summed; providing neither is rejected.
type EssayFinalizeRequest struct {
	Grade            *float64               `json:"grade" validate:"omitempty,gte=0"`
	Feedback         string                 `json:"feedback" validate:"required,min=3"`
	CompetenceScores []CompetenceScoreInput `json:"competence_scores" validate:"omitempty,dive"`
}
