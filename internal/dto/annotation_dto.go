package dto

import (
	"time"

	"github.com/mentoria/mentoria-api/internal/models"
)

// AnnotationCreateRequest marks a span of the essay text.
type AnnotationCreateRequest struct {
	StartOffset         int    `json:"start_offset" validate:"gte=0"`
	EndOffset           int    `json:"end_offset" validate:"required,gt=0"`
	AnnotationText      string `json:"annotation_text" validate:"required,min=1"`
	SuggestedCorrection string `json:"suggested_correction"`
	ErrorCategoryID     *uint  `json:"error_category_id"`
}

// AnnotationUpdateRequest mutates an existing annotation in place.
type AnnotationUpdateRequest struct {
	StartOffset         *int    `json:"start_offset" validate:"omitempty,gte=0"`
	EndOffset           *int    `json:"end_offset" validate:"omitempty,gt=0"`
	AnnotationText      *string `json:"annotation_text" validate:"omitempty,min=1"`
	SuggestedCorrection *string `json:"suggested_correction"`
	ErrorCategoryID     *uint   `json:"error_category_id"`
}

// AnnotationResponse serializes a persisted annotation.
type AnnotationResponse struct {
	ID                  uint      `json:"id"`
	EssayID             uint      `json:"essay_id"`
	StartOffset         int       `json:"start_offset"`
	EndOffset           int       `json:"end_offset"`
	AnnotationText      string    `json:"annotation_text"`
	SuggestedCorrection string    `json:"suggested_correction,omitempty"`
	ErrorCategoryID     *uint     `json:"error_category_id"`
	TeacherID           *uint     `json:"teacher_id"`
	Source              string    `json:"source"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewAnnotationResponse converts an annotation model into a DTO.
func NewAnnotationResponse(model models.EssayAnnotation) AnnotationResponse {
	return AnnotationResponse{
		ID:                  model.ID,
		EssayID:             model.EssayID,
		StartOffset:         model.StartOffset,
		EndOffset:           model.EndOffset,
		AnnotationText:      model.AnnotationText,
		SuggestedCorrection: model.SuggestedCorrection,
		ErrorCategoryID:     model.ErrorCategoryID,
		TeacherID:           model.TeacherID,
		Source:              model.Source,
		CreatedAt:           model.CreatedAt,
	}
}

// NewAnnotationResponseSlice maps a batch of annotations.
func NewAnnotationResponseSlice(items []models.EssayAnnotation) []AnnotationResponse {
	responses := make([]AnnotationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAnnotationResponse(item))
	}
	return responses
}
