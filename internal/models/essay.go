package models

import "time"

// Essay lifecycle states.
const (
	EssayStatusSubmitted = "submitted"
	EssayStatusReviewing = "reviewing"
	EssayStatusCorrected = "corrected"
)

// EssayPrompt is the theme a student writes about. Competency maxima cap the
// per-competency sub-scores applied during correction.
type EssayPrompt struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Title              string    `gorm:"size:255;not null" json:"title"`
	Description        string    `gorm:"type:text" json:"description"`
	CompetencyMaxScore float64   `gorm:"not null;default:200" json:"competency_max_score"`
	CompetencyCount    int       `gorm:"not null;default:5" json:"competency_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Essay is a student submission. SubmissionText is immutable once created:
// annotation offsets index into it and would dangle if it changed.
type Essay struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	PromptID       uint        `gorm:"not null" json:"prompt_id"`
	UserID         uint        `gorm:"not null" json:"user_id"`
	SubmissionText string      `gorm:"type:text;not null" json:"submission_text"`
	ManuscriptURL  string      `gorm:"size:512" json:"manuscript_url"`
	Status         string      `gorm:"size:32;not null;default:submitted" json:"status"`
	Grade          *float64    `json:"grade"`
	Feedback       string      `gorm:"type:text" json:"feedback"`
	CorrectedBy    *uint       `json:"corrected_by"`
	CorrectedAt    *time.Time  `json:"corrected_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Prompt         EssayPrompt `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"prompt"`
}

// IsFinalized reports whether the correction has been closed. Finalized essays
// reject any further annotation mutation.
func (e Essay) IsFinalized() bool {
	return e.Status == EssayStatusCorrected
}

// Annotation sources.
const (
	AnnotationSourceTeacher  = "teacher"
	AnnotationSourceAnalyzer = "analyzer"
)

// EssayAnnotation marks a [StartOffset, EndOffset) rune span of the essay's
// submission text. Invariant: 0 <= StartOffset < EndOffset <= rune length.
type EssayAnnotation struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	EssayID             uint      `gorm:"not null;index" json:"essay_id"`
	StartOffset         int       `gorm:"not null" json:"start_offset"`
	EndOffset           int       `gorm:"not null" json:"end_offset"`
	AnnotationText      string    `gorm:"type:text;not null" json:"annotation_text"`
	SuggestedCorrection string    `gorm:"type:text" json:"suggested_correction"`
	ErrorCategoryID     *uint     `json:"error_category_id"`
	TeacherID           *uint     `json:"teacher_id"`
	Source              string    `gorm:"size:16;not null;default:teacher" json:"source"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// EssayErrorCategory classifies annotations (grammar, cohesion, argumentation...).
type EssayErrorCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:128;uniqueIndex;not null" json:"name"`
}

// EssayCompetenceScore holds one competency sub-score for a corrected essay.
type EssayCompetenceScore struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	EssayID    uint    `gorm:"not null;uniqueIndex:idx_essay_competence" json:"essay_id"`
	Competence int     `gorm:"not null;uniqueIndex:idx_essay_competence" json:"competence"`
	Score      float64 `gorm:"not null" json:"score"`
}
