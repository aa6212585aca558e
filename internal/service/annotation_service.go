package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

// Sentinel errors surfaced by the annotation workflow.
var (
	ErrEssayNotFound      = errors.New("essay not found")
	ErrAnnotationNotFound = errors.New("annotation not found")
	ErrEssayFinalized     = errors.New("essay correction is finalized")
	ErrInvalidOffsets     = errors.New("annotation offsets out of range")
	ErrGradeMissing       = errors.New("either grade or competence scores must be provided")
)

// AnnotationService reconciles annotation spans against the immutable essay
// text and drives the correction workflow up to the final grade.
type AnnotationService interface {
	ListForEssay(ctx context.Context, essayID uint) (dto.EssayResponse, error)
	Create(ctx context.Context, essayID uint, payload dto.AnnotationCreateRequest, actor ActivityActor) (dto.AnnotationResponse, error)
	Update(ctx context.Context, annotationID uint, payload dto.AnnotationUpdateRequest, actor ActivityActor) (dto.AnnotationResponse, error)
	Delete(ctx context.Context, annotationID uint, actor ActivityActor) error
	Finalize(ctx context.Context, essayID uint, payload dto.EssayFinalizeRequest, actor ActivityActor) (dto.EssayResponse, error)
}

type annotationService struct {
	essays      repository.EssayRepository
	annotations repository.AnnotationRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAnnotationService constructs the reconciler.
func NewAnnotationService(essays repository.EssayRepository, annotations repository.AnnotationRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AnnotationService {
	return &annotationService{
		essays:      essays,
		annotations: annotations,
		validator:   validate,
		activity:    activity,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "annotation_service").Logger(),
		tracer:      otel.Tracer("github.com/mentoria/mentoria-api/internal/service/annotation"),
		now:         time.Now,
	}
}

// RenderSegments splits the text into literal and highlighted spans. Offsets
// are rune indices. Annotations are applied in ascending start order (ties by
// end offset); an annotation starting before the furthest emitted offset is
// clipped to it, and one fully covered by earlier spans is skipped, so
// overlapping spans never duplicate text.
func RenderSegments(text string, annotations []models.EssayAnnotation) []dto.Segment {
	runes := []rune(text)
	if len(annotations) == 0 {
		return []dto.Segment{{Text: text}}
	}

	sorted := make([]models.EssayAnnotation, len(annotations))
	copy(sorted, annotations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartOffset != sorted[j].StartOffset {
			return sorted[i].StartOffset < sorted[j].StartOffset
		}
		return sorted[i].EndOffset < sorted[j].EndOffset
	})

	segments := make([]dto.Segment, 0, len(sorted)*2+1)
	cursor := 0
	for _, annotation := range sorted {
		start, end := annotation.StartOffset, annotation.EndOffset
		if start < cursor {
			start = cursor
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start >= end {
			continue
		}

		if start > cursor {
			segments = append(segments, dto.Segment{Text: string(runes[cursor:start])})
		}
		segments = append(segments, dto.Segment{
			Text:         string(runes[start:end]),
			Highlighted:  true,
			AnnotationID: annotation.ID,
		})
		cursor = end
	}

	if cursor < len(runes) {
		segments = append(segments, dto.Segment{Text: string(runes[cursor:])})
	}

	return segments
}

func (s *annotationService) ListForEssay(ctx context.Context, essayID uint) (dto.EssayResponse, error) {
	essay, err := s.loadEssay(ctx, essayID)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	annotations, err := s.annotations.ListByEssay(ctx, essayID)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	response := dto.NewEssayResponse(essay)
	response.Annotations = dto.NewAnnotationResponseSlice(annotations)
	response.Segments = RenderSegments(essay.SubmissionText, annotations)

	return response, nil
}

func (s *annotationService) Create(ctx context.Context, essayID uint, payload dto.AnnotationCreateRequest, actor ActivityActor) (dto.AnnotationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "annotations.create", trace.WithAttributes(
		attribute.Int64("annotation.essay_id", int64(essayID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.AnnotationResponse{}, err
	}

	essay, err := s.loadEssay(ctx, essayID)
	if err != nil {
		span.RecordError(err)
		return dto.AnnotationResponse{}, err
	}

	if essay.IsFinalized() {
		span.SetStatus(codes.Error, "essay_finalized")
		return dto.AnnotationResponse{}, ErrEssayFinalized
	}

	if !offsetsValid(payload.StartOffset, payload.EndOffset, essay.SubmissionText) {
		span.SetStatus(codes.Error, "invalid_offsets")
		return dto.AnnotationResponse{}, ErrInvalidOffsets
	}

	teacherID := actor.ID
	annotation := models.EssayAnnotation{
		EssayID:             essayID,
		StartOffset:         payload.StartOffset,
		EndOffset:           payload.EndOffset,
		AnnotationText:      strings.TrimSpace(s.sanitizer.Sanitize(payload.AnnotationText)),
		SuggestedCorrection: strings.TrimSpace(s.sanitizer.Sanitize(payload.SuggestedCorrection)),
		ErrorCategoryID:     payload.ErrorCategoryID,
		TeacherID:           &teacherID,
		Source:              models.AnnotationSourceTeacher,
	}

	if annotation.AnnotationText == "" {
		return dto.AnnotationResponse{}, errors.New("annotation text empty after sanitization")
	}

	if err := s.annotations.Create(ctx, &annotation); err != nil {
		span.RecordError(err)
		return dto.AnnotationResponse{}, err
	}

	return dto.NewAnnotationResponse(annotation), nil
}

func (s *annotationService) Update(ctx context.Context, annotationID uint, payload dto.AnnotationUpdateRequest, actor ActivityActor) (dto.AnnotationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnotationResponse{}, err
	}

	annotation, err := s.annotations.GetByID(ctx, annotationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnotationResponse{}, ErrAnnotationNotFound
		}
		return dto.AnnotationResponse{}, err
	}

	essay, err := s.loadEssay(ctx, annotation.EssayID)
	if err != nil {
		return dto.AnnotationResponse{}, err
	}

	if essay.IsFinalized() {
		return dto.AnnotationResponse{}, ErrEssayFinalized
	}

	if payload.StartOffset != nil {
		annotation.StartOffset = *payload.StartOffset
	}
	if payload.EndOffset != nil {
		annotation.EndOffset = *payload.EndOffset
	}
	if !offsetsValid(annotation.StartOffset, annotation.EndOffset, essay.SubmissionText) {
		return dto.AnnotationResponse{}, ErrInvalidOffsets
	}

	if payload.AnnotationText != nil {
		text := strings.TrimSpace(s.sanitizer.Sanitize(*payload.AnnotationText))
		if text == "" {
			return dto.AnnotationResponse{}, errors.New("annotation text empty after sanitization")
		}
		annotation.AnnotationText = text
	}
	if payload.SuggestedCorrection != nil {
		annotation.SuggestedCorrection = strings.TrimSpace(s.sanitizer.Sanitize(*payload.SuggestedCorrection))
	}
	if payload.ErrorCategoryID != nil {
		annotation.ErrorCategoryID = payload.ErrorCategoryID
	}

	// An analyzer proposal edited by a teacher becomes a teacher annotation.
	if annotation.Source == models.AnnotationSourceAnalyzer {
		annotation.Source = models.AnnotationSourceTeacher
		teacherID := actor.ID
		annotation.TeacherID = &teacherID
	}

	if err := s.annotations.Update(ctx, &annotation); err != nil {
		return dto.AnnotationResponse{}, err
	}

	return dto.NewAnnotationResponse(annotation), nil
}

func (s *annotationService) Delete(ctx context.Context, annotationID uint, actor ActivityActor) error {
	annotation, err := s.annotations.GetByID(ctx, annotationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnotationNotFound
		}
		return err
	}

	essay, err := s.loadEssay(ctx, annotation.EssayID)
	if err != nil {
		return err
	}

	if essay.IsFinalized() {
		return ErrEssayFinalized
	}

	affected, err := s.annotations.Delete(ctx, annotationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAnnotationNotFound
	}

	return nil
}

func (s *annotationService) Finalize(ctx context.Context, essayID uint, payload dto.EssayFinalizeRequest, actor ActivityActor) (dto.EssayResponse, error) {
	ctx, span := s.tracer.Start(ctx, "annotations.finalize", trace.WithAttributes(
		attribute.Int64("annotation.essay_id", int64(essayID)),
		attribute.Int64("annotation.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.EssayResponse{}, err
	}

	essay, err := s.loadEssay(ctx, essayID)
	if err != nil {
		span.RecordError(err)
		return dto.EssayResponse{}, err
	}

	if essay.IsFinalized() {
		return dto.EssayResponse{}, ErrEssayFinalized
	}

	grade, scores, err := s.resolveGrade(essay, payload)
	if err != nil {
		span.SetStatus(codes.Error, "grade_unresolved")
		return dto.EssayResponse{}, err
	}

	essay.Grade = &grade
	essay.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	essay.Status = models.EssayStatusCorrected
	correctedAt := s.now()
	essay.CorrectedAt = &correctedAt
	correctedBy := actor.ID
	essay.CorrectedBy = &correctedBy

	if err := s.essays.Finalize(ctx, &essay, scores); err != nil {
		span.RecordError(err)
		return dto.EssayResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "essay.finalized",
			EntityType: "essay",
			EntityID:   &essay.ID,
			Metadata: map[string]interface{}{
				"essay_id": essay.ID,
				"user_id":  essay.UserID,
				"grade":    grade,
			},
		})
	}

	span.SetAttributes(attribute.Float64("annotation.grade", grade))

	annotations, err := s.annotations.ListByEssay(ctx, essayID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("essay_id", essayID).Msg("failed to reload annotations after finalize")
		annotations = nil
	}

	response := dto.NewEssayResponse(essay)
	response.Annotations = dto.NewAnnotationResponseSlice(annotations)
	response.Segments = RenderSegments(essay.SubmissionText, annotations)

	return response, nil
}

// resolveGrade prefers a manually entered grade; otherwise it sums competency
// sub-scores, each capped at the prompt's per-competency maximum.
func (s *annotationService) resolveGrade(essay models.Essay, payload dto.EssayFinalizeRequest) (float64, []models.EssayCompetenceScore, error) {
	if payload.Grade != nil {
		return *payload.Grade, nil, nil
	}

	if len(payload.CompetenceScores) == 0 {
		return 0, nil, ErrGradeMissing
	}

	maxScore := essay.Prompt.CompetencyMaxScore
	if maxScore <= 0 {
		maxScore = 200
	}

	var total float64
	scores := make([]models.EssayCompetenceScore, 0, len(payload.CompetenceScores))
	for _, input := range payload.CompetenceScores {
		score := input.Score
		if score > maxScore {
			score = maxScore
		}
		total += score
		scores = append(scores, models.EssayCompetenceScore{
			EssayID:    essay.ID,
			Competence: input.Competence,
			Score:      score,
		})
	}

	return total, scores, nil
}

func (s *annotationService) loadEssay(ctx context.Context, essayID uint) (models.Essay, error) {
	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, err
	}

	return essay, nil
}

func offsetsValid(start, end int, text string) bool {
	return start >= 0 && start < end && end <= len([]rune(text))
}
