package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
	"github.com/mentoria/mentoria-api/pkg/ai"
)

// Sentinel errors surfaced by essay submission.
var (
	ErrPromptNotFound     = errors.New("essay prompt not found")
	ErrManuscriptType     = errors.New("manuscript must be an image or pdf")
	ErrManuscriptTooLarge = errors.New("manuscript exceeds maximum allowed size")
)

const manuscriptMaxBytes = 10 << 20

// FileUploader abstracts the upload destination for essay manuscripts.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// EssayService handles essay submission and retrieval.
type EssayService interface {
	Submit(ctx context.Context, userID uint, payload dto.EssayCreateRequest, manuscript *multipart.FileHeader) (dto.EssayResponse, error)
	List(ctx context.Context, filter dto.EssayFilter) ([]dto.EssayResponse, error)
	Get(ctx context.Context, id uint) (dto.EssayResponse, error)
	// Analyze runs the automated analyzer over the submission text and
	// persists its proposals as teacher-editable annotations.
	Analyze(ctx context.Context, essayID uint) ([]dto.AnnotationResponse, error)
}

type essayService struct {
	essays      repository.EssayRepository
	annotations repository.AnnotationRepository
	analyzer    ai.EssayAnalyzer
	uploader    FileUploader
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewEssayService constructs the essay service. Analyzer and uploader may be
// nil; the matching operations then report themselves unavailable.
func NewEssayService(essays repository.EssayRepository, annotations repository.AnnotationRepository, analyzer ai.EssayAnalyzer, uploader FileUploader, validate *validator.Validate, logger zerolog.Logger) EssayService {
	return &essayService{
		essays:      essays,
		annotations: annotations,
		analyzer:    analyzer,
		uploader:    uploader,
		validator:   validate,
		logger:      logger.With().Str("component", "essay_service").Logger(),
		tracer:      otel.Tracer("github.com/mentoria/mentoria-api/internal/service/essay"),
	}
}

func (s *essayService) Submit(ctx context.Context, userID uint, payload dto.EssayCreateRequest, manuscript *multipart.FileHeader) (dto.EssayResponse, error) {
	ctx, span := s.tracer.Start(ctx, "essays.submit", trace.WithAttributes(
		attribute.Int64("essay.user_id", int64(userID)),
		attribute.Int64("essay.prompt_id", int64(payload.PromptID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.EssayResponse{}, err
	}

	prompt, err := s.essays.GetPrompt(ctx, payload.PromptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayResponse{}, ErrPromptNotFound
		}
		span.RecordError(err)
		return dto.EssayResponse{}, err
	}

	essay := models.Essay{
		PromptID:       prompt.ID,
		UserID:         userID,
		SubmissionText: payload.SubmissionText,
		Status:         models.EssayStatusSubmitted,
	}

	if manuscript != nil && s.uploader != nil {
		url, err := s.uploadManuscript(ctx, manuscript)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "manuscript_upload_failed")
			return dto.EssayResponse{}, err
		}
		essay.ManuscriptURL = url
	}

	if err := s.essays.Create(ctx, &essay); err != nil {
		span.RecordError(err)
		return dto.EssayResponse{}, err
	}

	essay.Prompt = prompt
	return dto.NewEssayResponse(essay), nil
}

func (s *essayService) uploadManuscript(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > manuscriptMaxBytes {
		return "", ErrManuscriptTooLarge
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open manuscript: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("detect manuscript type: %w", err)
	}

	if !strings.HasPrefix(mime.String(), "image/") && !mime.Is("application/pdf") {
		return "", ErrManuscriptType
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind manuscript: %w", err)
	}

	return s.uploader.Upload(ctx, file.Filename, reader)
}

func (s *essayService) List(ctx context.Context, filter dto.EssayFilter) ([]dto.EssayResponse, error) {
	repoFilter := repository.EssayFilter{
		UserID:   filter.UserID,
		PromptID: filter.PromptID,
		Status:   filter.Status,
	}

	essays, err := s.essays.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EssayResponse, 0, len(essays))
	for _, essay := range essays {
		responses = append(responses, dto.NewEssayResponse(essay))
	}

	return responses, nil
}

func (s *essayService) Get(ctx context.Context, id uint) (dto.EssayResponse, error) {
	essay, err := s.essays.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayResponse{}, ErrEssayNotFound
		}
		return dto.EssayResponse{}, err
	}

	annotations, err := s.annotations.ListByEssay(ctx, id)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	response := dto.NewEssayResponse(essay)
	response.Annotations = dto.NewAnnotationResponseSlice(annotations)
	response.Segments = RenderSegments(essay.SubmissionText, annotations)

	return response, nil
}

func (s *essayService) Analyze(ctx context.Context, essayID uint) ([]dto.AnnotationResponse, error) {
	if s.analyzer == nil {
		return nil, errors.New("essay analyzer not configured")
	}

	ctx, span := s.tracer.Start(ctx, "essays.analyze", trace.WithAttributes(
		attribute.Int64("essay.id", int64(essayID)),
	))
	defer span.End()

	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEssayNotFound
		}
		return nil, err
	}

	if essay.IsFinalized() {
		return nil, ErrEssayFinalized
	}

	result, err := s.analyzer.Analyze(ctx, ai.AnalysisInput{
		PromptTitle:    essay.Prompt.Title,
		SubmissionText: essay.SubmissionText,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis_failed")
		return nil, fmt.Errorf("analyze essay: %w", err)
	}

	length := len([]rune(essay.SubmissionText))
	proposals := make([]models.EssayAnnotation, 0, len(result.Findings))
	for _, finding := range result.Findings {
		if finding.StartOffset < 0 || finding.StartOffset >= finding.EndOffset || finding.EndOffset > length {
			s.logger.Warn().
				Int("start", finding.StartOffset).
				Int("end", finding.EndOffset).
				Msg("analyzer proposed out-of-range offsets, dropping finding")
			continue
		}
		proposals = append(proposals, models.EssayAnnotation{
			EssayID:             essay.ID,
			StartOffset:         finding.StartOffset,
			EndOffset:           finding.EndOffset,
			AnnotationText:      finding.Comment,
			SuggestedCorrection: finding.Suggestion,
			Source:              models.AnnotationSourceAnalyzer,
		})
	}

	if err := s.annotations.CreateBatch(ctx, proposals); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("essay.proposals", len(proposals)))

	return dto.NewAnnotationResponseSlice(proposals), nil
}
