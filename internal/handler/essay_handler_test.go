package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/service"
)

type stubEssayService struct {
	essay      dto.EssayResponse
	listFilter dto.EssayFilter
	err        error
}

func (s *stubEssayService) Submit(ctx context.Context, userID uint, payload dto.EssayCreateRequest, manuscript *multipart.FileHeader) (dto.EssayResponse, error) {
	return s.essay, s.err
}

func (s *stubEssayService) List(ctx context.Context, filter dto.EssayFilter) ([]dto.EssayResponse, error) {
	s.listFilter = filter
	return []dto.EssayResponse{s.essay}, s.err
}

func (s *stubEssayService) Get(ctx context.Context, id uint) (dto.EssayResponse, error) {
	return s.essay, s.err
}

func (s *stubEssayService) Analyze(ctx context.Context, essayID uint) ([]dto.AnnotationResponse, error) {
	return nil, s.err
}

type stubAnnotationService struct {
	actors []service.ActivityActor
	err    error
}

func (s *stubAnnotationService) ListForEssay(ctx context.Context, essayID uint) (dto.EssayResponse, error) {
	return dto.EssayResponse{}, s.err
}

func (s *stubAnnotationService) Create(ctx context.Context, essayID uint, payload dto.AnnotationCreateRequest, actor service.ActivityActor) (dto.AnnotationResponse, error) {
	s.actors = append(s.actors, actor)
	return dto.AnnotationResponse{}, s.err
}

func (s *stubAnnotationService) Update(ctx context.Context, annotationID uint, payload dto.AnnotationUpdateRequest, actor service.ActivityActor) (dto.AnnotationResponse, error) {
	s.actors = append(s.actors, actor)
	return dto.AnnotationResponse{}, s.err
}

func (s *stubAnnotationService) Delete(ctx context.Context, annotationID uint, actor service.ActivityActor) error {
	s.actors = append(s.actors, actor)
	return s.err
}

func (s *stubAnnotationService) Finalize(ctx context.Context, essayID uint, payload dto.EssayFinalizeRequest, actor service.ActivityActor) (dto.EssayResponse, error) {
	s.actors = append(s.actors, actor)
	return dto.EssayResponse{ID: essayID, UserID: 3, Status: "corrected"}, s.err
}

func essayTestApp(essays *stubEssayService, annotations *stubAnnotationService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/essays", authenticated(userID, role))
	NewEssayHandler(essays, annotations, nil, zerolog.Nop()).Register(group)
	return app
}

func TestGetEssayForbiddenForOtherStudent(t *testing.T) {
	essays := &stubEssayService{essay: dto.EssayResponse{ID: 9, UserID: 2, Status: "submitted"}}
	app := essayTestApp(essays, &stubAnnotationService{}, 1, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/essays/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGetEssayVisibleToTeacher(t *testing.T) {
	essays := &stubEssayService{essay: dto.EssayResponse{ID: 9, UserID: 2, Status: "submitted"}}
	app := essayTestApp(essays, &stubAnnotationService{}, 1, "teacher")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/essays/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestListEssaysScopedToStudent(t *testing.T) {
	essays := &stubEssayService{}
	app := essayTestApp(essays, &stubAnnotationService{}, 5, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/essays?user_id=99", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, essays.listFilter.UserID)
	require.Equal(t, uint(5), *essays.listFilter.UserID)
}

func TestAnnotationRoutesRequireTeacherRole(t *testing.T) {
	app := essayTestApp(&stubEssayService{}, &stubAnnotationService{}, 1, "student")

	payload := bytes.NewBufferString(`{"start_offset":0,"end_offset":4,"category":"grammar","comment":"x"}`)
	req := httptest.NewRequest("POST", "/api/v1/essays/9/annotations", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestFinalizePassesActor(t *testing.T) {
	annotations := &stubAnnotationService{}
	app := essayTestApp(&stubEssayService{}, annotations, 8, "teacher")

	payload := bytes.NewBufferString(`{"feedback":"bom trabalho","grade":840}`)
	req := httptest.NewRequest("POST", "/api/v1/essays/9/finalize", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, annotations.actors, 1)
	require.Equal(t, uint(8), annotations.actors[0].ID)
	require.Equal(t, "teacher", annotations.actors[0].Role)
}

func TestEssayNotFoundMapsTo404(t *testing.T) {
	essays := &stubEssayService{err: service.ErrEssayNotFound}
	app := essayTestApp(essays, &stubAnnotationService{}, 1, "teacher")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/essays/42", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
