package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

func activityTestService(t *testing.T) ActivityService {
	t.Helper()

	db := scoreTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.ActivityLog{}))

	return NewActivityService(repository.NewActivityLogRepository(db), validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestRecordNormalizesAndMasksMetadata(t *testing.T) {
	svc := activityTestService(t)

	entityID := uint(10)
	recorded, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  " Admin ",
		Action:     " Feature.Granted ",
		EntityType: "Class",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"feature":       "quiz",
			"student_email": "aluno@example.com",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "admin", recorded.ActorRole)
	require.Equal(t, "feature.granted", recorded.Action)
	require.Equal(t, "class", recorded.EntityType)
	require.Equal(t, "quiz", recorded.Metadata["feature"])
	require.Equal(t, "***", recorded.Metadata["student_email"])
}

func TestRecordRequiresActionAndEntityType(t *testing.T) {
	svc := activityTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, ActivityEntry{ActorID: 1, EntityType: "class"})
	require.Error(t, err)

	_, err = svc.Record(ctx, ActivityEntry{ActorID: 1, Action: "feature.granted"})
	require.Error(t, err)
}

func TestRecordDefaultsRoleToSystem(t *testing.T) {
	svc := activityTestService(t)

	recorded, err := svc.Record(context.Background(), ActivityEntry{
		Action:     "trial_content.added",
		EntityType: "trial_content",
	})
	require.NoError(t, err)
	require.Equal(t, "system", recorded.ActorRole)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc := activityTestService(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 1, Role: models.RoleAdmin}

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, actor, dto.AdminActivityCreateRequest{
			Action:     "feature.granted",
			EntityType: "class",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, ActivityActor{ID: 2, Role: models.RoleTeacher}, dto.AdminActivityCreateRequest{
		Action:     "essay.finalized",
		EntityType: "essay",
	})
	require.NoError(t, err)

	byAction, err := svc.List(ctx, dto.AdminActivityListRequest{Action: "feature.granted"})
	require.NoError(t, err)
	require.Len(t, byAction.Items, 3)
	require.Equal(t, int64(3), byAction.Pagination.Total)

	byActor, err := svc.List(ctx, dto.AdminActivityListRequest{ActorID: 2})
	require.NoError(t, err)
	require.Len(t, byActor.Items, 1)
	require.Equal(t, "essay.finalized", byActor.Items[0].Action)

	paged, err := svc.List(ctx, dto.AdminActivityListRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, paged.Items, 2)
	require.Equal(t, int64(4), paged.Pagination.Total)
	require.Equal(t, 2, paged.Pagination.Page)
}
