package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
)

type recordingActivity struct {
	entries []ActivityEntry
}

func (r *recordingActivity) Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	r.entries = append(r.entries, entry)
	return dto.AdminActivityResponse{}, nil
}

func TestGrantFeatureInvalidatesEnrolledUsers(t *testing.T) {
	users := newMemoryUserRepo(
		models.User{ID: 1, Role: models.RoleStudent},
		models.User{ID: 2, Role: models.RoleStudent},
	)
	classes := newMemoryClassRepo()
	classes.enrollments[1] = []uint{10}
	classes.enrollments[2] = []uint{10}
	classes.members[10] = []uint{1, 2}

	features := NewFeatureService(users, classes, newTestRedis(t), time.Minute, zerolog.Nop())
	activity := &recordingActivity{}
	svc := NewAdminFeatureService(classes, newMemoryTrialContentRepo(), features, activity, zerolog.Nop())
	ctx := context.Background()

	// Prime the cache with the empty feature set.
	cached, _ := features.AllowedFeatures(ctx, 1)
	require.Empty(t, cached)

	require.NoError(t, svc.GrantFeature(ctx, adminActor(), 10, dto.AdminFeatureGrantRequest{FeatureKey: "quiz"}))

	fresh, fromCache := features.AllowedFeatures(ctx, 1)
	require.False(t, fromCache)
	require.Equal(t, []models.FeatureKey{models.FeatureQuiz}, fresh)

	require.Len(t, activity.entries, 1)
	require.Equal(t, "feature.granted", activity.entries[0].Action)
	require.Equal(t, "quiz", activity.entries[0].Metadata["feature"])
}

func TestGrantFeatureRejectsUnknownKey(t *testing.T) {
	svc := NewAdminFeatureService(newMemoryClassRepo(), newMemoryTrialContentRepo(), nil, nil, zerolog.Nop())

	err := svc.GrantFeature(context.Background(), adminActor(), 10, dto.AdminFeatureGrantRequest{FeatureKey: "time_travel"})
	require.ErrorIs(t, err, ErrUnknownFeature)
}

func TestRevokeFeature(t *testing.T) {
	classes := newMemoryClassRepo()
	classes.features[10] = []models.FeatureKey{models.FeatureQuiz}

	users := newMemoryUserRepo()
	features := NewFeatureService(users, classes, nil, time.Minute, zerolog.Nop())
	svc := NewAdminFeatureService(classes, newMemoryTrialContentRepo(), features, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.RevokeFeature(ctx, adminActor(), 10, "quiz"))
	require.Empty(t, classes.features[10])

	require.ErrorIs(t, svc.RevokeFeature(ctx, adminActor(), 10, "quiz"), ErrGrantNotFound)
}

func TestListClassFeaturesEmptyIsNotNull(t *testing.T) {
	svc := NewAdminFeatureService(newMemoryClassRepo(), newMemoryTrialContentRepo(), nil, nil, zerolog.Nop())

	response, err := svc.ListClassFeatures(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, response.Features)
	require.Empty(t, response.Features)
	require.Equal(t, uint(10), response.ClassID)
}

func TestTrialContentLifecycle(t *testing.T) {
	content := newMemoryTrialContentRepo()
	activity := &recordingActivity{}
	svc := NewAdminFeatureService(newMemoryClassRepo(), content, nil, activity, zerolog.Nop())
	ctx := context.Background()

	payload := dto.AdminTrialContentRequest{ContentType: "quiz", ContentID: 5}

	entry, err := svc.AddTrialContent(ctx, adminActor(), payload)
	require.NoError(t, err)
	require.Equal(t, "quiz", entry.ContentType)

	listed, err := svc.ListTrialContent(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.RemoveTrialContent(ctx, adminActor(), payload))
	require.ErrorIs(t, svc.RemoveTrialContent(ctx, adminActor(), payload), ErrTrialEntryNotFound)

	actions := make([]string, 0, len(activity.entries))
	for _, recorded := range activity.entries {
		actions = append(actions, recorded.Action)
	}
	require.Equal(t, []string{"trial_content.added", "trial_content.removed"}, actions)
}
