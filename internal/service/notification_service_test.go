package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

func notificationTestService(t *testing.T) (NotificationService, *gorm.DB) {
	t.Helper()

	db := scoreTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	repo := repository.NewNotificationRepository(db)
	svc := NewNotificationService(repo, newTestRedis(t), "mentoria", nil, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	return svc, db
}

func TestPublishPersistsAndDeliversToSubscriber(t *testing.T) {
	svc, _ := notificationTestService(t)
	ctx := context.Background()

	stream, cleanup := svc.Subscribe("7")
	defer cleanup()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "announcement",
		Message: "Nova lista de exercícios disponível",
	})
	require.NoError(t, err)
	require.NotZero(t, published.ID)
	require.False(t, published.Read)

	select {
	case delivered := <-stream:
		require.Equal(t, published.ID, delivered.ID)
		require.Equal(t, "Nova lista de exercícios disponível", delivered.Message)
	case <-time.After(time.Second):
		t.Fatal("expected notification on subscriber channel")
	}

	listed, err := svc.List(ctx, "7", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestPublishSanitizesMessage(t *testing.T) {
	svc, _ := notificationTestService(t)

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "generic",
		Message: "<img src=x onerror=alert(1)>resultado disponível",
	})
	require.NoError(t, err)
	require.Equal(t, "resultado disponível", published.Message)

	_, err = svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "generic",
		Message: "<script>only markup</script>",
	})
	require.Error(t, err)
}

func TestPublishRejectsUnknownType(t *testing.T) {
	svc, _ := notificationTestService(t)

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "carrier_pigeon",
		Message: "mensagem",
	})
	require.Error(t, err)
}

func TestSubscribeIsScopedToUser(t *testing.T) {
	svc, _ := notificationTestService(t)

	mine, cleanupMine := svc.Subscribe("7")
	defer cleanupMine()
	other, cleanupOther := svc.Subscribe("8")
	defer cleanupOther()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "7",
		Type:    "generic",
		Message: "somente para o usuário 7",
	})
	require.NoError(t, err)

	select {
	case <-mine:
	case <-time.After(time.Second):
		t.Fatal("expected delivery to the addressed user")
	}

	select {
	case unexpected := <-other:
		t.Fatalf("unexpected delivery to another user: %+v", unexpected)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	svc, _ := notificationTestService(t)
	ctx := context.Background()

	first, err := svc.Publish(ctx, dto.NotificationCreateRequest{UserID: "7", Type: "generic", Message: "um"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, dto.NotificationCreateRequest{UserID: "7", Type: "generic", Message: "dois"})
	require.NoError(t, err)

	unread, err := svc.UnreadCount(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, int64(2), unread)

	marked, err := svc.MarkRead(ctx, first.ID, "7")
	require.NoError(t, err)
	require.True(t, marked.Read)

	unread, err = svc.UnreadCount(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	// Another user cannot read someone else's notification.
	_, err = svc.MarkRead(ctx, first.ID, "8")
	require.Error(t, err)
}

func TestAchievementUnlockedHookPublishes(t *testing.T) {
	svc, _ := notificationTestService(t)
	ctx := context.Background()

	svc.AchievementUnlocked(ctx, 7, models.Achievement{Slug: "xp-100", Title: "Centenário"})

	listed, err := svc.List(ctx, "7", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "achievement", listed[0].Type)
	require.Contains(t, listed[0].Message, "Centenário")
}

func TestEssayCorrectedHookPublishes(t *testing.T) {
	svc, _ := notificationTestService(t)
	ctx := context.Background()

	svc.EssayCorrected(ctx, 7, 31)

	listed, err := svc.List(ctx, "7", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "essay_corrected", listed[0].Type)
}
