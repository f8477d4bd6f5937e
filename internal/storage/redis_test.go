package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmills-dev/storyloom/pkg/conditions"
	"github.com/kmills-dev/storyloom/pkg/story"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	rs, err := NewRedisStorage("redis://"+mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis storage: %v", err)
	}

	return rs, mr
}

func TestRedisStorage_WaitForConnection(t *testing.T) {
	t.Run("available instance", func(t *testing.T) {
		rs, mr := setupTestRedis(t)
		defer mr.Close()
		defer func() { _ = rs.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		require.NoError(t, rs.WaitForConnection(ctx))
	})

	t.Run("unreachable instance times out", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		rs, err := NewRedisStorage("redis://localhost:9999", logger)
		require.NoError(t, err)
		defer func() { _ = rs.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err = rs.WaitForConnection(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "waiting for redis")
	})
}

func TestRedisStorage_ProjectRoundTrip(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = rs.Close() }()

	ctx := context.Background()
	require.NoError(t, rs.Ping(ctx))

	p := &story.Project{UserID: "author-1", Title: "The Hollow Crown", ThemeColors: []string{"#112233"}}
	require.NoError(t, rs.CreateProject(ctx, p))
	assert.NotEqual(t, uuid.Nil, p.ID, "Create must assign an id")

	loaded, err := rs.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "The Hollow Crown", loaded.Title)
	assert.Equal(t, []string{"#112233"}, loaded.ThemeColors)

	loaded.Title = "The Hollow Crown, Revised"
	require.NoError(t, rs.UpdateProject(ctx, loaded))
	again, err := rs.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Hollow Crown, Revised", again.Title)

	byUser, err := rs.ListProjectsByUser(ctx, "author-1")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	require.NoError(t, rs.DeleteProject(ctx, p.ID))
	gone, err := rs.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "Deleted project should read back as nil")

	byUser, err = rs.ListProjectsByUser(ctx, "author-1")
	require.NoError(t, err)
	assert.Empty(t, byUser)
}

func TestRedisStorage_GetMissingReturnsNil(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = rs.Close() }()

	screen, err := rs.GetScreen(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, screen)
}

func TestRedisStorage_ScreensListedByChapterInOrder(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = rs.Close() }()

	ctx := context.Background()
	projectID := uuid.New()
	chapterID := uuid.New()
	otherChapter := uuid.New()

	// Insert out of order; the list path must sort by stored order.
	for _, order := range []int{3, 1, 2} {
		require.NoError(t, rs.CreateScreen(ctx, &story.Screen{
			ChapterID: chapterID,
			ProjectID: projectID,
			Text:      "screen",
			Order:     order,
		}))
	}
	require.NoError(t, rs.CreateScreen(ctx, &story.Screen{
		ChapterID: otherChapter,
		ProjectID: projectID,
		Order:     1,
	}))

	byChapter, err := rs.ListScreensByChapter(ctx, chapterID)
	require.NoError(t, err)
	require.Len(t, byChapter, 3)
	for i, s := range byChapter {
		assert.Equal(t, i+1, s.Order, "screens must come back sorted by order")
	}

	byProject, err := rs.ListScreensByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, byProject, 4)
}

func TestRedisStorage_ReplyConditionsSurviveRoundTrip(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = rs.Close() }()

	ctx := context.Background()
	screenID := uuid.New()
	gt := true

	rep := &story.Reply{
		ScreenID:        screenID,
		Text:            "Pay the toll",
		Order:           1,
		LinkToSectionID: uuid.New().String(),
	}
	rep.Requirements = []conditions.Condition{
		{AddedAs: conditions.RoleRequirement, Type: conditions.KindCurrency, KeyWord: "gold", Value: conditions.NumberValue(50), GreaterThan: &gt},
	}
	rep.Effects = []conditions.Condition{
		{AddedAs: conditions.RoleEffect, Type: conditions.KindCurrency, KeyWord: "gold", Value: conditions.NumberValue(-20)},
	}

	require.NoError(t, rs.CreateReply(ctx, rep))

	replies, err := rs.ListRepliesByScreen(ctx, screenID)
	require.NoError(t, err)
	require.Len(t, replies, 1)

	got := replies[0]
	require.Len(t, got.Requirements, 1)
	assert.Equal(t, "gold", got.Requirements[0].KeyWord)
	assert.True(t, got.Requirements[0].IsGreaterThan())
	assert.Equal(t, float64(50), got.Requirements[0].Value.AsNumber())
	require.Len(t, got.Effects, 1)
	assert.Equal(t, float64(-20), got.Effects[0].Value.AsNumber())
}

func TestRedisStorage_StaleIndexMemberSelfHeals(t *testing.T) {
	rs, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = rs.Close() }()

	ctx := context.Background()
	projectID := uuid.New()

	c := &story.Currency{ProjectID: projectID, DisplayName: "Gold", KeyWord: "gold", StartingValue: 100}
	require.NoError(t, rs.CreateCurrency(ctx, c))

	// Simulate a partial delete: the document vanishes, the index survives.
	mr.Del(docKey("currency", c.ID))

	listed, err := rs.ListCurrenciesByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, listed, "stale index members must be skipped")
}
