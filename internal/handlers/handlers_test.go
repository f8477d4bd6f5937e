package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

func testDeps() (*storage.MockStorage, *services.GraphService, *slog.Logger) {
	mock := storage.NewMockStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mock, services.NewGraphService(mock, logger), logger
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeResp[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// seedStory creates a project with one chapter and two chained screens
// directly in storage.
func seedStory(t *testing.T, mock *storage.MockStorage) (*story.Project, *story.Chapter, []*story.Screen) {
	t.Helper()
	ctx := context.Background()

	project := &story.Project{UserID: "author-1", Title: "Handler Story"}
	require.NoError(t, mock.CreateProject(ctx, project))
	chapter := &story.Chapter{ProjectID: project.ID, Title: "One", Order: 1}
	require.NoError(t, mock.CreateChapter(ctx, chapter))

	first := &story.Screen{ChapterID: chapter.ID, ProjectID: project.ID, Text: "First.", Order: 1}
	require.NoError(t, mock.CreateScreen(ctx, first))
	second := &story.Screen{ChapterID: chapter.ID, ProjectID: project.ID, Text: "Second.", Order: 2}
	require.NoError(t, mock.CreateScreen(ctx, second))
	first.LinkToNextScreen = second.ID.String()
	require.NoError(t, mock.UpdateScreen(ctx, first))

	return project, chapter, []*story.Screen{first, second}
}

func doRequest(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
