package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmills-dev/storyloom/pkg/story"
)

func TestScreenCreateSanitizesText(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewScreenHandler(mock, graph, logger)

	project, chapter, _ := seedStory(t, mock)

	rec := doRequest(h, http.MethodPost, "/v1/screens", jsonBody(t, story.Screen{
		ChapterID: chapter.ID,
		ProjectID: project.ID,
		Text:      `<p>Safe</p><script>alert(1)</script>`,
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeResp[story.Screen](t, rec)
	assert.NotContains(t, created.Text, "script")
	assert.Contains(t, created.Text, "<p>Safe</p>")
	assert.Equal(t, 3, created.Order)
}

func TestScreenReorderEndpoint(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewScreenHandler(mock, graph, logger)

	_, chapter, screens := seedStory(t, mock)

	rec := doRequest(h, http.MethodPost, "/v1/screens/reorder", jsonBody(t, ReorderRequest{
		ChapterID: chapter.ID,
		IDs:       []uuid.UUID{screens[1].ID, screens[0].ID},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	reordered := decodeResp[[]story.Screen](t, rec)
	require.Len(t, reordered, 2)
	assert.Equal(t, screens[1].ID, reordered[0].ID)
	assert.Equal(t, 1, reordered[0].Order)
	assert.Equal(t, screens[0].ID.String(), reordered[0].LinkToNextScreen)
}

func TestScreenReorderRejectsPartialList(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewScreenHandler(mock, graph, logger)

	_, chapter, screens := seedStory(t, mock)

	rec := doRequest(h, http.MethodPost, "/v1/screens/reorder", jsonBody(t, ReorderRequest{
		ChapterID: chapter.ID,
		IDs:       []uuid.UUID{screens[0].ID},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScreenDeleteHealsLinks(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewScreenHandler(mock, graph, logger)

	_, chapter, screens := seedStory(t, mock)

	rec := doRequest(h, http.MethodDelete, "/v1/screens/"+screens[1].ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodGet, "/v1/screens?chapterId="+chapter.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	remaining := decodeResp[[]story.Screen](t, rec)
	require.Len(t, remaining, 1)
	assert.Empty(t, remaining[0].LinkToNextScreen)
}

func TestScreenMethodNotAllowed(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewScreenHandler(mock, graph, logger)

	rec := doRequest(h, http.MethodPut, "/v1/screens/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
