package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmills-dev/storyloom/pkg/story"
)

func TestProjectCRUD(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewProjectHandler(mock, graph, logger)

	rec := doRequest(h, http.MethodPost, "/v1/projects", jsonBody(t, story.Project{
		UserID: "author-1",
		Title:  "New Story",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeResp[story.Project](t, rec)
	assert.NotEqual(t, uuid.Nil, created.ID)

	rec = doRequest(h, http.MethodGet, "/v1/projects/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/v1/projects?userId=author-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeResp[[]story.Project](t, rec)
	require.Len(t, listed, 1)

	rec = doRequest(h, http.MethodDelete, "/v1/projects/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodGet, "/v1/projects/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectCreateValidation(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewProjectHandler(mock, graph, logger)

	tests := []struct {
		name    string
		project story.Project
	}{
		{"missing user", story.Project{Title: "No Author"}},
		{"missing title", story.Project{UserID: "author-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodPost, "/v1/projects", jsonBody(t, tt.project))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProjectAddColor(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewProjectHandler(mock, graph, logger)

	rec := doRequest(h, http.MethodPost, "/v1/projects", jsonBody(t, story.Project{
		UserID:      "author-1",
		Title:       "Palette",
		ThemeColors: []string{"#111", "#222"},
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decodeResp[story.Project](t, rec)

	rec = doRequest(h, http.MethodPost, "/v1/projects/"+project.ID.String()+"/colors",
		jsonBody(t, AddColorRequest{Color: "#abc"}))
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeResp[story.Project](t, rec)
	assert.Equal(t, []string{"#111", "#222", "#abc"}, updated.ThemeColors)
}

func TestProjectExportEndpoint(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewProjectHandler(mock, graph, logger)

	project, _, _ := seedStory(t, mock)

	rec := doRequest(h, http.MethodGet, "/v1/projects/"+project.ID.String()+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	export := decodeResp[story.ProjectExport](t, rec)
	assert.Equal(t, project.ID, export.Project.ID)
	assert.Len(t, export.Screens, 2)

	rec = doRequest(h, http.MethodGet, "/v1/projects/"+uuid.NewString()+"/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectInvalidID(t *testing.T) {
	mock, graph, logger := testDeps()
	h := NewProjectHandler(mock, graph, logger)

	rec := doRequest(h, http.MethodGet, "/v1/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
