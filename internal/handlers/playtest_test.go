package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/pkg/conditions"
	"github.com/kmills-dev/storyloom/pkg/playback"
	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

func testPlaytestHandler(mock *storage.MockStorage) *PlaytestHandler {
	_, _, logger := testDeps()
	mgr := services.NewSessionManager(mock, logger, time.Hour)
	return NewPlaytestHandler(mgr, logger)
}

func TestPlaytestWalkthrough(t *testing.T) {
	mock, _, _ := testDeps()
	h := testPlaytestHandler(mock)
	ctx := context.Background()

	project, _, screens := seedStory(t, mock)

	gold := &story.Currency{ProjectID: project.ID, DisplayName: "Gold", KeyWord: "gold", StartingValue: 50}
	require.NoError(t, mock.CreateCurrency(ctx, gold))

	bribe := &story.Reply{
		ScreenID:        screens[0].ID,
		Text:            "Bribe the guard",
		Order:           1,
		LinkToSectionID: screens[1].ID.String(),
		Requirements: []conditions.Condition{{
			AddedAs:     conditions.RoleRequirement,
			Type:        conditions.KindCurrency,
			KeyWord:     "gold",
			Value:       conditions.NumberValue(20),
			GreaterThan: boolPtr(true),
		}},
		Effects: []conditions.Condition{{
			AddedAs: conditions.RoleEffect,
			Type:    conditions.KindCurrency,
			KeyWord: "gold",
			Value:   conditions.NumberValue(-20),
		}},
	}
	require.NoError(t, mock.CreateReply(ctx, bribe))

	rec := doRequest(h, http.MethodPost, "/v1/playtest", jsonBody(t, CreatePlaytestRequest{
		ProjectID:     project.ID,
		StartScreenID: screens[0].ID.String(),
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeResp[PlaytestResponse](t, rec)
	assert.Equal(t, playback.PhaseAwaitingChoice, session.Phase)
	require.Len(t, session.Replies, 1)
	require.Len(t, session.Readout, 1)
	assert.Equal(t, 50.0, session.Readout[0].UserValue)

	rec = doRequest(h, http.MethodPost, "/v1/playtest/"+session.SessionID.String()+"/choose",
		jsonBody(t, ChooseRequest{ReplyID: bribe.ID}))
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeResp[PlaytestResponse](t, rec)
	assert.Equal(t, screens[1].ID, after.Screen.ID)
	assert.Equal(t, 30.0, after.Readout[0].UserValue)
}

func TestPlaytestSeedOverrides(t *testing.T) {
	mock, _, _ := testDeps()
	h := testPlaytestHandler(mock)
	ctx := context.Background()

	project, _, screens := seedStory(t, mock)
	gold := &story.Currency{ProjectID: project.ID, DisplayName: "Gold", KeyWord: "gold", StartingValue: 50}
	require.NoError(t, mock.CreateCurrency(ctx, gold))

	rec := doRequest(h, http.MethodPost, "/v1/playtest", jsonBody(t, CreatePlaytestRequest{
		ProjectID:     project.ID,
		StartScreenID: screens[0].ID.String(),
		Currencies:    map[string]float64{"gold": 5},
		Items:         map[string]bool{"lantern": true},
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeResp[PlaytestResponse](t, rec)
	assert.Equal(t, 5.0, session.Readout[0].UserValue)
	assert.True(t, session.Items["lantern"])
}

func TestPlaytestBrokenLinkIs422(t *testing.T) {
	mock, _, _ := testDeps()
	h := testPlaytestHandler(mock)
	ctx := context.Background()

	project, _, screens := seedStory(t, mock)
	gold := &story.Currency{ProjectID: project.ID, DisplayName: "Gold", KeyWord: "gold", StartingValue: 50}
	require.NoError(t, mock.CreateCurrency(ctx, gold))

	leap := &story.Reply{
		ScreenID:        screens[0].ID,
		Text:            "Step through the missing door",
		Order:           1,
		LinkToSectionID: uuid.NewString(),
		Effects: []conditions.Condition{{
			AddedAs: conditions.RoleEffect,
			Type:    conditions.KindCurrency,
			KeyWord: "gold",
			Value:   conditions.NumberValue(-10),
		}},
	}
	require.NoError(t, mock.CreateReply(ctx, leap))

	rec := doRequest(h, http.MethodPost, "/v1/playtest", jsonBody(t, CreatePlaytestRequest{
		ProjectID:     project.ID,
		StartScreenID: screens[0].ID.String(),
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeResp[PlaytestResponse](t, rec)

	rec = doRequest(h, http.MethodPost, "/v1/playtest/"+session.SessionID.String()+"/choose",
		jsonBody(t, ChooseRequest{ReplyID: leap.ID}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The session survives the broken link with effects retained.
	rec = doRequest(h, http.MethodGet, "/v1/playtest/"+session.SessionID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeResp[PlaytestResponse](t, rec)
	assert.Equal(t, screens[0].ID, after.Screen.ID)
	assert.Equal(t, 40.0, after.Readout[0].UserValue)
}

func TestPlaytestContinueFallback(t *testing.T) {
	mock, _, _ := testDeps()
	h := testPlaytestHandler(mock)

	project, _, screens := seedStory(t, mock)

	rec := doRequest(h, http.MethodPost, "/v1/playtest", jsonBody(t, CreatePlaytestRequest{
		ProjectID:     project.ID,
		StartScreenID: screens[0].ID.String(),
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeResp[PlaytestResponse](t, rec)

	// No authored replies: a single Continue pseudo-reply is synthesized.
	require.Len(t, session.Replies, 1)
	assert.Equal(t, uuid.Nil, session.Replies[0].ID)
	assert.Equal(t, playback.ContinueReplyText, session.Replies[0].Text)

	rec = doRequest(h, http.MethodPost, "/v1/playtest/"+session.SessionID.String()+"/choose",
		jsonBody(t, ChooseRequest{ReplyID: uuid.Nil}))
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeResp[PlaytestResponse](t, rec)
	assert.Equal(t, screens[1].ID, after.Screen.ID)
	assert.Equal(t, playback.PhaseEnded, after.Phase, "terminal screen ends the walk")
}

func TestPlaytestDelete(t *testing.T) {
	mock, _, _ := testDeps()
	h := testPlaytestHandler(mock)

	project, _, screens := seedStory(t, mock)

	rec := doRequest(h, http.MethodPost, "/v1/playtest", jsonBody(t, CreatePlaytestRequest{
		ProjectID:     project.ID,
		StartScreenID: screens[0].ID.String(),
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeResp[PlaytestResponse](t, rec)

	rec = doRequest(h, http.MethodDelete, "/v1/playtest/"+session.SessionID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodGet, "/v1/playtest/"+session.SessionID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func boolPtr(b bool) *bool { return &b }
