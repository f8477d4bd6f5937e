package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/playback"
	"github.com/kmills-dev/storyloom/pkg/state"
	"github.com/kmills-dev/storyloom/pkg/story"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// PlaytestView mirrors the API's playtest session payload.
type PlaytestView struct {
	SessionID uuid.UUID            `json:"sessionId"`
	Phase     playback.Phase       `json:"phase"`
	Screen    *story.Screen        `json:"screen,omitempty"`
	Replies   []story.Reply        `json:"replies"`
	Readout   []state.UserCurrency `json:"readout"`
	Items     map[string]bool      `json:"items,omitempty"`
}

// CreatePlaytestRequest mirrors the API's session creation body.
type CreatePlaytestRequest struct {
	ProjectID     uuid.UUID          `json:"projectId"`
	StartScreenID string             `json:"startScreenId"`
	Currencies    map[string]float64 `json:"currencies,omitempty"`
	Items         map[string]bool    `json:"items,omitempty"`
}

type ChooseRequest struct {
	ReplyID uuid.UUID `json:"replyId"`
}

func listProjects(client *http.Client, baseURL, userID string) ([]story.Project, error) {
	var projects []story.Project
	err := getJSON(client, fmt.Sprintf("%s/v1/projects?userId=%s", baseURL, userID), &projects)
	return projects, err
}

func listChapters(client *http.Client, baseURL string, projectID uuid.UUID) ([]story.Chapter, error) {
	var chapters []story.Chapter
	err := getJSON(client, fmt.Sprintf("%s/v1/chapters?projectId=%s", baseURL, projectID), &chapters)
	return chapters, err
}

func listScreens(client *http.Client, baseURL string, chapterID uuid.UUID) ([]story.Screen, error) {
	var screens []story.Screen
	err := getJSON(client, fmt.Sprintf("%s/v1/screens?chapterId=%s", baseURL, chapterID), &screens)
	return screens, err
}

func listCurrencies(client *http.Client, baseURL string, projectID uuid.UUID) ([]story.Currency, error) {
	var currencies []story.Currency
	err := getJSON(client, fmt.Sprintf("%s/v1/currencies?projectId=%s", baseURL, projectID), &currencies)
	return currencies, err
}

func createPlaytest(client *http.Client, baseURL string, req CreatePlaytestRequest) (*PlaytestView, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/playtest", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp.StatusCode, body, "failed to create playtest session")
	}

	var view PlaytestView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("failed to parse playtest response: %w", err)
	}
	return &view, nil
}

func chooseReply(client *http.Client, baseURL string, sessionID, replyID uuid.UUID) (*PlaytestView, error) {
	jsonData, err := json.Marshal(ChooseRequest{ReplyID: replyID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/playtest/%s/choose", baseURL, sessionID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "choose failed")
	}

	var view PlaytestView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("failed to parse playtest response: %w", err)
	}
	return &view, nil
}

func getPlaytest(client *http.Client, baseURL string, sessionID uuid.UUID) (*PlaytestView, error) {
	var view PlaytestView
	err := getJSON(client, fmt.Sprintf("%s/v1/playtest/%s", baseURL, sessionID), &view)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func endPlaytest(client *http.Client, baseURL string, sessionID uuid.UUID) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/playtest/%s", baseURL, sessionID), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return nil
}

func getJSON(client *http.Client, url string, dst any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, body, "request failed")
	}
	return json.Unmarshal(body, dst)
}

func apiError(status int, body []byte, context string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", context, errorResp.Error)
}
