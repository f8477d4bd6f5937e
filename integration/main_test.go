//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// End-to-end authoring and playtest flow against a running API.
// Requires the server (and its Redis) to be up:
//
//	API_BASE_URL=http://localhost:8080 go test -tags=integration ./integration/...
//
// Every entity created here is deleted at the end, so the suite can run
// against a shared development instance.

var (
	baseURL string
	client  *http.Client
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	client = &http.Client{Timeout: 30 * time.Second}

	fmt.Printf("Running Storyloom Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", baseURL)

	resp, err := client.Get(baseURL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "API is not reachable at %s; start it first\n", baseURL)
		os.Exit(1)
	}
	_ = resp.Body.Close()

	os.Exit(m.Run())
}

func TestAuthoringAndPlaytestFlow(t *testing.T) {
	project := postJSON(t, "/v1/projects", map[string]any{
		"userId": "integration-test",
		"title":  "Integration Story",
	}, http.StatusCreated)
	projectID := project["id"].(string)
	defer deleteEntity(t, "/v1/projects/"+projectID)

	chapter := postJSON(t, "/v1/chapters", map[string]any{
		"projectId": projectID,
		"title":     "Chapter One",
	}, http.StatusCreated)
	chapterID := chapter["id"].(string)

	first := postJSON(t, "/v1/screens", map[string]any{
		"chapterId": chapterID,
		"projectId": projectID,
		"text":      "<p>You stand at a toll gate.</p>",
	}, http.StatusCreated)
	second := postJSON(t, "/v1/screens", map[string]any{
		"chapterId": chapterID,
		"projectId": projectID,
		"text":      "<p>You are through.</p>",
	}, http.StatusCreated)
	firstID := first["id"].(string)
	secondID := second["id"].(string)

	if first["order"].(float64) != 1 || second["order"].(float64) != 2 {
		t.Fatalf("screens not densely ordered: %v, %v", first["order"], second["order"])
	}

	postJSON(t, "/v1/currencies", map[string]any{
		"projectId":     projectID,
		"displayName":   "Gold",
		"keyWord":       "gold",
		"startingValue": 50,
	}, http.StatusCreated)

	reply := postJSON(t, "/v1/replies", map[string]any{
		"screenId":        firstID,
		"text":            "Pay the toll",
		"linkToSectionId": secondID,
		"requirements": []map[string]any{{
			"addedAs":     "requirement",
			"type":        "currency",
			"keyWord":     "gold",
			"value":       20,
			"greaterThan": true,
		}},
		"effects": []map[string]any{{
			"addedAs": "effect",
			"type":    "currency",
			"keyWord": "gold",
			"value":   -20,
		}},
	}, http.StatusCreated)
	replyID := reply["id"].(string)

	session := postJSON(t, "/v1/playtest", map[string]any{
		"projectId":     projectID,
		"startScreenId": firstID,
	}, http.StatusCreated)
	sessionID := session["sessionId"].(string)
	defer deleteEntity(t, "/v1/playtest/"+sessionID)

	replies := session["replies"].([]any)
	if len(replies) != 1 {
		t.Fatalf("expected 1 visible reply, got %d", len(replies))
	}

	after := postJSON(t, "/v1/playtest/"+sessionID+"/choose", map[string]any{
		"replyId": replyID,
	}, http.StatusOK)

	screen := after["screen"].(map[string]any)
	if screen["id"].(string) != secondID {
		t.Errorf("walk did not advance: on screen %v", screen["id"])
	}
	readout := after["readout"].([]any)
	value := readout[0].(map[string]any)["userValue"].(float64)
	if value != 30 {
		t.Errorf("expected gold 30 after toll, got %v", value)
	}
}

func TestPlaytestSessionsAreEphemeral(t *testing.T) {
	resp, err := client.Get(baseURL + "/v1/playtest/" + uuid.NewString())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", resp.StatusCode)
	}
}

func postJSON(t *testing.T, path string, body map[string]any, wantStatus int) map[string]any {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s returned %d, want %d: %s", path, resp.StatusCode, wantStatus, respBody)
	}

	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil {
		t.Fatalf("failed to parse response from %s: %v", path, err)
	}
	return out
}

func deleteEntity(t *testing.T, path string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, baseURL+path, nil)
	if err != nil {
		t.Fatalf("failed to build DELETE %s: %v", path, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Logf("cleanup DELETE %s failed: %v", path, err)
		return
	}
	_ = resp.Body.Close()
}
