//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// These tests exercise a running server end to end. They need the
// backend stack (Postgres, Redis) plus a content API stub that serves
// the test id below.
//
//	go test -tags e2e ./test/e2e/...

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	testID         = "e2e-mock-test"
	ownerID        = "e2e-owner"
)

var (
	baseURL   string
	sessionID string
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	os.Exit(m.Run())
}

// envelope mirrors the API response shape.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp, env
}

func Test01_StartSession(t *testing.T) {
	resp, env := call(t, http.MethodPost, "/sessions", map[string]interface{}{
		"test_id":  testID,
		"owner_id": ownerID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (error: %+v)", resp.StatusCode, env.Error)
	}

	var data struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.SessionID == "" {
		t.Fatal("session_id missing")
	}
	sessionID = data.SessionID
}

func Test02_StartValidation(t *testing.T) {
	resp, env := call(t, http.MethodPost, "/sessions", map[string]interface{}{
		"owner_id": ownerID, // test_id missing
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func Test03_SaveWithoutSelection(t *testing.T) {
	resp, env := call(t, http.MethodPost, fmt.Sprintf("/sessions/%s/save", sessionID), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "NO_OPTION_SELECTED" {
		t.Fatalf("error = %+v, want NO_OPTION_SELECTED", env.Error)
	}
}

func Test04_SelectAndSave(t *testing.T) {
	resp, env := call(t, http.MethodPost, fmt.Sprintf("/sessions/%s/select", sessionID), map[string]interface{}{
		"question_index": 0,
		"option_index":   0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status = %d (error: %+v)", resp.StatusCode, env.Error)
	}

	resp, env = call(t, http.MethodPost, fmt.Sprintf("/sessions/%s/save", sessionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d (error: %+v)", resp.StatusCode, env.Error)
	}

	var state struct {
		CurrentQuestion int `json:"current_question"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.CurrentQuestion != 1 {
		t.Errorf("current_question = %d, want 1 after save", state.CurrentQuestion)
	}
}

func Test05_SubmitAndResult(t *testing.T) {
	resp, env := call(t, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", sessionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d (error: %+v)", resp.StatusCode, env.Error)
	}

	resp, env = call(t, http.MethodGet, fmt.Sprintf("/sessions/%s/result", sessionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status = %d (error: %+v)", resp.StatusCode, env.Error)
	}

	var data struct {
		Result struct {
			Attempted  int     `json:"attempted"`
			TotalMarks float64 `json:"total_marks"`
		} `json:"result"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if data.Result.Attempted != 1 {
		t.Errorf("attempted = %d, want 1", data.Result.Attempted)
	}

	// A second submit is absorbed, not rejected.
	resp, _ = call(t, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", sessionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("repeat submit status = %d, want 200", resp.StatusCode)
	}
}

func Test06_UnknownSession(t *testing.T) {
	resp, env := call(t, http.MethodGet, "/sessions/00000000-0000-0000-0000-000000000000", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("error = %+v, want SESSION_NOT_FOUND", env.Error)
	}
}
