package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testPlayer struct {
	ID    string
	Name  string
	Token string
}

func createGame(t *testing.T, ts *httptest.Server, mode string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games", "", map[string]any{"mode": mode})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["code"].(string)
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name string) testPlayer {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/join", "", map[string]string{"name": name})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	return testPlayer{ID: player["id"].(string), Name: name, Token: body["token"].(string)}
}

func fetchState(t *testing.T, ts *httptest.Server, code string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+code, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

// act posts an action as player and fails the test on an unexpected status.
func act(t *testing.T, ts *httptest.Server, player testPlayer, code, action string, payload any, want int) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/"+action, player.Token, payload)
	if resp.StatusCode != want {
		body := decodeBody(t, resp)
		t.Fatalf("%s as %s: expected status %d, got %d (%v)", action, player.Name, want, resp.StatusCode, body["error"])
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return decodeBody(t, resp)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
