package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/airjuggler/internal/app"
	"github.com/ayusman/airjuggler/internal/capture"
	"github.com/ayusman/airjuggler/internal/detector"
	"github.com/ayusman/airjuggler/internal/store"
)

func TestAPI_GameWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Setup
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	camera := capture.NewBlankCamera(640, 480)
	defer camera.Release()

	cfg := app.DefaultConfig()
	cfg.Store = s
	cfg.Sound = false
	cfg.Game.CountdownTime = 0
	cfg.Game.TickRate = 500
	cfg.Feed.Interval = 2 * time.Millisecond

	det := detector.NewMockDetector()
	a := app.New(cfg, app.WithCamera(camera), app.WithDetector(det))
	defer a.Shutdown()

	hub := NewStateHub()
	defer hub.Close()
	a.OnTick(hub.Observe)

	srv := New(Config{
		Game:        a,
		Leaderboard: a.Leaderboard(),
		Frames:      a.Canvas(),
		State:       hub,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Start a game
	resp, err := client.Post(ts.URL+"/api/game", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/game error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	// 2. Wait for the ball to fall
	a.Wait()

	resp, err = client.Get(ts.URL + "/api/game")
	if err != nil {
		t.Fatalf("GET /api/game error = %v", err)
	}
	var status app.Status
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()

	if status.Active {
		t.Error("game still active")
	}
	if status.LastOutcome == nil || status.LastOutcome.Rank != 1 {
		t.Fatalf("last outcome = %+v, want rank 1", status.LastOutcome)
	}

	// 3. Leaderboard has the score
	resp, _ = client.Get(ts.URL + "/api/leaderboard")
	var board struct {
		Entries []struct {
			Rank  int `json:"rank"`
			Score int `json:"score"`
		} `json:"entries"`
	}
	json.NewDecoder(resp.Body).Decode(&board)
	resp.Body.Close()

	if len(board.Entries) != 1 || board.Entries[0].Score != status.LastOutcome.Score {
		t.Errorf("leaderboard = %+v, want one entry with score %d", board.Entries, status.LastOutcome.Score)
	}

	// 4. A second game can start once the first is over. A paddle under the
	// spawn point keeps this one going.
	det.SetHands([]detector.HandLandmarks{detector.HandAt(0.5, 200.0/480)})
	time.Sleep(20 * time.Millisecond)
	resp, _ = client.Post(ts.URL+"/api/game", "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("second POST status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	// 5. Starting again while it runs conflicts
	resp, _ = client.Post(ts.URL+"/api/game", "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("third POST status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 6. Clear the leaderboard
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/leaderboard", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/leaderboard error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp, _ = client.Get(ts.URL + "/api/leaderboard")
	json.NewDecoder(resp.Body).Decode(&board)
	resp.Body.Close()
	if len(board.Entries) != 0 {
		t.Errorf("leaderboard after clear = %+v", board.Entries)
	}
}

func TestAPI_SetupFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	camera := capture.NewBlankCamera(640, 480)
	defer camera.Release()
	camera.SetOpenError(capture.ErrPermissionDenied)

	cfg := app.DefaultConfig()
	cfg.Store = s
	cfg.Sound = false
	a := app.New(cfg, app.WithCamera(camera), app.WithDetector(detector.NewMockDetector()))
	defer a.Shutdown()

	ts := httptest.NewServer(New(Config{Game: a}))
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/game", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/game error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "camera access required to play" {
		t.Errorf("error = %q", body.Error)
	}
}
