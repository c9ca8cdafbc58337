package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/airjuggler/internal/app"
	"github.com/ayusman/airjuggler/internal/capture"
	"github.com/ayusman/airjuggler/internal/game"
	"github.com/ayusman/airjuggler/internal/leaderboard"
	"github.com/ayusman/airjuggler/internal/store"
	"github.com/ayusman/airjuggler/internal/tracking"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

type fakeGame struct {
	startErr error
	starts   int
	status   app.Status
}

func (f *fakeGame) StartGame(ctx context.Context) error {
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.status.Active = true
	return nil
}

func (f *fakeGame) Status() app.Status { return f.status }

func TestGameHandler_Start(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "starts a session",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "session already running",
			err:        app.ErrSessionActive,
			wantStatus: http.StatusConflict,
			wantError:  "a game is already in progress",
		},
		{
			name:       "camera refused",
			err:        fmt.Errorf("%w: open camera: %w", tracking.ErrSetup, capture.ErrPermissionDenied),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "camera access required to play",
		},
		{
			name:       "unexpected failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to start game",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGame{startErr: tt.err}
			handler := NewGameHandler(g)

			req := httptest.NewRequest(http.MethodPost, "/api/game", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
			if g.starts != 1 {
				t.Errorf("StartGame called %d times, want 1", g.starts)
			}

			if tt.wantError == "" {
				var st app.Status
				if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if !st.Active {
					t.Error("expected active status")
				}
				return
			}

			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestGameHandler_Status(t *testing.T) {
	outcome := game.NewOutcome("s-1", 42)
	outcome.Rank = 1
	g := &fakeGame{status: app.Status{
		TrackingReady: true,
		Session:       &game.Snapshot{SessionID: "s-1", Phase: game.PhaseOver, Score: 42},
		LastOutcome:   &outcome,
	}}
	handler := NewGameHandler(g)

	req := httptest.NewRequest(http.MethodGet, "/api/game", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Active        bool `json:"active"`
		TrackingReady bool `json:"tracking_ready"`
		Session       struct {
			Phase string `json:"phase"`
			Score int    `json:"score"`
		} `json:"session"`
		LastOutcome struct {
			Score   int    `json:"score"`
			Tier    string `json:"tier"`
			Message string `json:"message"`
			Rank    int    `json:"rank"`
		} `json:"last_outcome"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Active || !resp.TrackingReady {
		t.Errorf("unexpected flags: %+v", resp)
	}
	if resp.Session.Phase != "over" || resp.Session.Score != 42 {
		t.Errorf("session = %+v", resp.Session)
	}
	if resp.LastOutcome.Tier != "best" || resp.LastOutcome.Message != "Amazing!" || resp.LastOutcome.Rank != 1 {
		t.Errorf("last outcome = %+v", resp.LastOutcome)
	}
	if g.starts != 0 {
		t.Error("GET should not start a game")
	}
}

func TestGameHandler_MethodNotAllowed(t *testing.T) {
	handler := NewGameHandler(&fakeGame{})

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req := httptest.NewRequest(method, "/api/game", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestLeaderboardHandler_List(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	board := leaderboard.New(s.Settings(), leaderboard.WithClock(func() time.Time { return now }))

	for _, score := range []int{12, 40, 7} {
		if _, err := board.Save(score); err != nil {
			t.Fatalf("Save(%d) error = %v", score, err)
		}
	}

	handler := NewLeaderboardHandler(board)
	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp leaderboardResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []int{40, 12, 7}
	if len(resp.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(resp.Entries))
	}
	for i, e := range resp.Entries {
		if e.Score != want[i] || e.Rank != i+1 {
			t.Errorf("entry %d = %+v, want rank %d score %d", i, e, i+1, want[i])
		}
		if e.Date != "3/14/2026, 3:09:26 PM" {
			t.Errorf("entry %d date = %q", i, e.Date)
		}
	}
}

func TestLeaderboardHandler_EmptyIsArray(t *testing.T) {
	handler := NewLeaderboardHandler(leaderboard.New(newTestStore(t).Settings()))

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if body := rec.Body.String(); body != "{\"entries\":[]}\n" {
		t.Errorf("body = %q, want empty entries array", body)
	}
}

func TestLeaderboardHandler_Clear(t *testing.T) {
	s := newTestStore(t)
	board := leaderboard.New(s.Settings())
	board.Save(10)

	handler := NewLeaderboardHandler(board)
	req := httptest.NewRequest(http.MethodDelete, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if entries := board.Load(); len(entries) != 0 {
		t.Errorf("expected empty leaderboard, got %+v", entries)
	}
}

type failingBoard struct{}

func (failingBoard) Load() []leaderboard.Entry { return []leaderboard.Entry{} }
func (failingBoard) Clear() error              { return errors.New("disk full") }

func TestLeaderboardHandler_ClearError(t *testing.T) {
	handler := NewLeaderboardHandler(failingBoard{})

	req := httptest.NewRequest(http.MethodDelete, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}
