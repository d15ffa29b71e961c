// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AccelByte/extend-ranking-progression/pkg/badge"
	"github.com/AccelByte/extend-ranking-progression/pkg/leaderboard"
	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
	"github.com/AccelByte/extend-ranking-progression/pkg/ranking"
	"github.com/AccelByte/extend-ranking-progression/pkg/registry"
	"github.com/AccelByte/extend-ranking-progression/pkg/stats"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store := progression.NewMemoryStore()
	agg := stats.NewAggregator(store, badge.DefaultTable(), stats.AggregatorConfig{
		MaxRetries:    10,
		RetryInterval: time.Millisecond,
	})
	svc := ranking.NewService(store, agg, leaderboard.NewIndex(store), registry.New(store), ranking.ServiceConfig{})

	srv := NewHTTPServer(0, svc)
	if err := srv.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecordCompletionEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/completions",
		`{"player":"alice","category":"cat-A","score":150,"difficulty":"hard"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}

	var result ranking.CompletionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.PuzzlesSolved != 1 || result.AverageScore != 150 {
		t.Errorf("result = %+v, expected 1 puzzle at average 150", result)
	}
	if result.CategoryRank != 1 || result.GlobalRank != 1 {
		t.Errorf("ranks = %d/%d, expected 1/1", result.CategoryRank, result.GlobalRank)
	}
}

func TestRecordCompletionEndpoint_BadRequests(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"empty player", `{"category":"cat-A","score":10}`},
		{"empty category", `{"player":"alice","score":10}`},
		{"bad difficulty", `{"player":"alice","category":"cat-A","score":10,"difficulty":"brutal"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/v1/completions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, expected 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{
		`{"player":"alice","category":"cat-A","score":300}`,
		`{"player":"bob","category":"cat-A","score":100}`,
		`{"player":"bob","category":"cat-B","score":500}`,
	} {
		if rec := doJSON(t, h, http.MethodPost, "/v1/completions", body); rec.Code != http.StatusOK {
			t.Fatalf("seed completion failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/leaderboards/cat-A?player=bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("category status = %d: %s", rec.Code, rec.Body.String())
	}
	var board ranking.Leaderboard
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("unmarshal category board: %v", err)
	}
	if len(board.Entries) != 2 || board.TotalPlayers != 2 {
		t.Errorf("category board = %+v, expected 2 entries of 2 players", board)
	}
	if board.Entries[0].Player != "alice" {
		t.Errorf("leader = %s, expected alice", board.Entries[0].Player)
	}
	if board.CallerRank != 2 {
		t.Errorf("caller rank = %d, expected 2", board.CallerRank)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/leaderboards/global?player=bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("global status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("unmarshal global board: %v", err)
	}
	// bob: 600 over 2 puzzles (avg 300) beats alice's single 300.
	if len(board.Entries) != 2 || board.Entries[0].Player != "bob" {
		t.Errorf("global board = %+v, expected bob leading", board)
	}
}

func TestLeaderboardEndpoint_EmptyCategory(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/leaderboards/never-played", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200 for empty category", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"entries":[]`) {
		t.Errorf("empty board body = %s, expected entries to serialize as []", rec.Body.String())
	}
	var board ranking.Leaderboard
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(board.Entries) != 0 || board.TotalPlayers != 0 {
		t.Errorf("board = %+v, expected empty", board)
	}
}

func TestBadgesEndpoint(t *testing.T) {
	h := newTestHandler(t)

	for i := 0; i < 3; i++ {
		doJSON(t, h, http.MethodPost, "/v1/completions", `{"player":"alice","category":"cat-A","score":60}`)
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/players/alice/badges", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp badgesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Badges["cat-A"] != "bronze" {
		t.Errorf("badges = %v, expected cat-A bronze", resp.Badges)
	}
}

func TestResetEndpoint(t *testing.T) {
	h := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/v1/completions", `{"player":"alice","category":"cat-A","score":100}`)

	rec := doJSON(t, h, http.MethodPost, "/v1/admin/reset", `{"category":"cat-A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/leaderboards/cat-A", "")
	var board ranking.Leaderboard
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(board.Entries) != 0 || board.TotalPlayers != 0 {
		t.Errorf("board after reset = %+v, expected empty", board)
	}
}

func TestResetEndpoint_All(t *testing.T) {
	h := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/v1/completions", `{"player":"alice","category":"cat-A","score":100}`)
	doJSON(t, h, http.MethodPost, "/v1/completions", `{"player":"bob","category":"cat-B","score":100}`)

	rec := doJSON(t, h, http.MethodPost, "/v1/admin/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset-all status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp resetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Reset != "all" {
		t.Errorf("reset scope = %s, expected all", resp.Reset)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/leaderboards/global", "")
	var board ranking.Leaderboard
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(board.Entries) != 0 {
		t.Errorf("global board after reset-all = %+v, expected empty", board)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated X-Request-Id header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "fixed-id" {
		t.Errorf("X-Request-Id = %s, expected the caller's fixed-id", got)
	}
}
