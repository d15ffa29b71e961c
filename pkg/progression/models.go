// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package progression

import (
	"time"

	"github.com/AccelByte/extend-ranking-progression/pkg/badge"
)

// Difficulty labels a completed puzzle. The set is fixed so that
// DifficultyBreakdown stays exhaustive; anything else is rejected at
// validation time rather than silently ignored.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every recognized difficulty label.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a recognized difficulty label.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// PlayerCategoryRecord is the source of truth for one (player, category)
// pair. All counters only ever grow; AverageScore and BadgeTier are derived
// on every update. Version increases strictly on every successful write and
// drives the store's compare-and-swap.
type PlayerCategoryRecord struct {
	Player              string             `json:"player"`
	Category            string             `json:"category"`
	PuzzlesSolved       int                `json:"puzzlesSolved"`
	TotalScore          int                `json:"totalScore"`
	AverageScore        int                `json:"averageScore"`
	BestScore           int                `json:"bestScore"`
	DifficultyBreakdown map[Difficulty]int `json:"difficultyBreakdown"`
	BadgeTier           badge.Tier         `json:"badgeTier"`
	LastPlayedAt        time.Time          `json:"lastPlayedAt"`
	Version             int64              `json:"version"`
}

// NewPlayerCategoryRecord returns a zero-valued record for a pair that has
// no stored state yet. The difficulty breakdown carries every known label
// so serialized records are exhaustive from the first write.
func NewPlayerCategoryRecord(player, category string) *PlayerCategoryRecord {
	breakdown := make(map[Difficulty]int, len(Difficulties))
	for _, d := range Difficulties {
		breakdown[d] = 0
	}
	return &PlayerCategoryRecord{
		Player:              player,
		Category:            category,
		DifficultyBreakdown: breakdown,
		BadgeTier:           badge.TierNone,
	}
}

// Clone returns a deep copy of the record.
func (r *PlayerCategoryRecord) Clone() *PlayerCategoryRecord {
	cp := *r
	cp.DifficultyBreakdown = make(map[Difficulty]int, len(r.DifficultyBreakdown))
	for k, v := range r.DifficultyBreakdown {
		cp.DifficultyBreakdown[k] = v
	}
	return &cp
}

// GlobalPlayerRecord aggregates a player's stats across every category the
// player has a PlayerCategoryRecord for. The per-category maps exist so the
// derived fields (totals, favorite category, badge count) can be re-folded
// deterministically when any single category record changes.
type GlobalPlayerRecord struct {
	Player             string                `json:"player"`
	TotalScore         int                   `json:"totalScore"`
	TotalPuzzlesSolved int                   `json:"totalPuzzlesSolved"`
	BestStreak         int                   `json:"bestStreak"`
	CurrentStreak      int                   `json:"currentStreak"`
	FavoriteCategory   string                `json:"favoriteCategory"`
	BadgeCount         int                   `json:"badgeCount"`
	CategoryPuzzles    map[string]int        `json:"categoryPuzzles"`
	CategoryScores     map[string]int        `json:"categoryScores"`
	CategoryTiers      map[string]badge.Tier `json:"categoryTiers"`
	LastPlayedAt       time.Time             `json:"lastPlayedAt"`
	Version            int64                 `json:"version"`
}

// NewGlobalPlayerRecord returns a zero-valued global record for a player.
func NewGlobalPlayerRecord(player string) *GlobalPlayerRecord {
	return &GlobalPlayerRecord{
		Player:          player,
		CategoryPuzzles: make(map[string]int),
		CategoryScores:  make(map[string]int),
		CategoryTiers:   make(map[string]badge.Tier),
	}
}

// Clone returns a deep copy of the record.
func (g *GlobalPlayerRecord) Clone() *GlobalPlayerRecord {
	cp := *g
	cp.CategoryPuzzles = make(map[string]int, len(g.CategoryPuzzles))
	for k, v := range g.CategoryPuzzles {
		cp.CategoryPuzzles[k] = v
	}
	cp.CategoryScores = make(map[string]int, len(g.CategoryScores))
	for k, v := range g.CategoryScores {
		cp.CategoryScores[k] = v
	}
	cp.CategoryTiers = make(map[string]badge.Tier, len(g.CategoryTiers))
	for k, v := range g.CategoryTiers {
		cp.CategoryTiers[k] = v
	}
	return &cp
}

// LeaderboardEntry is one row of a leaderboard view: a snapshot of the
// fields the ranking order is defined over.
type LeaderboardEntry struct {
	Player        string `json:"player"`
	AverageScore  int    `json:"averageScore"`
	TotalScore    int    `json:"totalScore"`
	PuzzlesSolved int    `json:"puzzlesSolved"`
}

// LeaderboardView is a bounded, sorted projection of records, rebuilt on
// write. It is not a source of truth; a view can lag the records it
// projects but is always internally consistent.
type LeaderboardView struct {
	Name    string             `json:"name"`
	Cap     int                `json:"cap"`
	Entries []LeaderboardEntry `json:"entries"`
}

// NewLeaderboardView returns an empty view bounded to at most cap entries.
// Entries starts as an empty slice, not nil, so an empty board serializes
// as [] rather than null.
func NewLeaderboardView(name string, cap int) *LeaderboardView {
	return &LeaderboardView{Name: name, Cap: cap, Entries: []LeaderboardEntry{}}
}

// Clone returns a deep copy of the view.
func (v *LeaderboardView) Clone() *LeaderboardView {
	cp := *v
	cp.Entries = make([]LeaderboardEntry, len(v.Entries))
	copy(cp.Entries, v.Entries)
	return &cp
}

// Logical key namespace shared by every store implementation. Categories
// and players never contain the separator because validation rejects empty
// identifiers and the Redis store prefixes everything, so collisions
// between namespaces cannot occur.
const (
	// GlobalViewName names the single cross-category leaderboard view.
	GlobalViewName = "leaderboard:global"
	// GlobalPlayersSet names the set of every player seen by the engine.
	GlobalPlayersSet = "players:global"
	// CategoriesSet names the set of every category seen by the engine.
	CategoriesSet = "categories"
)

// CategoryViewName returns the view name for a category leaderboard.
func CategoryViewName(category string) string {
	return "leaderboard:" + category
}

// CategoryPlayersSet returns the set name holding a category's players.
func CategoryPlayersSet(category string) string {
	return "players:" + category
}
