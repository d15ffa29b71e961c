package ranking

import (
	"github.com/AccelByte/extend-ranking-progression/pkg/badge"
	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
)

// CompletionRequest is one puzzle completion event. Difficulty is optional;
// when present it must be one of the fixed labels.
type CompletionRequest struct {
	Player     string                 `json:"player"`
	Category   string                 `json:"category"`
	Score      int                    `json:"score"`
	Difficulty progression.Difficulty `json:"difficulty,omitempty"`
}

// CompletionResult reports the player's position after a completion was
// recorded.
type CompletionResult struct {
	PuzzlesSolved int        `json:"puzzlesSolved"`
	AverageScore  int        `json:"averageScore"`
	BadgeTier     badge.Tier `json:"badgeTier"`
	CategoryRank  int        `json:"categoryRank"`
	GlobalRank    int        `json:"globalRank"`
}

// Leaderboard is a read snapshot of one view plus the caller's own
// position when a caller was named. CallerRank carries the sentinel value
// cap+1 when the caller holds a record that fell outside the visible top N,
// and is omitted entirely for a caller with no record.
type Leaderboard struct {
	Entries      []progression.LeaderboardEntry `json:"entries"`
	TotalPlayers int64                          `json:"totalPlayers"`
	CallerRank   int                            `json:"callerRank,omitempty"`
	CallerStats  *progression.LeaderboardEntry  `json:"callerStats,omitempty"`
}
