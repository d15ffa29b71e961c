package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranking-progression/pkg/badge"
	"github.com/AccelByte/extend-ranking-progression/pkg/metrics"
	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
)

const (
	// defaultMaxRetries bounds the CAS retry loop. Conflicts for one
	// (player, category) key only occur when the same player submits
	// overlapping completions, so contention is low and a small budget
	// converges in practice.
	defaultMaxRetries = 5
	// defaultRetryInterval is the pause between CAS retries.
	defaultRetryInterval = 20 * time.Millisecond
)

// Aggregator applies completion events to a player's aggregate records.
// Updates are optimistic: load, mutate, put with the loaded version, retry
// on conflict. There is no safe blind merge for best-score and the
// difficulty breakdown, so every attempt re-reads the stored state.
type Aggregator struct {
	store         progression.Store
	tiers         *badge.Table
	maxRetries    uint64
	retryInterval time.Duration
	now           func() time.Time
}

type AggregatorConfig struct {
	// MaxRetries overrides the CAS retry budget (default 5).
	MaxRetries int
	// RetryInterval overrides the pause between retries (default 20ms).
	RetryInterval time.Duration
	// Now overrides the clock. Tests use this to pin LastPlayedAt.
	Now func() time.Time
}

// NewAggregator creates an aggregator over the given store and tier table.
func NewAggregator(store progression.Store, tiers *badge.Table, cfg AggregatorConfig) *Aggregator {
	a := &Aggregator{
		store:         store,
		tiers:         tiers,
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
		now:           time.Now,
	}
	if cfg.MaxRetries > 0 {
		a.maxRetries = uint64(cfg.MaxRetries)
	}
	if cfg.RetryInterval > 0 {
		a.retryInterval = cfg.RetryInterval
	}
	if cfg.Now != nil {
		a.now = cfg.Now
	}
	return a
}

// roundAverage derives the integer average score, rounded half away from
// zero so negative totals round symmetrically.
func roundAverage(totalScore, puzzlesSolved int) int {
	if puzzlesSolved == 0 {
		return 0
	}
	return int(math.Round(float64(totalScore) / float64(puzzlesSolved)))
}

// Average exposes the same derivation for callers projecting view entries
// out of aggregate totals.
func Average(totalScore, puzzlesSolved int) int {
	return roundAverage(totalScore, puzzlesSolved)
}

// ApplyCompletion folds one completion event into the (player, category)
// record and returns the stored result. Difficulty may be empty when the
// caller does not label the puzzle. A zero or negative score is accepted;
// it still counts the puzzle but never lowers BestScore.
func (a *Aggregator) ApplyCompletion(ctx context.Context, player, category string, score int, difficulty progression.Difficulty) (*progression.PlayerCategoryRecord, error) {
	if player == "" {
		return nil, ErrEmptyPlayer
	}
	if category == "" {
		return nil, ErrEmptyCategory
	}
	if difficulty != "" && !difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, difficulty)
	}

	var result *progression.PlayerCategoryRecord

	attempt := func() error {
		rec, expectedVersion, err := a.loadRecord(ctx, category, player)
		if err != nil {
			return backoff.Permanent(err)
		}

		a.applyScore(rec, score, difficulty)

		err = a.store.PutRecord(ctx, rec, expectedVersion)
		if errors.Is(err, progression.ErrVersionConflict) {
			metrics.VersionConflictsTotal.Inc()
			logrus.Debugf("completion for %s/%s lost a write race at version %d, retrying",
				category, player, expectedVersion)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}

		result = rec
		return nil
	}

	if err := a.retry(ctx, attempt); err != nil {
		return nil, err
	}
	return result, nil
}

// loadRecord fetches the current record and the version to CAS against,
// synthesizing a zero-valued record when none exists. A corrupt record is
// recovered by dropping it and starting fresh: aggregates are re-derivable
// from future completions, and a lost history beats an inconsistent one.
func (a *Aggregator) loadRecord(ctx context.Context, category, player string) (*progression.PlayerCategoryRecord, int64, error) {
	rec, err := a.store.GetRecord(ctx, category, player)
	switch {
	case err == nil:
		return rec, rec.Version, nil
	case errors.Is(err, progression.ErrNotFound):
		return progression.NewPlayerCategoryRecord(player, category), progression.VersionNew, nil
	case errors.Is(err, progression.ErrCorruptRecord):
		metrics.CorruptRecordsTotal.Inc()
		logrus.Errorf("corrupt record for %s/%s, resetting: %v", category, player, err)
		if err := a.store.DeleteRecord(ctx, category, player); err != nil {
			return nil, 0, fmt.Errorf("failed to drop corrupt record: %w", err)
		}
		return progression.NewPlayerCategoryRecord(player, category), progression.VersionNew, nil
	default:
		return nil, 0, err
	}
}

// applyScore mutates rec with one completion and re-derives every
// dependent field.
func (a *Aggregator) applyScore(rec *progression.PlayerCategoryRecord, score int, difficulty progression.Difficulty) {
	rec.PuzzlesSolved++
	rec.TotalScore += score
	if score > rec.BestScore {
		rec.BestScore = score
	}
	if difficulty != "" {
		if rec.DifficultyBreakdown == nil {
			rec.DifficultyBreakdown = make(map[progression.Difficulty]int, len(progression.Difficulties))
		}
		rec.DifficultyBreakdown[difficulty]++
	}
	rec.AverageScore = roundAverage(rec.TotalScore, rec.PuzzlesSolved)
	rec.BadgeTier = a.tiers.Classify(rec.PuzzlesSolved, rec.AverageScore)
	rec.LastPlayedAt = a.now()
}

// FoldIntoGlobal folds an updated category record into the player's global
// aggregate and returns the stored result. The per-category maps are
// replaced wholesale, so folding the same record twice converges to the
// same global state; only the streak counters advance per event. score is
// the score of the completion that produced rec, used for streak tracking.
func (a *Aggregator) FoldIntoGlobal(ctx context.Context, rec *progression.PlayerCategoryRecord, score int) (*progression.GlobalPlayerRecord, error) {
	var result *progression.GlobalPlayerRecord

	attempt := func() error {
		global, expectedVersion, err := a.loadGlobal(ctx, rec.Player)
		if err != nil {
			return backoff.Permanent(err)
		}

		global.CategoryPuzzles[rec.Category] = rec.PuzzlesSolved
		global.CategoryScores[rec.Category] = rec.TotalScore
		global.CategoryTiers[rec.Category] = rec.BadgeTier
		recomputeGlobalDerived(global)

		if score > 0 {
			global.CurrentStreak++
			if global.CurrentStreak > global.BestStreak {
				global.BestStreak = global.CurrentStreak
			}
		} else {
			global.CurrentStreak = 0
		}
		global.LastPlayedAt = rec.LastPlayedAt

		err = a.store.PutGlobalRecord(ctx, global, expectedVersion)
		if errors.Is(err, progression.ErrVersionConflict) {
			metrics.VersionConflictsTotal.Inc()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}

		result = global
		return nil
	}

	if err := a.retry(ctx, attempt); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Aggregator) loadGlobal(ctx context.Context, player string) (*progression.GlobalPlayerRecord, int64, error) {
	global, err := a.store.GetGlobalRecord(ctx, player)
	switch {
	case err == nil:
		if global.CategoryPuzzles == nil {
			global.CategoryPuzzles = make(map[string]int)
		}
		if global.CategoryScores == nil {
			global.CategoryScores = make(map[string]int)
		}
		if global.CategoryTiers == nil {
			global.CategoryTiers = make(map[string]badge.Tier)
		}
		return global, global.Version, nil
	case errors.Is(err, progression.ErrNotFound):
		return progression.NewGlobalPlayerRecord(player), progression.VersionNew, nil
	case errors.Is(err, progression.ErrCorruptRecord):
		metrics.CorruptRecordsTotal.Inc()
		logrus.Errorf("corrupt global record for %s, resetting: %v", player, err)
		if err := a.store.DeleteGlobalRecord(ctx, player); err != nil {
			return nil, 0, fmt.Errorf("failed to drop corrupt global record: %w", err)
		}
		return progression.NewGlobalPlayerRecord(player), progression.VersionNew, nil
	default:
		return nil, 0, err
	}
}

// recomputeGlobalDerived re-derives the totals, favorite category and badge
// count from the per-category maps. Favorite ties break toward the
// lexicographically smaller category so the result is deterministic.
func recomputeGlobalDerived(global *progression.GlobalPlayerRecord) {
	global.TotalScore = 0
	global.TotalPuzzlesSolved = 0
	global.FavoriteCategory = ""
	global.BadgeCount = 0

	bestPuzzles := -1
	for category, puzzles := range global.CategoryPuzzles {
		global.TotalPuzzlesSolved += puzzles
		if puzzles > bestPuzzles || (puzzles == bestPuzzles && category < global.FavoriteCategory) {
			bestPuzzles = puzzles
			global.FavoriteCategory = category
		}
	}
	for _, score := range global.CategoryScores {
		global.TotalScore += score
	}
	for _, tier := range global.CategoryTiers {
		if tier.AtLeast(badge.TierBronze) {
			global.BadgeCount++
		}
	}
}

// retry runs attempt under the bounded CAS retry policy and maps an
// exhausted budget to ErrConflictExhausted.
func (a *Aggregator) retry(ctx context.Context, attempt func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.retryInterval), a.maxRetries),
		ctx,
	)

	err := backoff.Retry(attempt, policy)
	if errors.Is(err, progression.ErrVersionConflict) {
		metrics.ConflictExhaustedTotal.Inc()
		return fmt.Errorf("%w: gave up after %d retries", ErrConflictExhausted, a.maxRetries)
	}
	return err
}
