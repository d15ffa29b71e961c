package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AccelByte/extend-ranking-progression/pkg/badge"
	"github.com/AccelByte/extend-ranking-progression/pkg/common"
	"github.com/AccelByte/extend-ranking-progression/pkg/leaderboard"
	"github.com/AccelByte/extend-ranking-progression/pkg/metrics"
	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
	"github.com/AccelByte/extend-ranking-progression/pkg/registry"
	"github.com/AccelByte/extend-ranking-progression/pkg/stats"
)

const (
	// DefaultCategoryViewCap bounds each per-category leaderboard view.
	DefaultCategoryViewCap = 50
	// DefaultGlobalViewCap bounds the single global leaderboard view.
	DefaultGlobalViewCap = 100
)

// Service is the engine façade. It sequences aggregator, leaderboard index
// and registry for every completion, and is the only component that treats
// "category view" and "global view" as distinct concerns layered over the
// same per-category records.
//
// The three steps of a completion are separate store operations, not one
// transaction. Views lag the record they project when a later step fails,
// but every view write is internally consistent, and resubmitting the same
// completion re-derives every projection from the stored record.
type Service struct {
	store       progression.Store
	aggregator  *stats.Aggregator
	index       *leaderboard.Index
	registry    *registry.Registry
	categoryCap int
	globalCap   int
}

type ServiceConfig struct {
	// CategoryViewCap overrides the per-category view bound (default 50).
	CategoryViewCap int
	// GlobalViewCap overrides the global view bound (default 100).
	GlobalViewCap int
}

// NewService creates the engine façade over its collaborators.
func NewService(
	store progression.Store,
	aggregator *stats.Aggregator,
	index *leaderboard.Index,
	reg *registry.Registry,
	cfg ServiceConfig,
) *Service {
	s := &Service{
		store:       store,
		aggregator:  aggregator,
		index:       index,
		registry:    reg,
		categoryCap: DefaultCategoryViewCap,
		globalCap:   DefaultGlobalViewCap,
	}
	if cfg.CategoryViewCap > 0 {
		s.categoryCap = cfg.CategoryViewCap
	}
	if cfg.GlobalViewCap > 0 {
		s.globalCap = cfg.GlobalViewCap
	}
	return s
}

// RecordCompletion is the sole write path: it folds the completion into the
// player's category record, refreshes the global aggregate, re-projects
// both leaderboard views and records membership, then reports the player's
// new ranks and tier.
func (s *Service) RecordCompletion(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	scope := common.GetScopeFromContext(ctx, "RankingService.RecordCompletion")
	defer scope.Finish()
	ctx = scope.Ctx

	scope.AddBaggage("player", req.Player)
	scope.AddBaggage("category", req.Category)
	scope.SetAttributes("score", req.Score)

	timer := prometheus.NewTimer(metrics.CompletionDuration)
	defer timer.ObserveDuration()

	rec, err := s.aggregator.ApplyCompletion(ctx, req.Player, req.Category, req.Score, req.Difficulty)
	if err != nil {
		scope.TraceError(err)
		return nil, err
	}
	scope.TraceEvent("category record updated")

	global, err := s.aggregator.FoldIntoGlobal(ctx, rec, req.Score)
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("completion stored but global aggregate failed, resubmit: %w", err)
	}

	viewScope := scope.NewChildScope("RankingService.ProjectViews")
	defer viewScope.Finish()
	ctx = viewScope.Ctx

	categoryView, err := s.index.Upsert(ctx, progression.CategoryViewName(req.Category), s.categoryCap,
		progression.LeaderboardEntry{
			Player:        rec.Player,
			AverageScore:  rec.AverageScore,
			TotalScore:    rec.TotalScore,
			PuzzlesSolved: rec.PuzzlesSolved,
		})
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("completion stored but category view failed, resubmit: %w", err)
	}

	globalView, err := s.index.Upsert(ctx, progression.GlobalViewName, s.globalCap,
		progression.LeaderboardEntry{
			Player:        global.Player,
			AverageScore:  stats.Average(global.TotalScore, global.TotalPuzzlesSolved),
			TotalScore:    global.TotalScore,
			PuzzlesSolved: global.TotalPuzzlesSolved,
		})
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("completion stored but global view failed, resubmit: %w", err)
	}

	if err := s.registry.RecordMembership(ctx, req.Category, req.Player); err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("completion stored but membership failed, resubmit: %w", err)
	}

	categoryRank, ok := leaderboard.Rank(categoryView, req.Player)
	if !ok {
		categoryRank = s.categoryCap + 1
	}
	globalRank, ok := leaderboard.Rank(globalView, req.Player)
	if !ok {
		globalRank = s.globalCap + 1
	}

	metrics.CompletionsTotal.WithLabelValues(req.Category).Inc()
	scope.Log.Infof("recorded completion for %s in %s: %d solved, rank %d (global %d)",
		req.Player, req.Category, rec.PuzzlesSolved, categoryRank, globalRank)

	return &CompletionResult{
		PuzzlesSolved: rec.PuzzlesSolved,
		AverageScore:  rec.AverageScore,
		BadgeTier:     rec.BadgeTier,
		CategoryRank:  categoryRank,
		GlobalRank:    globalRank,
	}, nil
}

// CategoryLeaderboard returns the category's top entries and population.
// An empty category degrades to "no entries yet", never an error. When
// caller is non-empty the caller's own rank and stats are resolved, with
// the sentinel rank cap+1 for a record outside the visible top N.
func (s *Service) CategoryLeaderboard(ctx context.Context, category, caller string) (*Leaderboard, error) {
	scope := common.GetScopeFromContext(ctx, "RankingService.CategoryLeaderboard")
	defer scope.Finish()
	ctx = scope.Ctx

	if category == "" {
		return nil, stats.ErrEmptyCategory
	}

	view, err := s.loadView(scope, progression.CategoryViewName(category), s.categoryCap)
	if err != nil {
		return nil, err
	}

	total, err := s.registry.PopulationOf(ctx, category)
	if err != nil {
		scope.TraceError(err)
		return nil, err
	}

	board := &Leaderboard{
		Entries:      view.Entries,
		TotalPlayers: total,
	}

	if caller != "" {
		board.CallerRank, board.CallerStats, err = s.resolveCaller(scope, view, caller, func() (*progression.LeaderboardEntry, error) {
			rec, err := s.store.GetRecord(ctx, category, caller)
			if err != nil {
				return nil, err
			}
			return &progression.LeaderboardEntry{
				Player:        rec.Player,
				AverageScore:  rec.AverageScore,
				TotalScore:    rec.TotalScore,
				PuzzlesSolved: rec.PuzzlesSolved,
			}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return board, nil
}

// GlobalLeaderboard returns the cross-category top entries and population.
func (s *Service) GlobalLeaderboard(ctx context.Context, caller string) (*Leaderboard, error) {
	scope := common.GetScopeFromContext(ctx, "RankingService.GlobalLeaderboard")
	defer scope.Finish()
	ctx = scope.Ctx

	view, err := s.loadView(scope, progression.GlobalViewName, s.globalCap)
	if err != nil {
		return nil, err
	}

	total, err := s.registry.GlobalPopulation(ctx)
	if err != nil {
		scope.TraceError(err)
		return nil, err
	}

	board := &Leaderboard{
		Entries:      view.Entries,
		TotalPlayers: total,
	}

	if caller != "" {
		board.CallerRank, board.CallerStats, err = s.resolveCaller(scope, view, caller, func() (*progression.LeaderboardEntry, error) {
			global, err := s.store.GetGlobalRecord(ctx, caller)
			if err != nil {
				return nil, err
			}
			return &progression.LeaderboardEntry{
				Player:        global.Player,
				AverageScore:  stats.Average(global.TotalScore, global.TotalPuzzlesSolved),
				TotalScore:    global.TotalScore,
				PuzzlesSolved: global.TotalPuzzlesSolved,
			}, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return board, nil
}

// Badges returns the player's tier per category, covering only categories
// the player holds a record in.
func (s *Service) Badges(ctx context.Context, player string) (map[string]badge.Tier, error) {
	scope := common.GetScopeFromContext(ctx, "RankingService.Badges")
	defer scope.Finish()
	ctx = scope.Ctx

	if player == "" {
		return nil, stats.ErrEmptyPlayer
	}

	categories, err := s.registry.Categories(ctx)
	if err != nil {
		scope.TraceError(err)
		return nil, err
	}

	badges := make(map[string]badge.Tier)
	for _, category := range categories {
		rec, err := s.store.GetRecord(ctx, category, player)
		switch {
		case err == nil:
			badges[category] = rec.BadgeTier
		case errors.Is(err, progression.ErrNotFound):
			continue
		case errors.Is(err, progression.ErrCorruptRecord):
			metrics.CorruptRecordsTotal.Inc()
			scope.Log.Errorf("skipping corrupt record for %s/%s: %v", category, player, err)
			continue
		default:
			scope.TraceError(err)
			return nil, err
		}
	}

	return badges, nil
}

// ResetCategory clears one category's records, view and membership.
// An empty category resets everything: every category, the global view and
// every global aggregate.
func (s *Service) ResetCategory(ctx context.Context, category string) error {
	scope := common.GetScopeFromContext(ctx, "RankingService.ResetCategory")
	defer scope.Finish()
	ctx = scope.Ctx

	metrics.ResetsTotal.Inc()

	if category != "" {
		if err := s.resetOne(ctx, category); err != nil {
			scope.TraceError(err)
			return err
		}
		scope.Log.Infof("reset category %s", category)
		return nil
	}

	categories, err := s.registry.Categories(ctx)
	if err != nil {
		scope.TraceError(err)
		return err
	}

	// Collect global players before membership is wiped.
	players, err := s.store.SetMembers(ctx, progression.GlobalPlayersSet)
	if err != nil {
		scope.TraceError(err)
		return err
	}

	for _, c := range categories {
		if err := s.resetOne(ctx, c); err != nil {
			scope.TraceError(err)
			return err
		}
	}
	for _, player := range players {
		if err := s.store.DeleteGlobalRecord(ctx, player); err != nil {
			scope.TraceError(err)
			return err
		}
	}
	if err := s.store.DeleteView(ctx, progression.GlobalViewName); err != nil {
		scope.TraceError(err)
		return err
	}
	if err := s.registry.ResetAll(ctx); err != nil {
		scope.TraceError(err)
		return err
	}

	scope.Log.Infof("reset all: %d categories, %d players", len(categories), len(players))
	return nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) resetOne(ctx context.Context, category string) error {
	players, err := s.registry.PlayersOf(ctx, category)
	if err != nil {
		return err
	}
	for _, player := range players {
		if err := s.store.DeleteRecord(ctx, category, player); err != nil {
			return err
		}
	}
	if err := s.store.DeleteView(ctx, progression.CategoryViewName(category)); err != nil {
		return err
	}
	return s.registry.ResetCategory(ctx, category)
}

// loadView fetches a view for reading, degrading corruption to an empty
// view: leaderboards are projections and must never fail a read on bad
// stored data.
func (s *Service) loadView(scope *common.Scope, name string, cap int) (*progression.LeaderboardView, error) {
	view, err := s.index.Get(scope.Ctx, name, cap)
	if err != nil {
		if errors.Is(err, progression.ErrCorruptRecord) {
			metrics.CorruptRecordsTotal.Inc()
			scope.Log.Errorf("view %s is corrupt, serving empty: %v", name, err)
			return progression.NewLeaderboardView(name, cap), nil
		}
		scope.TraceError(err)
		return nil, err
	}
	return view, nil
}

// resolveCaller computes the caller-specific rank fields for a view: the
// real rank when visible, cap+1 plus raw stats when a record exists outside
// the cap, and zero values when the caller is unknown. Only absence and
// corruption degrade to "unranked"; a backend failure propagates, so an
// outage never masquerades as a player with no record.
func (s *Service) resolveCaller(
	scope *common.Scope,
	view *progression.LeaderboardView,
	caller string,
	loadStats func() (*progression.LeaderboardEntry, error),
) (int, *progression.LeaderboardEntry, error) {
	if rank, ok := leaderboard.Rank(view, caller); ok {
		entry := view.Entries[rank-1]
		return rank, &entry, nil
	}

	entry, err := loadStats()
	switch {
	case err == nil:
		return view.Cap + 1, entry, nil
	case errors.Is(err, progression.ErrNotFound):
		return 0, nil, nil
	case errors.Is(err, progression.ErrCorruptRecord):
		metrics.CorruptRecordsTotal.Inc()
		scope.Log.Errorf("caller %s has a corrupt record, reporting unranked: %v", caller, err)
		return 0, nil, nil
	default:
		scope.TraceError(err)
		return 0, nil, fmt.Errorf("failed to resolve caller %s stats: %w", caller, err)
	}
}
