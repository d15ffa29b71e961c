package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
)

// Index maintains the bounded, sorted leaderboard views. Views are small
// (at most 100 entries) so every upsert rewrites the whole view: remove the
// player's old entry, insert the new snapshot, sort, truncate. A full
// rewrite re-establishes the ordering invariants no matter what state the
// stored view was in, which is worth more than an incremental resort.
type Index struct {
	store progression.Store
}

// NewIndex creates an index over the given store.
func NewIndex(store progression.Store) *Index {
	return &Index{store: store}
}

// entryLess defines the ranking order: average score descending, then
// total score, then puzzles solved, with the player identifier as the
// final ascending tie-break. The order is total, so a view never has ties.
func entryLess(a, b progression.LeaderboardEntry) bool {
	if a.AverageScore != b.AverageScore {
		return a.AverageScore > b.AverageScore
	}
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.PuzzlesSolved != b.PuzzlesSolved {
		return a.PuzzlesSolved > b.PuzzlesSolved
	}
	return a.Player < b.Player
}

// Apply merges one entry into a view in place: any previous entry for the
// same player is dropped first, so a player appears at most once.
func Apply(view *progression.LeaderboardView, entry progression.LeaderboardEntry) {
	kept := view.Entries[:0]
	for _, e := range view.Entries {
		if e.Player != entry.Player {
			kept = append(kept, e)
		}
	}
	view.Entries = append(kept, entry)

	sort.Slice(view.Entries, func(i, j int) bool {
		return entryLess(view.Entries[i], view.Entries[j])
	})

	if view.Cap > 0 && len(view.Entries) > view.Cap {
		view.Entries = view.Entries[:view.Cap]
	}
}

// Rank returns the 1-based position of player in the view, or false when
// the player is not present.
func Rank(view *progression.LeaderboardView, player string) (int, bool) {
	for i, e := range view.Entries {
		if e.Player == player {
			return i + 1, true
		}
	}
	return 0, false
}

// Upsert loads the named view (creating an empty one bounded to cap when
// absent), merges the entry and stores the result. Two racing upserts may
// land in either order; each leaves the view sorted, capped and free of
// duplicates, so the stored view is always internally consistent.
func (i *Index) Upsert(ctx context.Context, name string, cap int, entry progression.LeaderboardEntry) (*progression.LeaderboardView, error) {
	view, err := i.store.GetView(ctx, name)
	switch {
	case errors.Is(err, progression.ErrNotFound):
		view = progression.NewLeaderboardView(name, cap)
	case errors.Is(err, progression.ErrCorruptRecord):
		// A view is a projection, not a source of truth; rebuild from empty.
		logrus.Warnf("view %s is corrupt, rebuilding from empty", name)
		view = progression.NewLeaderboardView(name, cap)
	case err != nil:
		return nil, fmt.Errorf("failed to load view %s: %w", name, err)
	}

	Apply(view, entry)

	if err := i.store.PutView(ctx, name, view); err != nil {
		return nil, fmt.Errorf("failed to store view %s: %w", name, err)
	}

	return view, nil
}

// Get loads the named view, returning an empty capped view when absent.
func (i *Index) Get(ctx context.Context, name string, cap int) (*progression.LeaderboardView, error) {
	view, err := i.store.GetView(ctx, name)
	if errors.Is(err, progression.ErrNotFound) {
		return progression.NewLeaderboardView(name, cap), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load view %s: %w", name, err)
	}
	return view, nil
}
