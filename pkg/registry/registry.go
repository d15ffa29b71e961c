package registry

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
)

// Registry tracks distinct-player membership per category and globally.
// Membership is append-only; the only removal path is an explicit category
// or full reset. Counts are what leaderboard responses report as the total
// population behind the visible top N.
type Registry struct {
	store progression.Store
}

// New creates a registry over the given store.
func New(store progression.Store) *Registry {
	return &Registry{store: store}
}

// RecordMembership adds the player to the category's player set and the
// global player set, and the category to the known-categories set. All
// three adds are idempotent.
func (r *Registry) RecordMembership(ctx context.Context, category, player string) error {
	if err := r.store.AddToSet(ctx, progression.CategoryPlayersSet(category), player); err != nil {
		return fmt.Errorf("failed to record category membership: %w", err)
	}
	if err := r.store.AddToSet(ctx, progression.GlobalPlayersSet, player); err != nil {
		return fmt.Errorf("failed to record global membership: %w", err)
	}
	if err := r.store.AddToSet(ctx, progression.CategoriesSet, category); err != nil {
		return fmt.Errorf("failed to record category: %w", err)
	}
	return nil
}

// PopulationOf returns the number of distinct players in a category.
func (r *Registry) PopulationOf(ctx context.Context, category string) (int64, error) {
	return r.store.SetSize(ctx, progression.CategoryPlayersSet(category))
}

// GlobalPopulation returns the number of distinct players seen anywhere.
func (r *Registry) GlobalPopulation(ctx context.Context) (int64, error) {
	return r.store.SetSize(ctx, progression.GlobalPlayersSet)
}

// PlayersOf returns the distinct players of a category, in no particular
// order. The reset path walks this to find the record keys to delete.
func (r *Registry) PlayersOf(ctx context.Context, category string) ([]string, error) {
	return r.store.SetMembers(ctx, progression.CategoryPlayersSet(category))
}

// Categories returns every category the engine has seen a completion for.
func (r *Registry) Categories(ctx context.Context) ([]string, error) {
	return r.store.SetMembers(ctx, progression.CategoriesSet)
}

// ResetCategory forgets a category's membership set and drops the category
// from the known-categories set. Global membership is left alone: a player
// remains counted globally while any other category still knows them.
func (r *Registry) ResetCategory(ctx context.Context, category string) error {
	if err := r.store.DeleteSet(ctx, progression.CategoryPlayersSet(category)); err != nil {
		return fmt.Errorf("failed to reset category players: %w", err)
	}
	if err := r.store.RemoveFromSet(ctx, progression.CategoriesSet, category); err != nil {
		return fmt.Errorf("failed to forget category: %w", err)
	}
	return nil
}

// ResetAll forgets every membership set, including the global one.
func (r *Registry) ResetAll(ctx context.Context) error {
	categories, err := r.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	for _, category := range categories {
		if err := r.store.DeleteSet(ctx, progression.CategoryPlayersSet(category)); err != nil {
			return fmt.Errorf("failed to reset category players: %w", err)
		}
	}
	if err := r.store.DeleteSet(ctx, progression.CategoriesSet); err != nil {
		return fmt.Errorf("failed to reset categories: %w", err)
	}
	if err := r.store.DeleteSet(ctx, progression.GlobalPlayersSet); err != nil {
		return fmt.Errorf("failed to reset global players: %w", err)
	}
	return nil
}
