package progression

import "context"

// VersionNew is the expectedVersion sentinel for creating a record: the put
// succeeds only if no record exists yet under the key.
const VersionNew int64 = 0

// Store is the persistence contract for progression state. Records are
// whole-value get/put with compare-and-swap semantics; the store never
// interprets record fields beyond the version counter. Views and sets are
// plain replace/append primitives with no ordering of their own.
//
// Interfaces here follow the same reasoning as the service interfaces:
// direct struct usage would work, but an interface keeps the Redis and
// in-memory implementations swappable and the aggregator testable.
type Store interface {
	// GetRecord loads the record for (category, player).
	// Returns ErrNotFound when absent and ErrCorruptRecord when the stored
	// payload does not deserialize.
	GetRecord(ctx context.Context, category, player string) (*PlayerCategoryRecord, error)

	// PutRecord writes rec if the stored version still equals
	// expectedVersion (VersionNew for a record that must not exist yet).
	// On success the stored version becomes expectedVersion+1 and rec is
	// updated to match. Returns ErrVersionConflict without writing when a
	// concurrent writer got there first.
	PutRecord(ctx context.Context, rec *PlayerCategoryRecord, expectedVersion int64) error

	// DeleteRecord removes the record for (category, player). Deleting an
	// absent record is not an error.
	DeleteRecord(ctx context.Context, category, player string) error

	// GetGlobalRecord, PutGlobalRecord and DeleteGlobalRecord follow the
	// same contract for the per-player cross-category aggregate.
	GetGlobalRecord(ctx context.Context, player string) (*GlobalPlayerRecord, error)
	PutGlobalRecord(ctx context.Context, rec *GlobalPlayerRecord, expectedVersion int64) error
	DeleteGlobalRecord(ctx context.Context, player string) error

	// GetView loads a leaderboard view by name; ErrNotFound when absent.
	GetView(ctx context.Context, name string) (*LeaderboardView, error)

	// PutView replaces the named view wholesale. Concurrent PutView calls
	// may land in either order; each write is a complete, internally
	// consistent view, which is the guarantee leaderboards need.
	PutView(ctx context.Context, name string, view *LeaderboardView) error

	// DeleteView removes the named view.
	DeleteView(ctx context.Context, name string) error

	// AddToSet adds member to the named set; adding an existing member is
	// a no-op.
	AddToSet(ctx context.Context, set, member string) error

	// RemoveFromSet removes member from the named set.
	RemoveFromSet(ctx context.Context, set, member string) error

	// SetSize returns the cardinality of the named set.
	SetSize(ctx context.Context, set string) (int64, error)

	// SetMembers returns every member of the named set, in no particular
	// order.
	SetMembers(ctx context.Context, set string) ([]string, error)

	// DeleteSet removes the named set entirely.
	DeleteSet(ctx context.Context, set string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
