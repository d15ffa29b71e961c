package badge

import "fmt"

// Tier is a discrete achievement level derived from aggregate performance.
// The zero value TierNone means no threshold has been met yet.
type Tier string

const (
	TierNone     Tier = "none"
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierMaster   Tier = "master"
)

// tierOrder maps each tier to its position in the progression ladder.
var tierOrder = map[Tier]int{
	TierNone:     0,
	TierBronze:   1,
	TierSilver:   2,
	TierGold:     3,
	TierPlatinum: 4,
	TierMaster:   5,
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// AtLeast reports whether t is equal to or above other in the ladder.
func (t Tier) AtLeast(other Tier) bool {
	return tierOrder[t] >= tierOrder[other]
}

// Threshold is one row of the tier table: the minimum puzzle count and
// minimum average score a player must both satisfy to hold the tier.
type Threshold struct {
	Tier        Tier `yaml:"tier" json:"tier"`
	MinPuzzles  int  `yaml:"minPuzzles" json:"minPuzzles"`
	MinAvgScore int  `yaml:"minAvgScore" json:"minAvgScore"`
}

// Table is an ordered tier table, ascending from the easiest tier to the
// hardest. Classification is a scan over this data rather than branching
// code, so adding or retuning a tier is a data change.
type Table struct {
	thresholds []Threshold
}

// DefaultTable returns the built-in tier table.
func DefaultTable() *Table {
	t, err := NewTable([]Threshold{
		{Tier: TierBronze, MinPuzzles: 3, MinAvgScore: 50},
		{Tier: TierSilver, MinPuzzles: 5, MinAvgScore: 75},
		{Tier: TierGold, MinPuzzles: 8, MinAvgScore: 100},
		{Tier: TierPlatinum, MinPuzzles: 12, MinAvgScore: 150},
		{Tier: TierMaster, MinPuzzles: 15, MinAvgScore: 200},
	})
	if err != nil {
		// The built-in table is validated by tests; a failure here is a bug.
		panic(err)
	}
	return t
}

// NewTable builds a Table from ascending threshold rows. Both thresholds
// must strictly increase from row to row; that is what keeps classification
// monotonic in both inputs.
func NewTable(thresholds []Threshold) (*Table, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("tier table is empty")
	}

	seen := make(map[Tier]bool)
	for i, th := range thresholds {
		if !th.Tier.Valid() || th.Tier == TierNone {
			return nil, fmt.Errorf("row %d: unknown tier %q", i, th.Tier)
		}
		if seen[th.Tier] {
			return nil, fmt.Errorf("duplicate tier %q", th.Tier)
		}
		seen[th.Tier] = true

		if th.MinPuzzles < 1 {
			return nil, fmt.Errorf("tier %q: minPuzzles must be at least 1", th.Tier)
		}
		if i > 0 {
			prev := thresholds[i-1]
			if tierOrder[th.Tier] <= tierOrder[prev.Tier] {
				return nil, fmt.Errorf("tier %q listed after %q, table must ascend", th.Tier, prev.Tier)
			}
			if th.MinPuzzles <= prev.MinPuzzles {
				return nil, fmt.Errorf("tier %q: minPuzzles %d does not exceed %q's %d",
					th.Tier, th.MinPuzzles, prev.Tier, prev.MinPuzzles)
			}
			if th.MinAvgScore <= prev.MinAvgScore {
				return nil, fmt.Errorf("tier %q: minAvgScore %d does not exceed %q's %d",
					th.Tier, th.MinAvgScore, prev.Tier, prev.MinAvgScore)
			}
		}
	}

	cp := make([]Threshold, len(thresholds))
	copy(cp, thresholds)
	return &Table{thresholds: cp}, nil
}

// Classify returns the highest tier whose thresholds are both satisfied by
// the given aggregate stats, or TierNone when no row is met. It scans the
// table from the hardest tier down and returns the first match.
func (t *Table) Classify(puzzlesSolved, averageScore int) Tier {
	for i := len(t.thresholds) - 1; i >= 0; i-- {
		th := t.thresholds[i]
		if puzzlesSolved >= th.MinPuzzles && averageScore >= th.MinAvgScore {
			return th.Tier
		}
	}
	return TierNone
}

// Thresholds returns a copy of the table rows in ascending order.
func (t *Table) Thresholds() []Threshold {
	cp := make([]Threshold, len(t.thresholds))
	copy(cp, t.thresholds)
	return cp
}
