package badge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp tier table: %v", err)
	}
	return path
}

func TestLoadTable(t *testing.T) {
	path := writeTempTable(t, `
tiers:
  - tier: bronze
    minPuzzles: 3
    minAvgScore: 50
  - tier: silver
    minPuzzles: 5
    minAvgScore: 75
  - tier: gold
    minPuzzles: 8
    minAvgScore: 100
`)

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if got := table.Classify(8, 120); got != TierGold {
		t.Errorf("Classify(8, 120) = %v, expected %v", got, TierGold)
	}
	if got := len(table.Thresholds()); got != 3 {
		t.Errorf("len(Thresholds()) = %d, expected 3", got)
	}
}

func TestLoadTable_EnvExpansion(t *testing.T) {
	t.Setenv("BRONZE_MIN_PUZZLES", "4")

	path := writeTempTable(t, `
tiers:
  - tier: bronze
    minPuzzles: ${BRONZE_MIN_PUZZLES:3}
    minAvgScore: ${BRONZE_MIN_AVG:50}
`)

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	// BRONZE_MIN_PUZZLES is set, BRONZE_MIN_AVG falls back to its default.
	if got := table.Classify(3, 60); got != TierNone {
		t.Errorf("Classify(3, 60) = %v, expected %v (minPuzzles raised to 4)", got, TierNone)
	}
	if got := table.Classify(4, 50); got != TierBronze {
		t.Errorf("Classify(4, 50) = %v, expected %v", got, TierBronze)
	}
}

func TestLoadTable_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTable(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("LoadTable() expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeTempTable(t, "tiers: [not: closed")
		if _, err := LoadTable(path); err == nil {
			t.Error("LoadTable() expected error for malformed YAML")
		}
	})

	t.Run("non-monotonic table", func(t *testing.T) {
		path := writeTempTable(t, `
tiers:
  - tier: bronze
    minPuzzles: 5
    minAvgScore: 50
  - tier: silver
    minPuzzles: 4
    minAvgScore: 75
`)
		if _, err := LoadTable(path); err == nil {
			t.Error("LoadTable() expected error for non-monotonic thresholds")
		}
	})
}
