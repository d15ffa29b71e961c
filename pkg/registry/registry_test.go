package registry

import (
	"context"
	"testing"

	"github.com/AccelByte/extend-ranking-progression/pkg/progression"
)

func TestRecordMembership_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg := New(progression.NewMemoryStore())

	for i := 0; i < 3; i++ {
		if err := reg.RecordMembership(ctx, "cat-A", "alice"); err != nil {
			t.Fatalf("RecordMembership() error = %v", err)
		}
	}
	if err := reg.RecordMembership(ctx, "cat-A", "bob"); err != nil {
		t.Fatalf("RecordMembership() error = %v", err)
	}
	if err := reg.RecordMembership(ctx, "cat-B", "alice"); err != nil {
		t.Fatalf("RecordMembership() error = %v", err)
	}

	if n, _ := reg.PopulationOf(ctx, "cat-A"); n != 2 {
		t.Errorf("PopulationOf(cat-A) = %d, expected 2", n)
	}
	if n, _ := reg.PopulationOf(ctx, "cat-B"); n != 1 {
		t.Errorf("PopulationOf(cat-B) = %d, expected 1", n)
	}
	// alice plays two categories but counts once globally.
	if n, _ := reg.GlobalPopulation(ctx); n != 2 {
		t.Errorf("GlobalPopulation() = %d, expected 2", n)
	}

	categories, err := reg.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("Categories() = %v, expected 2 categories", categories)
	}
}

func TestPopulationOf_EmptyCategory(t *testing.T) {
	ctx := context.Background()
	reg := New(progression.NewMemoryStore())

	n, err := reg.PopulationOf(ctx, "never-played")
	if err != nil {
		t.Fatalf("PopulationOf() error = %v", err)
	}
	if n != 0 {
		t.Errorf("PopulationOf() = %d, expected 0", n)
	}
}

func TestResetCategory(t *testing.T) {
	ctx := context.Background()
	reg := New(progression.NewMemoryStore())

	reg.RecordMembership(ctx, "cat-A", "alice")
	reg.RecordMembership(ctx, "cat-A", "bob")
	reg.RecordMembership(ctx, "cat-B", "alice")

	if err := reg.ResetCategory(ctx, "cat-A"); err != nil {
		t.Fatalf("ResetCategory() error = %v", err)
	}

	if n, _ := reg.PopulationOf(ctx, "cat-A"); n != 0 {
		t.Errorf("PopulationOf(cat-A) after reset = %d, expected 0", n)
	}
	if n, _ := reg.PopulationOf(ctx, "cat-B"); n != 1 {
		t.Errorf("PopulationOf(cat-B) = %d, expected 1 (untouched)", n)
	}
	// Global membership survives a single-category reset.
	if n, _ := reg.GlobalPopulation(ctx); n != 2 {
		t.Errorf("GlobalPopulation() after category reset = %d, expected 2", n)
	}

	categories, _ := reg.Categories(ctx)
	if len(categories) != 1 || categories[0] != "cat-B" {
		t.Errorf("Categories() after reset = %v, expected [cat-B]", categories)
	}
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	reg := New(progression.NewMemoryStore())

	reg.RecordMembership(ctx, "cat-A", "alice")
	reg.RecordMembership(ctx, "cat-B", "bob")

	if err := reg.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}

	if n, _ := reg.GlobalPopulation(ctx); n != 0 {
		t.Errorf("GlobalPopulation() after full reset = %d, expected 0", n)
	}
	if n, _ := reg.PopulationOf(ctx, "cat-A"); n != 0 {
		t.Errorf("PopulationOf(cat-A) after full reset = %d, expected 0", n)
	}
	if categories, _ := reg.Categories(ctx); len(categories) != 0 {
		t.Errorf("Categories() after full reset = %v, expected none", categories)
	}
}
