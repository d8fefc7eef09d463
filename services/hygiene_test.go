package services

import (
	"context"
	"testing"
	"time"

	"github.com/hireflow/backend/models"
)

func newHygieneFixture() (*HygieneService, *fakeStore) {
	store := newFakeStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.addCandidate(&models.Candidate{
		ID: "cand-1", RoleID: "role-1",
		FirstName: "  Ada ", LastName: "Lovelace",
		Email: "ADA@Example.com", Phone: "+1 (555) 010-2233",
		CreatedAt: base,
	})
	store.addCandidate(&models.Candidate{
		ID: "cand-2", RoleID: "role-1",
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Phone: "5550102233",
		CreatedAt: base.Add(time.Hour),
	})
	store.addCandidate(&models.Candidate{
		ID: "cand-3", RoleID: "role-2",
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Phone: "5550102233",
		CreatedAt: base.Add(2 * time.Hour),
	})
	store.addCandidate(&models.Candidate{
		ID: "cand-4", RoleID: "role-1",
		FirstName: "Grace", LastName: "Hopper",
		Email: "grace@example.com", Phone: "123", // undefined after normalization
		CreatedAt: base.Add(3 * time.Hour),
	})
	store.addCandidate(&models.Candidate{
		ID: "cand-5", RoleID: "role-1",
		FirstName: "Grace", LastName: "Hopper",
		Email: "g.hopper@example.com", Phone: "5550104455",
		CreatedAt: base.Add(4 * time.Hour),
	})
	store.addCandidate(&models.Candidate{
		ID: "cand-6", RoleID: "role-1",
		FirstName: "Grace", LastName: "Hopper",
		Email: "ghopper@other.example.com", Phone: "(555) 010-4455",
		CreatedAt: base.Add(5 * time.Hour),
	})

	return NewHygieneService(store), store
}

func TestNormalizeAllDryRun(t *testing.T) {
	hygiene, store := newHygieneFixture()

	run, err := hygiene.NormalizeAll(context.Background(), false)
	if err != nil {
		t.Fatalf("NormalizeAll() error = %v", err)
	}
	if run.Scanned != 6 {
		t.Errorf("scanned = %d, want 6", run.Scanned)
	}
	if run.Changed != 2 {
		t.Errorf("changed = %d, want 2 (cand-1 and cand-6 have unnormalized fields)", run.Changed)
	}
	if run.Applied {
		t.Error("dry run must report applied=false")
	}
	if store.contactUpdates != 0 {
		t.Error("dry run must not write")
	}
	if store.candidates["cand-1"].Email != "ADA@Example.com" {
		t.Error("dry run mutated stored data")
	}
}

func TestNormalizeAllApply(t *testing.T) {
	hygiene, store := newHygieneFixture()

	run, err := hygiene.NormalizeAll(context.Background(), true)
	if err != nil {
		t.Fatalf("NormalizeAll() error = %v", err)
	}
	if run.Changed != 2 || store.contactUpdates != 2 {
		t.Errorf("changed = %d, writes = %d, want 2 and 2", run.Changed, store.contactUpdates)
	}

	c := store.candidates["cand-1"]
	if c.FirstName != "Ada" {
		t.Errorf("first name = %q", c.FirstName)
	}
	if c.Email != "ada@example.com" {
		t.Errorf("email = %q", c.Email)
	}
	if c.Phone != "5550102233" {
		t.Errorf("phone = %q", c.Phone)
	}

	// A second pass finds nothing left to change.
	again, err := hygiene.NormalizeAll(context.Background(), true)
	if err != nil {
		t.Fatalf("second NormalizeAll() error = %v", err)
	}
	if again.Changed != 0 {
		t.Errorf("second pass changed = %d, want 0", again.Changed)
	}

	// The undefined phone is left as stored.
	if store.candidates["cand-4"].Phone != "123" {
		t.Errorf("undefined phone rewritten: %q", store.candidates["cand-4"].Phone)
	}
}

func TestFindDuplicatesScopedToRole(t *testing.T) {
	hygiene, _ := newHygieneFixture()

	groups, err := hygiene.FindDuplicates(context.Background())
	if err != nil {
		t.Fatalf("FindDuplicates() error = %v", err)
	}

	// cand-1 and cand-2 collide on normalized email within role-1; cand-3 is
	// the same person in role-2 and joins neither group. cand-5 and cand-6
	// collide on name+phone; cand-4 shares their name but its phone is
	// undefined and never matches.
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 (one email group, one name+phone group)", len(groups))
	}

	byKeeper := make(map[string]int)
	for _, g := range groups {
		byKeeper[g.Keeper.ID] = len(g.Losers)
		for _, l := range g.Losers {
			if l.ID == "cand-3" || l.ID == "cand-4" {
				t.Errorf("candidate %s must not be grouped", l.ID)
			}
		}
	}
	if byKeeper["cand-1"] != 1 {
		t.Errorf("email group keeper/losers wrong: %v", byKeeper)
	}
	if byKeeper["cand-5"] != 1 {
		t.Errorf("name+phone group keeper/losers wrong: %v", byKeeper)
	}
}
