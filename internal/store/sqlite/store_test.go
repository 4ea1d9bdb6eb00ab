package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"scheduleall/internal/domain"
)

func TestReplaceAndListSnapshots(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	first := []domain.Snapshot{
		{PawnName: "Old", WorkDefNames: []string{"Cooking"}, Priorities: []int{2}},
	}
	if err := store.ReplaceSnapshots(ctx, first); err != nil {
		t.Fatalf("replace snapshots: %v", err)
	}

	second := []domain.Snapshot{
		{PawnName: "Ada", WorkDefNames: []string{"Cooking", "Mining", "Research"}, Priorities: []int{3, 0, 1}},
		{PawnName: "Bo", WorkDefNames: []string{"Hauling"}, Priorities: []int{4}},
		{PawnName: "Empty"},
	}
	if err := store.ReplaceSnapshots(ctx, second); err != nil {
		t.Fatalf("replace snapshots: %v", err)
	}

	got, err := store.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestListSnapshotsEmpty(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	got, err := store.ListSnapshots(context.Background())
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(got))
	}
}

func TestDecisionLogFiltersBySession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	sessionA := uuid.NewString()
	sessionB := uuid.NewString()
	entries := []domain.DecisionLog{
		{SessionID: sessionA, Kind: domain.EventOverrideApplied, AgentID: "p1", AgentName: "Ada", Work: "Cooking", From: 3, To: 1, Tick: 10},
		{SessionID: sessionB, Kind: domain.EventTeardown, Count: 4},
		{SessionID: sessionA, Kind: domain.EventOverrideRestored, AgentID: "p1", AgentName: "Ada", Work: "Cooking", From: 1, To: 3, Tick: 2510},
	}
	for _, e := range entries {
		if err := store.LogDecision(ctx, e); err != nil {
			t.Fatalf("log decision: %v", err)
		}
	}

	got, err := store.ListDecisions(ctx, sessionA, 0)
	if err != nil {
		t.Fatalf("list decisions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions for session A, got %d", len(got))
	}
	if got[0].Kind != domain.EventOverrideRestored || got[0].To != 3 || got[0].Tick != 2510 {
		t.Fatalf("expected newest entry first, got %+v", got[0])
	}
	if got[1].Kind != domain.EventOverrideApplied {
		t.Fatalf("unexpected second entry %+v", got[1])
	}

	all, err := store.ListDecisions(ctx, "", 2)
	if err != nil {
		t.Fatalf("list all decisions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(all))
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		t.Fatalf("migrate store: %v", err)
	}
	return store
}
