package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scheduleall/internal/domain"
	"scheduleall/internal/engine"
	"scheduleall/internal/host/sim"
	"scheduleall/internal/slots"
)

type memoryPersister struct {
	snaps []domain.Snapshot
}

func (m *memoryPersister) ReplaceSnapshots(_ context.Context, snaps []domain.Snapshot) error {
	m.snaps = append([]domain.Snapshot(nil), snaps...)
	return nil
}

func (m *memoryPersister) ListSnapshots(_ context.Context) ([]domain.Snapshot, error) {
	return m.snaps, nil
}

func priorities(p *sim.Pawn, works []domain.WorkType) map[string]int {
	out := make(map[string]int, len(works))
	for _, w := range works {
		out[w.DefName] = p.Priority(w.DefName)
	}
	return out
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	colony := sim.NewColony(nil)
	a := colony.AddPawn(sim.PawnSpec{Name: "Ada", EverWork: true, Priorities: map[string]int{"Cooking": 3, "Mining": 2}})
	colony.AddPawn(sim.PawnSpec{Name: "Baby", EverWork: false})
	persist := &memoryPersister{}
	store := New(colony, colony.Defs(), persist, nil, nil)

	snaps, err := store.CaptureAll(ctx)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(snaps) != 1 || snaps[0].PawnName != "Ada" {
		t.Fatalf("expected one snapshot for Ada, got %+v", snaps)
	}
	if len(snaps[0].WorkDefNames) != len(colony.Defs().WorkTypes()) {
		t.Fatalf("expected every work type captured")
	}

	works := colony.Defs().WorkTypes()
	want := priorities(a, works)
	a.SetPriority("Cooking", 0)
	a.SetPriority("Research", 4)

	matched, err := store.RestoreAll(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if matched != 1 {
		t.Fatalf("expected one match, got %d", matched)
	}
	if diff := cmp.Diff(want, priorities(a, works)); diff != "" {
		t.Fatalf("priority vector mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreSkipsUnknownNamesAndWorkTypes(t *testing.T) {
	colony := sim.NewColony(nil)
	a := colony.AddPawn(sim.PawnSpec{Name: "Ada", EverWork: true, Priorities: map[string]int{"Cooking": 3}})
	store := New(colony, colony.Defs(), &memoryPersister{}, nil, nil)

	matched := store.Restore([]domain.Snapshot{
		{PawnName: "Stranger", WorkDefNames: []string{"Cooking"}, Priorities: []int{1}},
		{PawnName: "Ada", WorkDefNames: []string{"Cooking", "Alchemy", "Mining"}, Priorities: []int{2, 4}},
	})
	if matched != 1 {
		t.Fatalf("expected one match, got %d", matched)
	}
	if a.Priority("Cooking") != 2 {
		t.Fatalf("expected Cooking 2, got %d", a.Priority("Cooking"))
	}
	if a.Priority("Mining") != 0 {
		t.Fatalf("expected truncated row to leave Mining alone, got %d", a.Priority("Mining"))
	}
}

func TestRestoreWithoutSnapshots(t *testing.T) {
	colony := sim.NewColony(nil)
	store := New(colony, colony.Defs(), &memoryPersister{}, nil, nil)
	if _, err := store.RestoreAll(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestRestoreIsNotAManualEdit(t *testing.T) {
	colony := sim.NewColony(nil)
	cfgs := domain.DefaultSlotConfigs()
	cfgs[0].TargetWork = "Cooking"
	registry := slots.New(colony.Defs(), cfgs, nil)
	registry.SyncDefinitions()
	eng := engine.New(engine.Deps{
		Colony:   colony,
		Clock:    colony,
		Defs:     colony.Defs(),
		Registry: registry,
	}, engine.Config{})
	colony.SetObserver(eng)
	a := colony.AddPawn(sim.PawnSpec{Name: "Ada", EverWork: true, Priorities: map[string]int{"Cooking": 3}, Schedule: []string{"SA_Slot_0", "Work"}})

	eng.ReconcileNow()
	if a.Priority("Cooking") != 1 {
		t.Fatalf("expected override applied")
	}

	store := New(colony, colony.Defs(), &memoryPersister{}, eng, nil)
	store.Restore([]domain.Snapshot{{PawnName: "Ada", WorkDefNames: []string{"Cooking"}, Priorities: []int{4}}})

	entries := eng.Entries()
	if len(entries) != 1 || entries[0].Restore != 3 {
		t.Fatalf("expected ledger restore value untouched at 3, got %+v", entries)
	}
}
