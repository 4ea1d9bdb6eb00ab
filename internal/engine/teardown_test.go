package engine

import (
	"testing"

	"scheduleall/internal/domain"
	"scheduleall/internal/slots"
)

func TestUninstallRestoresAndScrubs(t *testing.T) {
	h := newHarness(t)
	a := h.pawn("a", map[string]int{"Cooking": 3}, "SA_Slot_0", "SA_Slot_1", "Work", "SA_Slot_7")
	b := h.pawn("b", map[string]int{"Cooking": 2}, "SA_Slot_0")
	h.at(0)
	h.colony.Destroy("b")

	report := h.engine.Uninstall()
	if report.Restored != 1 || report.Dropped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.FixedCells != 3 {
		t.Fatalf("expected 3 fixed cells, got %d", report.FixedCells)
	}
	if h.engine.ledger.Len() != 0 {
		t.Fatalf("expected empty ledger")
	}
	expectPriority(t, a, "Cooking", 3)
	expectPriority(t, b, "Cooking", 1)
	for hour := 0; hour < domain.HoursPerDay; hour++ {
		if slots.IsCustomName(a.Schedule().At(hour)) {
			t.Fatalf("hour %d still references %q", hour, a.Schedule().At(hour))
		}
	}
	if h.events.count(domain.EventManualEdit) != 0 {
		t.Fatalf("uninstall writes must not count as manual edits")
	}
}

func TestExportImportStateRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.pawn("a", map[string]int{"Cooking": 3}, "SA_Slot_0", "SA_Slot_0", "Work")
	h.pawn("b", map[string]int{"Cooking": 2}, "SA_Slot_0", "SA_Slot_0", "Work")
	h.at(0)

	st := h.engine.ExportState()
	if len(st.Pawns) != 2 || len(st.Works) != 2 || len(st.Values) != 2 {
		t.Fatalf("unexpected state %+v", st)
	}
	st.Pawns = append(st.Pawns, "missing")
	st.Works = append(st.Works, "Cooking")
	st.Values = append(st.Values, 4)

	reloaded := New(Deps{
		Colony:   h.colony,
		Clock:    h.colony,
		Defs:     h.colony.Defs(),
		Registry: h.engine.registry,
	}, Config{})
	h.colony.SetTicks(1 * domain.TicksPerHour)
	reloaded.ImportState(st)

	if reloaded.LastHour() != 1 {
		t.Fatalf("expected last hour resynced to 1, got %d", reloaded.LastHour())
	}
	expectRestore(t, reloaded, "a", "Cooking", 3)
	expectRestore(t, reloaded, "b", "Cooking", 2)
	if reloaded.ledger.Len() != 2 {
		t.Fatalf("expected unresolved pawn skipped")
	}

	h.colony.SetObserver(reloaded)
	h.colony.SetTicks(2 * domain.TicksPerHour)
	reloaded.ReconcileNow()
	expectPriority(t, h.colony.Pawn("a"), "Cooking", 3)
	expectPriority(t, h.colony.Pawn("b"), "Cooking", 2)
}

func TestSanitizeSchedulesAfterLoad(t *testing.T) {
	h := newHarness(t)
	p := h.pawn("a", nil, "SA_Slot_0", "Removed_Assignment", "Work")
	h.colony.Defs().RemoveAssignment("SA_Slot_0")

	if fixed := h.engine.SanitizeSchedules(); fixed != 2 {
		t.Fatalf("expected 2 fixed cells, got %d", fixed)
	}
	if got := p.Schedule().At(0); got != domain.DefaultAssignment {
		t.Fatalf("expected default at hour 0, got %q", got)
	}
	if got := p.Schedule().At(2); got != "Work" {
		t.Fatalf("expected Work kept, got %q", got)
	}
}
