package main

import (
	"strings"
	"testing"

	"github.com/rivo/tview"

	"scheduleall/internal/domain"
	"scheduleall/internal/session"
)

func TestRenderStripMarksCurrentHour(t *testing.T) {
	colors := map[string]string{"SA_Slot_0": "#ff0000"}
	got := renderStrip([]string{"SA_Slot_0", "Work", "Mystery"}, colors, 1)
	want := "[#ff0000]█[#e6b422]▼[#ffffff]█[-]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRenderLedgerAndSlots(t *testing.T) {
	if got := renderLedger(nil); got != "No overrides active" {
		t.Fatalf("unexpected empty ledger %q", got)
	}
	ledger := renderLedger([]domain.LedgerEntry{{AgentName: "Ada", Work: "Cooking", Live: 1, Restore: 3}})
	if !strings.Contains(ledger, "live=1 restore=3") {
		t.Fatalf("unexpected ledger %q", ledger)
	}

	cfgs := domain.DefaultSlotConfigs()
	cfgs[0].TargetWork = "Cooking"
	slotsText := renderSlots([]domain.Slot{{Index: 0, Name: "SA_Slot_0", Config: cfgs[0]}})
	if !strings.Contains(slotsText, "Cooking") || !strings.Contains(slotsText, cfgs[0].Color.Hex()) {
		t.Fatalf("unexpected slots %q", slotsText)
	}
}

func TestRenderAgentsTable(t *testing.T) {
	table := tview.NewTable()
	renderAgentsTable(table, []session.AgentView{
		{Name: "Ada", Job: "Work_Cooking", CurrentSlot: "SA_Slot_0", Schedule: []string{"SA_Slot_0"}},
	}, map[string]string{"SA_Slot_0": "#00ff00"}, 0)
	if table.GetRowCount() != 2 {
		t.Fatalf("expected header plus one row, got %d", table.GetRowCount())
	}
	if got := table.GetCell(1, 1).Text; got != "Work_Cooking" {
		t.Fatalf("unexpected job cell %q", got)
	}
}

func TestRenderStatus(t *testing.T) {
	got := renderStatus(session.Status{SessionID: "0123456789", Tick: 42, Hour: 7, HasMap: true, Entries: 2}, "http://x")
	for _, part := range []string{"session 01234567", "tick 42", "07:00", "overrides 2"} {
		if !strings.Contains(got, part) {
			t.Fatalf("expected %q in %q", part, got)
		}
	}
}
