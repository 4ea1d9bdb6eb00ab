package slots

import (
	"errors"
	"testing"

	"scheduleall/internal/domain"
	"scheduleall/internal/host/sim"
)

func TestResolveParsesPrefixAndIndex(t *testing.T) {
	cfgs := domain.DefaultSlotConfigs()
	cfgs[3].TargetWork = "Cooking"
	r := New(sim.NewDefs(nil), cfgs, nil)

	slot, ok := r.Resolve("SA_Slot_3")
	if !ok {
		t.Fatalf("expected SA_Slot_3 to resolve")
	}
	if slot.Index != 3 || slot.Config.TargetWork != "Cooking" {
		t.Fatalf("unexpected slot %+v", slot)
	}

	for _, name := range []string{
		"",
		"Work",
		"SA_Slot_",
		"SA_Slot_x",
		"SA_Slot_-1",
		"SA_Slot_+1",
		"SA_Slot_12",
		"SA_Slot_99999999999",
		"sa_slot_1",
	} {
		if _, ok := r.Resolve(name); ok {
			t.Fatalf("expected %q not to resolve", name)
		}
	}
}

func TestResolveWithoutSettingsIsNeverCustom(t *testing.T) {
	r := New(sim.NewDefs(nil), nil, nil)
	if _, ok := r.Resolve("SA_Slot_0"); ok {
		t.Fatalf("expected missing settings to resolve nothing")
	}
	if err := r.SetTarget(0, "Cooking"); !errors.Is(err, ErrNoSettings) {
		t.Fatalf("expected ErrNoSettings, got %v", err)
	}
	var nilRegistry *Registry
	if _, ok := nilRegistry.Resolve("SA_Slot_0"); ok {
		t.Fatalf("expected nil registry to resolve nothing")
	}
}

func TestSyncDefinitionsCreatesAndUpdates(t *testing.T) {
	defs := sim.NewDefs(nil)
	cfgs := domain.DefaultSlotConfigs()
	r := New(defs, cfgs, nil)

	if created := r.SyncDefinitions(); created != domain.SlotCount {
		t.Fatalf("expected %d created defs, got %d", domain.SlotCount, created)
	}
	if created := r.SyncDefinitions(); created != 0 {
		t.Fatalf("expected second sync to create nothing, got %d", created)
	}

	defs.RemoveAssignment("SA_Slot_5")
	rev := defs.Revision
	if err := r.SetAppearance(5, "Kitchen", domain.Color{R: 1}); err != nil {
		t.Fatalf("set appearance: %v", err)
	}
	if defs.Revision <= rev {
		t.Fatalf("expected sync to invalidate cached definitions")
	}
	def, ok := defs.Assignment("SA_Slot_5")
	if !ok {
		t.Fatalf("expected SA_Slot_5 to be recreated")
	}
	if def.Label != "Kitchen" || def.Color.R != 1 || def.AllowRest || def.AllowJoy {
		t.Fatalf("unexpected synced def %+v", def)
	}
}

func TestSetTargetRejectsUnknownWork(t *testing.T) {
	r := New(sim.NewDefs(nil), domain.DefaultSlotConfigs(), nil)

	err := r.SetTarget(0, "Cookin")
	if !errors.Is(err, ErrUnknownWorkType) {
		t.Fatalf("expected ErrUnknownWorkType, got %v", err)
	}
	if err := r.SetTarget(domain.SlotCount, "Cooking"); !errors.Is(err, ErrSlotOutOfRange) {
		t.Fatalf("expected ErrSlotOutOfRange, got %v", err)
	}
	if err := r.SetTarget(0, "Cooking"); err != nil {
		t.Fatalf("set target: %v", err)
	}
	slot, _ := r.Resolve("SA_Slot_0")
	work, ok := r.TargetWork(slot)
	if !ok || work.DefName != "Cooking" {
		t.Fatalf("expected Cooking target, got %+v ok=%t", work, ok)
	}
	if err := r.SetTarget(0, ""); err != nil {
		t.Fatalf("clear target: %v", err)
	}
	slot, _ = r.Resolve("SA_Slot_0")
	if slot.HasTarget() {
		t.Fatalf("expected target cleared")
	}
}

func TestUpdateRejectedChangeLeavesSlot(t *testing.T) {
	r := New(sim.NewDefs(nil), domain.DefaultSlotConfigs(), nil)
	before := r.Slots()[3]

	target, label := "Minng", "Quarry"
	if err := r.Update(3, Change{Target: &target, Label: &label}); !errors.Is(err, ErrUnknownWorkType) {
		t.Fatalf("expected ErrUnknownWorkType, got %v", err)
	}
	if got := r.Slots()[3]; got != before {
		t.Fatalf("expected slot unchanged, got %+v", got)
	}

	target = "Mining"
	if err := r.Update(3, Change{Target: &target, Label: &label}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := r.Slots()[3]
	if got.Config.TargetWork != "Mining" || got.Config.Label != "Quarry" {
		t.Fatalf("unexpected slot %+v", got)
	}
	def, _ := r.defs.Assignment("SA_Slot_3")
	if def.Label != "Quarry" {
		t.Fatalf("expected def relabelled, got %q", def.Label)
	}
}

func TestSanitizeAndScrubSchedule(t *testing.T) {
	defs := sim.NewDefs(nil)
	r := New(defs, domain.DefaultSlotConfigs(), nil)
	r.SyncDefinitions()

	tt := sim.NewTimetable([]string{"Sleep", "SA_Slot_0", "SA_Slot_40", "Gone", "Work"})
	if fixed := SanitizeSchedule(defs, tt); fixed != 2 {
		t.Fatalf("expected 2 undefined cells fixed, got %d", fixed)
	}
	if tt.At(1) != "SA_Slot_0" || tt.At(2) != domain.DefaultAssignment || tt.At(3) != domain.DefaultAssignment {
		t.Fatalf("unexpected cells %v", tt.Cells())
	}

	if fixed := ScrubCustom(tt); fixed != 1 {
		t.Fatalf("expected 1 custom cell scrubbed, got %d", fixed)
	}
	if tt.At(1) != domain.DefaultAssignment {
		t.Fatalf("expected custom cell replaced, got %q", tt.At(1))
	}
}

func TestSuggestWorkType(t *testing.T) {
	works := sim.DefaultWorkTypes
	if got, ok := SuggestWorkType("cookng", works); !ok || got != "Cooking" {
		t.Fatalf("expected Cooking suggestion, got %q ok=%t", got, ok)
	}
	if got, ok := SuggestWorkType("mine", works); !ok || got != "Mining" {
		t.Fatalf("expected Mining via label, got %q ok=%t", got, ok)
	}
	if _, ok := SuggestWorkType("zzzzzzzzzzzz", works); ok {
		t.Fatalf("expected no suggestion for garbage")
	}
}
