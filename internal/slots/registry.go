package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

var (
	ErrSlotOutOfRange  = errors.New("slot index out of range")
	ErrUnknownWorkType = errors.New("unknown work type")
	ErrNoSettings      = errors.New("slot settings are not loaded")
)

// Registry owns the per-slot configuration and is the only place that turns
// an assignment def name into a virtual slot.
type Registry struct {
	defs   host.Definitions
	slots  []domain.SlotConfig
	logger *zap.Logger
}

// New builds a registry. A nil slots slice means settings are missing; every
// lookup then reports "not custom".
func New(defs host.Definitions, slots []domain.SlotConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{defs: defs, logger: logger}
	if slots != nil {
		r.slots = append([]domain.SlotConfig{}, slots...)
	}
	return r
}

func DefName(i int) string {
	return domain.SlotPrefix + strconv.Itoa(i)
}

// ParseIndex extracts the numeric suffix of a slot def name. Anything other
// than prefix + decimal digits is rejected.
func ParseIndex(defName string) (int, bool) {
	if !strings.HasPrefix(defName, domain.SlotPrefix) {
		return 0, false
	}
	suffix := defName[len(domain.SlotPrefix):]
	if suffix == "" || len(suffix) > 9 {
		return 0, false
	}
	for _, ch := range suffix {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// IsCustomName reports whether the name carries the slot prefix, valid or not.
func IsCustomName(defName string) bool {
	return strings.HasPrefix(defName, domain.SlotPrefix)
}

func (r *Registry) Resolve(defName string) (domain.Slot, bool) {
	if r == nil || r.slots == nil {
		return domain.Slot{}, false
	}
	idx, ok := ParseIndex(defName)
	if !ok || idx >= len(r.slots) || idx >= domain.SlotCount {
		return domain.Slot{}, false
	}
	return domain.Slot{Index: idx, Name: defName, Config: r.slots[idx]}, true
}

// TargetWork resolves the slot's configured work type against the live
// definition database.
func (r *Registry) TargetWork(slot domain.Slot) (domain.WorkType, bool) {
	if !slot.HasTarget() || r.defs == nil {
		return domain.WorkType{}, false
	}
	return r.defs.WorkType(slot.Config.TargetWork)
}

func (r *Registry) Loaded() bool {
	return r != nil && r.slots != nil
}

func (r *Registry) Slots() []domain.Slot {
	if !r.Loaded() {
		return nil
	}
	out := make([]domain.Slot, 0, len(r.slots))
	for i, cfg := range r.slots {
		out = append(out, domain.Slot{Index: i, Name: DefName(i), Config: cfg})
	}
	return out
}

func (r *Registry) Configs() []domain.SlotConfig {
	if !r.Loaded() {
		return nil
	}
	return append([]domain.SlotConfig{}, r.slots...)
}

// Replace swaps in freshly loaded settings and pushes them to the defs.
func (r *Registry) Replace(slots []domain.SlotConfig) {
	if slots == nil {
		r.slots = nil
	} else {
		r.slots = append([]domain.SlotConfig{}, slots...)
	}
	r.SyncDefinitions()
}

// SetTarget points slot i at a work type. An empty work clears the target.
func (r *Registry) SetTarget(i int, work string) error {
	return r.Update(i, Change{Target: &work})
}

func (r *Registry) SetAppearance(i int, label string, color domain.Color) error {
	return r.Update(i, Change{Label: &label, Color: &color})
}

// Change is a partial slot edit. Nil fields are left alone; a blank label is
// ignored.
type Change struct {
	Target *string
	Label  *string
	Color  *domain.Color
}

// Update validates the whole change before touching slot i, so a rejected
// change leaves the slot as it was.
func (r *Registry) Update(i int, c Change) error {
	if !r.Loaded() {
		return ErrNoSettings
	}
	if i < 0 || i >= len(r.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	if c.Target != nil {
		if err := r.checkWork(*c.Target); err != nil {
			return err
		}
	}

	cfg := r.slots[i]
	if c.Target != nil {
		cfg.TargetWork = *c.Target
	}
	if c.Label != nil && strings.TrimSpace(*c.Label) != "" {
		cfg.Label = *c.Label
	}
	if c.Color != nil {
		cfg.Color = *c.Color
	}
	r.slots[i] = cfg
	if c.Label != nil || c.Color != nil {
		r.SyncDefinitions()
	}
	return nil
}

func (r *Registry) checkWork(work string) error {
	if work == "" {
		return nil
	}
	if _, ok := r.defs.WorkType(work); ok {
		return nil
	}
	if guess, found := SuggestWorkType(work, r.defs.WorkTypes()); found {
		return fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownWorkType, work, guess)
	}
	return fmt.Errorf("%w: %q", ErrUnknownWorkType, work)
}

// SyncDefinitions pushes labels and colours onto the host's assignment defs,
// recreating any that went missing. Returns how many were created.
func (r *Registry) SyncDefinitions() int {
	if r == nil || r.defs == nil {
		return 0
	}
	created := 0
	for i := 0; i < domain.SlotCount; i++ {
		name := DefName(i)
		def, ok := r.defs.Assignment(name)
		if !ok {
			def = domain.AssignmentDef{
				DefName: name,
				Label:   DefName(i + 1),
				Color:   domain.Grey,
			}
			created++
		}
		// Rest and recreation never run inside a custom slot.
		def.AllowRest = false
		def.AllowJoy = false
		if r.slots != nil && i < len(r.slots) {
			def.Label = r.slots[i].Label
			def.Color = r.slots[i].Color
		}
		r.defs.UpsertAssignment(def)
	}
	if created > 0 {
		r.logger.Info("created missing slot definitions", zap.Int("count", created))
	}
	return created
}
