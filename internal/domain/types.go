package domain

import (
	"fmt"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	SlotCount         = 12
	SlotPrefix        = "SA_Slot_"
	OverridePriority  = 1
	HoursPerDay       = 24
	TicksPerHour      = 2500
	PollIntervalTicks = 250

	IdleWanderJob = "Wait_Wander"
)

// Vanilla assignment names the reference host ships with.
const (
	AssignmentAnything   = "Anything"
	AssignmentWork       = "Work"
	AssignmentJoy        = "Joy"
	AssignmentSleep      = "Sleep"
	AssignmentMeditate   = "Meditate"
	DefaultSlotLabel     = "Undefined Schedule"
	DefaultSlotLabelStem = "Custom Schedule"

	DefaultAssignment = AssignmentAnything
)

type EventKind string

const (
	EventOverrideApplied  EventKind = "override_applied"
	EventOverrideRestored EventKind = "override_restored"
	EventOverrideHealed   EventKind = "override_healed"
	EventManualEdit       EventKind = "manual_edit"
	EventEntryPurged      EventKind = "entry_purged"
	EventIdleInterrupted  EventKind = "idle_interrupted"
	EventSnapshotCaptured EventKind = "snapshot_captured"
	EventSnapshotRestored EventKind = "snapshot_restored"
	EventTeardown         EventKind = "teardown"
	EventScheduleFixed    EventKind = "schedule_fixed"
	EventSettingsSynced   EventKind = "settings_synced"
)

// WorkType is a capability definition. DefName is the stable identifier used
// for persistence; Label is for display only.
type WorkType struct {
	DefName         string `json:"def_name" yaml:"def_name"`
	Label           string `json:"label" yaml:"label"`
	NaturalPriority int    `json:"natural_priority" yaml:"natural_priority"`
}

// AssignmentDef is a schedule-cell definition as held by the host's
// definition database.
type AssignmentDef struct {
	DefName   string `json:"def_name"`
	Label     string `json:"label"`
	Color     Color  `json:"color"`
	AllowRest bool   `json:"allow_rest"`
	AllowJoy  bool   `json:"allow_joy"`
}

type SlotConfig struct {
	Label      string `json:"label" toml:"label"`
	Color      Color  `json:"color" toml:"color"`
	TargetWork string `json:"target_work,omitempty" toml:"target_work"`
}

// Slot is a resolved virtual slot: its index and the configuration behind it.
type Slot struct {
	Index  int        `json:"index"`
	Name   string     `json:"def_name"`
	Config SlotConfig `json:"config"`
}

func (s Slot) HasTarget() bool {
	return s.Config.TargetWork != ""
}

// Snapshot is one colonist's full priority vector. WorkDefNames and
// Priorities are parallel.
type Snapshot struct {
	PawnName     string   `json:"pawn_name"`
	WorkDefNames []string `json:"work_def_names"`
	Priorities   []int    `json:"priorities"`
}

// LedgerState is the persisted form of the override ledger: three parallel
// sequences instead of a map.
type LedgerState struct {
	LastHour int      `json:"SA_lastHour"`
	Pawns    []string `json:"SA_Pawns"`
	Works    []string `json:"SA_Works"`
	Values   []int    `json:"SA_Values"`
}

type LedgerEntry struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Work      string `json:"work"`
	Restore   int    `json:"restore"`
	Live      int    `json:"live"`
}

type Event struct {
	Kind      EventKind `json:"kind"`
	AgentID   string    `json:"agent_id,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
	Work      string    `json:"work,omitempty"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Count     int       `json:"count,omitempty"`
	Tick      int       `json:"tick"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DecisionLog struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Work      string    `json:"work"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Count     int       `json:"count"`
	Tick      int       `json:"tick"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Color is an RGB triple in [0,1], written as a hex string in config files.
type Color struct {
	R float64
	G float64
	B float64
}

var (
	Grey  = Color{R: 0.5, G: 0.5, B: 0.5}
	Green = Color{R: 0, G: 1, B: 0}
)

func ParseColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return Color{R: c.R, G: c.G, B: c.B}, nil
}

func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PresetColors is the default palette for the twelve slots.
var PresetColors = []Color{
	{R: 0.2, G: 0.6, B: 1.0},
	{R: 1.0, G: 0.4, B: 0.4},
	{R: 0.0, G: 0.8, B: 0.4},
	{R: 0.9, G: 0.8, B: 0.2},
	{R: 0.7, G: 0.3, B: 0.9},
	{R: 1.0, G: 0.6, B: 0.1},
	{R: 0.2, G: 0.8, B: 0.8},
	{R: 0.6, G: 0.4, B: 0.2},
	{R: 0.95, G: 0.4, B: 0.7},
	{R: 0.1, G: 0.5, B: 0.5},
	{R: 0.7, G: 1.0, B: 0.1},
	{R: 1.0, G: 0.75, B: 0.8},
}

func DefaultSlotConfigs() []SlotConfig {
	out := make([]SlotConfig, SlotCount)
	for i := range out {
		out[i] = SlotConfig{
			Label: fmt.Sprintf("%s%d", DefaultSlotLabelStem, i+1),
			Color: PresetColors[i%len(PresetColors)],
		}
	}
	return out
}
