// Package host declares what the scheduling core needs from the game it runs
// inside. Nothing in here owns state; the host does.
package host

import "scheduleall/internal/domain"

// Agent is a colonist as seen by the core.
type Agent interface {
	ID() string
	// Name is the full display name, used to match snapshots across saves.
	Name() string
	Destroyed() bool
	// CanEverWork reports whether the agent has work settings at all.
	CanEverWork() bool
	WorkTypeDisabled(work string) bool
	Priority(work string) int
	// SetPriority writes through the host's priority path, which notifies
	// the registered PriorityObserver before the value is stored.
	SetPriority(work string, priority int)
	// Schedule returns nil when the agent has no timetable.
	Schedule() Schedule
}

// Schedule is a 24-cell timetable of assignment def names.
type Schedule interface {
	Len() int
	At(hour int) string
	Set(hour int, defName string)
}

// IdleInterrupter is implemented by agents that can be kicked out of an idle
// job so they re-evaluate work immediately.
type IdleInterrupter interface {
	InterruptIdle() bool
}

type Colony interface {
	// Agents lists the free, spawned colonists.
	Agents() []Agent
	// Agent looks up any agent by id, including destroyed ones that are still
	// referenced.
	Agent(id string) (Agent, bool)
}

type Clock interface {
	TicksGame() int
	// HourOfDay is false when there is no map to read local time from.
	HourOfDay() (int, bool)
}

// Definitions is the host's definition database. Lookups never fail loudly.
type Definitions interface {
	Assignment(defName string) (domain.AssignmentDef, bool)
	Assignments() []domain.AssignmentDef
	// UpsertAssignment adds or replaces a definition and drops any cached
	// rendering state the host derived from the old one.
	UpsertAssignment(def domain.AssignmentDef)
	RemoveAssignment(defName string)

	WorkType(defName string) (domain.WorkType, bool)
	WorkTypes() []domain.WorkType
}

// PriorityObserver sees every priority write before it lands.
type PriorityObserver interface {
	ObservePriorityWrite(agent Agent, work string, priority int)
}
