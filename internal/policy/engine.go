package policy

import (
	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

// WorkSlotPriority is what the work giver reports inside a custom slot whose
// target the colonist can do. It matches the host's own Work-hour score.
const WorkSlotPriority = 9.0

const (
	JobSleep    = "Sleep"
	JobJoy      = "Joy"
	JobMeditate = "Meditate"
	JobWorkPref = "Work_"
)

type Resolver interface {
	Resolve(defName string) (domain.Slot, bool)
	TargetWork(slot domain.Slot) (domain.WorkType, bool)
}

type Engine struct {
	slots Resolver
	defs  host.Definitions
}

func New(slots Resolver, defs host.Definitions) *Engine {
	return &Engine{slots: slots, defs: defs}
}

func (e *Engine) customSlot(a host.Agent, hour int) (domain.Slot, bool) {
	if a == nil {
		return domain.Slot{}, false
	}
	s := a.Schedule()
	if s == nil || hour < 0 || hour >= s.Len() {
		return domain.Slot{}, false
	}
	return e.slots.Resolve(s.At(hour))
}

// WorkPriority reports the work giver's score. handled is false outside
// custom slots, where the host keeps its own scoring.
func (e *Engine) WorkPriority(a host.Agent, hour int) (priority float64, handled bool) {
	slot, ok := e.customSlot(a, hour)
	if !ok {
		return 0, false
	}
	work, ok := e.slots.TargetWork(slot)
	if ok && a.Priority(work.DefName) > 0 {
		return WorkSlotPriority, true
	}
	return 0, true
}

func (e *Engine) AllowRest(a host.Agent, hour int) bool {
	_, custom := e.customSlot(a, hour)
	return !custom
}

func (e *Engine) AllowJoy(a host.Agent, hour int) bool {
	_, custom := e.customSlot(a, hour)
	return !custom
}

func (e *Engine) AllowMeditation(a host.Agent, hour int) bool {
	_, custom := e.customSlot(a, hour)
	return !custom
}

// Decide picks the job a colonist takes up at hour. Custom slots only ever
// yield their target work or idling.
func (e *Engine) Decide(a host.Agent, hour int) string {
	if a == nil || a.Destroyed() {
		return ""
	}
	if score, handled := e.WorkPriority(a, hour); handled {
		if score <= 0 {
			return domain.IdleWanderJob
		}
		slot, _ := e.customSlot(a, hour)
		work, _ := e.slots.TargetWork(slot)
		return JobWorkPref + work.DefName
	}

	assignment := domain.DefaultAssignment
	if s := a.Schedule(); s != nil && hour >= 0 && hour < s.Len() {
		assignment = s.At(hour)
	}
	switch assignment {
	case domain.AssignmentSleep:
		if e.AllowRest(a, hour) {
			return JobSleep
		}
	case domain.AssignmentJoy:
		if e.AllowJoy(a, hour) {
			return JobJoy
		}
	case domain.AssignmentMeditate:
		if e.AllowMeditation(a, hour) {
			return JobMeditate
		}
	}
	if work, ok := e.bestWork(a); ok {
		return JobWorkPref + work
	}
	return domain.IdleWanderJob
}

// bestWork returns the enabled work type with the most urgent priority.
// Ties go to the host's natural order.
func (e *Engine) bestWork(a host.Agent) (string, bool) {
	if !a.CanEverWork() {
		return "", false
	}
	best, bestPrio := "", 0
	for _, w := range e.defs.WorkTypes() {
		if a.WorkTypeDisabled(w.DefName) {
			continue
		}
		p := a.Priority(w.DefName)
		if p <= 0 {
			continue
		}
		if bestPrio == 0 || p < bestPrio {
			best, bestPrio = w.DefName, p
		}
	}
	return best, bestPrio > 0
}
