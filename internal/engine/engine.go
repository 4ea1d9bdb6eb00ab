// Package engine reconciles custom schedule slots against colonists' work
// priorities. It is driven by the host's tick and runs each pass to
// completion on the caller's goroutine.
package engine

import (
	"time"

	"go.uber.org/zap"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
	"scheduleall/internal/ledger"
	"scheduleall/internal/slots"
)

type Publisher interface {
	Publish(evt domain.Event) error
}

type Config struct {
	PollInterval int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = domain.PollIntervalTicks
	}
	return c
}

type Deps struct {
	Colony   host.Colony
	Clock    host.Clock
	Defs     host.Definitions
	Registry *slots.Registry
	Events   Publisher
	Logger   *zap.Logger
}

type Engine struct {
	colony   host.Colony
	clock    host.Clock
	defs     host.Definitions
	registry *slots.Registry
	ledger   *ledger.Ledger
	events   Publisher
	cfg      Config
	logger   *zap.Logger

	guard    Guard
	lastHour int
	lastPoll int
}

func New(deps Deps, cfg Config) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		colony:   deps.Colony,
		clock:    deps.Clock,
		defs:     deps.Defs,
		registry: deps.Registry,
		ledger:   ledger.New(),
		events:   deps.Events,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		lastHour: -1,
		lastPoll: -1,
	}
}

// Tick is called by the host every game tick. It reconciles once per poll
// interval and reports whether it did.
func (e *Engine) Tick(tick int) bool {
	if tick%e.cfg.PollInterval != 0 || tick == e.lastPoll {
		return false
	}
	e.lastPoll = tick
	e.ReconcileNow()
	return true
}

// ReconcileNow runs one full pass over every colonist.
func (e *Engine) ReconcileNow() {
	hour, ok := e.clock.HourOfDay()
	if !ok || !e.registry.Loaded() {
		return
	}
	prevHour := (hour - 1 + domain.HoursPerDay) % domain.HoursPerDay
	newHour := hour != e.lastHour
	agents := e.colony.Agents()

	e.guard.Run(func() {
		for _, a := range agents {
			e.reconcileAgent(a, hour, prevHour, newHour)
		}
	})
	e.collectGarbage()

	if newHour {
		e.nudgeIdle(agents, hour)
		e.lastHour = hour
	}
}

// reconcileAgent applies the slot transition into hour. Transitions fire only
// on the first pass of an hour; later passes in the same hour self-heal.
func (e *Engine) reconcileAgent(a host.Agent, hour, prevHour int, newHour bool) {
	if a == nil || a.Destroyed() || !a.CanEverWork() {
		return
	}
	sched := a.Schedule()
	if sched == nil {
		return
	}
	curName := sched.At(hour)
	prevName := sched.At(prevHour)
	cur, curCustom := e.registry.Resolve(curName)
	_, prevCustom := e.registry.Resolve(prevName)

	switch {
	case !curCustom:
		// Covers custom -> vanilla, and also drains entries left behind when
		// several hours passed between polls.
		e.restoreAgent(a)
	case curName == prevName || !newHour:
		e.applySlot(a, cur, domain.EventOverrideHealed)
	case prevCustom:
		e.restoreAgent(a)
		e.applySlot(a, cur, domain.EventOverrideApplied)
	default:
		e.applySlot(a, cur, domain.EventOverrideApplied)
	}
}

func (e *Engine) applySlot(a host.Agent, slot domain.Slot, kind domain.EventKind) {
	work, ok := e.registry.TargetWork(slot)
	if !ok {
		return
	}
	e.applyOverride(a, work.DefName, kind)
}

// applyOverride forces work to the override priority, caching the live value
// first unless an entry already exists or no override is actually needed.
func (e *Engine) applyOverride(a host.Agent, work string, kind domain.EventKind) {
	if a.WorkTypeDisabled(work) {
		return
	}
	live := a.Priority(work)
	if live == domain.OverridePriority {
		return
	}
	e.ledger.Capture(a, work, live)
	a.SetPriority(work, domain.OverridePriority)
	e.emit(domain.Event{
		Kind:      kind,
		AgentID:   a.ID(),
		AgentName: a.Name(),
		Work:      work,
		From:      live,
		To:        domain.OverridePriority,
	})
}

// restoreAgent writes back and removes every entry the agent owns.
func (e *Engine) restoreAgent(a host.Agent) int {
	entries := e.ledger.ForAgent(a.ID())
	for _, en := range entries {
		live := a.Priority(en.Work)
		a.SetPriority(en.Work, en.Restore)
		e.ledger.Remove(a.ID(), en.Work)
		e.emit(domain.Event{
			Kind:      domain.EventOverrideRestored,
			AgentID:   a.ID(),
			AgentName: a.Name(),
			Work:      en.Work,
			From:      live,
			To:        en.Restore,
		})
	}
	return len(entries)
}

// RestoreAgent ends every override the agent has.
func (e *Engine) RestoreAgent(a host.Agent) int {
	var n int
	e.guard.Run(func() {
		n = e.restoreAgent(a)
	})
	return n
}

func (e *Engine) collectGarbage() {
	for _, en := range e.ledger.Purge() {
		evt := domain.Event{Kind: domain.EventEntryPurged, Work: en.Work, From: en.Restore}
		if en.Agent != nil {
			evt.AgentID = en.Agent.ID()
			evt.AgentName = en.Agent.Name()
		}
		e.logger.Debug("purged ledger entry for missing agent",
			zap.String("agent", evt.AgentID),
			zap.String("work", en.Work),
		)
		e.emit(evt)
	}
}

// nudgeIdle kicks wandering colonists in a custom slot so they pick up work
// right away instead of at their next job search.
func (e *Engine) nudgeIdle(agents []host.Agent, hour int) {
	for _, a := range agents {
		if a == nil || a.Destroyed() {
			continue
		}
		sched := a.Schedule()
		if sched == nil {
			continue
		}
		if _, ok := e.registry.Resolve(sched.At(hour)); !ok {
			continue
		}
		idler, ok := a.(host.IdleInterrupter)
		if !ok || !idler.InterruptIdle() {
			continue
		}
		e.emit(domain.Event{
			Kind:      domain.EventIdleInterrupted,
			AgentID:   a.ID(),
			AgentName: a.Name(),
		})
	}
}

// Suppress runs fn as an internal operation.
func (e *Engine) Suppress(fn func()) {
	e.guard.Run(fn)
}

func (e *Engine) Internal() bool {
	return e.guard.Active()
}

func (e *Engine) LastHour() int {
	return e.lastHour
}

// Entries describes the ledger together with each pair's live priority.
func (e *Engine) Entries() []domain.LedgerEntry {
	entries := e.ledger.Entries()
	out := make([]domain.LedgerEntry, 0, len(entries))
	for _, en := range entries {
		item := domain.LedgerEntry{Work: en.Work, Restore: en.Restore}
		if en.Agent != nil {
			item.AgentID = en.Agent.ID()
			item.AgentName = en.Agent.Name()
			item.Live = en.Agent.Priority(en.Work)
		}
		out = append(out, item)
	}
	return out
}

func (e *Engine) emit(evt domain.Event) {
	if e.events == nil {
		return
	}
	evt.Tick = e.clock.TicksGame()
	evt.CreatedAt = time.Now().UTC()
	if err := e.events.Publish(evt); err != nil {
		e.logger.Debug("event dropped", zap.String("kind", string(evt.Kind)), zap.Error(err))
	}
}
