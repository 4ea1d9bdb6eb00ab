package engine

import (
	"go.uber.org/zap"

	"scheduleall/internal/domain"
	"scheduleall/internal/slots"
)

type TeardownReport struct {
	Restored   int `json:"restored"`
	Dropped    int `json:"dropped"`
	FixedCells int `json:"fixed_cells"`
}

// Uninstall puts every overridden priority back, empties the ledger and
// replaces every custom slot in every timetable with the default assignment.
// After this the save no longer depends on the slot definitions.
func (e *Engine) Uninstall() TeardownReport {
	var report TeardownReport
	e.guard.Run(func() {
		for _, en := range e.ledger.Entries() {
			if en.Agent == nil || en.Agent.Destroyed() || !en.Agent.CanEverWork() {
				report.Dropped++
				continue
			}
			en.Agent.SetPriority(en.Work, en.Restore)
			report.Restored++
		}
		e.ledger.Clear()
	})

	for _, a := range e.colony.Agents() {
		if a == nil {
			continue
		}
		report.FixedCells += slots.ScrubCustom(a.Schedule())
	}

	e.logger.Info("uninstall cleanup complete",
		zap.Int("restored", report.Restored),
		zap.Int("dropped", report.Dropped),
		zap.Int("fixed_cells", report.FixedCells),
	)
	e.emit(domain.Event{
		Kind:   domain.EventTeardown,
		Count:  report.FixedCells,
		Reason: "uninstall cleanup",
	})
	return report
}

// SanitizeSchedules rewrites timetable cells that name undefined assignments.
// Run it after loading a save.
func (e *Engine) SanitizeSchedules() int {
	fixed := 0
	for _, a := range e.colony.Agents() {
		if a == nil {
			continue
		}
		fixed += slots.SanitizeSchedule(e.defs, a.Schedule())
	}
	if fixed > 0 {
		e.logger.Warn("replaced undefined schedule cells", zap.Int("count", fixed))
		e.emit(domain.Event{Kind: domain.EventScheduleFixed, Count: fixed})
	}
	return fixed
}
