package engine

import (
	"go.uber.org/zap"

	"scheduleall/internal/domain"
)

func (e *Engine) ExportState() domain.LedgerState {
	return e.ledger.Export(e.lastHour)
}

// ImportState rebuilds the ledger from a save. The last processed hour is
// resynced to the current one so nothing fires on the load tick itself.
func (e *Engine) ImportState(st domain.LedgerState) {
	loaded, skipped := e.ledger.Import(st, e.colony.Agent, func(work string) bool {
		_, ok := e.defs.WorkType(work)
		return ok
	})
	e.lastHour = st.LastHour
	if hour, ok := e.clock.HourOfDay(); ok {
		e.lastHour = hour
	}

	if loaded == 0 {
		e.logger.Info("no priority backups in save", zap.Int("skipped", skipped))
		return
	}
	e.logger.Info("loaded priority backups", zap.Int("loaded", loaded), zap.Int("skipped", skipped))
	for _, en := range e.ledger.Entries() {
		e.logger.Info("cached priority",
			zap.String("agent", en.Agent.Name()),
			zap.String("work", en.Work),
			zap.Int("restore", en.Restore),
		)
	}
}
