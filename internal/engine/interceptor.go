package engine

import (
	"go.uber.org/zap"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

var _ host.PriorityObserver = (*Engine)(nil)

// ObservePriorityWrite is installed on the host's priority write path. A write
// the engine did not issue, to a pair under override, becomes the new value
// to restore once the override ends.
func (e *Engine) ObservePriorityWrite(agent host.Agent, work string, priority int) {
	if e.guard.Active() || agent == nil {
		return
	}
	prev, ok := e.ledger.Update(agent.ID(), work, priority)
	if !ok {
		return
	}
	e.logger.Debug("manual priority edit under override",
		zap.String("agent", agent.Name()),
		zap.String("work", work),
		zap.Int("from", prev),
		zap.Int("to", priority),
	)
	e.emit(domain.Event{
		Kind:      domain.EventManualEdit,
		AgentID:   agent.ID(),
		AgentName: agent.Name(),
		Work:      work,
		From:      prev,
		To:        priority,
	})
}
