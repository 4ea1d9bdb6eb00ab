package sim

import (
	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

type Pawn struct {
	colony     *Colony
	id         string
	name       string
	destroyed  bool
	everWork   bool
	disabled   map[string]bool
	priorities map[string]int
	timetable  *Timetable
	job        string
}

var (
	_ host.Agent           = (*Pawn)(nil)
	_ host.IdleInterrupter = (*Pawn)(nil)
)

func (p *Pawn) ID() string        { return p.id }
func (p *Pawn) Name() string      { return p.name }
func (p *Pawn) Destroyed() bool   { return p.destroyed }
func (p *Pawn) CanEverWork() bool { return p.everWork }

func (p *Pawn) WorkTypeDisabled(work string) bool {
	return p.disabled[work]
}

func (p *Pawn) Priority(work string) int {
	return p.priorities[work]
}

func (p *Pawn) SetPriority(work string, priority int) {
	if p.colony != nil && p.colony.observer != nil {
		p.colony.observer.ObservePriorityWrite(p, work, priority)
	}
	p.priorities[work] = priority
}

func (p *Pawn) Schedule() host.Schedule {
	if p.timetable == nil {
		return nil
	}
	return p.timetable
}

func (p *Pawn) Job() string {
	return p.job
}

func (p *Pawn) SetJob(job string) {
	p.job = job
}

func (p *Pawn) InterruptIdle() bool {
	if p.job != domain.IdleWanderJob {
		return false
	}
	p.job = ""
	return true
}

// DropTimetable removes the pawn's timetable entirely.
func (p *Pawn) DropTimetable() {
	p.timetable = nil
}

type Timetable struct {
	cells []string
}

// NewTimetable pads or truncates cells to a full day, filling gaps with the
// default assignment.
func NewTimetable(cells []string) *Timetable {
	t := &Timetable{cells: make([]string, domain.HoursPerDay)}
	for i := range t.cells {
		if i < len(cells) && cells[i] != "" {
			t.cells[i] = cells[i]
			continue
		}
		t.cells[i] = domain.DefaultAssignment
	}
	return t
}

func (t *Timetable) Len() int { return len(t.cells) }

func (t *Timetable) At(hour int) string {
	if hour < 0 || hour >= len(t.cells) {
		return ""
	}
	return t.cells[hour]
}

func (t *Timetable) Set(hour int, defName string) {
	if hour < 0 || hour >= len(t.cells) {
		return
	}
	t.cells[hour] = defName
}

func (t *Timetable) Cells() []string {
	return append([]string(nil), t.cells...)
}
