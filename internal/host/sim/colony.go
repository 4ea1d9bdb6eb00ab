// Package sim is an in-memory colony that satisfies the host contracts. It
// backs the server binary and most tests.
package sim

import (
	"sort"

	"github.com/google/uuid"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

type Colony struct {
	defs      *Defs
	pawns     []*Pawn
	byID      map[string]*Pawn
	ticks     int
	startHour int
	hasMap    bool
	observer  host.PriorityObserver
}

func NewColony(defs *Defs) *Colony {
	if defs == nil {
		defs = NewDefs(nil)
	}
	return &Colony{
		defs:   defs,
		byID:   make(map[string]*Pawn),
		hasMap: true,
	}
}

func (c *Colony) Defs() *Defs {
	return c.defs
}

// SetObserver installs the hook every SetPriority call passes through.
func (c *Colony) SetObserver(o host.PriorityObserver) {
	c.observer = o
}

type PawnSpec struct {
	ID         string
	Name       string
	EverWork   bool
	Disabled   []string
	Priorities map[string]int
	Schedule   []string
	Job        string
}

func (c *Colony) AddPawn(spec PawnSpec) *Pawn {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	p := &Pawn{
		colony:     c,
		id:         spec.ID,
		name:       spec.Name,
		everWork:   spec.EverWork,
		disabled:   make(map[string]bool, len(spec.Disabled)),
		priorities: make(map[string]int, len(spec.Priorities)),
		timetable:  NewTimetable(spec.Schedule),
		job:        spec.Job,
	}
	for _, w := range spec.Disabled {
		p.disabled[w] = true
	}
	for w, v := range spec.Priorities {
		p.priorities[w] = v
	}
	c.pawns = append(c.pawns, p)
	c.byID[p.id] = p
	return p
}

// Destroy marks a pawn destroyed and despawns it. The pointer stays valid so
// stale references can still observe Destroyed().
func (c *Colony) Destroy(id string) {
	p, ok := c.byID[id]
	if !ok {
		return
	}
	p.destroyed = true
	for i, other := range c.pawns {
		if other == p {
			c.pawns = append(c.pawns[:i], c.pawns[i+1:]...)
			break
		}
	}
}

func (c *Colony) Pawn(id string) *Pawn {
	return c.byID[id]
}

func (c *Colony) Pawns() []*Pawn {
	out := make([]*Pawn, len(c.pawns))
	copy(out, c.pawns)
	return out
}

func (c *Colony) Agents() []host.Agent {
	out := make([]host.Agent, 0, len(c.pawns))
	for _, p := range c.pawns {
		out = append(out, p)
	}
	return out
}

func (c *Colony) Agent(id string) (host.Agent, bool) {
	p, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (c *Colony) TicksGame() int {
	return c.ticks
}

func (c *Colony) HourOfDay() (int, bool) {
	if !c.hasMap {
		return 0, false
	}
	return (c.startHour + c.ticks/domain.TicksPerHour) % domain.HoursPerDay, true
}

// SetHasMap toggles whether local time can be read.
func (c *Colony) SetHasMap(v bool) {
	c.hasMap = v
}

// SetStartHour sets the hour of day at tick zero.
func (c *Colony) SetStartHour(h int) {
	c.startHour = ((h % domain.HoursPerDay) + domain.HoursPerDay) % domain.HoursPerDay
}

// Advance moves the clock forward by one tick and returns the new tick.
func (c *Colony) Advance() int {
	c.ticks++
	return c.ticks
}

// SetTicks jumps the clock; used when restoring a save.
func (c *Colony) SetTicks(t int) {
	c.ticks = t
}

type PawnState struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Destroyed  bool           `json:"destroyed,omitempty"`
	EverWork   bool           `json:"ever_work"`
	Disabled   []string       `json:"disabled,omitempty"`
	Priorities map[string]int `json:"priorities"`
	Schedule   []string       `json:"schedule"`
	Job        string         `json:"job,omitempty"`
}

type State struct {
	Ticks     int         `json:"ticks"`
	StartHour int         `json:"start_hour"`
	Pawns     []PawnState `json:"pawns"`
}

func (c *Colony) Export() State {
	st := State{
		Ticks:     c.ticks,
		StartHour: c.startHour,
		Pawns:     make([]PawnState, 0, len(c.pawns)),
	}
	for _, p := range c.pawns {
		ps := PawnState{
			ID:         p.id,
			Name:       p.name,
			Destroyed:  p.destroyed,
			EverWork:   p.everWork,
			Priorities: make(map[string]int, len(p.priorities)),
			Job:        p.job,
		}
		for w := range p.disabled {
			ps.Disabled = append(ps.Disabled, w)
		}
		sort.Strings(ps.Disabled)
		for w, v := range p.priorities {
			ps.Priorities[w] = v
		}
		if p.timetable != nil {
			ps.Schedule = append([]string(nil), p.timetable.cells...)
		}
		st.Pawns = append(st.Pawns, ps)
	}
	return st
}

// Import replaces every pawn with the saved ones. The observer is kept.
func (c *Colony) Import(st State) {
	c.pawns = nil
	c.byID = make(map[string]*Pawn, len(st.Pawns))
	c.ticks = st.Ticks
	c.SetStartHour(st.StartHour)
	for _, ps := range st.Pawns {
		p := c.AddPawn(PawnSpec{
			ID:         ps.ID,
			Name:       ps.Name,
			EverWork:   ps.EverWork,
			Disabled:   ps.Disabled,
			Priorities: ps.Priorities,
			Schedule:   ps.Schedule,
			Job:        ps.Job,
		})
		if ps.Destroyed {
			c.Destroy(p.id)
		}
	}
}
