// Package ledger records, per (agent, work type), the priority to put back
// once an override ends. An entry exists exactly while the pair is overridden.
package ledger

import (
	"sort"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

type Key struct {
	AgentID string
	Work    string
}

type Entry struct {
	Agent   host.Agent
	Work    string
	Restore int
}

func (e Entry) Key() Key {
	return Key{AgentID: agentID(e.Agent), Work: e.Work}
}

type Ledger struct {
	entries map[Key]*Entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[Key]*Entry)}
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) Has(agentID, work string) bool {
	_, ok := l.entries[Key{AgentID: agentID, Work: work}]
	return ok
}

func (l *Ledger) Get(agentID, work string) (int, bool) {
	e, ok := l.entries[Key{AgentID: agentID, Work: work}]
	if !ok {
		return 0, false
	}
	return e.Restore, true
}

// Capture records the pre-override value. It never overwrites an existing
// entry; the first capture of a pair wins.
func (l *Ledger) Capture(agent host.Agent, work string, value int) bool {
	k := Key{AgentID: agentID(agent), Work: work}
	if _, ok := l.entries[k]; ok {
		return false
	}
	l.entries[k] = &Entry{Agent: agent, Work: work, Restore: value}
	return true
}

// Update replaces the restore value of an existing entry.
func (l *Ledger) Update(agentID, work string, value int) (int, bool) {
	e, ok := l.entries[Key{AgentID: agentID, Work: work}]
	if !ok {
		return 0, false
	}
	prev := e.Restore
	e.Restore = value
	return prev, true
}

func (l *Ledger) Remove(agentID, work string) (Entry, bool) {
	k := Key{AgentID: agentID, Work: work}
	e, ok := l.entries[k]
	if !ok {
		return Entry{}, false
	}
	delete(l.entries, k)
	return *e, true
}

// ForAgent lists the agent's entries in work order.
func (l *Ledger) ForAgent(id string) []Entry {
	var out []Entry
	for k, e := range l.entries {
		if k.AgentID == id {
			out = append(out, *e)
		}
	}
	sortEntries(out)
	return out
}

// Entries lists every entry ordered by agent id then work.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	sortEntries(out)
	return out
}

func (l *Ledger) Clear() {
	l.entries = make(map[Key]*Entry)
}

// Purge drops, without restoring, every entry whose agent is gone.
func (l *Ledger) Purge() []Entry {
	var dropped []Entry
	for k, e := range l.entries {
		if e.Agent == nil || e.Agent.Destroyed() {
			dropped = append(dropped, *e)
			delete(l.entries, k)
		}
	}
	sortEntries(dropped)
	return dropped
}

// Export flattens the ledger into parallel sequences.
func (l *Ledger) Export(lastHour int) domain.LedgerState {
	st := domain.LedgerState{
		LastHour: lastHour,
		Pawns:    make([]string, 0, len(l.entries)),
		Works:    make([]string, 0, len(l.entries)),
		Values:   make([]int, 0, len(l.entries)),
	}
	for _, e := range l.Entries() {
		st.Pawns = append(st.Pawns, agentID(e.Agent))
		st.Works = append(st.Works, e.Work)
		st.Values = append(st.Values, e.Restore)
	}
	return st
}

// Import rebuilds the ledger from parallel sequences. Rows whose agent or
// work type no longer resolves are skipped, as are rows past the end of the
// shortest sequence.
func (l *Ledger) Import(st domain.LedgerState, agents func(id string) (host.Agent, bool), works func(defName string) bool) (loaded, skipped int) {
	l.Clear()
	n := min(len(st.Pawns), len(st.Works), len(st.Values))
	skipped = max(len(st.Pawns), len(st.Works), len(st.Values)) - n
	for i := 0; i < n; i++ {
		if st.Pawns[i] == "" || st.Works[i] == "" {
			skipped++
			continue
		}
		agent, ok := agents(st.Pawns[i])
		if !ok || agent == nil {
			skipped++
			continue
		}
		if works != nil && !works(st.Works[i]) {
			skipped++
			continue
		}
		l.entries[Key{AgentID: st.Pawns[i], Work: st.Works[i]}] = &Entry{
			Agent:   agent,
			Work:    st.Works[i],
			Restore: st.Values[i],
		}
		loaded++
	}
	return loaded, skipped
}

func agentID(a host.Agent) string {
	if a == nil {
		return ""
	}
	return a.ID()
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		ai, aj := agentID(entries[i].Agent), agentID(entries[j].Agent)
		if ai != aj {
			return ai < aj
		}
		return entries[i].Work < entries[j].Work
	})
}
