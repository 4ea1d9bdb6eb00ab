package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"scheduleall/internal/domain"
	"scheduleall/internal/session"
	"scheduleall/internal/slots"
)

var vanillaColors = map[string]string{
	domain.AssignmentAnything: "#808080",
	domain.AssignmentWork:     "#e6b422",
	domain.AssignmentJoy:      "#6a5acd",
	domain.AssignmentSleep:    "#1e3a8a",
	domain.AssignmentMeditate: "#2e8b57",
}

// slotColors maps each custom slot def name to its configured hex colour.
func slotColors(items []domain.Slot) map[string]string {
	out := make(map[string]string, len(items))
	for _, s := range items {
		out[s.Name] = s.Config.Color.Hex()
	}
	return out
}

// renderStrip draws a 24-cell timetable as coloured blocks with the current
// hour marked.
func renderStrip(schedule []string, colors map[string]string, hour int) string {
	var b strings.Builder
	for h, cell := range schedule {
		hex, ok := colors[cell]
		if !ok {
			hex, ok = vanillaColors[cell]
		}
		if !ok {
			hex = "#ffffff"
		}
		glyph := "█"
		if h == hour {
			glyph = "▼"
		}
		b.WriteString(fmt.Sprintf("[%s]%s", hex, glyph))
	}
	b.WriteString("[-]")
	return b.String()
}

func renderAgentsTable(table *tview.Table, agents []session.AgentView, colors map[string]string, hour int) {
	table.Clear()
	headers := []string{"Colonist", "Job", "Now", "Timetable"}
	for i, h := range headers {
		table.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetAttributes(tcell.AttrBold))
	}
	for i, a := range agents {
		row := i + 1
		now := a.CurrentSlot
		if slots.IsCustomName(now) {
			now = "[::b]" + now + "[::-]"
		}
		table.SetCell(row, 0, tview.NewTableCell(trimLine(a.Name, 24)))
		table.SetCell(row, 1, tview.NewTableCell(trimLine(a.Job, 20)))
		table.SetCell(row, 2, tview.NewTableCell(now))
		table.SetCell(row, 3, tview.NewTableCell(renderStrip(a.Schedule, colors, hour)))
	}
}

func renderLedger(items []domain.LedgerEntry) string {
	if len(items) == 0 {
		return "No overrides active"
	}
	var b strings.Builder
	for _, e := range items {
		b.WriteString(fmt.Sprintf("%-24s %-14s live=%d restore=%d\n", trimLine(e.AgentName, 24), e.Work, e.Live, e.Restore))
	}
	return b.String()
}

func renderSlots(items []domain.Slot) string {
	if len(items) == 0 {
		return "Slot settings not loaded"
	}
	var b strings.Builder
	for _, s := range items {
		target := s.Config.TargetWork
		if target == "" {
			target = "-"
		}
		b.WriteString(fmt.Sprintf("[%s]■[-] %-2d %-22s %s\n", s.Config.Color.Hex(), s.Index, trimLine(s.Config.Label, 22), target))
	}
	return b.String()
}

func renderDecisions(items []domain.DecisionLog) string {
	if len(items) == 0 {
		return "No decisions"
	}
	var b strings.Builder
	for _, d := range items {
		b.WriteString(fmt.Sprintf("[%s] t=%d %s", d.CreatedAt.Format("15:04:05"), d.Tick, d.Kind))
		if d.AgentName != "" {
			b.WriteString(" " + d.AgentName)
		}
		if d.Work != "" {
			b.WriteString(fmt.Sprintf(" %s %d->%d", d.Work, d.From, d.To))
		}
		if d.Count > 0 {
			b.WriteString(fmt.Sprintf(" n=%d", d.Count))
		}
		if d.Reason != "" {
			b.WriteString("  " + trimLine(d.Reason, 48))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderStatus(st session.Status, baseURL string) string {
	hour := "no map"
	if st.HasMap {
		hour = fmt.Sprintf("%02d:00", st.Hour)
	}
	return fmt.Sprintf(
		"%s | session %s | tick %d | %s | overrides %d | c capture, r restore, s save, u uninstall, F5 refresh, F10 quit",
		baseURL, shortID(st.SessionID), st.Tick, hour, st.Entries,
	)
}

func trimLine(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

func shortID(v string) string {
	if len(v) <= 8 {
		return v
	}
	return v[:8]
}
