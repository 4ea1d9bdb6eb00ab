package slots

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"scheduleall/internal/domain"
	"scheduleall/internal/host"
)

// SanitizeSchedule rewrites every cell that names an undefined assignment to
// the default one. It runs during load validation so a save that references
// removed slots stays loadable. Returns the number of cells rewritten.
func SanitizeSchedule(defs host.Definitions, s host.Schedule) int {
	if s == nil || defs == nil {
		return 0
	}
	fixed := 0
	for h := 0; h < s.Len(); h++ {
		name := s.At(h)
		if name != "" {
			if _, ok := defs.Assignment(name); ok {
				continue
			}
		}
		s.Set(h, domain.DefaultAssignment)
		fixed++
	}
	return fixed
}

// ScrubCustom replaces every slot-prefixed cell with the default assignment.
func ScrubCustom(s host.Schedule) int {
	if s == nil {
		return 0
	}
	fixed := 0
	for h := 0; h < s.Len(); h++ {
		if IsCustomName(s.At(h)) {
			s.Set(h, domain.DefaultAssignment)
			fixed++
		}
	}
	return fixed
}

// SuggestWorkType finds the closest known work def name to a mistyped one.
func SuggestWorkType(name string, works []domain.WorkType) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	best := ""
	bestDist := -1
	for _, w := range works {
		for _, cand := range []string{w.DefName, w.Label} {
			dist := levenshtein.ComputeDistance(needle, strings.ToLower(cand))
			if bestDist < 0 || dist < bestDist {
				best = w.DefName
				bestDist = dist
			}
		}
	}
	if bestDist < 0 || bestDist > suggestionLimit(len(needle)) {
		return "", false
	}
	return best, true
}

func suggestionLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}
