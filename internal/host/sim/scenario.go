package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scheduleall/internal/domain"
)

// Scenario is a colony fixture.
//
//	start_hour: 6
//	pawns:
//	  - name: Ada
//	    priorities: {Cooking: 3}
//	    schedule: [Sleep, Sleep, SA_Slot_0]
type Scenario struct {
	StartHour int               `yaml:"start_hour"`
	WorkTypes []domain.WorkType `yaml:"work_types"`
	Pawns     []ScenarioPawn    `yaml:"pawns"`
}

type ScenarioPawn struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	NoWork     bool           `yaml:"no_work"`
	Disabled   []string       `yaml:"disabled"`
	Priorities map[string]int `yaml:"priorities"`
	Schedule   []string       `yaml:"schedule"`
	Job        string         `yaml:"job"`
}

func LoadScenario(path string) (Scenario, error) {
	var sc Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return ParseScenario(raw)
}

func ParseScenario(raw []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("decode scenario: %w", err)
	}
	if len(sc.Pawns) == 0 {
		return sc, fmt.Errorf("scenario has no pawns")
	}
	for i, p := range sc.Pawns {
		if p.Name == "" {
			return sc, fmt.Errorf("scenario pawn %d has no name", i)
		}
		if len(p.Schedule) > domain.HoursPerDay {
			return sc, fmt.Errorf("scenario pawn %q has %d schedule cells, max %d", p.Name, len(p.Schedule), domain.HoursPerDay)
		}
	}
	return sc, nil
}

// Build creates a colony populated from the scenario.
func (sc Scenario) Build() *Colony {
	c := NewColony(NewDefs(sc.WorkTypes))
	c.SetStartHour(sc.StartHour)
	for _, p := range sc.Pawns {
		c.AddPawn(PawnSpec{
			ID:         p.ID,
			Name:       p.Name,
			EverWork:   !p.NoWork,
			Disabled:   p.Disabled,
			Priorities: p.Priorities,
			Schedule:   p.Schedule,
			Job:        p.Job,
		})
	}
	return c
}

// DemoScenario is used when no scenario file is configured.
func DemoScenario() Scenario {
	night := []string{"Sleep", "Sleep", "Sleep", "Sleep", "Sleep", "Sleep"}
	day := func(cells ...string) []string {
		out := append([]string(nil), night...)
		return append(out, cells...)
	}
	return Scenario{
		StartHour: 5,
		Pawns: []ScenarioPawn{
			{
				Name:       "Engie Tamsin Hale",
				Priorities: map[string]int{"Cooking": 3, "Construction": 2, "Mining": 3, "Hauling": 4},
				Schedule:   day("SA_Slot_0", "SA_Slot_0", "Work", "Work", "SA_Slot_1", "Joy"),
				Job:        domain.IdleWanderJob,
			},
			{
				Name:       "Doc Oren Vasquez",
				Priorities: map[string]int{"Doctor": 1, "Cooking": 4, "Research": 2},
				Schedule:   day("Work", "SA_Slot_0", "SA_Slot_0", "Anything", "Work"),
			},
			{
				Name:       "Grower Pell Ashby",
				Disabled:   []string{"Cooking"},
				Priorities: map[string]int{"Growing": 2, "PlantCutting": 3},
				Schedule:   day("SA_Slot_0", "SA_Slot_2", "Work", "Joy"),
			},
		},
	}
}
