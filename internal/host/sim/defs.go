package sim

import "scheduleall/internal/domain"

// DefaultWorkTypes is the work list in the host's natural order.
var DefaultWorkTypes = []domain.WorkType{
	{DefName: "Firefighter", Label: "firefight", NaturalPriority: 1400},
	{DefName: "Patient", Label: "patient", NaturalPriority: 1350},
	{DefName: "Doctor", Label: "doctor", NaturalPriority: 1300},
	{DefName: "PatientBedRest", Label: "bed rest", NaturalPriority: 1250},
	{DefName: "BasicWorker", Label: "basic", NaturalPriority: 1200},
	{DefName: "Warden", Label: "warden", NaturalPriority: 1150},
	{DefName: "Handling", Label: "handle", NaturalPriority: 1100},
	{DefName: "Cooking", Label: "cook", NaturalPriority: 1000},
	{DefName: "Hunting", Label: "hunt", NaturalPriority: 900},
	{DefName: "Construction", Label: "construct", NaturalPriority: 800},
	{DefName: "Growing", Label: "grow", NaturalPriority: 700},
	{DefName: "Mining", Label: "mine", NaturalPriority: 600},
	{DefName: "PlantCutting", Label: "plant cut", NaturalPriority: 500},
	{DefName: "Smithing", Label: "smith", NaturalPriority: 450},
	{DefName: "Tailoring", Label: "tailor", NaturalPriority: 400},
	{DefName: "Art", Label: "art", NaturalPriority: 350},
	{DefName: "Crafting", Label: "craft", NaturalPriority: 300},
	{DefName: "Hauling", Label: "haul", NaturalPriority: 200},
	{DefName: "Cleaning", Label: "clean", NaturalPriority: 150},
	{DefName: "Research", Label: "research", NaturalPriority: 100},
}

func vanillaAssignments() []domain.AssignmentDef {
	return []domain.AssignmentDef{
		{DefName: domain.AssignmentAnything, Label: "anything", Color: domain.Color{R: 0.25, G: 0.25, B: 0.25}, AllowRest: true, AllowJoy: true},
		{DefName: domain.AssignmentWork, Label: "work", Color: domain.Color{R: 0.9, G: 0.6, B: 0.1}},
		{DefName: domain.AssignmentJoy, Label: "recreation", Color: domain.Color{R: 0.1, G: 0.6, B: 0.9}, AllowJoy: true},
		{DefName: domain.AssignmentSleep, Label: "sleep", Color: domain.Color{R: 0.1, G: 0.1, B: 0.6}, AllowRest: true},
		{DefName: domain.AssignmentMeditate, Label: "meditate", Color: domain.Color{R: 0.6, G: 0.2, B: 0.9}},
	}
}

// Defs is the definition database. Assignment order is insertion order.
type Defs struct {
	assignments []domain.AssignmentDef
	works       []domain.WorkType
	// Revision bumps whenever an assignment changes so renderers know to
	// rebuild their cached swatches.
	Revision int
}

func NewDefs(works []domain.WorkType) *Defs {
	if len(works) == 0 {
		works = DefaultWorkTypes
	}
	return &Defs{
		assignments: vanillaAssignments(),
		works:       append([]domain.WorkType(nil), works...),
	}
}

func (d *Defs) Assignment(defName string) (domain.AssignmentDef, bool) {
	for _, a := range d.assignments {
		if a.DefName == defName {
			return a, true
		}
	}
	return domain.AssignmentDef{}, false
}

func (d *Defs) Assignments() []domain.AssignmentDef {
	return append([]domain.AssignmentDef(nil), d.assignments...)
}

func (d *Defs) UpsertAssignment(def domain.AssignmentDef) {
	d.Revision++
	for i, a := range d.assignments {
		if a.DefName == def.DefName {
			d.assignments[i] = def
			return
		}
	}
	d.assignments = append(d.assignments, def)
}

func (d *Defs) RemoveAssignment(defName string) {
	for i, a := range d.assignments {
		if a.DefName == defName {
			d.assignments = append(d.assignments[:i], d.assignments[i+1:]...)
			d.Revision++
			return
		}
	}
}

func (d *Defs) WorkType(defName string) (domain.WorkType, bool) {
	for _, w := range d.works {
		if w.DefName == defName {
			return w, true
		}
	}
	return domain.WorkType{}, false
}

func (d *Defs) WorkTypes() []domain.WorkType {
	return append([]domain.WorkType(nil), d.works...)
}

// RemoveWorkType simulates a mod update that drops a work type.
func (d *Defs) RemoveWorkType(defName string) {
	for i, w := range d.works {
		if w.DefName == defName {
			d.works = append(d.works[:i], d.works[i+1:]...)
			return
		}
	}
}
