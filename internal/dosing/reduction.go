package dosing

import (
	"fmt"
	"math"
)

const (
	RiskLifelong = "lifelong"
	RiskVeryHigh = "very_high"
	RiskHigh     = "high"
)

type Medication struct {
	Name     string         `json:"name"`
	Dosage   string         `json:"dosage,omitempty"`
	MgPerDay float64        `json:"mgPerDay"`
	Category *CategoryRules `json:"-"`
}

// CategoryRules carries the per-category reduction limits known for a
// medication. Nil pointers mean the rule is not set.
type CategoryRules struct {
	Name                  string
	RiskLevel             string
	CanReduceToZero       *bool
	MinTargetFraction     *float64
	MaxWeeklyReductionPct *float64
	RequiresSpecialist    bool
}

func (c *CategoryRules) empty() bool {
	return c == nil || (c.CanReduceToZero == nil && c.MinTargetFraction == nil && c.MaxWeeklyReductionPct == nil)
}

type ReductionSchedule struct {
	Name              string
	StartMg           float64
	TargetMg          float64
	WeeklyReduction   float64
	AppliedCategory   bool
	LimitedByCategory bool
	Notes             []string
}

type WeeklyMedication struct {
	Name              string        `json:"name"`
	StartMg           float64       `json:"startMg"`
	CurrentMg         float64       `json:"currentMg"`
	TargetMg          float64       `json:"targetMg"`
	Reduction         float64       `json:"reduction"`
	ReducedMg         float64       `json:"reducedMg"`
	ReductionPercent  float64       `json:"reductionPercent"`
	ReductionSpeedPct float64       `json:"reductionSpeedPct"`
	Safety            *SafetyResult `json:"safety,omitempty"`
}

type SafetyResult struct {
	AppliedCategoryRules bool     `json:"appliedCategoryRules"`
	LimitedByCategory    bool     `json:"limitedByCategory"`
	Notes                []string `json:"notes"`
}

// PlanReduction computes the linear de-escalation of one medication. The
// target is reached at the end of the last week, so week N still takes one
// weekly step above it.
func PlanReduction(med Medication, reductionGoal float64, weeks int) ReductionSchedule {
	start := med.MgPerDay
	fraction := 1 - reductionGoal/100
	s := ReductionSchedule{Name: med.Name, StartMg: start}

	cat := med.Category
	if cat.empty() {
		s.TargetMg = start * fraction
		s.WeeklyReduction = (start - s.TargetMg) / float64(weeks)
		if cat != nil && cat.RequiresSpecialist {
			s.Notes = append(s.Notes, fmt.Sprintf("%s: specialist supervision required", med.Name))
		}
		return s
	}
	s.AppliedCategory = true

	minFraction := 0.0
	if cat.MinTargetFraction != nil {
		minFraction = *cat.MinTargetFraction
	}
	noZero := (cat.CanReduceToZero != nil && !*cat.CanReduceToZero) ||
		cat.RiskLevel == RiskLifelong || cat.RiskLevel == RiskVeryHigh

	switch {
	case noZero && minFraction > 0:
		if minFraction > fraction {
			fraction = minFraction
			s.LimitedByCategory = true
			s.Notes = append(s.Notes, fmt.Sprintf("%s: reduction limited to max. %.0f%% (category safety rule)", med.Name, (1-fraction)*100))
		}
	case noZero:
		fraction = 1
		s.LimitedByCategory = true
		s.Notes = append(s.Notes, fmt.Sprintf("%s: no reduction possible (lifelong medication)", med.Name))
	case minFraction > 0 && minFraction > fraction:
		fraction = minFraction
		s.LimitedByCategory = true
		s.Notes = append(s.Notes, fmt.Sprintf("%s: reduction limited to max. %.0f%% (safety limit)", med.Name, (1-fraction)*100))
	}

	desired := math.Max(0, start*fraction)
	weekly := (start - desired) / float64(weeks)

	if cat.MaxWeeklyReductionPct != nil && *cat.MaxWeeklyReductionPct > 0 {
		maxWeekly := start * *cat.MaxWeeklyReductionPct / 100
		if weekly > maxWeekly {
			weekly = maxWeekly
			s.LimitedByCategory = true
			s.Notes = append(s.Notes, fmt.Sprintf("%s: reduction speed limited to max. %g%%/week", med.Name, *cat.MaxWeeklyReductionPct))
		}
	}

	s.WeeklyReduction = weekly
	s.TargetMg = math.Max(0, start-weekly*float64(weeks))
	if s.TargetMg > desired && s.LimitedByCategory {
		actual := math.Round((start - s.TargetMg) / start * 100)
		s.Notes = append(s.Notes, fmt.Sprintf("%s: actual reduction %.0f%% (instead of %g%%)", med.Name, actual, reductionGoal))
	}
	if cat.RequiresSpecialist {
		s.Notes = append(s.Notes, fmt.Sprintf("%s: specialist supervision required", med.Name))
	}
	return s
}

func (s ReductionSchedule) CurrentMg(week int) float64 {
	return s.StartMg - s.WeeklyReduction*float64(week-1)
}

// SpeedPct is the weekly reduction as a percentage of the start dose.
func (s ReductionSchedule) SpeedPct() float64 {
	if s.StartMg <= 0 {
		return 0
	}
	return s.WeeklyReduction / s.StartMg * 100
}

func (s ReductionSchedule) Week(week int) WeeklyMedication {
	current := s.CurrentMg(week)
	wm := WeeklyMedication{
		Name:              s.Name,
		StartMg:           round1(s.StartMg),
		CurrentMg:         round1(current),
		TargetMg:          round1(s.TargetMg),
		Reduction:         round1(s.WeeklyReduction),
		ReducedMg:         round1(s.StartMg - current),
		ReductionSpeedPct: round1(s.SpeedPct()),
	}
	if s.StartMg > 0 {
		wm.ReductionPercent = round1((s.StartMg - current) / s.StartMg * 100)
	}
	if week == 1 {
		notes := s.Notes
		if notes == nil {
			notes = []string{}
		}
		wm.Safety = &SafetyResult{
			AppliedCategoryRules: s.AppliedCategory,
			LimitedByCategory:    s.LimitedByCategory,
			Notes:                notes,
		}
	}
	return wm
}
