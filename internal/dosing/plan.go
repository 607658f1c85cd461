package dosing

import (
	"fmt"
	"math"
	"strings"
)

type Input struct {
	Medications   []Medication
	DurationWeeks int
	ReductionGoal float64
	Body          BodyMetrics
}

type ProgressionSummary struct {
	StartMg        float64 `json:"startMg"`
	EndMg          float64 `json:"endMg"`
	WeeklyIncrease float64 `json:"weeklyIncrease"`
}

type WeekPlan struct {
	Week                      int                `json:"week"`
	Medications               []WeeklyMedication `json:"medications"`
	TotalMedicationLoad       float64            `json:"totalMedicationLoad"`
	CbdDose                   float64            `json:"cbdDose"`
	Product                   Product            `json:"kannasanProduct"`
	MorningSprays             int                `json:"morningSprays"`
	EveningSprays             int                `json:"eveningSprays"`
	TotalSprays               int                `json:"totalSprays"`
	ActualCbdMg               float64            `json:"actualCbdMg"`
	Bottle                    BottleStatus       `json:"bottleStatus"`
	Fallback                  Fallback           `json:"fallback,omitempty"`
	CannabinoidMgPerKg        float64            `json:"cannabinoidMgPerKg"`
	CannabinoidToLoadRatio    *float64           `json:"cannabinoidToLoadRatio"`
	WeeklyCannabinoidIntakeMg float64            `json:"weeklyCannabinoidIntakeMg"`
}

type Personalization struct {
	Age              int          `json:"age,omitempty"`
	Weight           float64      `json:"weight,omitempty"`
	Height           float64      `json:"height,omitempty"`
	Gender           string       `json:"gender,omitempty"`
	BMI              *float64     `json:"bmi"`
	BSA              *float64     `json:"bsa"`
	IdealWeightKg    *float64     `json:"idealWeightKg"`
	CbdStartMg       float64      `json:"cbdStartMg"`
	CbdEndMg         float64      `json:"cbdEndMg"`
	HasBenzoOrOpioid bool         `json:"hasBenzoOrOpioid"`
	Adjustments      []Adjustment `json:"adjustments"`
	Notes            []string     `json:"notes"`
}

type Plan struct {
	WeeklyPlan      []WeekPlan         `json:"weeklyPlan"`
	ReductionGoal   float64            `json:"reductionGoal"`
	CbdProgression  ProgressionSummary `json:"cbdProgression"`
	Costs           Costs              `json:"costs"`
	Personalization Personalization    `json:"personalization"`
	Intelligence    Intelligence       `json:"planIntelligence"`
	CategoryNotes   []string           `json:"categoryNotes"`
	Warnings        []string           `json:"warnings"`
}

// Planner holds the reference data a plan is computed against. The zero
// value is not usable; use NewPlanner.
type Planner struct {
	catalog    Catalog
	capacity   int
	classifier Classifier
}

type Option func(*Planner)

func WithCatalog(c Catalog) Option {
	return func(p *Planner) { p.catalog = c }
}

func WithBottleCapacity(n int) Option {
	return func(p *Planner) { p.capacity = n }
}

func WithClassifier(c Classifier) Option {
	return func(p *Planner) { p.classifier = c }
}

func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		catalog:    DefaultCatalog,
		capacity:   BottleCapacity,
		classifier: KeywordClassifier{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) Catalog() Catalog {
	return p.catalog
}

// Validate checks the request level constraints before any computation.
func Validate(in Input) error {
	if len(in.Medications) == 0 {
		return invalid("medications", "at least one medication is required")
	}
	if len(in.Medications) > MaxMedications {
		return invalid("medications", fmt.Sprintf("at most %d medications are supported", MaxMedications))
	}
	for i, m := range in.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return invalid(fmt.Sprintf("medications[%d].name", i), "medication name is required")
		}
		if math.IsNaN(m.MgPerDay) || math.IsInf(m.MgPerDay, 0) || m.MgPerDay <= 0 {
			return &ValidationError{
				Field:      "mgPerDay",
				Medication: m.Name,
				Message:    fmt.Sprintf("a valid daily dose in mg is required for %q", m.Name),
			}
		}
	}
	if in.DurationWeeks < 1 {
		return invalid("durationWeeks", "duration must be at least one week")
	}
	if in.DurationWeeks > MaxDurationWeeks {
		return invalid("durationWeeks", fmt.Sprintf("duration must not exceed %d weeks", MaxDurationWeeks))
	}
	if math.IsNaN(in.ReductionGoal) || in.ReductionGoal < 0 || in.ReductionGoal > 100 {
		return invalid("reductionGoal", "reduction goal must be between 0 and 100")
	}
	b := in.Body
	if b.Age < 0 || b.Age > 120 {
		return invalid("age", "age must be between 0 and 120")
	}
	if math.IsNaN(b.WeightKg) || b.WeightKg < 0 || b.WeightKg > 350 {
		return invalid("weight", "weight must be between 0 and 350 kg")
	}
	if math.IsNaN(b.HeightCm) || b.HeightCm < 0 || (b.HeightCm > 0 && (b.HeightCm < 50 || b.HeightCm > 250)) {
		return invalid("height", "height must be between 50 and 250 cm")
	}
	return nil
}

// Generate validates the input and builds the week by week plan.
func (p *Planner) Generate(in Input) (*Plan, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if len(p.catalog) == 0 {
		return nil, fmt.Errorf("generate plan: empty product catalog")
	}

	schedules := make([]ReductionSchedule, len(in.Medications))
	categoryNotes := []string{}
	for i, m := range in.Medications {
		schedules[i] = PlanReduction(m, in.ReductionGoal, in.DurationWeeks)
		categoryNotes = append(categoryNotes, schedules[i].Notes...)
	}

	prog := PlanProgression(in.Body, in.Medications, in.DurationWeeks, p.classifier)
	tracker := Tracker{Catalog: p.catalog, Capacity: p.capacity}
	cbdWeeks, err := tracker.Track(prog.Targets())
	if err != nil {
		return nil, fmt.Errorf("track bottles: %w", err)
	}

	weight := in.Body.EffectiveWeight()
	plan := &Plan{
		WeeklyPlan:    make([]WeekPlan, 0, in.DurationWeeks),
		ReductionGoal: in.ReductionGoal,
		CbdProgression: ProgressionSummary{
			StartMg:        round1(prog.StartMg),
			EndMg:          round1(prog.EndMg),
			WeeklyIncrease: round1(prog.WeeklyIncrease),
		},
		Costs:         AggregateCosts(cbdWeeks, p.capacity),
		CategoryNotes: categoryNotes,
		Warnings:      []string{},
	}

	warned := map[Fallback]bool{}
	for _, cw := range cbdWeeks {
		wp := WeekPlan{
			Week:                      cw.Week,
			Medications:               make([]WeeklyMedication, len(schedules)),
			CbdDose:                   round1(cw.TargetMg),
			Product:                   cw.Product,
			MorningSprays:             cw.MorningSprays,
			EveningSprays:             cw.EveningSprays,
			TotalSprays:               cw.TotalSprays,
			ActualCbdMg:               round1(cw.ActualMg),
			Bottle:                    cw.Bottle,
			Fallback:                  cw.Fallback,
			CannabinoidMgPerKg:        round1(cw.ActualMg / weight),
			WeeklyCannabinoidIntakeMg: round1(cw.ActualMg * DaysPerWeek),
		}
		load := 0.0
		for i, s := range schedules {
			wp.Medications[i] = s.Week(cw.Week)
			load += s.CurrentMg(cw.Week)
		}
		wp.TotalMedicationLoad = round1(load)
		if load > 0 {
			ratio := round1(cw.ActualMg / load * 100)
			wp.CannabinoidToLoadRatio = &ratio
		}
		plan.WeeklyPlan = append(plan.WeeklyPlan, wp)

		if cw.Fallback != FallbackNone && !warned[cw.Fallback] {
			warned[cw.Fallback] = true
			plan.Warnings = append(plan.Warnings, fallbackWarning(cw))
		}
	}

	plan.Personalization = personalize(in.Body, prog)
	plan.Intelligence = summarize(in, schedules, prog, p.classifier)
	return plan, nil
}

func fallbackWarning(w WeeklyCbd) string {
	switch w.Fallback {
	case FallbackDoseTooHigh:
		return fmt.Sprintf("Week %d: %.1f mg/day exceeds %d sprays per intake even with %s; consult your doctor", w.Week, round1(w.TargetMg), MaxSpraysPerIntake, w.Product.Name)
	default:
		return fmt.Sprintf("Week %d: %.1f mg/day is delivered as %.1f mg with %s, more than 10%% above target", w.Week, round1(w.TargetMg), round1(w.ActualMg), w.Product.Name)
	}
}

func personalize(b BodyMetrics, prog Progression) Personalization {
	p := Personalization{
		Age:              b.Age,
		Weight:           b.WeightKg,
		Height:           b.HeightCm,
		Gender:           b.Gender,
		CbdStartMg:       round1(prog.StartMg),
		CbdEndMg:         round1(prog.EndMg),
		HasBenzoOrOpioid: prog.BenzoOrOpioid,
		Adjustments:      prog.Adjustments,
		Notes:            prog.Notes,
	}
	if p.Adjustments == nil {
		p.Adjustments = []Adjustment{}
	}
	if v, ok := b.BMI(); ok {
		p.BMI = &v
	}
	if v, ok := b.BSA(); ok {
		p.BSA = &v
	}
	if v, ok := b.IdealWeight(); ok {
		p.IdealWeightKg = &v
	}
	return p
}
