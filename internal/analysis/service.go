package analysis

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Skufu/medless/internal/dosing"
	"github.com/Skufu/medless/internal/lead"
	"github.com/Skufu/medless/internal/medication"
)

const (
	warnCriticalInteractions = "Critical interactions detected!"
	warnConsultDoctor        = "Consult a doctor before taking cannabinoids."
	noteNotFound             = "medication not found in database"
)

type Request struct {
	Medications   []MedicationInput `json:"medications"`
	DurationWeeks int               `json:"durationWeeks"`
	ReductionGoal *float64          `json:"reductionGoal"`
	Email         string            `json:"email"`
	FirstName     string            `json:"firstName"`
	Gender        string            `json:"gender"`
	Age           int               `json:"age"`
	Weight        float64           `json:"weight"`
	Height        float64           `json:"height"`
}

type MedicationInput struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage,omitempty"`
	MgPerDay Dose   `json:"mgPerDay"`
}

// Dose accepts a JSON number or a numeric string. Anything else decodes to
// NaN so that validation rejects it with the medication's name.
type Dose float64

func (d *Dose) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*d = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f = math.NaN()
	}
	*d = Dose(f)
	return nil
}

type MedicationAnalysis struct {
	Medication   medication.Medication    `json:"medication"`
	Found        bool                     `json:"found"`
	Interactions []medication.Interaction `json:"interactions"`
	MgPerDay     float64                  `json:"mgPerDay"`
	Warning      string                   `json:"warning,omitempty"`
}

// ProductInfo describes the product for the first week of the plan.
type ProductInfo struct {
	Name              string  `json:"name"`
	Nr                int     `json:"nr"`
	CbdPerSpray       float64 `json:"cbdPerSpray"`
	TotalSpraysPerDay int     `json:"totalSpraysPerDay"`
	MorningSprays     int     `json:"morningSprays"`
	EveningSprays     int     `json:"eveningSprays"`
	ActualDailyMg     float64 `json:"actualDailyMg"`
}

type Response struct {
	RequestID   string               `json:"requestId"`
	FirstName   string               `json:"firstName,omitempty"`
	Analysis    []MedicationAnalysis `json:"analysis"`
	MaxSeverity medication.Severity  `json:"maxSeverity"`
	Product     *ProductInfo         `json:"product"`
	Warnings    []string             `json:"warnings"`
	*dosing.Plan
}

// Service runs one analysis request end to end. The medication and lead
// repositories are optional.
type Service struct {
	planner *dosing.Planner
	meds    medication.Repository
	leads   lead.Repository
	newID   func() string
}

func NewService(planner *dosing.Planner, meds medication.Repository, leads lead.Repository) *Service {
	return &Service{
		planner: planner,
		meds:    meds,
		leads:   leads,
		newID:   uuid.NewString,
	}
}

func (r Request) input() dosing.Input {
	goal := float64(dosing.DefaultReductionPct)
	if r.ReductionGoal != nil {
		goal = *r.ReductionGoal
	}
	meds := make([]dosing.Medication, len(r.Medications))
	for i, m := range r.Medications {
		meds[i] = dosing.Medication{Name: m.Name, Dosage: m.Dosage, MgPerDay: float64(m.MgPerDay)}
	}
	return dosing.Input{
		Medications:   meds,
		DurationWeeks: r.DurationWeeks,
		ReductionGoal: goal,
		Body: dosing.BodyMetrics{
			Age:      r.Age,
			WeightKg: r.Weight,
			HeightCm: r.Height,
			Gender:   strings.ToLower(strings.TrimSpace(r.Gender)),
		},
	}
}

func (s *Service) Analyze(ctx context.Context, req Request) (*Response, error) {
	in := req.input()
	if err := dosing.Validate(in); err != nil {
		return nil, err
	}

	if s.leads != nil && strings.TrimSpace(req.Email) != "" {
		if err := s.leads.SaveEmail(ctx, req.Email, req.FirstName); err != nil {
			log.Printf("analyze: %v", err)
		}
	}

	resp := &Response{
		RequestID:   s.newID(),
		FirstName:   req.FirstName,
		Analysis:    make([]MedicationAnalysis, 0, len(in.Medications)),
		MaxSeverity: medication.SeverityLow,
	}
	for i, m := range in.Medications {
		entry := s.lookup(ctx, m)
		if entry.Found {
			in.Medications[i].Category = entry.Medication.Category.Rules()
			if len(entry.Interactions) > 0 {
				resp.MaxSeverity = resp.MaxSeverity.Max(entry.Interactions[0].Severity)
			}
		}
		resp.Analysis = append(resp.Analysis, entry)
	}

	plan, err := s.planner.Generate(in)
	if err != nil {
		return nil, err
	}
	resp.Plan = plan
	resp.Product = firstWeekProduct(plan)

	resp.Warnings = []string{}
	if resp.MaxSeverity.Rank() >= medication.SeverityHigh.Rank() {
		resp.Warnings = append(resp.Warnings, warnCriticalInteractions, warnConsultDoctor)
	}
	resp.Warnings = append(resp.Warnings, plan.CategoryNotes...)
	resp.Warnings = append(resp.Warnings, plan.Warnings...)
	return resp, nil
}

func (s *Service) lookup(ctx context.Context, m dosing.Medication) MedicationAnalysis {
	entry := MedicationAnalysis{
		Medication:   medication.Medication{Name: m.Name},
		Interactions: []medication.Interaction{},
		MgPerDay:     m.MgPerDay,
	}
	if s.meds == nil {
		return entry
	}

	found, err := s.meds.FindByName(ctx, m.Name)
	if err != nil {
		if !errors.Is(err, medication.ErrNotFound) {
			log.Printf("analyze: %v", err)
		}
		entry.Warning = noteNotFound
		return entry
	}
	entry.Medication = *found
	entry.Found = true

	interactions, err := s.meds.Interactions(ctx, found.ID)
	if err != nil {
		log.Printf("analyze: %v", err)
		return entry
	}
	entry.Interactions = interactions
	return entry
}

func firstWeekProduct(plan *dosing.Plan) *ProductInfo {
	if len(plan.WeeklyPlan) == 0 {
		return nil
	}
	w := plan.WeeklyPlan[0]
	return &ProductInfo{
		Name:              w.Product.Name,
		Nr:                w.Product.Nr,
		CbdPerSpray:       w.Product.MgPerSpray,
		TotalSpraysPerDay: w.TotalSprays,
		MorningSprays:     w.MorningSprays,
		EveningSprays:     w.EveningSprays,
		ActualDailyMg:     w.ActualCbdMg,
	}
}
