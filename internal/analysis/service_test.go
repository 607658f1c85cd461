package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Skufu/medless/internal/dosing"
	"github.com/Skufu/medless/internal/medication"
)

type fakeMeds struct {
	byName       map[string]*medication.Medication
	interactions map[int64][]medication.Interaction
	err          error
}

func (f *fakeMeds) List(ctx context.Context) ([]medication.Medication, error) { return nil, nil }

func (f *fakeMeds) Search(ctx context.Context, q string) ([]medication.Medication, error) {
	return nil, nil
}

func (f *fakeMeds) FindByName(ctx context.Context, name string) (*medication.Medication, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.byName[name]
	if !ok {
		return nil, medication.ErrNotFound
	}
	return m, nil
}

func (f *fakeMeds) Interactions(ctx context.Context, id int64) ([]medication.Interaction, error) {
	return f.interactions[id], nil
}

type fakeLeads struct {
	saved []string
	err   error
}

func (f *fakeLeads) SaveEmail(ctx context.Context, email, firstName string) error {
	f.saved = append(f.saved, email)
	return f.err
}

func newTestService(meds medication.Repository, leads *fakeLeads) *Service {
	var s *Service
	if leads == nil {
		s = NewService(dosing.NewPlanner(), meds, nil)
	} else {
		s = NewService(dosing.NewPlanner(), meds, leads)
	}
	s.newID = func() string { return "req-1" }
	return s
}

func TestAnalyzeWithoutDirectory(t *testing.T) {
	s := newTestService(nil, nil)
	resp, err := s.Analyze(context.Background(), Request{
		Medications:   []MedicationInput{{Name: "Ibuprofen", MgPerDay: 400}},
		DurationWeeks: 4,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.RequestID != "req-1" || resp.MaxSeverity != medication.SeverityLow {
		t.Fatalf("unexpected header %+v", resp)
	}
	if resp.ReductionGoal != 50 {
		t.Fatalf("expected default reduction goal 50, got %v", resp.ReductionGoal)
	}
	if len(resp.WeeklyPlan) != 4 || resp.Product == nil || resp.Product.Nr != 15 {
		t.Fatalf("unexpected plan: weeks=%d product=%+v", len(resp.WeeklyPlan), resp.Product)
	}
	if len(resp.Analysis) != 1 || resp.Analysis[0].Found || resp.Analysis[0].Warning != "" {
		t.Fatalf("unexpected analysis %+v", resp.Analysis)
	}
	// Week 2 keeps the Nr.15 bottle at 52.5 mg for a 43.75 mg target.
	if len(resp.Warnings) != 1 || !strings.HasPrefix(resp.Warnings[0], "Week 2:") {
		t.Fatalf("expected only the week 2 fallback warning, got %v", resp.Warnings)
	}
}

func TestAnalyzeAppliesDirectoryData(t *testing.T) {
	zero := false
	meds := &fakeMeds{
		byName: map[string]*medication.Medication{
			"Marcumar": {ID: 3, Name: "Marcumar", Category: &medication.Category{
				Name: "Blutverdünner", RiskLevel: "lifelong", CanReduceToZero: &zero, RequiresSpecialist: true,
			}},
		},
		interactions: map[int64][]medication.Interaction{
			3: {{MedicationID: 3, InteractionType: "cyp450", Severity: medication.SeverityCritical}},
		},
	}
	s := newTestService(meds, nil)
	resp, err := s.Analyze(context.Background(), Request{
		Medications:   []MedicationInput{{Name: "Marcumar", MgPerDay: 3}, {Name: "Unbekannt", MgPerDay: 10}},
		DurationWeeks: 4,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.MaxSeverity != medication.SeverityCritical {
		t.Fatalf("max severity = %q", resp.MaxSeverity)
	}
	if resp.Warnings[0] != warnCriticalInteractions || resp.Warnings[1] != warnConsultDoctor {
		t.Fatalf("interaction warnings must come first: %v", resp.Warnings)
	}
	if len(resp.CategoryNotes) != 2 || len(resp.Warnings) != 2+len(resp.CategoryNotes)+len(resp.Plan.Warnings) {
		t.Fatalf("expected lifelong and specialist notes, got %v", resp.Warnings)
	}
	if !resp.Analysis[0].Found || resp.Analysis[1].Found || resp.Analysis[1].Warning != noteNotFound {
		t.Fatalf("unexpected analysis %+v", resp.Analysis)
	}
	last := resp.WeeklyPlan[len(resp.WeeklyPlan)-1].Medications[0]
	if last.CurrentMg != 3 || last.Reduction != 0 {
		t.Fatalf("lifelong medication must not be reduced: %+v", last)
	}
	if s := resp.WeeklyPlan[0].Medications[0].Safety; s == nil || !s.LimitedByCategory {
		t.Fatalf("expected category safety summary, got %+v", s)
	}
}

func TestAnalyzeValidatesBeforeSavingLead(t *testing.T) {
	leads := &fakeLeads{}
	s := newTestService(nil, leads)
	_, err := s.Analyze(context.Background(), Request{
		Medications:   []MedicationInput{{Name: "Sertralin", MgPerDay: 0}},
		DurationWeeks: 4,
		Email:         "a@example.com",
	})
	var verr *dosing.ValidationError
	if !errors.As(err, &verr) || verr.Medication != "Sertralin" {
		t.Fatalf("expected validation error naming Sertralin, got %v", err)
	}
	if len(leads.saved) != 0 {
		t.Fatalf("lead saved for invalid request: %v", leads.saved)
	}
}

func TestAnalyzeToleratesLeadAndLookupFailures(t *testing.T) {
	leads := &fakeLeads{err: errors.New("duplicate")}
	meds := &fakeMeds{err: errors.New("connection reset")}
	s := newTestService(meds, leads)
	resp, err := s.Analyze(context.Background(), Request{
		Medications:   []MedicationInput{{Name: "Sertralin", MgPerDay: 50}},
		DurationWeeks: 8,
		Email:         "a@example.com",
		FirstName:     "Alex",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(leads.saved) != 1 || resp.FirstName != "Alex" {
		t.Fatalf("expected lead attempt, got %v", leads.saved)
	}
	if resp.Analysis[0].Found {
		t.Fatal("failed lookup must not be reported as found")
	}
}

func TestAnalyzeReportsDoseTooHigh(t *testing.T) {
	s := NewService(dosing.NewPlanner(dosing.WithBottleCapacity(10)), nil, nil)
	_, err := s.Analyze(context.Background(), Request{
		Medications:   []MedicationInput{{Name: "Ibuprofen", MgPerDay: 400}},
		DurationWeeks: 4,
		Weight:        120,
	})
	if !errors.Is(err, dosing.ErrDoseTooHigh) {
		t.Fatalf("expected ErrDoseTooHigh, got %v", err)
	}
}

func TestDoseUnmarshal(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		nan  bool
	}{
		{`400`, 400, false},
		{`12.5`, 12.5, false},
		{`"400"`, 400, false},
		{`" 7.5 "`, 7.5, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
		{`""`, 0, true},
		{`{"mg": 4}`, 0, true},
		{`true`, 0, true},
	}
	for _, tc := range cases {
		var d Dose
		if err := json.Unmarshal([]byte(tc.raw), &d); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		got := float64(d)
		if tc.nan != math.IsNaN(got) || (!tc.nan && got != tc.want) {
			t.Errorf("%s: got %v", tc.raw, got)
		}
	}
}

func TestAnalyzeRejectsMalformedDoseByName(t *testing.T) {
	var req Request
	body := `{"medications": [{"name": "Ibuprofen", "mgPerDay": 400}, {"name": "Sertralin", "mgPerDay": "abc"}], "durationWeeks": 4}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, err := newTestService(nil, nil).Analyze(context.Background(), req)
	var verr *dosing.ValidationError
	if !errors.As(err, &verr) || verr.Field != "mgPerDay" || verr.Medication != "Sertralin" {
		t.Fatalf("expected mgPerDay validation error for Sertralin, got %v", err)
	}
}
