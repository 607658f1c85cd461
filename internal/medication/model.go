package medication

import (
	"strings"

	"github.com/Skufu/medless/internal/dosing"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low to critical. Unknown values rank as low.
func (s Severity) Rank() int {
	switch Severity(strings.ToLower(string(s))) {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of the two.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

type Category struct {
	ID                       int64    `json:"id"`
	Name                     string   `json:"name"`
	RiskLevel                string   `json:"riskLevel,omitempty"`
	CanReduceToZero          *bool    `json:"canReduceToZero,omitempty"`
	DefaultMinTargetFraction *float64 `json:"defaultMinTargetFraction,omitempty"`
	MaxWeeklyReductionPct    *float64 `json:"maxWeeklyReductionPct,omitempty"`
	RequiresSpecialist       bool     `json:"requiresSpecialist"`
	Notes                    string   `json:"notes,omitempty"`
}

type Medication struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	GenericName  string    `json:"genericName,omitempty"`
	CYP450Enzyme string    `json:"cyp450Enzyme,omitempty"`
	Description  string    `json:"description,omitempty"`
	CommonDosage string    `json:"commonDosage,omitempty"`
	Category     *Category `json:"category,omitempty"`
}

type Interaction struct {
	MedicationID    int64    `json:"medicationId"`
	InteractionType string   `json:"interactionType"`
	Severity        Severity `json:"severity"`
	Description     string   `json:"description,omitempty"`
	Mechanism       string   `json:"mechanism,omitempty"`
	Recommendation  string   `json:"recommendation,omitempty"`
}

// Rules maps the category columns onto the reduction calculator's rules.
func (c *Category) Rules() *dosing.CategoryRules {
	if c == nil {
		return nil
	}
	return &dosing.CategoryRules{
		Name:                  c.Name,
		RiskLevel:             c.RiskLevel,
		CanReduceToZero:       c.CanReduceToZero,
		MinTargetFraction:     c.DefaultMinTargetFraction,
		MaxWeeklyReductionPct: c.MaxWeeklyReductionPct,
		RequiresSpecialist:    c.RequiresSpecialist,
	}
}
