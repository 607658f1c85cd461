package dosing

import "fmt"

const (
	BenzoOpioidFactor = 0.5
	SeniorFactor      = 0.8
	UnderweightFactor = 0.85
	ObeseFactor       = 1.1
	SeniorAge         = 65
	UnderweightBMI    = 18.5
	ObeseBMI          = 30.0
)

type Adjustment struct {
	Reason string  `json:"reason"`
	Factor float64 `json:"factor"`
}

type Progression struct {
	StartMg        float64
	EndMg          float64
	WeeklyIncrease float64
	Weeks          int
	BenzoOrOpioid  bool
	Adjustments    []Adjustment
	Notes          []string
}

// PlanProgression derives the CBD ramp from body weight and applies the
// start dose safety factors in a fixed order.
func PlanProgression(body BodyMetrics, meds []Medication, weeks int, clf Classifier) Progression {
	weight := body.EffectiveWeight()
	p := Progression{
		StartMg: weight * StartMgPerKg,
		EndMg:   weight * EndMgPerKg,
		Weeks:   weeks,
		Notes:   []string{},
	}

	for _, m := range meds {
		if clf.Classify(m).BenzoOrOpioid {
			p.BenzoOrOpioid = true
			break
		}
	}

	if p.BenzoOrOpioid {
		p.Notes = append(p.Notes, "Benzodiazepines or opioids detected: CBD start dose is halved (safety rule)")
		p.apply("benzodiazepine/opioid", BenzoOpioidFactor)
		p.Notes = append(p.Notes, fmt.Sprintf("CBD start dose reduced to %.1f mg/day (safety)", round1(p.StartMg)))
	}
	if body.Age >= SeniorAge {
		p.apply("age 65+", SeniorFactor)
		p.Notes = append(p.Notes, "CBD dose adjusted for seniors (65+)")
	}
	if bmi, ok := body.BMI(); ok {
		switch {
		case bmi < UnderweightBMI:
			p.apply("underweight (BMI < 18.5)", UnderweightFactor)
			p.Notes = append(p.Notes, "CBD dose adjusted: underweight (BMI < 18.5)")
		case bmi > ObeseBMI:
			p.apply("overweight (BMI > 30)", ObeseFactor)
			p.Notes = append(p.Notes, "CBD dose adjusted: overweight (BMI > 30)")
		}
	}

	if p.StartMg > p.EndMg {
		p.StartMg = p.EndMg
	}
	p.WeeklyIncrease = (p.EndMg - p.StartMg) / float64(weeks)
	return p
}

func (p *Progression) apply(reason string, factor float64) {
	p.StartMg *= factor
	p.Adjustments = append(p.Adjustments, Adjustment{Reason: reason, Factor: factor})
}

func (p Progression) WeekMg(week int) float64 {
	return p.StartMg + p.WeeklyIncrease*float64(week-1)
}

// Targets returns the target mg for weeks 1..Weeks.
func (p Progression) Targets() []float64 {
	out := make([]float64, p.Weeks)
	for w := 1; w <= p.Weeks; w++ {
		out[w-1] = p.WeekMg(w)
	}
	return out
}
