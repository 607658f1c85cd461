package dosing

import "math"

// BodyMetrics are optional; zero values mean "not supplied".
type BodyMetrics struct {
	Age      int     `json:"age,omitempty"`
	WeightKg float64 `json:"weight,omitempty"`
	HeightCm float64 `json:"height,omitempty"`
	Gender   string  `json:"gender,omitempty"`
}

func (b BodyMetrics) hasWeightAndHeight() bool {
	return b.WeightKg > 0 && b.HeightCm > 0
}

// EffectiveWeight falls back to DefaultWeightKg when no weight is known.
func (b BodyMetrics) EffectiveWeight() float64 {
	if b.WeightKg > 0 {
		return b.WeightKg
	}
	return DefaultWeightKg
}

// BMI is rounded to one decimal, like the value shown to the patient.
func (b BodyMetrics) BMI() (float64, bool) {
	if !b.hasWeightAndHeight() {
		return 0, false
	}
	m := b.HeightCm / 100
	return round1(b.WeightKg / (m * m)), true
}

// BSA uses the Mosteller formula.
func (b BodyMetrics) BSA() (float64, bool) {
	if !b.hasWeightAndHeight() {
		return 0, false
	}
	return round2(math.Sqrt(b.HeightCm * b.WeightKg / 3600)), true
}

// IdealWeight uses the Devine formula and is only defined for male and
// female.
func (b BodyMetrics) IdealWeight() (float64, bool) {
	if !b.hasWeightAndHeight() {
		return 0, false
	}
	switch b.Gender {
	case "male":
		return round1(50 + 0.9*(b.HeightCm-152)), true
	case "female":
		return round1(45.5 + 0.9*(b.HeightCm-152)), true
	default:
		return 0, false
	}
}
