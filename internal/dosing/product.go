package dosing

import "math"

type Fallback string

const (
	FallbackNone             Fallback = ""
	FallbackToleranceRelaxed Fallback = "tolerance_relaxed"
	FallbackDoseTooHigh      Fallback = "dose_too_high"
)

type Selection struct {
	Product       Product
	TotalSprays   int
	MorningSprays int
	EveningSprays int
	ActualMg      float64
	Fallback      Fallback
}

func splitSprays(total int) (morning, evening int) {
	morning = int(math.Floor(float64(total) * MorningShare))
	if morning < 1 {
		morning = 1
	}
	if morning > total {
		morning = total
	}
	return morning, total - morning
}

func dose(p Product, targetMg float64) Selection {
	total := p.spraysFor(targetMg)
	morning, evening := splitSprays(total)
	return Selection{
		Product:       p,
		TotalSprays:   total,
		MorningSprays: morning,
		EveningSprays: evening,
		ActualMg:      float64(total) * p.MgPerSpray,
	}
}

func (s Selection) withinIntakeCap() bool {
	return s.MorningSprays <= MaxSpraysPerIntake && s.EveningSprays <= MaxSpraysPerIntake
}

// SelectProduct picks the product with the fewest daily sprays that stays
// within the overdose tolerance and the per-intake cap. Ties go to the lower
// tier. When nothing qualifies the result carries a Fallback reason.
func SelectProduct(catalog Catalog, targetMg float64) Selection {
	var best *Selection
	for _, p := range catalog {
		s := dose(p, targetMg)
		if s.ActualMg <= targetMg*OverdoseTolerance && s.withinIntakeCap() &&
			(best == nil || s.TotalSprays < best.TotalSprays) {
			best = &s
		}
	}
	if best != nil {
		return *best
	}

	// Spray granularity: the smallest overshoot that respects the cap.
	for _, p := range catalog {
		s := dose(p, targetMg)
		if !s.withinIntakeCap() {
			continue
		}
		if best == nil || s.ActualMg < best.ActualMg ||
			(s.ActualMg == best.ActualMg && s.TotalSprays < best.TotalSprays) {
			best = &s
		}
	}
	if best != nil {
		best.Fallback = FallbackToleranceRelaxed
		return *best
	}

	s := dose(catalog[len(catalog)-1], targetMg)
	s.Fallback = FallbackDoseTooHigh
	return s
}
