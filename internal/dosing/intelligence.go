package dosing

const (
	SpeedVerySlow       = "very slow"
	SpeedModerate       = "moderate"
	SpeedRelativelyFast = "relatively fast"
)

type Intelligence struct {
	OverallStartLoad              float64  `json:"overallStartLoad"`
	OverallEndLoad                float64  `json:"overallEndLoad"`
	TotalLoadReductionPct         float64  `json:"totalLoadReductionPct"`
	AvgReductionSpeedPct          float64  `json:"avgReductionSpeedPct"`
	ReductionSpeedCategory        string   `json:"reductionSpeedCategory"`
	WeeksToCbdTarget              *float64 `json:"weeksToCbdTarget"`
	CannabinoidIncreasePctPerWeek *float64 `json:"cannabinoidIncreasePctPerWeek"`
	TotalMedicationCount          int      `json:"totalMedicationCount"`
	SensitiveMedCount             int      `json:"sensitiveMedCount"`
}

func summarize(in Input, schedules []ReductionSchedule, prog Progression, clf Classifier) Intelligence {
	var start, end, speed float64
	for _, s := range schedules {
		start += s.StartMg
		end += s.TargetMg
		speed += s.SpeedPct()
	}
	if len(schedules) > 0 {
		speed /= float64(len(schedules))
	}

	out := Intelligence{
		OverallStartLoad:       round1(start),
		OverallEndLoad:         round1(end),
		AvgReductionSpeedPct:   round1(speed),
		ReductionSpeedCategory: speedCategory(speed),
		TotalMedicationCount:   len(in.Medications),
	}
	if start > 0 {
		out.TotalLoadReductionPct = round1((start - end) / start * 100)
	}
	if prog.WeeklyIncrease > 0 {
		w := round1((prog.EndMg - prog.StartMg) / prog.WeeklyIncrease)
		out.WeeksToCbdTarget = &w
	}
	if prog.StartMg > 0 {
		pct := round1(prog.WeeklyIncrease / prog.StartMg * 100)
		out.CannabinoidIncreasePctPerWeek = &pct
	}
	for _, m := range in.Medications {
		if clf.Classify(m).Sensitive {
			out.SensitiveMedCount++
		}
	}
	return out
}

func speedCategory(pct float64) string {
	switch {
	case pct < 2:
		return SpeedVerySlow
	case pct > 5:
		return SpeedRelativelyFast
	default:
		return SpeedModerate
	}
}
