package dosing

import "fmt"

type BottleStatus struct {
	Number         int  `json:"bottleNumber"`
	NewBottle      bool `json:"newBottle"`
	Used           int  `json:"used"`
	Remaining      int  `json:"remaining"`
	TotalCapacity  int  `json:"totalCapacity"`
	EmptyInWeeks   int  `json:"emptyInWeeks"`
	SwitchNextWeek bool `json:"productChangeNext"`
}

type WeeklyCbd struct {
	Week          int
	TargetMg      float64
	Product       Product
	MorningSprays int
	EveningSprays int
	TotalSprays   int
	ActualMg      float64
	Fallback      Fallback
	Bottle        BottleStatus
}

// BottleState is the tracker state between two weeks.
type BottleState struct {
	Product   Product
	Remaining int
	Used      int
	Number    int
}

// Tracker simulates bottle consumption week by week so the patient only
// changes product or bottle when it is actually needed.
type Tracker struct {
	Catalog  Catalog
	Capacity int
}

func NewTracker(catalog Catalog) Tracker {
	return Tracker{Catalog: catalog, Capacity: BottleCapacity}
}

func (t Tracker) Start(targetMg float64) BottleState {
	sel := SelectProduct(t.Catalog, targetMg)
	return BottleState{Product: sel.Product, Remaining: t.Capacity, Number: 1}
}

// Advance consumes one week of sprays and returns the new state. The input
// state is not modified.
func (t Tracker) Advance(state BottleState, week int, targetMg float64) (BottleState, WeeklyCbd, error) {
	sel := dose(state.Product, targetMg)
	short := state.Remaining < sel.TotalSprays*DaysPerWeek
	overCap := sel.TotalSprays > MaxSpraysPerDay

	next := state
	if short || overCap {
		sel = SelectProduct(t.Catalog, targetMg)
		if short || sel.Product.Nr != state.Product.Nr {
			number := state.Number + 1
			if state.Used == 0 {
				number = state.Number
			}
			next = BottleState{Product: sel.Product, Remaining: t.Capacity, Number: number}
		}
	}

	if sel.Fallback == FallbackNone {
		sel.Fallback = t.fallbackFor(sel, targetMg)
	}

	need := sel.TotalSprays * DaysPerWeek
	if need > next.Remaining {
		return state, WeeklyCbd{}, fmt.Errorf("week %d needs %d sprays from a %d spray bottle: %w", week, need, t.Capacity, ErrDoseTooHigh)
	}
	fresh := next.Used == 0
	next.Remaining -= need
	next.Used += need

	return next, WeeklyCbd{
		Week:          week,
		TargetMg:      targetMg,
		Product:       sel.Product,
		MorningSprays: sel.MorningSprays,
		EveningSprays: sel.EveningSprays,
		TotalSprays:   sel.TotalSprays,
		ActualMg:      sel.ActualMg,
		Fallback:      sel.Fallback,
		Bottle: BottleStatus{
			Number:        next.Number,
			NewBottle:     fresh,
			Used:          next.Used,
			Remaining:     next.Remaining,
			TotalCapacity: t.Capacity,
			EmptyInWeeks:  next.Remaining / sel.TotalSprays / DaysPerWeek,
		},
	}, nil
}

// fallbackFor flags a dose that breaks the selection limits. A kept bottle
// can overshoot the target or the per-intake cap.
func (t Tracker) fallbackFor(sel Selection, targetMg float64) Fallback {
	if sel.ActualMg <= targetMg*OverdoseTolerance && sel.withinIntakeCap() {
		return FallbackNone
	}
	if fb := SelectProduct(t.Catalog, targetMg).Fallback; fb != FallbackNone {
		return fb
	}
	return FallbackToleranceRelaxed
}

// Track runs the tracker over the weekly targets. Each week's
// SwitchNextWeek reports whether the following week opens a new bottle.
func (t Tracker) Track(targets []float64) ([]WeeklyCbd, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	state := t.Start(targets[0])
	out := make([]WeeklyCbd, 0, len(targets))
	for i, target := range targets {
		next, wk, err := t.Advance(state, i+1, target)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			out[i-1].Bottle.SwitchNextWeek = wk.Bottle.NewBottle
		}
		out = append(out, wk)
		state = next
	}
	return out, nil
}
