package dosing

import "fmt"

type CostLine struct {
	Product        string  `json:"product"`
	ProductNr      int     `json:"productNr"`
	PricePerBottle float64 `json:"pricePerBottle"`
	BottleCount    int     `json:"bottleCount"`
	TotalSprays    int     `json:"totalSprays"`
	TotalCost      float64 `json:"totalCost"`
	WeeksUsed      string  `json:"weeksUsed"`
	Weeks          []int   `json:"weeks"`
}

type Costs struct {
	Breakdown    []CostLine `json:"costBreakdown"`
	TotalCost    float64    `json:"totalCost"`
	TotalBottles int        `json:"totalBottles"`
	TotalSprays  int        `json:"totalSprays"`
}

// AggregateCosts replays the weekly assignments and counts a new bottle
// whenever the product changes or the current bottle cannot cover the week.
func AggregateCosts(weeks []WeeklyCbd, capacity int) Costs {
	lines := []*CostLine{}
	byNr := map[int]*CostLine{}

	var current *Product
	remaining := 0
	for _, w := range weeks {
		need := w.TotalSprays * DaysPerWeek
		line, ok := byNr[w.Product.Nr]
		if !ok {
			line = &CostLine{
				Product:        w.Product.Name,
				ProductNr:      w.Product.Nr,
				PricePerBottle: w.Product.Price,
			}
			byNr[w.Product.Nr] = line
			lines = append(lines, line)
		}
		if current == nil || current.Nr != w.Product.Nr || remaining < need {
			p := w.Product
			current = &p
			remaining = capacity
			line.BottleCount++
		}
		line.TotalSprays += need
		line.Weeks = append(line.Weeks, w.Week)
		remaining -= need
	}

	costs := Costs{Breakdown: make([]CostLine, 0, len(lines))}
	total := 0.0
	for _, line := range lines {
		cost := float64(line.BottleCount) * line.PricePerBottle
		total += cost
		line.TotalCost = round2(cost)
		line.WeeksUsed = fmt.Sprintf("%d-%d", line.Weeks[0], line.Weeks[len(line.Weeks)-1])
		costs.TotalBottles += line.BottleCount
		costs.TotalSprays += line.TotalSprays
		costs.Breakdown = append(costs.Breakdown, *line)
	}
	costs.TotalCost = round2(total)
	return costs
}
