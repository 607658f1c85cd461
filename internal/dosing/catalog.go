package dosing

import "math"

// BottleCapacity is the number of sprays in one 10ml bottle.
const BottleCapacity = 100

const (
	DefaultWeightKg     = 70.0
	StartMgPerKg        = 0.5
	EndMgPerKg          = 1.0
	OverdoseTolerance   = 1.10
	MaxSpraysPerIntake  = 6
	MaxSpraysPerDay     = 12
	MorningShare        = 0.4
	DaysPerWeek         = 7
	MaxMedications      = 10
	MaxDurationWeeks    = 52
	DefaultReductionPct = 50.0
)

type Product struct {
	Nr         int     `json:"nr"`
	MgPerSpray float64 `json:"cbdPerSpray"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

// Catalog is ordered by ascending concentration.
type Catalog []Product

var DefaultCatalog = Catalog{
	{Nr: 5, MgPerSpray: 5.8, Name: "MEDLESS Nr. 5", Price: 24.90},
	{Nr: 10, MgPerSpray: 11.5, Name: "MEDLESS Nr. 10", Price: 39.90},
	{Nr: 15, MgPerSpray: 17.5, Name: "MEDLESS Nr. 15", Price: 59.90},
	{Nr: 20, MgPerSpray: 23.2, Name: "MEDLESS Nr. 20", Price: 79.90},
	{Nr: 25, MgPerSpray: 29.0, Name: "MEDLESS Nr. 25", Price: 99.90},
}

func (c Catalog) ByNr(nr int) (Product, bool) {
	for _, p := range c {
		if p.Nr == nr {
			return p, true
		}
	}
	return Product{}, false
}

func (p Product) spraysFor(targetMg float64) int {
	n := int(math.Ceil(targetMg / p.MgPerSpray))
	if n < 1 {
		n = 1
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
