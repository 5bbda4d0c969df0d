// Package fees computes billed amounts for management and parking fees.
//
// Every category is billed over its own inclusive month range. A reversed range
// bills zero months; correcting reversed input is the job of Range.WithStart and
// Range.WithEnd, never of Calculate.
package fees

import "github.com/hongminglow/jiahe-fees/internal/models"

// Span returns the inclusive number of months from start to end, or 0 when end
// precedes start.
func Span(start, end models.YearMonth) int {
	diff := (end.Year-start.Year)*12 + (end.Month - start.Month)
	if diff < 0 {
		return 0
	}
	return diff + 1
}

// Range is an inclusive billed period.
type Range struct {
	Start models.YearMonth `json:"start"`
	End   models.YearMonth `json:"end"`
}

// Months is Span(r.Start, r.End).
func (r Range) Months() int { return Span(r.Start, r.End) }

// Input holds everything the calculator looks at.
type Input struct {
	Management      Range               `json:"management"`
	Motorcycle      Range               `json:"motorcycle"`
	MotorcycleUnits models.ParkingUnits `json:"motorcycleUnits"`
	Car             Range               `json:"car"`
	CarUnits        models.ParkingUnits `json:"carUnits"`
}

// Breakdown is the billed amount per category.
type Breakdown struct {
	Management       int64 `json:"management"`
	Motorcycle       int64 `json:"motorcycle"`
	Car              int64 `json:"car"`
	Total            int64 `json:"total"`
	ManagementMonths int   `json:"managementMonths"`
	MotorcycleMonths int   `json:"motorcycleMonths"`
	CarMonths        int   `json:"carMonths"`
}

// Calculate bills in against rates. It is pure: identical inputs always produce
// identical outputs.
func Calculate(in Input, rates models.FeeConfig) Breakdown {
	b := Breakdown{
		ManagementMonths: in.Management.Months(),
		MotorcycleMonths: in.Motorcycle.Months(),
		CarMonths:        in.Car.Months(),
	}
	b.Management = rates.Management * int64(b.ManagementMonths)
	b.Motorcycle = monthlyParking(in.MotorcycleUnits, rates.Motorcycle) * int64(b.MotorcycleMonths)
	b.Car = monthlyParking(in.CarUnits, rates.Car) * int64(b.CarMonths)
	b.Total = b.Management + b.Motorcycle + b.Car
	return b
}

func monthlyParking(units models.ParkingUnits, rates models.TierRates) int64 {
	return int64(units.SmallCount)*rates.Small + int64(units.LargeCount)*rates.Large
}
