package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jiahe-fees/internal/models"
)

func TestSpan(t *testing.T) {
	cases := []struct {
		name       string
		start, end models.YearMonth
		want       int
	}{
		{"same month", models.YM(2024, 1), models.YM(2024, 1), 1},
		{"quarter", models.YM(2024, 1), models.YM(2024, 3), 3},
		{"across year", models.YM(2023, 11), models.YM(2024, 2), 4},
		{"full year", models.YM(2024, 1), models.YM(2024, 12), 12},
		{"reversed", models.YM(2024, 6), models.YM(2024, 1), 0},
		{"reversed across year", models.YM(2025, 1), models.YM(2024, 12), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Span(tc.start, tc.end))
		})
	}
}

func TestSpanMatchesFormulaForOrderedRanges(t *testing.T) {
	for sy := 2020; sy <= 2022; sy++ {
		for sm := 1; sm <= 12; sm++ {
			for ey := sy; ey <= 2023; ey++ {
				for em := 1; em <= 12; em++ {
					start, end := models.YM(sy, sm), models.YM(ey, em)
					got := Span(start, end)
					if end.Before(start) {
						require.Zero(t, got, "%s..%s", start, end)
						continue
					}
					want := (ey-sy)*12 + (em - sm) + 1
					require.Equal(t, want, got, "%s..%s", start, end)
					require.GreaterOrEqual(t, got, 1)
				}
			}
		}
	}
}

func TestCalculateResidentExample(t *testing.T) {
	in := Input{
		Management:      SingleMonth(models.YM(2024, 1)),
		Motorcycle:      Range{Start: models.YM(2024, 1), End: models.YM(2024, 3)},
		MotorcycleUnits: models.ParkingUnits{SmallCount: 1},
		Car:             SingleMonth(models.YM(2024, 1)),
	}

	got := Calculate(in, models.DefaultFeeConfig())

	assert.Equal(t, int64(800), got.Management)
	assert.Equal(t, 1, got.ManagementMonths)
	assert.Equal(t, int64(300), got.Motorcycle)
	assert.Equal(t, 3, got.MotorcycleMonths)
	assert.Equal(t, int64(0), got.Car)
	assert.Equal(t, int64(1100), got.Total)
}

func TestCalculateReversedRangeBillsNothing(t *testing.T) {
	in := Input{
		Management: Range{Start: models.YM(2024, 6), End: models.YM(2024, 1)},
		Car:        Range{Start: models.YM(2024, 6), End: models.YM(2024, 1)},
		CarUnits:   models.ParkingUnits{SmallCount: 2, LargeCount: 1},
	}

	got := Calculate(in, models.DefaultFeeConfig())

	assert.Zero(t, got.ManagementMonths)
	assert.Zero(t, got.Management)
	assert.Zero(t, got.CarMonths)
	assert.Zero(t, got.Car)
	assert.Zero(t, got.Total)
}

func TestCalculateMixedTiers(t *testing.T) {
	rates := models.FeeConfig{
		Management: 1000,
		Motorcycle: models.TierRates{Small: 150, Large: 250},
		Car:        models.TierRates{Small: 1500, Large: 2000},
	}
	year := Range{Start: models.YM(2024, 1), End: models.YM(2024, 12)}
	in := Input{
		Management:      year,
		Motorcycle:      year,
		MotorcycleUnits: models.ParkingUnits{SmallCount: 2, LargeCount: 1},
		Car:             Range{Start: models.YM(2024, 7), End: models.YM(2024, 12)},
		CarUnits:        models.ParkingUnits{LargeCount: 1},
	}

	got := Calculate(in, rates)

	assert.Equal(t, int64(12000), got.Management)
	assert.Equal(t, int64((2*150+250)*12), got.Motorcycle)
	assert.Equal(t, int64(2000*6), got.Car)
	assert.Equal(t, got.Management+got.Motorcycle+got.Car, got.Total)
}

func TestCalculateIsDeterministic(t *testing.T) {
	in := Input{
		Management:      Range{Start: models.YM(2024, 3), End: models.YM(2024, 8)},
		Motorcycle:      Range{Start: models.YM(2024, 3), End: models.YM(2024, 5)},
		MotorcycleUnits: models.ParkingUnits{LargeCount: 2},
	}
	rates := models.DefaultFeeConfig()
	require.Equal(t, Calculate(in, rates), Calculate(in, rates))
}
