package dto

import (
	"fmt"

	"github.com/hongminglow/jiahe-fees/internal/billing"
	"github.com/hongminglow/jiahe-fees/internal/fees"
	"github.com/hongminglow/jiahe-fees/internal/models"
)

// RangeRequest is an inclusive billed range in "YYYY-MM" form.
type RangeRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

func (r RangeRequest) toRange() (fees.Range, error) {
	start, err := models.ParseYearMonth(r.Start)
	if err != nil {
		return fees.Range{}, err
	}
	end, err := models.ParseYearMonth(r.End)
	if err != nil {
		return fees.Range{}, err
	}
	return fees.Range{Start: start, End: end}, nil
}

type UnitsRequest struct {
	Small int `json:"small" validate:"min=0"`
	Large int `json:"large" validate:"min=0"`
}

func (u UnitsRequest) toUnits() models.ParkingUnits {
	return models.ParkingUnits{SmallCount: u.Small, LargeCount: u.Large}
}

// PaymentRequest is the body of both the quote and the confirm endpoints.
// Override only matters when confirming.
type PaymentRequest struct {
	ResidentID      string       `json:"residentId" validate:"required"`
	Management      RangeRequest `json:"management"`
	Motorcycle      RangeRequest `json:"motorcycle"`
	MotorcycleUnits UnitsRequest `json:"motorcycleUnits"`
	Car             RangeRequest `json:"car"`
	CarUnits        UnitsRequest `json:"carUnits"`
	Override        bool         `json:"override"`
}

// Form converts the request into a billing form.
func (p PaymentRequest) Form() (billing.Form, error) {
	mgmt, err := p.Management.toRange()
	if err != nil {
		return billing.Form{}, fmt.Errorf("management: %w", err)
	}
	moto, err := p.Motorcycle.toRange()
	if err != nil {
		return billing.Form{}, fmt.Errorf("motorcycle: %w", err)
	}
	car, err := p.Car.toRange()
	if err != nil {
		return billing.Form{}, fmt.Errorf("car: %w", err)
	}
	return billing.Form{
		ResidentID:      p.ResidentID,
		Management:      mgmt,
		Motorcycle:      moto,
		MotorcycleUnits: p.MotorcycleUnits.toUnits(),
		Car:             car,
		CarUnits:        p.CarUnits.toUnits(),
	}, nil
}

type QuoteResponse struct {
	Breakdown fees.Breakdown `json:"breakdown"`
	Locked    bool           `json:"locked"`
}

type TierRatesRequest struct {
	Small int64 `json:"small" validate:"min=0"`
	Large int64 `json:"large" validate:"min=0"`
}

type FeeConfigRequest struct {
	Management int64            `json:"management" validate:"min=0"`
	Motorcycle TierRatesRequest `json:"motorcycle"`
	Car        TierRatesRequest `json:"car"`
}

// Config converts the request into a rate table.
func (f FeeConfigRequest) Config() models.FeeConfig {
	return models.FeeConfig{
		Management: f.Management,
		Motorcycle: models.TierRates{Small: f.Motorcycle.Small, Large: f.Motorcycle.Large},
		Car:        models.TierRates{Small: f.Car.Small, Large: f.Car.Large},
	}
}
