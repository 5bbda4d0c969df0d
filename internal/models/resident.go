package models

// ParkingTier is the summarised parking size held by a resident.
type ParkingTier string

const (
	ParkingNone  ParkingTier = "none"
	ParkingSmall ParkingTier = "small"
	ParkingLarge ParkingTier = "large"
)

// ParkingUnits counts rented spaces per size tier.
type ParkingUnits struct {
	SmallCount int `json:"smallCount"`
	LargeCount int `json:"largeCount"`
}

// Total returns the number of spaces regardless of tier.
func (p ParkingUnits) Total() int { return p.SmallCount + p.LargeCount }

// Tier returns the largest tier in use.
func (p ParkingUnits) Tier() ParkingTier {
	switch {
	case p.LargeCount > 0:
		return ParkingLarge
	case p.SmallCount > 0:
		return ParkingSmall
	default:
		return ParkingNone
	}
}

// ParkingConfig is the last parking setup used for a resident.
type ParkingConfig struct {
	Moto ParkingUnits `json:"moto"`
	Car  ParkingUnits `json:"car"`
}

// Period is an inclusive billed range of months.
type Period struct {
	Prev YearMonth `json:"prev"`
	Next YearMonth `json:"next"`
}

// PaymentPeriods holds the billed range per fee category.
type PaymentPeriods struct {
	Mgmt Period `json:"mgmt"`
	Moto Period `json:"moto"`
	Car  Period `json:"car"`
}

// Resident is one household unit: an address number on a floor.
type Resident struct {
	ID                 string          `json:"id"`
	AddressNumber      string          `json:"addressNumber"`
	Floor              int             `json:"floor"`
	MotorcycleParking  ParkingTier     `json:"motorcycleParking"`
	MotorcycleCount    int             `json:"motorcycleCount"`
	CarParking         ParkingTier     `json:"carParking"`
	CarCount           int             `json:"carCount"`
	LastParkingConfig  *ParkingConfig  `json:"lastParkingConfig,omitempty"`
	LastPaymentPeriods *PaymentPeriods `json:"lastPaymentPeriods,omitempty"`
}
