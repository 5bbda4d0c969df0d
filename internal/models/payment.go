package models

import (
	"fmt"
	"time"
)

// PaymentKey is the natural key of a payment record.
type PaymentKey struct {
	ResidentID string
	Year       int
	Month      int
}

func (k PaymentKey) String() string {
	return fmt.Sprintf("%s@%04d-%02d", k.ResidentID, k.Year, k.Month)
}

// PaymentRecord is one billing transaction for one resident. Year and Month are
// taken from the management-fee period start.
type PaymentRecord struct {
	ResidentID    string    `json:"residentId"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	ManagementFee int64     `json:"managementFee"`
	MotorcycleFee int64     `json:"motorcycleFee"`
	CarFee        int64     `json:"carFee"`
	Total         int64     `json:"total"`
	PaidAt        time.Time `json:"paidAt"`

	PrevManagementStart string `json:"prevManagementStart"`
	PrevMotorcycleStart string `json:"prevMotorcycleStart"`
	PrevCarStart        string `json:"prevCarStart"`
	NextManagementStart string `json:"nextManagementStart"`
	NextMotorcycleStart string `json:"nextMotorcycleStart"`
	NextCarStart        string `json:"nextCarStart"`
}

// Key returns the record's natural key.
func (p PaymentRecord) Key() PaymentKey {
	return PaymentKey{ResidentID: p.ResidentID, Year: p.Year, Month: p.Month}
}

// ManagementPeriod parses the management-fee boundaries.
func (p PaymentRecord) ManagementPeriod() (Period, error) {
	prev, err := ParseYearMonth(p.PrevManagementStart)
	if err != nil {
		return Period{}, err
	}
	next, err := ParseYearMonth(p.NextManagementStart)
	if err != nil {
		return Period{}, err
	}
	return Period{Prev: prev, Next: next}, nil
}
