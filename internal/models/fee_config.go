package models

import "time"

// TierRates are monthly fees per parking space size.
type TierRates struct {
	Small int64 `json:"small"`
	Large int64 `json:"large"`
}

// FeeConfig is the community-wide rate table.
type FeeConfig struct {
	Management     int64      `json:"management"`
	Motorcycle     TierRates  `json:"motorcycle"`
	Car            TierRates  `json:"car"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty"`
	LastModifiedAt *time.Time `json:"lastModifiedAt,omitempty"`
}

// DefaultFeeConfig is used until a manager saves a rate table.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		Management: 800,
		Motorcycle: TierRates{Small: 100, Large: 200},
		Car:        TierRates{Small: 1200, Large: 1800},
	}
}
