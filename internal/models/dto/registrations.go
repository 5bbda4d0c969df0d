package dto

// ClaimRequest asks for a unit (address number + floor) or, with Staff set, for
// the gatekeeper role.
type ClaimRequest struct {
	AddressNumber string `json:"addressNumber"`
	Floor         int    `json:"floor" validate:"min=0"`
	Staff         bool   `json:"staff"`
}
