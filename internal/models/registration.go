package models

import "time"

// ApprovalStatus is the lifecycle state of an address registration.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// StaffClaim is the resident id sentinel for a request to join the gatekeeper tier.
const StaffClaim = "STAFF"

// AddressRegistration is a user's claim on a resident unit or on the staff role.
type AddressRegistration struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	ResidentID  string         `json:"residentId"`
	Status      ApprovalStatus `json:"status"`
	RequestedAt time.Time      `json:"requestedAt"`
	ApprovedBy  string         `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time     `json:"approvedAt,omitempty"`
}

// IsStaffClaim reports whether the registration asks for the staff role.
func (r AddressRegistration) IsStaffClaim() bool { return r.ResidentID == StaffClaim }
