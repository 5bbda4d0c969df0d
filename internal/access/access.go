// Package access decides who may do what. Every gated action lists its roles
// explicitly; a role never inherits another role's permissions.
package access

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hongminglow/jiahe-fees/internal/models"
)

// ErrForbidden is returned when the actor lacks the capability or row access.
var ErrForbidden = errors.New("forbidden")

// Action identifies a gated capability.
type Action string

const (
	ActionViewResident        Action = "view_resident"
	ActionRecordPayment       Action = "record_payment"
	ActionOverridePayment     Action = "override_payment"
	ActionDeletePayment       Action = "delete_payment"
	ActionViewRecentPayments  Action = "view_recent_payments"
	ActionEditFeeConfig       Action = "edit_fee_config"
	ActionReviewRegistrations Action = "review_registrations"
	ActionApproveStaffClaim   Action = "approve_staff_claim"
	ActionSubmitRegistration  Action = "submit_registration"
	ActionManageUsers         Action = "manage_users"
	ActionExportReport        Action = "export_report"
	ActionPrintReceipt        Action = "print_receipt"
)

var (
	everyone     = []models.Role{models.RoleExternal, models.RoleGatekeeper, models.RoleManager, models.RoleAdmin}
	staff        = []models.Role{models.RoleGatekeeper, models.RoleManager, models.RoleAdmin}
	managers     = []models.Role{models.RoleManager, models.RoleAdmin}
	adminsOnly   = []models.Role{models.RoleAdmin}
	externalOnly = []models.Role{models.RoleExternal}
)

// capabilities is the single table mapping actions to the roles allowed to run them.
var capabilities = map[Action][]models.Role{
	ActionViewResident:        everyone,
	ActionRecordPayment:       staff,
	ActionOverridePayment:     managers,
	ActionDeletePayment:       managers,
	ActionViewRecentPayments:  managers,
	ActionEditFeeConfig:       managers,
	ActionReviewRegistrations: staff,
	ActionApproveStaffClaim:   managers,
	ActionSubmitRegistration:  externalOnly,
	ActionManageUsers:         adminsOnly,
	ActionExportReport:        staff,
	ActionPrintReceipt:        everyone,
}

// RolesFor returns the roles allowed to perform action. Unknown actions allow nobody.
func RolesFor(action Action) []models.Role {
	return slices.Clone(capabilities[action])
}

// HasPermission reports whether user exists and holds one of allowed.
func HasPermission(user *models.User, allowed ...models.Role) bool {
	if user == nil {
		return false
	}
	return slices.Contains(allowed, user.Role)
}

// Authorize reports whether user may perform action.
func Authorize(user *models.User, action Action) bool {
	return HasPermission(user, capabilities[action]...)
}

// Require is Authorize returning ErrForbidden on refusal. The error names the
// roles that would have been allowed.
func Require(user *models.User, action Action) error {
	if !Authorize(user, action) {
		return fmt.Errorf("%w: %s requires one of %v", ErrForbidden, action, RolesFor(action))
	}
	return nil
}

// CanAccessResident applies the row rule: staff see every resident, EXT users
// only the residents granted to them.
func CanAccessResident(user *models.User, residentID string) bool {
	if user == nil {
		return false
	}
	if user.Role.IsStaff() {
		return true
	}
	if user.Role == models.RoleExternal {
		return user.HasAddress(residentID)
	}
	return false
}

// RequireResident combines an action check with the resident row rule.
func RequireResident(user *models.User, action Action, residentID string) error {
	if !Authorize(user, action) || !CanAccessResident(user, residentID) {
		return ErrForbidden
	}
	return nil
}

// VisibleResidents keeps the items whose resident user may see. idOf names the
// resident of an item. The result is never nil.
func VisibleResidents[T any](user *models.User, items []T, idOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if CanAccessResident(user, idOf(item)) {
			out = append(out, item)
		}
	}
	return out
}
