package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jiahe-fees/internal/models"
)

func userWith(role models.Role, addresses ...string) *models.User {
	return &models.User{ID: "user-" + string(role), Role: role, RegisteredAddresses: addresses}
}

func TestHasPermissionNoInheritance(t *testing.T) {
	admin := userWith(models.RoleAdmin)
	assert.True(t, HasPermission(admin, models.RoleAdmin))
	assert.False(t, HasPermission(admin, models.RoleGatekeeper), "admin does not inherit KEEP-only grants")
	assert.False(t, HasPermission(nil, models.AllRoles...))
	assert.False(t, HasPermission(userWith(models.RoleExternal)))
}

func TestCanAccessResident(t *testing.T) {
	for _, role := range models.StaffRoles {
		assert.True(t, CanAccessResident(userWith(role), "23-3-10"), role)
	}
	ext := userWith(models.RoleExternal, "13-5", "21-2-3")
	assert.True(t, CanAccessResident(ext, "13-5"))
	assert.True(t, CanAccessResident(ext, "21-2-3"))
	assert.False(t, CanAccessResident(ext, "13-6"))
	assert.False(t, CanAccessResident(nil, "13-5"))
	assert.False(t, CanAccessResident(&models.User{Role: "GUEST", RegisteredAddresses: []string{"13-5"}}, "13-5"))
}

func TestCapabilityTable(t *testing.T) {
	cases := []struct {
		action  Action
		allowed []models.Role
	}{
		{ActionEditFeeConfig, []models.Role{models.RoleManager, models.RoleAdmin}},
		{ActionDeletePayment, []models.Role{models.RoleManager, models.RoleAdmin}},
		{ActionOverridePayment, []models.Role{models.RoleManager, models.RoleAdmin}},
		{ActionRecordPayment, []models.Role{models.RoleGatekeeper, models.RoleManager, models.RoleAdmin}},
		{ActionReviewRegistrations, []models.Role{models.RoleGatekeeper, models.RoleManager, models.RoleAdmin}},
		{ActionManageUsers, []models.Role{models.RoleAdmin}},
		{ActionSubmitRegistration, []models.Role{models.RoleExternal}},
	}
	for _, tc := range cases {
		for _, role := range models.AllRoles {
			want := false
			for _, a := range tc.allowed {
				if a == role {
					want = true
				}
			}
			assert.Equal(t, want, Authorize(userWith(role), tc.action), "%s as %s", tc.action, role)
		}
	}
	assert.False(t, Authorize(userWith(models.RoleAdmin), Action("launch_rockets")))
	assert.False(t, Authorize(nil, ActionViewResident))
}

func TestRequireResident(t *testing.T) {
	ext := userWith(models.RoleExternal, "13-5")
	assert.NoError(t, RequireResident(ext, ActionPrintReceipt, "13-5"))
	assert.ErrorIs(t, RequireResident(ext, ActionPrintReceipt, "13-6"), ErrForbidden)
	assert.ErrorIs(t, RequireResident(ext, ActionRecordPayment, "13-5"), ErrForbidden)
	assert.NoError(t, RequireResident(userWith(models.RoleGatekeeper), ActionRecordPayment, "13-6"))
}

func TestVisibleResidents(t *testing.T) {
	ext := userWith(models.RoleExternal, "15-2")
	ids := []string{"13-1", "15-2", "17-3"}
	self := func(id string) string { return id }

	assert.Equal(t, []string{"15-2"}, VisibleResidents(ext, ids, self))
	assert.Len(t, VisibleResidents(userWith(models.RoleManager), ids, self), 3)
	assert.NotNil(t, VisibleResidents(userWith(models.RoleExternal), ids, self))
	assert.Empty(t, VisibleResidents(nil, ids, self))
}

func TestRolesForReturnsCopy(t *testing.T) {
	roles := RolesFor(ActionManageUsers)
	roles[0] = models.RoleExternal
	assert.Equal(t, []models.Role{models.RoleAdmin}, RolesFor(ActionManageUsers))
}

func TestRequireNamesAllowedRoles(t *testing.T) {
	err := Require(userWith(models.RoleGatekeeper), ActionDeletePayment)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "delete_payment")
	assert.Contains(t, err.Error(), "[MGR ADMIN]")
}
