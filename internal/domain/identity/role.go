package identity

import (
	"strings"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// Role is the closed set of staff roles a pharmacy user can hold.
// Roles are ordered: every role can do what the roles below it can.
type Role string

const (
	RoleCashier    Role = "CASHIER"
	RolePharmacist Role = "PHARMACIST"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
)

var roleRank = map[Role]int{
	RoleCashier:    1,
	RolePharmacist: 2,
	RoleManager:    3,
	RoleAdmin:      4,
}

// ParseRole converts a claim value into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewValidationError("unknown role: " + s)
	}
	return r, nil
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min
func (r Role) AtLeast(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[min]
}

// String returns the role code
func (r Role) String() string {
	return string(r)
}

// Action is a capability checked before a use case opens its transaction.
// Codes follow the resource:action pattern.
type Action string

const (
	ActionCreateSale     Action = "sale:create"
	ActionCancelSale     Action = "sale:cancel"
	ActionViewSale       Action = "sale:read"
	ActionRecordMovement Action = "stock:record_movement"
	ActionAdjustStock    Action = "stock:adjust"
	ActionViewInventory  Action = "stock:read"
	ActionViewReports    Action = "report:read"
)

// minimumRole maps every action to the lowest role allowed to perform it
var minimumRole = map[Action]Role{
	ActionCreateSale:     RoleCashier,
	ActionViewSale:       RoleCashier,
	ActionViewInventory:  RoleCashier,
	ActionViewReports:    RoleCashier,
	ActionRecordMovement: RolePharmacist,
	ActionAdjustStock:    RolePharmacist,
	ActionCancelSale:     RoleManager,
}

// CanPerform reports whether role may perform action. Unknown roles and
// unknown actions are denied.
func CanPerform(role Role, action Action) bool {
	min, ok := minimumRole[action]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}
