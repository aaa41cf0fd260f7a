package auth

import (
	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/model"
)

// Role groups used by privileged handlers.
var (
	CashierGroup = []model.Role{model.RoleCashier, model.RoleManager, model.RoleOwner}
	OwnerGroup   = []model.Role{model.RoleOwner}
)

// Authorize returns a Forbidden error unless p holds one of roles.
func Authorize(p Principal, roles ...model.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperror.Forbidden("You do not have permission to perform this action")
}

// HasRole reports whether p holds one of roles.
func HasRole(p Principal, roles ...model.Role) bool {
	return Authorize(p, roles...) == nil
}
