package identity

import (
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/shared"
)

// Actor is the authenticated caller of a use case
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     Role
}

// NewActor builds an Actor from already-authenticated claim values
func NewActor(tenantID, userID uuid.UUID, role Role) (Actor, error) {
	if tenantID == uuid.Nil {
		return Actor{}, shared.ErrUnauthorized
	}
	if userID == uuid.Nil {
		return Actor{}, shared.ErrUnauthorized
	}
	if !role.IsValid() {
		return Actor{}, shared.NewForbiddenError("unknown role")
	}
	return Actor{TenantID: tenantID, UserID: userID, Role: role}, nil
}

// Authorize returns a FORBIDDEN error when the actor's role lacks action
func (a Actor) Authorize(action Action) error {
	if !CanPerform(a.Role, action) {
		return shared.NewForbiddenError("role " + a.Role.String() + " may not perform " + string(action))
	}
	return nil
}
