// file: internals/helpers/auth/identity.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"academy_backend/internals/constants"
)

/* ============================================
   Locals keys (set by the JWT middleware)
   ============================================ */

const (
	LocIdentity  = "identity"   // Identity
	LocUserID    = "user_id"    // string
	LocRole      = "role"       // string
	LocBeltLevel = "belt_level" // string
	LocJWTClaims = "jwt_claims" // jwt.MapClaims
)

// Identity is the verified caller of one request.
type Identity struct {
	UserID    uuid.UUID
	Role      string
	BeltLevel string
}

func (i Identity) IsStaff() bool { return constants.IsStaffRole(i.Role) }

// CurrentIdentity reads the identity stored by the auth middleware.
func CurrentIdentity(c *fiber.Ctx) (Identity, error) {
	if id, ok := c.Locals(LocIdentity).(Identity); ok && id.UserID != uuid.Nil {
		return id, nil
	}
	return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "user identity not found in token")
}

// SetIdentity stores the identity plus the flat keys older guards read.
func SetIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(LocIdentity, id)
	c.Locals(LocUserID, id.UserID.String())
	c.Locals(LocRole, id.Role)
	c.Locals(LocBeltLevel, id.BeltLevel)
}

// NormalizeRole lowercases and trims a role claim.
func NormalizeRole(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}
