package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"academy_backend/internals/constants"
	helperAuth "academy_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // read the access_token cookie when no bearer header is sent
}

// AuthJWT verifies an HS256 bearer token and hydrates the request identity.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
		}
		c.Locals(helperAuth.LocJWTClaims, claims)

		// user id: id, then sub
		rawID := strClaim(claims, "id")
		if rawID == "" {
			rawID = strClaim(claims, "sub")
		}
		userID, err := uuid.Parse(rawID)
		if err != nil || userID == uuid.Nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid user id in token")
		}

		role := helperAuth.NormalizeRole(strClaim(claims, "role"))
		if !constants.IsKnownRole(role) {
			return fiber.NewError(fiber.StatusForbidden, "unknown role in token")
		}

		helperAuth.SetIdentity(c, helperAuth.Identity{
			UserID:    userID,
			Role:      role,
			BeltLevel: strClaim(claims, "belt_level"),
		})
		return c.Next()
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
