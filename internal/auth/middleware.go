package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/session"
)

const (
	// LocalsMember is the fiber locals key holding the authenticated member.
	LocalsMember = "member"
	// LocalsAccess is the fiber locals key holding the member's resolved access.
	LocalsAccess = "access"
)

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "forbidden",
	})
}

// resolveRequest authenticates the request from the session cookie and
// resolves the member's access. The member is reloaded from the database on
// every request so role changes and deactivations apply immediately.
func resolveRequest(c *fiber.Ctx, authService *Service) (access.EffectiveAccess, bool) {
	none := access.Resolve(nil, nil, nil)

	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return none, false
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		return none, false
	}

	if sessionData.Member.ID == 0 {
		return none, false
	}

	member, resolved, err := authService.ResolveAccessByID(sessionData.Member.ID)
	if err != nil {
		log.Error().Err(err).Uint64("member_id", sessionData.Member.ID).
			Msg("failed to resolve member access")

		return none, false
	}

	c.Locals(LocalsMember, member)
	c.Locals(LocalsAccess, resolved)

	return resolved, true
}

// RequireAuthenticated creates Fiber middleware that only requires a valid session.
func RequireAuthenticated(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := resolveRequest(c, authService); !ok {
			return unauthorized(c)
		}

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolved, ok := resolveRequest(c, authService)
		if !ok {
			return unauthorized(c)
		}

		if !resolved.HasPermission(permission) {
			log.Warn().Str("permission", permission).Str("path", c.Path()).
				Msg("member lacks required permission")

			return forbidden(c)
		}

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolved, ok := resolveRequest(c, authService)
		if !ok {
			return unauthorized(c)
		}

		if !resolved.HasAnyPermission(permissions...) {
			log.Warn().Strs("permissions", permissions).Str("path", c.Path()).
				Msg("member lacks required permissions")

			return forbidden(c)
		}

		return c.Next()
	}
}

// RequireAllPermissions creates Fiber middleware that requires all the given permissions.
func RequireAllPermissions(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolved, ok := resolveRequest(c, authService)
		if !ok {
			return unauthorized(c)
		}

		if !resolved.HasAllPermissions(permissions...) {
			log.Warn().Strs("permissions", permissions).Str("path", c.Path()).
				Msg("member lacks required permissions")

			return forbidden(c)
		}

		return c.Next()
	}
}

// RequireManagerOrAbove creates Fiber middleware for the coarse hierarchy check.
func RequireManagerOrAbove(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolved, ok := resolveRequest(c, authService)
		if !ok {
			return unauthorized(c)
		}

		if !resolved.IsManagerOrAbove() {
			return forbidden(c)
		}

		return c.Next()
	}
}

// MemberFromContext returns the authenticated member stored by the middleware,
// or nil when the request is unauthenticated.
func MemberFromContext(c *fiber.Ctx) *models.TeamMember {
	member, _ := c.Locals(LocalsMember).(*models.TeamMember)

	return member
}

// AccessFromContext returns the resolved access stored by the middleware.
// Unauthenticated requests get the empty access set.
func AccessFromContext(c *fiber.Ctx) access.EffectiveAccess {
	if resolved, ok := c.Locals(LocalsAccess).(access.EffectiveAccess); ok {
		return resolved
	}

	return access.Resolve(nil, nil, nil)
}
