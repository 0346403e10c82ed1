package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AgencyDesk/AgencyDesk/internal/auth"
)

// AgencyScope resolves the agency a request operates on. Regular members are
// pinned to their own agency. Platform admins have no agency of their own and
// pick one with the agency_id query parameter.
func AgencyScope(c *fiber.Ctx) (uint, bool) {
	member := auth.MemberFromContext(c)
	if member == nil {
		return 0, false
	}

	if member.AgencyID != nil {
		return *member.AgencyID, true
	}

	if auth.AccessFromContext(c).IsPlatformAdmin() {
		if id := c.QueryInt("agency_id", 0); id > 0 {
			return uint(id), true
		}
	}

	return 0, false
}

// ErrMissingAgencyScope is the JSON error response for requests without a
// resolvable agency.
func ErrMissingAgencyScope(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "no agency scope for this request",
	})
}
