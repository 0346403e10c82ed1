package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/AgencyDesk/AgencyDesk/internal/web/session"
)

// authPathPrefix is the route prefix reachable without a session.
const authPathPrefix = "/api/auth/"

// Middleware is a Fiber middleware that checks for a valid session on API routes.
func Middleware(c *fiber.Ctx) error {
	path := strings.ToLower(c.Path())

	if !strings.HasPrefix(path, "/api/") || IsAuthPath(c) {
		return c.Next()
	}

	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return unauthorized(c)
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		return unauthorized(c)
	}

	if sessData.Member.ID == 0 {
		return unauthorized(c)
	}

	// identity only; permissions are resolved per route
	c.Locals("CurrentMember", sessData.Member)

	return c.Next()
}

// IsAuthPath checks if the current request targets an authentication endpoint.
func IsAuthPath(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), authPathPrefix)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}
