// Package auth provides authentication and authorization functionality for the application.
//
// Two authentication sources are supported:
//   - Local database authentication with Argon2id password hashing,
//     optionally hardened with a TOTP second factor
//   - OpenID Connect (OIDC) authentication with external identity providers
//
// # Authorization
//
// Permissions are resolved through the access package. The Service type loads
// a member and the grants of their assigned role, then hands both to
// access.Resolve. A failed role lookup is not fatal: resolution degrades to
// the member's legacy role so a storage hiccup narrows access instead of
// widening it.
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequirePermission: protect routes requiring a specific permission
//   - RequireAnyPermission: protect routes requiring any of several permissions
//   - RequireAllPermissions: protect routes requiring all of several permissions
//   - RequireManagerOrAbove: protect routes behind the coarse hierarchy check
//
// The middleware resolves the member's access once per request and stores it
// in fiber locals for handlers to reuse.
//
// Example usage:
//
//	authService := auth.NewService(db)
//
//	app.Post("/api/sales/:id/approve",
//	    auth.RequirePermission(authService, access.PermSalesApprove),
//	    handler,
//	)
package auth
