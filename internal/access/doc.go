// Package access computes the effective permission set for a team member.
//
// Resolution is pure: callers load the member and (if assigned) the role's
// granted codes, and the package classifies the inputs into an explicit
// resolution (full catalog, by role, legacy fallback, or none) and builds an
// immutable EffectiveAccess value from it. A failed role lookup degrades to
// the legacy mapping instead of denying access: a missing or mis-joined role
// row must never lock an authenticated member out of the whole application.
package access
