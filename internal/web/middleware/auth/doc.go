// Package auth provides the global session gate for the API.
//
// The middleware rejects unauthenticated requests to /api/ routes with a
// JSON 401 before any handler runs. Authentication endpoints under
// /api/auth/ and the liveness endpoints stay reachable without a session.
// Fine-grained permission checks happen per route in the auth package.
package auth
