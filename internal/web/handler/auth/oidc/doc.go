// Package oidc provides the OpenID Connect login endpoints.
//
// The login endpoint redirects to the configured identity provider with a
// random state token for CSRF protection. The callback endpoint exchanges
// the authorization code, resolves or provisions the member, and opens a
// session. First-time members arrive with the pending legacy role and wait
// for an operator to place them in an agency.
package oidc
