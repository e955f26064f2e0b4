// Package auth provides the authentication primitives shared by the
// Terrace gateway.
//
// This package implements:
//   - The request-scoped Principal (subject plus live role set)
//   - The IdentityLookup boundary used to resolve a token subject
//   - The SecretVerifier boundary and its bcrypt implementation
//
// Token encoding lives in package tokens; route authorization lives in
// package policy.
package auth
