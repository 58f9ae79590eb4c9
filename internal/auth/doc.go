// Package auth issues and checks operator tokens for the diagnostic API.
//
// Tokens are HS256 JWTs signed with security.jwt.secret. They are minted
// offline with "cloudcfg token" and validated by signature only; there is
// no user database.
//
// Two roles exist:
//   - viewer: read the redacted live configuration
//   - operator: viewer plus the snapshot history and audit trail
package auth
