// Package api implements the read-only diagnostic HTTP API of cloudcfg.
//
// This package provides:
//   - GET /api/v1/health, open, with per-dependency checks
//   - GET /api/v1/config and /api/v1/config/{key}, redacted live settings
//   - GET /api/v1/snapshots and /api/v1/snapshots/{id}, load history
//   - GET /api/v1/audit, who loaded or read what
//   - Bearer JWT authentication with role permissions (internal/auth)
//   - Middleware stack (request ID, logging, recovery, body limit)
//   - TLS support
//
// # Security
//
// Sensitive settings are always masked; there is no parameter that reveals
// them. Successful reads are recorded in the audit trail when one is
// configured. The listener binds to 127.0.0.1 by default.
package api
