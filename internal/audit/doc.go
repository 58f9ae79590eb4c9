// Package audit records who loaded or read the server configuration.
//
// Entries name the action, the setting key or snapshot ID involved and the
// token subject that asked. Setting values are never recorded, so the trail
// can be shared without redaction.
package audit
