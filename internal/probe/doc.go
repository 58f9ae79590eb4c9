// Package probe checks that the data store named by a loaded configuration
// is reachable.
//
// The check depends on dbtype:
//   - sqlite3: <datadirectory>/<dbname>.db (dbname defaults to "owncloud")
//     is opened read-only and pinged
//   - pgsql: a pgx connection is opened and pinged
//   - mysql: a TCP (or unix socket) connection to dbhost is dialled
//
// A probe never writes to the data store. Failures are reported, not fatal:
// a configuration can be valid while its database is down.
//
// Usage:
//
//	target, err := probe.TargetFromStore(store)
//	if err != nil {
//	    return err
//	}
//	res := probe.New(5 * time.Second).Probe(ctx, target)
//	if res.Err != nil {
//	    log.Warn("data store unreachable", "target", res.Address, "error", res.Err)
//	}
package probe
