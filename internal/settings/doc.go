// Package settings is the configuration core of cloudcfg.
//
// It turns a decoded config.php (or YAML/JSON/TOML equivalent) into a typed,
// validated and immutable Configuration, and exposes it to the rest of the
// process through a Store.
//
// This package manages:
//   - The schema Registry of recognised keys, their types, defaults and rules
//   - Parse: raw nested maps/lists/scalars -> Configuration, coercing declared keys
//   - Validate: required keys, per-key predicates and cross-field rules,
//     reported together in one ValidationReport
//   - Store: one-time initialisation and typed, lock-free reads
//   - Describe: redacted rendering where secrets become "****"
//
// Data flow:
//
//	raw source -> Parse -> Validate -> Store.Init -> GetString/GetBool/...
//	                                      \-> Describe (display paths only)
//
// Security Considerations:
//   - Values of sensitive keys are never part of error messages
//   - Describe masks with a fixed-length mask, so output leaks no length
//   - Value.String does not redact and must not be logged for secrets
//
// Usage:
//
//	store := settings.NewStore(nil)
//	cfg, err := store.GetOrInit(func() (*settings.Configuration, error) {
//	    return settings.Load(raw, nil)
//	})
//	if err != nil {
//	    return err
//	}
//	dbtype, _ := store.GetString("dbtype")
//	log.Info("configuration loaded", "config", settings.Describe(cfg, nil))
package settings
