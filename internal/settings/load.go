package settings

import "fmt"

// Load runs Parse then Validate. Errors wrap the underlying *ParseError or
// *ValidationReport, so errors.As still reaches them.
//
// Typical startup code hands Load to Store.GetOrInit:
//
//	cfg, err := store.GetOrInit(func() (*settings.Configuration, error) {
//	    return settings.Load(raw, nil)
//	})
func Load(raw any, reg *Registry, opts ...ParseOption) (*Configuration, error) {
	cfg, err := Parse(raw, reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if _, err := Validate(cfg, reg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}
