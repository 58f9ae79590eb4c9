// Package config handles loading and validating cloudcfg's own configuration.
//
// This is the tool's runtime configuration (where to find the server's
// config.php, which integrations to run), not the server configuration it
// inspects; that lives in the settings package.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with CLOUDCFG_* environment variables
//   - Validation of required fields, per enabled integration
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The diagnostic API refuses to start without a 32+ character JWT secret
//
// Usage:
//
//	cfg, err := config.Load("/etc/cloudcfg/cloudcfg.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Source.Path)
package config
