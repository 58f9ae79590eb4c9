// Package source reads configuration files into the raw nested structure
// that settings.Parse consumes.
//
// Four syntaxes are understood:
//
//   - php: the server's own config.php, a $CONFIG array literal
//   - yaml: via gopkg.in/yaml.v3
//   - json: via encoding/json, numbers kept exact as json.Number
//   - toml: via github.com/BurntSushi/toml
//
// Decoders only build maps, lists and scalars. Type checking against the
// schema happens later, in the settings package, so every format reports
// type problems the same way.
//
// Usage:
//
//	raw, err := source.Read("/var/www/html/config/config.php", "")
//	if err != nil {
//	    return err
//	}
//	cfg, err := settings.Load(raw, nil)
package source
