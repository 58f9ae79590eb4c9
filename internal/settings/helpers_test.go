package settings

import "testing"

// sampleRaw mirrors the stock config.php sample as a decoder would return it.
func sampleRaw() map[string]any {
	return map[string]any{
		"htaccess.RewriteBase": "/",
		"memcache.local":       `\OC\Memcache\APCu`,
		"apps_paths": []any{
			map[string]any{
				"path":     "/var/www/html/apps",
				"url":      "/apps",
				"writable": false,
			},
			map[string]any{
				"path":     "/var/www/html/custom_apps",
				"url":      "/custom_apps",
				"writable": true,
			},
		},
		"upgrade.disable-web": true,
		"instanceid":          "oc8c0fd71e03",
		"passwordsalt":        "u8sK2n1UeXAsOb0Ya4ZHrUZpnvPbg2",
		"secret":              "Jd7kP2yYhV1lRm0cQ9sWq3tB6nXzE4",
		"trusted_domains":     []any{"*"},
		"datadirectory":       "/var/www/html/data",
		"dbtype":              "sqlite3",
		"version":             "29.0.4.1",
		"overwrite.cli.url":   "http://localhost:32162",
		"installed":           true,
	}
}

// without returns a copy of raw minus the given keys.
func without(raw map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// with returns a copy of raw with key set to value.
func with(raw map[string]any, key string, value any) map[string]any {
	out := without(raw)
	out[key] = value
	return out
}

// mustParse parses raw with the default registry or fails the test.
func mustParse(t *testing.T, raw any, opts ...ParseOption) *Configuration {
	t.Helper()
	cfg, err := Parse(raw, nil, opts...)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}
