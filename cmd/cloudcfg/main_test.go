package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/cloudcfg/internal/audit"
	"github.com/nerrad567/cloudcfg/internal/auth"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/database"
	"github.com/nerrad567/cloudcfg/internal/snapshot"
)

const (
	testSalt      = "u8sK2n1UeXAsOb0Ya4ZHrUZpnvPbg2"
	testSecret    = "Jd7kP2yYhV1lRm0cQ9sWq3tB6nXzE4"
	testJWTSecret = "test-secret-key-at-least-32-characters-long"
)

// phpConfig renders a minimal valid config.php. extra lines are inserted
// before the closing bracket.
func phpConfig(dataDir string, extra ...string) string {
	var b strings.Builder
	b.WriteString("<?php\n$CONFIG = array (\n")
	b.WriteString("  'instanceid' => 'oc8c0fd71e03',\n")
	b.WriteString("  'passwordsalt' => '" + testSalt + "',\n")
	b.WriteString("  'secret' => '" + testSecret + "',\n")
	b.WriteString("  'trusted_domains' => array (0 => 'cloud.example.com'),\n")
	b.WriteString("  'datadirectory' => '" + dataDir + "',\n")
	b.WriteString("  'dbtype' => 'sqlite3',\n")
	b.WriteString("  'apps_paths' => array (\n")
	b.WriteString("    0 => array ('path' => '/var/www/html/apps', 'url' => '/apps', 'writable' => false),\n")
	b.WriteString("  ),\n")
	b.WriteString("  'installed' => true,\n")
	for _, line := range extra {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString(");\n")
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// runCLI runs the command line with no cloudcfg config file unless args
// name one.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CLOUDCFG_CONFIG", "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Help(t *testing.T) {
	out, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("run(--help) error = %v", err)
	}
	for _, cmd := range []string{"check", "describe", "serve", "token"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help does not mention %s:\n%s", cmd, out)
		}
	}
}

func TestRun_NoCommand(t *testing.T) {
	if _, err := runCLI(t); err == nil {
		t.Error("run() without a command should fail")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		file       string
		content    string
		args       []string
		wantErr    error
		wantOutput []string
	}{
		{
			name:       "valid",
			file:       "config.php",
			content:    phpConfig("/var/www/html/data"),
			wantOutput: []string{"(php): ok, 8 keys"},
		},
		{
			name:       "placeholder warning",
			file:       "config.php",
			content:    phpConfig("/var/www/html/data", "'mail_domain' => 'changeme',"),
			wantOutput: []string{"ok, 9 keys", "warning: mail_domain looks like an unfilled placeholder"},
		},
		{
			name:    "missing required keys",
			file:    "config.yaml",
			content: "instanceid: oc1\ndbtype: sqlite3\n",
			wantErr: errConfigInvalid,
			wantOutput: []string{
				"(yaml): invalid",
				"missing_required: secret is required",
				"missing_required: passwordsalt is required",
			},
		},
		{
			name:       "constraint violation",
			file:       "config.php",
			content:    phpConfig("/var/www/html/data", "'loglevel' => 9,"),
			wantErr:    errConfigInvalid,
			wantOutput: []string{"constraint_violation: loglevel", "1 problem(s) found"},
		},
		{
			name:       "syntax error",
			file:       "config.php",
			content:    "<?php\n$CONFIG = array (\n  'dbtype' => ,\n);\n",
			wantErr:    errConfigInvalid,
			wantOutput: []string{"syntax_error: 3:"},
		},
		{
			name:       "type mismatch",
			file:       "config.json",
			content:    `{"instanceid": "oc1", "installed": "maybe"}`,
			wantErr:    errConfigInvalid,
			wantOutput: []string{"parse_error: installed"},
		},
		{
			name:       "strict rejects unknown keys",
			file:       "config.php",
			content:    phpConfig("/var/www/html/data", "'mail_domain' => 'example.com',"),
			args:       []string{"--strict"},
			wantErr:    errConfigInvalid,
			wantOutput: []string{"mail_domain: unknown key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			args := append([]string{"--source", path}, tt.args...)
			args = append(args, "check")

			out, err := runCLI(t, args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("check error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("check error = %v\n%s", err, out)
			}
			for _, want := range tt.wantOutput {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCheck_MissingFile(t *testing.T) {
	_, err := runCLI(t, "--source", filepath.Join(t.TempDir(), "config.php"), "check")
	if err == nil || errors.Is(err, errConfigInvalid) {
		t.Errorf("check error = %v, want a read failure", err)
	}
	if got := exitCode(err, &bytes.Buffer{}); got != exitFailure {
		t.Errorf("exitCode = %d, want %d", got, exitFailure)
	}
}

func TestCheck_Probe(t *testing.T) {
	dataDir := t.TempDir()
	path := writeFile(t, t.TempDir(), "config.php", phpConfig(dataDir))

	t.Run("missing database", func(t *testing.T) {
		out, err := runCLI(t, "--source", path, "check", "--probe")
		if err == nil {
			t.Fatal("check --probe should fail without owncloud.db")
		}
		if !strings.Contains(out, "unreachable") {
			t.Errorf("output = %s", out)
		}
	})

	t.Run("reachable", func(t *testing.T) {
		db, err := database.Open(context.Background(), database.Config{
			Path:        filepath.Join(dataDir, "owncloud.db"),
			BusyTimeout: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.ExecContext(context.Background(), "CREATE TABLE oc_appconfig (appid TEXT)"); err != nil {
			t.Fatal(err)
		}
		db.Close() //nolint:errcheck // Test setup

		out, err := runCLI(t, "--source", path, "check", "--probe")
		if err != nil {
			t.Fatalf("check --probe error = %v\n%s", err, out)
		}
		if !strings.Contains(out, "datastore: sqlite3") || !strings.Contains(out, "reachable") {
			t.Errorf("output = %s", out)
		}
	})
}

func TestDescribe(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.php", phpConfig("/var/www/html/data"))

	t.Run("yaml", func(t *testing.T) {
		out, err := runCLI(t, "--source", path, "describe")
		if err != nil {
			t.Fatalf("describe error = %v", err)
		}
		if strings.Contains(out, testSecret) || strings.Contains(out, testSalt) {
			t.Errorf("describe leaks a secret:\n%s", out)
		}
		for _, want := range []string{"instanceid: oc8c0fd71e03", "****"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "dbtableprefix") {
			t.Error("defaults should be absent without --defaults")
		}
	})

	t.Run("json with defaults", func(t *testing.T) {
		out, err := runCLI(t, "--source", path, "describe", "--json", "--defaults")
		if err != nil {
			t.Fatalf("describe error = %v", err)
		}
		var desc map[string]any
		if err := json.Unmarshal([]byte(out), &desc); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if desc["passwordsalt"] != "****" || desc["dbtableprefix"] != "oc_" {
			t.Errorf("desc = %v", desc)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		bad := writeFile(t, t.TempDir(), "config.yaml", "dbtype: oracle\n")
		if _, err := runCLI(t, "--source", bad, "describe"); err == nil {
			t.Error("describe of an invalid configuration should fail")
		}
	})
}

func TestToken(t *testing.T) {
	t.Run("operator by default", func(t *testing.T) {
		t.Setenv("CLOUDCFG_JWT_SECRET", testJWTSecret)
		out, err := runCLI(t, "token", "--subject", "alice")
		if err != nil {
			t.Fatalf("token error = %v", err)
		}
		claims, err := auth.ParseToken(strings.TrimSpace(out), testJWTSecret)
		if err != nil {
			t.Fatalf("ParseToken() error = %v", err)
		}
		if claims.Subject != "alice" || claims.Role != auth.RoleOperator {
			t.Errorf("claims = %+v", claims)
		}
		ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
		if ttl != 60*time.Minute {
			t.Errorf("ttl = %v, want token_ttl default of 60m", ttl)
		}
	})

	t.Run("viewer with ttl", func(t *testing.T) {
		t.Setenv("CLOUDCFG_JWT_SECRET", testJWTSecret)
		out, err := runCLI(t, "token", "--role", "viewer", "--ttl", "5m")
		if err != nil {
			t.Fatalf("token error = %v", err)
		}
		claims, err := auth.ParseToken(strings.TrimSpace(out), testJWTSecret)
		if err != nil {
			t.Fatalf("ParseToken() error = %v", err)
		}
		if claims.Role != auth.RoleViewer || claims.ExpiresAt.Sub(claims.IssuedAt.Time) != 5*time.Minute {
			t.Errorf("claims = %+v", claims)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Setenv("CLOUDCFG_JWT_SECRET", testJWTSecret)
		if _, err := runCLI(t, "token", "--role", "admin"); err == nil {
			t.Error("token --role admin should fail")
		}
	})

	t.Run("no secret", func(t *testing.T) {
		t.Setenv("CLOUDCFG_JWT_SECRET", "")
		if _, err := runCLI(t, "token"); err == nil {
			t.Error("token without a secret should fail")
		}
	})

	t.Run("weak secret", func(t *testing.T) {
		t.Setenv("CLOUDCFG_JWT_SECRET", "short")
		if _, err := runCLI(t, "token"); !errors.Is(err, auth.ErrWeakSecret) {
			t.Errorf("token error = %v, want ErrWeakSecret", err)
		}
	})
}

func TestServe_RecordsSnapshots(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "config.php", phpConfig("/var/www/html/data"))
	dbPath := filepath.Join(dir, "cloudcfg.db")
	appConfig := writeFile(t, dir, "cloudcfg.yaml", `
source:
  path: "`+source+`"
logging:
  level: error
  format: text
  output: discard
database:
  enabled: true
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
  retain: 2
`)

	// serve returns once the context ends.
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		var stdout, stderr bytes.Buffer
		err := run(ctx, []string{"--config", appConfig, "serve"}, &stdout, &stderr)
		cancel()
		if err != nil {
			t.Fatalf("serve run %d error = %v", i, err)
		}
	}

	db, err := database.Open(context.Background(), database.Config{Path: dbPath, BusyTimeout: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	list, err := snapshot.NewSQLiteRepository(db.DB).List(context.Background(), "oc8c0fd71e03", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("snapshots = %d, want 2 after pruning", len(list))
	}
	if list[0].SourceFormat != "php" || list[0].KeyCount != 8 {
		t.Errorf("snapshot = %+v", list[0])
	}
	if strings.Contains(list[0].Description, testSecret) {
		t.Error("snapshot description leaks the secret")
	}

	loads, err := audit.NewSQLiteRepository(db.DB).List(context.Background(), audit.Filter{Action: audit.ActionConfigLoad})
	if err != nil {
		t.Fatalf("audit List() error = %v", err)
	}
	if loads.Total != 3 || loads.Entries[0].Resource != list[0].ID {
		t.Errorf("config.load entries = %+v", loads)
	}
}

func TestServe_InvalidSource(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "config.yaml", "dbtype: sqlite3\n")
	appConfig := writeFile(t, dir, "cloudcfg.yaml", `
source:
  path: "`+source+`"
logging:
  output: discard
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var stdout, stderr bytes.Buffer
	if err := run(ctx, []string{"--config", appConfig, "serve"}, &stdout, &stderr); err == nil {
		t.Error("serve should refuse an invalid server configuration")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"invalid configuration", errConfigInvalid, exitInvalid},
		{"other failure", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := exitCode(tt.err, &stderr); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if tt.want == exitFailure && !strings.Contains(stderr.String(), "boom") {
				t.Errorf("stderr = %q", stderr.String())
			}
		})
	}
}
