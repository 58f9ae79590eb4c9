// cloudcfg loads the configuration of a content-management / file-sync
// server, validates it against the declared schema and makes it available to
// operators in redacted form.
//
// Commands:
//   - check: parse and validate, print every problem, exit non-zero if invalid
//   - describe: print the redacted configuration as YAML
//   - serve: load once, record a snapshot, probe the data store, announce over
//     MQTT, write metrics and serve the diagnostic API until a signal arrives
//   - token: mint a bearer token for the diagnostic API
//
// cloudcfg's own settings come from the YAML file named by --config or
// CLOUDCFG_CONFIG, see internal/infrastructure/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/config"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Exit statuses.
const (
	exitOK      = 0
	exitFailure = 1
	// exitInvalid means the server configuration failed to parse or validate.
	exitInvalid = 2
)

// errConfigInvalid is returned by check after the problems have been printed.
var errConfigInvalid = errors.New("server configuration is invalid")

func main() {
	// Cancel on Ctrl+C and SIGTERM so serve shuts down gracefully.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(exitCode(err, os.Stderr))
}

// options are the flags shared by every command.
type options struct {
	Config string `short:"c" long:"config" env:"CLOUDCFG_CONFIG" description:"cloudcfg configuration file (YAML)"`
	Source string `short:"s" long:"source" description:"Server configuration file, overrides source.path"`
	Format string `short:"f" long:"format" description:"Server configuration format: php, yaml, json or toml"`
	Strict bool   `long:"strict" description:"Reject keys the schema does not declare"`
}

// app carries what every command needs besides its own flags.
type app struct {
	ctx    context.Context
	opts   options
	stdout io.Writer
	stderr io.Writer
}

// run parses args and executes the selected command.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line without the program name
//   - stdout: Destination for command output
//   - stderr: Destination for log lines
//
// Returns:
//   - error: nil on success, or the command's failure
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{ctx: ctx, stdout: stdout, stderr: stderr}

	parser := flags.NewParser(&a.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "cloudcfg"
	parser.ShortDescription = "Server configuration loader"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"check", "Validate the server configuration",
			"Parses and validates the server configuration and prints every problem found.",
			&checkCommand{app: a}},
		{"describe", "Print the redacted configuration",
			"Prints the validated server configuration as YAML with every secret masked.",
			&describeCommand{app: a}},
		{"serve", "Load once and serve diagnostics",
			"Loads the server configuration once, records a snapshot and serves the diagnostic API until interrupted.",
			&serveCommand{app: a}},
		{"token", "Mint a diagnostic API token",
			"Signs a bearer token for the diagnostic API with security.jwt.secret.",
			&tokenCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return fmt.Errorf("registering %s command: %w", c.name, err)
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, ferr.Message)
			return nil
		}
		return err
	}
	return nil
}

// exitCode maps the result of run to a process exit status, printing
// errors that have not been reported yet.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errConfigInvalid):
		return exitInvalid
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

// appConfig loads cloudcfg's own configuration and applies the global flags.
func (a *app) appConfig() (*config.Config, error) {
	cfg, err := config.Load(a.opts.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if a.opts.Source != "" {
		cfg.Source.Path = a.opts.Source
	}
	if a.opts.Format != "" {
		cfg.Source.Format = a.opts.Format
	}
	if a.opts.Strict {
		cfg.Source.Strict = true
	}
	return cfg, nil
}

// logger returns a logger that writes to stderr, keeping stdout for output.
func (a *app) logger(cfg *config.Config) *logging.Logger {
	return logging.NewWithWriter(cfg.Logging, version, a.stderr)
}
