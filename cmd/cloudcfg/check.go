package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/cloudcfg/internal/probe"
	"github.com/nerrad567/cloudcfg/internal/settings"
	"github.com/nerrad567/cloudcfg/internal/source"
)

// checkCommand parses and validates the server configuration.
type checkCommand struct {
	app *app

	Probe bool `long:"probe" description:"Also check that the configured data store is reachable"`
}

// Execute implements flags.Commander.
func (c *checkCommand) Execute(_ []string) error {
	cfg, err := c.app.appConfig()
	if err != nil {
		return err
	}
	w := c.app.stdout

	res, err := loadServerConfig(cfg.Source, nil)
	if err != nil {
		if !isConfigProblem(err) {
			return fmt.Errorf("loading %s: %w", cfg.Source.Path, err)
		}
		fmt.Fprintf(w, "%s (%s): invalid\n", res.Path, formatName(res.Format))
		n := writeProblems(w, err)
		fmt.Fprintf(w, "%d problem(s) found\n", n)
		return errConfigInvalid
	}

	fmt.Fprintf(w, "%s (%s): ok, %d keys\n", res.Path, formatName(res.Format), res.Config.Len())
	for _, key := range res.Placeholders {
		fmt.Fprintf(w, "warning: %s looks like an unfilled placeholder\n", key)
	}

	if !c.Probe {
		return nil
	}

	store := settings.NewStore(nil)
	if err := store.Init(res.Config); err != nil {
		return err
	}
	target, err := probe.TargetFromStore(store)
	if err != nil {
		return fmt.Errorf("resolving data store: %w", err)
	}
	result := probe.New(cfg.GetProbeTimeout()).Probe(c.app.ctx, target)
	if !result.OK() {
		fmt.Fprintf(w, "datastore: %s %s unreachable: %v\n", result.DBType, result.Address, result.Err)
		return fmt.Errorf("data store unreachable: %w", result.Err)
	}
	fmt.Fprintf(w, "datastore: %s %s reachable (%s)\n", result.DBType, result.Address, result.Latency.Round(time.Millisecond))
	return nil
}

// isConfigProblem reports whether err is a fault in the server configuration
// itself rather than in reaching it.
func isConfigProblem(err error) bool {
	var (
		syntax *source.SyntaxError
		parse  *settings.ParseError
		report *settings.ValidationReport
	)
	return errors.As(err, &syntax) ||
		errors.As(err, &parse) ||
		errors.As(err, &report) ||
		errors.Is(err, source.ErrEmpty)
}

// writeProblems prints one line per problem in err and returns the count.
func writeProblems(w io.Writer, err error) int {
	var report *settings.ValidationReport
	if errors.As(err, &report) {
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.Kind, e)
		}
		return len(report.Errors)
	}

	var parse *settings.ParseError
	if errors.As(err, &parse) {
		fmt.Fprintf(w, "  parse_error: %s\n", parse)
		return 1
	}

	var syntax *source.SyntaxError
	if errors.As(err, &syntax) {
		fmt.Fprintf(w, "  syntax_error: %d:%d: %s\n", syntax.Line, syntax.Col, syntax.Msg)
		return 1
	}

	fmt.Fprintf(w, "  %s\n", err)
	return 1
}

func formatName(f source.Format) string {
	if f == "" {
		return "unknown format"
	}
	return string(f)
}
