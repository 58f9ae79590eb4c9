package main

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/cloudcfg/internal/settings"
)

// describeCommand prints the redacted server configuration.
type describeCommand struct {
	app *app

	Defaults bool `long:"defaults" description:"Fill in schema defaults for absent keys"`
	JSON     bool `long:"json" description:"Print JSON instead of YAML"`
}

// Execute implements flags.Commander.
func (c *describeCommand) Execute(_ []string) error {
	cfg, err := c.app.appConfig()
	if err != nil {
		return err
	}
	log := c.app.logger(cfg)

	res, err := mustLoad(cfg.Source, nil)
	if err != nil {
		return err
	}
	for _, key := range res.Placeholders {
		log.Warn("setting looks like an unfilled placeholder", "key", key)
	}

	desc := settings.Describe(res.Config, nil)
	if c.Defaults {
		desc = desc.WithDefaults(nil)
	}

	var out []byte
	if c.JSON {
		out, err = json.MarshalIndent(desc, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = desc.YAML()
	}
	if err != nil {
		return fmt.Errorf("rendering description: %w", err)
	}

	_, err = c.app.stdout.Write(out)
	return err
}
