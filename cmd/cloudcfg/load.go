package main

import (
	"fmt"
	"time"

	"github.com/nerrad567/cloudcfg/internal/infrastructure/config"
	"github.com/nerrad567/cloudcfg/internal/settings"
	"github.com/nerrad567/cloudcfg/internal/source"
)

// loadResult describes one attempt to load the server configuration.
type loadResult struct {
	Path   string
	Format source.Format
	// Config is nil when the load failed.
	Config *settings.Configuration
	// Placeholders lists keys whose values look like unfilled templates.
	Placeholders []string
	Elapsed      time.Duration
}

// loadServerConfig reads, parses and validates the server configuration
// named by src.
//
// The result is never nil, so callers can report the path and format of a
// failed load. The error wraps a *source.SyntaxError, *settings.ParseError
// or *settings.ValidationReport where one applies.
func loadServerConfig(src config.SourceConfig, reg *settings.Registry) (*loadResult, error) {
	start := time.Now()
	res := &loadResult{Path: src.Path}

	var err error
	if src.Format != "" {
		res.Format, err = source.ParseFormat(src.Format)
	} else {
		res.Format, err = source.FormatFromPath(src.Path)
	}
	if err != nil {
		return res, err
	}

	raw, err := source.Read(src.Path, res.Format)
	if err != nil {
		res.Elapsed = time.Since(start)
		return res, err
	}

	var opts []settings.ParseOption
	if src.Strict {
		opts = append(opts, settings.WithStrict())
	}
	cfg, err := settings.Load(raw, reg, opts...)
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, err
	}

	res.Config = cfg
	res.Placeholders = settings.Placeholders(cfg)
	return res, nil
}

// mustLoad is loadServerConfig for commands that only proceed with a valid
// configuration.
func mustLoad(src config.SourceConfig, reg *settings.Registry) (*loadResult, error) {
	res, err := loadServerConfig(src, reg)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Path, err)
	}
	return res, nil
}
