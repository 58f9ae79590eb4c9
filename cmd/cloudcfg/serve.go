package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/cloudcfg/internal/api"
	"github.com/nerrad567/cloudcfg/internal/audit"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/config"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/database"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/influxdb"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/logging"
	"github.com/nerrad567/cloudcfg/internal/infrastructure/mqtt"
	"github.com/nerrad567/cloudcfg/internal/probe"
	"github.com/nerrad567/cloudcfg/internal/settings"
	"github.com/nerrad567/cloudcfg/internal/snapshot"
	"github.com/nerrad567/cloudcfg/migrations"
)

// serveCommand loads the configuration once and keeps the integrations
// running until the context is cancelled.
type serveCommand struct {
	app *app
}

// Execute implements flags.Commander.
func (c *serveCommand) Execute(_ []string) error {
	cfg, err := c.app.appConfig()
	if err != nil {
		return err
	}
	return serve(c.app.ctx, cfg, logging.New(cfg.Logging, version))
}

// serve is the long-running part of the serve command.
//
// Startup order:
//  1. InfluxDB, so a failed load is still recorded
//  2. Load the server configuration into the settings store
//  3. Snapshot store: save, compare with the previous load, prune, audit
//  4. Data store probe
//  5. MQTT announcement
//  6. Diagnostic API
//
// Every integration except loading is optional and disabled by default.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - cfg: cloudcfg's own configuration
//   - log: Logger instance
//
// Returns:
//   - error: nil on clean shutdown, or error describing the startup failure
func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("starting cloudcfg",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		var err error
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, map[string]string{
			"service": logging.ServiceName,
			"version": version,
		})
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Load the server configuration exactly once.
	store := settings.NewStore(nil)
	var res *loadResult
	_, err := store.GetOrInit(func() (*settings.Configuration, error) {
		var loadErr error
		res, loadErr = loadServerConfig(cfg.Source, store.Registry())
		return res.Config, loadErr
	})
	if err != nil {
		recordLoad(influxClient, nil, res, err)
		return fmt.Errorf("loading %s: %w", cfg.Source.Path, err)
	}
	recordLoad(influxClient, store, res, nil)

	instanceID, _ := store.GetString("instanceid")
	log.Info("server configuration loaded",
		"path", res.Path,
		"format", string(res.Format),
		"instance_id", instanceID,
		"keys", res.Config.Len(),
		"elapsed", res.Elapsed,
	)
	for _, key := range res.Placeholders {
		log.Warn("setting looks like an unfilled placeholder", "key", key)
	}
	log.Debug("server configuration", "config", settings.Describe(res.Config, store.Registry()))

	checks := make(map[string]api.HealthChecker)
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}

	// Snapshot store (optional)
	var repo snapshot.Repository
	var auditRepo audit.Repository
	var snap *snapshot.Snapshot
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening snapshot database: %w", err)
		}
		defer func() {
			log.Info("closing snapshot database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing snapshot database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		checks["database"] = db

		sqlRepo := snapshot.NewSQLiteRepository(db.DB)
		snap, err = recordSnapshot(ctx, sqlRepo, res, cfg.Database.Retain, log)
		if err != nil {
			return err
		}
		repo = sqlRepo

		auditRepo = audit.NewSQLiteRepository(db.DB)
		if err := auditRepo.Create(ctx, &audit.Entry{
			Action:   audit.ActionConfigLoad,
			Resource: snap.ID,
			Source:   audit.SourceServe,
			Details: map[string]any{
				"path":     res.Path,
				"format":   string(res.Format),
				"keys":     res.Config.Len(),
				"warnings": len(res.Placeholders),
			},
		}); err != nil {
			log.Warn("recording audit entry failed", "error", err)
		}
	}

	// Data store probe (optional)
	if cfg.Probe.Enabled {
		runProbe(ctx, store, probe.New(cfg.GetProbeTimeout()), influxClient, instanceID, log)
	}

	// MQTT announcement (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT, instanceID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient

		announcement := newAnnouncement(store, res, snap)
		if err := mqttClient.Announce(announcement); err != nil {
			return fmt.Errorf("announcing configuration: %w", err)
		}
		log.Info("configuration announced", "topic", mqttClient.Topics().Config())

		// Retained messages survive reconnects, but a broker restart
		// without persistence loses them.
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
			if err := mqttClient.Announce(announcement); err != nil {
				log.Warn("re-announcing configuration failed", "error", err)
			}
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	}

	// Diagnostic API (optional)
	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:    cfg.API,
			Security:  cfg.Security,
			Logger:    log,
			Store:     store,
			Snapshots: repo,
			Audit:     auditRepo,
			Checks:    checks,
			Version:   version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if influxClient != nil {
		influxClient.Flush()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API, MQTT, snapshot database, InfluxDB.
	return nil
}

// recordSnapshot saves a snapshot of the loaded configuration, logs what
// changed since the previous one and prunes old snapshots.
func recordSnapshot(ctx context.Context, repo snapshot.Repository, res *loadResult, retain int, log *logging.Logger) (*snapshot.Snapshot, error) {
	snap, err := snapshot.New(res.Config, nil, snapshot.Source{
		Path:     res.Path,
		Format:   string(res.Format),
		Warnings: len(res.Placeholders),
	})
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}

	prev, err := repo.Latest(ctx, snap.InstanceID)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		log.Info("first snapshot for instance", "instance_id", snap.InstanceID)
	case err != nil:
		return nil, fmt.Errorf("reading previous snapshot: %w", err)
	default:
		diff := snapshot.Compare(prev, snap)
		if diff.SecretsRotated {
			log.Warn("secrets changed since previous load", "previous_snapshot", prev.ID)
		}
		if diff.DescriptionChanged {
			log.Info("configuration changed since previous load", "previous_snapshot", prev.ID)
		}
	}

	if err := repo.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	log.Info("snapshot recorded", "snapshot_id", snap.ID)

	if retain > 0 {
		pruned, err := repo.Prune(ctx, retain)
		if err != nil {
			return nil, fmt.Errorf("pruning snapshots: %w", err)
		}
		if pruned > 0 {
			log.Info("old snapshots pruned", "count", pruned, "retain", retain)
		}
	}
	return snap, nil
}

// runProbe checks the configured data store. A failure is logged, not fatal:
// cloudcfg still serves diagnostics for an unreachable server database.
func runProbe(ctx context.Context, store *settings.Store, p *probe.Prober, influxClient *influxdb.Client, instanceID string, log *logging.Logger) {
	target, err := probe.TargetFromStore(store)
	if err != nil {
		log.Warn("cannot resolve data store", "error", err)
		return
	}

	result := p.Probe(ctx, target)
	if result.OK() {
		log.Info("data store reachable",
			"dbtype", result.DBType,
			"address", result.Address,
			"latency", result.Latency,
		)
	} else {
		log.Warn("data store unreachable",
			"dbtype", result.DBType,
			"address", result.Address,
			"error", result.Err,
		)
	}

	if influxClient != nil {
		influxClient.WriteProbeMetric(influxdb.ProbeMetric{
			InstanceID: instanceID,
			DBType:     result.DBType,
			Latency:    result.Latency,
			OK:         result.OK(),
			At:         time.Now(),
		})
	}
}

// recordLoad writes a config_load point. store is nil for a failed load.
func recordLoad(influxClient *influxdb.Client, store *settings.Store, res *loadResult, loadErr error) {
	if influxClient == nil || res == nil {
		return
	}

	m := influxdb.LoadMetric{
		Duration: res.Elapsed,
		Warnings: len(res.Placeholders),
		At:       time.Now(),
	}
	if loadErr != nil {
		m.Errors = problemCount(loadErr)
	}
	if store != nil {
		m.InstanceID, _ = store.GetString("instanceid")
		m.DBType, _ = store.GetString("dbtype")
	}
	if res.Config != nil {
		m.Keys = res.Config.Len()
	}
	influxClient.WriteLoadMetric(m)
}

// problemCount returns how many problems err reports.
func problemCount(err error) int {
	var report *settings.ValidationReport
	if errors.As(err, &report) {
		return len(report.Errors)
	}
	return 1
}

func newAnnouncement(store *settings.Store, res *loadResult, snap *snapshot.Snapshot) mqtt.Announcement {
	instanceID, _ := store.GetString("instanceid")
	a := mqtt.Announcement{
		InstanceID:   instanceID,
		LoadedAt:     time.Now().UTC(),
		SourceFormat: string(res.Format),
		Config:       settings.Describe(res.Config, store.Registry()),
	}
	if snap != nil {
		a.SnapshotID = snap.ID
		a.LoadedAt = snap.LoadedAt
		a.SecretFingerprint = snap.SecretFingerprint
	}
	return a
}
