// Light Bridge - MQTT light controller service
//
// This is the main entry point for the light bridge. It loads the configured
// MQTT lights, keeps their state in step with the devices, and exposes them
// over a REST and WebSocket API:
//   - Optimistic lights update as soon as a command is sent
//   - Confirmed lights update only when the device reports its state
//   - Every state change is logged, mirrored to MQTT and kept as history
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/api"
	"github.com/nerrad567/gray-logic-lightbridge/internal/device"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lightbridge/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runFn := run
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		runFn = migrateDown
	}

	if err := runFn(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// migrateDown rolls back the most recently applied schema migration.
// It is run as "lightbridge migrate-down" and does not start the bridge.
func migrateDown(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // best-effort close on exit

	if err := db.MigrateDown(ctx, migrations.FS); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	log.Info("rolled back latest migration", "path", cfg.Database.Path)
	return nil
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting light bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "lights", len(cfg.Lights))

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	history := device.NewSQLiteStateHistoryRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the light registry and its listeners
	registry, err := device.NewRegistry(device.Options{
		Publisher: mqttClient,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating light registry: %w", err)
	}
	if addErr := registry.AddAll(cfg.Lights); addErr != nil {
		return fmt.Errorf("loading lights: %w", addErr)
	}
	registry.AddListener(device.LogListener(log))
	registry.AddListener(device.StateMirror(mqttClient, mqttClient.Topics(), log))
	registry.AddListener(device.HistoryRecorder(history, log))
	if influxClient != nil {
		registry.AddListener(device.TelemetryRecorder(influxClient))
	}

	registry.Start(ctx)
	defer func() {
		log.Info("stopping light registry")
		registry.Stop()
	}()

	if subErr := registry.Subscribe(mqttClient); subErr != nil {
		// Failed lights are logged by the registry; the rest keep working.
		log.Warn("some lights are not receiving state", "error", subErr)
	}
	log.Info("light registry initialised",
		"lights", registry.Count(),
		"subscriptions", mqttClient.SubscriptionCount(),
	)

	go pruneLoop(ctx, history, cfg.History, log)

	// Start API server (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log,
			Registry: registry,
			History:  history,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server (if enabled)
	// 2. Light registry (flushes queued state changes)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	return nil
}

// getConfigPath returns the configuration file path.
// Uses LIGHTBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LIGHTBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthChecker is implemented by every infrastructure client.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db, mqttClient healthChecker, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// historyPruner is the part of the history repository used for retention.
type historyPruner interface {
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}

// pruneLoop deletes history older than the retention period once at start
// and then every prune interval, until ctx is cancelled.
func pruneLoop(ctx context.Context, repo historyPruner, cfg config.HistoryConfig, log *logging.Logger) {
	if cfg.RetentionDays <= 0 {
		log.Info("history retention disabled, keeping all state history")
		return
	}

	interval := time.Duration(cfg.PruneInterval) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	pruneOnce(ctx, repo, cfg, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOnce(ctx, repo, cfg, log)
		}
	}
}

func pruneOnce(ctx context.Context, repo historyPruner, cfg config.HistoryConfig, log *logging.Logger) {
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	deleted, err := repo.PruneHistory(ctx, retention)
	if err != nil {
		log.Warn("pruning state history failed", "error", err)
		return
	}
	if deleted > 0 {
		log.Info("pruned state history", "deleted", deleted, "retention_days", cfg.RetentionDays)
	}
}
