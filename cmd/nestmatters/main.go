// Nest Matters - Unified Climate Bridge
//
// This is the main entry point for the Nest Matters bridge. The bridge
// merges two host climate entities per thermostat - a Matter exposure
// (temperature readings and setpoint) and a cloud exposure (HVAC state,
// modes, fan, humidity) - into one unified climate device, republished
// over MQTT and served over a REST/WebSocket API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/adamj29/nest-matters/migrations"

	"github.com/adamj29/nest-matters/internal/api"
	"github.com/adamj29/nest-matters/internal/climate"
	"github.com/adamj29/nest-matters/internal/history"
	"github.com/adamj29/nest-matters/internal/infrastructure/config"
	"github.com/adamj29/nest-matters/internal/infrastructure/database"
	"github.com/adamj29/nest-matters/internal/infrastructure/influxdb"
	"github.com/adamj29/nest-matters/internal/infrastructure/logging"
	"github.com/adamj29/nest-matters/internal/infrastructure/mqtt"
	"github.com/adamj29/nest-matters/internal/registry"
	"github.com/adamj29/nest-matters/internal/service"
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

// History retention: republished snapshots and statestream records older
// than this are pruned. The audit trail is for recent diagnosis, not
// long-term telemetry (InfluxDB covers that).
const (
	historyRetention     = 7 * 24 * time.Hour
	historyPruneInterval = time.Hour
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Nest Matters bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// State history audit trail
	historyRepo := history.NewSQLiteRepository(db.DB)

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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Entity registry fed by the host's statestream
	entityRegistry := registry.New()
	entityRegistry.SetLogger(log)

	feed := registry.NewFeed(entityRegistry, byte(cfg.MQTT.QoS))
	feed.SetLogger(log)
	feed.SetObserver(func(record registry.StateRecord) {
		recordCtx, recordCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer recordCancel()
		doc := history.Snapshot{
			"state":      record.State,
			"attributes": record.Attributes,
		}
		if recErr := historyRepo.RecordStateChange(recordCtx, record.EntityID, doc, history.SourceStatestream); recErr != nil {
			log.Error("failed to record statestream change", "entity_id", record.EntityID, "error", recErr)
		}
	})
	if feedErr := feed.Start(mqttClient); feedErr != nil {
		return fmt.Errorf("starting statestream feed: %w", feedErr)
	}

	// Service call dispatcher (bridge -> host commands)
	dispatcher := service.NewDispatcher(mqttClient, byte(cfg.MQTT.QoS))
	dispatcher.SetLogger(log)

	// Build the unified climate proxies
	manager, err := buildClimateManager(cfg, entityRegistry, dispatcher, mqttClient, historyRepo, influxClient, log)
	if err != nil {
		return fmt.Errorf("building climate proxies: %w", err)
	}
	if attachErr := manager.AttachAll(ctx); attachErr != nil {
		return fmt.Errorf("attaching climate proxies: %w", attachErr)
	}
	defer func() {
		log.Info("detaching climate proxies")
		manager.DetachAll()
	}()
	log.Info("climate proxies attached", "instances", manager.Count())

	// Start the REST/WebSocket API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Climate:  manager,
		Registry: entityRegistry,
		History:  historyRepo,
		MQTT:     mqttClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Periodic history pruning
	go pruneHistoryLoop(ctx, historyRepo, log)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Climate proxies (detach)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Nest Matters bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses NESTMATTERS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NESTMATTERS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildClimateManager creates one proxy per configured instance and wires
// its snapshot sink to the broker republish, the audit trail, and
// telemetry.
//
// Parameters:
//   - cfg: Application configuration
//   - source: Entity registry backing proxy reads
//   - dispatcher: Service call dispatcher for proxy commands
//   - mqttClient: MQTT client for retained snapshot republish
//   - historyRepo: Audit trail for republished snapshots
//   - influxClient: Telemetry sink (may be nil if disabled)
//   - log: Logger instance
//
// Returns:
//   - *climate.Manager: Manager holding every configured proxy
//   - error: If any instance configuration is invalid
func buildClimateManager(
	cfg *config.Config,
	source *registry.Registry,
	dispatcher *service.Dispatcher,
	mqttClient *mqtt.Client,
	historyRepo history.Repository,
	influxClient *influxdb.Client,
	log *logging.Logger,
) (*climate.Manager, error) {
	manager := climate.NewManager()
	topics := mqtt.Topics{}

	for _, instance := range cfg.Climate.Instances {
		instance := instance

		sink := func(snapshot climate.Snapshot) {
			// Retained republish so late subscribers see current state
			payload, marshalErr := json.Marshal(snapshot)
			if marshalErr != nil {
				log.Error("failed to encode climate snapshot",
					"instance_id", snapshot.InstanceID,
					"error", marshalErr,
				)
				return
			}
			if pubErr := mqttClient.PublishRetained(topics.ClimateState(snapshot.InstanceID), payload); pubErr != nil {
				log.Error("failed to republish climate snapshot",
					"instance_id", snapshot.InstanceID,
					"error", pubErr,
				)
			}

			// Audit trail, keyed by the proxy's stable unique ID
			recordCtx, recordCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer recordCancel()
			if recErr := historyRepo.RecordStateChange(recordCtx, snapshot.UniqueID, snapshotDocument(snapshot), history.SourceRepublish); recErr != nil {
				log.Error("failed to record climate snapshot",
					"instance_id", snapshot.InstanceID,
					"error", recErr,
				)
			}

			// Telemetry
			if influxClient != nil {
				influxClient.WriteAvailability(snapshot.InstanceID, snapshot.Available)
				influxClient.WriteHvacState(snapshot.InstanceID, snapshot.State, snapshot.FanMode)
				if snapshot.CurrentTemperature != nil {
					influxClient.WriteClimateMetric(snapshot.InstanceID, "current_temperature", *snapshot.CurrentTemperature)
				}
				if snapshot.TargetTemperature != nil {
					influxClient.WriteClimateMetric(snapshot.InstanceID, "target_temperature", *snapshot.TargetTemperature)
				}
				if snapshot.CurrentHumidity != nil {
					influxClient.WriteClimateMetric(snapshot.InstanceID, "current_humidity", *snapshot.CurrentHumidity)
				}
			}
		}

		proxy, err := climate.New(climate.Options{
			InstanceID:        instance.ID,
			Name:              instance.Name,
			TemperatureEntity: instance.MatterEntity,
			HvacEntity:        instance.GoogleEntity,
			Source:            source,
			Caller:            dispatcher,
			Sink:              sink,
			Logger:            log,
		})
		if err != nil {
			return nil, fmt.Errorf("instance %q: %w", instance.ID, err)
		}
		if addErr := manager.Add(proxy); addErr != nil {
			return nil, fmt.Errorf("instance %q: %w", instance.ID, addErr)
		}
		log.Info("climate proxy configured",
			"instance_id", instance.ID,
			"temperature_entity", instance.MatterEntity,
			"hvac_entity", instance.GoogleEntity,
		)
	}

	return manager, nil
}

// snapshotDocument converts a climate snapshot into the generic document
// form the audit trail stores.
func snapshotDocument(snapshot climate.Snapshot) history.Snapshot {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return history.Snapshot{}
	}
	var doc history.Snapshot
	if err := json.Unmarshal(payload, &doc); err != nil {
		return history.Snapshot{}
	}
	return doc
}

// pruneHistoryLoop periodically removes audit trail entries older than
// the retention window. Runs until the context is cancelled.
func pruneHistoryLoop(ctx context.Context, repo *history.SQLiteRepository, log *logging.Logger) {
	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			removed, err := repo.PruneHistory(pruneCtx, historyRetention)
			cancel()
			if err != nil {
				log.Error("history prune failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("pruned history entries", "removed", removed)
			}
		}
	}
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
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
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
