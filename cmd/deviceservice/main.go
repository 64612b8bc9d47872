// Device Service
//
// This is the main entry point for the device service. It keeps a local
// cache of the devices, profiles and provision watchers the metadata
// registry assigns to it, and keeps that cache current through registry
// callbacks. It also runs schedules, device discovery and readings ingest.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/nerrad567/gray-logic-device/migrations"

	"github.com/nerrad567/gray-logic-device/internal/api"
	"github.com/nerrad567/gray-logic-device/internal/callback"
	"github.com/nerrad567/gray-logic-device/internal/device"
	"github.com/nerrad567/gray-logic-device/internal/discovery"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
	"github.com/nerrad567/gray-logic-device/internal/readings"
	"github.com/nerrad567/gray-logic-device/internal/schedule"
	"github.com/nerrad567/gray-logic-device/internal/transform"
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

// schedulerStopTimeout bounds the wait for running schedule events on shutdown.
const schedulerStopTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, cfg.Service.Name, version)
	log.Info("starting device service",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", configPath,
	)

	db, err := database.Open(ctx, database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled, readings ingest off")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	meta := metadata.New(cfg.Metadata.URL, cfg.GetMetadataTimeout())

	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	registry.SetLogger(log)
	devices := device.NewService(cfg.Service.Name, registry, meta, mqttClient)
	devices.SetLogger(log)
	if initErr := devices.Initialize(ctx); initErr != nil {
		return initErr
	}
	log.Info("device cache loaded", "devices", len(registry.Devices()), "watchers", len(registry.Watchers()))

	scheduler := schedule.New(meta, schedule.NewPublishExecutor(mqttClient), schedule.Options{
		WithSeconds: cfg.Schedule.WithSeconds,
		Repository:  schedule.NewSQLiteRepository(db.DB),
	})
	scheduler.SetLogger(log)
	if initErr := scheduler.Initialize(ctx); initErr != nil {
		return initErr
	}
	scheduler.Start()
	defer func() {
		log.Info("stopping scheduler")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), schedulerStopTimeout)
		defer stopCancel()
		scheduler.Stop(stopCtx)
	}()

	flag := transform.NewFlag(cfg.Transform.Enabled)

	if influxClient != nil {
		ingester, ingErr := readings.NewIngester(mqttClient, registry, transform.NewTransformer(flag), influxClient, reg)
		if ingErr != nil {
			return fmt.Errorf("creating readings ingester: %w", ingErr)
		}
		ingester.SetLogger(log)
		if startErr := ingester.Start(); startErr != nil {
			return fmt.Errorf("starting readings ingester: %w", startErr)
		}
		defer func() {
			if stopErr := ingester.Stop(); stopErr != nil {
				log.Error("error stopping readings ingester", "error", stopErr)
			}
		}()
	}

	var trigger api.DiscoveryTrigger
	if cfg.Discovery.Enabled {
		scanner, scanErr := newScanner(cfg, mqttClient, registry, meta, reg)
		if scanErr != nil {
			return scanErr
		}
		scanner.SetLogger(log)
		defer func() {
			log.Info("stopping discovery")
			scanner.Close()
		}()
		trigger = scanner
	} else {
		log.Info("discovery disabled")
	}

	router := callback.NewRouter(callback.Handlers{
		Devices:   devices,
		Profiles:  devices,
		Watchers:  devices,
		Schedules: scheduler,
	})
	router.SetLogger(log)

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		CallbackPath: cfg.Service.CallbackPath,
		Logger:       log,
		Callbacks:    router,
		Transform:    flag,
		Discovery:    trigger,
		Registerer:   reg,
		Gatherer:     reg,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"callback_path", cfg.Service.CallbackPath,
		"transform", flag.Enabled(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// newScanner wires discovery to MQTT announcements and the metadata registry.
func newScanner(cfg *config.Config, mqttClient *mqtt.Client, registry *device.Registry,
	meta *metadata.Client, reg prometheus.Registerer) (*discovery.Scanner, error) {
	m, err := discovery.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("registering discovery metrics: %w", err)
	}
	return discovery.NewScanner(
		discovery.NewCollector(mqttClient),
		registry,
		meta,
		discovery.Config{
			ServiceName: cfg.Service.Name,
			Timeout:     cfg.GetScanTimeout(),
		},
		m,
	), nil
}

// getConfigPath returns the configuration file path.
// Uses DEVICESVC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DEVICESVC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
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
