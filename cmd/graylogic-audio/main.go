// Gray Logic Audio - networked AV receiver control service.
//
// Devices are controlled over their JSON-RPC control API. The service
// persists configured devices in SQLite, exposes them over MQTT and a REST
// API, and optionally records power/volume/mute telemetry in InfluxDB.
//
// Run with -hash-key to generate an API key and the argon2id hash to put
// under security.api_keys in config.yaml.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-audio/migrations"

	"github.com/nerrad567/gray-logic-audio/internal/api"
	"github.com/nerrad567/gray-logic-audio/internal/audit"
	"github.com/nerrad567/gray-logic-audio/internal/auth"
	"github.com/nerrad567/gray-logic-audio/internal/bridges/sony"
	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// serviceName is the "service" field on every log entry.
	serviceName = "graylogic-audio"

	// defaultConfigPath is used when GRAYLOGIC_AUDIO_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// configEnvVar names the environment variable holding the config path.
	configEnvVar = "GRAYLOGIC_AUDIO_CONFIG"
)

func main() {
	hashKey := flag.Bool("hash-key", false, "generate an API key and its hash, then exit")
	flag.Parse()

	if *hashKey {
		if err := printAPIKey(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printAPIKey writes a fresh API key and the hash to configure for it.
func printAPIKey(w io.Writer) error {
	key, err := auth.GenerateAPIKey()
	if err != nil {
		return err
	}
	hash, err := auth.HashSecret(key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "api key: %s\nhash:    %s\n", key, hash)
	return err
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
	log.Info("starting Gray Logic Audio",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, serviceName, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	keys, err := buildKeyRing(cfg.Security.APIKeys)
	if err != nil {
		return fmt.Errorf("loading api keys: %w", err)
	}
	if keys.Len() == 0 {
		log.Warn("no API keys configured; the REST API will reject every token request")
	}

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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	records := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	records.SetLogger(log)
	if refreshErr := records.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", records.GetDeviceCount())

	auditor := audit.NewRecorder(audit.NewSQLiteRepository(db.DB), log)

	service, err := sony.NewService(sony.ServiceOptions{
		Store:        device.NewRecordStore(records),
		Port:         cfg.Audio.Port,
		Path:         cfg.Audio.Path,
		Timeout:      cfg.Audio.RequestTimeout(),
		ProbeZones:   cfg.Audio.ProbeZones,
		PollInterval: cfg.Audio.PollEvery(),
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("creating device service: %w", err)
	}
	defer func() {
		log.Info("stopping devices")
		service.Close()
	}()

	if restoreErr := service.Restore(ctx); restoreErr != nil {
		return fmt.Errorf("restoring devices: %w", restoreErr)
	}
	seedDevices(ctx, service, cfg.Audio.Devices, log)

	influxClient, err := connectInfluxDB(cfg.InfluxDB, log)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		service.AddStateListener(telemetryListener(influxClient))
	}

	bridge, mqttClient, err := startBridge(ctx, cfg, service, auditor, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	defer func() {
		log.Info("stopping MQTT bridge")
		bridge.Stop()
	}()

	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Devices:  service,
		Keys:     keys,
		Records:  records,
		Audit:    auditor,
		MQTT:     mqttClient,
		DB:       db,
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

	service.Start(ctx)

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"devices", service.Registry().Len(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, bridge, MQTT, InfluxDB,
	// devices, database.

	log.Info("Gray Logic Audio stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_AUDIO_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildKeyRing converts configured API keys into a key ring.
func buildKeyRing(cfgKeys []config.APIKeyConfig) (*auth.KeyRing, error) {
	keys := make([]auth.APIKey, 0, len(cfgKeys))
	for _, k := range cfgKeys {
		keys = append(keys, auth.APIKey{Name: k.Name, Role: auth.Role(k.Role), Hash: k.Hash})
	}
	return auth.NewKeyRing(keys)
}

// seedDevices sets up configured devices that are not yet registered. A
// device that cannot be reached is logged and skipped; it can be added
// later through the API.
func seedDevices(ctx context.Context, service *sony.Service, seeds []config.AudioDeviceConfig, log *logging.Logger) {
	for _, seed := range seeds {
		dev, err := service.Ensure(ctx, seed.IP, seed.Name)
		if err != nil {
			log.Warn("configured device not set up", "ip", seed.IP, "error", err)
			continue
		}
		log.Info("configured device ready", "ip", seed.IP, "device_id", dev.ID())
	}
}

// connectInfluxDB connects when telemetry is enabled. A nil client with a
// nil error means telemetry is disabled.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	return client, nil
}

// startBridge connects to the broker with the bridge's Last Will and
// starts the MQTT bridge.
func startBridge(ctx context.Context, cfg *config.Config, service *sony.Service, auditor *audit.Recorder, log *logging.Logger) (*sony.Bridge, *mqtt.Client, error) {
	lwt, err := json.Marshal(sony.NewLWTMessage())
	if err != nil {
		return nil, nil, fmt.Errorf("building MQTT last will: %w", err)
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.WithWill(sony.HealthTopic(), lwt))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	bridge, err := sony.NewBridge(sony.BridgeOptions{
		MQTTClient:     &mqttBridgeAdapter{client: mqttClient},
		Service:        service,
		Version:        version,
		HealthInterval: cfg.Audio.HealthEvery(),
		OnCommand:      auditCommand(auditor),
		Logger:         log,
	})
	if err != nil {
		_ = mqttClient.Close()
		return nil, nil, fmt.Errorf("creating MQTT bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		_ = mqttClient.Close()
		return nil, nil, fmt.Errorf("starting MQTT bridge: %w", err)
	}
	log.Info("MQTT bridge started")
	return bridge, mqttClient, nil
}

// subscriptionChecker reports whether a topic pattern is subscribed.
type subscriptionChecker interface {
	HasSubscription(topic string) bool
}

// checkCommandSubscription fails when the bridge's command subscription is
// not tracked by the client, which means commands would never arrive.
func checkCommandSubscription(c subscriptionChecker) error {
	if !c.HasSubscription(sony.CommandSubscribeTopic()) {
		return fmt.Errorf("not subscribed to %s", sony.CommandSubscribeTopic())
	}
	return nil
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
	if err := checkCommandSubscription(mqttClient); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
