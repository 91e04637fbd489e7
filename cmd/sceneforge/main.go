// Sceneforge Core - Scene Rendering Orchestrator
//
// This is the main entry point for the Sceneforge Core application.
// Sceneforge renders batches of animated scenes across multiple
// rendering toolchains (Manim, Motion Canvas, Remotion), each in an
// isolated sandbox, and exposes the results over HTTP and MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/sceneforge/sceneforge-core/migrations"

	"github.com/sceneforge/sceneforge-core/internal/api"
	"github.com/sceneforge/sceneforge-core/internal/events"
	"github.com/sceneforge/sceneforge-core/internal/infrastructure/config"
	"github.com/sceneforge/sceneforge-core/internal/infrastructure/database"
	"github.com/sceneforge/sceneforge-core/internal/infrastructure/logging"
	"github.com/sceneforge/sceneforge-core/internal/infrastructure/metrics"
	"github.com/sceneforge/sceneforge-core/internal/infrastructure/mqtt"
	"github.com/sceneforge/sceneforge-core/internal/render"
	"github.com/sceneforge/sceneforge-core/internal/template"
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
	log.Info("starting Sceneforge Core",
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load scene templates (embedded set, or an on-disk override for development)
	templates, err := loadTemplates(cfg)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	log.Info("templates loaded", "count", len(templates.Templates()))

	// Build the render pipeline
	coordinator, err := buildPipeline(cfg, templates, log)
	if err != nil {
		return fmt.Errorf("building render pipeline: %w", err)
	}

	repo := render.NewRepository(db)

	checkers := map[string]api.HealthChecker{
		"database": db,
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		qos := byte(cfg.MQTT.QoS)
		coordinator.SetEventPublisher(events.NewPublisher(mqttClient, qos, log))

		// Accept batch submissions over MQTT as well as HTTP
		listener := events.NewListener(mqttClient, coordinator, repo, qos, log)
		if listenErr := listener.Start(); listenErr != nil {
			return fmt.Errorf("starting MQTT listener: %w", listenErr)
		}
		log.Info("MQTT render request listener started")

		checkers["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		metricsClient, metricsErr := metrics.Connect(cfg.InfluxDB)
		if metricsErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", metricsErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := metricsClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		metricsClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		coordinator.SetMetricsRecorder(&metricsRecorder{client: metricsClient})
		checkers["influxdb"] = metricsClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the HTTP API server
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Dispatcher: coordinator,
		Store:      repo,
		Templates:  templates,
		Checkers:   checkers,
		Version:    version,
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
	log.Info("API server started",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Sceneforge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SCENEFORGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SCENEFORGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadTemplates builds the template store, preferring an on-disk directory
// when one is configured.
func loadTemplates(cfg *config.Config) (*template.Store, error) {
	if dir := cfg.Render.TemplatesDir; dir != "" {
		return template.NewStoreFromDir(dir)
	}
	return template.NewStore()
}

// buildPipeline constructs the framework renderers and the coordinator
// from configuration. A framework absent from the config map is simply
// not registered; scenes targeting it fail individually at render time.
func buildPipeline(cfg *config.Config, templates *template.Store, log *logging.Logger) (*render.Coordinator, error) {
	runner := render.NewRunner(log)

	var renderers []render.FrameworkRenderer
	for name, fw := range cfg.Render.Frameworks {
		switch name {
		case string(render.FrameworkManim):
			renderers = append(renderers, render.NewManimRenderer(render.ManimOptions{
				Binary:        fw.Binary,
				RenderTimeout: fw.GetRenderTimeout(),
				Resolution:    cfg.Render.Resolution,
			}, runner, templates, cfg.Render.TempRoot, log))
		case string(render.FrameworkMotionCanvas):
			renderers = append(renderers, render.NewMotionCanvasRenderer(render.MotionCanvasOptions{
				Binary:        fw.Binary,
				RenderTimeout: fw.GetRenderTimeout(),
				Resolution:    cfg.Render.Resolution,
			}, runner, templates, cfg.Render.TempRoot, log))
		case string(render.FrameworkRemotion):
			renderers = append(renderers, render.NewRemotionRenderer(render.RemotionOptions{
				Binary:           fw.Binary,
				RenderTimeout:    fw.GetRenderTimeout(),
				BootstrapTimeout: fw.GetBootstrapTimeout(),
				Resolution:       cfg.Render.Resolution,
			}, runner, templates, cfg.Render.TempRoot, log))
		default:
			return nil, fmt.Errorf("unknown framework in config: %q", name)
		}
	}

	registry := render.NewRegistry(renderers...)
	log.Info("render pipeline built", "frameworks", registry.Frameworks())

	coordinator := render.NewCoordinator(registry, templates, render.CoordinatorConfig{
		OutputRoot: cfg.Render.OutputRoot,
		Resolution: cfg.Render.Resolution,
	}, log)

	return coordinator, nil
}

// metricsRecorder adapts the InfluxDB client to the coordinator's
// MetricsRecorder interface.
type metricsRecorder struct {
	client *metrics.Client
}

// RecordOutcome implements render.MetricsRecorder.
func (m *metricsRecorder) RecordOutcome(outcome render.RenderOutcome) {
	m.client.WriteRenderOutcome(
		outcome.SceneID,
		string(outcome.Framework),
		outcome.Success,
		outcome.RenderDurationSeconds,
		outcome.FileSizeBytes,
		outcome.Attempts,
	)
}

// RecordBatch implements render.MetricsRecorder.
func (m *metricsRecorder) RecordBatch(result render.BatchResult) {
	m.client.WriteBatchSummary(
		result.BatchID,
		result.SceneCount(),
		result.SuccessCount(),
		result.TotalRenderedDuration,
	)
}
