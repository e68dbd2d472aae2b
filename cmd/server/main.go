package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ble-atlas/internal/api"
	"ble-atlas/internal/config"
	"ble-atlas/internal/database/influx"
	"ble-atlas/internal/database/postgres"
	"ble-atlas/internal/engine"
	"ble-atlas/internal/logger"
	"ble-atlas/internal/models"
	"ble-atlas/internal/mq"
	"ble-atlas/internal/mq/handlers"
	"ble-atlas/internal/store"
)

type Application struct {
	config *config.Config

	postgresDB *postgres.PostgresDB
	influxDB   *influx.InfluxDB

	observerStore store.ObserverStore
	scaleStore    store.ScaleStore

	engine *engine.Engine
	hub    *api.Hub

	httpServer *http.Server

	mqttClient        *mq.Client
	topicManager      *mq.TopicManager
	reportHandler     *handlers.ReportHandler
	snapshotPublisher *mq.SnapshotPublisher

	shutdownChan chan os.Signal
	ctx          context.Context
	cancelFunc   context.CancelFunc
}

func main() {
	app := &Application{}

	if err := app.initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

func (app *Application) initialize() error {
	var err error

	app.config, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger.Setup(app.config.Logger)
	log.Info().
		Str("component", "main").
		Msg("Setting up service...")

	app.ctx, app.cancelFunc = context.WithCancel(context.Background())
	app.shutdownChan = make(chan os.Signal, 1)
	signal.Notify(app.shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("error while initializing storage: %w", err)
	}

	if err := app.initializeEngine(); err != nil {
		return fmt.Errorf("error while initializing engine: %w", err)
	}

	if err := app.initializeMQTT(); err != nil {
		return fmt.Errorf("error while initializing MQTT: %w", err)
	}

	app.initializeHTTP()

	log.Info().Msg("Successfully initialized application")
	return nil
}

func (app *Application) initializeStorage() error {
	if app.config.Storage.Driver == "memory" {
		app.observerStore = store.NewMemoryObserverStore()
		app.scaleStore = store.NewMemoryScaleStore()
		log.Info().
			Str("component", "main").
			Msg("Using in-memory storage, state will not survive restarts")
		return nil
	}

	var err error
	app.postgresDB, err = postgres.NewConnection(app.config.Postgres)
	if err != nil {
		return fmt.Errorf("could not connect to PostgreSQL: %w", err)
	}

	app.observerStore = postgres.NewObserverStore(app.postgresDB.GetDB())
	app.scaleStore = postgres.NewScaleStore(app.postgresDB.GetDB())

	log.Info().
		Str("component", "main").
		Str("host", app.config.Postgres.Host).
		Msg("Successfully initialized storage")
	return nil
}

func (app *Application) initializeEngine() error {
	app.hub = api.NewHub(logger.GetLogger("ws-hub"))

	opts := []engine.Option{
		engine.WithReferenceRSSI(app.config.Engine.ReferenceRSSI),
		engine.WithUpdateHook(app.onSnapshot),
	}

	if app.config.InfluxDB.Enabled {
		var err error
		app.influxDB, err = influx.NewConnection(&app.config.InfluxDB)
		if err != nil {
			return fmt.Errorf("could not connect to InfluxDB: %w", err)
		}

		writer := influx.NewSightingWriter(app.influxDB.GetWriteAPI(), logger.GetLogger("sighting-writer"))
		opts = append(opts, engine.WithSightingSink(writer))
	}

	eng, err := engine.New(app.ctx, app.observerStore, app.scaleStore, logger.GetLogger("engine"), opts...)
	if err != nil {
		return fmt.Errorf("could not build engine: %w", err)
	}
	app.engine = eng

	return nil
}

func (app *Application) onSnapshot(snapshot *models.Snapshot) {
	app.hub.Broadcast(snapshot)
	if app.snapshotPublisher != nil {
		app.snapshotPublisher.Publish(snapshot)
	}
}

func (app *Application) initializeMQTT() error {
	if !app.config.MQTT.Enabled {
		log.Info().
			Str("component", "main").
			Msg("MQTT_HOST not set, skipping MQTT ingestion")
		return nil
	}

	var err error
	app.topicManager = mq.NewTopicManager(app.config.MQTT.BaseTopic)

	app.mqttClient, err = mq.NewClient(&app.config.MQTT, logger.GetLogger("mq-client"))
	if err != nil {
		return fmt.Errorf("could not create MQTT client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(app.ctx, 30*time.Second)
	defer cancel()

	if err := app.mqttClient.Connect(connectCtx); err != nil {
		return fmt.Errorf("could not connect to MQTT broker: %w", err)
	}

	app.reportHandler = handlers.NewReportHandler(
		app.topicManager,
		app.engine,
		logger.GetLogger("report-handler"),
	)

	reportTopic := app.topicManager.GetReportTopic()
	if err := app.mqttClient.Subscribe(reportTopic, app.reportHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to report topic: %w", err)
	}

	app.snapshotPublisher = mq.NewSnapshotPublisher(
		app.mqttClient,
		app.topicManager,
		logger.GetLogger("snapshot-publisher"),
	)

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized MQTT client")

	return nil
}

func (app *Application) initializeHTTP() {
	server := api.NewServer(app.engine, app.hub, logger.GetLogger("api"))

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port),
		Handler: server.Router(),
	}
}

func (app *Application) run() error {
	errChan := make(chan error, 1)

	go func() {
		log.Info().
			Str("component", "main").
			Str("addr", app.httpServer.Addr).
			Msg("HTTP server listening")
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case sig := <-app.shutdownChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errChan:
		log.Error().Err(err).Msg("HTTP server failed")
	case <-app.ctx.Done():
		log.Info().Msg("Context cancelled, shutting down application")
	}

	return app.shutdown()
}

func (app *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	if app.mqttClient != nil {
		app.mqttClient.Disconnect()
	}

	if app.influxDB != nil {
		app.influxDB.Close()
	}

	if app.postgresDB != nil {
		if err := app.postgresDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		}
	}

	app.cancelFunc()
	return nil
}
