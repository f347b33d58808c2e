package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"wifisurvey/internal/config"
	db "wifisurvey/internal/db"
	httpapi "wifisurvey/internal/httpapi"
	"wifisurvey/internal/migrate"
	survey "wifisurvey/internal/modules/survey"
	surveyviews "wifisurvey/internal/modules/survey/views"
	"wifisurvey/internal/mqtt"
)

// OpenStore opens the database and applies pending migrations. The caller
// owns the returned handle.
func OpenStore(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	applied, err := migrate.Run(dbConn)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}
	if applied > 0 {
		slog.Info("migrations applied", "count", applied)
	}
	return dbConn, nil
}

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogStatements", cfg.SQLiteLogStatements,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := OpenStore(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("database ready", "path", cfg.SQLitePath)

	if err := surveyviews.LoadTemplates(); err != nil {
		return err
	}

	// Set the MQTT handler before Connect: the broker may deliver queued
	// messages right after CONNACK.
	var (
		subscriber *mqtt.Subscriber
		telemetry  mqtt.MQTTSubscriber
	)
	if cfg.MQTTEnabled {
		subscriber, err = mqtt.NewSubscriber(cfg, slog.Default().With("component", "mqtt"))
		if err != nil {
			return err
		}
		telemetry = subscriber
	}

	mux := httpapi.NewMux(dbConn, cfg.StaticDir)
	survey.RegisterFeature(mux, dbConn, telemetry)

	if subscriber != nil {
		// A short timeout keeps startup from blocking when the broker is down.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
