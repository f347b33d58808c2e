// Package service stores measurements that arrive over MQTT.
package service

import (
	"errors"
	"log/slog"

	"wifisurvey/internal/modules/survey/repository"
	"wifisurvey/internal/modules/survey/types"
	"wifisurvey/internal/mqtt"
)

var errIncomplete = errors.New("measurement is missing one or more metrics")

type Service struct {
	repository repository.SurveyRepository
	logger     *slog.Logger
}

func NewService(repository repository.SurveyRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, logger: logger}
}

// Register attaches the ingestion handler. Call before the subscriber connects
// so no retained or queued message is missed.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(s.HandleTelemetry)
}

// HandleTelemetry inserts one probe measurement. The probe's timestamp is
// logged only; the store stamps the row on insert like a form submission.
func (s *Service) HandleTelemetry(telemetry types.Telemetry) error {
	s.logger.Debug("processing measurement message",
		"location_id", telemetry.LocationID,
		"timestamp", telemetry.Timestamp,
	)

	metrics, err := toMetrics(telemetry)
	if err != nil {
		return err
	}

	id, err := s.repository.InsertMeasurement(telemetry.LocationID, metrics)
	if err != nil {
		s.logger.Error("failed to insert measurement",
			"location_id", telemetry.LocationID,
			"constraint", repository.IsConstraintViolation(err),
			"error", err,
		)
		return err
	}

	s.logger.Debug("stored measurement",
		"location_id", telemetry.LocationID,
		"measurement_id", id,
	)
	return nil
}

func toMetrics(t types.Telemetry) (types.Metrics, error) {
	if t.Signal24 == nil || t.Signal5 == nil || t.Speed24 == nil || t.Speed5 == nil || t.Interference == nil {
		return types.Metrics{}, errIncomplete
	}
	return types.Metrics{
		Signal24:     *t.Signal24,
		Signal5:      *t.Signal5,
		Speed24:      *t.Speed24,
		Speed5:       *t.Speed5,
		Interference: *t.Interference,
	}, nil
}
