package survey

import (
	"database/sql"
	"log/slog"
	"net/http"

	"wifisurvey/internal/modules/survey/controller"
	"wifisurvey/internal/modules/survey/repository"
	"wifisurvey/internal/modules/survey/service"
	"wifisurvey/internal/mqtt"
)

// RegisterFeature wires the survey routes onto mux. When subscriber is
// non-nil, incoming probe measurements are stored as well.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.MQTTSubscriber) {
	surveyRepository := repository.NewRepository(db)
	surveyController := controller.NewSurveyController(surveyRepository)
	surveyController.RegisterRoutes(mux)

	if subscriber != nil {
		service.NewService(surveyRepository, slog.Default().With("module", "survey")).Register(subscriber)
	}
}
