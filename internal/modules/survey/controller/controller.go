package controller

import (
	"net/http"

	"wifisurvey/internal/modules/survey/repository"
)

type SurveyController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type surveyControllerImpl struct {
	repository repository.SurveyRepository
}

func NewSurveyController(repository repository.SurveyRepository) SurveyController {
	return &surveyControllerImpl{repository: repository}
}

func (c *surveyControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleClients)
	mux.HandleFunc("POST /client/add", c.handleAddClient)
	mux.HandleFunc("GET /client/{id}", c.handleClientDetail)
	mux.HandleFunc("POST /client/{id}/location/add", c.handleAddLocation)
	mux.HandleFunc("GET /location/{id}", c.handleLocationDetail)
	mux.HandleFunc("POST /location/{id}/measurement/add", c.handleAddMeasurement)

	mux.HandleFunc("GET /dashboard", c.handleDashboard)
	mux.HandleFunc("GET /api/dashboard/client/{clientId}", c.handleDashboardData)
	mux.HandleFunc("GET /api/dashboard/client/{clientId}/quality", c.handleDashboardQuality)
	// Chart files are named "<kind>.png"; the pattern syntax cannot match a suffix.
	mux.HandleFunc("GET /dashboard/client/{clientId}/chart/{file}", c.handleDashboardChart)
}
