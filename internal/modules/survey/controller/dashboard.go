package controller

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"wifisurvey/internal/modules/survey/charts"
	"wifisurvey/internal/modules/survey/quality"
	"wifisurvey/internal/modules/survey/types"
	"wifisurvey/internal/modules/survey/views"
	"wifisurvey/internal/utils"
)

func (c *surveyControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	clients, err := c.repository.ListClients()
	if err != nil {
		slog.Error("dashboard: list clients failed", "error", err)
		clients = []types.Client{}
	}
	writeHTML(w, "dashboard", func(out io.Writer) error {
		return views.RenderDashboard(out, &views.DashboardPage{Clients: clients})
	})
}

// handleDashboardData serves the per-location averages for one client.
func (c *surveyControllerImpl) handleDashboardData(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(r.PathValue("clientId"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := c.repository.DashboardAverages(clientID)
	if err != nil {
		slog.Error("dashboard data failed", "client_id", clientID, "error", err)
		utils.WriteErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *surveyControllerImpl) handleDashboardQuality(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(r.PathValue("clientId"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := c.repository.DashboardAverages(clientID)
	if err != nil {
		slog.Error("dashboard quality failed", "client_id", clientID, "error", err)
		utils.WriteErrorMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, quality.FromAverages(rows))
}

func (c *surveyControllerImpl) handleDashboardChart(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseID(r.PathValue("clientId"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	kind, ok := charts.ParseKind(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	rows, err := c.repository.DashboardAverages(clientID)
	if err != nil {
		slog.Error("dashboard chart: load averages failed", "client_id", clientID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load measurements")
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, kind, quality.FromAverages(rows)); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			http.NotFound(w, r)
			return
		}
		slog.Error("dashboard chart: render failed", "client_id", clientID, "kind", kind, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	utils.WriteBody(w, http.StatusOK, "image/png", buf.Bytes())
}
