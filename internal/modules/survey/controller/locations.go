package controller

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"wifisurvey/internal/modules/survey/repository"
	"wifisurvey/internal/modules/survey/types"
	"wifisurvey/internal/modules/survey/views"
)

func (c *surveyControllerImpl) handleLocationDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		slog.Warn("location detail: bad id", "id", r.PathValue("id"), "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	location, err := c.repository.GetLocationWithClient(id)
	if err != nil {
		slog.Error("location detail: get location failed", "location_id", id, "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	measurements, err := c.repository.ListMeasurements(id)
	if err != nil {
		slog.Error("location detail: list measurements failed", "location_id", id, "error", err)
		measurements = []types.Measurement{}
	}

	data := &views.LocationDetailPage{Location: location, Measurements: measurements}
	writeHTML(w, "location_detail", func(out io.Writer) error {
		return views.RenderLocationDetail(out, data)
	})
}

func (c *surveyControllerImpl) handleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	locationID, err := parseID(raw)
	if err != nil {
		slog.Warn("add measurement: bad location id", "id", raw, "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	back := "/location/" + strconv.FormatInt(locationID, 10)

	metrics, err := parseMetricsForm(r)
	if err != nil {
		slog.Warn("add measurement: invalid form", "location_id", locationID, "error", err)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	measurementID, err := c.repository.InsertMeasurement(locationID, metrics)
	if err != nil {
		slog.Error("add measurement failed",
			"location_id", locationID,
			"constraint", repository.IsConstraintViolation(err),
			"error", err,
		)
	} else {
		slog.Info("measurement added", "location_id", locationID, "measurement_id", measurementID)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
