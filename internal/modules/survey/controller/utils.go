package controller

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"wifisurvey/internal/modules/survey/types"
	"wifisurvey/internal/utils"
)

// Form field names posted by the location page.
const (
	fieldSignal24     = "signal_2_4ghz"
	fieldSignal5      = "signal_5ghz"
	fieldSpeed24      = "speed_2_4ghz"
	fieldSpeed5       = "speed_5ghz"
	fieldInterference = "interference"
)

// parseID parses a positive integer path segment.
func parseID(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q (expected integer)", s)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %d (must be > 0)", id)
	}
	return id, nil
}

// parseMetricsForm reads the five measurement fields from a submitted form.
// Signal and interference are stored as whole dBm and are rounded.
func parseMetricsForm(r *http.Request) (types.Metrics, error) {
	if err := r.ParseForm(); err != nil {
		return types.Metrics{}, fmt.Errorf("parse form: %w", err)
	}
	var (
		m    types.Metrics
		errs []error
	)
	num := func(name string) float64 {
		raw := strings.TrimSpace(r.PostFormValue(name))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("invalid %s %q", name, raw))
			return 0
		}
		return v
	}
	whole := func(name string) int {
		v := math.Round(num(name))
		if math.Abs(v) > math.MaxInt32 {
			errs = append(errs, fmt.Errorf("%s %g out of range", name, v))
			return 0
		}
		return int(v)
	}
	m.Signal24 = whole(fieldSignal24)
	m.Signal5 = whole(fieldSignal5)
	m.Speed24 = num(fieldSpeed24)
	m.Speed5 = num(fieldSpeed5)
	m.Interference = whole(fieldInterference)
	if len(errs) > 0 {
		return types.Metrics{}, errors.Join(errs...)
	}
	return m, nil
}

// writeHTML renders into a buffer first so a template error can still
// produce a clean 500.
func writeHTML(w http.ResponseWriter, page string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("template render failed", "page", page, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteBody(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
