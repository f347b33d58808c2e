package views

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"

	"wifisurvey/internal/modules/survey/quality"
	"wifisurvey/internal/modules/survey/types"
)

var pagesTmpl *template.Template

var funcs = template.FuncMap{
	"signalQuality": func(dbm int) string {
		return fmt.Sprintf("%.0f%%", quality.SignalQuality(float64(dbm)))
	},
	"interferenceQuality": func(dbm int) string {
		return fmt.Sprintf("%.0f%%", quality.InterferenceQuality(float64(dbm)))
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"mbps": func(v float64) string {
		return humanize.FormatFloat("#,###.#", v) + " Mbps"
	},
}

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	pagesTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded page templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type ClientsPage struct {
	Clients []types.Client
}

type ClientDetailPage struct {
	Client    types.Client
	Locations []types.Location
}

type LocationDetailPage struct {
	Location     types.LocationWithClient
	Measurements []types.Measurement
}

type DashboardPage struct {
	Clients []types.Client
}

func RenderClients(w io.Writer, data *ClientsPage) error {
	return render(w, "clients.html", data)
}

func RenderClientDetail(w io.Writer, data *ClientDetailPage) error {
	return render(w, "client_detail.html", data)
}

func RenderLocationDetail(w io.Writer, data *LocationDetailPage) error {
	return render(w, "location_detail.html", data)
}

func RenderDashboard(w io.Writer, data *DashboardPage) error {
	return render(w, "dashboard.html", data)
}

func render(w io.Writer, name string, data any) error {
	if pagesTmpl == nil {
		return errors.New("page templates not loaded: call views.LoadTemplates during startup")
	}
	return pagesTmpl.ExecuteTemplate(w, name, data)
}
