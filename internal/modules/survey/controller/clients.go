package controller

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"wifisurvey/internal/modules/survey/repository"
	"wifisurvey/internal/modules/survey/types"
	"wifisurvey/internal/modules/survey/views"
)

func (c *surveyControllerImpl) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := c.repository.ListClients()
	if err != nil {
		slog.Error("clients: list failed", "error", err)
		clients = []types.Client{}
	}
	writeHTML(w, "clients", func(out io.Writer) error {
		return views.RenderClients(out, &views.ClientsPage{Clients: clients})
	})
}

func (c *surveyControllerImpl) handleAddClient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Warn("add client: parse form failed", "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	address := strings.TrimSpace(r.PostFormValue("address"))
	contact := strings.TrimSpace(r.PostFormValue("contact"))

	id, err := c.repository.InsertClient(name, address, contact)
	if err != nil {
		slog.Error("add client failed",
			"name", name,
			"address", address,
			"constraint", repository.IsConstraintViolation(err),
			"error", err,
		)
	} else {
		slog.Info("client added", "client_id", id, "name", name)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *surveyControllerImpl) handleClientDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		slog.Warn("client detail: bad id", "id", r.PathValue("id"), "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	client, err := c.repository.GetClient(id)
	if err != nil {
		slog.Error("client detail: get client failed", "client_id", id, "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	locations, err := c.repository.ListLocations(id)
	if err != nil {
		slog.Error("client detail: list locations failed", "client_id", id, "error", err)
		locations = []types.Location{}
	}

	data := &views.ClientDetailPage{Client: client, Locations: locations}
	writeHTML(w, "client_detail", func(out io.Writer) error {
		return views.RenderClientDetail(out, data)
	})
}

func (c *surveyControllerImpl) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	clientID, err := parseID(raw)
	if err != nil {
		slog.Warn("add location: bad client id", "id", raw, "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	back := "/client/" + strconv.FormatInt(clientID, 10)

	if err := r.ParseForm(); err != nil {
		slog.Warn("add location: parse form failed", "client_id", clientID, "error", err)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))

	locationID, err := c.repository.InsertLocation(clientID, name)
	if err != nil {
		slog.Error("add location failed",
			"client_id", clientID,
			"name", name,
			"constraint", repository.IsConstraintViolation(err),
			"error", err,
		)
	} else {
		slog.Info("location added", "client_id", clientID, "location_id", locationID, "name", name)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
