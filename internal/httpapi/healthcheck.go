package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"wifisurvey/internal/migrate"
	"wifisurvey/internal/utils"
)

type healthResponse struct {
	Status string        `json:"status"`
	Schema migrate.State `json:"schema"`
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type storeHealthchecker struct {
	db *sql.DB
}

func newHealthchecker(db *sql.DB) healthchecker {
	return &storeHealthchecker{db: db}
}

// handleHealthz answers 200 only when the store is reachable and every
// embedded migration has been applied.
func (h *storeHealthchecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Error("healthz: store unreachable", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	state, err := migrate.Status(r.Context(), h.db)
	if err != nil {
		slog.Error("healthz: schema status failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to read schema state")
		return
	}
	if state.Pending > 0 {
		utils.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "migrations pending", Schema: state})
		return
	}
	utils.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Schema: state})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB) {
	mux.HandleFunc("GET /healthz", newHealthchecker(db).handleHealthz)
}
