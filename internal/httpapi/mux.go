package httpapi

import (
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// NewMux returns the base router with the health check and, when staticDir
// exists, the static asset handler under /static/.
func NewMux(db *sql.DB, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	registerStatic(mux, staticDir)
	return mux
}

func registerStatic(mux *http.ServeMux, staticDir string) {
	if staticDir == "" {
		return
	}
	if fi, err := os.Stat(staticDir); err != nil || !fi.IsDir() {
		return
	}
	fs := http.FileServer(http.Dir(filepath.Clean(staticDir)))
	mux.Handle("GET /static/", http.StripPrefix("/static/", noDirListing(fs)))
}

// noDirListing hides the file server's generated index pages.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
