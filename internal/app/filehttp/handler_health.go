package filehttp

import (
	"net/http"

	"github.com/sir_venger/omnifileserve/internal/storage"
	"github.com/sir_venger/omnifileserve/pkg/fileproto"
)

// health возвращает агрегированную статистику по хранилищу.
func (a *Server) health(w http.ResponseWriter, r *http.Request) {
	total, files, err := storage.Usage(a.root)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.HealthResponse{
		OK:         true,
		TotalBytes: total,
		Files:      files,
	})
}
