package filehttp

import (
	"net/http"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
)

// listFiles возвращает все файлы под каталогом из query-параметра path (по умолчанию корень).
func (a *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := a.files.List(r.Context(), r.URL.Query().Get(fileproto.QueryPath))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.ListResponse{Files: files})
}
