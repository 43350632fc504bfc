package filehttp

import (
	"net/http"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
	"github.com/sir_venger/omnifileserve/pkg/httperrors"
)

// readFile отдаёт содержимое файла как текст.
func (a *Server) readFile(w http.ResponseWriter, r *http.Request) {
	rel, err := pathParam(r)
	if err != nil {
		httperrors.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := a.files.Read(r.Context(), rel)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.ReadResponse{
		FileName: file.Path,
		Content:  file.Content,
	})
}
