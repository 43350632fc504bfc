package filehttp

import (
	"fmt"
	"net/http"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
	"github.com/sir_venger/omnifileserve/pkg/httperrors"
)

// replaceFile перезаписывает файл по пути из URL или создаёт его.
func (a *Server) replaceFile(w http.ResponseWriter, r *http.Request) {
	rel, err := pathParam(r)
	if err != nil {
		httperrors.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if !a.limitBody(w, r) {
		return
	}
	defer cleanupForm(r)

	body, err := requestBody(r)
	if err != nil {
		a.formError(w, r, err)
		return
	}
	defer body.Close()

	stored, err := a.files.Replace(r.Context(), rel, body)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.MessageResponse{
		Message: fmt.Sprintf("File '%s' replaced successfully", rel),
		Path:    stored,
	})
}
