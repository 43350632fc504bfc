package filehttp

import (
	"fmt"
	"net/http"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
	"github.com/sir_venger/omnifileserve/pkg/httperrors"
)

func (a *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	rel, err := pathParam(r)
	if err != nil {
		httperrors.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := a.files.Delete(r.Context(), rel)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.MessageResponse{
		Message: fmt.Sprintf("File '%s' deleted successfully", rel),
		Path:    removed,
	})
}
