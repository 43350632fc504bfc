package filehttp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
)

// createFile принимает multipart-загрузку нового файла. Если передано поле path,
// файл кладётся в этот каталог; имя файла может само содержать подкаталоги.
func (a *Server) createFile(w http.ResponseWriter, r *http.Request) {
	if !a.limitBody(w, r) {
		return
	}
	defer cleanupForm(r)

	file, name, err := uploadedFile(r)
	if err != nil {
		a.formError(w, r, err)
		return
	}
	defer file.Close()

	if name == "" {
		a.formError(w, r, errMissingFileName)
		return
	}

	rel := name
	if dir := strings.TrimSpace(r.FormValue(fileproto.FormFieldPath)); dir != "" {
		rel = dir + "/" + name
	}

	stored, err := a.files.Create(r.Context(), rel, file)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.MessageResponse{
		Message: fmt.Sprintf("File '%s' uploaded successfully", stored),
		Path:    stored,
	})
}
