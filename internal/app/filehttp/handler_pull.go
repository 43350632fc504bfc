package filehttp

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
	"github.com/sir_venger/omnifileserve/pkg/httperrors"
)

// pullFile обслуживает GET-запросы, отдавая файл как есть. Имя для сохранения:
// только базовое имя, без каталогов.
func (a *Server) pullFile(w http.ResponseWriter, r *http.Request) {
	rel, err := pathParam(r)
	if err != nil {
		httperrors.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	dl, err := a.files.Pull(r.Context(), rel)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", fileproto.ContentTypeOctetStream)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.Header().Set("Last-Modified", dl.ModTime.UTC().Format(http.TimeFormat))

	// заголовки уже ушли, остаётся только залогировать обрыв
	if _, err = io.Copy(w, dl.Body); err != nil {
		a.log.Warn("pull interrupted", zap.String("path", rel), zap.Error(err))
	}
}
