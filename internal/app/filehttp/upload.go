package filehttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sir_venger/omnifileserve/pkg/fileproto"
	"github.com/sir_venger/omnifileserve/pkg/httperrors"
)

var errMissingFileName = errors.New("missing file name")

// uploadedFile разбирает multipart-форму и открывает поле file.
// Вызывающий закрывает файл и чистит r.MultipartForm.
func uploadedFile(r *http.Request) (multipart.File, string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, "", err
	}

	file, header, err := r.FormFile(fileproto.FormFieldFile)
	if err != nil {
		return nil, "", err
	}

	return file, rawFileName(header), nil
}

// rawFileName берёт имя из Content-Disposition как есть. multipart.FileHeader.Filename
// уже обрезан до базового имени, а клиент вправе прислать "dir/file.txt".
func rawFileName(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}
	return strings.TrimSpace(header.Filename)
}

// requestBody возвращает содержимое для PUT: поле file multipart-формы либо сырое тело.
func requestBody(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	file, _, err := uploadedFile(r)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// formError отвечает 413 для превышения лимита и 400 для остальных проблем с формой.
func (a *Server) formError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		a.fail(w, r, err)
	case errors.Is(err, http.ErrMissingFile):
		httperrors.WriteDetail(w, http.StatusBadRequest, fmt.Sprintf("missing %q form field", fileproto.FormFieldFile))
	default:
		httperrors.WriteDetail(w, http.StatusBadRequest, "invalid upload: "+err.Error())
	}
}

// limitBody ограничивает тело запроса. Заявленный Content-Length сверх лимита
// отклоняется сразу, тело без длины обрежет http.MaxBytesReader.
func (a *Server) limitBody(w http.ResponseWriter, r *http.Request) bool {
	if r.ContentLength > a.maxUpload {
		a.fail(w, r, &http.MaxBytesError{Limit: a.maxUpload})
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	return true
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
