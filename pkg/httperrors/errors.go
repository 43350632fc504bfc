package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/omnifileserve/internal/models"
	"github.com/sir_venger/omnifileserve/pkg/fileproto"
)

// Status сопоставляет ошибку доменного слоя с HTTP-статусом.
func Status(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, models.ErrTraversal),
		errors.Is(err, models.ErrNotADirectory),
		errors.Is(err, models.ErrIsDirectory):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotText):
		return http.StatusUnprocessableEntity
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Write отвечает клиенту JSON-телом {"detail": ...}. Текст внутренних ошибок
// не раскрывается: в нём могут быть абсолютные пути сервера.
func Write(w http.ResponseWriter, err error) int {
	code := Status(err)
	detail := err.Error()
	if code == http.StatusInternalServerError {
		detail = http.StatusText(code)
	}

	WriteDetail(w, code, detail)
	return code
}

// WriteDetail пишет ошибку с явным статусом, например для невалидной формы.
func WriteDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", fileproto.ContentTypeJSON)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(fileproto.ErrorResponse{Detail: detail})
}
