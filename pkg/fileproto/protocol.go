// Package fileproto описывает HTTP-протокол файлового сервиса: пути эндпоинтов,
// поля форм и JSON-ответы, общие для сервера и клиента.
package fileproto

// Пути и параметры REST-протокола.
const (
	FilesPath  = "/files/"
	ListPath   = "/list/"
	PullPath   = "/pull/"
	HealthPath = "/health"
	GCPath     = "/admin/gc"

	// FormFieldFile — multipart-поле с содержимым файла.
	FormFieldFile = "file"
	// FormFieldPath — необязательный каталог назначения при загрузке.
	FormFieldPath = "path"
	QueryPath     = "path"

	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeJSON        = "application/json"
)

// MessageResponse — ответ create/replace/delete.
type MessageResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ReadResponse — файл, отданный как текст.
type ReadResponse struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

type ListResponse struct {
	Files []string `json:"files"`
}

// ErrorResponse — тело любого ответа с ошибкой.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
	Files      int   `json:"files"`
}

type GCResponse struct {
	Removed int `json:"removed"`
}
