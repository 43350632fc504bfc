package filehttp

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sir_venger/omnifileserve/internal/storage"
	"github.com/sir_venger/omnifileserve/internal/usecase/filesvc"
	"github.com/sir_venger/omnifileserve/pkg/fileproto"
	"github.com/sir_venger/omnifileserve/pkg/httperrors"
)

const (
	defaultMaxUploadBytes = 1 << 30
	defaultGCTTL          = 24 * time.Hour
	// multipartMemory — сколько multipart-данных держать в памяти, остальное уходит во временные файлы.
	multipartMemory = 32 << 20
)

// Server serves the file API on top of a storage root.
type Server struct {
	files     filesvc.Service
	root      *storage.Root
	log       *zap.Logger
	maxUpload int64
	gcTTL     time.Duration
}

type Option func(*Server)

// WithMaxUploadBytes ограничивает размер тела запросов на запись.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithGCTTL задаёт возраст staging-файлов для ручного GC.
func WithGCTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.gcTTL = ttl
		}
	}
}

// New создаёт HTTP-обработчик файлового сервиса.
func New(files filesvc.Service, root *storage.Root, log *zap.Logger, opts ...Option) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &Server{
		files:     files,
		root:      root,
		log:       log,
		maxUpload: defaultMaxUploadBytes,
		gcTTL:     defaultGCTTL,
	}
	for _, opt := range opts {
		opt(srv)
	}

	return srv.routes()
}

// routes регистрирует обработчики файлов, списка, выгрузки, здоровья и GC.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(a.log))
	r.Use(recoverer(a.log))

	r.Post(fileproto.FilesPath, a.createFile)
	r.Post("/files", a.createFile)
	r.Put(fileproto.FilesPath+"*", a.replaceFile)
	r.Get(fileproto.FilesPath+"*", a.readFile)
	r.Delete(fileproto.FilesPath+"*", a.deleteFile)

	r.Get(fileproto.ListPath, a.listFiles)
	r.Get("/list", a.listFiles)
	r.Get(fileproto.PullPath+"*", a.pullFile)

	r.Get(fileproto.HealthPath, a.health)
	r.Post(fileproto.GCPath, a.gcOnce)

	return r
}

// fail пишет ошибку клиенту и логирует неожиданные.
func (a *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := httperrors.Write(w, err)
	if code >= http.StatusInternalServerError {
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", fileproto.ContentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// pathParam возвращает хвост URL после префикса маршрута. chi матчит по RawPath,
// если он задан, поэтому экранированные последовательности раскрываем сами.
func pathParam(r *http.Request) (string, error) {
	p := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return p, nil
	}
	return url.PathUnescape(p)
}
