package filehttp

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sir_venger/omnifileserve/internal/storage"
	"github.com/sir_venger/omnifileserve/pkg/fileproto"
)

// gcOnce вручную запускает уборку старых staging-файлов.
func (a *Server) gcOnce(w http.ResponseWriter, r *http.Request) {
	removed, err := storage.SweepOnce(a.root, a.gcTTL)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileproto.GCResponse{Removed: removed})
}

// StartGC стартует периодическую уборку staging-файлов. Возвращает функцию остановки.
func StartGC(root *storage.Root, ttl time.Duration, every time.Duration, log *zap.Logger) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}
	if log == nil {
		log = zap.NewNop()
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				removed, err := storage.SweepOnce(root, ttl)
				if err != nil {
					log.Warn("staging sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("staging sweep", zap.Int("removed", removed))
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}
