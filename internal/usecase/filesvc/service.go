package filesvc

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/sir_venger/omnifileserve/internal/models"
	"github.com/sir_venger/omnifileserve/internal/storage"
)

// Service объединяет операции над файлами хранилища. Каждая операция сначала
// проверяет путь через storage.Root.Resolve; ошибка обхода корня прерывает её
// до любого обращения к ФС. Общего изменяемого состояния нет, блокировки на время
// I/O не берутся: одновременные записи в один путь разруливает ФС (побеждает последний).
type Service interface {
	Create(ctx context.Context, rel string, r io.Reader) (string, error)
	Replace(ctx context.Context, rel string, r io.Reader) (string, error)
	Read(ctx context.Context, rel string) (models.StoredFile, error)
	Delete(ctx context.Context, rel string) (string, error)
	Pull(ctx context.Context, rel string) (*models.Download, error)
	List(ctx context.Context, rel string) ([]string, error)
}

type Deps struct {
	Root   *storage.Root
	Logger *zap.Logger
}

type Files struct {
	Deps
}

// New конструирует сервис поверх корня хранилища.
func New(deps Deps) *Files {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Files{Deps: deps}
}

var _ Service = (*Files)(nil)

// resolve проверяет путь и пишет предупреждение о попытке выхода за корень.
func (s *Files) resolve(op, rel string) (storage.ResolvedPath, error) {
	p, err := s.Root.Resolve(rel)
	if err != nil {
		if errors.Is(err, models.ErrTraversal) {
			s.Logger.Warn("path rejected", zap.String("op", op), zap.String("path", rel), zap.Error(err))
		}
		return storage.ResolvedPath{}, err
	}
	return p, nil
}
