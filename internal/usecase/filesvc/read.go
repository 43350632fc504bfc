package filesvc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sir_venger/omnifileserve/internal/models"
	"github.com/sir_venger/omnifileserve/internal/storage"
)

// Read возвращает содержимое файла как текст вместе с путём, который прислал клиент.
func (s *Files) Read(_ context.Context, rel string) (models.StoredFile, error) {
	target, err := s.resolve("read", rel)
	if err != nil {
		return models.StoredFile{}, err
	}
	if err = requireFile(target); err != nil {
		return models.StoredFile{}, fmt.Errorf("read %q: %w", rel, err)
	}

	b, err := os.ReadFile(target.Abs())
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("read %q: %w", rel, notFoundOr(err))
	}
	if !utf8.Valid(b) {
		return models.StoredFile{}, fmt.Errorf("read %q: %w", rel, models.ErrNotText)
	}

	return models.StoredFile{Path: rel, Content: string(b)}, nil
}

// Pull открывает файл для передачи как есть. Клиенту отдаётся только последний сегмент пути.
func (s *Files) Pull(_ context.Context, rel string) (*models.Download, error) {
	target, err := s.resolve("pull", rel)
	if err != nil {
		return nil, err
	}
	if err = requireFile(target); err != nil {
		return nil, fmt.Errorf("pull %q: %w", rel, err)
	}

	f, err := os.Open(target.Abs())
	if err != nil {
		return nil, fmt.Errorf("pull %q: %w", rel, notFoundOr(err))
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("pull %q: %w", rel, err)
	}

	return &models.Download{
		Name:    target.Base(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Body:    f,
	}, nil
}

// Delete удаляет ровно один файл; каталоги не трогает.
func (s *Files) Delete(_ context.Context, rel string) (string, error) {
	target, err := s.resolve("delete", rel)
	if err != nil {
		return "", err
	}
	if err = requireFile(target); err != nil {
		return "", fmt.Errorf("delete %q: %w", rel, err)
	}

	if err = os.Remove(target.Abs()); err != nil {
		return "", fmt.Errorf("delete %q: %w", rel, notFoundOr(err))
	}

	s.Logger.Debug("file deleted", zap.String("path", target.Rel()))

	return target.Rel(), nil
}

// requireFile: отсутствие, каталог и прочие не обычные файлы (FIFO, устройства, сокеты)
// одинаково дают models.ErrNotFound.
func requireFile(target storage.ResolvedPath) error {
	if target.IsRoot() {
		return models.ErrNotFound
	}

	info, err := os.Stat(target.Abs())
	if err != nil {
		return notFoundOr(err)
	}
	if !info.Mode().IsRegular() {
		return models.ErrNotFound
	}

	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// notFoundOr переводит отсутствие файла в models.ErrNotFound; прочие ошибки ФС
// (права, диск, I/O) возвращаются как есть.
func notFoundOr(err error) error {
	if isNotExist(err) {
		return models.ErrNotFound
	}
	return err
}
