package filesvc

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/sir_venger/omnifileserve/internal/models"
	"github.com/sir_venger/omnifileserve/internal/storage"
)

// Create сохраняет новый файл и возвращает его путь относительно корня.
// Существующий файл не перезаписывается: models.ErrAlreadyExists.
func (s *Files) Create(ctx context.Context, rel string, r io.Reader) (string, error) {
	return s.write(ctx, "create", rel, r, false)
}

// Replace записывает файл, перезаписывая существующий или создавая новый.
func (s *Files) Replace(ctx context.Context, rel string, r io.Reader) (string, error) {
	return s.write(ctx, "replace", rel, r, true)
}

func (s *Files) write(ctx context.Context, op, rel string, r io.Reader, overwrite bool) (string, error) {
	target, err := s.resolve(op, rel)
	if err != nil {
		return "", err
	}

	if err = checkWriteTarget(target, overwrite); err != nil {
		return "", fmt.Errorf("%s %q: %w", op, rel, err)
	}

	staged, err := s.Root.Stage(target)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", op, rel, err)
	}
	defer staged.Discard()

	n, err := staged.Fill(ctx, r)
	if err != nil {
		return "", fmt.Errorf("%s %q: write content: %w", op, rel, err)
	}
	if err = ctx.Err(); err != nil {
		return "", fmt.Errorf("%s %q: %w", op, rel, err)
	}

	if err = staged.Commit(target, overwrite); err != nil {
		return "", fmt.Errorf("%s %q: %w", op, rel, err)
	}

	s.Logger.Debug("file stored",
		zap.String("op", op),
		zap.String("path", target.Rel()),
		zap.Int64("bytes", n),
	)

	return target.Rel(), nil
}

// checkWriteTarget отсекает очевидные конфликты до приёма тела запроса.
// Окончательную проверку на существование для Create делает Commit.
func checkWriteTarget(target storage.ResolvedPath, overwrite bool) error {
	if target.IsRoot() {
		return models.ErrIsDirectory
	}

	info, err := os.Lstat(target.Abs())
	switch {
	case err != nil:
		if isNotExist(err) {
			return nil
		}
		return err
	case info.IsDir():
		return models.ErrIsDirectory
	case !overwrite:
		return models.ErrAlreadyExists
	}

	return nil
}
