package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sir_venger/omnifileserve/internal/models"
)

const (
	stagingPrefix = ".omnifile-"
	stagingSuffix = ".part"
)

// isStagingName сообщает, принадлежит ли имя незавершённой записи.
func isStagingName(name string) bool {
	return strings.HasPrefix(name, stagingPrefix) && strings.HasSuffix(name, stagingSuffix)
}

// Staged — промежуточный файл рядом с целью записи. Содержимое появляется под
// целевым именем только после Commit, поэтому прерванная запись не оставляет
// обрезанный файл, максимум staging-файл, который уберёт GC.
type Staged struct {
	f    *os.File
	path string
	done bool
}

// Stage создаёт недостающие каталоги родителя target и открывает staging-файл в нём.
func (r *Root) Stage(target ResolvedPath) (*Staged, error) {
	if target.IsRoot() {
		return nil, fmt.Errorf("stage %q: %w", target.rel, models.ErrIsDirectory)
	}

	dir := filepath.Dir(target.abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs: %w", err)
	}

	name := filepath.Join(dir, stagingPrefix+uuid.NewString()+stagingSuffix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open staging file: %w", err)
	}

	return &Staged{f: f, path: name}, nil
}

// Fill копирует src в staging-файл. Отмена ctx прерывает копирование на следующем чтении.
func (s *Staged) Fill(ctx context.Context, src io.Reader) (int64, error) {
	return io.Copy(s.f, ctxReader{ctx: ctx, r: src})
}

// Commit публикует содержимое под именем target. При overwrite=false существующий
// файл не перезаписывается: os.Link атомарно падает с EEXIST.
func (s *Staged) Commit(target ResolvedPath, overwrite bool) error {
	if s.done {
		return fmt.Errorf("staging file already committed or discarded")
	}
	if err := s.f.Sync(); err != nil {
		return err
	}
	if err := s.f.Close(); err != nil {
		return err
	}

	if overwrite {
		if err := os.Rename(s.path, target.abs); err != nil {
			return err
		}
		s.done = true
		return nil
	}

	err := os.Link(s.path, target.abs)
	_ = os.Remove(s.path)
	s.done = true
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%q: %w", target.rel, models.ErrAlreadyExists)
	}

	return err
}

// Discard удаляет staging-файл, если Commit не состоялся. Безопасно вызывать через defer.
func (s *Staged) Discard() {
	if s == nil || s.done {
		return
	}
	s.done = true
	_ = s.f.Close()
	_ = os.Remove(s.path)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
