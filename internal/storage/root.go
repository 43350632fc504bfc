// Package storage отвечает за корень хранилища: превращает клиентский относительный путь
// в проверенный абсолютный путь внутри корня, обходит дерево каталогов и выполняет
// атомарную запись файлов через промежуточные staging-файлы.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/sir_venger/omnifileserve/internal/models"
)

// Root — корень хранилища. Значение неизменяемо после NewRoot и может
// использоваться из любого числа горутин.
type Root struct {
	dir string
}

// ResolvedPath — проверенный путь внутри корня. Создаётся только через Root.Resolve,
// поэтому ни одна операция не обращается к ФС по непроверенной строке.
type ResolvedPath struct {
	abs string
	rel string
}

// NewRoot создаёт каталог при необходимости и фиксирует его канонический абсолютный путь.
func NewRoot(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage root is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute storage root: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonical storage root: %w", err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s: %w", canonical, models.ErrNotADirectory)
	}

	return &Root{dir: canonical}, nil
}

// Dir возвращает канонический абсолютный путь корня.
func (r *Root) Dir() string {
	return r.dir
}

// Resolve проверяет относительный путь клиента и возвращает его каноническое
// положение внутри корня. Ведущие разделители отбрасываются, "." и ".." схлопываются,
// символические ссылки раскрываются по существующей части цепочки родителей.
func (r *Root) Resolve(rel string) (ResolvedPath, error) {
	if strings.IndexByte(rel, 0) >= 0 {
		return ResolvedPath{}, fmt.Errorf("%w: %q contains NUL byte", models.ErrTraversal, rel)
	}

	cleaned := strings.TrimLeft(filepath.FromSlash(rel), string(filepath.Separator))
	candidate := filepath.Join(r.dir, cleaned)

	canonical, err := canonicalize(candidate)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve %q: %w", rel, err)
	}

	inside, ok := r.relative(canonical)
	if !ok {
		return ResolvedPath{}, fmt.Errorf("%w: %q escapes storage root", models.ErrTraversal, rel)
	}
	// имена staging-файлов зарезервированы: такие файлы скрыты от List и удаляются GC
	if slices.ContainsFunc(strings.Split(inside, "/"), isStagingName) {
		return ResolvedPath{}, fmt.Errorf("%w: %q uses a reserved name", models.ErrTraversal, rel)
	}

	return ResolvedPath{abs: canonical, rel: inside}, nil
}

// relative возвращает slash-путь abs относительно корня, если abs лежит внутри него.
// Сравнение идёт по компонентам, поэтому соседний "/data/store2" не проходит для "/data/store".
func (r *Root) relative(abs string) (string, bool) {
	rel, err := filepath.Rel(r.dir, abs)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if !filepath.IsLocal(rel) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

// canonicalize раскрывает символические ссылки в самом длинном существующем префиксе
// пути и дописывает к нему несуществующий хвост. p уже очищен filepath.Join.
func canonicalize(p string) (string, error) {
	var tail []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !isMissing(err) {
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}

// isMissing считает отсутствующим и путь, в цепочке которого встретился обычный файл.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Abs — абсолютный канонический путь.
func (p ResolvedPath) Abs() string {
	return p.abs
}

// Rel — путь относительно корня через "/"; пустая строка для самого корня.
func (p ResolvedPath) Rel() string {
	return p.rel
}

// Base — последний сегмент пути, без каталогов.
func (p ResolvedPath) Base() string {
	if p.rel == "" {
		return ""
	}
	return path.Base(p.rel)
}

func (p ResolvedPath) IsRoot() bool {
	return p.rel == ""
}

func (p ResolvedPath) String() string {
	return p.rel
}
