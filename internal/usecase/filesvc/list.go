package filesvc

import (
	"context"
	"fmt"
	"os"

	"github.com/sir_venger/omnifileserve/internal/models"
)

// List возвращает пути всех файлов под каталогом rel (пустой rel означает весь корень)
// относительно корня, в порядке сортированного обхода в глубину. Никогда не nil.
func (s *Files) List(ctx context.Context, rel string) ([]string, error) {
	dir, err := s.resolve("list", rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir.Abs())
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", rel, notFoundOr(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %q: %w", rel, models.ErrNotADirectory)
	}

	files := []string{}
	for path, err := range s.Root.Walk(dir) {
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", rel, err)
		}
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	return files, nil
}
