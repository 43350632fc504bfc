package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// SweepOnce удаляет staging-файлы старше ttl, оставшиеся после прерванных записей.
// Возвращает число удалённых файлов.
func SweepOnce(root *Root, ttl time.Duration) (int, error) {
	now := time.Now()
	removed := 0

	err := filepath.WalkDir(root.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// каталог могли удалить параллельно
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !isStagingName(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) < ttl {
			return nil
		}

		if err = os.Remove(p); err == nil {
			removed++
		}
		return nil
	})

	return removed, err
}

// Usage суммирует размер и число хранимых файлов под корнем.
func Usage(root *Root) (totalBytes int64, files int, err error) {
	err = filepath.WalkDir(root.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isStagingName(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		totalBytes += info.Size()
		files++

		return nil
	})

	return totalBytes, files, err
}
