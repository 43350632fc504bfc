package storage

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
)

// walkItem — ожидающая обработки запись каталога.
type walkItem struct {
	abs   string
	entry fs.DirEntry
}

// Walk лениво обходит каталог dir в глубину и выдаёт пути файлов относительно корня.
// На каждом уровне записи идут в лексикографическом порядке имён, подкаталог раскрывается
// на месте (pre-order). Сами каталоги и staging-файлы не выдаются. Вместо рекурсии
// используется явный стек, поэтому глубина дерева не ограничена стеком горутины.
//
// Каждый range по результату начинает обход заново.
func (r *Root) Walk(dir ResolvedPath) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var stack []walkItem

		push := func(abs string) error {
			entries, err := os.ReadDir(abs)
			if err != nil {
				return err
			}
			// ReadDir сортирует по имени; кладём в обратном порядке, чтобы снимать по возрастанию.
			for _, e := range slices.Backward(entries) {
				stack = append(stack, walkItem{abs: filepath.Join(abs, e.Name()), entry: e})
			}
			return nil
		}

		if err := push(dir.abs); err != nil {
			yield("", err)
			return
		}

		for len(stack) > 0 {
			item := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if isStagingName(item.entry.Name()) {
				continue
			}

			isDir, isFile, err := r.classify(item)
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}

			switch {
			case isDir:
				if err = push(item.abs); err != nil && !yield("", err) {
					return
				}
			case isFile:
				rel, ok := r.relative(item.abs)
				if !ok {
					continue
				}
				if !yield(rel, nil) {
					return
				}
			}
		}
	}
}

// classify определяет тип записи. Символическая ссылка считается файлом, только если
// она указывает на обычный файл внутри корня; по ссылкам на каталоги обход не спускается,
// чтобы не зациклиться.
func (r *Root) classify(item walkItem) (isDir, isFile bool, err error) {
	mode := item.entry.Type()
	switch {
	case mode.IsDir():
		return true, false, nil
	case mode.IsRegular():
		return false, true, nil
	case mode&fs.ModeSymlink == 0:
		// сокеты, устройства и прочее не являются хранимыми файлами
		return false, false, nil
	}

	target, err := filepath.EvalSymlinks(item.abs)
	if err != nil {
		// висячая ссылка
		return false, false, nil
	}
	if _, inside := r.relative(target); !inside {
		return false, false, nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return false, false, err
	}

	return false, info.Mode().IsRegular(), nil
}
