package models

import "errors"

var (
	// ErrTraversal — путь после нормализации выходит за пределы корня хранилища.
	ErrTraversal     = errors.New("invalid path")
	ErrAlreadyExists = errors.New("file already exists")
	ErrNotFound      = errors.New("file not found")
	ErrNotADirectory = errors.New("path is not a directory")
	// ErrIsDirectory возвращается, когда целью записи/чтения оказался каталог.
	ErrIsDirectory = errors.New("path is a directory")
	// ErrNotText — содержимое нельзя отдать как текст, нужен /pull.
	ErrNotText = errors.New("file content is not valid utf-8 text")
)
