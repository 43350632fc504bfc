package models

import (
	"io"
	"time"
)

// StoredFile — файл, прочитанный целиком и отданный клиенту как текст.
type StoredFile struct {
	Path    string `json:"file_name"`
	Content string `json:"content"`
}

// Download описывает открытый поток файла для прямой передачи клиенту.
// Body закрывает вызывающая сторона.
type Download struct {
	Name    string
	Size    int64
	ModTime time.Time
	Body    io.ReadCloser
}
