package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Файлы с расширением .gz сохраняются gzip-сжатыми; формат
// определяется по имени файла при чтении и записи.

// WriteFile сериализует проект и записывает его на диск
func WriteFile(f *File, path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}

	if strings.HasSuffix(path, ".gz") {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(data); err != nil {
			return fmt.Errorf("сжатие проекта: %w", err)
		}
		if err := gw.Close(); err != nil {
			return fmt.Errorf("сжатие проекта: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("запись файла проекта: %w", err)
	}
	return nil
}

// ReadFile читает файл проекта с диска и разбирает его
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение файла проекта: %w", err)
	}

	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("распаковка проекта: %w", err)
		}
		defer gr.Close()
		data, err = io.ReadAll(gr)
		if err != nil {
			return nil, fmt.Errorf("распаковка проекта: %w", err)
		}
	}

	return Parse(data)
}
