package block

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile загружает описания типов блоков из YAML или JSON файла
// и регистрирует их в реестре. Формат определяется по расширению.
// Возвращает количество зарегистрированных типов.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("чтение файла типов блоков: %w", err)
	}

	var defs []BlockType
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return 0, fmt.Errorf("разбор YAML типов блоков %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &defs); err != nil {
			return 0, fmt.Errorf("разбор JSON типов блоков %s: %w", path, err)
		}
	default:
		return 0, fmt.Errorf("неподдерживаемый формат файла типов блоков: %s", path)
	}

	registered := 0
	for _, bt := range defs {
		if err := r.Register(bt); err != nil {
			return registered, fmt.Errorf("регистрация типа из %s: %w", path, err)
		}
		registered++
	}
	return registered, nil
}

// LoadDir загружает все YAML/JSON описания типов блоков из каталога.
// Отсутствие каталога не считается ошибкой: реестр остаётся базовым.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("чтение каталога типов блоков: %w", err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		n, err := r.LoadFile(filepath.Join(dir, e.Name()))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
