package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/annel0/voxel-studio/internal/project"
)

const fileExt = ".vxp.gz"

// FileRepo хранит проекты в каталоге файловой системы:
// по одному gzip-сжатому файлу <id>.vxp.gz на проект.
type FileRepo struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileRepo создаёт файловое хранилище проектов
func NewFileRepo(basePath string) (*FileRepo, error) {
	// Создаём директорию если её нет
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", basePath, err)
	}

	return &FileRepo{basePath: basePath}, nil
}

func (r *FileRepo) pathFor(id string) string {
	return filepath.Join(r.basePath, id+fileExt)
}

// Save записывает проект в файл
func (r *FileRepo) Save(ctx context.Context, id string, f *project.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return project.WriteFile(f, r.pathFor(id))
}

// Load читает проект из файла
func (r *FileRepo) Load(ctx context.Context, id string) (*project.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := project.ReadFile(r.pathFor(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// List перечисляет сохранённые проекты, читая сводку из каждого файла
func (r *FileRepo) List(ctx context.Context) ([]ProjectInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога проектов: %w", err)
	}

	result := make([]ProjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), fileExt)

		f, err := project.ReadFile(filepath.Join(r.basePath, e.Name()))
		if err != nil {
			// Повреждённый файл не должен прятать остальные проекты
			continue
		}
		info, _ := e.Info()
		pi := ProjectInfo{
			ID:         id,
			Name:       f.Name,
			BlockCount: f.BlockCount,
		}
		if info != nil {
			pi.SavedAt = info.ModTime().UTC()
		}
		result = append(result, pi)
	}
	return result, nil
}

// Delete удаляет файл проекта
func (r *FileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.pathFor(id))
	if os.IsNotExist(err) {
		return ErrProjectNotFound
	}
	return err
}

// Close ничего не делает для файлового хранилища
func (r *FileRepo) Close() error {
	return nil
}
