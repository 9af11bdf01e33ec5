package storage

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/voxel-studio/internal/project"
)

// MemoryRepo хранит проекты в памяти. Используется в тестах и как
// запасной вариант, когда долговечное хранилище не настроено.
type MemoryRepo struct {
	mu       sync.RWMutex
	projects map[string]*memoryRecord
}

type memoryRecord struct {
	data    []byte
	name    string
	count   int
	savedAt time.Time
}

// NewMemoryRepo создаёт пустое хранилище проектов в памяти
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		projects: make(map[string]*memoryRecord),
	}
}

// Save сохраняет сериализованную копию проекта
func (r *MemoryRepo) Save(ctx context.Context, id string, f *project.File) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[id] = &memoryRecord{
		data:    data,
		name:    f.Name,
		count:   f.BlockCount,
		savedAt: time.Now().UTC(),
	}
	return nil
}

// Load загружает проект из памяти
func (r *MemoryRepo) Load(ctx context.Context, id string) (*project.File, error) {
	r.mu.RLock()
	rec, exists := r.projects[id]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrProjectNotFound
	}
	return project.Parse(rec.data)
}

// List возвращает сводки сохранённых проектов
func (r *MemoryRepo) List(ctx context.Context) ([]ProjectInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ProjectInfo, 0, len(r.projects))
	for id, rec := range r.projects {
		result = append(result, ProjectInfo{
			ID:         id,
			Name:       rec.name,
			BlockCount: rec.count,
			SavedAt:    rec.savedAt,
		})
	}
	return result, nil
}

// Delete удаляет проект
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[id]; !exists {
		return ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}

// Close ничего не делает для хранилища в памяти
func (r *MemoryRepo) Close() error {
	return nil
}
