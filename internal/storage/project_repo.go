package storage

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/voxel-studio/internal/project"
)

// ErrProjectNotFound возвращается при обращении к несуществующему проекту
var ErrProjectNotFound = errors.New("проект не найден")

// ProjectInfo содержит сводку по сохранённому проекту
type ProjectInfo struct {
	ID         string    // Идентификатор проекта (UUID)
	Name       string    // Имя проекта
	BlockCount int       // Количество блоков
	SavedAt    time.Time // Время последнего сохранения
}

// ProjectRepo определяет интерфейс хранилища проектов.
// Идентификаторы проектов — UUID; реализация отвечает за
// долговечность, сериализацию выполняет пакет project.
type ProjectRepo interface {
	// Save сохраняет проект под указанным идентификатором
	Save(ctx context.Context, id string, f *project.File) error

	// Load загружает проект. Возвращает ErrProjectNotFound, если
	// проект с таким идентификатором не сохранялся.
	Load(ctx context.Context, id string) (*project.File, error)

	// List возвращает сводки по всем сохранённым проектам
	List(ctx context.Context) ([]ProjectInfo, error)

	// Delete удаляет сохранённый проект
	Delete(ctx context.Context, id string) error

	// Close закрывает хранилище
	Close() error
}
