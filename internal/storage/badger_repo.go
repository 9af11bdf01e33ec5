package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/voxel-studio/internal/logging"
	"github.com/annel0/voxel-studio/internal/project"
	"github.com/dgraph-io/badger/v3"
)

const projectKeyPrefix = "project:"

// BadgerRepo хранит проекты в BadgerDB. Используется серверным режимом,
// где проекты переживают перезапуск без внешней СУБД.
type BadgerRepo struct {
	db      *badger.DB
	mu      sync.RWMutex
	isReady bool
}

// badgerRecord — формат значения в BadgerDB
type badgerRecord struct {
	Name       string          `json:"name"`
	BlockCount int             `json:"block_count"`
	SavedAt    time.Time       `json:"saved_at"`
	Project    json.RawMessage `json:"project"`
}

// NewBadgerRepo открывает хранилище проектов в указанном каталоге
func NewBadgerRepo(dataPath string) (*BadgerRepo, error) {
	dbPath := filepath.Join(dataPath, "projects")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	logging.GetStorageLogger().Info("💾 BadgerDB открыта: %s", dbPath)
	return &BadgerRepo{
		db:      db,
		isReady: true,
	}, nil
}

func projectKey(id string) []byte {
	return []byte(projectKeyPrefix + id)
}

// Save сохраняет проект в BadgerDB
func (r *BadgerRepo) Save(ctx context.Context, id string, f *project.File) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := f.Marshal()
	if err != nil {
		return err
	}
	rec, err := json.Marshal(badgerRecord{
		Name:       f.Name,
		BlockCount: f.BlockCount,
		SavedAt:    time.Now().UTC(),
		Project:    data,
	})
	if err != nil {
		return fmt.Errorf("сериализация записи проекта: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(projectKey(id), rec)
	})
}

// Load загружает проект из BadgerDB
func (r *BadgerRepo) Load(ctx context.Context, id string) (*project.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var rec badgerRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(projectKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("загрузка проекта %s: %w", id, err)
	}

	return project.Parse(rec.Project)
}

// List перечисляет сохранённые проекты по префиксу ключей
func (r *BadgerRepo) List(ctx context.Context) ([]ProjectInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	result := make([]ProjectInfo, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(projectKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(projectKeyPrefix):])
			err := item.Value(func(val []byte) error {
				var rec badgerRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				result = append(result, ProjectInfo{
					ID:         id,
					Name:       rec.Name,
					BlockCount: rec.BlockCount,
					SavedAt:    rec.SavedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("перечисление проектов: %w", err)
	}
	return result, nil
}

// Delete удаляет проект из BadgerDB
func (r *BadgerRepo) Delete(ctx context.Context, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(projectKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		return txn.Delete(projectKey(id))
	})
}

// Close закрывает хранилище
func (r *BadgerRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	return r.db.Close()
}
