// Package project реализует схему файла проекта: экспорт содержимого
// хранилища в JSON и загрузку с проверкой схемы. Некорректные блоки
// при загрузке пропускаются с подсчётом, а не валят загрузку целиком.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CurrentVersion — версия схемы файла проекта
const CurrentVersion = "1.0"

// Dimensions описывает размеры сетки проекта
type Dimensions struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// BlockEntry описывает один блок в файле проекта
type BlockEntry struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Type  string `json:"type"`
	Layer string `json:"layer,omitempty"`
}

// BlockTypeDef описывает тип блока в файле проекта
type BlockTypeDef struct {
	Color        string `json:"color"`
	HatchPattern string `json:"hatchPattern"`
}

// File представляет файл проекта целиком
type File struct {
	Version      string                  `json:"version"`
	Name         string                  `json:"name"`
	Created      time.Time               `json:"created"`
	Dimensions   Dimensions              `json:"dimensions"`
	CurrentView  string                  `json:"currentView,omitempty"`
	CurrentLevel int                     `json:"currentLevel"`
	Blocks       []BlockEntry            `json:"blocks"`
	BlockTypes   map[string]BlockTypeDef `json:"blockTypes"`
	BlockCount   int                     `json:"blockCount"`
}

// LoadReport сообщает, сколько записей было отброшено при загрузке и почему
type LoadReport struct {
	Dropped int      // Количество отброшенных блоков
	Reasons []string // Причины (по одной на отброшенный блок)
}

var projectSchema = jsonschema.MustCompileString("project.schema.json", schemaJSON)

// Export собирает файл проекта из текущего состояния хранилища.
// Блоки сортируются по (z, y, x): экспорт детерминирован.
func Export(store *voxel.VoxelStore, reg *block.Registry, name, currentView string, currentLevel int) *File {
	cfg := store.Config()
	blocks := store.AllBlocks()
	sort.Slice(blocks, func(i, j int) bool {
		a, b := blocks[i].Pos, blocks[j].Pos
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	entries := make([]BlockEntry, 0, len(blocks))
	for _, b := range blocks {
		entries = append(entries, BlockEntry{
			X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z,
			Type:  string(b.Type),
			Layer: b.Layer,
		})
	}

	types := make(map[string]BlockTypeDef)
	for id, bt := range reg.All() {
		types[string(id)] = BlockTypeDef{
			Color:        bt.Color,
			HatchPattern: string(bt.Hatch),
		}
	}

	return &File{
		Version:      CurrentVersion,
		Name:         name,
		Created:      time.Now().UTC(),
		Dimensions:   Dimensions{X: cfg.GridX, Y: cfg.GridY, Z: cfg.GridZ},
		CurrentView:  currentView,
		CurrentLevel: currentLevel,
		Blocks:       entries,
		BlockTypes:   types,
		BlockCount:   len(entries),
	}
}

// Marshal сериализует файл проекта в JSON
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("сериализация проекта: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse разбирает и валидирует файл проекта. Некорректный JSON и
// нарушение схемы — структурные ошибки с описанием причины.
func Parse(data []byte) (*File, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("файл проекта не является корректным JSON: %w", err)
	}
	if err := projectSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("файл проекта не соответствует схеме: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("разбор файла проекта: %w", err)
	}
	return &f, nil
}

// Apply применяет файл проекта к хранилищу и реестру типов.
// Типы из файла регистрируются в реестре; блоки вне координатного
// домена или с неизвестным типом пропускаются и попадают в отчёт.
// Содержимое хранилища замещается одним восстановлением слепка
// (одна запись истории на загрузку).
func Apply(f *File, store *voxel.VoxelStore, reg *block.Registry) (*LoadReport, error) {
	for id, def := range f.BlockTypes {
		bt := block.BlockType{
			ID:    block.TypeID(id),
			Name:  id,
			Color: def.Color,
			Hatch: block.HatchPattern(def.HatchPattern),
		}
		if err := reg.Register(bt); err != nil {
			return nil, fmt.Errorf("тип блока из проекта: %w", err)
		}
	}

	report := &LoadReport{}
	now := time.Now().UTC()
	blocks := make(map[vec.Vec3]voxel.Block, len(f.Blocks))
	for _, e := range f.Blocks {
		pos := vec.Vec3{X: e.X, Y: e.Y, Z: e.Z}
		if !store.InBounds(pos) {
			report.Dropped++
			report.Reasons = append(report.Reasons,
				fmt.Sprintf("блок (%d,%d,%d) вне координатного домена", e.X, e.Y, e.Z))
			continue
		}
		if !reg.IsValidTypeID(block.TypeID(e.Type)) {
			report.Dropped++
			report.Reasons = append(report.Reasons,
				fmt.Sprintf("блок (%d,%d,%d): неизвестный тип %q", e.X, e.Y, e.Z, e.Type))
			continue
		}
		blocks[pos] = voxel.Block{
			Pos:      pos,
			Type:     block.TypeID(e.Type),
			Layer:    e.Layer,
			Created:  now,
			Modified: now,
		}
	}

	if len(blocks) > store.Config().MaxBlocks {
		return report, voxel.ErrBlockLimit
	}

	store.RestoreSnapshot(voxel.Snapshot{
		Blocks: blocks,
		Count:  len(blocks),
		Label:  "load:" + f.Name,
		Taken:  now,
	})
	return report, nil
}
