// Package session собирает движок редактора в явный объект сеанса:
// хранилище, история, операции, реестр типов, текущий вид/уровень и
// камеры. Никакого неявного глобального состояния — сеанс создаётся
// при старте и явно передаётся всем участникам.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxel-studio/internal/eventbus"
	"github.com/annel0/voxel-studio/internal/projection"
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
	"github.com/annel0/voxel-studio/internal/voxel/edit"
)

// ToolKind перечисляет инструменты редактирования
type ToolKind string

const (
	ToolPlace ToolKind = "place"
	ToolErase ToolKind = "erase"
	ToolLine  ToolKind = "line"
	ToolRect  ToolKind = "rect"
	ToolFill  ToolKind = "fill"
)

// Config задаёт параметры сеанса
type Config struct {
	Store      voxel.StoreConfig
	FillBudget int
	Projection projection.Params
	Source     string // Имя источника для конвертов шины
}

// EditorSession владеет состоянием одного сеанса редактирования.
// Один логический редактор на сеанс: мутации приходят из одного
// потока управления, читатели (рендереры, REST) — из любых.
type EditorSession struct {
	store    *voxel.VoxelStore
	ops      *edit.Operations
	registry *block.Registry
	params   projection.Params
	bus      eventbus.EventBus
	source   string

	mu           sync.RWMutex
	currentView  projection.ViewType
	currentLevel int
	currentTool  ToolKind
	activeType   block.TypeID
	activeLayer  string
	cameras      map[projection.ViewType]projection.Camera
}

// New создаёт сеанс редактирования. bus может быть nil:
// тогда события наружу не публикуются.
func New(cfg Config, reg *block.Registry, bus eventbus.EventBus) *EditorSession {
	if reg == nil {
		reg = block.NewDefaultRegistry()
	}
	if cfg.Projection.BlockSize == 0 {
		cfg.Projection = projection.DefaultParams()
	}
	if cfg.Source == "" {
		cfg.Source = "editor"
	}
	cfg.Projection.GridZ = cfg.Store.GridZ
	if cfg.Projection.GridZ == 0 {
		cfg.Projection.GridZ = voxel.DefaultGridZ
	}

	store := voxel.NewVoxelStore(cfg.Store)

	cameras := make(map[projection.ViewType]projection.Camera, len(projection.AllViews))
	for _, v := range projection.AllViews {
		cameras[v] = projection.NewCamera()
	}

	s := &EditorSession{
		store:        store,
		ops:          edit.NewOperations(store, reg, cfg.FillBudget),
		registry:     reg,
		params:       cfg.Projection,
		bus:          bus,
		source:       cfg.Source,
		currentView:  projection.ViewTop,
		currentLevel: 0,
		currentTool:  ToolPlace,
		activeType:   block.TypeConcrete,
		activeLayer:  "",
		cameras:      cameras,
	}

	// Мост хранилище -> шина: уведомление слушателей завершает
	// фиксированный порядок эмиссии (мутация, история, индекс, слушатели)
	store.AddListener(voxel.ChangeListenerFunc(s.publishBlocksChanged))
	return s
}

// Store возвращает хранилище сеанса
func (s *EditorSession) Store() *voxel.VoxelStore { return s.store }

// Ops возвращает операции редактирования сеанса
func (s *EditorSession) Ops() *edit.Operations { return s.ops }

// Registry возвращает реестр типов блоков сеанса
func (s *EditorSession) Registry() *block.Registry { return s.registry }

// Params возвращает экранные параметры проекций
func (s *EditorSession) Params() projection.Params { return s.params }

// CurrentView возвращает активную проекцию
func (s *EditorSession) CurrentView() projection.ViewType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentView
}

// SetView переключает активную проекцию и публикует ViewChanged
func (s *EditorSession) SetView(v projection.ViewType) error {
	if _, err := projection.ParseViewType(string(v)); err != nil {
		return err
	}
	s.mu.Lock()
	if s.currentView == v {
		s.mu.Unlock()
		return nil
	}
	s.currentView = v
	s.mu.Unlock()

	s.publish(eventbus.EventViewChanged, map[string]any{"view": string(v)}, 3)
	return nil
}

// CurrentLevel возвращает текущий уровень редактирования
func (s *EditorSession) CurrentLevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLevel
}

// SetLevel переключает уровень и публикует LevelChanged
func (s *EditorSession) SetLevel(z int) error {
	if z < 0 || z >= s.store.Config().GridZ {
		return voxel.ErrOutOfBounds
	}
	s.mu.Lock()
	if s.currentLevel == z {
		s.mu.Unlock()
		return nil
	}
	s.currentLevel = z
	s.mu.Unlock()

	s.publish(eventbus.EventLevelChanged, map[string]any{"level": z, "name": LevelName(z)}, 3)
	return nil
}

// CurrentTool возвращает активный инструмент
func (s *EditorSession) CurrentTool() ToolKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTool
}

// SetTool переключает активный инструмент
func (s *EditorSession) SetTool(t ToolKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTool = t
}

// ActiveType возвращает активный тип блока
func (s *EditorSession) ActiveType() block.TypeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeType
}

// SetActiveType устанавливает активный тип блока
func (s *EditorSession) SetActiveType(id block.TypeID) error {
	if !s.registry.IsValidTypeID(id) {
		return voxel.ErrUnknownType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeType = id
	return nil
}

// ActiveLayer возвращает активный тег слоя
func (s *EditorSession) ActiveLayer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLayer
}

// SetActiveLayer устанавливает активный тег слоя
func (s *EditorSession) SetActiveLayer(layer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeLayer = layer
}

// Camera возвращает камеру вида
func (s *EditorSession) Camera(v projection.ViewType) projection.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameras[v]
}

// SetCamera обновляет камеру вида. Камерой владеет слой представления;
// движок её состояние только читает.
func (s *EditorSession) SetCamera(v projection.ViewType, cam projection.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[v] = cam
}

// GridToScreen проецирует ячейку в активном виде
func (s *EditorSession) GridToScreen(pos vec.Vec3) vec.Vec2Float {
	s.mu.RLock()
	view, cam := s.currentView, s.cameras[s.currentView]
	s.mu.RUnlock()
	return projection.GridToScreen(view, cam, s.params, pos)
}

// ScreenToGrid возвращает ячейку под экранной точкой в активном виде
func (s *EditorSession) ScreenToGrid(screen vec.Vec2Float) vec.Vec3 {
	s.mu.RLock()
	view, cam, level := s.currentView, s.cameras[s.currentView], s.currentLevel
	s.mu.RUnlock()
	return projection.ScreenToGrid(view, cam, s.params, screen, level)
}

// LevelName возвращает отображаемое имя уровня: Ground, +1, …
func LevelName(z int) string {
	if z == 0 {
		return "Ground"
	}
	return fmt.Sprintf("+%d", z)
}

// publishBlocksChanged транслирует событие хранилища в конверт шины
func (s *EditorSession) publishBlocksChanged(ev voxel.BlocksChangedEvent) {
	s.publish(eventbus.EventBlocksChanged, map[string]any{
		"kind":  ev.Kind.String(),
		"count": ev.Count,
		"cells": len(ev.Positions),
	}, 5)
}

// publish отправляет событие в шину сеанса
func (s *EditorSession) publish(eventType string, payload map[string]any, priority int) {
	if s.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.bus.Publish(context.Background(), &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    s.source,
		EventType: eventType,
		Priority:  priority,
		Payload:   data,
	})
}
