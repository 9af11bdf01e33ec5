package block

import (
	"fmt"
	"sync"
)

// TypeID представляет идентификатор типа блока
type TypeID string

// Базовые типы блоков. Реестр — это данные, а не код:
// новые типы добавляются без изменения движка.
const (
	TypeConcrete TypeID = "concrete"
	TypeBrick    TypeID = "brick"
	TypeTimber   TypeID = "timber"
	TypeSteel    TypeID = "steel"
	TypeGravel   TypeID = "gravel"
)

// HatchPattern определяет штриховку, которой рендерер заполняет блок
type HatchPattern string

const (
	HatchSolid    HatchPattern = "solid"
	HatchDiagonal HatchPattern = "diagonal"
	HatchCross    HatchPattern = "crosshatch"
	HatchDots     HatchPattern = "dots"
	HatchBrick    HatchPattern = "brick"
)

// IsValidHatch проверяет, что штриховка входит в поддерживаемый набор
func IsValidHatch(h HatchPattern) bool {
	switch h {
	case HatchSolid, HatchDiagonal, HatchCross, HatchDots, HatchBrick:
		return true
	}
	return false
}

// BlockType описывает один тип блока в реестре
type BlockType struct {
	ID    TypeID       `json:"id" yaml:"id"`
	Name  string       `json:"name" yaml:"name"`
	Color string       `json:"color" yaml:"color"`
	Hatch HatchPattern `json:"hatchPattern" yaml:"hatch_pattern"`
}

// Registry хранит зарегистрированные типы блоков
type Registry struct {
	mu    sync.RWMutex
	types map[TypeID]BlockType
}

// NewRegistry создаёт пустой реестр типов блоков
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[TypeID]BlockType),
	}
}

// NewDefaultRegistry создаёт реестр с пятью базовыми типами
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, bt := range []BlockType{
		{ID: TypeConcrete, Name: "Concrete", Color: "#9e9e9e", Hatch: HatchSolid},
		{ID: TypeBrick, Name: "Brick", Color: "#b35a3c", Hatch: HatchBrick},
		{ID: TypeTimber, Name: "Timber", Color: "#c89b5a", Hatch: HatchDiagonal},
		{ID: TypeSteel, Name: "Steel", Color: "#6b7b8c", Hatch: HatchCross},
		{ID: TypeGravel, Name: "Gravel", Color: "#8a8575", Hatch: HatchDots},
	} {
		// Базовые типы валидны по построению
		_ = r.Register(bt)
	}
	return r
}

// Register добавляет тип блока в реестр.
// Возвращает ошибку при пустом ID или неизвестной штриховке.
func (r *Registry) Register(bt BlockType) error {
	if bt.ID == "" {
		return fmt.Errorf("тип блока без идентификатора")
	}
	if !IsValidHatch(bt.Hatch) {
		return fmt.Errorf("тип блока %q: неизвестная штриховка %q", bt.ID, bt.Hatch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[bt.ID] = bt
	return nil
}

// Get возвращает описание типа для указанного ID
func (r *Registry) Get(id TypeID) (BlockType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bt, exists := r.types[id]
	return bt, exists
}

// IsValidTypeID проверяет, является ли ID зарегистрированным типом блока
func (r *Registry) IsValidTypeID(id TypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.types[id]
	return exists
}

// All возвращает копию всех зарегистрированных типов
func (r *Registry) All() map[TypeID]BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[TypeID]BlockType, len(r.types))
	for id, bt := range r.types {
		result[id] = bt
	}
	return result
}

// Len возвращает количество зарегистрированных типов
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
