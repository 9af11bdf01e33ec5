// Package edit реализует операции редактирования поверх VoxelStore:
// одиночную установку/стирание, 3D-линию, прямоугольник и заливку.
// Все операции валидируют координаты до мутаций и объединяют
// многоклеточные изменения в один слепок истории.
package edit

import (
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

// DefaultFillBudget ограничивает обход заливки по умолчанию
const DefaultFillBudget = 10000

// Operations связывает инструменты редактирования с хранилищем и реестром типов
type Operations struct {
	store      *voxel.VoxelStore
	reg        *block.Registry
	fillBudget int
}

// NewOperations создаёт набор операций редактирования.
// fillBudget <= 0 заменяется значением по умолчанию.
func NewOperations(store *voxel.VoxelStore, reg *block.Registry, fillBudget int) *Operations {
	if fillBudget <= 0 {
		fillBudget = DefaultFillBudget
	}
	return &Operations{
		store:      store,
		reg:        reg,
		fillBudget: fillBudget,
	}
}

// Store возвращает хранилище, с которым работают операции
func (o *Operations) Store() *voxel.VoxelStore {
	return o.store
}

// Place устанавливает один блок в ячейку под курсором
func (o *Operations) Place(pos vec.Vec3, typeID block.TypeID, layer string) error {
	return o.store.SetBlock(pos, typeID, layer, o.reg)
}

// Erase стирает один блок
func (o *Operations) Erase(pos vec.Vec3) error {
	return o.store.RemoveBlock(pos)
}

// Rectangle рисует прямоугольник между двумя противоположными углами
// на одном уровне. При fill=true заполняется каждая ячейка области,
// иначе — только четыре граничных ребра. Возвращает количество
// установленных блоков.
func (o *Operations) Rectangle(a, b vec.Vec3, typeID block.TypeID, layer string, fill bool) (int, error) {
	if a.Z != b.Z {
		return 0, voxel.ErrOutOfBounds
	}
	if !o.store.InBounds(a) || !o.store.InBounds(b) {
		return 0, voxel.ErrOutOfBounds
	}

	minX, maxX := minMax(a.X, b.X)
	minY, maxY := minMax(a.Y, b.Y)
	z := a.Z

	o.store.BeginBatch("rect")
	defer o.store.EndBatch()

	placed := 0
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			if !fill && x != minX && x != maxX && y != minY && y != maxY {
				continue
			}
			if err := o.store.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, typeID, layer, o.reg); err != nil {
				return placed, err
			}
			placed++
		}
	}
	return placed, nil
}

func minMax(a, b int) (int, int) {
	if a <= b {
		return a, b
	}
	return b, a
}
