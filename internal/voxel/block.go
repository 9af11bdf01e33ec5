package voxel

import (
	"time"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

// Block представляет собой воксель, занимающий одну ячейку сетки.
// Блок существует только вместе с занятой ячейкой: при очистке ячейки
// блок удаляется из хранилища и нигде отдельно не хранится.
type Block struct {
	Pos      vec.Vec3     // Позиция ячейки в сетке
	Type     block.TypeID // Идентификатор типа из реестра
	Layer    string       // Свободный тег для группировки; на геометрию не влияет
	Created  time.Time    // Время создания блока
	Modified time.Time    // Время последнего изменения типа/слоя
}

// Clone создаёт копию блока
func (b Block) Clone() Block {
	return b
}

// Bounds описывает границы занятых ячеек хранилища (включительно)
type Bounds struct {
	Min vec.Vec3
	Max vec.Vec3
}

// Extend расширяет границы так, чтобы они включали позицию
func (bo *Bounds) Extend(pos vec.Vec3) {
	if pos.X < bo.Min.X {
		bo.Min.X = pos.X
	}
	if pos.Y < bo.Min.Y {
		bo.Min.Y = pos.Y
	}
	if pos.Z < bo.Min.Z {
		bo.Min.Z = pos.Z
	}
	if pos.X > bo.Max.X {
		bo.Max.X = pos.X
	}
	if pos.Y > bo.Max.Y {
		bo.Max.Y = pos.Y
	}
	if pos.Z > bo.Max.Z {
		bo.Max.Z = pos.Z
	}
}

// Contains проверяет, что позиция лежит внутри границ (включительно)
func (bo Bounds) Contains(pos vec.Vec3) bool {
	return pos.X >= bo.Min.X && pos.X <= bo.Max.X &&
		pos.Y >= bo.Min.Y && pos.Y <= bo.Max.Y &&
		pos.Z >= bo.Min.Z && pos.Z <= bo.Max.Z
}
