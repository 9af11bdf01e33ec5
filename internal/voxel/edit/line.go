package edit

import (
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

// LineIterator3D пошагово обходит ячейки трёхмерной цифровой линии
// (вариант алгоритма Брезенхэма): шагаем по доминирующей оси,
// накапливая члены ошибки для двух остальных. Путь 6-связен в смысле
// последовательных шагов по одной ячейке доминирующей оси, без
// пропусков и повторных посещений; обе конечные точки включаются.
type LineIterator3D struct {
	currentX, currentY, currentZ int
	targetX, targetY, targetZ    int
	deltaX, deltaY, deltaZ       int
	stepX, stepY, stepZ          int
	errorA, errorB               int
	dominant                     int // 0=X, 1=Y, 2=Z
	started                      bool
}

// NewLineIterator3D создаёт итератор линии от start до end включительно
func NewLineIterator3D(start, end vec.Vec3) *LineIterator3D {
	it := &LineIterator3D{
		currentX: start.X, currentY: start.Y, currentZ: start.Z,
		targetX: end.X, targetY: end.Y, targetZ: end.Z,
	}

	it.deltaX = abs(end.X - start.X)
	it.deltaY = abs(end.Y - start.Y)
	it.deltaZ = abs(end.Z - start.Z)

	it.stepX = sign(end.X - start.X)
	it.stepY = sign(end.Y - start.Y)
	it.stepZ = sign(end.Z - start.Z)

	// Определяем доминирующую ось и инициализируем члены ошибки
	switch {
	case it.deltaX >= it.deltaY && it.deltaX >= it.deltaZ:
		it.dominant = 0
		it.errorA = it.deltaX / 2
		it.errorB = it.deltaX / 2
	case it.deltaY >= it.deltaX && it.deltaY >= it.deltaZ:
		it.dominant = 1
		it.errorA = it.deltaY / 2
		it.errorB = it.deltaY / 2
	default:
		it.dominant = 2
		it.errorA = it.deltaZ / 2
		it.errorB = it.deltaZ / 2
	}

	return it
}

// Next продвигает итератор к следующей ячейке.
// Возвращает false после достижения конечной точки.
func (it *LineIterator3D) Next() bool {
	if !it.started {
		it.started = true
		return true // Стартовая ячейка тоже входит в линию
	}

	if it.currentX == it.targetX && it.currentY == it.targetY && it.currentZ == it.targetZ {
		return false
	}

	switch it.dominant {
	case 0: // доминирует X
		it.currentX += it.stepX
		it.errorA += it.deltaY
		if it.errorA >= it.deltaX {
			it.currentY += it.stepY
			it.errorA -= it.deltaX
		}
		it.errorB += it.deltaZ
		if it.errorB >= it.deltaX {
			it.currentZ += it.stepZ
			it.errorB -= it.deltaX
		}
	case 1: // доминирует Y
		it.currentY += it.stepY
		it.errorA += it.deltaX
		if it.errorA >= it.deltaY {
			it.currentX += it.stepX
			it.errorA -= it.deltaY
		}
		it.errorB += it.deltaZ
		if it.errorB >= it.deltaY {
			it.currentZ += it.stepZ
			it.errorB -= it.deltaY
		}
	default: // доминирует Z
		it.currentZ += it.stepZ
		it.errorA += it.deltaX
		if it.errorA >= it.deltaZ {
			it.currentX += it.stepX
			it.errorA -= it.deltaZ
		}
		it.errorB += it.deltaY
		if it.errorB >= it.deltaZ {
			it.currentY += it.stepY
			it.errorB -= it.deltaZ
		}
	}

	return true
}

// Current возвращает текущую ячейку итератора
func (it *LineIterator3D) Current() vec.Vec3 {
	return vec.Vec3{X: it.currentX, Y: it.currentY, Z: it.currentZ}
}

// Line рисует цифровую линию между двумя точками сетки, по одному блоку
// на шаг, включая обе конечные. Длина пути max(|dx|,|dy|,|dz|)+1.
// Возвращает количество установленных блоков.
func (o *Operations) Line(start, end vec.Vec3, typeID block.TypeID, layer string) (int, error) {
	if !o.store.InBounds(start) || !o.store.InBounds(end) {
		return 0, voxel.ErrOutOfBounds
	}

	o.store.BeginBatch("line")
	defer o.store.EndBatch()

	placed := 0
	for it := NewLineIterator3D(start, end); it.Next(); {
		if err := o.store.SetBlock(it.Current(), typeID, layer, o.reg); err != nil {
			return placed, err
		}
		placed++
	}
	return placed, nil
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func sign(a int) int {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	default:
		return 0
	}
}
