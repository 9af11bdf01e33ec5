package projection

import (
	"math"
	"sort"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
)

// Фасады — ортографические проекции: одна горизонтальная мировая ось
// отображается на экранный X, высота Z — на экранный Y (инвертирован,
// z=0 внизу), оставшаяся горизонтальная ось — глубина. Глубина
// участвует только в сортировке, не в позиции.

// elevationAxes возвращает мировую ось, отображаемую на экранный X фасада
func elevationAxes(view ViewType) axis {
	if view == ViewNorth || view == ViewSouth {
		return axisX
	}
	return axisY
}

// depthAxis возвращает ось глубины фасада
func depthAxis(view ViewType) axis {
	if view == ViewNorth || view == ViewSouth {
		return axisY
	}
	return axisX
}

// LookNeighborOffset возвращает смещение к соседней ячейке в направлении
// взгляда фасада. Блок виден на фасаде тогда и только тогда, когда эта
// соседняя ячейка пуста (правило «только внешние грани»).
func LookNeighborOffset(view ViewType) vec.Vec3 {
	switch view {
	case ViewNorth:
		return vec.Vec3{Y: -1}
	case ViewSouth:
		return vec.Vec3{Y: 1}
	case ViewEast:
		return vec.Vec3{X: 1}
	case ViewWest:
		return vec.Vec3{X: -1}
	default:
		return vec.Vec3{}
	}
}

// ElevationVisible проверяет видимость блока на фасаде по предикату
// занятости ячеек. Внутренние блоки (сосед в направлении взгляда занят)
// на фасадах не рисуются, хотя и существуют в хранилище.
func ElevationVisible(view ViewType, pos vec.Vec3, occupied func(vec.Vec3) bool) bool {
	if !view.IsElevation() {
		return true
	}
	return !occupied(pos.Add(LookNeighborOffset(view)))
}

// VisibleInElevation фильтрует блоки по правилу внешних граней
func VisibleInElevation(view ViewType, blocks []voxel.Block, occupied func(vec.Vec3) bool) []voxel.Block {
	result := make([]voxel.Block, 0, len(blocks))
	for _, b := range blocks {
		if ElevationVisible(view, b.Pos, occupied) {
			result = append(result, b)
		}
	}
	return result
}

// depthToViewer возвращает расстояние блока до зрителя по оси глубины.
// Зритель находится со стороны, в которую смотрит сосед видимости.
func depthToViewer(view ViewType, pos vec.Vec3) int {
	switch view {
	case ViewNorth:
		return pos.Y // зритель со стороны y=-1, глубина растёт с y
	case ViewSouth:
		return -pos.Y
	case ViewEast:
		return -pos.X
	default: // ViewWest
		return pos.X
	}
}

// SortBackToFront упорядочивает блоки фасада от дальних к ближним
// вдоль оси глубины (алгоритм художника, z-буфер не используется).
// Сортировка стабильна, чтобы порядок в пределах одной глубины
// не дрожал между кадрами.
func SortBackToFront(view ViewType, blocks []voxel.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return depthToViewer(view, blocks[i].Pos) > depthToViewer(view, blocks[j].Pos)
	})
}

// elevationGridToScreen отображает ячейку на экран фасада
func elevationGridToScreen(view ViewType, cam Camera, p Params, pos vec.Vec3) vec.Vec2Float {
	ax := elevationAxes(view)
	s := p.BlockSize * cam.zoom()
	return vec.Vec2Float{
		X: float64(axisValue(pos, ax))*s + cam.Offset.X,
		Y: float64(p.GridZ-1-pos.Z)*s + cam.Offset.Y,
	}
}

// elevationScreenToGrid — точная инверсия elevationGridToScreen.
// level задаёт координату вдоль оси глубины.
func elevationScreenToGrid(view ViewType, cam Camera, p Params, screen vec.Vec2Float, level int) vec.Vec3 {
	ax := elevationAxes(view)
	s := p.BlockSize * cam.zoom()

	pos := vec.Vec3{
		Z: p.GridZ - 1 - int(math.Floor((screen.Y-cam.Offset.Y)/s)),
	}
	setAxisValue(&pos, ax, int(math.Floor((screen.X-cam.Offset.X)/s)))
	setAxisValue(&pos, depthAxis(view), level)
	return pos
}
