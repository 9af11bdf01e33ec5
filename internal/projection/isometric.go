package projection

import (
	"math"
	"sort"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
)

// Изометрия — аксонометрическая проекция под фиксированным углом 30°:
//
//	isoX = (x - y) * cos(30°) * blockSize
//	isoY = (x + y) * sin(30°) * blockSize - z * blockHeight
//
// Каждый воксель рисуется тремя видимыми гранями (верх/лево/право)
// с разной яркостью, чтобы передать объём.
const IsoAngle = math.Pi / 6

// Множители яркости видимых граней вокселя
const (
	FaceTopBrightness   = 1.0
	FaceLeftBrightness  = 0.8
	FaceRightBrightness = 0.6
)

// Face перечисляет видимые грани вокселя в изометрии
type Face uint8

const (
	FaceTop Face = iota
	FaceLeft
	FaceRight
)

// Brightness возвращает множитель яркости грани
func (f Face) Brightness() float64 {
	switch f {
	case FaceTop:
		return FaceTopBrightness
	case FaceLeft:
		return FaceLeftBrightness
	default:
		return FaceRightBrightness
	}
}

func isoWorldToScreen(cam Camera, p Params, world vec.Vec3Float) vec.Vec2Float {
	z := cam.zoom()
	isoX := (world.X - world.Y) * math.Cos(IsoAngle) * p.BlockSize
	isoY := (world.X+world.Y)*math.Sin(IsoAngle)*p.BlockSize - world.Z*p.BlockHeight
	return vec.Vec2Float{
		X: isoX*z + cam.Offset.X,
		Y: isoY*z + cam.Offset.Y,
	}
}

func isoGridToScreen(cam Camera, p Params, pos vec.Vec3) vec.Vec2Float {
	return isoWorldToScreen(cam, p, vec.Vec3Float{
		X: float64(pos.X),
		Y: float64(pos.Y),
		Z: float64(pos.Z),
	})
}

// isoScreenToWorld решает систему двух уравнений проекции относительно
// x и y при фиксированном z = level (текущий уровень редактирования).
// Это ПРИБЛИЖЕНИЕ, а не точная инверсия: экранная точка соответствует
// целому лучу в мире, и выбор уровня делает решение однозначным только
// в пределах этого уровня. Для плана и фасадов инверсия точная, для
// изометрии — нет.
func isoScreenToWorld(cam Camera, p Params, screen vec.Vec2Float, level int) vec.Vec3Float {
	z := cam.zoom()
	isoX := (screen.X - cam.Offset.X) / z
	isoY := (screen.Y-cam.Offset.Y)/z + float64(level)*p.BlockHeight

	// u = x - y, v = x + y
	u := isoX / (math.Cos(IsoAngle) * p.BlockSize)
	v := isoY / (math.Sin(IsoAngle) * p.BlockSize)

	return vec.Vec3Float{
		X: (v + u) / 2,
		Y: (v - u) / 2,
		Z: float64(level),
	}
}

// isoScreenToGrid округляет приближённое мировое решение до ячейки
func isoScreenToGrid(cam Camera, p Params, screen vec.Vec2Float, level int) vec.Vec3 {
	w := isoScreenToWorld(cam, p, screen, level)
	return vec.Vec3{
		X: int(math.Floor(w.X)),
		Y: int(math.Floor(w.Y)),
		Z: level,
	}
}

// IsoDepth возвращает ключ порядка отрисовки вокселя в изометрии
func IsoDepth(pos vec.Vec3) int {
	return pos.X + pos.Y + pos.Z
}

// SortIsoBackToFront упорядочивает блоки для изометрии от дальних к
// ближним: по убыванию x+y+z (алгоритм художника). Без этого порядка
// ближняя геометрия перекрывалась бы дальней.
func SortIsoBackToFront(blocks []voxel.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return IsoDepth(blocks[i].Pos) > IsoDepth(blocks[j].Pos)
	})
}
