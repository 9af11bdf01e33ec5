// Package projection реализует координатную систему редактора:
// чистые преобразования мир<->экран<->сетка для шести проекций.
// Функции пакета зависят только от типа вида, состояния камеры и
// координат ячейки; данными о блоках пакет не владеет и камеру
// никогда не мутирует.
package projection

import (
	"fmt"
	"math"

	"github.com/annel0/voxel-studio/internal/vec"
)

// ViewType определяет проекцию, в которой работает преобразование
type ViewType string

const (
	ViewTop       ViewType = "top"       // План сверху
	ViewIsometric ViewType = "isometric" // Аксонометрия под 30°
	ViewNorth     ViewType = "north"     // Северный фасад
	ViewSouth     ViewType = "south"     // Южный фасад
	ViewEast      ViewType = "east"      // Восточный фасад
	ViewWest      ViewType = "west"      // Западный фасад
)

// AllViews перечисляет поддерживаемые проекции
var AllViews = []ViewType{ViewTop, ViewIsometric, ViewNorth, ViewSouth, ViewEast, ViewWest}

// ParseViewType разбирает строковое имя проекции
func ParseViewType(s string) (ViewType, error) {
	v := ViewType(s)
	for _, known := range AllViews {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("неизвестная проекция: %q", s)
}

// IsElevation сообщает, является ли вид фасадом
func (v ViewType) IsElevation() bool {
	switch v {
	case ViewNorth, ViewSouth, ViewEast, ViewWest:
		return true
	}
	return false
}

// Camera хранит состояние камеры одного вида: смещение и масштаб.
// Камерой владеет слой представления; движок её не изменяет.
type Camera struct {
	Offset vec.Vec2Float // Смещение начала сетки на экране, пиксели
	Zoom   float64       // Масштаб; 1.0 — без увеличения
}

// NewCamera создаёт камеру с единичным масштабом
func NewCamera() Camera {
	return Camera{Zoom: 1.0}
}

// zoom возвращает безопасный масштаб (ноль трактуется как 1.0)
func (c Camera) zoom() float64 {
	if c.Zoom <= 0 {
		return 1.0
	}
	return c.Zoom
}

// Params задаёт экранные размеры ячейки
type Params struct {
	BlockSize   float64 // Сторона ячейки в пикселях
	BlockHeight float64 // Экранная высота уровня в изометрии
	GridZ       int     // Количество уровней (для инверсии оси Z фасадов)
}

// DefaultParams возвращает экранные параметры по умолчанию
func DefaultParams() Params {
	return Params{
		BlockSize:   20,
		BlockHeight: 12,
		GridZ:       50,
	}
}

// GridToScreen преобразует ячейку сетки в экранные координаты её
// опорного угла для указанной проекции.
func GridToScreen(view ViewType, cam Camera, p Params, pos vec.Vec3) vec.Vec2Float {
	switch view {
	case ViewTop:
		return topGridToScreen(cam, p, pos)
	case ViewIsometric:
		return isoGridToScreen(cam, p, pos)
	default:
		return elevationGridToScreen(view, cam, p, pos)
	}
}

// ScreenToGrid преобразует экранные координаты обратно в ячейку сетки.
// Для плана и фасадов преобразование — точная инверсия GridToScreen
// (деление с округлением вниз на границе). level — текущий уровень
// редактирования: план и изометрия возвращают ячейку на нём, фасады
// трактуют level как координату вдоль оси глубины.
func ScreenToGrid(view ViewType, cam Camera, p Params, screen vec.Vec2Float, level int) vec.Vec3 {
	switch view {
	case ViewTop:
		return topScreenToGrid(cam, p, screen, level)
	case ViewIsometric:
		return isoScreenToGrid(cam, p, screen, level)
	default:
		return elevationScreenToGrid(view, cam, p, screen, level)
	}
}

// WorldToScreen преобразует непрерывную мировую точку в экранную
func WorldToScreen(view ViewType, cam Camera, p Params, world vec.Vec3Float) vec.Vec2Float {
	switch view {
	case ViewTop:
		s := p.BlockSize * cam.zoom()
		return vec.Vec2Float{
			X: world.X*s + cam.Offset.X,
			Y: world.Y*s + cam.Offset.Y,
		}
	case ViewIsometric:
		return isoWorldToScreen(cam, p, world)
	default:
		ax := elevationAxes(view)
		s := p.BlockSize * cam.zoom()
		return vec.Vec2Float{
			X: axisValueFloat(world, ax)*s + cam.Offset.X,
			Y: (float64(p.GridZ)-world.Z)*s + cam.Offset.Y,
		}
	}
}

// ScreenToWorld преобразует экранную точку в непрерывную мировую.
// Для изометрии решается система двух уравнений при фиксированном
// z=level: это аппроксимация, см. isoScreenToWorld.
func ScreenToWorld(view ViewType, cam Camera, p Params, screen vec.Vec2Float, level int) vec.Vec3Float {
	s := p.BlockSize * cam.zoom()
	switch view {
	case ViewTop:
		return vec.Vec3Float{
			X: (screen.X - cam.Offset.X) / s,
			Y: (screen.Y - cam.Offset.Y) / s,
			Z: float64(level),
		}
	case ViewIsometric:
		return isoScreenToWorld(cam, p, screen, level)
	default:
		ax := elevationAxes(view)
		w := vec.Vec3Float{Z: float64(p.GridZ) - (screen.Y-cam.Offset.Y)/s}
		setAxisValueFloat(&w, ax, (screen.X-cam.Offset.X)/s)
		setAxisValueFloat(&w, depthAxis(view), float64(level))
		return w
	}
}

// ===== план сверху =====

func topGridToScreen(cam Camera, p Params, pos vec.Vec3) vec.Vec2Float {
	s := p.BlockSize * cam.zoom()
	return vec.Vec2Float{
		X: float64(pos.X)*s + cam.Offset.X,
		Y: float64(pos.Y)*s + cam.Offset.Y,
	}
}

func topScreenToGrid(cam Camera, p Params, screen vec.Vec2Float, level int) vec.Vec3 {
	s := p.BlockSize * cam.zoom()
	return vec.Vec3{
		X: int(math.Floor((screen.X - cam.Offset.X) / s)),
		Y: int(math.Floor((screen.Y - cam.Offset.Y) / s)),
		Z: level,
	}
}

// ===== вспомогательные функции осей =====

type axis uint8

const (
	axisX axis = iota
	axisY
)

func axisValue(pos vec.Vec3, a axis) int {
	if a == axisX {
		return pos.X
	}
	return pos.Y
}

func axisValueFloat(w vec.Vec3Float, a axis) float64 {
	if a == axisX {
		return w.X
	}
	return w.Y
}

func setAxisValue(pos *vec.Vec3, a axis, v int) {
	if a == axisX {
		pos.X = v
	} else {
		pos.Y = v
	}
}

func setAxisValueFloat(w *vec.Vec3Float, a axis, v float64) {
	if a == axisX {
		w.X = v
	} else {
		w.Y = v
	}
}
