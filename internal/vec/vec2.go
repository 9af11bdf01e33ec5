package vec

import "math"

// Vec2 представляет 2D координаты
type Vec2 struct {
	X, Y int
}

// ToChunkCoords преобразует координаты ячеек в координаты чанка индекса.
// Размер чанка задаётся параметром, отрицательные координаты округляются вниз.
func (v Vec2) ToChunkCoords(chunkSize int) Vec2 {
	return Vec2{X: floorDiv(v.X, chunkSize), Y: floorDiv(v.Y, chunkSize)}
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk(chunkSize int) Vec2 {
	return Vec2{X: v.X - floorDiv(v.X, chunkSize)*chunkSize, Y: v.Y - floorDiv(v.Y, chunkSize)*chunkSize}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Equals проверяет равенство векторов
func (v Vec2) Equals(other Vec2) bool {
	return v.X == other.X && v.Y == other.Y
}

// floorDiv делит с округлением вниз (а не к нулю)
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
