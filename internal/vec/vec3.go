package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Z — уровень высоты; 0 соответствует земле.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// ToVec2 преобразует Vec3 в Vec2, игнорируя координату Z
func (v Vec3) ToVec2() Vec2 {
	return Vec2{
		X: v.X,
		Y: v.Y,
	}
}

// FromVec2WithZ создает Vec3 из Vec2, используя заданную Z координату
func FromVec2WithZ(v Vec2, z int) Vec3 {
	return Vec3{
		X: v.X,
		Y: v.Y,
		Z: z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// ManhattanTo возвращает манхэттенское расстояние до другого вектора.
// Для 6-связных обходов соседние ячейки находятся на расстоянии 1.
func (v Vec3) ManhattanTo(other Vec3) int {
	return absInt(v.X-other.X) + absInt(v.Y-other.Y) + absInt(v.Z-other.Z)
}

// Neighbors6 возвращает шесть соседей по граням (6-связность)
func (v Vec3) Neighbors6() [6]Vec3 {
	return [6]Vec3{
		{X: v.X + 1, Y: v.Y, Z: v.Z},
		{X: v.X - 1, Y: v.Y, Z: v.Z},
		{X: v.X, Y: v.Y + 1, Z: v.Z},
		{X: v.X, Y: v.Y - 1, Z: v.Z},
		{X: v.X, Y: v.Y, Z: v.Z + 1},
		{X: v.X, Y: v.Y, Z: v.Z - 1},
	}
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
