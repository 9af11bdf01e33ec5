package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
)

func TestParseViewType(t *testing.T) {
	for _, v := range AllViews {
		parsed, err := ParseViewType(string(v))
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	_, err := ParseViewType("front")
	assert.Error(t, err, "Неизвестная проекция отклоняется")
}

func TestIsElevation(t *testing.T) {
	assert.False(t, ViewTop.IsElevation())
	assert.False(t, ViewIsometric.IsElevation())
	for _, v := range []ViewType{ViewNorth, ViewSouth, ViewEast, ViewWest} {
		assert.True(t, v.IsElevation())
	}
}

// План и фасады: ScreenToGrid — точная инверсия GridToScreen
func TestExactInverseTopAndElevations(t *testing.T) {
	p := DefaultParams()
	cameras := []Camera{
		NewCamera(),
		{Offset: vec.Vec2Float{X: 120, Y: -35}, Zoom: 1.5},
		{Offset: vec.Vec2Float{X: -7, Y: 3}, Zoom: 0.5},
	}
	views := []ViewType{ViewTop, ViewNorth, ViewSouth, ViewEast, ViewWest}

	cells := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 17, Y: 42, Z: 7},
		{X: 99, Y: 99, Z: 49},
	}

	for _, view := range views {
		for _, cam := range cameras {
			for _, cell := range cells {
				screen := GridToScreen(view, cam, p, cell)

				// level подбирается по оси, которую проекция не кодирует
				level := cell.Z
				if view.IsElevation() {
					level = axisValue(cell, depthAxis(view))
				}

				got := ScreenToGrid(view, cam, p, screen, level)
				assert.Equal(t, cell, got, "Вид %s, камера %+v, ячейка %v", view, cam, cell)
			}
		}
	}
}

func TestTopScreenToGridWithinCell(t *testing.T) {
	p := DefaultParams()
	cam := NewCamera()

	// Любая точка внутри экранного квадрата ячейки попадает в неё
	cell := ScreenToGrid(ViewTop, cam, p, vec.Vec2Float{X: 19.9, Y: 0.1}, 3)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 3}, cell)

	cell = ScreenToGrid(ViewTop, cam, p, vec.Vec2Float{X: 20.0, Y: 0.0}, 3)
	assert.Equal(t, vec.Vec3{X: 1, Y: 0, Z: 3}, cell)
}

func TestElevationInvertsHeight(t *testing.T) {
	p := DefaultParams()
	cam := NewCamera()

	low := GridToScreen(ViewNorth, cam, p, vec.Vec3{X: 0, Y: 0, Z: 0})
	high := GridToScreen(ViewNorth, cam, p, vec.Vec3{X: 0, Y: 0, Z: 10})

	assert.Greater(t, low.Y, high.Y, "Уровень z=0 рисуется ниже на экране")
}

func TestIsoScreenToGridApproximation(t *testing.T) {
	p := DefaultParams()
	cam := Camera{Offset: vec.Vec2Float{X: 400, Y: 60}, Zoom: 1.0}

	// Центр экранного ромба ячейки возвращается в ту же ячейку уровня
	cells := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 5, Y: 3, Z: 2},
		{X: 20, Y: 20, Z: 10},
	}
	for _, cell := range cells {
		center := isoWorldToScreen(cam, p, vec.Vec3Float{
			X: float64(cell.X) + 0.5,
			Y: float64(cell.Y) + 0.5,
			Z: float64(cell.Z),
		})
		got := ScreenToGrid(ViewIsometric, cam, p, center, cell.Z)
		assert.Equal(t, cell, got, "Центр ячейки %v", cell)
	}
}

func TestIsoWorldRoundTrip(t *testing.T) {
	p := DefaultParams()
	cam := Camera{Offset: vec.Vec2Float{X: 100, Y: 100}, Zoom: 2.0}

	world := vec.Vec3Float{X: 12.25, Y: 7.75, Z: 4}
	screen := WorldToScreen(ViewIsometric, cam, p, world)
	back := ScreenToWorld(ViewIsometric, cam, p, screen, 4)

	assert.InDelta(t, world.X, back.X, 1e-9)
	assert.InDelta(t, world.Y, back.Y, 1e-9)
	assert.InDelta(t, world.Z, back.Z, 1e-9)
}

func TestFaceBrightness(t *testing.T) {
	assert.Equal(t, 1.0, FaceTop.Brightness())
	assert.Equal(t, 0.8, FaceLeft.Brightness())
	assert.Equal(t, 0.6, FaceRight.Brightness())
}

func TestElevationVisibility(t *testing.T) {
	// Два блока друг за другом по оси Y
	front := vec.Vec3{X: 0, Y: 0, Z: 0}
	back := vec.Vec3{X: 0, Y: 1, Z: 0}
	occupied := func(pos vec.Vec3) bool {
		return pos == front || pos == back
	}

	// Северный фасад: зритель со стороны y=-1, виден только передний
	assert.True(t, ElevationVisible(ViewNorth, front, occupied))
	assert.False(t, ElevationVisible(ViewNorth, back, occupied), "Блок за другим блоком скрыт")

	// Южный фасад: зритель с противоположной стороны
	assert.False(t, ElevationVisible(ViewSouth, front, occupied))
	assert.True(t, ElevationVisible(ViewSouth, back, occupied))

	// На восточном фасаде оба видны: они в разных колонках по Y
	assert.True(t, ElevationVisible(ViewEast, front, occupied))
	assert.True(t, ElevationVisible(ViewEast, back, occupied))
}

func TestVisibleInElevation(t *testing.T) {
	blocks := []voxel.Block{
		{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}},
		{Pos: vec.Vec3{X: 0, Y: 1, Z: 0}},
		{Pos: vec.Vec3{X: 3, Y: 5, Z: 2}},
	}
	occupied := func(pos vec.Vec3) bool {
		for _, b := range blocks {
			if b.Pos == pos {
				return true
			}
		}
		return false
	}

	visible := VisibleInElevation(ViewNorth, blocks, occupied)
	require.Len(t, visible, 2)
	for _, b := range visible {
		assert.NotEqual(t, vec.Vec3{X: 0, Y: 1, Z: 0}, b.Pos)
	}
}

func TestSortBackToFrontElevation(t *testing.T) {
	blocks := []voxel.Block{
		{Pos: vec.Vec3{X: 0, Y: 1, Z: 0}},
		{Pos: vec.Vec3{X: 0, Y: 5, Z: 0}},
		{Pos: vec.Vec3{X: 0, Y: 3, Z: 0}},
	}

	// Северный фасад: глубина растёт с Y, дальние (большой Y) первыми
	SortBackToFront(ViewNorth, blocks)
	assert.Equal(t, 5, blocks[0].Pos.Y)
	assert.Equal(t, 3, blocks[1].Pos.Y)
	assert.Equal(t, 1, blocks[2].Pos.Y)

	// Южный фасад: порядок противоположный
	SortBackToFront(ViewSouth, blocks)
	assert.Equal(t, 1, blocks[0].Pos.Y)
	assert.Equal(t, 5, blocks[2].Pos.Y)
}

func TestSortIsoBackToFront(t *testing.T) {
	blocks := []voxel.Block{
		{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}},  // сумма 0
		{Pos: vec.Vec3{X: 5, Y: 5, Z: 5}},  // сумма 15
		{Pos: vec.Vec3{X: 2, Y: 1, Z: 0}},  // сумма 3
	}

	SortIsoBackToFront(blocks)
	assert.Equal(t, 15, IsoDepth(blocks[0].Pos))
	assert.Equal(t, 3, IsoDepth(blocks[1].Pos))
	assert.Equal(t, 0, IsoDepth(blocks[2].Pos))
}

func TestCameraZoomFallback(t *testing.T) {
	p := DefaultParams()

	// Нулевой масштаб трактуется как 1.0, а не деление на ноль
	broken := Camera{}
	normal := NewCamera()

	cell := vec.Vec3{X: 3, Y: 4, Z: 0}
	assert.Equal(t, GridToScreen(ViewTop, normal, p, cell), GridToScreen(ViewTop, broken, p, cell))
}
