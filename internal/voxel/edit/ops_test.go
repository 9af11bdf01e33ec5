package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

func TestPlaceAndErase(t *testing.T) {
	ops, store := newTestOps()
	pos := vec.Vec3{X: 4, Y: 4, Z: 0}

	require.NoError(t, ops.Place(pos, block.TypeConcrete, ""))
	assert.Equal(t, 1, store.Count())

	require.NoError(t, ops.Erase(pos))
	assert.Equal(t, 0, store.Count())

	assert.ErrorIs(t, ops.Erase(pos), voxel.ErrEmptyCell)
}

func TestRectangleOutline(t *testing.T) {
	ops, store := newTestOps()

	// Контур 4x3: периметр 2*(4+3)-4 = 10 ячеек
	placed, err := ops.Rectangle(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 3, Y: 2, Z: 0}, block.TypeBrick, "", false)
	require.NoError(t, err)
	assert.Equal(t, 10, placed)
	assert.Equal(t, 10, store.Count())

	// Внутренняя ячейка не затронута
	_, ok := store.GetBlock(vec.Vec3{X: 1, Y: 1, Z: 0})
	assert.False(t, ok, "Контур не заполняет внутренность")
}

func TestRectangleFilled(t *testing.T) {
	ops, store := newTestOps()

	placed, err := ops.Rectangle(vec.Vec3{X: 0, Y: 0, Z: 2}, vec.Vec3{X: 3, Y: 2, Z: 2}, block.TypeBrick, "", true)
	require.NoError(t, err)
	assert.Equal(t, 12, placed, "Заполненный прямоугольник 4x3 — 12 ячеек")
	assert.Equal(t, 12, store.Count())

	b, ok := store.GetBlock(vec.Vec3{X: 1, Y: 1, Z: 2})
	require.True(t, ok)
	assert.Equal(t, block.TypeBrick, b.Type)
}

func TestRectangleCornersAnyOrder(t *testing.T) {
	ops, store := newTestOps()

	// Углы в «обратном» порядке нормализуются
	placed, err := ops.Rectangle(vec.Vec3{X: 5, Y: 5, Z: 0}, vec.Vec3{X: 2, Y: 3, Z: 0}, block.TypeBrick, "", true)
	require.NoError(t, err)
	assert.Equal(t, 12, placed)
	assert.Equal(t, 12, store.Count())
}

func TestRectangleDegenerate(t *testing.T) {
	ops, store := newTestOps()

	// Совпадающие углы — одна ячейка
	placed, err := ops.Rectangle(vec.Vec3{X: 7, Y: 7, Z: 0}, vec.Vec3{X: 7, Y: 7, Z: 0}, block.TypeBrick, "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, placed)

	// Вырожденный в линию
	placed, err = ops.Rectangle(vec.Vec3{X: 0, Y: 9, Z: 0}, vec.Vec3{X: 4, Y: 9, Z: 0}, block.TypeBrick, "", false)
	require.NoError(t, err)
	assert.Equal(t, 5, placed)
	assert.Equal(t, 6, store.Count())
}

func TestRectangleLevelMismatch(t *testing.T) {
	ops, store := newTestOps()

	_, err := ops.Rectangle(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 3, Y: 3, Z: 1}, block.TypeBrick, "", false)
	assert.ErrorIs(t, err, voxel.ErrOutOfBounds, "Углы на разных уровнях отклоняются")
	assert.Equal(t, 0, store.Count())
}

func TestRectangleSingleHistoryEntry(t *testing.T) {
	ops, store := newTestOps()

	_, err := ops.Rectangle(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 9, Y: 9, Z: 0}, block.TypeBrick, "", true)
	require.NoError(t, err)
	require.Equal(t, 1, store.History().Depth())

	require.NoError(t, store.Undo())
	assert.Equal(t, 0, store.Count())
}
