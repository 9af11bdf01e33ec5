package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

func TestGenerateScaffold(t *testing.T) {
	store := voxel.NewVoxelStore(voxel.DefaultStoreConfig())
	reg := block.NewDefaultRegistry()
	g := NewScaffoldGenerator(42)

	placed, err := g.Generate(store, reg, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, placed, store.Count())
	assert.GreaterOrEqual(t, placed, 100, "Каждая колонка имеет высоту хотя бы 1")
	assert.LessOrEqual(t, placed, 10*10*g.MaxHeight)

	// Вся область заполнена на нулевом уровне
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			b, ok := store.GetBlock(vec.Vec3{X: x, Y: y, Z: 0})
			require.True(t, ok, "Колонка (%d,%d) пуста", x, y)
			assert.Equal(t, "scaffold", b.Layer)
		}
	}

	// Верхний блок каждой колонки — поверхность
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			top := -1
			for z := 0; z < g.MaxHeight; z++ {
				if _, ok := store.GetBlock(vec.Vec3{X: x, Y: y, Z: z}); ok {
					top = z
				}
			}
			require.GreaterOrEqual(t, top, 0)
			b, _ := store.GetBlock(vec.Vec3{X: x, Y: y, Z: top})
			assert.Equal(t, g.Surface, b.Type)
		}
	}
}

func TestGenerateIsSingleHistoryEntry(t *testing.T) {
	store := voxel.NewVoxelStore(voxel.DefaultStoreConfig())
	reg := block.NewDefaultRegistry()

	_, err := NewScaffoldGenerator(7).Generate(store, reg, 5, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, store.History().Depth())
	require.NoError(t, store.Undo())
	assert.Equal(t, 0, store.Count(), "Генерация откатывается одним undo")
}

func TestGenerateDeterministicBySeed(t *testing.T) {
	build := func(seed int64) []voxel.Block {
		store := voxel.NewVoxelStore(voxel.DefaultStoreConfig())
		reg := block.NewDefaultRegistry()
		_, err := NewScaffoldGenerator(seed).Generate(store, reg, 8, 8)
		require.NoError(t, err)
		return store.GetBlocksInRange(vec.Vec3{}, vec.Vec3{X: 7, Y: 7, Z: 49})
	}

	a := build(123)
	b := build(123)
	require.Equal(t, len(a), len(b))

	byPos := make(map[vec.Vec3]block.TypeID, len(a))
	for _, blk := range a {
		byPos[blk.Pos] = blk.Type
	}
	for _, blk := range b {
		assert.Equal(t, byPos[blk.Pos], blk.Type, "Тип в %v отличается между запусками", blk.Pos)
	}
}

func TestGenerateClampsToGrid(t *testing.T) {
	cfg := voxel.DefaultStoreConfig()
	store := voxel.NewVoxelStore(cfg)
	reg := block.NewDefaultRegistry()

	_, err := NewScaffoldGenerator(1).Generate(store, reg, cfg.GridX+50, cfg.GridY+50)
	require.NoError(t, err, "Запрошенная область обрезается по сетке")
}
