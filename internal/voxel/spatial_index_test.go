package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-studio/internal/vec"
)

func TestSpatialIndexInsertRemove(t *testing.T) {
	idx := NewSpatialIndex(10)

	pos := vec.Vec3{X: 15, Y: 25, Z: 3}
	idx.OnInsert(pos)
	assert.Equal(t, 1, idx.ChunkCount())

	// Второй блок в том же чанке не создаёт новый чанк
	idx.OnInsert(vec.Vec3{X: 16, Y: 26, Z: 0})
	assert.Equal(t, 1, idx.ChunkCount())

	// Блок в другом чанке
	idx.OnInsert(vec.Vec3{X: 35, Y: 25, Z: 3})
	assert.Equal(t, 2, idx.ChunkCount())

	idx.OnRemove(pos)
	assert.Equal(t, 2, idx.ChunkCount(), "Чанк ещё содержит второй блок")

	// Опустевший чанк вычищается
	idx.OnRemove(vec.Vec3{X: 16, Y: 26, Z: 0})
	assert.Equal(t, 1, idx.ChunkCount())
}

func TestSpatialIndexCandidatesSuperset(t *testing.T) {
	idx := NewSpatialIndex(10)

	inserted := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 9, Y: 9, Z: 5},
		{X: 10, Y: 10, Z: 5},
		{X: 55, Y: 55, Z: 2},
	}
	for _, pos := range inserted {
		idx.OnInsert(pos)
	}

	candidates := idx.CandidatesInRange(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 12, Y: 12, Z: 9})

	// Кандидаты — надмножество точного ответа: все три блока
	// из чанков (0,0), (1,1) присутствуют, дальний блок — нет
	found := make(map[vec.Vec3]bool)
	for _, pos := range candidates {
		found[pos] = true
	}
	assert.True(t, found[inserted[0]])
	assert.True(t, found[inserted[1]])
	assert.True(t, found[inserted[2]])
	assert.False(t, found[inserted[3]], "Блок вне чанков диапазона не должен перечисляться")
}

func TestSpatialIndexRebuild(t *testing.T) {
	idx := NewSpatialIndex(10)

	idx.OnInsert(vec.Vec3{X: 1, Y: 1, Z: 1})
	idx.OnInsert(vec.Vec3{X: 50, Y: 50, Z: 1})
	require.Equal(t, 2, idx.ChunkCount())

	idx.Rebuild([]vec.Vec3{{X: 70, Y: 70, Z: 0}})
	assert.Equal(t, 1, idx.ChunkCount(), "Rebuild отбрасывает прежнее содержимое")

	candidates := idx.CandidatesInRange(vec.Vec3{X: 70, Y: 70, Z: 0}, vec.Vec3{X: 70, Y: 70, Z: 0})
	require.Len(t, candidates, 1)
	assert.Equal(t, vec.Vec3{X: 70, Y: 70, Z: 0}, candidates[0])
}

func TestSpatialIndexClear(t *testing.T) {
	idx := NewSpatialIndex(10)
	idx.OnInsert(vec.Vec3{X: 1, Y: 1, Z: 1})
	idx.Clear()
	assert.Equal(t, 0, idx.ChunkCount())
	assert.Empty(t, idx.CandidatesInRange(vec.Vec3{}, vec.Vec3{X: 99, Y: 99, Z: 49}))
}

// Индекс консистентен с хранилищем после серии undo/redo
func TestSpatialIndexConsistentAfterUndo(t *testing.T) {
	store, reg := newTestStore(0)

	require.NoError(t, store.SetBlock(vec.Vec3{X: 5, Y: 5, Z: 0}, "concrete", "", reg))
	require.NoError(t, store.SetBlock(vec.Vec3{X: 45, Y: 45, Z: 0}, "concrete", "", reg))
	require.NoError(t, store.Undo())

	got := store.GetBlocksInRange(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 99, Y: 99, Z: 49})
	require.Len(t, got, 1, "После undo индекс не должен отдавать удалённый блок")
	assert.Equal(t, vec.Vec3{X: 5, Y: 5, Z: 0}, got[0].Pos)

	require.NoError(t, store.Redo())
	got = store.GetBlocksInRange(vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 99, Y: 99, Z: 49})
	assert.Len(t, got, 2)
}
