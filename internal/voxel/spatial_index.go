package voxel

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-studio/internal/vec"
)

// SpatialIndex представляет пространственный индекс для быстрых range-запросов.
// Индекс двумерный (x,y): запросы по уровню доминируют, поэтому z
// фильтруется на этапе точной проверки. Индекс — производная структура:
// он всегда восстановим из хранилища и никогда не является источником истины.
type SpatialIndex struct {
	chunkSize int
	chunks    map[chunkKey]map[vec.Vec3]struct{}
	mu        sync.RWMutex
}

// chunkKey представляет ключ чанка в пространственной сетке
type chunkKey struct {
	x, y int
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(chunkSize int) *SpatialIndex {
	if chunkSize <= 0 {
		chunkSize = 10 // Размер чанка по умолчанию
	}

	return &SpatialIndex{
		chunkSize: chunkSize,
		chunks:    make(map[chunkKey]map[vec.Vec3]struct{}),
	}
}

// keyFor вычисляет ключ чанка для позиции ячейки
func (si *SpatialIndex) keyFor(pos vec.Vec3) chunkKey {
	cc := pos.ToVec2().ToChunkCoords(si.chunkSize)
	return chunkKey{x: cc.X, y: cc.Y}
}

// OnInsert добавляет позицию блока в соответствующий чанк
func (si *SpatialIndex) OnInsert(pos vec.Vec3) {
	si.mu.Lock()
	defer si.mu.Unlock()

	key := si.keyFor(pos)
	chunk, exists := si.chunks[key]
	if !exists {
		chunk = make(map[vec.Vec3]struct{})
		si.chunks[key] = chunk
	}
	chunk[pos] = struct{}{}
}

// OnRemove удаляет позицию блока из чанка.
// Опустевшие чанки вычищаются из карты.
func (si *SpatialIndex) OnRemove(pos vec.Vec3) {
	si.mu.Lock()
	defer si.mu.Unlock()

	key := si.keyFor(pos)
	if chunk, exists := si.chunks[key]; exists {
		delete(chunk, pos)
		if len(chunk) == 0 {
			delete(si.chunks, key)
		}
	}
}

// Rebuild очищает индекс и строит его заново по полному перечислению блоков.
// Используется после undo/redo: членство в чанках нельзя дёшево
// диффать относительно произвольного прошлого состояния.
func (si *SpatialIndex) Rebuild(positions []vec.Vec3) {
	si.mu.Lock()
	defer si.mu.Unlock()

	si.chunks = make(map[chunkKey]map[vec.Vec3]struct{})
	for _, pos := range positions {
		key := si.keyFor(pos)
		chunk, exists := si.chunks[key]
		if !exists {
			chunk = make(map[vec.Vec3]struct{})
			si.chunks[key] = chunk
		}
		chunk[pos] = struct{}{}
	}
}

// Clear полностью очищает индекс
func (si *SpatialIndex) Clear() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.chunks = make(map[chunkKey]map[vec.Vec3]struct{})
}

// CandidatesInRange возвращает позиции-кандидаты для включающего
// диапазона [min, max]. Результат — надмножество: точную фильтрацию
// по всем трём осям выполняет вызывающая сторона.
func (si *SpatialIndex) CandidatesInRange(min, max vec.Vec3) []vec.Vec3 {
	minChunk := vec.Vec2{X: min.X, Y: min.Y}.ToChunkCoords(si.chunkSize)
	maxChunk := vec.Vec2{X: max.X, Y: max.Y}.ToChunkCoords(si.chunkSize)

	si.mu.RLock()
	defer si.mu.RUnlock()

	result := make([]vec.Vec3, 0)
	for cx := minChunk.X; cx <= maxChunk.X; cx++ {
		for cy := minChunk.Y; cy <= maxChunk.Y; cy++ {
			if chunk, exists := si.chunks[chunkKey{x: cx, y: cy}]; exists {
				for pos := range chunk {
					result = append(result, pos)
				}
			}
		}
	}
	return result
}

// ChunkCount возвращает количество непустых чанков
func (si *SpatialIndex) ChunkCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.chunks)
}

// Stats возвращает статистику индекса
func (si *SpatialIndex) Stats() string {
	si.mu.RLock()
	defer si.mu.RUnlock()

	total := 0
	maxPerChunk := 0
	for _, chunk := range si.chunks {
		count := len(chunk)
		total += count
		if count > maxPerChunk {
			maxPerChunk = count
		}
	}

	avg := 0.0
	if len(si.chunks) > 0 {
		avg = float64(total) / float64(len(si.chunks))
	}

	return fmt.Sprintf("SpatialIndex: %d blocks, %d chunks, avg %.2f blocks/chunk, max %d blocks/chunk",
		total, len(si.chunks), avg, maxPerChunk)
}
