// Package gen генерирует стартовые заготовки сцены: холмистую
// площадку из гравия, поверх которой удобно набрасывать эскиз.
package gen

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/voxel-studio/internal/logging"
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0      // Сглаживание
	noiseBeta    = 2.0      // Частота
	noiseOctaves = int32(3) // Октавы
)

// ScaffoldGenerator строит рельефную подложку по шуму Перлина
type ScaffoldGenerator struct {
	Seed       int64   // Сид генерации
	NoiseScale float64 // Масштаб шума по горизонтали
	MaxHeight  int     // Максимальная высота рельефа в уровнях
	Surface    block.TypeID
	Filler     block.TypeID
	noise      *perlin.Perlin
}

// NewScaffoldGenerator создаёт генератор подложки
func NewScaffoldGenerator(seed int64) *ScaffoldGenerator {
	return &ScaffoldGenerator{
		Seed:       seed,
		NoiseScale: 0.05, // Настройка сглаженности рельефа
		MaxHeight:  6,
		Surface:    block.TypeGravel,
		Filler:     block.TypeConcrete,
		noise:      perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// heightAt возвращает высоту рельефа в колонке (x, y): от 1 до MaxHeight
func (g *ScaffoldGenerator) heightAt(x, y int) int {
	nx := float64(x) * g.NoiseScale
	ny := float64(y) * g.NoiseScale

	// Noise2D возвращает значение от -1 до 1
	n := (g.noise.Noise2D(nx, ny) + 1.0) / 2.0

	h := 1 + int(n*float64(g.MaxHeight-1))
	if h > g.MaxHeight {
		h = g.MaxHeight
	}
	return h
}

// Generate заполняет область [0, w) x [0, d) рельефом: верхний блок
// каждой колонки — Surface, ниже — Filler. Изменения объединяются в
// один слепок истории; генерация детерминирована по сиду.
func (g *ScaffoldGenerator) Generate(store *voxel.VoxelStore, reg *block.Registry, w, d int) (int, error) {
	cfg := store.Config()
	if w > cfg.GridX {
		w = cfg.GridX
	}
	if d > cfg.GridY {
		d = cfg.GridY
	}

	// Локальный rng для вкраплений породы, детерминирован по сиду
	rng := rand.New(rand.NewSource(g.Seed))

	store.BeginBatch("scaffold")
	defer store.EndBatch()

	placed := 0
	for x := 0; x < w; x++ {
		for y := 0; y < d; y++ {
			h := g.heightAt(x, y)
			for z := 0; z < h; z++ {
				typeID := g.Filler
				if z == h-1 {
					typeID = g.Surface
				} else if rng.Intn(20) == 0 {
					typeID = block.TypeSteel // редкие вкрапления
				}
				if err := store.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, typeID, "scaffold", reg); err != nil {
					return placed, err
				}
				placed++
			}
		}
	}

	logging.GetEngineLogger().Info("🏗️ Подложка сгенерирована: %dx%d, %d блоков (сид %d)", w, d, placed, g.Seed)
	return placed, nil
}
