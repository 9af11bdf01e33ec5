package edit

import (
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

// FillMode определяет режим заливки
type FillMode uint8

const (
	// FillReplace заменяет связную область ячеек с типом стартовой ячейки
	FillReplace FillMode = iota
	// FillEmpty заполняет связную область пустых ячеек
	FillEmpty
)

// Flood выполняет 6-связную заливку в ширину от стартовой ячейки.
// Обход итеративный, с явным множеством посещённых ячеек и жёстким
// бюджетом: при его исчерпании заливка останавливается и возвращает
// ErrFillBudget вместе с числом уже установленных блоков.
//
// В режиме FillReplace заливка no-op (ErrSameType), если тип стартовой
// ячейки совпадает с целевым. В режиме FillEmpty стартовая ячейка
// обязана быть пустой.
func (o *Operations) Flood(start vec.Vec3, mode FillMode, typeID block.TypeID, layer string) (int, error) {
	if !o.store.InBounds(start) {
		return 0, voxel.ErrOutOfBounds
	}

	startBlock, occupied := o.store.GetBlock(start)
	switch mode {
	case FillReplace:
		if !occupied {
			return 0, voxel.ErrEmptyCell
		}
		if startBlock.Type == typeID {
			return 0, voxel.ErrSameType
		}
	case FillEmpty:
		if occupied {
			return 0, voxel.ErrSameType
		}
	}

	matches := func(pos vec.Vec3) bool {
		b, ok := o.store.GetBlock(pos)
		if mode == FillEmpty {
			return !ok
		}
		return ok && b.Type == startBlock.Type
	}

	o.store.BeginBatch("fill")
	defer o.store.EndBatch()

	visited := map[vec.Vec3]struct{}{start: {}}
	queue := []vec.Vec3{start}
	placed := 0

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]

		if placed >= o.fillBudget {
			return placed, voxel.ErrFillBudget
		}
		if err := o.store.SetBlock(pos, typeID, layer, o.reg); err != nil {
			return placed, err
		}
		placed++

		for _, n := range pos.Neighbors6() {
			if !o.store.InBounds(n) {
				continue
			}
			if _, seen := visited[n]; seen {
				continue
			}
			if !matches(n) {
				continue
			}
			visited[n] = struct{}{}
			queue = append(queue, n)
		}
	}

	return placed, nil
}
