package session

import (
	"github.com/annel0/voxel-studio/internal/projection"
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/edit"
)

// Renderer реализует слой представления поверх движка.
// Движок видов не рисует: он отдаёт геометрию и порядок отрисовки,
// а рендерер решает, чем рисовать.
type Renderer interface {
	// Render отрисовывает текущее состояние сеанса
	Render(s *EditorSession) error
	// WorldToScreen проецирует мировую точку средствами рендерера
	WorldToScreen(view projection.ViewType, cam projection.Camera, world vec.Vec2Float, z float64) vec.Vec2Float
	// ScreenToWorld обращает проекцию на плоскости уровня level
	ScreenToWorld(view projection.ViewType, cam projection.Camera, screen vec.Vec2Float, level int) vec.Vec2Float
}

// Tool обрабатывает жесты указателя в координатах сетки.
// Конвертирование экран -> сетка выполняет сеанс до вызова инструмента.
type Tool interface {
	// OnDown начинает жест в ячейке pos
	OnDown(s *EditorSession, pos vec.Vec3) error
	// OnMove продолжает жест в ячейке pos
	OnMove(s *EditorSession, pos vec.Vec3) error
	// OnUp завершает жест в ячейке pos
	OnUp(s *EditorSession, pos vec.Vec3) error
}

// PlaceTool ставит блок активного типа в каждую посещённую ячейку
type PlaceTool struct{}

func (PlaceTool) OnDown(s *EditorSession, pos vec.Vec3) error { return placeAt(s, pos) }
func (PlaceTool) OnMove(s *EditorSession, pos vec.Vec3) error { return placeAt(s, pos) }
func (PlaceTool) OnUp(s *EditorSession, pos vec.Vec3) error   { return nil }

func placeAt(s *EditorSession, pos vec.Vec3) error {
	return s.Ops().Place(pos, s.ActiveType(), s.ActiveLayer())
}

// EraseTool удаляет блок в каждой посещённой ячейке.
// Пустая ячейка под курсором — не ошибка жеста.
type EraseTool struct{}

func (EraseTool) OnDown(s *EditorSession, pos vec.Vec3) error { return eraseAt(s, pos) }
func (EraseTool) OnMove(s *EditorSession, pos vec.Vec3) error { return eraseAt(s, pos) }
func (EraseTool) OnUp(s *EditorSession, pos vec.Vec3) error   { return nil }

func eraseAt(s *EditorSession, pos vec.Vec3) error {
	if err := s.Ops().Erase(pos); err != nil && err != voxel.ErrEmptyCell {
		return err
	}
	return nil
}

// DragTool реализует двухточечные жесты (линия, прямоугольник):
// запоминает якорь на OnDown и применяет операцию на OnUp.
type DragTool struct {
	Kind     ToolKind
	Filled   bool // Для прямоугольника: заливать внутренность
	anchor   vec.Vec3
	dragging bool
}

func (t *DragTool) OnDown(s *EditorSession, pos vec.Vec3) error {
	t.anchor = pos
	t.dragging = true
	return nil
}

func (t *DragTool) OnMove(s *EditorSession, pos vec.Vec3) error { return nil }

func (t *DragTool) OnUp(s *EditorSession, pos vec.Vec3) error {
	if !t.dragging {
		return nil
	}
	t.dragging = false
	switch t.Kind {
	case ToolLine:
		_, err := s.Ops().Line(t.anchor, pos, s.ActiveType(), s.ActiveLayer())
		return err
	case ToolRect:
		_, err := s.Ops().Rectangle(t.anchor, pos, s.ActiveType(), s.ActiveLayer(), t.Filled)
		return err
	default:
		return nil
	}
}

// FillTool запускает заливку от точки клика
type FillTool struct {
	Mode edit.FillMode
}

func (t FillTool) OnDown(s *EditorSession, pos vec.Vec3) error {
	_, err := s.Ops().Flood(pos, t.Mode, s.ActiveType(), s.ActiveLayer())
	if err == voxel.ErrSameType {
		return nil
	}
	return err
}

func (t FillTool) OnMove(s *EditorSession, pos vec.Vec3) error { return nil }
func (t FillTool) OnUp(s *EditorSession, pos vec.Vec3) error   { return nil }

// ToolFor возвращает инструмент для вида инструмента сеанса
func ToolFor(kind ToolKind) Tool {
	switch kind {
	case ToolErase:
		return EraseTool{}
	case ToolLine:
		return &DragTool{Kind: ToolLine}
	case ToolRect:
		return &DragTool{Kind: ToolRect}
	case ToolFill:
		return FillTool{Mode: edit.FillReplace}
	default:
		return PlaceTool{}
	}
}
