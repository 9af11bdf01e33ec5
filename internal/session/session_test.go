package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-studio/internal/eventbus"
	"github.com/annel0/voxel-studio/internal/projection"
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/edit"
)

func newTestSession(t *testing.T, bus eventbus.EventBus) *EditorSession {
	t.Helper()
	return New(Config{
		Store:      voxel.DefaultStoreConfig(),
		FillBudget: 10000,
		Source:     "test",
	}, nil, bus)
}

func TestSessionDefaults(t *testing.T) {
	s := newTestSession(t, nil)

	assert.Equal(t, projection.ViewTop, s.CurrentView())
	assert.Equal(t, 0, s.CurrentLevel())
	assert.Equal(t, ToolPlace, s.CurrentTool())
	assert.True(t, s.Registry().IsValidTypeID(s.ActiveType()))
	assert.Equal(t, "", s.ActiveLayer())
}

func TestSetViewValidation(t *testing.T) {
	s := newTestSession(t, nil)

	require.NoError(t, s.SetView(projection.ViewIsometric))
	assert.Equal(t, projection.ViewIsometric, s.CurrentView())

	err := s.SetView(projection.ViewType("diagonal"))
	assert.Error(t, err, "Неизвестная проекция отклоняется")
	assert.Equal(t, projection.ViewIsometric, s.CurrentView())
}

func TestSetLevelValidation(t *testing.T) {
	s := newTestSession(t, nil)
	maxZ := s.Store().Config().GridZ

	require.NoError(t, s.SetLevel(maxZ-1))
	assert.Equal(t, maxZ-1, s.CurrentLevel())

	assert.ErrorIs(t, s.SetLevel(-1), voxel.ErrOutOfBounds)
	assert.ErrorIs(t, s.SetLevel(maxZ), voxel.ErrOutOfBounds)
	assert.Equal(t, maxZ-1, s.CurrentLevel())
}

func TestSetActiveType(t *testing.T) {
	s := newTestSession(t, nil)

	require.NoError(t, s.SetActiveType("brick"))
	assert.Equal(t, "brick", string(s.ActiveType()))

	assert.ErrorIs(t, s.SetActiveType("vibranium"), voxel.ErrUnknownType)
	assert.Equal(t, "brick", string(s.ActiveType()))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "Ground", LevelName(0))
	assert.Equal(t, "+1", LevelName(1))
	assert.Equal(t, "+49", LevelName(49))
}

func TestPlaceToolGesture(t *testing.T) {
	s := newTestSession(t, nil)
	tool := ToolFor(ToolPlace)

	require.NoError(t, tool.OnDown(s, vec.Vec3{X: 1, Y: 1, Z: 0}))
	require.NoError(t, tool.OnMove(s, vec.Vec3{X: 2, Y: 1, Z: 0}))
	require.NoError(t, tool.OnUp(s, vec.Vec3{X: 2, Y: 1, Z: 0}))

	assert.Equal(t, 2, s.Store().Count())
	b, ok := s.Store().GetBlock(vec.Vec3{X: 1, Y: 1, Z: 0})
	require.True(t, ok)
	assert.Equal(t, s.ActiveType(), b.Type)
}

func TestEraseToolIgnoresEmptyCells(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.Ops().Place(vec.Vec3{X: 3, Y: 3, Z: 0}, s.ActiveType(), ""))

	tool := ToolFor(ToolErase)
	require.NoError(t, tool.OnDown(s, vec.Vec3{X: 3, Y: 3, Z: 0}))
	require.NoError(t, tool.OnMove(s, vec.Vec3{X: 4, Y: 3, Z: 0}), "Пустая ячейка под курсором не прерывает жест")

	assert.Equal(t, 0, s.Store().Count())
}

func TestLineToolGesture(t *testing.T) {
	s := newTestSession(t, nil)
	tool := ToolFor(ToolLine)

	require.NoError(t, tool.OnDown(s, vec.Vec3{X: 0, Y: 0, Z: 0}))
	require.NoError(t, tool.OnMove(s, vec.Vec3{X: 2, Y: 0, Z: 0}))
	assert.Equal(t, 0, s.Store().Count(), "До OnUp ничего не ставится")

	require.NoError(t, tool.OnUp(s, vec.Vec3{X: 5, Y: 0, Z: 0}))
	assert.Equal(t, 6, s.Store().Count())
	assert.Equal(t, 1, s.Store().History().Depth(), "Жест — одна запись истории")
}

func TestRectToolGesture(t *testing.T) {
	s := newTestSession(t, nil)
	tool := ToolFor(ToolRect)

	require.NoError(t, tool.OnDown(s, vec.Vec3{X: 0, Y: 0, Z: 0}))
	require.NoError(t, tool.OnUp(s, vec.Vec3{X: 3, Y: 2, Z: 0}))

	// Контур 4x3
	assert.Equal(t, 10, s.Store().Count())
	_, interior := s.Store().GetBlock(vec.Vec3{X: 1, Y: 1, Z: 0})
	assert.False(t, interior)
}

func TestFillToolGesture(t *testing.T) {
	s := newTestSession(t, nil)
	for x := 0; x < 3; x++ {
		require.NoError(t, s.Ops().Place(vec.Vec3{X: x, Y: 0, Z: 0}, "timber", ""))
	}
	require.NoError(t, s.SetActiveType("steel"))

	tool := FillTool{Mode: edit.FillReplace}
	require.NoError(t, tool.OnDown(s, vec.Vec3{X: 1, Y: 0, Z: 0}))

	for x := 0; x < 3; x++ {
		b, ok := s.Store().GetBlock(vec.Vec3{X: x, Y: 0, Z: 0})
		require.True(t, ok)
		assert.Equal(t, "steel", string(b.Type))
	}

	// Повторная заливка тем же типом — no-op, а не ошибка жеста
	require.NoError(t, tool.OnDown(s, vec.Vec3{X: 1, Y: 0, Z: 0}))
}

func TestSessionPublishesEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	s := newTestSession(t, bus)

	var mu sync.Mutex
	got := make(map[string]int)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		got[ev.EventType]++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, s.Ops().Place(vec.Vec3{X: 1, Y: 1, Z: 0}, s.ActiveType(), ""))
	require.NoError(t, s.SetView(projection.ViewNorth))
	require.NoError(t, s.SetLevel(2))
	require.NoError(t, s.SetLevel(2), "Повторная установка того же уровня не публикует событие")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got[eventbus.EventBlocksChanged] == 1 &&
			got[eventbus.EventViewChanged] == 1 &&
			got[eventbus.EventLevelChanged] == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, got[eventbus.EventLevelChanged])
}

func TestGridScreenRoundTripInSession(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.SetLevel(3))

	cell := vec.Vec3{X: 7, Y: 5, Z: 3}
	screen := s.GridToScreen(cell)
	back := s.ScreenToGrid(vec.Vec2Float{X: screen.X + 1, Y: screen.Y + 1})
	assert.Equal(t, cell, back, "Проекция и обратная проекция согласованы в активном виде")
}
