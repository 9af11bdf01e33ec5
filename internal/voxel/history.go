package voxel

import (
	"sync"
	"time"

	"github.com/annel0/voxel-studio/internal/vec"
)

// Snapshot представляет неизменяемый слепок хранилища: карта блоков
// плюс агрегатная статистика. Слепки — полные копии карты, а не дельты:
// это ограничивает сложность реализации ценой памяти, и именно для
// ограничения этой цены существует потолок на длину истории.
type Snapshot struct {
	Blocks map[vec.Vec3]Block // Копии блоков по позициям
	Count  int                // Количество занятых ячеек на момент слепка
	Label  string             // Метка логической операции ("line", "fill"…)
	Taken  time.Time          // Время снятия слепка
}

// HistoryManager реализует ограниченную линейную историю undo/redo
// поверх слепков хранилища.
//
// Инвариант курсора: cursor == len(entries) означает, что текущее
// состояние хранилища ещё не присутствует в списке; cursor < len(entries)
// означает, что entries[cursor] совпадает с текущим состоянием
// (такое бывает после undo/redo).
type HistoryManager struct {
	entries []Snapshot
	cursor  int
	cap     int
	mu      sync.Mutex
}

// NewHistoryManager создаёт менеджер истории с указанным потолком записей
func NewHistoryManager(capacity int) *HistoryManager {
	if capacity <= 0 {
		capacity = 100
	}
	return &HistoryManager{
		entries: make([]Snapshot, 0, capacity),
		cap:     capacity,
	}
}

// Push добавляет слепок состояния, снятый непосредственно перед мутацией.
// Если курсор был сдвинут назад предыдущим undo, все записи впереди
// курсора отбрасываются (стандартная линейная история). При превышении
// потолка вытесняется самая старая запись.
func (hm *HistoryManager) Push(snap Snapshot) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.cursor < len(hm.entries) {
		hm.entries = hm.entries[:hm.cursor]
	}
	hm.entries = append(hm.entries, snap)
	hm.cursor = len(hm.entries)
	hm.evictLocked()
}

// Undo сдвигает курсор назад и возвращает слепок, который нужно
// восстановить. currentState — слепок текущего состояния хранилища;
// при первом undo он запоминается как якорь для redo.
func (hm *HistoryManager) Undo(currentState Snapshot) (Snapshot, error) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if len(hm.entries) == 0 || hm.cursor == 0 {
		return Snapshot{}, ErrNothingToUndo
	}

	if hm.cursor == len(hm.entries) {
		// Текущее состояние ещё не в списке: без якоря redo
		// было бы некуда возвращаться.
		hm.entries = append(hm.entries, currentState)
		hm.evictLocked()
		hm.cursor = len(hm.entries) - 1
		if hm.cursor == 0 {
			return Snapshot{}, ErrNothingToUndo
		}
	}

	hm.cursor--
	return hm.entries[hm.cursor], nil
}

// Redo сдвигает курсор вперёд и возвращает слепок для восстановления.
// Симметричен Undo; на последней записи возвращает ErrNothingToRedo.
func (hm *HistoryManager) Redo() (Snapshot, error) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.cursor >= len(hm.entries)-1 || len(hm.entries) == 0 {
		return Snapshot{}, ErrNothingToRedo
	}

	hm.cursor++
	return hm.entries[hm.cursor], nil
}

// CanUndo сообщает, возможна ли отмена
func (hm *HistoryManager) CanUndo() bool {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return len(hm.entries) > 0 && hm.cursor > 0
}

// CanRedo сообщает, возможен ли повтор
func (hm *HistoryManager) CanRedo() bool {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return len(hm.entries) > 0 && hm.cursor < len(hm.entries)-1
}

// Depth возвращает количество записей в истории
func (hm *HistoryManager) Depth() int {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return len(hm.entries)
}

// Clear сбрасывает историю
func (hm *HistoryManager) Clear() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.entries = hm.entries[:0]
	hm.cursor = 0
}

// evictLocked вытесняет самые старые записи при превышении потолка,
// сохраняя курсор валидным. Вызывается под мьютексом.
func (hm *HistoryManager) evictLocked() {
	for len(hm.entries) > hm.cap {
		hm.entries = hm.entries[1:]
		if hm.cursor > 0 {
			hm.cursor--
		}
	}
}
