package voxel

import (
	"github.com/annel0/voxel-studio/internal/vec"
)

// ChangeKind определяет тип изменения хранилища
type ChangeKind uint8

const (
	ChangePlace   ChangeKind = iota // Установка блока в пустую ячейку
	ChangeModify                    // Изменение типа/слоя занятой ячейки
	ChangeRemove                    // Удаление блока
	ChangeClear                     // Полная очистка хранилища
	ChangeRestore                   // Восстановление слепка (undo/redo/загрузка)
)

// String возвращает строковое представление типа изменения
func (k ChangeKind) String() string {
	switch k {
	case ChangePlace:
		return "place"
	case ChangeModify:
		return "modify"
	case ChangeRemove:
		return "remove"
	case ChangeClear:
		return "clear"
	case ChangeRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// BlocksChangedEvent описывает завершённое изменение хранилища.
// Порядок эмиссии фиксирован: слепок истории -> мутация ->
// обновление пространственного индекса -> уведомление слушателей.
type BlocksChangedEvent struct {
	Kind      ChangeKind // Тип изменения
	Positions []vec.Vec3 // Затронутые позиции (пусто для clear/restore)
	Count     int        // Количество занятых ячеек после изменения
}

// ChangeListener получает уведомления об изменениях хранилища.
// Слушатели вызываются синхронно после коммита мутации; порядок
// вызова соответствует порядку регистрации.
type ChangeListener interface {
	OnBlocksChanged(ev BlocksChangedEvent)
}

// ChangeListenerFunc адаптирует функцию к интерфейсу ChangeListener
type ChangeListenerFunc func(ev BlocksChangedEvent)

// OnBlocksChanged вызывает функцию-обработчик
func (f ChangeListenerFunc) OnBlocksChanged(ev BlocksChangedEvent) {
	f(ev)
}
