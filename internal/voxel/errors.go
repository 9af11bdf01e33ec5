package voxel

import "errors"

// Ожидаемые, восстановимые отказы движка. Сигнализируются возвратом
// ошибки, а не паникой: слой инструментов обязан их проверять.
var (
	// ErrOutOfBounds возвращается при координатах вне сетки
	ErrOutOfBounds = errors.New("координаты вне границ сетки")

	// ErrBlockLimit возвращается при достижении потолка количества блоков
	ErrBlockLimit = errors.New("достигнут лимит количества блоков")

	// ErrEmptyCell возвращается при удалении из пустой ячейки
	ErrEmptyCell = errors.New("ячейка уже пуста")

	// ErrUnknownType возвращается при установке незарегистрированного типа блока
	ErrUnknownType = errors.New("незарегистрированный тип блока")

	// ErrNothingToUndo возвращается, когда курсор истории на первой записи
	ErrNothingToUndo = errors.New("нет операций для отмены")

	// ErrNothingToRedo возвращается, когда курсор истории на последней записи
	ErrNothingToRedo = errors.New("нет операций для повтора")

	// ErrFillBudget возвращается, когда заливка упёрлась в бюджет блоков
	ErrFillBudget = errors.New("превышен бюджет заливки")

	// ErrSameType возвращается, когда целевой тип заливки совпадает с текущим
	ErrSameType = errors.New("целевой тип совпадает с типом заливки")
)
