package voxel

import (
	"sync"
	"time"

	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

// Размеры сетки и лимиты по умолчанию
const (
	DefaultGridX     = 100    // Ячеек по оси X
	DefaultGridY     = 100    // Ячеек по оси Y
	DefaultGridZ     = 50     // Уровней высоты
	DefaultMaxBlocks = 500000 // Потолок занятых ячеек
	DefaultChunkSize = 10     // Размер чанка пространственного индекса
)

// StoreConfig задаёт параметры хранилища
type StoreConfig struct {
	GridX      int // Количество ячеек по X
	GridY      int // Количество ячеек по Y
	GridZ      int // Количество уровней высоты
	MaxBlocks  int // Потолок занятых ячеек
	ChunkSize  int // Размер чанка пространственного индекса
	HistoryCap int // Потолок записей истории
}

// DefaultStoreConfig возвращает конфигурацию по умолчанию (сетка 100x100x50)
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		GridX:      DefaultGridX,
		GridY:      DefaultGridY,
		GridZ:      DefaultGridZ,
		MaxBlocks:  DefaultMaxBlocks,
		ChunkSize:  DefaultChunkSize,
		HistoryCap: 100,
	}
}

// VoxelStore владеет полным набором блоков, индексированных по позиции.
// Инварианты:
//   - количество занятых ячеек никогда не превышает MaxBlocks;
//   - границы (min/max по занятым ячейкам) наращиваются инкрементально
//     при вставке и лениво пересчитываются после удаления.
//
// Хранилище рассчитано на одного логического редактора; мьютекс защищает
// читателей (REST-слой, рендереры) от гонок с потоком мутаций.
type VoxelStore struct {
	cfg       StoreConfig
	blocks    map[vec.Vec3]*Block
	count     int
	bounds    Bounds
	boundsOK  bool // false: границы требуют пересчёта или хранилище пусто
	index     *SpatialIndex
	history   *HistoryManager
	listeners []ChangeListener

	// Пакетный режим: одна логическая операция — один слепок истории.
	batchDepth   int
	batchPending *Snapshot

	mu sync.RWMutex
}

// NewVoxelStore создаёт пустое хранилище с указанной конфигурацией
func NewVoxelStore(cfg StoreConfig) *VoxelStore {
	def := DefaultStoreConfig()
	if cfg.GridX <= 0 {
		cfg.GridX = def.GridX
	}
	if cfg.GridY <= 0 {
		cfg.GridY = def.GridY
	}
	if cfg.GridZ <= 0 {
		cfg.GridZ = def.GridZ
	}
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = def.MaxBlocks
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = def.HistoryCap
	}

	return &VoxelStore{
		cfg:     cfg,
		blocks:  make(map[vec.Vec3]*Block),
		index:   NewSpatialIndex(cfg.ChunkSize),
		history: NewHistoryManager(cfg.HistoryCap),
	}
}

// Config возвращает конфигурацию хранилища
func (vs *VoxelStore) Config() StoreConfig {
	return vs.cfg
}

// History возвращает менеджер истории хранилища
func (vs *VoxelStore) History() *HistoryManager {
	return vs.history
}

// Index возвращает пространственный индекс хранилища
func (vs *VoxelStore) Index() *SpatialIndex {
	return vs.index
}

// AddListener регистрирует слушателя изменений
func (vs *VoxelStore) AddListener(l ChangeListener) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.listeners = append(vs.listeners, l)
}

// InBounds проверяет попадание позиции в координатный домен сетки
func (vs *VoxelStore) InBounds(pos vec.Vec3) bool {
	return pos.X >= 0 && pos.X < vs.cfg.GridX &&
		pos.Y >= 0 && pos.Y < vs.cfg.GridY &&
		pos.Z >= 0 && pos.Z < vs.cfg.GridZ
}

// SetBlock устанавливает блок в ячейку. Отказывает без мутации, если
// координаты вне домена, тип не зарегистрирован, либо ячейка пуста и
// хранилище уже достигло потолка. Смена типа/слоя занятой ячейки при
// потолке допустима: количество не растёт.
func (vs *VoxelStore) SetBlock(pos vec.Vec3, typeID block.TypeID, layer string, reg *block.Registry) error {
	if !vs.InBounds(pos) {
		return ErrOutOfBounds
	}
	if reg != nil && !reg.IsValidTypeID(typeID) {
		return ErrUnknownType
	}

	vs.mu.Lock()
	existing, occupied := vs.blocks[pos]
	if !occupied && vs.count >= vs.cfg.MaxBlocks {
		vs.mu.Unlock()
		return ErrBlockLimit
	}

	// Слепок снимается до коммита мутации
	vs.pushHistoryLocked("set")

	now := time.Now().UTC()
	kind := ChangeModify
	if occupied {
		existing.Type = typeID
		existing.Layer = layer
		existing.Modified = now
	} else {
		vs.blocks[pos] = &Block{
			Pos:      pos,
			Type:     typeID,
			Layer:    layer,
			Created:  now,
			Modified: now,
		}
		vs.count++
		if vs.boundsOK {
			vs.bounds.Extend(pos)
		} else if vs.count == 1 {
			vs.bounds = Bounds{Min: pos, Max: pos}
			vs.boundsOK = true
		}
		vs.index.OnInsert(pos)
		kind = ChangePlace
	}

	ev := BlocksChangedEvent{Kind: kind, Positions: []vec.Vec3{pos}, Count: vs.count}
	listeners := vs.listenersCopyLocked()
	vs.mu.Unlock()

	notify(listeners, ev)
	return nil
}

// RemoveBlock удаляет блок из ячейки. Отказывает, если ячейка уже пуста.
func (vs *VoxelStore) RemoveBlock(pos vec.Vec3) error {
	if !vs.InBounds(pos) {
		return ErrOutOfBounds
	}

	vs.mu.Lock()
	if _, occupied := vs.blocks[pos]; !occupied {
		vs.mu.Unlock()
		return ErrEmptyCell
	}

	vs.pushHistoryLocked("remove")

	delete(vs.blocks, pos)
	vs.count--
	vs.index.OnRemove(pos)

	// Границы инвалидируются лениво: пересчёт при следующем запросе
	vs.boundsOK = false

	ev := BlocksChangedEvent{Kind: ChangeRemove, Positions: []vec.Vec3{pos}, Count: vs.count}
	listeners := vs.listenersCopyLocked()
	vs.mu.Unlock()

	notify(listeners, ev)
	return nil
}

// GetBlock возвращает блок в указанной позиции. Чистый запрос: не
// отказывает, второй результат false означает пустую ячейку.
func (vs *VoxelStore) GetBlock(pos vec.Vec3) (Block, bool) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	if b, occupied := vs.blocks[pos]; occupied {
		return *b, true
	}
	return Block{}, false
}

// GetBlocksAtLevel возвращает все занятые ячейки на уровне z.
// Порядок не специфицирован: рендереры сортируют сами.
func (vs *VoxelStore) GetBlocksAtLevel(z int) []Block {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	result := make([]Block, 0)
	for _, b := range vs.blocks {
		if b.Pos.Z == z {
			result = append(result, *b)
		}
	}
	return result
}

// GetBlocksInRange возвращает блоки во включающем диапазоне [min, max].
// Реализован через перечисление чанков индекса с последующей точной
// фильтрацией: индекс — надмножество, а не источник истины.
func (vs *VoxelStore) GetBlocksInRange(min, max vec.Vec3) []Block {
	candidates := vs.index.CandidatesInRange(min, max)

	vs.mu.RLock()
	defer vs.mu.RUnlock()

	result := make([]Block, 0, len(candidates))
	for _, pos := range candidates {
		if pos.X < min.X || pos.X > max.X ||
			pos.Y < min.Y || pos.Y > max.Y ||
			pos.Z < min.Z || pos.Z > max.Z {
			continue
		}
		if b, occupied := vs.blocks[pos]; occupied {
			result = append(result, *b)
		}
	}
	return result
}

// AllBlocks возвращает копии всех блоков хранилища
func (vs *VoxelStore) AllBlocks() []Block {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	result := make([]Block, 0, len(vs.blocks))
	for _, b := range vs.blocks {
		result = append(result, *b)
	}
	return result
}

// Count возвращает количество занятых ячеек
func (vs *VoxelStore) Count() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.count
}

// GetBounds возвращает границы занятых ячеек. Второй результат false
// означает пустое хранилище. После удалений границы пересчитываются.
func (vs *VoxelStore) GetBounds() (Bounds, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.count == 0 {
		vs.bounds = Bounds{}
		vs.boundsOK = false
		return Bounds{}, false
	}
	if !vs.boundsOK {
		vs.recomputeBoundsLocked()
	}
	return vs.bounds, true
}

// Clear опустошает хранилище. Это отслеживаемая историей мутация;
// очистка уже пустого хранилища — no-op без записи в историю.
func (vs *VoxelStore) Clear() {
	vs.mu.Lock()
	if vs.count == 0 {
		vs.mu.Unlock()
		return
	}

	vs.pushHistoryLocked("clear")

	vs.blocks = make(map[vec.Vec3]*Block)
	vs.count = 0
	vs.bounds = Bounds{}
	vs.boundsOK = false
	vs.index.Clear()

	ev := BlocksChangedEvent{Kind: ChangeClear, Count: 0}
	listeners := vs.listenersCopyLocked()
	vs.mu.Unlock()

	notify(listeners, ev)
}

// Undo откатывает последнюю логическую операцию.
// Восстановление слепка перестраивает пространственный индекс целиком.
func (vs *VoxelStore) Undo() error {
	vs.mu.Lock()
	snap, err := vs.history.Undo(vs.snapshotLocked(""))
	if err != nil {
		vs.mu.Unlock()
		return err
	}
	vs.restoreLocked(snap)
	ev := BlocksChangedEvent{Kind: ChangeRestore, Count: vs.count}
	listeners := vs.listenersCopyLocked()
	vs.mu.Unlock()

	notify(listeners, ev)
	return nil
}

// Redo повторяет отменённую операцию
func (vs *VoxelStore) Redo() error {
	vs.mu.Lock()
	snap, err := vs.history.Redo()
	if err != nil {
		vs.mu.Unlock()
		return err
	}
	vs.restoreLocked(snap)
	ev := BlocksChangedEvent{Kind: ChangeRestore, Count: vs.count}
	listeners := vs.listenersCopyLocked()
	vs.mu.Unlock()

	notify(listeners, ev)
	return nil
}

// BeginBatch открывает пакетную операцию: все мутации до EndBatch
// попадут в историю одним слепком. Слепок снимается лениво, при первой
// успешной мутации: пакет без мутаций не оставляет следа в истории.
// Вызовы вложенных пакетов схлопываются в один.
func (vs *VoxelStore) BeginBatch(label string) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	vs.batchDepth++
	if vs.batchDepth == 1 {
		snap := vs.snapshotLocked(label)
		vs.batchPending = &snap
	}
}

// EndBatch закрывает пакетную операцию
func (vs *VoxelStore) EndBatch() {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.batchDepth > 0 {
		vs.batchDepth--
	}
	if vs.batchDepth == 0 {
		vs.batchPending = nil
	}
}

// RestoreSnapshot заменяет содержимое хранилища слепком (загрузка проекта).
// Сама является отслеживаемой мутацией.
func (vs *VoxelStore) RestoreSnapshot(snap Snapshot) {
	vs.mu.Lock()
	vs.pushHistoryLocked("restore")
	vs.restoreLocked(snap)
	ev := BlocksChangedEvent{Kind: ChangeRestore, Count: vs.count}
	listeners := vs.listenersCopyLocked()
	vs.mu.Unlock()

	notify(listeners, ev)
}

// Snapshot возвращает слепок текущего состояния
func (vs *VoxelStore) Snapshot(label string) Snapshot {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.snapshotLocked(label)
}

// ===== внутренние методы (вызываются под мьютексом) =====

// snapshotLocked снимает слепок карты блоков и статистики
func (vs *VoxelStore) snapshotLocked(label string) Snapshot {
	blocks := make(map[vec.Vec3]Block, len(vs.blocks))
	for pos, b := range vs.blocks {
		blocks[pos] = *b
	}
	return Snapshot{
		Blocks: blocks,
		Count:  vs.count,
		Label:  label,
		Taken:  time.Now().UTC(),
	}
}

// pushHistoryLocked отправляет слепок в историю перед коммитом мутации.
// В пакетном режиме используется отложенный слепок начала пакета,
// и только один раз на пакет.
func (vs *VoxelStore) pushHistoryLocked(label string) {
	if vs.batchDepth > 0 {
		if vs.batchPending != nil {
			vs.history.Push(*vs.batchPending)
			vs.batchPending = nil
		}
		return
	}
	vs.history.Push(vs.snapshotLocked(label))
}

// restoreLocked заменяет содержимое хранилища слепком и перестраивает индекс
func (vs *VoxelStore) restoreLocked(snap Snapshot) {
	vs.blocks = make(map[vec.Vec3]*Block, len(snap.Blocks))
	positions := make([]vec.Vec3, 0, len(snap.Blocks))
	for pos, b := range snap.Blocks {
		copied := b
		vs.blocks[pos] = &copied
		positions = append(positions, pos)
	}
	vs.count = snap.Count
	vs.boundsOK = false
	vs.index.Rebuild(positions)
}

// recomputeBoundsLocked пересчитывает границы полным проходом
func (vs *VoxelStore) recomputeBoundsLocked() {
	first := true
	for pos := range vs.blocks {
		if first {
			vs.bounds = Bounds{Min: pos, Max: pos}
			first = false
			continue
		}
		vs.bounds.Extend(pos)
	}
	vs.boundsOK = !first
}

// listenersCopyLocked возвращает копию списка слушателей
func (vs *VoxelStore) listenersCopyLocked() []ChangeListener {
	if len(vs.listeners) == 0 {
		return nil
	}
	copied := make([]ChangeListener, len(vs.listeners))
	copy(copied, vs.listeners)
	return copied
}

// notify уведомляет слушателей после снятия мьютекса
func notify(listeners []ChangeListener, ev BlocksChangedEvent) {
	for _, l := range listeners {
		l.OnBlocksChanged(ev)
	}
}
