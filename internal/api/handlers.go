package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/annel0/voxel-studio/internal/eventbus"
	"github.com/annel0/voxel-studio/internal/gen"
	"github.com/annel0/voxel-studio/internal/project"
	"github.com/annel0/voxel-studio/internal/projection"
	"github.com/annel0/voxel-studio/internal/session"
	"github.com/annel0/voxel-studio/internal/storage"
	"github.com/annel0/voxel-studio/internal/vec"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
	"github.com/annel0/voxel-studio/internal/voxel/edit"
)

// BlockDTO описывает блок в ответах API
type BlockDTO struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Type  string `json:"type"`
	Layer string `json:"layer,omitempty"`
}

func toDTO(b voxel.Block) BlockDTO {
	return BlockDTO{
		X:     b.Pos.X,
		Y:     b.Pos.Y,
		Z:     b.Pos.Z,
		Type:  string(b.Type),
		Layer: b.Layer,
	}
}

func toDTOs(blocks []voxel.Block) []BlockDTO {
	out := make([]BlockDTO, len(blocks))
	for i, b := range blocks {
		out[i] = toDTO(b)
	}
	return out
}

// CellRequest описывает одну ячейку сетки
type CellRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (r CellRequest) vec3() vec.Vec3 { return vec.Vec3{X: r.X, Y: r.Y, Z: r.Z} }

// PlaceRequest описывает установку блока
type PlaceRequest struct {
	CellRequest
	Type  string `json:"type" binding:"required"`
	Layer string `json:"layer"`
}

// SegmentRequest описывает двухточечную операцию (линия, прямоугольник)
type SegmentRequest struct {
	From  CellRequest `json:"from" binding:"required"`
	To    CellRequest `json:"to" binding:"required"`
	Type  string      `json:"type" binding:"required"`
	Layer string      `json:"layer"`
	Fill  bool        `json:"fill"` // только для прямоугольника
}

// FillRequest описывает заливку
type FillRequest struct {
	CellRequest
	Type  string `json:"type" binding:"required"`
	Layer string `json:"layer"`
	Mode  string `json:"mode"` // replace (по умолчанию) | empty
}

// editError преобразует ошибку движка в HTTP-ответ
func editError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch err {
	case voxel.ErrOutOfBounds, voxel.ErrUnknownType:
		status = http.StatusBadRequest
	case voxel.ErrEmptyCell:
		status = http.StatusNotFound
	case voxel.ErrBlockLimit, voxel.ErrFillBudget:
		status = http.StatusConflict
	case voxel.ErrNothingToUndo, voxel.ErrNothingToRedo, voxel.ErrSameType:
		status = http.StatusConflict
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
}

//================ Состояние сцены =================//

// handleGetBlocks возвращает блоки: все, на уровне (?level=) или в
// диапазоне (?minX=&minY=&minZ=&maxX=&maxY=&maxZ=)
func (rs *RestServer) handleGetBlocks(c *gin.Context) {
	store := rs.session.Store()

	if levelStr := c.Query("level"); levelStr != "" {
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный уровень"})
			return
		}
		blocks := store.GetBlocksAtLevel(level)
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Блоки уровня",
			Data:    map[string]interface{}{"blocks": toDTOs(blocks), "total": len(blocks)},
		})
		return
	}

	if c.Query("minX") != "" {
		min, okMin := queryCell(c, "minX", "minY", "minZ")
		max, okMax := queryCell(c, "maxX", "maxY", "maxZ")
		if !okMin || !okMax {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный диапазон"})
			return
		}
		blocks := store.GetBlocksInRange(min, max)
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Блоки диапазона",
			Data:    map[string]interface{}{"blocks": toDTOs(blocks), "total": len(blocks)},
		})
		return
	}

	blocks := store.AllBlocks()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Все блоки",
		Data:    map[string]interface{}{"blocks": toDTOs(blocks), "total": len(blocks)},
	})
}

func queryCell(c *gin.Context, kx, ky, kz string) (vec.Vec3, bool) {
	x, err1 := strconv.Atoi(c.Query(kx))
	y, err2 := strconv.Atoi(c.Query(ky))
	z, err3 := strconv.Atoi(c.Query(kz))
	if err1 != nil || err2 != nil || err3 != nil {
		return vec.Vec3{}, false
	}
	return vec.Vec3{X: x, Y: y, Z: z}, true
}

// handleGetBlock возвращает блок по координатам пути
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	x, err1 := strconv.Atoi(c.Param("x"))
	y, err2 := strconv.Atoi(c.Param("y"))
	z, err3 := strconv.Atoi(c.Param("z"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверные координаты"})
		return
	}

	b, ok := rs.session.Store().GetBlock(vec.Vec3{X: x, Y: y, Z: z})
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Ячейка пуста"})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок найден", Data: toDTO(b)})
}

// handleGetBounds возвращает ограничивающий параллелепипед сцены
func (rs *RestServer) handleGetBounds(c *gin.Context) {
	bounds, ok := rs.session.Store().GetBounds()
	if !ok {
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сцена пуста"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Границы сцены",
		Data: map[string]interface{}{
			"min": gin.H{"x": bounds.Min.X, "y": bounds.Min.Y, "z": bounds.Min.Z},
			"max": gin.H{"x": bounds.Max.X, "y": bounds.Max.Y, "z": bounds.Max.Z},
		},
	})
}

// handleGetBlockTypes возвращает реестр типов блоков
func (rs *RestServer) handleGetBlockTypes(c *gin.Context) {
	defs := rs.session.Registry().All()
	types := make([]gin.H, 0, len(defs))
	for _, d := range defs {
		types = append(types, gin.H{
			"id":           string(d.ID),
			"name":         d.Name,
			"color":        d.Color,
			"hatchPattern": string(d.Hatch),
		})
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i]["id"].(string) < types[j]["id"].(string)
	})
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Типы блоков",
		Data:    map[string]interface{}{"types": types, "total": len(types)},
	})
}

//================ Операции редактирования =================//

// handlePlace ставит один блок
func (rs *RestServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	if err := rs.session.Ops().Place(req.vec3(), block.TypeID(req.Type), req.Layer); err != nil {
		editError(c, err)
		return
	}

	rs.metrics.CountEdit("place")
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен"})
}

// handleErase удаляет один блок
func (rs *RestServer) handleErase(c *gin.Context) {
	var req CellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	if err := rs.session.Ops().Erase(req.vec3()); err != nil {
		editError(c, err)
		return
	}

	rs.metrics.CountEdit("erase")
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок удалён"})
}

// handleLine ставит блоки вдоль отрезка
func (rs *RestServer) handleLine(c *gin.Context) {
	var req SegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	placed, err := rs.session.Ops().Line(req.From.vec3(), req.To.vec3(), block.TypeID(req.Type), req.Layer)
	if err != nil {
		editError(c, err)
		return
	}

	rs.metrics.CountEdit("line")
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Линия построена",
		Data:    map[string]interface{}{"placed": placed},
	})
}

// handleRect ставит прямоугольник (контур или с заливкой)
func (rs *RestServer) handleRect(c *gin.Context) {
	var req SegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	placed, err := rs.session.Ops().Rectangle(req.From.vec3(), req.To.vec3(), block.TypeID(req.Type), req.Layer, req.Fill)
	if err != nil {
		editError(c, err)
		return
	}

	rs.metrics.CountEdit("rect")
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Прямоугольник построен",
		Data:    map[string]interface{}{"placed": placed},
	})
}

// handleFill запускает заливку
func (rs *RestServer) handleFill(c *gin.Context) {
	var req FillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	mode := edit.FillReplace
	if req.Mode == "empty" {
		mode = edit.FillEmpty
	}

	placed, err := rs.session.Ops().Flood(req.vec3(), mode, block.TypeID(req.Type), req.Layer)
	if err == voxel.ErrSameType {
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Заливка не требуется",
			Data:    map[string]interface{}{"placed": 0},
		})
		return
	}
	if err != nil && err != voxel.ErrFillBudget {
		editError(c, err)
		return
	}

	msg := "Заливка выполнена"
	if err == voxel.ErrFillBudget {
		msg = "Заливка остановлена по лимиту"
	}
	rs.metrics.CountEdit("fill")
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: msg,
		Data:    map[string]interface{}{"placed": placed},
	})
}

// ScaffoldRequest описывает генерацию стартовой подложки
type ScaffoldRequest struct {
	Seed  int64 `json:"seed"`
	Width int   `json:"width"`
	Depth int   `json:"depth"`
}

// handleScaffold генерирует рельефную подложку по шуму Перлина
func (rs *RestServer) handleScaffold(c *gin.Context) {
	var req ScaffoldRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	cfg := rs.session.Store().Config()
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	if req.Width <= 0 {
		req.Width = cfg.GridX
	}
	if req.Depth <= 0 {
		req.Depth = cfg.GridY
	}

	placed, err := gen.NewScaffoldGenerator(req.Seed).
		Generate(rs.session.Store(), rs.session.Registry(), req.Width, req.Depth)
	if err != nil {
		editError(c, err)
		return
	}

	rs.metrics.CountEdit("scaffold")
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Подложка сгенерирована",
		Data:    map[string]interface{}{"placed": placed, "seed": req.Seed},
	})
}

// handleClear очищает сцену
func (rs *RestServer) handleClear(c *gin.Context) {
	rs.session.Store().Clear()
	rs.metrics.CountEdit("clear")
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сцена очищена"})
}

//================ История =================//

// handleHistoryStatus возвращает состояние истории изменений
func (rs *RestServer) handleHistoryStatus(c *gin.Context) {
	h := rs.session.Store().History()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние истории",
		Data: map[string]interface{}{
			"depth":    h.Depth(),
			"can_undo": h.CanUndo(),
			"can_redo": h.CanRedo(),
		},
	})
}

// handleUndo откатывает последнее изменение
func (rs *RestServer) handleUndo(c *gin.Context) {
	if err := rs.session.Store().Undo(); err != nil {
		editError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Изменение отменено",
		Data:    map[string]interface{}{"blocks": rs.session.Store().Count()},
	})
}

// handleRedo повторяет отменённое изменение
func (rs *RestServer) handleRedo(c *gin.Context) {
	if err := rs.session.Store().Redo(); err != nil {
		editError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Изменение повторено",
		Data:    map[string]interface{}{"blocks": rs.session.Store().Count()},
	})
}

//================ Вид и уровень =================//

// handleGetView возвращает активную проекцию
func (rs *RestServer) handleGetView(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Активная проекция",
		Data:    map[string]interface{}{"view": string(rs.session.CurrentView())},
	})
}

// handleSetView переключает активную проекцию
func (rs *RestServer) handleSetView(c *gin.Context) {
	var req struct {
		View string `json:"view" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	view, err := projection.ParseViewType(req.View)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	if err := rs.session.SetView(view); err != nil {
		editError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Проекция переключена"})
}

// handleGetLevel возвращает текущий уровень
func (rs *RestServer) handleGetLevel(c *gin.Context) {
	level := rs.session.CurrentLevel()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Текущий уровень",
		Data:    map[string]interface{}{"level": level, "name": session.LevelName(level)},
	})
}

// handleSetLevel переключает уровень редактирования
func (rs *RestServer) handleSetLevel(c *gin.Context) {
	var req struct {
		Level *int `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	if err := rs.session.SetLevel(*req.Level); err != nil {
		editError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Уровень переключён"})
}

//================ Проекции =================//

// handleGridToScreen проецирует ячейку в экранные координаты активного вида
func (rs *RestServer) handleGridToScreen(c *gin.Context) {
	cell, ok := queryCell(c, "x", "y", "z")
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверные координаты"})
		return
	}

	screen := rs.session.GridToScreen(cell)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Экранные координаты",
		Data:    map[string]interface{}{"x": screen.X, "y": screen.Y},
	})
}

// handleScreenToGrid возвращает ячейку под экранной точкой
func (rs *RestServer) handleScreenToGrid(c *gin.Context) {
	x, err1 := strconv.ParseFloat(c.Query("x"), 64)
	y, err2 := strconv.ParseFloat(c.Query("y"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверные координаты"})
		return
	}

	cell := rs.session.ScreenToGrid(vec.Vec2Float{X: x, Y: y})
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Ячейка сетки",
		Data:    map[string]interface{}{"x": cell.X, "y": cell.Y, "z": cell.Z},
	})
}

// handleVisibleBlocks возвращает блоки активного вида в порядке отрисовки
func (rs *RestServer) handleVisibleBlocks(c *gin.Context) {
	store := rs.session.Store()
	view := rs.session.CurrentView()

	var blocks []voxel.Block
	switch {
	case view == projection.ViewTop:
		blocks = store.GetBlocksAtLevel(rs.session.CurrentLevel())
	case view.IsElevation():
		occupied := func(pos vec.Vec3) bool {
			_, ok := store.GetBlock(pos)
			return ok
		}
		blocks = projection.VisibleInElevation(view, store.AllBlocks(), occupied)
		projection.SortBackToFront(view, blocks)
	default: // изометрия
		blocks = store.AllBlocks()
		projection.SortIsoBackToFront(blocks)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блоки в порядке отрисовки",
		Data: map[string]interface{}{
			"view":   string(view),
			"blocks": toDTOs(blocks),
			"total":  len(blocks),
		},
	})
}

//================ Проекты =================//

// handleListProjects возвращает сводки сохранённых проектов
func (rs *RestServer) handleListProjects(c *gin.Context) {
	infos, err := rs.projects.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка чтения хранилища"})
		return
	}

	list := make([]gin.H, len(infos))
	for i, info := range infos {
		list[i] = gin.H{
			"id":          info.ID,
			"name":        info.Name,
			"block_count": info.BlockCount,
			"saved_at":    info.SavedAt,
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список проектов",
		Data:    map[string]interface{}{"projects": list, "total": len(list)},
	})
}

// handleSaveProject сохраняет текущую сцену под указанным идентификатором
func (rs *RestServer) handleSaveProject(c *gin.Context) {
	id := c.Param("id")
	if id == "new" {
		id = uuid.NewString()
	}

	name := c.DefaultQuery("name", "Untitled")
	f := project.Export(rs.session.Store(), rs.session.Registry(), name,
		string(rs.session.CurrentView()), rs.session.CurrentLevel())

	if err := rs.projects.Save(c.Request.Context(), id, f); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка сохранения проекта"})
		return
	}

	rs.publishProjectEvent(eventbus.EventProjectSaved, id, f.BlockCount)

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Проект сохранён",
		Data:    map[string]interface{}{"id": id, "block_count": f.BlockCount},
	})
}

// handleLoadProject загружает сохранённый проект в сцену
func (rs *RestServer) handleLoadProject(c *gin.Context) {
	id := c.Param("id")

	f, err := rs.projects.Load(c.Request.Context(), id)
	if err == storage.ErrProjectNotFound {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Проект не найден"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка загрузки проекта"})
		return
	}

	report, err := project.Apply(f, rs.session.Store(), rs.session.Registry())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	rs.applyProjectViewState(f)
	rs.publishProjectEvent(eventbus.EventProjectLoaded, id, rs.session.Store().Count())

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Проект загружен",
		Data: map[string]interface{}{
			"blocks":  rs.session.Store().Count(),
			"dropped": report.Dropped,
			"reasons": report.Reasons,
		},
	})
}

// publishProjectEvent отправляет событие жизненного цикла проекта в глобальную шину
func (rs *RestServer) publishProjectEvent(eventType, id string, blocks int) {
	data, err := json.Marshal(map[string]interface{}{"id": id, "blocks": blocks})
	if err != nil {
		return
	}
	_ = eventbus.Publish(context.Background(), &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    "api",
		EventType: eventType,
		Priority:  5,
		Payload:   data,
	})
}

// handleDeleteProject удаляет сохранённый проект
func (rs *RestServer) handleDeleteProject(c *gin.Context) {
	err := rs.projects.Delete(c.Request.Context(), c.Param("id"))
	if err == storage.ErrProjectNotFound {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Проект не найден"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка удаления проекта"})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Проект удалён"})
}

// handleExportProject отдаёт текущую сцену как файл проекта
func (rs *RestServer) handleExportProject(c *gin.Context) {
	name := c.DefaultQuery("name", "Untitled")
	f := project.Export(rs.session.Store(), rs.session.Registry(), name,
		string(rs.session.CurrentView()), rs.session.CurrentLevel())

	data, err := f.Marshal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка сериализации"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`.vxp"`)
	c.Data(http.StatusOK, "application/json", data)
}

// handleImportProject принимает файл проекта и загружает его в сцену
func (rs *RestServer) handleImportProject(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Не удалось прочитать тело запроса"})
		return
	}

	f, err := project.Parse(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	report, err := project.Apply(f, rs.session.Store(), rs.session.Registry())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	rs.applyProjectViewState(f)

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Проект импортирован",
		Data: map[string]interface{}{
			"name":    f.Name,
			"blocks":  rs.session.Store().Count(),
			"dropped": report.Dropped,
			"reasons": report.Reasons,
		},
	})
}

// applyProjectViewState восстанавливает вид и уровень из файла проекта
func (rs *RestServer) applyProjectViewState(f *project.File) {
	if f.CurrentView != "" {
		if view, err := projection.ParseViewType(f.CurrentView); err == nil {
			_ = rs.session.SetView(view)
		}
	}
	_ = rs.session.SetLevel(f.CurrentLevel)
}
