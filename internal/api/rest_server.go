package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxel-studio/internal/auth"
	"github.com/annel0/voxel-studio/internal/middleware"
	"github.com/annel0/voxel-studio/internal/session"
	"github.com/annel0/voxel-studio/internal/storage"
)

// RestServer представляет REST API сервер редактора
type RestServer struct {
	router   *gin.Engine
	httpSrv  *http.Server
	userRepo auth.UserRepository
	session  *session.EditorSession
	projects storage.ProjectRepo
	port     string
	metrics  *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string                 // порт для запуска сервера
	UserRepo auth.UserRepository    // репозиторий пользователей
	Session  *session.EditorSession // сеанс редактирования
	Projects storage.ProjectRepo    // хранилище проектов
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8090"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("voxel_api"))

	promMw := middleware.NewPrometheusMiddleware("voxel_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		userRepo: config.UserRepo,
		session:  config.Session,
		projects: config.Projects,
		port:     config.Port,
		metrics:  NewServerMetrics(config.Session),
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")

	// Аутентификация (без JWT защиты)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
	}

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		// Состояние сцены
		protected.GET("/blocks", rs.handleGetBlocks)
		protected.GET("/blocks/:x/:y/:z", rs.handleGetBlock)
		protected.GET("/bounds", rs.handleGetBounds)
		protected.GET("/blocktypes", rs.handleGetBlockTypes)

		// Операции редактирования
		edit := protected.Group("/edit")
		{
			edit.POST("/place", rs.handlePlace)
			edit.POST("/erase", rs.handleErase)
			edit.POST("/line", rs.handleLine)
			edit.POST("/rect", rs.handleRect)
			edit.POST("/fill", rs.handleFill)
			edit.POST("/scaffold", rs.handleScaffold)
			edit.POST("/clear", rs.handleClear)
		}

		// История изменений
		history := protected.Group("/history")
		{
			history.GET("", rs.handleHistoryStatus)
			history.POST("/undo", rs.handleUndo)
			history.POST("/redo", rs.handleRedo)
		}

		// Вид и уровень
		protected.GET("/view", rs.handleGetView)
		protected.PUT("/view", rs.handleSetView)
		protected.GET("/level", rs.handleGetLevel)
		protected.PUT("/level", rs.handleSetLevel)

		// Проекции: преобразования координат и порядок отрисовки
		proj := protected.Group("/projection")
		{
			proj.GET("/screen", rs.handleGridToScreen)
			proj.GET("/grid", rs.handleScreenToGrid)
			proj.GET("/visible", rs.handleVisibleBlocks)
		}

		// Проекты
		projects := protected.Group("/projects")
		{
			projects.GET("", rs.handleListProjects)
			projects.POST("/:id/save", rs.handleSaveProject)
			projects.POST("/:id/load", rs.handleLoadProject)
			projects.DELETE("/:id", rs.handleDeleteProject)
			projects.GET("/export", rs.handleExportProject)
			projects.POST("/import", rs.handleImportProject)
		}

		// Статистика движка
		protected.GET("/stats", rs.handleStats)

		// Административные эндпоинты (только для админов)
		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/register", rs.handleAdminRegister)
		}
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	UserID  uint64 `json:"user_id,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, err := rs.userRepo.ValidateCredentials(req.Username, req.Password)
	if err == auth.ErrUserNotFound {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Успешная авторизация",
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
	})
}

// handleAdminRegister обрабатывает регистрацию нового пользователя (только для админов)
func (rs *RestServer) handleAdminRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Имя пользователя должно быть от 3 до 30 символов",
		})
		return
	}

	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Пароль должен быть минимум 6 символов",
		})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка обработки пароля",
		})
		return
	}

	user, err := rs.userRepo.CreateUser(req.Username, passwordHash, req.IsAdmin)
	if err == auth.ErrUserExists {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Пользователь уже существует",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка создания пользователя",
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Пользователь успешно создан",
		Data: map[string]interface{}{
			"user_id":  user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// handleStats возвращает статистику движка
func (rs *RestServer) handleStats(c *gin.Context) {
	store := rs.session.Store()

	stats := map[string]interface{}{
		"engine": map[string]interface{}{
			"blocks":        store.Count(),
			"history_depth": store.History().Depth(),
			"can_undo":      store.History().CanUndo(),
			"can_redo":      store.History().CanRedo(),
			"chunks":        store.Index().ChunkCount(),
			"index":         store.Index().Stats(),
		},
		"server": map[string]interface{}{
			"uptime":      rs.metrics.GetUptime(),
			"server_time": time.Now().Unix(),
		},
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	rs.httpSrv = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}
	err := rs.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpSrv == nil {
		return nil
	}
	return rs.httpSrv.Shutdown(ctx)
}
