package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-studio/internal/api"
	"github.com/annel0/voxel-studio/internal/auth"
	"github.com/annel0/voxel-studio/internal/config"
	"github.com/annel0/voxel-studio/internal/eventbus"
	"github.com/annel0/voxel-studio/internal/gen"
	"github.com/annel0/voxel-studio/internal/logging"
	"github.com/annel0/voxel-studio/internal/observability"
	"github.com/annel0/voxel-studio/internal/session"
	"github.com/annel0/voxel-studio/internal/storage"
	"github.com/annel0/voxel-studio/internal/voxel"
	"github.com/annel0/voxel-studio/internal/voxel/block"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	scaffold := flag.Bool("scaffold", false, "сгенерировать стартовую подложку")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	logging.Info("🧊 Запуск Voxel Studio Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsPort := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	logging.Info("📡 Конфигурация сервера: REST API=%s, метрики=%s, хранилище=%s",
		restPort, metricsPort, cfg.Storage.Backend)

	// === OBSERVABILITY ===
	shutdownTelemetry, err := observability.InitTelemetry(context.Background(), "voxel-studio")
	if err != nil {
		logging.Warn("Трассировка недоступна: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	var jetBus *eventbus.JetStreamBus
	if cfg.EventBus.URL != "" {
		jetBus, err = eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream,
			time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			logging.Warn("JetStream недоступен (%v), используется in-memory шина", err)
		} else {
			bus = jetBus
		}
	}
	if bus == nil {
		bus = eventbus.NewMemoryBus(1024)
	}
	eventbus.Init(bus)

	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Слушатель логирования шины не запущен: %v", err)
	}

	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.StartHTTP(metricsPort)
	defer busMetrics.Stop()

	// === РЕЕСТР ТИПОВ БЛОКОВ ===
	registry := block.NewDefaultRegistry()
	if cfg.Engine.BlockTypes != "" {
		loaded, err := registry.LoadDir(cfg.Engine.BlockTypes)
		if err != nil {
			logging.Error("Ошибка загрузки типов блоков: %v", err)
		} else if loaded > 0 {
			logging.Info("🧱 Загружено пользовательских типов блоков: %d", loaded)
		}
	}

	// === СЕАНС РЕДАКТИРОВАНИЯ ===
	sess := session.New(session.Config{
		Store: voxel.StoreConfig{
			GridX:      cfg.Engine.GridX,
			GridY:      cfg.Engine.GridY,
			GridZ:      cfg.Engine.GridZ,
			MaxBlocks:  cfg.Engine.MaxBlocks,
			ChunkSize:  cfg.Engine.ChunkSize,
			HistoryCap: cfg.Engine.HistoryCap,
		},
		FillBudget: cfg.Engine.FillBudget,
		Source:     "voxel-studio",
	}, registry, bus)

	if *scaffold {
		placed, err := gen.NewScaffoldGenerator(time.Now().UnixNano()).
			Generate(sess.Store(), registry, cfg.Engine.GridX, cfg.Engine.GridY)
		if err != nil {
			logging.Error("Ошибка генерации подложки: %v", err)
		} else {
			logging.Info("⛰️  Сгенерирована подложка: %d блоков", placed)
		}
	}

	// === ХРАНИЛИЩЕ ПРОЕКТОВ ===
	var projects storage.ProjectRepo
	switch cfg.Storage.Backend {
	case "badger":
		projects, err = storage.NewBadgerRepo(cfg.Storage.DataPath)
	case "memory":
		projects = storage.NewMemoryRepo()
	default:
		projects, err = storage.NewFileRepo(cfg.Storage.DataPath)
	}
	if err != nil {
		logging.Error("❌ Ошибка инициализации хранилища проектов: %v", err)
		log.Fatalf("❌ Ошибка инициализации хранилища проектов: %v", err)
	}
	defer projects.Close()

	// === ПОЛЬЗОВАТЕЛИ И REST API ===
	userRepo, err := auth.NewMemoryUserRepo()
	if err != nil {
		logging.Error("❌ Ошибка создания репозитория пользователей: %v", err)
		log.Fatalf("❌ Ошибка создания репозитория пользователей: %v", err)
	}

	restServer := api.NewRestServer(api.Config{
		Port:     restPort,
		UserRepo: userRepo,
		Session:  sess,
		Projects: projects,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsPort)
	logging.Info("   🔐 JWT аутентификация активирована")
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("💡 Примеры использования REST API:")
	logging.Info("   curl http://localhost%s/health", restPort)
	logging.Info("   curl -X POST http://localhost%s/api/auth/login -H 'Content-Type: application/json' -d '{\"username\":\"admin\",\"password\":\"admin\"}'", restPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if jetBus != nil {
		jetBus.Close()
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки трассировки: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
