package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	EventBus EventBusConfig `yaml:"eventbus"`
}

// EngineConfig задаёт параметры воксельного движка
type EngineConfig struct {
	GridX      int    `yaml:"grid_x"`      // Ячеек по X (по умолчанию 100)
	GridY      int    `yaml:"grid_y"`      // Ячеек по Y (по умолчанию 100)
	GridZ      int    `yaml:"grid_z"`      // Уровней высоты (по умолчанию 50)
	MaxBlocks  int    `yaml:"max_blocks"`  // Потолок блоков (по умолчанию 500000)
	ChunkSize  int    `yaml:"chunk_size"`  // Размер чанка индекса (по умолчанию 10)
	HistoryCap int    `yaml:"history_cap"` // Потолок истории (по умолчанию 100)
	FillBudget int    `yaml:"fill_budget"` // Бюджет заливки (по умолчанию 10000)
	BlockTypes string `yaml:"block_types"` // Каталог с описаниями типов блоков
}

// ServerConfig задаёт порты сервера
type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// StorageConfig задаёт хранилище проектов
type StorageConfig struct {
	Backend  string `yaml:"backend"`   // memory | file | badger
	DataPath string `yaml:"data_path"` // Каталог данных для file/badger
}

// EventBusConfig задаёт шину событий
type EventBusConfig struct {
	URL       string `yaml:"url"`             // NATS URL; пусто — только in-memory шина
	Stream    string `yaml:"stream"`          // Имя JetStream-потока
	Retention int    `yaml:"retention_hours"` // Срок хранения событий
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8090)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			GridX:      100,
			GridY:      100,
			GridZ:      50,
			MaxBlocks:  500000,
			ChunkSize:  10,
			HistoryCap: 100,
			FillBudget: 10000,
			BlockTypes: "assets/blocktypes",
		},
		Storage: StorageConfig{
			Backend:  "file",
			DataPath: "data",
		},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или
// возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
