package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath - переменная окружения с путём к YAML конфигурации
const EnvConfigPath = "ZONEWORLD_CONFIG"

// ErrInvalidConfig оборачивает все ошибки валидации
var ErrInvalidConfig = errors.New("invalid config")

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Blocks    []BlockConfig   `yaml:"blocks"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorldConfig - параметры стриминга зон и выделения
type WorldConfig struct {
	Seed         int64   `yaml:"seed"`
	ViewGridSize int     `yaml:"view_grid_size"` // Радиус видимости в зонах
	MemGridSize  int     `yaml:"mem_grid_size"`  // Радиус удержания в памяти в зонах
	RayMaxT      float64 `yaml:"ray_max_t"`
	RayStep      float64 `yaml:"ray_step"`
	TickRate     int     `yaml:"tick_rate"` // Кадров в секунду игрового цикла
}

// TerrainConfig - коэффициенты шумового ландшафта. Нулевые значения заменяются
// значениями по умолчанию, кроме явно указанных порогов.
type TerrainConfig struct {
	HorizontalScale    float64  `yaml:"horizontal_scale"`
	CenterFalloff      float64  `yaml:"center_falloff"`
	CaveOctaves        int      `yaml:"cave_octaves"`
	CaveFrequency      float64  `yaml:"cave_frequency"`
	CaveThreshold      *float64 `yaml:"cave_threshold"`
	DensityOctaves     int      `yaml:"density_octaves"`
	VerticalSquash     float64  `yaml:"vertical_squash"`
	VariationFrequency float64  `yaml:"variation_frequency"`
	VariationOffset    float64  `yaml:"variation_offset"`
	VariationExponent  float64  `yaml:"variation_exponent"`
	BandMin            *float64 `yaml:"band_min"`
	BandMax            *float64 `yaml:"band_max"`
}

// BlockConfig описывает один тип блока для каталога
type BlockConfig struct {
	ID         int      `yaml:"id"`
	Name       string   `yaml:"name"`
	Solid      bool     `yaml:"solid"`
	Selectable bool     `yaml:"selectable"`
	Texture    int      `yaml:"texture"`
	DensityMin *float64 `yaml:"density_min"` // Если задан, тип участвует в генерации
}

// StorageConfig - журнал пользовательских правок
type StorageConfig struct {
	JournalPath string `yaml:"journal_path"` // Пусто - журнал в памяти
}

// ServerConfig - отладочный HTTP сервер
type ServerConfig struct {
	DebugPort int `yaml:"debug_port"`
}

// TelemetryConfig - OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig - уровень и каталог логов
type LoggingConfig struct {
	Level      string            `yaml:"level"`
	Dir        string            `yaml:"dir"`
	Components map[string]string `yaml:"components"` // Уровни world, engine, storage, api
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults заполняет незаданные поля
func (c *Config) ApplyDefaults() {
	if c.World.ViewGridSize == 0 {
		c.World.ViewGridSize = 5
	}
	if c.World.MemGridSize == 0 {
		c.World.MemGridSize = 10
	}
	if c.World.RayMaxT == 0 {
		c.World.RayMaxT = 0.1
	}
	if c.World.RayStep == 0 {
		c.World.RayStep = 0.001
	}
	if c.World.TickRate == 0 {
		c.World.TickRate = 20
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "zoneworld"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	if c.World.ViewGridSize < 0 {
		return fmt.Errorf("%w: view_grid_size %d < 0", ErrInvalidConfig, c.World.ViewGridSize)
	}
	if c.World.MemGridSize < c.World.ViewGridSize {
		return fmt.Errorf("%w: mem_grid_size %d < view_grid_size %d",
			ErrInvalidConfig, c.World.MemGridSize, c.World.ViewGridSize)
	}
	if c.World.RayStep <= 0 || c.World.RayMaxT <= 0 {
		return fmt.Errorf("%w: ray_step and ray_max_t must be positive", ErrInvalidConfig)
	}

	seen := make(map[int]string, len(c.Blocks))
	for _, b := range c.Blocks {
		if b.ID < 0 || b.ID > 255 {
			return fmt.Errorf("%w: block %q has id %d outside 0-255", ErrInvalidConfig, b.Name, b.ID)
		}
		if prev, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: block id %d used by %q and %q", ErrInvalidConfig, b.ID, prev, b.Name)
		}
		if b.ID == 0 && b.DensityMin != nil {
			return fmt.Errorf("%w: air cannot have density_min", ErrInvalidConfig)
		}
		seen[b.ID] = b.Name
	}
	return nil
}

// GetDebugPort возвращает порт отладочного API с поддержкой fallback значений
func (s *ServerConfig) GetDebugPort() int {
	return getPortWithEnvFallback(s.DebugPort, "ZONEWORLD_DEBUG_PORT", 8089)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV ZONEWORLD_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return Default(), nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
