package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Имена компонентов, для которых в конфигурации можно задать свой уровень
const (
	ComponentWorld   = "world"
	ComponentEngine  = "engine"
	ComponentStorage = "storage"
	ComponentAPI     = "api"
)

// Settings - раздел logging конфигурации в виде, не зависящем от пакета config
type Settings struct {
	Dir        string            // Каталог файлов логов; пусто - только консоль
	Level      string            // Уровень консоли по умолчанию
	Components map[string]string // Уровень консоли для отдельных компонентов
}

// LoggerManager раздаёт логгеры компонентов и применяет к ним уровни из конфигурации.
// Уровни, заданные до создания логгера, применяются при его создании.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	base    LogLevel
	levels  map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создаёт менеджер с уровнем INFO для всех компонентов
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		base:    INFO,
		levels:  make(map[string]LogLevel),
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// Configure применяет настройки: каталог и уровень по умолчанию для процесса,
// уровни компонентов для уже созданных и будущих логгеров.
// Неизвестное имя уровня - ошибка, чтобы опечатка в конфигурации не прошла молча.
func (lm *LoggerManager) Configure(s Settings) error {
	base := INFO
	if s.Level != "" {
		lvl, err := parseStrict(s.Level)
		if err != nil {
			return err
		}
		base = lvl
	}

	levels := make(map[string]LogLevel, len(s.Components))
	for component, name := range s.Components {
		lvl, err := parseStrict(name)
		if err != nil {
			return fmt.Errorf("component %s: %w", component, err)
		}
		levels[component] = lvl
	}

	SetLogDir(s.Dir)
	SetDefaultLevel(base)

	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.base = base
	lm.levels = levels
	for component, logger := range lm.loggers {
		logger.minConsoleLevel = lm.levelFor(component)
	}
	return nil
}

func parseStrict(name string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return ParseLevel(name), nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", name)
	}
}

// levelFor вызывается под lm.mu
func (lm *LoggerManager) levelFor(component string) LogLevel {
	if lvl, ok := lm.levels[component]; ok {
		return lvl
	}
	return lm.base
}

// GetLogger возвращает логгер компонента, создавая его при первом запросе
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger for %s: %w", component, err)
	}
	logger.minConsoleLevel = lm.levelFor(component)

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер; если файл открыть не удалось, пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	defaultLogger.Warn("Логгер %s без файла: %v", component, err)

	lm.mu.Lock()
	defer lm.mu.Unlock()

	logger = &Logger{
		component:       component,
		consoleLogger:   defaultLogger.consoleLogger,
		minConsoleLevel: lm.levelFor(component),
		minFileLevel:    TRACE,
	}
	lm.loggers[component] = logger
	return logger
}

// Level возвращает текущий консольный уровень компонента
func (lm *LoggerManager) Level(component string) LogLevel {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.levelFor(component)
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close logger for %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger(ComponentWorld)
}

func GetEngineLogger() *Logger {
	return GetComponentLogger(ComponentEngine)
}

func GetAPILogger() *Logger {
	return GetComponentLogger(ComponentAPI)
}

func GetStorageLogger() *Logger {
	return GetComponentLogger(ComponentStorage)
}
