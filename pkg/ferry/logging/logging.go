// Package logging provides component loggers for ferry, written to a
// rotating log file and optionally mirrored to stderr.
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	log := logging.Get("operation")
//	log.Info("copy started", "source", src)
//
// Loggers obtained before Init are silent and are rewired by Init.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Level is a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// String returns the level name.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name. "warning" is accepted for warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level is the default file level.
	Level string

	// Path is the log file. Empty uses DefaultLogPath.
	Path string

	Rotation RotationConfig

	// Components overrides Level per component.
	Components map[string]string

	// ConsoleLevel mirrors records at this level and above to Console.
	// Empty disables the mirror.
	ConsoleLevel string

	// Console receives the mirror; nil means stderr.
	Console io.Writer

	// Fs holds the log file; nil means the host filesystem.
	Fs afero.Fs
}

// Logger is a component logger.
type Logger struct {
	current atomic.Pointer[sinks]
}

type sinks struct {
	file    *log.Logger
	console *log.Logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.emit(LevelInfo, msg, args) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.emit(LevelWarn, msg, args) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }

func (l *Logger) emit(level Level, msg string, args []any) {
	s := l.current.Load()
	s.file.Log(level.charm(), msg, args...)
	if s.console != nil {
		s.console.Log(level.charm(), msg, args...)
	}
}

// With returns a logger that adds the given key/value pairs to every
// record. It keeps the outputs of the moment: a later Init does not
// rewire it.
func (l *Logger) With(args ...any) *Logger {
	s := l.current.Load()
	derived := &sinks{file: s.file.With(args...)}
	if s.console != nil {
		derived.console = s.console.With(args...)
	}
	out := &Logger{}
	out.current.Store(derived)
	return out
}

type state struct {
	mu         sync.Mutex
	writer     *RotatingWriter
	level      Level
	components map[string]Level
	console    io.Writer
	consoleLvl Level
	loggers    map[string]*Logger
}

var global = &state{
	components: make(map[string]Level),
	loggers:    make(map[string]*Logger),
}

// Init opens the log file and rewires every logger handed out so far.
// Calling Init again replaces the previous configuration.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	components := make(map[string]Level, len(cfg.Components))
	for comp, name := range cfg.Components {
		lvl, err := ParseLevel(name)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = lvl
	}

	var console io.Writer
	var consoleLvl Level
	if cfg.ConsoleLevel != "" {
		if consoleLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = cfg.Console
		if console == nil {
			console = os.Stderr
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	writer, err := NewRotatingWriter(fsys, path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}
	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLvl = consoleLvl
	for comp, l := range global.loggers {
		l.current.Store(global.build(comp))
	}
	return nil
}

// Get returns the logger of a component. The same pointer is returned for
// the same component, and Init updates it in place.
func Get(component string) *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l := &Logger{}
	l.current.Store(global.build(component))
	global.loggers[component] = l
	return l
}

// build must be called with mu held.
func (s *state) build(component string) *sinks {
	level := s.level
	if lvl, ok := s.components[component]; ok {
		level = lvl
	}

	var out io.Writer = io.Discard
	if s.writer != nil {
		out = s.writer
	}
	l := &sinks{file: log.NewWithOptions(out, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})}

	if s.console != nil {
		l.console = log.NewWithOptions(s.console, log.Options{
			Level:           s.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return l
}

// Close flushes the log file. Loggers go silent until the next Init.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer == nil {
		return nil
	}
	err := global.writer.Close()
	global.writer = nil
	global.console = nil
	global.components = make(map[string]Level)
	for comp, l := range global.loggers {
		l.current.Store(global.build(comp))
	}
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/ferry/ferry.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "ferry", "ferry.log")
}

// DefaultConfig returns info-level file logging at the default path.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
