package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level representa el nivel de logging.
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// Fields representa pares clave-valor para structured logging.
type Fields map[string]any

// Config gestiona la configuración global del logger.
type Config struct {
	mu     sync.RWMutex
	logger zerolog.Logger
	level  Level
	out    io.Writer
	json   bool
	color  bool
}

var cfg = newConfig(os.Stderr)

func newConfig(w io.Writer) *Config {
	c := &Config{
		level: LevelInfo,
		out:   w,
		color: !DetectOutput(w).NoColor,
	}
	c.rebuild()
	return c
}

// rebuild recrea el logger a partir del writer y modo actuales.
// El llamador debe tener el lock de escritura.
func (c *Config) rebuild() {
	if c.json {
		c.logger = zerolog.New(c.out).With().Timestamp().Logger()
		return
	}
	c.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        c.out,
		TimeFormat: "15:04:05",
		NoColor:    !c.color,
	}).With().Timestamp().Logger()
}

// SetVerbosity configura el nivel: 0=info, 1=info, 2=debug, 3=trace
func SetVerbosity(v int) {
	switch {
	case v <= 1:
		SetLevel(LevelInfo)
	case v == 2:
		SetLevel(LevelDebug)
	default:
		SetLevel(LevelTrace)
	}
}

// SetLevel cambia el nivel mínimo de logging
func SetLevel(l Level) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.level = l

	var zlevel zerolog.Level
	switch l {
	case LevelError:
		zlevel = zerolog.ErrorLevel
	case LevelWarn:
		zlevel = zerolog.WarnLevel
	case LevelInfo:
		zlevel = zerolog.InfoLevel
	case LevelDebug:
		zlevel = zerolog.DebugLevel
	case LevelTrace:
		zlevel = zerolog.TraceLevel
	default:
		zlevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(zlevel)
}

// ParseLevel convierte string a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return 0, fmt.Errorf("logx: nivel desconocido %q", s)
	}
}

// SetOutput redirige la salida del logger. Los colores se recalculan
// según el nuevo destino.
func SetOutput(w io.Writer) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	cfg.out = w
	cfg.color = !DetectOutput(w).NoColor
	cfg.rebuild()
}

// EnableColors activa/desactiva colores ANSI
func EnableColors(enabled bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.color = enabled
	cfg.rebuild()
}

// SetJSON habilita output JSON estructurado
func SetJSON(enabled bool) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.json = enabled
	cfg.rebuild()
}

func current() zerolog.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.logger
}

// Funciones con fields estructurados
func Error(msg string, fields Fields) { emit(LevelError, msg, fields) }
func Warn(msg string, fields Fields)  { emit(LevelWarn, msg, fields) }
func Info(msg string, fields Fields)  { emit(LevelInfo, msg, fields) }
func Debug(msg string, fields Fields) { emit(LevelDebug, msg, fields) }
func Trace(msg string, fields Fields) { emit(LevelTrace, msg, fields) }

func emit(lvl Level, msg string, fields Fields) {
	logger := current()

	var event *zerolog.Event
	switch lvl {
	case LevelError:
		event = logger.Error()
	case LevelWarn:
		event = logger.Warn()
	case LevelInfo:
		event = logger.Info()
	case LevelDebug:
		event = logger.Debug()
	default:
		event = logger.Trace()
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// LogParser registra con el campo "parser" pre-agregado para facilitar filtrado.
func LogParser(level Level, parser, msg string, extra ...Fields) {
	fields := Fields{"parser": parser}
	for _, e := range extra {
		for k, v := range e {
			fields[k] = v
		}
	}
	emit(level, msg, fields)
}
