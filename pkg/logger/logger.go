package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env   string    // development -> consola legible; production -> JSON
	Level string    // trace, debug, info, warn, error
	Out   io.Writer // por defecto os.Stdout; la CLI usa os.Stderr
}

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado. En development usa salida legible; en production JSON.
func New(cfg Config) *Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	w := out
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: out}
	}

	level := parseLevel(cfg.Level)
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()

	// Redirigir el logger global de zerolog para librerías que lo usen
	log.Logger = zl

	return &Logger{zl: zl}
}

// LevelForVerbosity nivel para los flags -v / -vv de la CLI: 0 conserva
// base, 1 sube a debug y 2 o más a trace (incluye los XML intercambiados).
func LevelForVerbosity(verbosity int, base string) string {
	switch {
	case verbosity >= 2:
		return "trace"
	case verbosity == 1:
		return "debug"
	default:
		return base
	}
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Info, Warn, Error, Fatal delegados a zerolog.
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Zerolog devuelve el logger interno para inyectarlo en los componentes.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
