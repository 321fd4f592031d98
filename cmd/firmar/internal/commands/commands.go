package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/jhoicas/firmador-ais/pkg/config"
	"github.com/jhoicas/firmador-ais/pkg/logger"
)

// CLI raíz de la línea de comandos.
type CLI struct {
	Globals

	Sign    SignCmd  `cmd:"" help:"Firmar o sellar en el tiempo uno o varios documentos"`
	Token   TokenCmd `cmd:"" help:"Emitir un token JWT para la API"`
	Version kong.VersionFlag
}

// Globals flags comunes a todos los comandos.
type Globals struct {
	Config  string `help:"Archivo de configuración (.env, .yaml, .json)" type:"path" env:"FIRMAR_CONFIG"`
	Verbose int    `short:"v" type:"counter" help:"Más detalle: -v debug, -vv trace con los XML intercambiados"`

	// stdout salida de resultados; nil es os.Stdout.
	stdout io.Writer
}

// SetOutput redirige la salida de resultados.
func (g *Globals) SetOutput(w io.Writer) {
	g.stdout = w
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

// loadConfig usa --config si se indicó; si no, env y .env del directorio.
func (g *Globals) loadConfig() (*config.Config, error) {
	if g.Config != "" {
		return config.LoadFile(g.Config)
	}
	return config.Load()
}

// newLogger logger de consola en stderr, con el nivel subido por -v/-vv.
func (g *Globals) newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{
		Env:   "development",
		Level: logger.LevelForVerbosity(g.Verbose, cfg.Log.Level),
		Out:   os.Stderr,
	}).Zerolog()
}

// InterruptContext se cancela con SIGINT o SIGTERM. Una firma en curso termina
// entonces en TIMEOUT y el motor registra el motivo.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
