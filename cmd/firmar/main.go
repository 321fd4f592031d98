package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/jhoicas/firmador-ais/cmd/firmar/internal/commands"
)

var (
	version = "dev"
	cli     commands.CLI
)

func main() {
	// Ctrl-C interrumpe el polling: la operación termina en TIMEOUT.
	ctx, stop := commands.InterruptContext(context.Background())
	defer stop()
	cmd := kong.Parse(&cli,
		kong.Name("firmar"),
		kong.Description("Cliente del servicio de firma remota."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&cli.Globals)
	stop()
	cmd.FatalIfErrorf(err)
}
