package commands

import (
	"context"
	"fmt"
	"time"

	pkgjwt "github.com/jhoicas/firmador-ais/pkg/jwt"
)

type TokenCmd struct {
	ClientID string        `help:"Identificador del cliente de la API" required:""`
	Scope    []string      `help:"Scopes concedidos" default:"signatures:write,signatures:read"`
	TTL      time.Duration `help:"Vigencia del token" default:"1h"`
}

func (t *TokenCmd) Run(_ context.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	minutes := int(t.TTL / time.Minute)
	if minutes <= 0 {
		return fmt.Errorf("ttl mínimo 1m")
	}
	token, err := pkgjwt.Generate(cfg.JWT.Secret, t.ClientID, t.Scope, cfg.JWT.Issuer, minutes)
	if err != nil {
		return err
	}
	fmt.Fprintln(globals.out(), token)
	return nil
}
