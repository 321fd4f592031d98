package signing

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	domsigning "github.com/jhoicas/firmador-ais/internal/domain/signing"
	infraais "github.com/jhoicas/firmador-ais/internal/infrastructure/ais"
)

// poller lleva una PollingSession hasta un estado terminal. La espera entre
// consultas es el único punto de suspensión y corre en la goroutine de la
// operación.
type poller struct {
	sender   Sender
	endpoint string
	log      zerolog.Logger
}

// run parte de la primera respuesta (ya PENDING) y devuelve la última
// respuesta recibida. Un error de envío o de parseo cierra la sesión en
// FAILURE; la cancelación del contexto, durante la espera o durante un envío,
// la cierra en TIMEOUT.
func (p *poller) run(ctx context.Context, session *domsigning.PollingSession, first *infraais.Response, pollBody []byte) (*infraais.Response, error) {
	var schedule backoff.BackOff = backoff.NewConstantBackOff(session.Interval)
	resp := first

	for session.Advance(resp.Result().Major) == domsigning.StatePending {
		if err := wait(ctx, schedule.NextBackOff()); err != nil {
			p.log.Warn().Str("response_id", session.ResponseID).Int("retries", session.RetriesUsed).
				Msg("polling: cancelado durante la espera")
			session.Abort(domsigning.StateTimeout)
			return resp, nil
		}
		session.Retry()
		p.log.Debug().Str("response_id", session.ResponseID).Int("retry", session.RetriesUsed).
			Int("max", session.MaxRetries).Msg("polling: consultando estado")

		raw, err := p.sender.Send(ctx, pollBody, p.endpoint)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Warn().Str("response_id", session.ResponseID).Int("retries", session.RetriesUsed).
					Msg("polling: cancelado durante el envío")
				session.Abort(domsigning.StateTimeout)
				return resp, nil
			}
			session.Abort(domsigning.StateFailure)
			return nil, err
		}
		next, err := infraais.ParseResponse(raw)
		if err != nil {
			session.Abort(domsigning.StateFailure)
			return nil, err
		}
		resp = next
	}

	if session.State == domsigning.StateTimeout {
		p.log.Warn().Str("response_id", session.ResponseID).Int("max", session.MaxRetries).
			Msg("polling: máximo de reintentos alcanzado")
	}
	return resp, nil
}

// wait duerme d o hasta que el contexto se cancele.
func wait(ctx context.Context, d time.Duration) error {
	if d == backoff.Stop {
		return context.Canceled
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
