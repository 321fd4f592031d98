package signing

import (
	"time"

	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// PollingSession estado de una operación asíncrona (solo ONDEMAND_STEPUP).
// Las transiciones solo avanzan: PENDING → SUCCESS | FAILURE | TIMEOUT.
type PollingSession struct {
	ResponseID  string
	Interval    time.Duration
	MaxRetries  int
	RetriesUsed int
	State       State
}

// NewPollingSession abre una sesión en PENDING. Valores no positivos toman
// los valores por defecto del servicio (18 s, 10 reintentos).
func NewPollingSession(responseID string, interval time.Duration, maxRetries int) *PollingSession {
	if interval <= 0 {
		interval = ais.DefaultPollingIntervalMillis * time.Millisecond
	}
	if maxRetries < 0 {
		maxRetries = ais.DefaultPollRetries
	}
	return &PollingSession{
		ResponseID: responseID,
		Interval:   interval,
		MaxRetries: maxRetries,
		State:      StatePending,
	}
}

// Advance evalúa el ResultMajor de la última respuesta y devuelve el nuevo
// estado. Un estado terminal no cambia.
func (s *PollingSession) Advance(resultMajor string) State {
	if s.State.IsTerminal() {
		return s.State
	}
	switch {
	case resultMajor == ais.ResultMajorSuccess:
		s.State = StateSuccess
	case resultMajor == ais.ResultMajorPending && s.RetriesUsed < s.MaxRetries:
		s.State = StatePending
	case resultMajor == ais.ResultMajorPending:
		s.State = StateTimeout
	default:
		s.State = StateFailure
	}
	return s.State
}

// Retry registra un reintento consumido. Solo válido en PENDING.
func (s *PollingSession) Retry() bool {
	if s.State != StatePending || s.RetriesUsed >= s.MaxRetries {
		return false
	}
	s.RetriesUsed++
	return true
}

// Abort cierra la sesión en el estado terminal indicado si sigue en PENDING.
func (s *PollingSession) Abort(state State) {
	if s.State == StatePending && state.IsTerminal() {
		s.State = state
	}
}
