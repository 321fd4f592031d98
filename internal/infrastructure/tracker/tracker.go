// Package tracker implementa los receptores de eventos del ciclo de vida de
// una firma: registro en log (CLI) y persistencia del estado del trabajo (API).
package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	appsigning "github.com/jhoicas/firmador-ais/internal/application/signing"
	"github.com/jhoicas/firmador-ais/internal/domain/entity"
	"github.com/jhoicas/firmador-ais/internal/domain/repository"
)

// updateTimeout plazo de cada escritura del JobTracker.
const updateTimeout = 5 * time.Second

// ── LogTracker ──────────────────────────────────────────────────────────────

// LogTracker registra cada evento en el logger. zerolog.Logger es seguro para
// uso concurrente, no necesita más sincronización.
type LogTracker struct {
	log zerolog.Logger
}

var _ appsigning.Tracker = LogTracker{}

// NewLogTracker construye el tracker de log.
func NewLogTracker(log zerolog.Logger) LogTracker {
	return LogTracker{log: log}
}

func (t LogTracker) OnConsentURL(correlationID, url string) {
	t.log.Info().Str("correlation_id", correlationID).Str("consent_url", url).
		Msg("abra la URL de consentimiento para autorizar la firma")
}

func (t LogTracker) OnSignatureObtained(correlationID string) {
	t.log.Info().Str("correlation_id", correlationID).Msg("firmas obtenidas")
}

func (t LogTracker) OnSignatureApplied(correlationID string) {
	t.log.Info().Str("correlation_id", correlationID).Msg("firma aplicada")
}

// ── JobTracker ──────────────────────────────────────────────────────────────

// JobTracker persiste los eventos en el trabajo cuyo ID es el correlation id.
// Un fallo de persistencia se registra y no interrumpe la firma.
type JobTracker struct {
	repo repository.SignatureJobRepository
	log  zerolog.Logger
}

var _ appsigning.Tracker = (*JobTracker)(nil)

// NewJobTracker construye el tracker sobre el repositorio de trabajos.
func NewJobTracker(repo repository.SignatureJobRepository, log zerolog.Logger) *JobTracker {
	return &JobTracker{repo: repo, log: log}
}

func (t *JobTracker) OnConsentURL(correlationID, url string) {
	t.update(correlationID, "consent-url", func(ctx context.Context) error {
		return t.repo.UpdateStatus(ctx, correlationID, entity.JobStatusGotConsentURL, url, "")
	})
}

func (t *JobTracker) OnSignatureObtained(correlationID string) {
	t.update(correlationID, "signature-obtained", func(ctx context.Context) error {
		return t.repo.UpdateStatus(ctx, correlationID, entity.JobStatusGotSignature, "", "")
	})
}

func (t *JobTracker) OnSignatureApplied(correlationID string) {
	t.update(correlationID, "signature-applied", func(ctx context.Context) error {
		return t.repo.IncrementApplied(ctx, correlationID)
	})
}

func (t *JobTracker) update(jobID, event string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		t.log.Error().Err(err).Str("job_id", jobID).Str("event", event).Msg("tracker: no se pudo persistir el evento")
		return
	}
	t.log.Debug().Str("job_id", jobID).Str("event", event).Msg("tracker: evento persistido")
}
