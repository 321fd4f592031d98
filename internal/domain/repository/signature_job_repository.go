package repository

import (
	"context"

	"github.com/jhoicas/firmador-ais/internal/domain/entity"
)

// SignatureJobRepository define el puerto de persistencia para SignatureJob.
// Las implementaciones deben ser seguras para uso concurrente.
type SignatureJobRepository interface {
	Create(ctx context.Context, job *entity.SignatureJob) error
	// UpdateStatus cambia el estado; consentURL o message vacíos conservan el valor actual.
	UpdateStatus(ctx context.Context, id, status, consentURL, message string) error
	// IncrementApplied suma una firma incrustada y marca appliedSignature.
	IncrementApplied(ctx context.Context, id string) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.SignatureJob, error)
}
