package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/firmador-ais/internal/domain"
	"github.com/jhoicas/firmador-ais/internal/domain/entity"
	"github.com/jhoicas/firmador-ais/internal/domain/repository"
)

// Asegura que SignatureJobRepo implementa repository.SignatureJobRepository.
var _ repository.SignatureJobRepository = (*SignatureJobRepo)(nil)

// SignatureJobRepo implementación del puerto SignatureJobRepository sobre PostgreSQL.
type SignatureJobRepo struct {
	q Querier
}

// NewSignatureJobRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSignatureJobRepository(q Querier) *SignatureJobRepo {
	return &SignatureJobRepo{q: q}
}

// Create persiste un trabajo nuevo.
func (r *SignatureJobRepo) Create(ctx context.Context, job *entity.SignatureJob) error {
	query := `
		INSERT INTO signature_jobs (id, requested_by, mode, input_paths, output_paths, status,
			consent_url, applied_count, status_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		job.ID, job.RequestedBy, job.Mode, job.InputPaths, job.OutputPaths, job.Status,
		job.ConsentURL, job.AppliedCount, job.StatusMessage, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("trabajo %s: %w", job.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert signature job: %w", err)
	}
	return nil
}

// UpdateStatus cambia el estado. consentURL o message vacíos conservan el valor actual.
func (r *SignatureJobRepo) UpdateStatus(ctx context.Context, id, status, consentURL, message string) error {
	query := `
		UPDATE signature_jobs
		SET status = $2,
			consent_url = COALESCE(NULLIF($3, ''), consent_url),
			status_message = COALESCE(NULLIF($4, ''), status_message),
			updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, status, consentURL, message, time.Now())
	if err != nil {
		return fmt.Errorf("update signature job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trabajo %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// IncrementApplied suma una firma incrustada y marca appliedSignature.
func (r *SignatureJobRepo) IncrementApplied(ctx context.Context, id string) error {
	query := `
		UPDATE signature_jobs
		SET applied_count = applied_count + 1, status = $2, updated_at = $3
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, entity.JobStatusAppliedSignature, time.Now())
	if err != nil {
		return fmt.Errorf("increment applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trabajo %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene un trabajo por ID; nil, nil si no existe.
func (r *SignatureJobRepo) GetByID(ctx context.Context, id string) (*entity.SignatureJob, error) {
	query := `
		SELECT id, requested_by, mode, input_paths, output_paths, status,
			consent_url, applied_count, status_message, created_at, updated_at
		FROM signature_jobs WHERE id = $1`
	var j entity.SignatureJob
	err := r.q.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.RequestedBy, &j.Mode, &j.InputPaths, &j.OutputPaths, &j.Status,
		&j.ConsentURL, &j.AppliedCount, &j.StatusMessage, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get signature job: %w", err)
	}
	return &j, nil
}
