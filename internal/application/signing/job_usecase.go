package signing

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/firmador-ais/internal/application/dto"
	"github.com/jhoicas/firmador-ais/internal/domain"
	"github.com/jhoicas/firmador-ais/internal/domain/entity"
	"github.com/jhoicas/firmador-ais/internal/domain/repository"
	domsigning "github.com/jhoicas/firmador-ais/internal/domain/signing"
)

// Signer ejecuta una operación de firma completa (implementado por *Engine).
type Signer interface {
	Sign(ctx context.Context, correlationID string, docs []Document, sel *domsigning.Selection) (*domsigning.Outcome, error)
}

var _ Signer = (*Engine)(nil)

// JobConfig parámetros de los trabajos enviados por la API.
type JobConfig struct {
	// WorkDir directorio base; cada trabajo usa WorkDir/<id>/{in,out}.
	WorkDir string
	// Timeout plazo total de una operación, incluido el polling.
	Timeout time.Duration
}

// JobUseCase recibe trabajos de firma, los persiste y los procesa en segundo
// plano, desacoplados del ciclo HTTP:
//
//	Validar → Persistir (signProcessStarted) → Firmar → signed | error
type JobUseCase struct {
	repo     repository.SignatureJobRepository
	selector *domsigning.Selector
	signer   Signer
	cfg      JobConfig
	log      zerolog.Logger
	wg       sync.WaitGroup

	// root padre de todas las operaciones; Shutdown lo cancela.
	root context.Context
	stop context.CancelFunc
}

// NewJobUseCase construye el caso de uso.
func NewJobUseCase(repo repository.SignatureJobRepository, selector *domsigning.Selector, signer Signer, cfg JobConfig, log zerolog.Logger) *JobUseCase {
	root, stop := context.WithCancel(context.Background())
	return &JobUseCase{repo: repo, selector: selector, signer: signer, cfg: cfg, log: log, root: root, stop: stop}
}

// Submit valida la petición, guarda los documentos y el trabajo, y lanza el
// procesamiento asíncrono. Devuelve el trabajo en estado signProcessStarted.
func (uc *JobUseCase) Submit(ctx context.Context, requestedBy string, in dto.CreateSignatureRequest) (*dto.SignatureJobResponse, error) {
	names, contents, err := decodeDocuments(in.Documents)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	dir := filepath.Join(uc.cfg.WorkDir, jobID)
	inDir, outDir := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	for _, d := range []string{inDir, outDir} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return nil, fmt.Errorf("crear directorio de trabajo: %w", err)
		}
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	inputs := make([]string, len(names))
	outputs := make([]string, len(names))
	for i, name := range names {
		inputs[i] = filepath.Join(inDir, name)
		outputs[i] = filepath.Join(outDir, name+".zip")
		if err := os.WriteFile(inputs[i], contents[i], 0o640); err != nil {
			cleanup()
			return nil, fmt.Errorf("guardar documento %s: %w", name, err)
		}
	}

	params := domsigning.Params{
		Type:              in.Type,
		InputPaths:        inputs,
		OutputPaths:       outputs,
		DistinguishedName: in.DistinguishedName,
		Reason:            in.Reason,
		Location:          in.Location,
		ContactInfo:       in.ContactInfo,
	}
	if in.StepUp != nil {
		params.MSISDN = in.StepUp.MSISDN
		params.Message = in.StepUp.Message
		params.Language = in.StepUp.Language
		params.SerialNumber = in.StepUp.SerialNumber
	}
	sel, err := uc.selector.Select(params)
	if err != nil {
		cleanup()
		return nil, err
	}

	now := time.Now()
	job := &entity.SignatureJob{
		ID:            jobID,
		RequestedBy:   requestedBy,
		Mode:          string(sel.Mode),
		InputPaths:    inputs,
		OutputPaths:   outputs,
		Status:        entity.JobStatusStarted,
		StatusMessage: strings.Join(sel.Warnings, "; "),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, job); err != nil {
		cleanup()
		return nil, err
	}

	uc.ProcessAsync(job, sel)

	resp := toJobResponse(job)
	resp.Warnings = sel.Warnings
	return resp, nil
}

// ProcessAsync dispara la firma del trabajo en una goroutine independiente.
func (uc *JobUseCase) ProcessAsync(job *entity.SignatureJob, sel *domsigning.Selection) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.process(job, sel)
	}()
}

// Wait bloquea hasta que terminan los trabajos en curso.
func (uc *JobUseCase) Wait() {
	uc.wg.Wait()
}

// Shutdown interrumpe los trabajos en curso (terminan en TIMEOUT y quedan en
// estado error) y espera a que persistan su estado final.
func (uc *JobUseCase) Shutdown() {
	uc.stop()
	uc.wg.Wait()
}

// process siempre termina actualizando el estado del trabajo (signed o error).
func (uc *JobUseCase) process(job *entity.SignatureJob, sel *domsigning.Selection) {
	log := uc.log.With().Str("job_id", job.ID).Str("mode", job.Mode).Logger()

	timeout := uc.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	ctx, cancel := context.WithTimeout(uc.root, timeout)
	defer cancel()

	docs := make([]Document, len(job.InputPaths))
	for i := range job.InputPaths {
		docs[i] = Document{Index: i, InputPath: job.InputPaths[i], OutputPath: job.OutputPaths[i]}
	}

	status, message := entity.JobStatusSigned, job.StatusMessage
	outcome, err := uc.signer.Sign(ctx, job.ID, docs, sel)
	if err != nil {
		status, message = entity.JobStatusError, err.Error()
		log.Error().Err(err).Str("state", string(outcomeState(outcome))).Msg("trabajo: firma fallida")
	} else {
		log.Info().Int("signatures", len(outcome.Signatures)).Msg("trabajo: firmado")
	}

	// contexto propio: el de la operación puede haber vencido
	uctx, ucancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ucancel()
	if err := uc.repo.UpdateStatus(uctx, job.ID, status, "", message); err != nil {
		log.Error().Err(err).Str("status", status).Msg("trabajo: no se pudo persistir el estado final")
	}
}

// Get devuelve el trabajo si pertenece a requestedBy.
func (uc *JobUseCase) Get(ctx context.Context, requestedBy, id string) (*dto.SignatureJobResponse, error) {
	job, err := uc.find(ctx, requestedBy, id)
	if err != nil {
		return nil, err
	}
	return toJobResponse(job), nil
}

// OutputPath ruta del paquete firmado número index de un trabajo terminado.
func (uc *JobUseCase) OutputPath(ctx context.Context, requestedBy, id string, index int) (string, error) {
	job, err := uc.find(ctx, requestedBy, id)
	if err != nil {
		return "", err
	}
	if job.Status != entity.JobStatusSigned {
		return "", fmt.Errorf("trabajo en estado %s: %w", job.Status, domain.ErrConflict)
	}
	if index < 0 || index >= len(job.OutputPaths) {
		return "", fmt.Errorf("documento %d: %w", index, domain.ErrNotFound)
	}
	return job.OutputPaths[index], nil
}

func (uc *JobUseCase) find(ctx context.Context, requestedBy, id string) (*entity.SignatureJob, error) {
	job, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("trabajo %s: %w", id, domain.ErrNotFound)
	}
	if job.RequestedBy != requestedBy {
		return nil, fmt.Errorf("trabajo %s: %w", id, domain.ErrForbidden)
	}
	return job, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// decodeDocuments valida nombres (sin rutas, sin repetir) y contenido Base64.
func decodeDocuments(in []dto.SignatureDocumentInput) ([]string, [][]byte, error) {
	if len(in) == 0 {
		return nil, nil, domain.ValidationError("falta al menos un documento")
	}
	names := make([]string, len(in))
	contents := make([][]byte, len(in))
	seen := make(map[string]bool, len(in))
	for i, d := range in {
		name := filepath.Base(strings.TrimSpace(d.Name))
		if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
			return nil, nil, domain.ValidationError("documento %d: nombre inválido %q", i, d.Name)
		}
		if seen[name] {
			return nil, nil, domain.ValidationError("documento %q repetido", name)
		}
		seen[name] = true
		b, err := base64.StdEncoding.DecodeString(d.Content)
		if err != nil {
			return nil, nil, domain.ValidationError("documento %q: contenido no es base64: %v", name, err)
		}
		if len(b) == 0 {
			return nil, nil, domain.ValidationError("documento %q vacío", name)
		}
		names[i], contents[i] = name, b
	}
	return names, contents, nil
}

func outcomeState(o *domsigning.Outcome) domsigning.State {
	if o == nil {
		return domsigning.StateFailure
	}
	return o.State
}

func toJobResponse(j *entity.SignatureJob) *dto.SignatureJobResponse {
	return &dto.SignatureJobResponse{
		ID:           j.ID,
		Mode:         j.Mode,
		Status:       j.Status,
		ConsentURL:   j.ConsentURL,
		Documents:    len(j.OutputPaths),
		AppliedCount: j.AppliedCount,
		Message:      j.StatusMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}
