package signing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/firmador-ais/internal/domain"
	domsigning "github.com/jhoicas/firmador-ais/internal/domain/signing"
	infraais "github.com/jhoicas/firmador-ais/internal/infrastructure/ais"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// EngineConfig parámetros del servicio remoto. Todos obligatorios salvo los
// de polling, que toman los valores por defecto.
type EngineConfig struct {
	Endpoint        string
	DigestAlgorithm ais.DigestAlgorithm
	Customer        string
	KeyStatic       string
	KeyOnDemand     string
	PollInterval    time.Duration
	PollRetries     int
	// Verbose registra los códigos de resultado de cada respuesta en nivel info.
	Verbose bool
}

// Engine motor de protocolo. Sin estado compartido entre operaciones: cada
// llamada a Sign construye sus propias peticiones y sesión de polling.
type Engine struct {
	cfg     EngineConfig
	sender  Sender
	docs    DocumentEngine
	tracker Tracker
	log     zerolog.Logger
	now     func() time.Time
}

// NewEngine construye el motor con sus colaboradores.
func NewEngine(cfg EngineConfig, sender Sender, docs DocumentEngine, tracker Tracker, log zerolog.Logger) *Engine {
	if tracker == nil {
		tracker = NopTracker{}
	}
	return &Engine{
		cfg:     cfg,
		sender:  sender,
		docs:    docs,
		tracker: tracker,
		log:     log,
		now:     time.Now,
	}
}

// Sign ejecuta una operación de firma sobre el lote de documentos con el
// modo resuelto por el selector. Devuelve siempre el Outcome; en fallo el
// error es un *domain.SigningError y el Outcome no lleva firmas.
// Los documentos ya incrustados antes de un error no se revierten.
func (e *Engine) Sign(ctx context.Context, correlationID string, docs []Document, sel *domsigning.Selection) (*domsigning.Outcome, error) {
	mode := sel.Mode
	log := e.log.With().Str("correlation_id", correlationID).Str("mode", string(mode)).Int("documents", len(docs)).Logger()

	prepared := 0
	fail := func(state domsigning.State, err error) (*domsigning.Outcome, error) {
		log.Error().Err(err).Str("state", string(state)).Msg("firma: operación fallida")
		for _, d := range docs[:prepared] {
			e.docs.Discard(d)
		}
		return &domsigning.Outcome{State: state, Err: err}, err
	}

	if len(docs) == 0 {
		return fail(domsigning.StateFailure, domain.ValidationError("lote vacío"))
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 1. Hash de cada documento
	// ═══════════════════════════════════════════════════════════════════════
	placeholder := mode.PlaceholderSize()
	signingTime := mode.SigningTime(e.now())
	digests := make([][]byte, len(docs))
	for i, d := range docs {
		h, err := e.docs.Hash(d, signingTime, placeholder, e.cfg.DigestAlgorithm)
		if err != nil {
			return fail(domsigning.StateFailure, domain.ValidationError("documento %s: hash: %v", d.InputPath, err))
		}
		digests[i] = h
		prepared = i + 1
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 2. Petición de firma
	// ═══════════════════════════════════════════════════════════════════════
	identity := mode.ClaimedIdentity(e.cfg.Customer, e.cfg.KeyStatic, e.cfg.KeyOnDemand)
	rs := domsigning.RequestSpec{
		Mode:              mode,
		Digests:           digests,
		DigestAlgorithm:   e.cfg.DigestAlgorithm,
		ClaimedIdentity:   identity,
		RequestID:         domsigning.NewRequestID(e.now()),
		DistinguishedName: sel.DistinguishedName,
		StepUp:            sel.StepUp,
	}
	body, err := infraais.BuildSignRequest(rs)
	if err != nil {
		return fail(domsigning.StateFailure, domain.ProtocolError("%v", err))
	}
	log = log.With().Str("request_id", rs.RequestID).Logger()
	log.Info().Msg("firma: enviando petición")

	raw, err := e.sender.Send(ctx, body, e.cfg.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return fail(domsigning.StateTimeout, interrupted(ctx, 0))
		}
		return fail(domsigning.StateFailure, asSigningError(err, domain.ErrTransport))
	}
	resp, err := infraais.ParseResponse(raw)
	if err != nil {
		return fail(domsigning.StateFailure, err)
	}
	e.logResult(log, resp)

	// ═══════════════════════════════════════════════════════════════════════
	// 3. Síncrono: un solo intercambio. Step-up: consentimiento + polling
	// ═══════════════════════════════════════════════════════════════════════
	var consentURL, responseID string
	if !mode.IsAsync() {
		if !resp.Result().IsSuccess() {
			return fail(domsigning.StateFailure, resultError(resp))
		}
	} else {
		if !resp.Result().IsPending() {
			return fail(domsigning.StateFailure, resultError(resp))
		}
		responseID = resp.First(ais.TagResponseID)
		if responseID == "" {
			return fail(domsigning.StateFailure, domain.ProtocolError("respuesta PENDING sin ResponseID"))
		}
		if consentURL = resp.First(ais.TagConsentURL); consentURL != "" {
			log.Info().Str("consent_url", consentURL).Msg("firma: esperando consentimiento del firmante")
			e.tracker.OnConsentURL(correlationID, consentURL)
		}

		pollBody, err := infraais.BuildPollRequest(identity, responseID)
		if err != nil {
			return fail(domsigning.StateFailure, domain.ProtocolError("%v", err))
		}
		session := domsigning.NewPollingSession(responseID, e.cfg.PollInterval, e.cfg.PollRetries)
		p := &poller{sender: e.sender, endpoint: e.cfg.Endpoint, log: log}

		last, err := p.run(ctx, session, resp, pollBody)
		if err != nil {
			return fail(session.State, asSigningError(err, domain.ErrTransport))
		}
		e.logResult(log, last)
		switch session.State {
		case domsigning.StateTimeout:
			if ctx.Err() != nil {
				return fail(domsigning.StateTimeout, interrupted(ctx, session.RetriesUsed))
			}
			return fail(domsigning.StateTimeout, &domain.SigningError{
				Kind:        domain.ErrTimeout,
				ResultMajor: ais.ResultMajorPending,
				Err:         fmt.Errorf("sin respuesta tras %d consultas", session.RetriesUsed),
			})
		case domsigning.StateFailure:
			return fail(domsigning.StateFailure, resultError(last))
		}
		resp = last
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 4. Firmas y datos de revocación
	// ═══════════════════════════════════════════════════════════════════════
	signatures, err := decodeAll(resp.Values(mode.SignatureTag()))
	if err != nil {
		return fail(domsigning.StateFailure, domain.ProtocolError("firma no es base64: %v", err))
	}
	if len(signatures) != len(docs) {
		return fail(domsigning.StateFailure, domain.ProtocolError("se esperaban %d firmas, llegaron %d", len(docs), len(signatures)))
	}
	ocsp, err := decodeAll(resp.Values(ais.TagOCSP))
	if err != nil {
		return fail(domsigning.StateFailure, domain.ProtocolError("OCSP no es base64: %v", err))
	}
	crl, err := decodeAll(resp.Values(ais.TagCRL))
	if err != nil {
		return fail(domsigning.StateFailure, domain.ProtocolError("CRL no es base64: %v", err))
	}
	e.tracker.OnSignatureObtained(correlationID)

	// ═══════════════════════════════════════════════════════════════════════
	// 5. Incrustar cada firma
	// ═══════════════════════════════════════════════════════════════════════
	for i, d := range docs {
		if err := e.docs.Embed(d, signatures[i], placeholder); err != nil {
			return fail(domsigning.StateFailure, domain.ProtocolError("documento %s: incrustar firma: %v", d.InputPath, err))
		}
		if err := e.docs.AppendRevocation(d, ocsp, crl); err != nil {
			return fail(domsigning.StateFailure, domain.ProtocolError("documento %s: revocación: %v", d.InputPath, err))
		}
		e.tracker.OnSignatureApplied(correlationID)
		log.Debug().Str("output", d.OutputPath).Msg("firma: aplicada")
	}

	log.Info().Int("ocsp", len(ocsp)).Int("crl", len(crl)).Msg("firma: operación completada")
	return &domsigning.Outcome{
		State:      domsigning.StateSuccess,
		Signatures: signatures,
		OCSP:       ocsp,
		CRL:        crl,
		ConsentURL: consentURL,
		ResponseID: responseID,
		RequestID:  rs.RequestID,
	}, nil
}

func (e *Engine) logResult(log zerolog.Logger, resp *infraais.Response) {
	r := resp.Result()
	ev := log.Debug()
	if e.cfg.Verbose {
		ev = log.Info()
	}
	ev.Str("major", r.Major).Str("minor", r.Minor).Str("message", r.Message).Msg("firma: resultado")
}

// resultError error de protocolo con los códigos de resultado del servidor.
func resultError(resp *infraais.Response) error {
	r := resp.Result()
	cause := fmt.Errorf("resultado inesperado %q", r.Major)
	if f := resp.Fault(); f != "" {
		cause = fmt.Errorf("soap fault: %s", f)
	}
	return &domain.SigningError{
		Kind:          domain.ErrProtocol,
		ResultMajor:   r.Major,
		ResultMinor:   r.Minor,
		ResultMessage: r.Message,
		Err:           cause,
	}
}

// interrupted error de una operación cancelada por el llamador; equivale a
// TIMEOUT.
func interrupted(ctx context.Context, polls int) error {
	return &domain.SigningError{
		Kind: domain.ErrTimeout,
		Err:  fmt.Errorf("operación interrumpida tras %d consultas: %w", polls, context.Cause(ctx)),
	}
}

// asSigningError conserva un *SigningError o envuelve err con el tipo dado.
func asSigningError(err error, kind error) error {
	var se *domain.SigningError
	if errors.As(err, &se) {
		return err
	}
	return &domain.SigningError{Kind: kind, Err: err}
}

func decodeAll(values []string) ([][]byte, error) {
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(v), ""))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
