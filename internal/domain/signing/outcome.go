package signing

import "time"

// State estado de una sesión de polling o de una operación terminada.
type State string

const (
	StatePending State = "PENDING"
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
	StateTimeout State = "TIMEOUT"
)

// IsTerminal SUCCESS, FAILURE y TIMEOUT no admiten más transiciones.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateTimeout
}

// Outcome resultado terminal de una operación de firma.
// En SUCCESS hay exactamente una firma por documento, en el orden de entrada.
// OCSP y CRL se comparten por todo el lote.
type Outcome struct {
	State      State
	Signatures [][]byte
	OCSP       [][]byte
	CRL        [][]byte
	ConsentURL string
	ResponseID string
	RequestID  string
	// Err es un *domain.SigningError cuando State no es SUCCESS.
	Err error
}

// EventKind tipo de evento del ciclo de vida.
type EventKind string

const (
	EventConsentURLIssued  EventKind = "CONSENT_URL_ISSUED"
	EventSignatureObtained EventKind = "SIGNATURE_OBTAINED"
	EventSignatureApplied  EventKind = "SIGNATURE_APPLIED"
)

// LifecycleEvent evento emitido al tracker durante una operación.
type LifecycleEvent struct {
	Kind          EventKind
	CorrelationID string
	ConsentURL    string
	Document      int
	At            time.Time
}
