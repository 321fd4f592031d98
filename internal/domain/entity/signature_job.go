package entity

import "time"

// Estados de un trabajo de firma.
const (
	JobStatusStarted          = "signProcessStarted" // Petición aceptada, operación en curso
	JobStatusGotConsentURL    = "gotConsentUrl"      // Esperando consentimiento del firmante
	JobStatusGotSignature     = "gotSignature"       // Firmas recibidas del servicio
	JobStatusAppliedSignature = "appliedSignature"   // Al menos una firma incrustada
	JobStatusSigned           = "signed"             // Todas las salidas escritas
	JobStatusError            = "error"              // La operación falló
)

// SignatureJob trabajo de firma enviado por la API. El ID se usa como
// correlation id de la operación.
type SignatureJob struct {
	ID            string
	RequestedBy   string
	Mode          string
	InputPaths    []string
	OutputPaths   []string
	Status        string
	ConsentURL    string
	AppliedCount  int
	StatusMessage string // Mensaje de error o advertencias
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFinished indica si el trabajo llegó a un estado final.
func (j *SignatureJob) IsFinished() bool {
	return j.Status == JobStatusSigned || j.Status == JobStatusError
}
