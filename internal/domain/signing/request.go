package signing

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// RequestSpec contenido de una petición de firma, construida por operación.
// Los campos on-demand solo se informan en ONDEMAND y ONDEMAND_STEPUP.
type RequestSpec struct {
	Mode              Mode
	Digests           [][]byte // uno por documento, en orden
	DigestAlgorithm   ais.DigestAlgorithm
	ClaimedIdentity   string
	RequestID         string
	DistinguishedName string
	StepUp            *StepUp
}

// Profiles perfiles adicionales derivados del modo y del número de documentos.
func (r RequestSpec) Profiles() []string {
	return r.Mode.Profiles(len(r.Digests))
}

// NewRequestID genera el id de petición: "dd.MM.yyyy HH:mm:ss:SSSS" seguido de
// un número aleatorio entre 0 y 999.
func NewRequestID(now time.Time) string {
	ms := now.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s:%04d%d", now.Format("02.01.2006 15:04:05"), ms, rand.IntN(1000))
}
