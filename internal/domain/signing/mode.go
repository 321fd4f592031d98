// Package signing contiene el modelo de dominio de una operación de firma
// remota: modos, parámetros, selección de modo y resultado.
package signing

import (
	"time"

	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// Mode modo de firma de una operación. Exactamente uno por operación.
type Mode string

const (
	ModeTimestamp      Mode = "TIMESTAMP"
	ModeStatic         Mode = "STATIC"
	ModeOnDemand       Mode = "ONDEMAND"
	ModeOnDemandStepUp Mode = "ONDEMAND_STEPUP"
)

// Tipos base aceptados en la entrada (CLI / API).
const (
	TypeSign      = "sign"
	TypeTimestamp = "timestamp"
)

// IsOnDemand indica si el modo solicita un certificado on-demand.
func (m Mode) IsOnDemand() bool {
	return m == ModeOnDemand || m == ModeOnDemandStepUp
}

// IsAsync solo el modo step-up se procesa de forma asíncrona (polling).
func (m Mode) IsAsync() bool {
	return m == ModeOnDemandStepUp
}

// SignatureType URN de SignatureType para la petición.
func (m Mode) SignatureType() string {
	if m == ModeTimestamp {
		return ais.SignatureTypeTimestamp
	}
	return ais.SignatureTypeCMS
}

// SignatureTag etiqueta de la respuesta que transporta las firmas del modo.
func (m Mode) SignatureTag() string {
	if m == ModeTimestamp {
		return ais.TagTimestampToken
	}
	return ais.TagSignatureCMS
}

// PlaceholderSize bytes reservados en el documento para la firma.
func (m Mode) PlaceholderSize() int {
	if m == ModeTimestamp {
		return ais.PlaceholderTimestamp
	}
	return ais.PlaceholderCMS
}

// SigningTime hora de firma declarada al calcular el hash. Los modos on-demand
// la adelantan 3 minutos porque el certificado se emite después del hash.
func (m Mode) SigningTime(now time.Time) time.Time {
	if m.IsOnDemand() {
		return now.Add(3 * time.Minute)
	}
	return now
}

// Profiles perfiles adicionales de la petición para el modo y el tamaño del lote.
// BATCH se añade si y solo si hay más de un documento.
func (m Mode) Profiles(docCount int) []string {
	var p []string
	switch m {
	case ModeTimestamp:
		p = append(p, ais.ProfileTimestamp)
	case ModeOnDemand:
		p = append(p, ais.ProfileOnDemandCertificate)
	case ModeOnDemandStepUp:
		p = append(p, ais.ProfileOnDemandCertificate, ais.ProfileRedirect, ais.ProfileAsynchron)
	}
	if docCount > 1 {
		p = append(p, ais.ProfileBatch)
	}
	return p
}

// ClaimedIdentity nombre de la identidad reclamada: CUSTOMER, CUSTOMER:KEY_STATIC
// o CUSTOMER:KEY_ONDEMAND según el modo.
func (m Mode) ClaimedIdentity(customer, keyStatic, keyOnDemand string) string {
	switch m {
	case ModeStatic:
		return customer + ":" + keyStatic
	case ModeOnDemand, ModeOnDemandStepUp:
		return customer + ":" + keyOnDemand
	default:
		return customer
	}
}
