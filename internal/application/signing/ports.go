// Package signing orquesta una operación de firma remota completa: hash de
// los documentos, petición, polling asíncrono, incrustación y notificaciones.
package signing

import (
	"context"
	"time"

	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// Document documento de una operación: se lee de InputPath y la versión
// firmada se escribe en OutputPath.
type Document struct {
	Index      int
	InputPath  string
	OutputPath string
}

// Sender puerto de transporte: un envío, una respuesta completa.
type Sender interface {
	Send(ctx context.Context, body []byte, endpoint string) ([]byte, error)
}

// DocumentEngine rutinas de bytes del documento (hash e incrustación).
// Debe admitir operaciones concurrentes sobre documentos distintos.
type DocumentEngine interface {
	// Hash prepara el documento con una reserva de placeholderSize bytes y
	// devuelve el digest que se envía a firmar.
	Hash(doc Document, signingTime time.Time, placeholderSize int, alg ais.DigestAlgorithm) ([]byte, error)
	// Embed incrusta la firma en la reserva del documento y escribe la salida.
	Embed(doc Document, signature []byte, placeholderSize int) error
	// AppendRevocation añade OCSP/CRL al documento ya firmado.
	AppendRevocation(doc Document, ocsp, crl [][]byte) error
	// Discard libera lo preparado por Hash cuando la operación se aborta.
	// No toca salidas ya escritas. Sin efecto si no hay nada pendiente.
	Discard(doc Document)
}

// Tracker recibe los eventos del ciclo de vida. Compartido entre operaciones:
// las implementaciones deben ser seguras para uso concurrente.
type Tracker interface {
	OnConsentURL(correlationID, url string)
	OnSignatureObtained(correlationID string)
	OnSignatureApplied(correlationID string)
}

// NopTracker descarta todos los eventos.
type NopTracker struct{}

func (NopTracker) OnConsentURL(string, string) {}
func (NopTracker) OnSignatureObtained(string) {}
func (NopTracker) OnSignatureApplied(string) {}
