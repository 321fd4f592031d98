// Package document implementa las rutinas de bytes del documento: calcula el
// digest que se envía a firmar y empaqueta el resultado en un ZIP de evidencias
// (documento original, firma, revocación, manifiesto y comprobante PDF).
//
// Contenido del ZIP de salida:
//
//	<documento original>
//	signature.p7s | timestamp.tsr
//	revocation/ocsp-N.der
//	revocation/crl-N.der
//	manifest.json
//	comprobante.pdf
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	appsigning "github.com/jhoicas/firmador-ais/internal/application/signing"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// BundleEngine implementa signing.DocumentEngine. Las operaciones sobre
// documentos distintos pueden ejecutarse en paralelo.
type BundleEngine struct {
	log zerolog.Logger

	mu      sync.Mutex
	pending map[string]*bundle // clave: ruta de salida
}

// NewBundleEngine construye el motor de documentos.
func NewBundleEngine(log zerolog.Logger) *BundleEngine {
	return &BundleEngine{log: log, pending: make(map[string]*bundle)}
}

var _ appsigning.DocumentEngine = (*BundleEngine)(nil)

// Hash lee el documento, calcula su digest y deja preparado el paquete.
func (e *BundleEngine) Hash(doc appsigning.Document, signingTime time.Time, placeholderSize int, alg ais.DigestAlgorithm) ([]byte, error) {
	if placeholderSize <= 0 {
		return nil, fmt.Errorf("reserva de firma inválida: %d", placeholderSize)
	}
	content, err := os.ReadFile(doc.InputPath)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", doc.InputPath, err)
	}
	h := alg.Hash().New()
	h.Write(content)
	digest := h.Sum(nil)

	e.put(doc.OutputPath, &bundle{
		name:        filepath.Base(doc.InputPath),
		content:     content,
		alg:         alg,
		digest:      digest,
		signingTime: signingTime.UTC(),
		placeholder: placeholderSize,
	})
	return digest, nil
}

// Embed guarda la firma en el paquete y escribe el ZIP de salida.
func (e *BundleEngine) Embed(doc appsigning.Document, signature []byte, placeholderSize int) error {
	b, err := e.get(doc.OutputPath)
	if err != nil {
		return err
	}
	if len(signature) == 0 {
		return fmt.Errorf("firma vacía")
	}
	if len(signature) > placeholderSize {
		return fmt.Errorf("la firma (%d bytes) excede la reserva de %d bytes", len(signature), placeholderSize)
	}
	b.signature = signature
	if err := writeBundle(doc.OutputPath, b); err != nil {
		return err
	}
	e.log.Debug().Str("output", doc.OutputPath).Int("bytes", len(signature)).Msg("documento: firma incrustada")
	return nil
}

// AppendRevocation añade OCSP/CRL al paquete ya firmado y lo reescribe con el
// manifiesto y el comprobante finales. Cierra el ciclo del documento.
func (e *BundleEngine) AppendRevocation(doc appsigning.Document, ocsp, crl [][]byte) error {
	b, err := e.get(doc.OutputPath)
	if err != nil {
		return err
	}
	if b.signature == nil {
		return fmt.Errorf("documento %s sin firma incrustada", doc.OutputPath)
	}
	b.ocsp, b.crl = ocsp, crl
	b.revocation = inspectRevocation(ocsp, crl)
	for _, r := range b.revocation {
		ev := e.log.Debug()
		if r.Error != "" {
			ev = e.log.Warn()
		}
		ev.Str("output", doc.OutputPath).Str("file", r.File).Str("status", r.Status).Str("detail", r.Error).
			Msg("documento: dato de revocación")
	}

	if b.receipt, err = renderReceipt(b); err != nil {
		return err
	}
	if err := writeBundle(doc.OutputPath, b); err != nil {
		return err
	}
	e.drop(doc.OutputPath)
	return nil
}

// Discard descarta el paquete preparado por Hash. La salida ya escrita, si la
// hay, se conserva.
func (e *BundleEngine) Discard(doc appsigning.Document) {
	if e.drop(doc.OutputPath) {
		e.log.Debug().Str("output", doc.OutputPath).Msg("documento: paquete descartado")
	}
}

// ── Paquetes pendientes ─────────────────────────────────────────────────────

func (e *BundleEngine) put(key string, b *bundle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[key] = b
}

func (e *BundleEngine) get(key string) (*bundle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.pending[key]
	if !ok {
		return nil, fmt.Errorf("documento %s no preparado (falta Hash)", key)
	}
	return b, nil
}

func (e *BundleEngine) drop(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[key]
	delete(e.pending, key)
	return ok
}
