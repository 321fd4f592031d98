package document

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/firmador-ais/pkg/ais"
)

const (
	fileSignature = "signature.p7s"
	fileTimestamp = "timestamp.tsr"
	fileManifest  = "manifest.json"
	fileReceipt   = "comprobante.pdf"
)

// bundle estado de un documento entre Hash y AppendRevocation.
type bundle struct {
	name        string
	content     []byte
	alg         ais.DigestAlgorithm
	digest      []byte
	signingTime time.Time
	placeholder int
	signature   []byte
	ocsp        [][]byte
	crl         [][]byte
	revocation  []revocationEntry
	receipt     []byte
}

// signatureFile la reserva de sello de tiempo identifica el token RFC 3161.
func (b *bundle) signatureFile() string {
	if b.placeholder == ais.PlaceholderTimestamp {
		return fileTimestamp
	}
	return fileSignature
}

type manifest struct {
	Document        string            `json:"document"`
	DigestAlgorithm string            `json:"digest_algorithm"`
	Digest          string            `json:"digest"`
	SigningTime     time.Time         `json:"signing_time"`
	SignatureFile   string            `json:"signature_file"`
	SignatureSize   int               `json:"signature_size"`
	PlaceholderSize int               `json:"placeholder_size"`
	Revocation      []revocationEntry `json:"revocation,omitempty"`
}

func (b *bundle) manifest() manifest {
	return manifest{
		Document:        b.name,
		DigestAlgorithm: string(b.alg),
		Digest:          hex.EncodeToString(b.digest),
		SigningTime:     b.signingTime,
		SignatureFile:   b.signatureFile(),
		SignatureSize:   len(b.signature),
		PlaceholderSize: b.placeholder,
		Revocation:      b.revocation,
	}
}

// buildZip empaqueta el documento y sus evidencias en un ZIP en memoria.
func buildZip(b *bundle) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	add := func(name string, data []byte) error {
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("zip: crear entrada %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("zip: escribir %s: %w", name, err)
		}
		return nil
	}

	if err := add(b.name, b.content); err != nil {
		return nil, err
	}
	if err := add(b.signatureFile(), b.signature); err != nil {
		return nil, err
	}
	for i, der := range b.ocsp {
		if err := add(fmt.Sprintf("revocation/ocsp-%d.der", i+1), der); err != nil {
			return nil, err
		}
	}
	for i, der := range b.crl {
		if err := add(fmt.Sprintf("revocation/crl-%d.der", i+1), der); err != nil {
			return nil, err
		}
	}
	m, err := json.MarshalIndent(b.manifest(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("zip: manifiesto: %w", err)
	}
	if err := add(fileManifest, m); err != nil {
		return nil, err
	}
	if len(b.receipt) > 0 {
		if err := add(fileReceipt, b.receipt); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBundle escribe el ZIP en un temporal y lo renombra a la ruta final.
func writeBundle(path string, b *bundle) error {
	data, err := buildZip(b)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("escribir %s: %w", path, err)
	}
	return nil
}
