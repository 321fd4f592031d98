package document

import (
	"crypto/x509"
	"fmt"
	"time"

	"golang.org/x/crypto/ocsp"
)

// revocationEntry resumen de un dato de revocación incluido en el paquete.
// Los datos que no se pueden interpretar se conservan igualmente.
type revocationEntry struct {
	File       string     `json:"file"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status,omitempty"`
	Serial     string     `json:"serial,omitempty"`
	ProducedAt *time.Time `json:"produced_at,omitempty"`
	Revoked    int        `json:"revoked,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func inspectRevocation(ocspBlobs, crlBlobs [][]byte) []revocationEntry {
	out := make([]revocationEntry, 0, len(ocspBlobs)+len(crlBlobs))
	for i, der := range ocspBlobs {
		out = append(out, inspectOCSP(fmt.Sprintf("revocation/ocsp-%d.der", i+1), der))
	}
	for i, der := range crlBlobs {
		out = append(out, inspectCRL(fmt.Sprintf("revocation/crl-%d.der", i+1), der))
	}
	return out
}

// inspectOCSP sin emisor: solo se verifica la firma si la respuesta trae el
// certificado del respondedor.
func inspectOCSP(file string, der []byte) revocationEntry {
	e := revocationEntry{File: file, Kind: "ocsp"}
	resp, err := ocsp.ParseResponse(der, nil)
	if err != nil {
		e.Error = err.Error()
		return e
	}
	produced := resp.ProducedAt.UTC()
	e.ProducedAt = &produced
	if resp.SerialNumber != nil {
		e.Serial = resp.SerialNumber.Text(16)
	}
	switch resp.Status {
	case ocsp.Good:
		e.Status = "good"
	case ocsp.Revoked:
		e.Status = "revoked"
	default:
		e.Status = "unknown"
	}
	return e
}

func inspectCRL(file string, der []byte) revocationEntry {
	e := revocationEntry{File: file, Kind: "crl"}
	rl, err := x509.ParseRevocationList(der)
	if err != nil {
		e.Error = err.Error()
		return e
	}
	produced := rl.ThisUpdate.UTC()
	e.ProducedAt = &produced
	if rl.Number != nil {
		e.Serial = rl.Number.Text(16)
	}
	e.Revoked = len(rl.RevokedCertificateEntries)
	return e
}
