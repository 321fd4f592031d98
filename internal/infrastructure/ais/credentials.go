// Carga del certificado cliente (.p12 o par PEM) y del almacén de confianza.

package ais

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadClientCertificate carga el certificado cliente. Si certPath es .p12/.pfx
// se usa password; si no, certPath y keyPath son PEM (keyPath vacío = combinado).
func LoadClientCertificate(certPath, keyPath, password string) (tls.Certificate, error) {
	switch strings.ToLower(filepath.Ext(certPath)) {
	case ".p12", ".pfx":
		return loadFromP12(certPath, password)
	default:
		return loadFromPEM(certPath, keyPath)
	}
}

func loadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

func loadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}

// LoadTrustPool carga los certificados PEM de confianza del servidor.
func LoadTrustPool(caPath string) (*x509.CertPool, error) {
	data, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("leer CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("CA %s: sin certificados PEM válidos", caPath)
	}
	return pool, nil
}
