// Package ais contiene los catálogos del protocolo DSS/SOAP del servicio de
// firma remota (All-in Signing Service): espacios de nombres, perfiles,
// códigos de resultado, tipos de firma y algoritmos de digest.
package ais

import (
	"crypto"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"strings"
)

// =============================================================================
// Espacios de nombres del sobre SOAP
// =============================================================================

const (
	NamespaceSOAP  = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceDSS   = "urn:oasis:names:tc:dss:1.0:core:schema"
	NamespaceDSig  = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceSC    = "http://ais.swisscom.ch/1.0/schema"
	NamespaceAIS   = "http://service.ais.swisscom.com/"
	NamespaceAsync = "urn:oasis:names:tc:dss:1.0:profiles:asynchronousprocessing:1.0"
)

// RequestProfile valor del atributo Profile de SignRequest / PendingRequest.
const RequestProfile = "http://ais.swisscom.ch/1.1"

// =============================================================================
// Perfiles adicionales (AdditionalProfile)
// =============================================================================

const (
	ProfileTimestamp           = "urn:oasis:names:tc:dss:1.0:profiles:timestamping"
	ProfileBatch               = "http://ais.swisscom.ch/1.0/profiles/batchprocessing"
	ProfileOnDemandCertificate = "http://ais.swisscom.ch/1.0/profiles/ondemandcertificate"
	ProfileAsynchron           = "urn:oasis:names:tc:dss:1.0:profiles:asynchronousprocessing"
	ProfileRedirect            = "http://ais.swisscom.ch/1.1/profiles/redirect"
)

// =============================================================================
// ResultMajor: se comparan como cadenas opacas
// =============================================================================

const (
	ResultMajorSuccess   = "urn:oasis:names:tc:dss:1.0:resultmajor:Success"
	ResultMajorPending   = "urn:oasis:names:tc:dss:1.0:profiles:asynchronousprocessing:resultmajor:Pending"
	ResultMajorRequester = "urn:oasis:names:tc:dss:1.0:resultmajor:RequesterError"
	ResultMajorResponder = "urn:oasis:names:tc:dss:1.0:resultmajor:ResponderError"
)

// =============================================================================
// Tipos de firma y opciones
// =============================================================================

const (
	SignatureTypeCMS       = "urn:ietf:rfc:3369"
	SignatureTypeTimestamp = "urn:ietf:rfc:3161"

	SignatureStandardPAdES = "PADES"
	RevocationTypeBoth     = "BOTH"
)

// =============================================================================
// Etiquetas de la respuesta (nombre calificado tal como lo escribe el servidor)
// =============================================================================

const (
	TagResultMajor    = "ResultMajor"
	TagResultMinor    = "ResultMinor"
	TagResultMessage  = "ResultMessage"
	TagSignatureCMS   = "Base64Signature"
	TagTimestampToken = "RFC3161TimeStampToken"
	TagResponseID     = "async:ResponseID"
	TagConsentURL     = "sc:ConsentURL"
	TagOCSP           = "sc:OCSP"
	TagCRL            = "sc:CRL"
)

// =============================================================================
// Algoritmos de digest
// =============================================================================

// DigestAlgorithm nombre corto configurable (SHA256, SHA384, SHA512).
type DigestAlgorithm string

const (
	DigestSHA256 DigestAlgorithm = "SHA256"
	DigestSHA384 DigestAlgorithm = "SHA384"
	DigestSHA512 DigestAlgorithm = "SHA512"
)

var digestURIs = map[DigestAlgorithm]string{
	DigestSHA256: "http://www.w3.org/2001/04/xmlenc#sha256",
	DigestSHA384: "http://www.w3.org/2001/04/xmldsig-more#sha384",
	DigestSHA512: "http://www.w3.org/2001/04/xmlenc#sha512",
}

// ParseDigestAlgorithm acepta "sha256", "SHA-256", "SHA256"...
func ParseDigestAlgorithm(s string) (DigestAlgorithm, bool) {
	d := DigestAlgorithm(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "")))
	_, ok := digestURIs[d]
	return d, ok
}

// URI devuelve el identificador del algoritmo para dsig:DigestMethod.
func (d DigestAlgorithm) URI() string {
	return digestURIs[d]
}

// Hash función de hash correspondiente; SHA256 si el nombre no se reconoce.
func (d DigestAlgorithm) Hash() crypto.Hash {
	switch d {
	case DigestSHA384:
		return crypto.SHA384
	case DigestSHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// =============================================================================
// Valores por defecto del cliente
// =============================================================================

const (
	DefaultTimeoutMillis         = 90000
	DefaultPollingIntervalMillis = 18000
	DefaultPollRetries           = 10

	// Reserva de bytes para la firma dentro del documento.
	PlaceholderTimestamp = 15000
	PlaceholderCMS       = 30000

	// Marcador del mensaje step-up que se reemplaza por el id de transacción.
	TransactionIDPlaceholder = "#TRANSID#"
)
