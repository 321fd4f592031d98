package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Tipos de fallo de una operación de firma. Se comparan con errors.Is.
var (
	ErrValidation    = errors.New("parámetros de firma inválidos")
	ErrConfiguration = errors.New("configuración inválida")
	ErrTransport     = errors.New("fallo de transporte")
	ErrProtocol      = errors.New("respuesta de protocolo inválida")
	ErrTimeout       = errors.New("tiempo de espera agotado")
)

// SigningError error de una operación de firma. Kind es uno de los
// sentinels anteriores; ResultMinor/ResultMessage vienen del servidor cuando
// la respuesta alcanzó a interpretarse.
type SigningError struct {
	Kind          error
	ResultMajor   string
	ResultMinor   string
	ResultMessage string
	Err           error
}

func (e *SigningError) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.ResultMinor != "" || e.ResultMessage != "" {
		msg += fmt.Sprintf(" [minor=%s message=%q]", e.ResultMinor, e.ResultMessage)
	}
	return msg
}

// Unwrap permite errors.Is tanto contra Kind como contra la causa.
func (e *SigningError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewSigningError atajo para construir un SigningError con causa formateada.
func NewSigningError(kind error, format string, args ...any) *SigningError {
	return &SigningError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ValidationError construye un error de validación de parámetros.
func ValidationError(format string, args ...any) error {
	return NewSigningError(ErrValidation, format, args...)
}

// ConfigurationError construye un error de configuración.
func ConfigurationError(format string, args ...any) error {
	return NewSigningError(ErrConfiguration, format, args...)
}

// TransportError envuelve un fallo de red, TLS o HTTP.
func TransportError(err error) error {
	return &SigningError{Kind: ErrTransport, Err: err}
}

// ProtocolError construye un error de respuesta mal formada o inesperada.
func ProtocolError(format string, args ...any) error {
	return NewSigningError(ErrProtocol, format, args...)
}
