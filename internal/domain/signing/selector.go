package signing

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/fasttemplate"

	"github.com/jhoicas/firmador-ais/internal/domain"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// Params entrada plana de una operación de firma (flags de CLI o cuerpo HTTP).
type Params struct {
	Type              string // "sign" | "timestamp"
	InputPaths        []string
	OutputPaths       []string
	DistinguishedName string

	MSISDN       string
	Message      string // admite el marcador #TRANSID#
	Language     string
	SerialNumber string

	// Metadatos opcionales que acompañan a la firma.
	Reason      string
	Location    string
	ContactInfo string

	// Archivos de credenciales que deben existir y ser legibles.
	CredentialFiles []string
}

// StepUp datos de consentimiento fuera de banda, ya con el id de transacción sustituido.
type StepUp struct {
	MSISDN       string
	Message      string
	Language     string
	SerialNumber string
}

// Selection modo resuelto y parámetros normalizados de una operación.
type Selection struct {
	Mode              Mode
	InputPaths        []string
	OutputPaths       []string
	DistinguishedName string // vacío salvo en modos on-demand
	StepUp            *StepUp
	TransactionID     string
	Reason            string
	Location          string
	ContactInfo       string
	Warnings          []string
}

// Selector resuelve el modo de firma y valida los parámetros. Las
// combinaciones inconsistentes de campos opcionales solo generan advertencias.
type Selector struct {
	log   zerolog.Logger
	newID func() string
}

// NewSelector construye el selector.
func NewSelector(log zerolog.Logger) *Selector {
	return &Selector{log: log, newID: NewTransactionID}
}

// Select aplica las reglas de selección de modo:
//
//	timestamp                         → TIMESTAMP
//	sign sin DN                       → STATIC
//	sign + DN                         → ONDEMAND
//	sign + DN + teléfono/mensaje/idioma → ONDEMAND_STEPUP
func (s *Selector) Select(p Params) (*Selection, error) {
	sel := &Selection{
		InputPaths:  p.InputPaths,
		OutputPaths: p.OutputPaths,
		Reason:      p.Reason,
		Location:    p.Location,
		ContactInfo: p.ContactInfo,
	}

	hasDN := strings.TrimSpace(p.DistinguishedName) != ""
	stepUpFields := 0
	for _, f := range []string{p.MSISDN, p.Message, p.Language} {
		if strings.TrimSpace(f) != "" {
			stepUpFields++
		}
	}

	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case TypeTimestamp:
		sel.Mode = ModeTimestamp
		if hasDN || stepUpFields > 0 {
			sel.warn("timestamp: se ignoran DN y parámetros step-up")
		}
	case TypeSign:
		switch {
		case !hasDN:
			sel.Mode = ModeStatic
			if stepUpFields > 0 {
				sel.warn("static: parámetros step-up sin DN, se ignoran")
			}
		case stepUpFields == 3:
			sel.Mode = ModeOnDemandStepUp
		default:
			sel.Mode = ModeOnDemand
			if stepUpFields > 0 {
				sel.warn("ondemand: step-up requiere teléfono, mensaje e idioma; se firma sin step-up")
			}
		}
	default:
		return nil, domain.ValidationError("tipo de firma desconocido %q (usar sign o timestamp)", p.Type)
	}

	if p.SerialNumber != "" && sel.Mode != ModeOnDemandStepUp {
		sel.warn("serial step-up ignorado fuera del modo ONDEMAND_STEPUP")
	}

	if err := validateFiles(p); err != nil {
		return nil, err
	}

	if sel.Mode.IsOnDemand() {
		sel.DistinguishedName = strings.TrimSpace(p.DistinguishedName)
		for _, w := range ais.CheckDN(sel.DistinguishedName) {
			sel.warn(w)
		}
	}

	if sel.Mode == ModeOnDemandStepUp {
		sel.TransactionID = s.newID()
		sel.StepUp = &StepUp{
			MSISDN:       strings.TrimSpace(p.MSISDN),
			Message:      SubstituteTransactionID(p.Message, sel.TransactionID),
			Language:     strings.ToLower(strings.TrimSpace(p.Language)),
			SerialNumber: strings.TrimSpace(p.SerialNumber),
		}
		for _, err := range []error{
			ais.CheckMSISDN(sel.StepUp.MSISDN),
			ais.CheckStepUpLanguage(sel.StepUp.Language),
			ais.CheckStepUpSerial(sel.StepUp.SerialNumber),
		} {
			if err != nil {
				sel.warn(err.Error())
			}
		}
	}

	for _, w := range sel.Warnings {
		s.log.Warn().Str("mode", string(sel.Mode)).Msg(w)
	}
	return sel, nil
}

func (sel *Selection) warn(msg string) {
	sel.Warnings = append(sel.Warnings, msg)
}

// validateFiles comprueba entradas, salidas y credenciales.
func validateFiles(p Params) error {
	if len(p.InputPaths) == 0 {
		return domain.ValidationError("falta al menos un documento de entrada")
	}
	if len(p.OutputPaths) == 0 {
		return domain.ValidationError("falta el archivo de salida")
	}
	if len(p.OutputPaths) != len(p.InputPaths) {
		return domain.ValidationError("se esperaban %d archivos de salida, hay %d", len(p.InputPaths), len(p.OutputPaths))
	}

	inputs := map[string]bool{}
	for _, in := range p.InputPaths {
		if err := checkReadableFile(in); err != nil {
			return domain.ValidationError("entrada %s: %v", in, err)
		}
		inputs[cleanAbs(in)] = true
	}

	outputs := map[string]bool{}
	for _, out := range p.OutputPaths {
		key := cleanAbs(out)
		if inputs[key] {
			return domain.ValidationError("la salida %s coincide con una entrada", out)
		}
		if outputs[key] {
			return domain.ValidationError("la salida %s está repetida", out)
		}
		outputs[key] = true
		if _, err := os.Stat(out); err == nil {
			return domain.ValidationError("la salida %s ya existe", out)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return domain.ValidationError("salida %s: %v", out, err)
		}
	}

	for _, c := range p.CredentialFiles {
		if err := checkReadableFile(c); err != nil {
			return domain.ValidationError("credencial %s: %v", c, err)
		}
	}
	return nil
}

func checkReadableFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("ruta vacía")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("no es un archivo regular")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func cleanAbs(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// NewTransactionID genera un id corto de transacción: 30 bits aleatorios en base 32.
func NewTransactionID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	n := binary.BigEndian.Uint32(b[:]) >> 2
	return strconv.FormatUint(uint64(n), 32)
}

// SubstituteTransactionID reemplaza cada #TRANSID# del mensaje step-up. El
// resto de '#' del texto se conserva tal cual.
func SubstituteTransactionID(message, transactionID string) string {
	// Etiqueta "#TRANSID" + nombre vacío + "#": solo casa el marcador completo.
	start := strings.TrimSuffix(ais.TransactionIDPlaceholder, "#")
	return fasttemplate.ExecuteStringStd(message, start, "#", map[string]interface{}{
		"": transactionID,
	})
}
