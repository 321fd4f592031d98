package ais

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Idiomas admitidos para el mensaje de consentimiento step-up.
var stepUpLanguages = []language.Base{
	language.MustParseBase("en"),
	language.MustParseBase("de"),
	language.MustParseBase("fr"),
	language.MustParseBase("it"),
}

// CheckStepUpLanguage valida que el idioma sea uno de en, de, fr, it.
func CheckStepUpLanguage(lang string) error {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return fmt.Errorf("step-up: idioma %q inválido: %w", lang, err)
	}
	base, conf := tag.Base()
	if conf != language.Exact || strings.ToLower(lang) != base.String() {
		return fmt.Errorf("step-up: idioma %q debe ser un código de dos letras (en, de, fr, it)", lang)
	}
	for _, b := range stepUpLanguages {
		if b == base {
			return nil
		}
	}
	return fmt.Errorf("step-up: idioma %q no admitido (en, de, fr, it)", lang)
}

// CheckStepUpSerial valida el número de serie opcional del medio de autenticación:
// 16 caracteres con prefijo MIDCHE (Mobile ID) o SAS01 (app).
func CheckStepUpSerial(serial string) error {
	if serial == "" {
		return nil
	}
	if len(serial) != 16 {
		return fmt.Errorf("step-up: serial %q debe tener 16 caracteres", serial)
	}
	if !strings.HasPrefix(serial, "MIDCHE") && !strings.HasPrefix(serial, "SAS01") {
		return fmt.Errorf("step-up: serial %q debe empezar por MIDCHE o SAS01", serial)
	}
	return nil
}

// CheckMSISDN valida un número móvil en formato internacional sin espacios.
func CheckMSISDN(msisdn string) error {
	s := strings.TrimPrefix(msisdn, "+")
	if len(s) < 8 || len(s) > 15 {
		return fmt.Errorf("step-up: msisdn %q con longitud inválida", msisdn)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("step-up: msisdn %q contiene caracteres no numéricos", msisdn)
		}
	}
	return nil
}
