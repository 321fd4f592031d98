package signing_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/firmador-ais/internal/domain"
	"github.com/jhoicas/firmador-ais/internal/domain/signing"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

// writeInput crea un documento de entrada en un directorio temporal.
func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4 prueba"), 0o600))
	return p
}

func baseParams(t *testing.T) signing.Params {
	t.Helper()
	dir := t.TempDir()
	return signing.Params{
		Type:        signing.TypeSign,
		InputPaths:  []string{writeInput(t, dir, "in.pdf")},
		OutputPaths: []string{filepath.Join(dir, "out.pdf")},
	}
}

func newSelector() *signing.Selector {
	return signing.NewSelector(zerolog.Nop())
}

// ── Selección de modo ─────────────────────────────────────────────────────────

func TestSelect_Totalidad(t *testing.T) {
	const dn = "cn=Hans Muster,c=CH"
	cases := []struct {
		name     string
		typ      string
		dn       string
		phone    string
		msg      string
		lang     string
		want     signing.Mode
		warnings bool
	}{
		{"timestamp", "timestamp", "", "", "", "", signing.ModeTimestamp, false},
		{"timestamp ignora DN", "timestamp", dn, "", "", "", signing.ModeTimestamp, true},
		{"static", "sign", "", "", "", "", signing.ModeStatic, false},
		{"static con step-up sin DN", "sign", "", "+41791234567", "ok?", "en", signing.ModeStatic, true},
		{"ondemand", "sign", dn, "", "", "", signing.ModeOnDemand, false},
		{"ondemand step-up parcial", "sign", dn, "+41791234567", "", "en", signing.ModeOnDemand, true},
		{"stepup", "SIGN", dn, "+41791234567", "Firmar? #TRANSID#", "de", signing.ModeOnDemandStepUp, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := baseParams(t)
			p.Type = tc.typ
			p.DistinguishedName = tc.dn
			p.MSISDN = tc.phone
			p.Message = tc.msg
			p.Language = tc.lang

			sel, err := newSelector().Select(p)
			require.NoError(t, err)
			assert.Equal(t, tc.want, sel.Mode)
			assert.Equal(t, tc.warnings, len(sel.Warnings) > 0, "advertencias: %v", sel.Warnings)

			if !sel.Mode.IsOnDemand() {
				assert.Empty(t, sel.DistinguishedName, "TIMESTAMP/STATIC no llevan campos on-demand")
			}
			if sel.Mode != signing.ModeOnDemandStepUp {
				assert.Nil(t, sel.StepUp)
			}
		})
	}
}

func TestSelect_TipoDesconocido(t *testing.T) {
	p := baseParams(t)
	p.Type = "seal"
	_, err := newSelector().Select(p)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSelect_SustituyeTransactionID(t *testing.T) {
	p := baseParams(t)
	p.DistinguishedName = "cn=Hans Muster,c=CH"
	p.MSISDN = "+41791234567"
	p.Message = "Confirmar firma (" + ais.TransactionIDPlaceholder + ")"
	p.Language = "fr"

	sel, err := newSelector().Select(p)
	require.NoError(t, err)
	require.NotNil(t, sel.StepUp)
	require.NotEmpty(t, sel.TransactionID)
	assert.Equal(t, "Confirmar firma ("+sel.TransactionID+")", sel.StepUp.Message)
	assert.NotContains(t, sel.StepUp.Message, ais.TransactionIDPlaceholder)
}

func TestSubstituteTransactionID(t *testing.T) {
	cases := []struct {
		name, message, want string
	}{
		{"almohadilla previa", "Pedido #123: firmar? (#TRANSID#)", "Pedido #123: firmar? (abc12)"},
		{"varias apariciones", "#TRANSID# / #TRANSID#", "abc12 / abc12"},
		{"sin marcador", "Firmar contrato #7", "Firmar contrato #7"},
		{"otra etiqueta", "Ref #TRANSIDX# (#TRANSID#)", "Ref #TRANSIDX# (abc12)"},
		{"marcador sin cierre", "Firmar #TRANSID", "Firmar #TRANSID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, signing.SubstituteTransactionID(tc.message, "abc12"))
		})
	}
}

// ── Validación de archivos ───────────────────────────────────────────────────

func TestSelect_ValidacionArchivos(t *testing.T) {
	t.Run("sin entrada", func(t *testing.T) {
		p := baseParams(t)
		p.InputPaths = nil
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("entrada inexistente", func(t *testing.T) {
		p := baseParams(t)
		p.InputPaths = []string{filepath.Join(t.TempDir(), "no.pdf")}
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("entrada es directorio", func(t *testing.T) {
		p := baseParams(t)
		p.InputPaths = []string{t.TempDir()}
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("salida igual a entrada", func(t *testing.T) {
		p := baseParams(t)
		p.OutputPaths = []string{p.InputPaths[0]}
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("salida ya existe", func(t *testing.T) {
		p := baseParams(t)
		require.NoError(t, os.WriteFile(p.OutputPaths[0], []byte("x"), 0o600))
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("cantidad de salidas distinta", func(t *testing.T) {
		p := baseParams(t)
		dir := filepath.Dir(p.InputPaths[0])
		p.InputPaths = append(p.InputPaths, writeInput(t, dir, "in2.pdf"))
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("credencial ilegible", func(t *testing.T) {
		p := baseParams(t)
		p.CredentialFiles = []string{filepath.Join(t.TempDir(), "cert.pem")}
		_, err := newSelector().Select(p)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("lote válido", func(t *testing.T) {
		p := baseParams(t)
		dir := filepath.Dir(p.InputPaths[0])
		p.InputPaths = append(p.InputPaths, writeInput(t, dir, "in2.pdf"))
		p.OutputPaths = append(p.OutputPaths, filepath.Join(dir, "out2.pdf"))
		sel, err := newSelector().Select(p)
		require.NoError(t, err)
		assert.Len(t, sel.InputPaths, 2)
	})
}

// ── Modo ──────────────────────────────────────────────────────────────────────

func TestMode_BatchSoloConVariosDocumentos(t *testing.T) {
	for _, m := range []signing.Mode{signing.ModeTimestamp, signing.ModeStatic, signing.ModeOnDemand, signing.ModeOnDemandStepUp} {
		assert.NotContains(t, m.Profiles(1), ais.ProfileBatch, m)
		assert.Contains(t, m.Profiles(2), ais.ProfileBatch, m)
	}
	assert.Equal(t, []string{ais.ProfileOnDemandCertificate, ais.ProfileRedirect, ais.ProfileAsynchron},
		signing.ModeOnDemandStepUp.Profiles(1))
	assert.Empty(t, signing.ModeStatic.Profiles(1))
}

func TestMode_ClaimedIdentity(t *testing.T) {
	assert.Equal(t, "ais-90days-trial", signing.ModeTimestamp.ClaimedIdentity("ais-90days-trial", "static", "OnDemand"))
	assert.Equal(t, "ais-90days-trial:static", signing.ModeStatic.ClaimedIdentity("ais-90days-trial", "static", "OnDemand"))
	assert.Equal(t, "ais-90days-trial:OnDemand", signing.ModeOnDemandStepUp.ClaimedIdentity("ais-90days-trial", "static", "OnDemand"))
}

func TestNewTransactionID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := signing.NewTransactionID()
		assert.LessOrEqual(t, len(id), 6, "30 bits en base 32 ocupan como máximo 6 dígitos")
		assert.Equal(t, strings.ToLower(id), id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 40)
}
