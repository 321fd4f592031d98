package document

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	appsigning "github.com/jhoicas/firmador-ais/internal/application/signing"
	domsigning "github.com/jhoicas/firmador-ais/internal/domain/signing"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

func newDoc(t *testing.T, content string) appsigning.Document {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "contrato.pdf")
	require.NoError(t, os.WriteFile(in, []byte(content), 0o600))
	return appsigning.Document{Index: 0, InputPath: in, OutputPath: filepath.Join(dir, "contrato.zip")}
}

func readZip(t *testing.T, path string) map[string][]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = b
	}
	return out
}

// ocspGood respuesta OCSP "good" firmada por un emisor autofirmado.
func ocspGood(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "CA de prueba"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	require.NoError(t, err)
	issuer, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	resp, err := ocsp.CreateResponse(issuer, issuer, ocsp.Response{
		Status:       ocsp.Good,
		SerialNumber: big.NewInt(0xABC),
		ThisUpdate:   time.Now().Add(-time.Minute),
		NextUpdate:   time.Now().Add(time.Hour),
	}, crypto.Signer(key))
	require.NoError(t, err)
	return resp
}

func TestBundleEngine_CicloCompleto(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	doc := newDoc(t, "%PDF-1.7 contenido")
	signingTime := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	digest, err := e.Hash(doc, signingTime, ais.PlaceholderCMS, ais.DigestSHA256)
	require.NoError(t, err)
	want := sha256.Sum256([]byte("%PDF-1.7 contenido"))
	assert.Equal(t, want[:], digest)

	require.NoError(t, e.Embed(doc, []byte("firma-cms"), ais.PlaceholderCMS))
	files := readZip(t, doc.OutputPath)
	assert.Equal(t, []byte("firma-cms"), files[fileSignature])
	assert.NotContains(t, files, fileReceipt, "el comprobante se genera al cerrar el documento")

	ocspDER := ocspGood(t)
	require.NoError(t, e.AppendRevocation(doc, [][]byte{ocspDER}, [][]byte{[]byte("no es una CRL")}))
	assert.Empty(t, e.pending, "el paquete se libera al cerrar el ciclo")

	files = readZip(t, doc.OutputPath)
	assert.Equal(t, []byte("%PDF-1.7 contenido"), files["contrato.pdf"])
	assert.Equal(t, ocspDER, files["revocation/ocsp-1.der"])
	assert.Equal(t, []byte("no es una CRL"), files["revocation/crl-1.der"])
	require.Contains(t, files, fileReceipt)
	assert.True(t, bytes.HasPrefix(files[fileReceipt], []byte("%PDF")))

	var m manifest
	require.NoError(t, json.Unmarshal(files[fileManifest], &m))
	assert.Equal(t, "contrato.pdf", m.Document)
	assert.Equal(t, "SHA256", m.DigestAlgorithm)
	assert.Equal(t, fileSignature, m.SignatureFile)
	assert.Equal(t, len("firma-cms"), m.SignatureSize)
	assert.True(t, signingTime.Equal(m.SigningTime))
	require.Len(t, m.Revocation, 2)
	assert.Equal(t, "good", m.Revocation[0].Status)
	assert.Equal(t, "abc", m.Revocation[0].Serial)
	assert.Equal(t, "crl", m.Revocation[1].Kind)
	assert.NotEmpty(t, m.Revocation[1].Error)

	_, err = os.Stat(doc.OutputPath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	// el documento ya está cerrado
	assert.Error(t, e.Embed(doc, []byte("otra"), ais.PlaceholderCMS))
}

func TestBundleEngine_SelloDeTiempo(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	doc := newDoc(t, "datos")

	_, err := e.Hash(doc, time.Now(), ais.PlaceholderTimestamp, ais.DigestSHA512)
	require.NoError(t, err)
	require.NoError(t, e.Embed(doc, []byte("tsr"), ais.PlaceholderTimestamp))
	require.NoError(t, e.AppendRevocation(doc, nil, nil))

	files := readZip(t, doc.OutputPath)
	assert.Contains(t, files, fileTimestamp)
	assert.NotContains(t, files, fileSignature)
}

func TestBundleEngine_FirmaMayorQueReserva(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	doc := newDoc(t, "datos")

	_, err := e.Hash(doc, time.Now(), 4, ais.DigestSHA256)
	require.NoError(t, err)
	err = e.Embed(doc, []byte("12345"), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "excede")

	_, statErr := os.Stat(doc.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no debe escribirse salida")
}

func TestBundleEngine_SinHash(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	doc := newDoc(t, "datos")

	assert.Error(t, e.Embed(doc, []byte("x"), ais.PlaceholderCMS))
	assert.Error(t, e.AppendRevocation(doc, nil, nil))
}

func TestBundleEngine_EntradaInexistente(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	doc := appsigning.Document{InputPath: filepath.Join(t.TempDir(), "no-existe.pdf"), OutputPath: "x.zip"}

	_, err := e.Hash(doc, time.Now(), ais.PlaceholderCMS, ais.DigestSHA256)
	assert.Error(t, err)
}

func TestBundleEngine_DiscardLiberaPendiente(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	doc := newDoc(t, "datos")

	_, err := e.Hash(doc, time.Now(), ais.PlaceholderCMS, ais.DigestSHA256)
	require.NoError(t, err)
	require.Len(t, e.pending, 1)

	e.Discard(doc)
	assert.Empty(t, e.pending)
	assert.Error(t, e.Embed(doc, []byte("x"), ais.PlaceholderCMS), "tras descartar hace falta un nuevo Hash")

	e.Discard(doc) // sin efecto
	assert.Empty(t, e.pending)
}

// failingSender simula un servicio de firma inalcanzable.
type failingSender struct{}

func (failingSender) Send(context.Context, []byte, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestBundleEngine_SignFallidoNoRetieneDocumentos(t *testing.T) {
	e := NewBundleEngine(zerolog.Nop())
	dir := t.TempDir()
	docs := make([]appsigning.Document, 3)
	for i := range docs {
		in := filepath.Join(dir, "doc"+string(rune('a'+i))+".pdf")
		require.NoError(t, os.WriteFile(in, []byte("contenido"), 0o600))
		docs[i] = appsigning.Document{Index: i, InputPath: in, OutputPath: in + ".zip"}
	}
	engine := appsigning.NewEngine(appsigning.EngineConfig{
		Endpoint:        "https://ais.example/DSS-Server/ws",
		DigestAlgorithm: ais.DigestSHA256,
		Customer:        "ais-90days-trial",
		KeyStatic:       "static",
	}, failingSender{}, e, nil, zerolog.Nop())

	_, err := engine.Sign(context.Background(), "job", docs, &domsigning.Selection{Mode: domsigning.ModeStatic})
	require.Error(t, err)
	assert.Empty(t, e.pending)
}
