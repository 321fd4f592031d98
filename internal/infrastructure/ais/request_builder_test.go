package ais_test

import (
	"encoding/base64"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/firmador-ais/internal/domain/signing"
	infraais "github.com/jhoicas/firmador-ais/internal/infrastructure/ais"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

func requestFor(mode signing.Mode, docs int) signing.RequestSpec {
	digests := make([][]byte, docs)
	for i := range digests {
		digests[i] = []byte{byte(i + 1), 0xAA, 0xBB}
	}
	s := signing.RequestSpec{
		Mode:            mode,
		Digests:         digests,
		DigestAlgorithm: ais.DigestSHA256,
		ClaimedIdentity: "ais-90days-trial",
		RequestID:       "19.10.2026 10:00:00:0001123",
	}
	if mode.IsOnDemand() {
		s.DistinguishedName = "cn=TEST Hans Muster,c=CH"
	}
	if mode == signing.ModeOnDemandStepUp {
		s.StepUp = &signing.StepUp{MSISDN: "+41791234567", Message: "Firmar? (ab12)", Language: "en"}
	}
	return s
}

func parse(t *testing.T, raw []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw), "el sobre debe ser XML válido")
	return doc
}

func texts(doc *etree.Document, path string) []string {
	var out []string
	for _, el := range doc.FindElements(path) {
		out = append(out, el.Text())
	}
	return out
}

// ── Sobre ─────────────────────────────────────────────────────────────────────

func TestBuildSignRequest_Sobre(t *testing.T) {
	raw, err := infraais.BuildSignRequest(requestFor(signing.ModeStatic, 1))
	require.NoError(t, err)
	doc := parse(t, raw)

	env := doc.Root()
	require.NotNil(t, env)
	assert.Equal(t, "soap:Envelope", env.FullTag())
	assert.Equal(t, ais.NamespaceDSS, env.SelectAttrValue("xmlns", ""))
	assert.Equal(t, ais.NamespaceSC, env.SelectAttrValue("xmlns:sc", ""))
	assert.Equal(t, ais.NamespaceDSig, env.SelectAttrValue("xmlns:dsig", ""))
	assert.Equal(t, ais.NamespaceAIS, env.SelectAttrValue("xmlns:ais", ""))

	req := doc.FindElement("//ais:sign/SignRequest")
	require.NotNil(t, req)
	assert.Equal(t, ais.RequestProfile, req.SelectAttrValue("Profile", ""))
	assert.Equal(t, "19.10.2026 10:00:00:0001123", req.SelectAttrValue("RequestID", ""))
	assert.Equal(t, []string{"ais-90days-trial"}, texts(doc, "//ClaimedIdentity/Name"))
}

// ── Perfiles y tipo de firma por modo ─────────────────────────────────────────

func TestBuildSignRequest_PorModo(t *testing.T) {
	cases := []struct {
		mode     signing.Mode
		profiles []string
		sigType  string
		pades    bool
		revType  string
		certReq  bool
		stepUp   bool
	}{
		{signing.ModeTimestamp, []string{ais.ProfileTimestamp}, ais.SignatureTypeTimestamp, false, "BOTH", false, false},
		{signing.ModeStatic, nil, ais.SignatureTypeCMS, true, "", false, false},
		{signing.ModeOnDemand, []string{ais.ProfileOnDemandCertificate}, ais.SignatureTypeCMS, true, "", true, false},
		{signing.ModeOnDemandStepUp, []string{ais.ProfileOnDemandCertificate, ais.ProfileRedirect, ais.ProfileAsynchron}, ais.SignatureTypeCMS, true, "", true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			raw, err := infraais.BuildSignRequest(requestFor(tc.mode, 1))
			require.NoError(t, err)
			doc := parse(t, raw)

			assert.Equal(t, tc.profiles, texts(doc, "//OptionalInputs/AdditionalProfile"))
			assert.Equal(t, []string{tc.sigType}, texts(doc, "//OptionalInputs/SignatureType"))
			assert.Equal(t, tc.pades, doc.FindElement("//sc:SignatureStandard") != nil)
			assert.Equal(t, tc.pades, doc.FindElement("//AddTimestamp") != nil)

			rev := doc.FindElement("//sc:AddRevocationInformation")
			require.NotNil(t, rev, "siempre se pide información de revocación")
			assert.Equal(t, tc.revType, rev.SelectAttrValue("Type", ""))

			assert.Equal(t, tc.certReq, doc.FindElement("//sc:CertificateRequest/sc:DistinguishedName") != nil)
			assert.Equal(t, tc.stepUp, doc.FindElement("//sc:StepUpAuthorisation/sc:Phone") != nil)
		})
	}
}

func TestBuildSignRequest_StepUp(t *testing.T) {
	rs := requestFor(signing.ModeOnDemandStepUp, 1)
	rs.StepUp.SerialNumber = "MIDCHE2EG8NAWUB3"
	raw, err := infraais.BuildSignRequest(rs)
	require.NoError(t, err)
	doc := parse(t, raw)

	assert.Equal(t, []string{"+41791234567"}, texts(doc, "//sc:Phone/sc:MSISDN"))
	assert.Equal(t, []string{"Firmar? (ab12)"}, texts(doc, "//sc:Phone/sc:Message"))
	assert.Equal(t, []string{"en"}, texts(doc, "//sc:Phone/sc:Language"))
	assert.Equal(t, []string{"MIDCHE2EG8NAWUB3"}, texts(doc, "//sc:Phone/sc:SerialNumber"))

	_, err = infraais.BuildStepUpRequest(requestFor(signing.ModeOnDemand, 1))
	assert.Error(t, err, "step-up sin datos de consentimiento")
}

func TestBuildStaticRequest_SinCamposOnDemand(t *testing.T) {
	rs := requestFor(signing.ModeOnDemandStepUp, 1)
	raw, err := infraais.BuildStaticRequest(rs)
	require.NoError(t, err)
	doc := parse(t, raw)

	assert.Nil(t, doc.FindElement("//sc:CertificateRequest"))
	assert.Empty(t, texts(doc, "//OptionalInputs/AdditionalProfile"))
}

// ── Lotes ─────────────────────────────────────────────────────────────────────

func TestBuildSignRequest_Lote(t *testing.T) {
	raw, err := infraais.BuildSignRequest(requestFor(signing.ModeStatic, 3))
	require.NoError(t, err)
	doc := parse(t, raw)

	hashes := doc.FindElements("//InputDocuments/DocumentHash")
	require.Len(t, hashes, 3)
	for i, h := range hashes {
		assert.Equal(t, []string{"0", "1", "2"}[i], h.SelectAttrValue("ID", ""))
		dm := h.SelectElement("DigestMethod")
		require.NotNil(t, dm)
		assert.Equal(t, ais.DigestSHA256.URI(), dm.SelectAttrValue("Algorithm", ""))
		dv := h.SelectElement("DigestValue")
		require.NotNil(t, dv)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{byte(i + 1), 0xAA, 0xBB}), dv.Text())
	}
	assert.Contains(t, texts(doc, "//OptionalInputs/AdditionalProfile"), ais.ProfileBatch)
}

func TestBuildSignRequest_DocumentoUnicoSinID(t *testing.T) {
	raw, err := infraais.BuildSignRequest(requestFor(signing.ModeTimestamp, 1))
	require.NoError(t, err)
	doc := parse(t, raw)

	h := doc.FindElement("//InputDocuments/DocumentHash")
	require.NotNil(t, h)
	assert.Nil(t, h.SelectAttr("ID"))
	assert.NotContains(t, texts(doc, "//OptionalInputs/AdditionalProfile"), ais.ProfileBatch)
}

// ── Polling ───────────────────────────────────────────────────────────────────

func TestBuildPollRequest(t *testing.T) {
	raw, err := infraais.BuildPollRequest("ais-90days-trial:OnDemand", "resp-42")
	require.NoError(t, err)
	doc := parse(t, raw)

	assert.Equal(t, ais.NamespaceAsync, doc.Root().SelectAttrValue("xmlns:async", ""))
	req := doc.FindElement("//ais:pending/async:PendingRequest")
	require.NotNil(t, req)
	assert.Equal(t, ais.RequestProfile, req.SelectAttrValue("Profile", ""))

	opt := req.SelectElement("OptionalInputs")
	require.NotNil(t, opt)
	assert.Len(t, opt.ChildElements(), 2, "solo identidad y ResponseID")
	assert.Equal(t, []string{"ais-90days-trial:OnDemand"}, texts(doc, "//OptionalInputs/ClaimedIdentity/Name"))
	assert.Equal(t, []string{"resp-42"}, texts(doc, "//OptionalInputs/async:ResponseID"))
}
