// Package ais implementa el cliente SOAP del servicio de firma remota:
// construcción de peticiones, transporte mTLS y extracción de la respuesta.
package ais

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/jhoicas/firmador-ais/internal/domain/signing"
	pkgais "github.com/jhoicas/firmador-ais/pkg/ais"
)

// ── Petición de firma ─────────────────────────────────────────────────────────

// BuildSignRequest despacha al constructor del modo de la petición.
func BuildSignRequest(rs signing.RequestSpec) ([]byte, error) {
	switch rs.Mode {
	case signing.ModeTimestamp:
		return BuildTimestampRequest(rs)
	case signing.ModeStatic:
		return BuildStaticRequest(rs)
	case signing.ModeOnDemand:
		return BuildOnDemandRequest(rs)
	case signing.ModeOnDemandStepUp:
		return BuildStepUpRequest(rs)
	default:
		return nil, fmt.Errorf("soap: modo desconocido %q", rs.Mode)
	}
}

// BuildTimestampRequest petición de sello de tiempo RFC 3161.
func BuildTimestampRequest(rs signing.RequestSpec) ([]byte, error) {
	rs.Mode = signing.ModeTimestamp
	rs.DistinguishedName, rs.StepUp = "", nil
	return buildSign(rs)
}

// BuildStaticRequest firma CMS con el certificado estático de la identidad.
func BuildStaticRequest(rs signing.RequestSpec) ([]byte, error) {
	rs.Mode = signing.ModeStatic
	rs.DistinguishedName, rs.StepUp = "", nil
	return buildSign(rs)
}

// BuildOnDemandRequest firma CMS con un certificado emitido para el DN indicado.
func BuildOnDemandRequest(rs signing.RequestSpec) ([]byte, error) {
	rs.Mode = signing.ModeOnDemand
	rs.StepUp = nil
	return buildSign(rs)
}

// BuildStepUpRequest firma on-demand con consentimiento fuera de banda (asíncrona).
func BuildStepUpRequest(rs signing.RequestSpec) ([]byte, error) {
	if rs.StepUp == nil {
		return nil, fmt.Errorf("soap: step-up sin datos de consentimiento")
	}
	rs.Mode = signing.ModeOnDemandStepUp
	return buildSign(rs)
}

func buildSign(rs signing.RequestSpec) ([]byte, error) {
	doc, body := newEnvelope(false)

	sign := body.CreateElement("ais:sign")
	req := sign.CreateElement("SignRequest")
	req.CreateAttr("Profile", pkgais.RequestProfile)
	req.CreateAttr("RequestID", rs.RequestID)

	inputs := req.CreateElement("InputDocuments")
	for i, digest := range rs.Digests {
		dh := inputs.CreateElement("DocumentHash")
		if len(rs.Digests) > 1 {
			dh.CreateAttr("ID", strconv.Itoa(i))
		}
		dm := dh.CreateElement("dsig:DigestMethod")
		dm.CreateAttr("Algorithm", rs.DigestAlgorithm.URI())
		dh.CreateElement("dsig:DigestValue").SetText(base64.StdEncoding.EncodeToString(digest))
	}

	opt := req.CreateElement("OptionalInputs")
	for _, p := range rs.Profiles() {
		opt.CreateElement("AdditionalProfile").SetText(p)
	}
	opt.CreateElement("ClaimedIdentity").CreateElement("Name").SetText(rs.ClaimedIdentity)

	if rs.Mode.IsOnDemand() {
		cr := opt.CreateElement("sc:CertificateRequest")
		cr.CreateElement("sc:DistinguishedName").SetText(rs.DistinguishedName)
		if rs.Mode == signing.ModeOnDemandStepUp {
			phone := cr.CreateElement("sc:StepUpAuthorisation").CreateElement("sc:Phone")
			phone.CreateElement("sc:MSISDN").SetText(rs.StepUp.MSISDN)
			phone.CreateElement("sc:Message").SetText(rs.StepUp.Message)
			phone.CreateElement("sc:Language").SetText(rs.StepUp.Language)
			if rs.StepUp.SerialNumber != "" {
				phone.CreateElement("sc:SerialNumber").SetText(rs.StepUp.SerialNumber)
			}
		}
	}

	opt.CreateElement("SignatureType").SetText(rs.Mode.SignatureType())

	if rs.Mode != signing.ModeTimestamp {
		opt.CreateElement("AddTimestamp").CreateAttr("Type", pkgais.SignatureTypeTimestamp)
		opt.CreateElement("sc:SignatureStandard").SetText(pkgais.SignatureStandardPAdES)
	}

	// Los atributos PAdES de un sello RFC 3161 no admiten información de
	// revocación añadida después; se pide BOTH para recibirla por separado.
	rev := opt.CreateElement("sc:AddRevocationInformation")
	if rs.Mode == signing.ModeTimestamp {
		rev.CreateAttr("Type", pkgais.RevocationTypeBoth)
	}

	return serialize(doc)
}

// ── Petición de polling ───────────────────────────────────────────────────────

// BuildPollRequest petición PendingRequest para una operación asíncrona.
// Solo lleva la identidad reclamada y el ResponseID.
func BuildPollRequest(claimedIdentity, responseID string) ([]byte, error) {
	doc, body := newEnvelope(true)

	pending := body.CreateElement("ais:pending")
	req := pending.CreateElement("async:PendingRequest")
	req.CreateAttr("Profile", pkgais.RequestProfile)

	opt := req.CreateElement("OptionalInputs")
	opt.CreateElement("ClaimedIdentity").CreateElement("Name").SetText(claimedIdentity)
	opt.CreateElement("async:ResponseID").SetText(responseID)

	return serialize(doc)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// newEnvelope crea soap:Envelope con los namespaces del servicio y devuelve el Body.
func newEnvelope(async bool) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns", pkgais.NamespaceDSS)
	env.CreateAttr("xmlns:soap", pkgais.NamespaceSOAP)
	env.CreateAttr("xmlns:dsig", pkgais.NamespaceDSig)
	env.CreateAttr("xmlns:sc", pkgais.NamespaceSC)
	env.CreateAttr("xmlns:ais", pkgais.NamespaceAIS)
	if async {
		env.CreateAttr("xmlns:async", pkgais.NamespaceAsync)
	}

	env.CreateElement("soap:Header")
	return doc, env.CreateElement("soap:Body")
}

func serialize(doc *etree.Document) ([]byte, error) {
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	return out, nil
}
