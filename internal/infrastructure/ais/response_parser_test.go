package ais_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/firmador-ais/internal/domain"
	infraais "github.com/jhoicas/firmador-ais/internal/infrastructure/ais"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

const batchSuccessResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ais:signResponse xmlns="urn:oasis:names:tc:dss:1.0:core:schema" xmlns:ais="http://service.ais.swisscom.com/" xmlns:sc="http://ais.swisscom.ch/1.0/schema">
      <SignResponse RequestID="r-1" Profile="http://ais.swisscom.ch/1.1">
        <Result>
          <ResultMajor>urn:oasis:names:tc:dss:1.0:resultmajor:Success</ResultMajor>
        </Result>
        <OptionalOutputs>
          <sc:RevocationInformation>
            <sc:CRLs><sc:CRL>Q1JMLTE=</sc:CRL></sc:CRLs>
            <sc:OCSPs><sc:OCSP>T0NTUC0x</sc:OCSP><sc:OCSP>T0NTUC0y</sc:OCSP></sc:OCSPs>
          </sc:RevocationInformation>
        </OptionalOutputs>
        <SignatureObject>
          <Other>
            <sc:SignatureObjects>
              <sc:ExtendedSignatureObject WhichDocument="0"><Base64Signature Type="urn:ietf:rfc:3369">
                U0lHLTA=
              </Base64Signature></sc:ExtendedSignatureObject>
              <sc:ExtendedSignatureObject WhichDocument="1"><Base64Signature Type="urn:ietf:rfc:3369">U0lHLTE=</Base64Signature></sc:ExtendedSignatureObject>
            </sc:SignatureObjects>
          </Other>
        </SignatureObject>
      </SignResponse>
    </ais:signResponse>
  </soap:Body>
</soap:Envelope>`

const pendingResponse = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ais:signResponse xmlns:ais="http://service.ais.swisscom.com/" xmlns:async="urn:oasis:names:tc:dss:1.0:profiles:asynchronousprocessing:1.0" xmlns:sc="http://ais.swisscom.ch/1.0/schema">
      <SignResponse>
        <Result><ResultMajor>urn:oasis:names:tc:dss:1.0:profiles:asynchronousprocessing:resultmajor:Pending</ResultMajor></Result>
        <OptionalOutputs>
          <async:ResponseID>f5c0d4a2-resp</async:ResponseID>
          <sc:StepUpAuthorisationInfo><sc:Result><sc:ConsentURL>https://consent.example/abc</sc:ConsentURL></sc:Result></sc:StepUpAuthorisationInfo>
        </OptionalOutputs>
      </SignResponse>
    </ais:signResponse>
  </soap:Body>
</soap:Envelope>`

func TestExtract_Cardinalidades(t *testing.T) {
	sigs, err := infraais.Extract([]byte(batchSuccessResponse), ais.TagSignatureCMS)
	require.NoError(t, err)
	assert.Equal(t, []string{"U0lHLTA=", "U0lHLTE="}, sigs, "una firma por documento, en orden y sin espacios")

	ocsp, err := infraais.Extract([]byte(batchSuccessResponse), ais.TagOCSP)
	require.NoError(t, err)
	assert.Len(t, ocsp, 2)

	crl, err := infraais.Extract([]byte(batchSuccessResponse), ais.TagCRL)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1JMLTE="}, crl)
}

func TestExtract_EtiquetaAusente(t *testing.T) {
	v, err := infraais.Extract([]byte(batchSuccessResponse), ais.TagConsentURL)
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)

	v, err = infraais.Extract([]byte(batchSuccessResponse), ais.TagTimestampToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestExtract_XMLMalFormado(t *testing.T) {
	for _, body := range []string{"<soap:Envelope><a></b>", "", "no es xml"} {
		_, err := infraais.Extract([]byte(body), ais.TagResultMajor)
		assert.ErrorIs(t, err, domain.ErrProtocol, "%q", body)
	}
}

func TestExtract_Idempotente(t *testing.T) {
	first, err := infraais.Extract([]byte(pendingResponse), ais.TagResponseID)
	require.NoError(t, err)
	second, err := infraais.Extract([]byte(pendingResponse), ais.TagResponseID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"f5c0d4a2-resp"}, first)
}

func TestResponse_Result(t *testing.T) {
	r, err := infraais.ParseResponse([]byte(pendingResponse))
	require.NoError(t, err)
	res := r.Result()
	assert.True(t, res.IsPending())
	assert.False(t, res.IsSuccess())
	assert.Equal(t, "https://consent.example/abc", r.First(ais.TagConsentURL))

	r, err = infraais.ParseResponse([]byte(batchSuccessResponse))
	require.NoError(t, err)
	assert.True(t, r.Result().IsSuccess())
	assert.Empty(t, r.Result().Minor)
}

func TestResponse_Fault(t *testing.T) {
	const fault = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>
<soap:Fault><faultcode>soap:Client</faultcode><faultstring>certificado no autorizado</faultstring></soap:Fault>
</soap:Body></soap:Envelope>`
	r, err := infraais.ParseResponse([]byte(fault))
	require.NoError(t, err)
	assert.Equal(t, "certificado no autorizado", r.Fault())
	assert.Empty(t, r.Result().Major)
}
