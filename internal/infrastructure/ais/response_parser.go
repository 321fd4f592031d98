package ais

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/firmador-ais/internal/domain"
	pkgais "github.com/jhoicas/firmador-ais/pkg/ais"
)

// Cardinalidad de las etiquetas de la respuesta:
//
//	ResultMajor, ResultMinor, ResultMessage        0/1
//	Base64Signature / RFC3161TimeStampToken        0..n, una por documento y en orden
//	async:ResponseID, sc:ConsentURL                0/1
//	sc:OCSP, sc:CRL                                0..n
//
// Las etiquetas se comparan por nombre calificado tal como las escribe el
// servidor (prefijo:local, o solo local si no lleva prefijo).

// Response respuesta SOAP ya parseada.
type Response struct {
	doc *etree.Document
}

// Result códigos de resultado de una respuesta.
type Result struct {
	Major   string
	Minor   string
	Message string
}

// IsSuccess compara ResultMajor con Success.
func (r Result) IsSuccess() bool { return r.Major == pkgais.ResultMajorSuccess }

// IsPending compara ResultMajor con Pending.
func (r Result) IsPending() bool { return r.Major == pkgais.ResultMajorPending }

// ParseResponse parsea el cuerpo de la respuesta. XML mal formado o sin
// elemento raíz devuelve un ProtocolError.
func ParseResponse(body []byte) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, domain.ProtocolError("soap: respuesta XML mal formada: %v", err)
	}
	if doc.Root() == nil {
		return nil, domain.ProtocolError("soap: respuesta sin elemento raíz")
	}
	return &Response{doc: doc}, nil
}

// Extract devuelve el texto de todos los elementos con la etiqueta dada, en
// orden de documento. Una etiqueta ausente devuelve una lista vacía.
func Extract(body []byte, tag string) ([]string, error) {
	r, err := ParseResponse(body)
	if err != nil {
		return nil, err
	}
	return r.Values(tag), nil
}

// Values textos de los elementos con la etiqueta dada.
func (r *Response) Values(tag string) []string {
	out := []string{}
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.FullTag() == tag {
			out = append(out, strings.TrimSpace(el.Text()))
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(r.doc.Root())
	return out
}

// First primer valor de la etiqueta o "" si no aparece.
func (r *Response) First(tag string) string {
	if v := r.Values(tag); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Result extrae ResultMajor, ResultMinor y ResultMessage.
func (r *Response) Result() Result {
	return Result{
		Major:   r.First(pkgais.TagResultMajor),
		Minor:   r.First(pkgais.TagResultMinor),
		Message: r.First(pkgais.TagResultMessage),
	}
}

// Fault devuelve faultstring de un soap:Fault, si lo hay.
func (r *Response) Fault() string {
	for _, el := range r.doc.FindElements("//Fault") {
		if fs := el.SelectElement("faultstring"); fs != nil {
			return strings.TrimSpace(fs.Text())
		}
		return "soap fault"
	}
	return ""
}
