package ais

import (
	"fmt"
	"strings"
)

// Atributos admitidos en el DistinguishedName del certificado on-demand.
// cn y c son obligatorios para el servicio.
var supportedDNAttributes = map[string]bool{
	"cn": true, "c": true,
	"emailaddress": true, "givenname": true, "l": true, "ou": true,
	"o": true, "serialnumber": true, "st": true, "sn": true,
}

// ParseDN separa "cn=Hans Muster,o=Acme,c=CH" en pares atributo/valor.
// Las comas escapadas (\,) se conservan dentro del valor.
func ParseDN(dn string) (map[string]string, error) {
	out := map[string]string{}
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, r := range dn {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("dn: componente sin '=': %q", p)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out, nil
}

// CheckDN devuelve advertencias sobre el DN: atributos obligatorios ausentes o
// no admitidos. Nunca rechaza; el servicio remoto tiene la última palabra.
func CheckDN(dn string) []string {
	attrs, err := ParseDN(dn)
	if err != nil {
		return []string{err.Error()}
	}
	var warnings []string
	for _, req := range []string{"cn", "c"} {
		if attrs[req] == "" {
			warnings = append(warnings, fmt.Sprintf("dn: falta el atributo obligatorio %q", req))
		}
	}
	for k := range attrs {
		if !supportedDNAttributes[k] {
			warnings = append(warnings, fmt.Sprintf("dn: atributo %q no admitido por el servicio", k))
		}
	}
	return warnings
}
