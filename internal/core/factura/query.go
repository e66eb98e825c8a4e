package factura

import "strings"

// Query carries the loosely specified parameters of a PDF download request.
type Query struct {
	Clave          string
	NumeroFactura  string
	NumeroAdmision string
	IDAdmision     string
	EPS            string
	InstitucionID  string
	IDUser         string
}

// Field names reported when parameters are missing.
const (
	FieldEPS           = "eps"
	FieldInstitucionID = "institucionId"
	FieldIDUser        = "idUser"
	FieldAnyKey        = "clave|numeroFactura|numeroAdmision|idAdmision"
)

// Validate reports every missing parameter at once.
func (q Query) Validate() error {
	var missing []string
	if q.AnyKey() == "" {
		missing = append(missing, FieldAnyKey)
	}
	if strings.TrimSpace(q.EPS) == "" {
		missing = append(missing, FieldEPS)
	}
	if strings.TrimSpace(q.InstitucionID) == "" {
		missing = append(missing, FieldInstitucionID)
	}
	if strings.TrimSpace(q.IDUser) == "" {
		missing = append(missing, FieldIDUser)
	}
	if len(missing) > 0 {
		return ValidationError("faltan parámetros", missing...)
	}
	return nil
}

// AnyKey returns the first non-empty identifier in clave, numeroFactura,
// numeroAdmision, idAdmision order.
func (q Query) AnyKey() string {
	return firstNonEmpty(q.Clave, q.NumeroFactura, q.NumeroAdmision, q.IDAdmision)
}

// SearchTerm is the value handed to the legacy search handler.
func (q Query) SearchTerm() string {
	return firstNonEmpty(q.NumeroAdmision, q.Clave)
}

// AdmissionOnly is true when the request names an admission but neither an
// invoice number nor a key.
func (q Query) AdmissionOnly() bool {
	return strings.TrimSpace(q.NumeroFactura) == "" &&
		strings.TrimSpace(q.Clave) == "" &&
		q.AdmissionKey() != ""
}

// AdmissionKey returns numeroAdmision, falling back to idAdmision.
func (q Query) AdmissionKey() string {
	return firstNonEmpty(q.NumeroAdmision, q.IDAdmision)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
