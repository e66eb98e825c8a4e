package factura

import (
	"context"
	"strconv"
	"strings"
)

// UnknownNIT is used in filenames when the lookups did not report an institution NIT.
const UnknownNIT = "NITDESCONOCIDO"

// DetailRecord is one invoice candidate returned by a lookup.
type DetailRecord struct {
	IDFactura     string `json:"id_factura"`
	NumeroFactura string `json:"numero_factura"`
}

// NumericID parses IDFactura. ok is false when the value is not a number.
func (r DetailRecord) NumericID() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.IDFactura), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LookupResult is the output of both fallback lookups.
type LookupResult struct {
	FacturasDetalle []DetailRecord `json:"facturasDetalle"`
	// NumeroFactura is only a fallback for when the picked record carries no
	// number of its own.
	NumeroFactura   string         `json:"numeroFactura"`
	NitInstitucion  string         `json:"nitInstitucion"`
}

// Lookup resolves invoice candidates when the legacy search yields nothing.
type Lookup interface {
	// ByKey searches by any key (clave, invoice number or admission number).
	ByKey(ctx context.Context, institucionID int64, clave string) (*LookupResult, error)
	// ByAdmission searches by admission identifier.
	ByAdmission(ctx context.Context, institucionID, idAdmision int64) (*LookupResult, error)
}

// Resolution is the invoice identity used for document retrieval.
type Resolution struct {
	IDFactura      string
	NumeroFactura  string
	NitInstitucion string
	Source         string
}

// Resolution sources.
const (
	SourceLegacySearch = "legacy_search"
	SourceLookup       = "lookup"
)

// ZipInfo is the envelope returned by the GetZipFile endpoint.
type ZipInfo struct {
	ValorRetorno int    `json:"valorRetorno"`
	Archivo      string `json:"archivo"`
}

// ArchiveProvider fetches invoice archives from SaludPlus.
type ArchiveProvider interface {
	ZipInfo(ctx context.Context, idFactura string) (*ZipInfo, error)
	DownloadZip(ctx context.Context, archiveURL string) ([]byte, error)
}
