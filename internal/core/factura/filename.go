package factura

import (
	"regexp"
	"strings"
)

// Normalized EPS names with their own filename convention.
const (
	EPSNuevaEPS   = "NUEVA EPS"
	EPSSaludTotal = "SALUD TOTAL"
)

var (
	forbiddenChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// SanitizeFilename replaces characters not allowed in filenames with "_",
// collapses whitespace and trims the result.
func SanitizeFilename(name string) string {
	name = forbiddenChars.ReplaceAllString(name, "_")
	name = whitespaceRuns.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeEPS uppercases the insurer name and folds known aliases.
func NormalizeEPS(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch v {
	case "NUEVA EPS", "NUEVA_EPS":
		return EPSNuevaEPS
	case "SALUD TOTAL", "SALUD_TOTAL":
		return EPSSaludTotal
	default:
		return v
	}
}

// PDFFilename builds the download name expected by each insurer.
// The invoice number falls back to the invoice ID when empty.
func PDFFilename(eps, nit, numeroFactura, idFactura string) string {
	number := numeroFactura
	if number == "" {
		number = idFactura
	}

	var base string
	switch NormalizeEPS(eps) {
	case EPSNuevaEPS:
		base = "FVS_" + nit + "_FEH" + number
	case EPSSaludTotal:
		base = nit + "_FEH_" + number + "_1_1"
	default:
		base = nit + "_" + number
	}
	return SanitizeFilename(base) + ".pdf"
}
