package factura

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appfactura "3tcapital/ms_saludplus_facturas/internal/application/factura"
	"3tcapital/ms_saludplus_facturas/internal/core/factura"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
	httperrors "3tcapital/ms_saludplus_facturas/internal/infrastructure/http"
)

// Handler serves the electronic invoice PDF.
type Handler struct {
	resolver  *appfactura.Resolver
	documents *appfactura.DocumentService
	log       *slog.Logger
}

// NewHandler creates the invoice PDF handler.
func NewHandler(resolver *appfactura.Resolver, documents *appfactura.DocumentService, log *slog.Logger) *Handler {
	return &Handler{resolver: resolver, documents: documents, log: log}
}

// GetElectronicInvoice handles GET /api/v1/facturas/electronica.
func (h *Handler) GetElectronicInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, "Método no permitido", []string{"Este endpoint solo acepta GET"}, h.log)
		return
	}

	params := r.URL.Query()
	query := factura.Query{
		Clave:          params.Get("clave"),
		NumeroFactura:  params.Get("numeroFactura"),
		NumeroAdmision: params.Get("numeroAdmision"),
		IDAdmision:     params.Get("idAdmision"),
		EPS:            params.Get("eps"),
		InstitucionID:  params.Get("institucionId"),
		IDUser:         params.Get("idUser"),
	}

	ctx := r.Context()
	resolution, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	doc, err := h.documents.Fetch(ctx, resolution, query.EPS)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	pdf, err := doc.Open()
	if err != nil {
		h.handleError(w, r, factura.TransportError("no se pudo procesar el ZIP", err))
		return
	}
	defer pdf.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", ContentDisposition(doc.Filename))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatUint(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, pdf)
	if err != nil {
		h.log.Error("PDF stream interrupted",
			"correlation_id", ctxutil.GetCorrelationID(ctx),
			"id_factura", resolution.IDFactura,
			"bytes_written", written,
			"error", err,
		)
		return
	}

	h.log.Info("Invoice PDF delivered",
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"id_factura", resolution.IDFactura,
		"source", resolution.Source,
		"filename", doc.Filename,
		"bytes", written,
	)
}

// ContentDisposition renders an attachment header carrying both the plain
// filename and its RFC 5987 UTF-8 form.
func ContentDisposition(filename string) string {
	plain := strings.ReplaceAll(filename, `"`, "")
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, plain, encodeURIComponent(filename))
}

var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent matches the browser function of the same name.
func encodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var fErr *factura.Error
	if !errors.As(err, &fErr) {
		fErr = factura.InternalError("Ha ocurrido un error interno", err)
	}

	attrs := []any{
		"correlation_id", ctxutil.GetCorrelationID(r.Context()),
		"kind", fErr.Kind.String(),
		"error", err,
		"path", r.URL.Path,
	}
	status := fErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Error("Invoice PDF request failed", attrs...)
	} else {
		h.log.Warn("Invoice PDF request rejected", attrs...)
	}

	details := append([]string{fErr.Message}, fErr.Details...)
	httperrors.WriteError(w, status, title(fErr.Kind), details, h.log)
}

func title(kind factura.Kind) string {
	switch kind {
	case factura.KindValidation:
		return "Error de Validación"
	case factura.KindNotFound:
		return "Factura No Encontrada"
	case factura.KindUpstream:
		return "Error del Proveedor"
	default:
		return "Error Interno del Servidor"
	}
}
