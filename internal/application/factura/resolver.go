package factura

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"3tcapital/ms_saludplus_facturas/internal/application/legacy"
	"3tcapital/ms_saludplus_facturas/internal/core/factura"
	"3tcapital/ms_saludplus_facturas/internal/core/search"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
)

// Resolver turns a loosely specified query into exactly one invoice identity.
// The legacy search handler and the lookups are both optional; their
// availability is fixed at construction.
type Resolver struct {
	search        search.Handler
	lookup        factura.Lookup
	searchTimeout time.Duration
	log           *slog.Logger

	hasSearch bool
	hasLookup bool
}

// NewResolver creates a resolver. searchHandler and lookup may be nil.
func NewResolver(searchHandler search.Handler, lookup factura.Lookup, searchTimeout time.Duration, log *slog.Logger) *Resolver {
	if searchTimeout <= 0 {
		searchTimeout = legacy.DefaultTimeout
	}
	return &Resolver{
		search:        searchHandler,
		lookup:        lookup,
		searchTimeout: searchTimeout,
		log:           log,
		hasSearch:     searchHandler != nil,
		hasLookup:     lookup != nil,
	}
}

// Resolve validates the query, asks the legacy search handler and falls back
// to the lookups when it yields no invoice ID.
func (r *Resolver) Resolve(ctx context.Context, q factura.Query) (*factura.Resolution, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	correlationID := ctxutil.GetCorrelationID(ctx)

	if r.hasSearch {
		if id, ok := r.searchInvoiceID(ctx, q.SearchTerm()); ok {
			r.log.Info("invoice resolved by legacy search",
				"correlation_id", correlationID,
				"id_factura", id,
			)
			return &factura.Resolution{
				IDFactura:      id,
				NumeroFactura:  strings.TrimSpace(q.NumeroFactura),
				NitInstitucion: factura.UnknownNIT,
				Source:         factura.SourceLegacySearch,
			}, nil
		}
	}

	if !r.hasLookup {
		return nil, factura.InternalError("no hay un mecanismo de búsqueda de facturas disponible", nil)
	}

	institucionID, err := strconv.ParseInt(strings.TrimSpace(q.InstitucionID), 10, 64)
	if err != nil {
		return nil, factura.ValidationError("parámetros inválidos", factura.FieldInstitucionID+" debe ser numérico")
	}

	var ids *factura.LookupResult
	if q.AdmissionOnly() {
		admision, err := strconv.ParseInt(q.AdmissionKey(), 10, 64)
		if err != nil {
			return nil, factura.ValidationError("parámetros inválidos", "numeroAdmision|idAdmision debe ser numérico")
		}
		ids, err = r.lookup.ByAdmission(ctx, institucionID, admision)
		if err != nil {
			return nil, factura.InternalError("error consultando facturas por admisión", err)
		}
	} else {
		ids, err = r.lookup.ByKey(ctx, institucionID, q.AnyKey())
		if err != nil {
			return nil, factura.InternalError("error consultando facturas", err)
		}
	}

	if ids == nil {
		return nil, factura.NotFoundError("no se encontraron facturas asociadas")
	}

	principal, ok := factura.PickInvoice(ids.FacturasDetalle, strings.TrimSpace(q.NumeroFactura))
	if !ok || strings.TrimSpace(principal.IDFactura) == "" {
		return nil, factura.NotFoundError("no se encontraron facturas asociadas")
	}

	numero := firstNonEmpty(q.NumeroFactura, principal.NumeroFactura, ids.NumeroFactura)
	nit := ids.NitInstitucion
	if nit == "" {
		nit = factura.UnknownNIT
	}

	r.log.Info("invoice resolved by lookup",
		"correlation_id", correlationID,
		"id_factura", principal.IDFactura,
		"candidates", len(ids.FacturasDetalle),
		"admission_only", q.AdmissionOnly(),
	)

	return &factura.Resolution{
		IDFactura:      strings.TrimSpace(principal.IDFactura),
		NumeroFactura:  numero,
		NitInstitucion: nit,
		Source:         factura.SourceLookup,
	}, nil
}

// searchInvoiceID invokes the legacy handler once. Failures are logged and
// treated as "no answer".
func (r *Resolver) searchInvoiceID(ctx context.Context, term string) (string, bool) {
	result, err := legacy.Invoke(ctx, r.search, term, r.searchTimeout)
	if err != nil {
		r.log.Warn("legacy search failed, falling back to lookups",
			"correlation_id", ctxutil.GetCorrelationID(ctx),
			"error", err,
		)
		return "", false
	}
	if result.Status != http.StatusOK {
		r.log.Debug("legacy search returned no invoice",
			"correlation_id", ctxutil.GetCorrelationID(ctx),
			"status", result.Status,
			"timed_out", result.TimedOut(),
		)
		return "", false
	}
	return invoiceIDFromBody(result.Body)
}

// invoiceIDFromBody extracts idFactura from whatever the handler answered.
// Numbers (including 0) and non-empty strings are usable.
func invoiceIDFromBody(body any) (string, bool) {
	if body == nil {
		return "", false
	}

	var raw []byte
	switch v := body.(type) {
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	case string:
		raw = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		raw = encoded
	}

	var envelope struct {
		IDFactura json.RawMessage `json:"idFactura"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.IDFactura) == 0 {
		return "", false
	}

	var number json.Number
	if err := json.Unmarshal(envelope.IDFactura, &number); err == nil && number != "" {
		return number.String(), true
	}
	var text string
	if err := json.Unmarshal(envelope.IDFactura, &text); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), true
	}
	return "", false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
