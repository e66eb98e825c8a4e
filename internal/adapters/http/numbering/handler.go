package numbering

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	appnumbering "3tcapital/ms_saludplus_facturas/internal/application/numbering"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
	httperrors "3tcapital/ms_saludplus_facturas/internal/infrastructure/http"
)

// Handler serves the invoice numbering endpoint.
type Handler struct {
	service *appnumbering.Service
	log     *slog.Logger
}

// NewHandler creates the numbering handler.
func NewHandler(service *appnumbering.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Response is the 200 body.
type Response struct {
	Institucion string          `json:"institucion"`
	Resultado   json.RawMessage `json:"resultado"`
}

// ErrorBody is the body of client and server errors.
type ErrorBody struct {
	Error       string   `json:"error"`
	Disponibles []string `json:"disponibles,omitempty"`
}

// NumberInvoices handles GET /api/v1/facturas/numerar.
func (h *Handler) NumberInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.WriteJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "Método no permitido"}, h.log)
		return
	}

	params := r.URL.Query()
	institucionID := params.Get("Idinstitucion")
	if institucionID == "" {
		institucionID = params.Get("institucionId")
	}

	result, err := h.service.Number(r.Context(), appnumbering.Request{
		IDFacturas:    params.Get("idFacturas"),
		NumeroFactura: params.Get("numeroFactura"),
		InstitucionID: institucionID,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resultado := result.Resultado
	if len(resultado) == 0 {
		resultado = json.RawMessage("null")
	}
	httperrors.WriteJSON(w, http.StatusOK, Response{
		Institucion: result.Institucion,
		Resultado:   resultado,
	}, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := ctxutil.GetCorrelationID(r.Context())

	if errors.Is(err, appnumbering.ErrMissingInvoices) {
		httperrors.WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error()}, h.log)
		return
	}

	var unknown *appnumbering.UnknownInstitutionError
	if errors.As(err, &unknown) {
		h.log.Warn("Numbering requested for unknown institution",
			"correlation_id", correlationID,
			"institucion_id", unknown.InstitucionID,
		)
		disponibles := unknown.Available
		if disponibles == nil {
			disponibles = []string{}
		}
		httperrors.WriteJSON(w, http.StatusBadRequest, struct {
			Error       string   `json:"error"`
			Disponibles []string `json:"disponibles"`
		}{Error: unknown.Error(), Disponibles: disponibles}, h.log)
		return
	}

	if failure, ok := httperrors.AsUpstreamFailure(err); ok {
		h.log.Error("SaludPlus rejected invoice numbering",
			"correlation_id", correlationID,
			"upstream_status", failure.UpstreamStatus(),
			"error", err,
		)
		httperrors.WriteRawJSON(w, failure.UpstreamStatus(), failure.UpstreamBody(), h.log)
		return
	}

	h.log.Error("Invoice numbering failed", "correlation_id", correlationID, "error", err)
	httperrors.WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "Internal server error"}, h.log)
}
