package emission

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	appemission "3tcapital/ms_saludplus_facturas/internal/application/emission"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
	httperrors "3tcapital/ms_saludplus_facturas/internal/infrastructure/http"
)

const maxBodyBytes = 1 << 20

// Handler serves the issue date change endpoint.
type Handler struct {
	service *appemission.Service
	log     *slog.Logger
}

// NewHandler creates the date change handler.
func NewHandler(service *appemission.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Debug echoes the date as received and as forwarded.
type Debug struct {
	FechaRecibida string `json:"fechaRecibida"`
	FechaEnviada  string `json:"fechaEnviada"`
}

// SuccessResponse is the 200 body.
type SuccessResponse struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Debug Debug           `json:"debug"`
}

// FailureResponse is the body of every non-200 answer.
type FailureResponse struct {
	OK         bool            `json:"ok"`
	Mensaje    string          `json:"mensaje"`
	Error      string          `json:"error,omitempty"`
	ServerBody json.RawMessage `json:"serverBody,omitempty"`
}

// ChangeIssueDate handles POST /api/v1/facturas/cambiar-fecha-emision.
func (h *Handler) ChangeIssueDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.WriteJSON(w, http.StatusMethodNotAllowed, FailureResponse{Mensaje: "Método no permitido"}, h.log)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	idFactura, fechaEmision, err := readBody(r)
	if err != nil {
		httperrors.WriteJSON(w, http.StatusBadRequest, FailureResponse{
			Mensaje: "El cuerpo de la petición no es válido",
			Error:   err.Error(),
		}, h.log)
		return
	}

	result, err := h.service.ChangeIssueDate(r.Context(), appemission.Request{
		IDFactura:    idFactura,
		FechaEmision: fechaEmision,
		Cookie:       r.Header.Get("Cookie"),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	data := result.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	httperrors.WriteJSON(w, http.StatusOK, SuccessResponse{
		OK:   true,
		Data: data,
		Debug: Debug{
			FechaRecibida: result.FechaRecibida,
			FechaEnviada:  result.FechaEnviada,
		},
	}, h.log)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := ctxutil.GetCorrelationID(r.Context())

	switch {
	case errors.Is(err, appemission.ErrMissingFields), errors.Is(err, appemission.ErrInvalidDate):
		h.log.Warn("Issue date change rejected", "correlation_id", correlationID, "error", err)
		httperrors.WriteJSON(w, http.StatusBadRequest, FailureResponse{Mensaje: err.Error()}, h.log)
		return
	}

	if failure, ok := httperrors.AsUpstreamFailure(err); ok {
		h.log.Error("SaludPlus rejected issue date change",
			"correlation_id", correlationID,
			"upstream_status", failure.UpstreamStatus(),
			"error", err,
		)
		httperrors.WriteJSON(w, failure.UpstreamStatus(), FailureResponse{
			Mensaje:    "Error al cambiar la fecha de emisión",
			Error:      err.Error(),
			ServerBody: failure.UpstreamBody(),
		}, h.log)
		return
	}

	h.log.Error("Issue date change failed", "correlation_id", correlationID, "error", err)
	httperrors.WriteJSON(w, http.StatusInternalServerError, FailureResponse{
		Mensaje: "Error interno al cambiar la fecha de emisión",
		Error:   err.Error(),
	}, h.log)
}

// readBody accepts a JSON or form encoded body. Missing fields come back
// empty and are reported by the service.
func readBody(r *http.Request) (idFactura, fechaEmision string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]any
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		if err := decoder.Decode(&body); err != nil {
			return "", "", fmt.Errorf("decode json body: %w", err)
		}
		return scalar(body["idFactura"]), scalar(body["fechaEmision"]), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("parse form body: %w", err)
	}
	return r.PostForm.Get("idFactura"), r.PostForm.Get("fechaEmision"), nil
}

// scalar renders JSON strings and numbers as text. Other values count as absent.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
