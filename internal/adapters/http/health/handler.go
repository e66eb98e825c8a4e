package health

import (
	"log/slog"
	"net/http"

	apphealth "3tcapital/ms_saludplus_facturas/internal/application/health"
	httperrors "3tcapital/ms_saludplus_facturas/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Status always answers 200; degraded dependencies are reported in the body.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, h.service.Status(r.Context()), h.log)
}
