package emission

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
)

// ErrMissingFields is returned when idFactura or fechaEmision is empty.
var ErrMissingFields = errors.New("idFactura y fechaEmision son requeridos")

// Forwarder sends the reformatted date to SaludPlus.
type Forwarder interface {
	ChangeIssueDate(ctx context.Context, idFacturas, fechaEmision, cookie string) (json.RawMessage, error)
}

// Request is the inbound date change.
type Request struct {
	IDFactura    string
	FechaEmision string
	// Cookie is the caller session. Empty means the configured fallback.
	Cookie string
}

// Result echoes what was received and sent alongside the SaludPlus answer.
type Result struct {
	Data          json.RawMessage
	FechaRecibida string
	FechaEnviada  string
}

// Service reformats issue dates and forwards them to SaludPlus.
type Service struct {
	forwarder      Forwarder
	fallbackCookie string
	log            *slog.Logger
}

// NewService creates the date change service. fallbackCookie is used when
// the caller does not send its own session cookie.
func NewService(forwarder Forwarder, fallbackCookie string, log *slog.Logger) *Service {
	return &Service{
		forwarder:      forwarder,
		fallbackCookie: strings.TrimSpace(fallbackCookie),
		log:            log,
	}
}

// ChangeIssueDate validates and reformats the date, then forwards it once.
func (s *Service) ChangeIssueDate(ctx context.Context, req Request) (*Result, error) {
	id := strings.TrimSpace(req.IDFactura)
	fecha := strings.TrimSpace(req.FechaEmision)
	if id == "" || fecha == "" {
		return nil, ErrMissingFields
	}

	formatted, err := ReformatIssueDate(fecha)
	if err != nil {
		return nil, err
	}

	cookie := strings.TrimSpace(req.Cookie)
	if cookie == "" {
		cookie = s.fallbackCookie
	}

	s.log.Info("forwarding issue date change",
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"id_factura", id,
		"fecha_recibida", fecha,
		"fecha_enviada", formatted,
		"cookie_source", cookieSource(req.Cookie),
	)

	data, err := s.forwarder.ChangeIssueDate(ctx, id, formatted, cookie)
	if err != nil {
		return nil, err
	}

	return &Result{Data: data, FechaRecibida: fecha, FechaEnviada: formatted}, nil
}

func cookieSource(requestCookie string) string {
	if strings.TrimSpace(requestCookie) != "" {
		return "request"
	}
	return "config"
}
