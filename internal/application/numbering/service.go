package numbering

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"3tcapital/ms_saludplus_facturas/internal/core/credential"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
)

// ErrMissingInvoices is returned when idFacturas is empty.
var ErrMissingInvoices = errors.New("idFacturas es requerido")

// UnknownInstitutionError is returned for institution IDs without a credential.
type UnknownInstitutionError struct {
	InstitucionID string
	Available     []string
}

func (e *UnknownInstitutionError) Error() string {
	return "Idinstitucion inválida"
}

// Numberer performs the numbering call against SaludPlus.
type Numberer interface {
	NumberInvoices(ctx context.Context, credentialData, idFacturas, numeroFactura string) (json.RawMessage, error)
}

// Request is the inbound numbering request.
type Request struct {
	IDFacturas    string
	NumeroFactura string
	InstitucionID string
}

// Result pairs the institution name with the SaludPlus answer.
type Result struct {
	Institucion string
	Resultado   json.RawMessage
}

// Service forwards numbering requests with the credential of the institution.
type Service struct {
	store    credential.Store
	numberer Numberer
	log      *slog.Logger
}

// NewService creates the numbering service.
func NewService(store credential.Store, numberer Numberer, log *slog.Logger) *Service {
	return &Service{store: store, numberer: numberer, log: log}
}

// Number validates the request, picks the institution credential and
// forwards the call once.
func (s *Service) Number(ctx context.Context, req Request) (*Result, error) {
	ids := strings.TrimSpace(req.IDFacturas)
	if ids == "" {
		return nil, ErrMissingInvoices
	}

	institucionID := strings.TrimSpace(req.InstitucionID)
	cred, ok := s.store.Get(institucionID)
	if !ok {
		return nil, &UnknownInstitutionError{InstitucionID: institucionID, Available: s.store.IDs()}
	}

	s.log.Info("forwarding invoice numbering",
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"institucion_id", institucionID,
		"institucion", cred.Name,
		"id_facturas", ids,
	)

	resultado, err := s.numberer.NumberInvoices(ctx, cred.Data, ids, req.NumeroFactura)
	if err != nil {
		return nil, err
	}
	return &Result{Institucion: cred.Name, Resultado: resultado}, nil
}
