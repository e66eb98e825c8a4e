package postgres

import (
	"context"
	"net/http"
	"strings"

	"3tcapital/ms_saludplus_facturas/internal/core/search"
)

// SearchHit is the body of a successful search answer.
type SearchHit struct {
	IDFactura      string `json:"idFactura"`
	NumeroAdmision string `json:"numeroAdmision"`
}

// SearchFinder finds the invoice for a search term.
type SearchFinder interface {
	FindSearchHit(ctx context.Context, term string) (*SearchHit, error)
}

type message struct {
	Mensaje string `json:"mensaje"`
}

// SearchHandler exposes finder as a legacy search handler. Query failures
// are returned as errors so the caller treats them as a rejected search.
func SearchHandler(finder SearchFinder) search.Handler {
	return func(ctx context.Context, req search.Request, res search.Responder) error {
		term := strings.TrimSpace(req.SearchTerm)
		if term == "" {
			res.Status(http.StatusBadRequest).JSON(message{Mensaje: "searchTerm es requerido"})
			return nil
		}

		hit, err := finder.FindSearchHit(ctx, term)
		if err != nil {
			return err
		}
		if hit == nil {
			res.Status(http.StatusNotFound).JSON(message{Mensaje: "Factura no encontrada"})
			return nil
		}

		res.JSON(hit)
		return nil
	}
}
