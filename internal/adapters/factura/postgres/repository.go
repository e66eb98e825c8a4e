// Package postgres is a reference implementation of the factura.Lookup port
// and of the legacy search handler. The real invoice sources are external
// collaborators; this adapter only needs a database laid out as:
//
//	facturas(id_factura, numero_factura, clave, numero_admision, id_admision, id_institucion)
//	instituciones(id_institucion, nit)
//
// LookupResult.NumeroFactura is left empty: the number comes from the record
// the resolver picks. The search query is not scoped to an institution
// because the search request carries only the term.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"3tcapital/ms_saludplus_facturas/internal/core/factura"
)

const (
	selectByKey = `
		SELECT f.id_factura::text, COALESCE(f.numero_factura, '')
		FROM facturas f
		WHERE f.id_institucion = $1
		  AND $2 IN (f.clave, f.numero_factura, f.numero_admision)
		ORDER BY f.id_factura DESC
	`

	selectByAdmission = `
		SELECT f.id_factura::text, COALESCE(f.numero_factura, '')
		FROM facturas f
		WHERE f.id_institucion = $1
		  AND f.id_admision = $2
		ORDER BY f.id_factura DESC
	`

	selectNIT = `
		SELECT COALESCE(nit, '')
		FROM instituciones
		WHERE id_institucion = $1
	`

	selectSearchHit = `
		SELECT f.id_factura::text, COALESCE(f.numero_admision, '')
		FROM facturas f
		WHERE f.numero_admision = $1 OR f.clave = $1
		ORDER BY f.id_factura DESC
		LIMIT 1
	`
)

// Repository implements factura.Lookup and the legacy search query over database/sql.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository creates a repository over db.
func NewRepository(db *sql.DB, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// ByKey returns the invoices of the institution matching clave as key,
// invoice number or admission number. The result is nil when nothing matches.
func (r *Repository) ByKey(ctx context.Context, institucionID int64, clave string) (*factura.LookupResult, error) {
	return r.lookup(ctx, institucionID, selectByKey, institucionID, clave)
}

// ByAdmission returns the invoices of one admission.
func (r *Repository) ByAdmission(ctx context.Context, institucionID, idAdmision int64) (*factura.LookupResult, error) {
	return r.lookup(ctx, institucionID, selectByAdmission, institucionID, idAdmision)
}

func (r *Repository) lookup(ctx context.Context, institucionID int64, query string, args ...any) (*factura.LookupResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var records []factura.DetailRecord
	for rows.Next() {
		var rec factura.DetailRecord
		if err := rows.Scan(&rec.IDFactura, &rec.NumeroFactura); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	nit, err := r.institutionNIT(ctx, institucionID)
	if err != nil {
		return nil, err
	}

	r.log.Debug("Invoice lookup matched",
		"institucion_id", institucionID,
		"candidates", len(records),
	)

	return &factura.LookupResult{
		FacturasDetalle: records,
		NitInstitucion:  nit,
	}, nil
}

func (r *Repository) institutionNIT(ctx context.Context, institucionID int64) (string, error) {
	var nit string
	err := r.db.QueryRowContext(ctx, selectNIT, institucionID).Scan(&nit)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query institution nit: %w", err)
	}
	return nit, nil
}

// FindSearchHit returns the most recent invoice whose admission number or
// key equals term. It returns nil when nothing matches.
func (r *Repository) FindSearchHit(ctx context.Context, term string) (*SearchHit, error) {
	var hit SearchHit
	err := r.db.QueryRowContext(ctx, selectSearchHit, term).Scan(&hit.IDFactura, &hit.NumeroAdmision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query search hit: %w", err)
	}
	return &hit, nil
}

var _ factura.Lookup = (*Repository)(nil)
