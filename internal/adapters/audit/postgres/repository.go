package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/ms_saludplus_facturas/internal/core/audit"
)

const insertCall = `
	INSERT INTO saludplus_provider_audit (
		correlation_id, provider, operation, request_method, request_url,
		request_headers, request_body, response_status, response_headers,
		response_body, duration_ms, error_message
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// Repository stores provider calls in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates the repository. log may be nil.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Save inserts one call.
func (r *Repository) Save(ctx context.Context, call audit.ProviderCall) error {
	requestHeaders, err := marshalHeaders(call.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := marshalHeaders(call.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertCall,
		call.CorrelationID,
		call.Provider,
		call.Operation,
		call.RequestMethod,
		call.RequestURL,
		requestHeaders,
		nullableJSON(call.RequestBody),
		call.ResponseStatus,
		responseHeaders,
		nullableJSON(call.ResponseBody),
		call.DurationMs,
		call.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert provider call",
				"correlation_id", call.CorrelationID,
				"operation", call.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert provider call: %w", err)
	}

	if r.log != nil {
		attrs := []any{
			"correlation_id", call.CorrelationID,
			"operation", call.Operation,
			"response_status", call.ResponseStatus,
			"duration_ms", call.DurationMs,
		}
		if call.Failed() {
			r.log.Warn("Failed provider call saved", append(attrs, "error_message", call.ErrorMessage)...)
		} else {
			r.log.Debug("Provider call saved", attrs...)
		}
	}
	return nil
}

func marshalHeaders(h map[string]string) ([]byte, error) {
	if h == nil {
		return nil, nil
	}
	return json.Marshal(h)
}

// nullableJSON maps an empty body to SQL NULL.
func nullableJSON(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	return []byte(body)
}

var _ audit.Repository = (*Repository)(nil)
