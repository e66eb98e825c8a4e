package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"3tcapital/ms_saludplus_facturas/internal/core/audit"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/security"
)

// TracedTransport is an http.RoundTripper that logs every outbound call as
// provider_request / provider_response and persists an audit record.
// Binary responses (the invoice ZIPs) are streamed through untouched and only
// their declared size is recorded.
type TracedTransport struct {
	base         http.RoundTripper
	log          *slog.Logger
	auditRepo    audit.Repository
	provider     string
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int
}

// TracedTransportConfig holds configuration for the traced transport.
type TracedTransportConfig struct {
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// NewTracedTransport wraps base. A nil base uses http.DefaultTransport.
func NewTracedTransport(base http.RoundTripper, cfg TracedTransportConfig, log *slog.Logger, auditRepo audit.Repository, provider string) *TracedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}
	return &TracedTransport{
		base:         base,
		log:          log,
		auditRepo:    auditRepo,
		provider:     provider,
		auditEnabled: cfg.AuditEnabled && auditRepo != nil,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// RoundTrip executes the request with tracing.
func (t *TracedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, correlationID := ctxutil.EnsureCorrelationID(req.Context())
	operation := extractOperation(req, t.provider)
	start := time.Now()

	req = req.Clone(ctx)
	req.Header.Set("X-Correlation-ID", correlationID)

	var requestBody []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	t.logRequest(correlationID, operation, req, requestBody)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	var responseBody []byte
	if err == nil && resp.Body != nil && isTextual(resp.Header.Get("Content-Type")) {
		responseBody, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
		if err != nil {
			err = fmt.Errorf("read response body: %w", err)
		}
	}

	t.logResponse(correlationID, operation, req, resp, err, duration, responseBody)

	if t.auditEnabled {
		entry := t.buildAuditLog(correlationID, operation, req, resp, err, duration, requestBody, responseBody)
		go t.persist(entry)
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *TracedTransport) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"provider", t.provider,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}
	if t.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, t.maxBodySize)))
	}
	t.log.Info("provider_request", attrs...)
}

func (t *TracedTransport) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"provider", t.provider,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		t.log.Error("provider_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "content_type", resp.Header.Get("Content-Type"))
	if body != nil {
		attrs = append(attrs, "response_size_bytes", len(body))
	} else {
		attrs = append(attrs, "response_size_bytes", resp.ContentLength)
	}
	if t.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, t.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		t.log.Error("provider_response", attrs...)
	case resp.StatusCode >= 400:
		t.log.Warn("provider_response", attrs...)
	default:
		t.log.Info("provider_response", attrs...)
	}
}

func (t *TracedTransport) buildAuditLog(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.ProviderCall {
	entry := audit.ProviderCall{
		CorrelationID:  correlationID,
		Provider:       t.provider,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, t.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		entry.ResponseStatus = &status
		entry.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		entry.ResponseBody = security.SanitizeBody(responseBody, t.maxBodySize)
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	return entry
}

// persist runs detached from the request context so the record survives
// the end of the inbound request.
func (t *TracedTransport) persist(entry audit.ProviderCall) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("panic in audit log persistence",
				"panic", r,
				"correlation_id", entry.CorrelationID,
				"operation", entry.Operation,
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.auditRepo.Save(ctx, entry); err != nil {
		t.log.Error("failed to persist audit log",
			"error", err,
			"correlation_id", entry.CorrelationID,
			"provider", entry.Provider,
			"operation", entry.Operation,
		)
	}
}

// extractOperation names the call after the last path segment,
// e.g. "GetZipFile" or "Numerarfacturas".
func extractOperation(req *http.Request, provider string) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return strings.ToUpper(last[:1]) + last[1:]
	}
	return fmt.Sprintf("%s_%s", req.Method, provider)
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		strings.HasSuffix(mediaType, "json"),
		strings.HasSuffix(mediaType, "xml"),
		strings.HasSuffix(mediaType, "javascript"),
		mediaType == "application/x-www-form-urlencoded":
		return true
	default:
		return false
	}
}
