package saludplus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/ratelimit"

	"3tcapital/ms_saludplus_facturas/internal/core/factura"
	ctxutil "3tcapital/ms_saludplus_facturas/internal/infrastructure/context"
)

// DefaultBaseURL is the SaludPlus billing host.
const DefaultBaseURL = "https://balance.saludplus.co"

const (
	zipInfoPath         = "/facturasAdministar/GetZipFile"
	changeIssueDatePath = "/facturasAdministar/cambiarfechaEmisionAccion"
	numberInvoicesPath  = "/facturasAdministar/Numerarfacturas"

	ajaxAccept      = "application/json, text/javascript, */*; q=0.01"
	formContentType = "application/x-www-form-urlencoded; charset=UTF-8"

	defaultNumberingTimeout = 10 * time.Second
)

// Config holds the SaludPlus client settings.
type Config struct {
	BaseURL          string
	NumberingTimeout time.Duration
	// RateLimitRPS paces outbound calls. Zero or negative disables pacing.
	RateLimitRPS int
}

// Client talks to the SaludPlus billing endpoints.
type Client struct {
	rest             *resty.Client
	baseURL          string
	numberingTimeout time.Duration
	limiter          ratelimit.Limiter
	log              *slog.Logger
}

// NewClient creates a SaludPlus client over httpClient, which carries the
// timeout and the traced transport.
func NewClient(cfg Config, httpClient *http.Client, log *slog.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	numberingTimeout := cfg.NumberingTimeout
	if numberingTimeout <= 0 {
		numberingTimeout = defaultNumberingTimeout
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.New(cfg.RateLimitRPS)
	}

	return &Client{
		rest:             resty.NewWithClient(httpClient).SetBaseURL(baseURL),
		baseURL:          baseURL,
		numberingTimeout: numberingTimeout,
		limiter:          limiter,
		log:              log,
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	c.limiter.Take()
	return c.rest.R().SetContext(ctx)
}

// ZipInfo asks SaludPlus where the invoice archive lives.
func (c *Client) ZipInfo(ctx context.Context, idFactura string) (*factura.ZipInfo, error) {
	resp, err := c.request(ctx).
		SetQueryParam("IdFactura", idFactura).
		Get(zipInfoPath)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &ResponseError{Operation: "GetZipFile", StatusCode: resp.StatusCode(), Body: resp.Body()}
	}

	var envelope struct {
		ValorRetorno json.Number `json:"valorRetorno"`
		Archivo      string      `json:"archivo"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w: %v", factura.ErrUpstreamResponse, err)
	}

	info := &factura.ZipInfo{Archivo: strings.TrimSpace(envelope.Archivo)}
	if v, err := envelope.ValorRetorno.Int64(); err == nil {
		info.ValorRetorno = int(v)
	}

	c.log.Debug("saludplus zip info received",
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"id_factura", idFactura,
		"valor_retorno", info.ValorRetorno,
		"has_archivo", info.Archivo != "",
	)
	return info, nil
}

// DownloadZip fetches the archive bytes. Relative locations are resolved
// against the base URL.
func (c *Client) DownloadZip(ctx context.Context, archiveURL string) ([]byte, error) {
	target, err := c.resolve(archiveURL)
	if err != nil {
		return nil, fmt.Errorf("invalid archive url: %w", err)
	}

	resp, err := c.request(ctx).
		SetHeader("Accept", "application/zip, application/octet-stream, */*").
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ResponseError{Operation: "DownloadZip", StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	return resp.Body(), nil
}

// ChangeIssueDate posts the new issuance date (DD/MM/YYYY) for the given
// invoices. cookie is forwarded verbatim as the session.
func (c *Client) ChangeIssueDate(ctx context.Context, idFacturas, fechaEmision, cookie string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("idFacturas", idFacturas)
	form.Set("fechaEmision", fechaEmision)

	req := c.request(ctx).
		SetHeader("Accept", ajaxAccept).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Content-Type", formContentType).
		SetBody(form.Encode())
	if cookie != "" {
		req.SetHeader("Cookie", cookie)
	}

	resp, err := req.Post(changeIssueDatePath)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ResponseError{Operation: "cambiarfechaEmisionAccion", StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	return normalizeBody(resp.Body()), nil
}

// NumberInvoices asks SaludPlus to assign numbers to the given invoices on
// behalf of the institution owning credentialData.
func (c *Client) NumberInvoices(ctx context.Context, credentialData, idFacturas, numeroFactura string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.numberingTimeout)
	defer cancel()

	resp, err := c.request(ctx).
		SetHeader("Accept", ajaxAccept).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("data", credentialData).
		SetQueryParams(map[string]string{
			"idFacturas":    idFacturas,
			"numeroFactura": numeroFactura,
		}).
		Get(numberInvoicesPath)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &ResponseError{Operation: "Numerarfacturas", StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	return normalizeBody(resp.Body()), nil
}

func (c *Client) resolve(location string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

var _ factura.ArchiveProvider = (*Client)(nil)
