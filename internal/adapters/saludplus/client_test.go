package saludplus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_saludplus_facturas/internal/core/factura"
	"3tcapital/ms_saludplus_facturas/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	return NewClient(cfg, &http.Client{Timeout: 5 * time.Second}, testutil.NewNullLogger())
}

func TestClient_ZipInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, zipInfoPath, r.URL.Path)
		assert.Equal(t, "1234", r.URL.Query().Get("IdFactura"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valorRetorno":1,"archivo":" https://files.example/1234.zip "}`))
	}, Config{})

	info, err := client.ZipInfo(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, 1, info.ValorRetorno)
	assert.Equal(t, "https://files.example/1234.zip", info.Archivo)
}

func TestClient_ZipInfoFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "non 200 status",
			status: http.StatusInternalServerError,
			body:   "boom",
			wantErr: func(t *testing.T, err error) {
				var rerr *ResponseError
				require.True(t, errors.As(err, &rerr))
				assert.Equal(t, http.StatusInternalServerError, rerr.StatusCode)
				assert.True(t, errors.Is(err, factura.ErrUpstreamResponse))
			},
		},
		{
			name:   "created is not ok",
			status: http.StatusCreated,
			body:   `{"valorRetorno":1,"archivo":"x"}`,
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, factura.ErrUpstreamResponse))
			},
		},
		{
			name:   "html instead of json",
			status: http.StatusOK,
			body:   "<html>login</html>",
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, factura.ErrUpstreamResponse))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, Config{})

			_, err := client.ZipInfo(context.Background(), "1")
			require.Error(t, err)
			tt.wantErr(t, err)
		})
	}
}

func TestClient_DownloadZip(t *testing.T) {
	archive := testutil.BuildZip(map[string][]byte{"f.pdf": []byte("%PDF")})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/archivos/f.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	}, Config{})

	got, err := client.DownloadZip(context.Background(), "/archivos/f.zip")
	require.NoError(t, err)
	assert.Equal(t, archive, got)

	_, err = client.DownloadZip(context.Background(), client.baseURL+"/missing.zip")
	var rerr *ResponseError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
}

func TestClient_ChangeIssueDate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, changeIssueDatePath, r.URL.Path)
		assert.Equal(t, formContentType, r.Header.Get("Content-Type"))
		assert.Equal(t, ajaxAccept, r.Header.Get("Accept"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "ASP.NET_SessionId=abc", r.Header.Get("Cookie"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "fechaEmision=13%2F11%2F2025&idFacturas=99", string(body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valorRetorno":1}`))
	}, Config{})

	data, err := client.ChangeIssueDate(context.Background(), "99", "13/11/2025", "ASP.NET_SessionId=abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valorRetorno":1}`, string(data))
}

func TestClient_ChangeIssueDate_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Sesión expirada"))
	}, Config{})

	_, err := client.ChangeIssueDate(context.Background(), "99", "13/11/2025", "")
	var rerr *ResponseError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusForbidden, rerr.UpstreamStatus())
	assert.Equal(t, `"Sesión expirada"`, string(rerr.UpstreamBody()))
}

func TestClient_NumberInvoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, numberInvoicesPath, r.URL.Path)
		assert.Equal(t, "blob-14", r.Header.Get("data"))
		assert.Equal(t, "5,6", r.URL.Query().Get("idFacturas"))
		assert.True(t, r.URL.Query().Has("numeroFactura"))
		assert.Equal(t, "", r.URL.Query().Get("numeroFactura"))
		w.Write([]byte(`{"ok":true}`))
	}, Config{})

	data, err := client.NumberInvoices(context.Background(), "blob-14", "5,6", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestClient_NumberInvoicesTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, Config{NumberingTimeout: 30 * time.Millisecond})

	_, err := client.NumberInvoices(context.Background(), "blob", "1", "")
	require.Error(t, err)
	var rerr *ResponseError
	assert.False(t, errors.As(err, &rerr), "a timeout has no upstream response")
}

func TestClient_RateLimitedCallsStillSucceed(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"valorRetorno":1,"archivo":"a"}`))
	}, Config{RateLimitRPS: 100})

	for i := 0; i < 3; i++ {
		_, err := client.ZipInfo(context.Background(), "1")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, json.RawMessage("null"), normalizeBody(nil))
	assert.Equal(t, json.RawMessage(`{"a":1}`), normalizeBody([]byte(`{"a":1}`)))
	assert.Equal(t, json.RawMessage(`"texto"`), normalizeBody([]byte("texto")))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://balance.saludplus.co/"}, &http.Client{}, testutil.NewNullLogger())
	assert.Equal(t, "https://balance.saludplus.co", client.baseURL)
	assert.Equal(t, defaultNumberingTimeout, client.numberingTimeout)
}
