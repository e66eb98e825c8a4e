package emission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_saludplus_facturas/internal/adapters/saludplus"
	appemission "3tcapital/ms_saludplus_facturas/internal/application/emission"
	"3tcapital/ms_saludplus_facturas/internal/testutil"
)

const path = "/api/v1/facturas/cambiar-fecha-emision"

type forwardCall struct {
	idFacturas, fechaEmision, cookie string
}

type forwarderFunc func(ctx context.Context, idFacturas, fechaEmision, cookie string) (json.RawMessage, error)

func (f forwarderFunc) ChangeIssueDate(ctx context.Context, idFacturas, fechaEmision, cookie string) (json.RawMessage, error) {
	return f(ctx, idFacturas, fechaEmision, cookie)
}

func newHandler(calls *[]forwardCall, result json.RawMessage, err error) *Handler {
	forwarder := forwarderFunc(func(_ context.Context, id, fecha, cookie string) (json.RawMessage, error) {
		*calls = append(*calls, forwardCall{id, fecha, cookie})
		return result, err
	})
	log := testutil.NewNullLogger()
	return NewHandler(appemission.NewService(forwarder, "fallback=1", log), log)
}

func TestChangeIssueDate_Form(t *testing.T) {
	var calls []forwardCall
	h := newHandler(&calls, json.RawMessage(`{"valorRetorno":1}`), nil)

	req := testutil.CreateFormRequest(http.MethodPost, path,
		url.Values{"idFactura": {"123"}, "fechaEmision": {"3/7/2024"}},
		map[string]string{"Cookie": "ASP.NET_SessionId=abc"})
	w := httptest.NewRecorder()
	h.ChangeIssueDate(w, req)

	var resp SuccessResponse
	testutil.ReadJSON(t, w, http.StatusOK, &resp)
	assert.True(t, resp.OK)
	assert.JSONEq(t, `{"valorRetorno":1}`, string(resp.Data))
	assert.Equal(t, Debug{FechaRecibida: "3/7/2024", FechaEnviada: "07/03/2024"}, resp.Debug)

	require.Len(t, calls, 1)
	assert.Equal(t, forwardCall{"123", "07/03/2024", "ASP.NET_SessionId=abc"}, calls[0])
}

func TestChangeIssueDate_JSONUsesFallbackCookie(t *testing.T) {
	var calls []forwardCall
	h := newHandler(&calls, json.RawMessage(`true`), nil)

	req := testutil.CreateRequest(http.MethodPost, path,
		map[string]any{"idFactura": 456, "fechaEmision": "12/31/2023"}, nil)
	w := httptest.NewRecorder()
	h.ChangeIssueDate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, calls, 1)
	assert.Equal(t, forwardCall{"456", "31/12/2023", "fallback=1"}, calls[0])
}

func TestChangeIssueDate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing id", url.Values{"fechaEmision": {"01/02/2024"}}},
		{"missing date", url.Values{"idFactura": {"1"}}},
		{"bad date", url.Values{"idFactura": {"1"}, "fechaEmision": {"13/01/2024"}}},
		{"two parts", url.Values{"idFactura": {"1"}, "fechaEmision": {"01/2024"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []forwardCall
			h := newHandler(&calls, nil, nil)
			w := httptest.NewRecorder()
			h.ChangeIssueDate(w, testutil.CreateFormRequest(http.MethodPost, path, tt.form, nil))

			var resp FailureResponse
			testutil.ReadJSON(t, w, http.StatusBadRequest, &resp)
			assert.False(t, resp.OK)
			assert.NotEmpty(t, resp.Mensaje)
			assert.Empty(t, calls)
		})
	}
}

func TestChangeIssueDate_UpstreamFailure(t *testing.T) {
	var calls []forwardCall
	upstream := &saludplus.ResponseError{Operation: "cambiarfechaEmisionAccion", StatusCode: 403, Body: []byte(`{"msg":"sesión expirada"}`)}
	h := newHandler(&calls, nil, upstream)

	w := httptest.NewRecorder()
	h.ChangeIssueDate(w, testutil.CreateFormRequest(http.MethodPost, path,
		url.Values{"idFactura": {"1"}, "fechaEmision": {"01/02/2024"}}, nil))

	var resp FailureResponse
	testutil.ReadJSON(t, w, http.StatusForbidden, &resp)
	assert.False(t, resp.OK)
	assert.JSONEq(t, `{"msg":"sesión expirada"}`, string(resp.ServerBody))
	assert.NotEmpty(t, resp.Error)
}

func TestChangeIssueDate_TransportFailure(t *testing.T) {
	var calls []forwardCall
	h := newHandler(&calls, nil, errors.New("dial tcp: timeout"))

	w := httptest.NewRecorder()
	h.ChangeIssueDate(w, testutil.CreateFormRequest(http.MethodPost, path,
		url.Values{"idFactura": {"1"}, "fechaEmision": {"01/02/2024"}}, nil))

	var resp FailureResponse
	testutil.ReadJSON(t, w, http.StatusInternalServerError, &resp)
	assert.Contains(t, resp.Error, "timeout")
}

func TestChangeIssueDate_MalformedJSON(t *testing.T) {
	var calls []forwardCall
	h := newHandler(&calls, nil, nil)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ChangeIssueDate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, calls)
}
