package saludplus

import (
	"encoding/json"
	"fmt"

	"3tcapital/ms_saludplus_facturas/internal/core/factura"
)

// ResponseError is returned when SaludPlus answers with a non-success status.
type ResponseError struct {
	Operation  string
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("saludplus %s: unexpected status code %d", e.Operation, e.StatusCode)
}

// Is lets errors.Is match the generic unusable-answer sentinel.
func (e *ResponseError) Is(target error) bool {
	return target == factura.ErrUpstreamResponse
}

// UpstreamStatus returns the HTTP status SaludPlus answered with.
func (e *ResponseError) UpstreamStatus() int {
	return e.StatusCode
}

// UpstreamBody returns the response body as JSON.
func (e *ResponseError) UpstreamBody() json.RawMessage {
	return normalizeBody(e.Body)
}

// normalizeBody returns body unchanged when it is JSON, otherwise the body
// encoded as a JSON string. An empty body becomes null.
func normalizeBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(encoded)
}
