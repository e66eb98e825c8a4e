package audit

import (
	"context"
	"encoding/json"
	"time"
)

// ProviderCall is one outbound exchange with SaludPlus, as recorded by the
// traced transport. Headers and bodies are already redacted.
type ProviderCall struct {
	ID              int64
	CorrelationID   string
	Provider        string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Failed reports whether the call errored at transport level or upstream
// answered with a non-2xx status.
func (c ProviderCall) Failed() bool {
	if c.ErrorMessage != "" || c.ResponseStatus == nil {
		return true
	}
	return *c.ResponseStatus < 200 || *c.ResponseStatus > 299
}

// Repository persists provider calls.
type Repository interface {
	Save(ctx context.Context, call ProviderCall) error
}
