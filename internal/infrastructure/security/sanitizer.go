package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

// Headers whose values never reach logs or the audit trail. "data" carries
// the institution numbering credential.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"data":                true,
	"x-api-key":           true,
}

// Substrings that mark a JSON, form or query field as sensitive.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"credential",
	"cookie",
	"session",
}

// SanitizeHeaders returns a flat copy of headers with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody converts a request or response body into JSON suitable for
// logs and the audit table. JSON bodies are redacted field by field, form
// bodies are decoded into an object, anything else is wrapped as text or
// summarized as binary. Bodies larger than maxSize are truncated.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if !utf8.Valid(body) {
		return marshal(map[string]any{
			"_binary": true,
			"_size":   len(body),
		})
	}

	if maxSize > 0 && len(body) > maxSize {
		return marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
	}

	var data any
	if err := json.Unmarshal(body, &data); err == nil {
		return marshal(sanitizeValue(data))
	}

	if form, ok := parseForm(body); ok {
		return marshal(sanitizeForm(form))
	}

	return marshal(map[string]any{
		"_raw":    string(body),
		"_format": "text",
	})
}

// SanitizeURL redacts sensitive query parameter values.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	query := u.Query()
	changed := false
	for key := range query {
		if isSensitive(key) {
			query.Set(key, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitive(key) {
				out[key] = redactedValue
				continue
			}
			out[key] = sanitizeValue(value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = sanitizeValue(value)
		}
		return out
	default:
		return val
	}
}

// parseForm accepts only bodies that look like key=value pairs.
func parseForm(body []byte) (url.Values, bool) {
	text := string(body)
	if !strings.Contains(text, "=") || strings.ContainsAny(text, " \n<{") {
		return nil, false
	}
	form, err := url.ParseQuery(text)
	if err != nil || len(form) == 0 {
		return nil, false
	}
	return form, true
}

func sanitizeForm(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for key, values := range form {
		if isSensitive(key) {
			out[key] = redactedValue
			continue
		}
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return out
}

func marshal(v any) json.RawMessage {
	result, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return json.RawMessage(result)
}
