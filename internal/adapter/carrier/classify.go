package carrier

import (
	"encoding/json"
	"strings"

	"carrier-rewards/internal/core/port"
)

// The upstreams report daily limits and expired sessions only as free-text
// messages, so classification is a keyword rule table. Best effort by
// nature: upstream wording may change without notice, and this file is the
// only place that needs updating when it does.

var quotaKeywords = []string{
	"limit",
	"daily",
	"quota",
	"maximum",
	"excedido",
}

var expiryKeywords = []string{
	"token",
	"expirad",
	"expired",
}

// quotaReached reports whether the response text indicates the daily
// redemption cap.
func quotaReached(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range quotaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sessionExpired reports whether the status code or response text indicates
// a rejected session token.
func sessionExpired(status int, text string) bool {
	if status == 401 || status == 403 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range expiryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// classifyFailure tags a non-2xx upstream response.
func classifyFailure(status int, text string) port.Fault {
	if sessionExpired(status, text) {
		return port.FaultSessionExpired
	}
	return port.FaultUpstreamRejected
}

// upstreamMessage extracts a human-readable message from a JSON error body,
// falling back to the raw text when the body is not JSON.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return string(body)
}
