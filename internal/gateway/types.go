package gateway

import "encoding/json"

// APIResponse is the Bot API response envelope. Failures travel through
// this struct as data so batch loops can keep progressing item by item.
type APIResponse struct {
	OK          bool                `json:"ok"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
	Result      json.RawMessage     `json:"result,omitempty"`
}

// ResponseParameters carries the flood-control hints the provider
// attaches to throttled responses.
type ResponseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// Flooded reports whether the response is a flood-control signal.
func (r *APIResponse) Flooded() bool {
	return r != nil && r.ErrorCode == 429
}

// RetryAfterSeconds returns the provider-mandated cooldown, defaulting
// to one second when absent or malformed.
func (r *APIResponse) RetryAfterSeconds() int {
	if r != nil && r.Parameters != nil && r.Parameters.RetryAfter > 0 {
		return r.Parameters.RetryAfter
	}
	return 1
}
