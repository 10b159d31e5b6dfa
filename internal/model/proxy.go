// Package model defines shared types for the relay and the ask endpoint.
package model

import (
	"net/http"
	"strings"
)

// RelayRequest describes an outbound request supplied by the caller of
// POST /api/proxy.
type RelayRequest struct {
	Method  string    `json:"method"`
	URL     string    `json:"url"`
	Headers StringMap `json:"headers,omitempty"`
	Params  Query     `json:"params,omitempty"`
	Data    Body      `json:"data"`
}

// RelayResponse is the normalized envelope returned for any upstream response.
type RelayResponse struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	JSON       *string           `json:"json"`
	Raw        *string           `json:"raw"`
	HTML       *string           `json:"html"`
}

// ErrorEnvelope is returned when the relay could not produce a RelayResponse.
type ErrorEnvelope struct {
	Error      string            `json:"error"`
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	Details    any               `json:"details,omitempty"`
}

// RelayResult is the status code and JSON document the handler writes back.
// Body holds either a *RelayResponse or an *ErrorEnvelope.
type RelayResult struct {
	Status int
	Body   any
}

// FlattenHeader converts an http.Header into a map with lower-cased names.
// Repeated values are joined with ", ".
func FlattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		out[strings.ToLower(k)] = strings.Join(vals, ", ")
	}
	return out
}
