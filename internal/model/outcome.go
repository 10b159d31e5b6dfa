package model

import "net/http"

// UpstreamOutcome is the result of a single dispatch attempt. It is one of
// *Success, *UpstreamError, *NoResponse or *Failure.
type UpstreamOutcome interface {
	outcome()
}

// UpstreamResponse is what the target sent back.
type UpstreamResponse struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       Body
}

// Success means the target answered; any status code counts.
type Success struct {
	Response UpstreamResponse
}

// UpstreamError means the transport failed after the target had already
// answered, so a status line and headers are available.
type UpstreamError struct {
	Response UpstreamResponse
	Err      error
}

// NoResponse means the request was sent but nothing came back
// (DNS failure, connection refused, timeout, TLS failure).
type NoResponse struct {
	Err error
}

// Failure means the outbound request could not be built.
type Failure struct {
	Err error
}

func (*Success) outcome()       {}
func (*UpstreamError) outcome() {}
func (*NoResponse) outcome()    {}
func (*Failure) outcome()       {}

// OutcomeLabel returns a short, bounded name for an outcome, used for
// logging and metrics.
func OutcomeLabel(o UpstreamOutcome) string {
	switch o.(type) {
	case *Success:
		return "success"
	case *UpstreamError:
		return "upstream_error"
	case *NoResponse:
		return "no_response"
	default:
		return "failure"
	}
}
