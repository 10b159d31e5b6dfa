package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"api-proxy-go/internal/model"
)

const (
	msgUpstreamError = "Target API returned an error"
	msgNoResponse    = "No response from target API"
	msgProxyFailed   = "Proxy request failed"
	msgUnknownError  = "Unknown error"
)

// Classify maps a dispatch outcome to the status and document written back
// to the caller. Upstream statuses are passed through unchanged.
func Classify(outcome model.UpstreamOutcome) model.RelayResult {
	switch o := outcome.(type) {
	case *model.Success:
		return model.RelayResult{
			Status: o.Response.Status,
			Body:   FormatResponse(o.Response),
		}
	case *model.UpstreamError:
		r := o.Response
		return model.RelayResult{
			Status: r.Status,
			Body: &model.ErrorEnvelope{
				Error:      msgUpstreamError,
				Status:     r.Status,
				StatusText: r.StatusText,
				Headers:    model.FlattenHeader(r.Header),
				Body:       r.Body.Value(),
				Details:    errMessage(o.Err),
			},
		}
	case *model.NoResponse:
		return model.RelayResult{
			Status: http.StatusGatewayTimeout,
			Body: &model.ErrorEnvelope{
				Error:   msgNoResponse,
				Details: errMessage(o.Err),
			},
		}
	case *model.Failure:
		return model.RelayResult{
			Status: http.StatusInternalServerError,
			Body: &model.ErrorEnvelope{
				Error:   msgProxyFailed,
				Details: errMessage(o.Err),
			},
		}
	default:
		return model.RelayResult{
			Status: http.StatusInternalServerError,
			Body: &model.ErrorEnvelope{
				Error:   msgProxyFailed,
				Details: msgUnknownError,
			},
		}
	}
}

func errMessage(err error) string {
	if err == nil || err.Error() == "" {
		return msgUnknownError
	}
	return err.Error()
}

// FormatResponse builds the normalized RelayResponse for an upstream answer.
func FormatResponse(r model.UpstreamResponse) *model.RelayResponse {
	headers := model.FlattenHeader(r.Header)
	jsonText, raw, html := FormatBody(headers["content-type"], r.Body)
	return &model.RelayResponse{
		Status:     r.Status,
		StatusText: r.StatusText,
		Headers:    headers,
		JSON:       jsonText,
		Raw:        raw,
		HTML:       html,
	}
}

// FormatBody renders a response body into its json, raw and html views.
// Objects and arrays are pretty-printed with two-space indentation and the
// same text is used for raw. Text bodies fill raw, and html as well when
// the content type or a leading doctype says the payload is HTML.
func FormatBody(contentType string, body model.Body) (jsonText, raw, html *string) {
	switch body.Kind {
	case model.BodyStructured:
		if body.IsContainer() {
			var buf bytes.Buffer
			if err := json.Indent(&buf, bytes.TrimSpace(body.JSON), "", "  "); err == nil {
				s := buf.String()
				return &s, &s, nil
			}
		}
		s := string(body.JSON)
		return nil, &s, nil
	case model.BodyText:
		s := body.Text
		if isHTML(contentType, s) {
			return nil, &s, &s
		}
		return nil, &s, nil
	case model.BodyBytes:
		s := body.Value().(string)
		return nil, &s, nil
	default:
		return nil, nil, nil
	}
}

func isHTML(contentType, text string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html") ||
		strings.HasPrefix(strings.TrimSpace(text), "<!DOCTYPE html")
}
