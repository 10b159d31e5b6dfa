package service

import (
	"errors"
	"net/http"
	"testing"

	"api-proxy-go/internal/model"
)

func TestClassify_Success(t *testing.T) {
	res := Classify(&model.Success{Response: model.UpstreamResponse{
		Status:     http.StatusTeapot,
		StatusText: "I'm a teapot",
		Header:     http.Header{"Content-Type": {"text/plain"}, "X-Multi": {"a", "b"}},
		Body:       model.TextBody("short and stout"),
	}})

	if res.Status != http.StatusTeapot {
		t.Errorf("Status = %d, want %d", res.Status, http.StatusTeapot)
	}
	body, ok := res.Body.(*model.RelayResponse)
	if !ok {
		t.Fatalf("Body = %T, want *model.RelayResponse", res.Body)
	}
	if body.StatusText != "I'm a teapot" {
		t.Errorf("StatusText = %q", body.StatusText)
	}
	if body.Headers["x-multi"] != "a, b" {
		t.Errorf("headers[x-multi] = %q, want %q", body.Headers["x-multi"], "a, b")
	}
	if body.Raw == nil || *body.Raw != "short and stout" {
		t.Errorf("Raw = %v", body.Raw)
	}
	if body.JSON != nil {
		t.Errorf("JSON = %q, want nil", *body.JSON)
	}
}

func TestClassify_UpstreamError(t *testing.T) {
	res := Classify(&model.UpstreamError{
		Response: model.UpstreamResponse{
			Status:     http.StatusFound,
			StatusText: "Found",
			Header:     http.Header{"Location": {"/loop"}},
		},
		Err: errors.New("stopped after 10 redirects"),
	})

	if res.Status != http.StatusFound {
		t.Errorf("Status = %d, want %d", res.Status, http.StatusFound)
	}
	env, ok := res.Body.(*model.ErrorEnvelope)
	if !ok {
		t.Fatalf("Body = %T, want *model.ErrorEnvelope", res.Body)
	}
	if env.Error != msgUpstreamError {
		t.Errorf("Error = %q, want %q", env.Error, msgUpstreamError)
	}
	if env.Status != http.StatusFound || env.StatusText != "Found" {
		t.Errorf("Status/StatusText = %d/%q", env.Status, env.StatusText)
	}
	if env.Headers["location"] != "/loop" {
		t.Errorf("headers[location] = %q", env.Headers["location"])
	}
	if env.Body != nil {
		t.Errorf("Body = %v, want nil for absent body", env.Body)
	}
	if env.Details != "stopped after 10 redirects" {
		t.Errorf("Details = %v", env.Details)
	}
}

func TestClassify_NoResponse(t *testing.T) {
	res := Classify(&model.NoResponse{Err: errors.New("context deadline exceeded")})

	if res.Status != http.StatusGatewayTimeout {
		t.Errorf("Status = %d, want %d", res.Status, http.StatusGatewayTimeout)
	}
	env := res.Body.(*model.ErrorEnvelope)
	if env.Error != msgNoResponse {
		t.Errorf("Error = %q, want %q", env.Error, msgNoResponse)
	}
	if env.Details != "context deadline exceeded" {
		t.Errorf("Details = %v", env.Details)
	}
}

func TestClassify_Failure(t *testing.T) {
	tests := []struct {
		name        string
		outcome     model.UpstreamOutcome
		wantDetails string
	}{
		{"with error", &model.Failure{Err: errors.New(`unsupported protocol scheme "ftp"`)}, `unsupported protocol scheme "ftp"`},
		{"nil error", &model.Failure{}, msgUnknownError},
		{"empty message", &model.Failure{Err: errors.New("")}, msgUnknownError},
		{"nil outcome", nil, msgUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Classify(tt.outcome)
			if res.Status != http.StatusInternalServerError {
				t.Errorf("Status = %d, want 500", res.Status)
			}
			env := res.Body.(*model.ErrorEnvelope)
			if env.Error != msgProxyFailed {
				t.Errorf("Error = %q, want %q", env.Error, msgProxyFailed)
			}
			if env.Details != tt.wantDetails {
				t.Errorf("Details = %v, want %q", env.Details, tt.wantDetails)
			}
		})
	}
}

func TestFormatBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        model.Body
		wantJSON    *string
		wantRaw     *string
		wantHTML    *string
	}{
		{
			name:     "object pretty printed",
			body:     model.StructuredBody([]byte(`{"a":1,"b":[true,null]}`)),
			wantJSON: ptr("{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}"),
			wantRaw:  ptr("{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}"),
		},
		{
			name:     "empty array",
			body:     model.StructuredBody([]byte(`[]`)),
			wantJSON: ptr("[]"),
			wantRaw:  ptr("[]"),
		},
		{
			name:    "plain text",
			body:    model.TextBody("hello"),
			wantRaw: ptr("hello"),
		},
		{
			name:        "html by content type",
			contentType: "text/html; charset=utf-8",
			body:        model.TextBody("<p>hi</p>"),
			wantRaw:     ptr("<p>hi</p>"),
			wantHTML:    ptr("<p>hi</p>"),
		},
		{
			name:        "html by doctype",
			contentType: "text/plain",
			body:        model.TextBody("  <!DOCTYPE html><html></html>"),
			wantRaw:     ptr("  <!DOCTYPE html><html></html>"),
			wantHTML:    ptr("  <!DOCTYPE html><html></html>"),
		},
		{
			name:        "json content type with text body",
			contentType: "application/json",
			body:        model.TextBody(`"just a string"`),
			wantRaw:     ptr(`"just a string"`),
		},
		{
			name:    "invalid utf-8 bytes",
			body:    model.BytesBody([]byte{'o', 'k', 0xff}),
			wantRaw: ptr("ok\uFFFD"),
		},
		{
			name: "absent",
			body: model.Body{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotJSON, gotRaw, gotHTML := FormatBody(tt.contentType, tt.body)
			assertStrPtr(t, "json", gotJSON, tt.wantJSON)
			assertStrPtr(t, "raw", gotRaw, tt.wantRaw)
			assertStrPtr(t, "html", gotHTML, tt.wantHTML)
		})
	}
}

func ptr(s string) *string { return &s }

func assertStrPtr(t *testing.T, field string, got, want *string) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil:
		t.Errorf("%s = nil, want %q", field, *want)
	case want == nil:
		t.Errorf("%s = %q, want nil", field, *got)
	case *got != *want:
		t.Errorf("%s = %q, want %q", field, *got, *want)
	}
}
