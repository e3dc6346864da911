package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHTTPSink_Submit(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantFlat   string
		wantFields map[string]string
	}{
		{
			name:   "created",
			status: http.StatusCreated,
		},
		{
			name:     "flat string rejection",
			status:   http.StatusBadRequest,
			body:     `"model already exists"`,
			wantErr:  true,
			wantFlat: "model already exists",
		},
		{
			name:     "plain text rejection",
			status:   http.StatusInternalServerError,
			body:     "backend unavailable",
			wantErr:  true,
			wantFlat: "backend unavailable",
		},
		{
			name:    "structured rejection",
			status:  http.StatusUnprocessableEntity,
			body:    `{"name": "duplicate", "fields": [{"name": "reserved"}]}`,
			wantErr: true,
			wantFields: map[string]string{
				"name":          "duplicate",
				"fields.0.name": "reserved",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotMethod, gotPath string
			var gotBody map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			sink := NewHTTPSink(server.URL)
			err := sink.Submit(context.Background(), "/models/customer", MethodCreate, map[string]any{"name": "customer"})

			if gotMethod != http.MethodPost || gotPath != "/models/customer" {
				t.Fatalf("request was %s %s", gotMethod, gotPath)
			}
			if gotBody["name"] != "customer" {
				t.Fatalf("document body mismatch: %v", gotBody)
			}

			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var rejection *Error
			if !errors.As(err, &rejection) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if rejection.Message != tc.wantFlat {
				t.Fatalf("flat message = %q, want %q", rejection.Message, tc.wantFlat)
			}
			if tc.wantFields != nil {
				if diff := cmp.Diff(tc.wantFields, rejection.Fields); diff != "" {
					t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestHTTPSink_UpdateUsesPut(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL)
	if err := sink.Submit(context.Background(), "/models/customer", MethodUpdate, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %q", gotMethod)
	}
}

func TestFieldErrors_NestedWalk(t *testing.T) {
	payload := map[string]any{
		"name": "duplicate",
		"relations": map[string]any{
			"owner": "unknown model",
		},
		"fields": []any{
			map[string]any{"name": "reserved"},
			"broken",
		},
	}
	want := map[string]string{
		"name":            "duplicate",
		"relations.owner": "unknown model",
		"fields.0.name":   "reserved",
		"fields.1":        "broken",
	}
	if diff := cmp.Diff(want, FieldErrors(payload)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
