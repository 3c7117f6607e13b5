package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"jiratrans/engine"
)

type fakeTranslator struct {
	issueKey string
	fields   []string
	update   bool
	result   *engine.IssueResult
	err      error
}

func (f *fakeTranslator) TranslateIssue(_ context.Context, issueKey string, fields []string, update bool) (*engine.IssueResult, error) {
	f.issueKey = issueKey
	f.fields = fields
	f.update = update
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func postTranslate(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleTranslate(t *testing.T) {
	fake := &fakeTranslator{
		result: &engine.IssueResult{
			IssueKey: "P2-1",
			Payload:  map[string]string{"summary": "원문 / Translated"},
			Skipped:  map[string]string{"description": "empty"},
		},
	}
	s := New(fake)

	rec := postTranslate(t, s, `{"issue_key":"P2-1","fields_to_translate":"summary","update":"yes"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fake.issueKey != "P2-1" {
		t.Errorf("issue key = %q", fake.issueKey)
	}
	if !reflect.DeepEqual(fake.fields, []string{"summary"}) {
		t.Errorf("fields = %v", fake.fields)
	}
	if !fake.update {
		t.Error("update flag not coerced from \"yes\"")
	}

	var resp translateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Fields["summary"] != "원문 / Translated" {
		t.Errorf("response fields = %v", resp.Fields)
	}
	if resp.Skipped["description"] != "empty" {
		t.Errorf("response skipped = %v", resp.Skipped)
	}
}

func TestHandleTranslateResolvesURL(t *testing.T) {
	fake := &fakeTranslator{result: &engine.IssueResult{IssueKey: "P2-70735"}}
	s := New(fake)

	rec := postTranslate(t, s, `{"issue_url":"https://jira.example.com/browse/P2-70735"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if fake.issueKey != "P2-70735" {
		t.Errorf("issue key = %q", fake.issueKey)
	}
}

func TestHandleTranslateBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no key or url", `{}`},
		{"invalid field name", `{"issue_key":"P2-1","fields_to_translate":"assignee"}`},
		{"broken json", `{"issue_key":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeTranslator{result: &engine.IssueResult{}})
			rec := postTranslate(t, s, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleTranslateErrorsAreServerErrors(t *testing.T) {
	s := New(&fakeTranslator{err: errors.New("jira unavailable")})
	rec := postTranslate(t, s, `{"issue_key":"P2-1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleTranslateMethodNotAllowed(t *testing.T) {
	s := New(&fakeTranslator{})
	req := httptest.NewRequest(http.MethodGet, "/translate", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"nil", nil, false},
		{"number one", float64(1), true},
		{"number zero", float64(0), false},
		{"yes", "yes", true},
		{"on", "on", true},
		{"TRUE", "TRUE", true},
		{"off", "off", false},
		{"empty string", "", false},
		{"garbage", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceBool(tt.value); got != tt.want {
				t.Errorf("CoerceBool(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"empty string", "   ", nil, false},
		{"single", "summary", []string{"summary"}, false},
		{"csv", "summary, description", []string{"summary", "description"}, false},
		{"json array string", `["summary","customfield_10237"]`, []string{"summary", "customfield_10237"}, false},
		{"real array", []any{"description", "summary"}, []string{"description", "summary"}, false},
		{"dedupe keeps order", "description,summary,description", []string{"description", "summary"}, false},
		{"invalid field", "assignee", nil, true},
		{"invalid custom field", "customfield_x", nil, true},
		{"unsupported type", map[string]any{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeFields(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeFields(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
