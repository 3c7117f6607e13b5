// Package server exposes the translation pipeline over HTTP: one JSON POST
// endpoint accepting an issue key or URL plus optional field selection, and
// a health probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"jiratrans/engine"
	"jiratrans/jira"
)

// Translator runs one issue translation. *engine.Engine implements it.
type Translator interface {
	TranslateIssue(ctx context.Context, issueKey string, fields []string, update bool) (*engine.IssueResult, error)
}

// Server handles translation requests.
type Server struct {
	translator Translator

	OnLog   func(format string, args ...any)
	OnError func(format string, args ...any)
}

// New builds a server around a translator.
func New(translator Translator) *Server {
	return &Server{translator: translator}
}

func (s *Server) logf(format string, args ...any) {
	if s.OnLog != nil {
		s.OnLog(format, args...)
	}
}

func (s *Server) errorf(format string, args ...any) {
	if s.OnError != nil {
		s.OnError(format, args...)
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/translate", s.handleTranslate)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ---------------------------------------------------------------------------
// Translate endpoint
// ---------------------------------------------------------------------------

// translateRequest is the POST body. IssueKey wins over IssueURL when both
// are set. FieldsToTranslate and Update come in loose shapes from various
// callers, so they are normalized after decoding.
type translateRequest struct {
	IssueKey          string `json:"issue_key"`
	IssueURL          string `json:"issue_url"`
	FieldsToTranslate any    `json:"fields_to_translate"`
	Update            any    `json:"update"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type translateResponse struct {
	IssueKey string            `json:"issue_key"`
	Fields   map[string]string `json:"fields"`
	Skipped  map[string]string `json:"skipped,omitempty"`
	Updated  bool              `json:"updated"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "use POST"})
		return
	}

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	issueKey, err := resolveIssueKey(req.IssueKey, req.IssueURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	fields, err := NormalizeFields(req.FieldsToTranslate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	update := CoerceBool(req.Update)

	s.logf("translate %s (update=%v)", issueKey, update)
	result, err := s.translator.TranslateIssue(r.Context(), issueKey, fields, update)
	if err != nil {
		s.errorf("translate %s: %v", issueKey, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{
		IssueKey: result.IssueKey,
		Fields:   result.Payload,
		Skipped:  result.Skipped,
		Updated:  result.Updated,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveIssueKey(issueKey, issueURL string) (string, error) {
	if strings.TrimSpace(issueKey) != "" {
		return strings.TrimSpace(issueKey), nil
	}
	if strings.TrimSpace(issueURL) != "" {
		_, key, err := jira.ParseIssueURL(issueURL)
		if err != nil {
			return "", err
		}
		return key, nil
	}
	return "", fmt.Errorf("one of issue_key or issue_url is required")
}

// ---------------------------------------------------------------------------
// Request normalization
// ---------------------------------------------------------------------------

var customFieldPattern = regexp.MustCompile(`^customfield_\d+$`)

// CoerceBool normalizes loose external input to a bool: real booleans pass
// through, numbers mean non-zero, and strings accept the usual truthy
// spellings ("1", "true", "yes", "y", "on", "t"). Everything else is false.
func CoerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		}
		return false
	default:
		return false
	}
}

// NormalizeFields turns the loose fields_to_translate input into a validated
// field list. Accepted shapes: a JSON array, a JSON-array string
// ('["summary","description"]'), and a CSV or single-value string. Nil or
// empty input returns nil, meaning automatic field selection. Allowed field
// names are summary, description, and customfield_<digits>; anything else is
// an error. Duplicates are dropped with order preserved.
func NormalizeFields(value any) ([]string, error) {
	var fields []string

	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				fields = append(fields, s)
			}
		}
	case []string:
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				fields = append(fields, s)
			}
		}
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return nil, nil
		}
		if strings.HasPrefix(text, "[") {
			var parsed []any
			if err := json.Unmarshal([]byte(text), &parsed); err == nil {
				for _, item := range parsed {
					if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
						fields = append(fields, s)
					}
				}
				break
			}
		}
		for _, part := range strings.Split(text, ",") {
			if s := strings.TrimSpace(part); s != "" {
				fields = append(fields, s)
			}
		}
	default:
		return nil, fmt.Errorf("fields_to_translate has unsupported type %T", value)
	}

	if len(fields) == 0 {
		return nil, nil
	}

	var invalid []string
	for _, field := range fields {
		if field != "summary" && field != "description" && !customFieldPattern.MatchString(field) {
			invalid = append(invalid, field)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid fields_to_translate: %s. Allowed: summary, description, customfield_<digits>",
			strings.Join(invalid, ", "))
	}

	seen := make(map[string]struct{}, len(fields))
	deduped := fields[:0]
	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		deduped = append(deduped, field)
	}
	return deduped, nil
}
