// Package jira is a minimal Jira REST client covering what the translation
// pipeline needs: fetching issue fields (with ADF and rendered-field
// fallback), writing translated fields back, and auto-detecting the
// reproduction-steps custom field per project.
package jira

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// StepsFieldCandidates are known reproduction-steps field ids, tried in
// priority order before falling back to name-based detection.
var StepsFieldCandidates = []string{"customfield_10237", "customfield_10399"}

// Client talks to one Jira instance with basic auth.
type Client struct {
	http *resty.Client

	mu         sync.Mutex
	stepsCache map[string]string
}

// NewClient builds a client for baseURL using email/apiToken basic auth.
func NewClient(baseURL, email, apiToken string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetBasicAuth(email, apiToken).
			SetTimeout(15 * time.Second).
			SetHeader("Accept", "application/json"),
		stepsCache: make(map[string]string),
	}
}

// ---------------------------------------------------------------------------
// Issue fields
// ---------------------------------------------------------------------------

type issueResponse struct {
	Fields         map[string]any `json:"fields"`
	RenderedFields map[string]any `json:"renderedFields"`
}

// FetchFields returns the requested fields of an issue as flattened text.
// ADF documents are flattened to plain text; when a raw field value is
// empty, the rendered representation is tried as a fallback. Fields with no
// usable value are omitted from the result.
func (c *Client) FetchFields(ctx context.Context, issueKey string, fields []string) (map[string]string, error) {
	if len(fields) == 0 {
		fields = []string{"summary", "description"}
	}

	var issue issueResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", strings.Join(fields, ",")).
		SetQueryParam("expand", "renderedFields").
		SetResult(&issue).
		Get("/rest/api/2/issue/" + issueKey)
	if err != nil {
		return nil, fmt.Errorf("fetch issue %s: %w", issueKey, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch issue %s: jira returned %s", issueKey, resp.Status())
	}

	fetched := make(map[string]string)
	for _, field := range fields {
		value := NormalizeFieldValue(issue.Fields[field])
		if value == "" {
			value = NormalizeFieldValue(issue.RenderedFields[field])
		}
		if value != "" {
			fetched[field] = value
		}
	}
	return fetched, nil
}

// UpdateFields writes a field payload back to an issue. An empty payload is
// a no-op.
func (c *Client) UpdateFields(ctx context.Context, issueKey string, payload map[string]string) error {
	if len(payload) == 0 {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"fields": payload}).
		Put("/rest/api/2/issue/" + issueKey)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", issueKey, err)
	}
	if resp.IsError() {
		return fmt.Errorf("update issue %s: jira returned %s: %s", issueKey, resp.Status(), resp.String())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Steps field detection
// ---------------------------------------------------------------------------

type createMetaResponse struct {
	Projects []struct {
		IssueTypes []struct {
			Fields map[string]struct {
				Name string `json:"name"`
			} `json:"fields"`
		} `json:"issuetypes"`
	} `json:"projects"`
}

// DetectStepsField finds the reproduction-steps custom field of a project
// via the createmeta API: first a known candidate id, then any custom field
// whose name contains both "step" and "reproduce". Failures return "" and
// are never fatal; results are cached per project key.
func (c *Client) DetectStepsField(ctx context.Context, projectKey string) string {
	c.mu.Lock()
	if cached, ok := c.stepsCache[projectKey]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	detected := c.detectStepsField(ctx, projectKey)

	c.mu.Lock()
	c.stepsCache[projectKey] = detected
	c.mu.Unlock()
	return detected
}

func (c *Client) detectStepsField(ctx context.Context, projectKey string) string {
	var meta createMetaResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("projectKeys", projectKey).
		SetQueryParam("expand", "projects.issuetypes.fields").
		SetQueryParam("issuetypeNames", "버그,Bug").
		SetResult(&meta).
		Get("/rest/api/2/issue/createmeta")
	if err != nil || resp.IsError() {
		return ""
	}

	for _, proj := range meta.Projects {
		for _, issueType := range proj.IssueTypes {
			for _, candidate := range StepsFieldCandidates {
				if _, ok := issueType.Fields[candidate]; ok {
					return candidate
				}
			}
			for fieldID, field := range issueType.Fields {
				name := strings.ToLower(field.Name)
				if strings.Contains(name, "step") && strings.Contains(name, "reproduce") {
					return fieldID
				}
			}
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Field value normalization
// ---------------------------------------------------------------------------

// NormalizeFieldValue flattens a raw Jira field value to text. Strings pass
// through trimmed; ADF documents are flattened; arrays join their non-empty
// items with newlines.
func NormalizeFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		return strings.TrimSpace(flattenADF(v))
	case []any:
		var parts []string
		for _, item := range v {
			if s := NormalizeFieldValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func flattenADF(node any) string {
	switch n := node.(type) {
	case map[string]any:
		nodeType, _ := n["type"].(string)
		if nodeType == "text" {
			s, _ := n["text"].(string)
			return s
		}
		if nodeType == "hardBreak" {
			return "\n"
		}
		var b strings.Builder
		if content, ok := n["content"].([]any); ok {
			for _, child := range content {
				b.WriteString(flattenADF(child))
			}
		}
		text := b.String()
		if (nodeType == "paragraph" || nodeType == "heading") && text != "" {
			return text + "\n"
		}
		return text
	case []any:
		var b strings.Builder
		for _, child := range n {
			b.WriteString(flattenADF(child))
		}
		return b.String()
	default:
		return ""
	}
}

// ---------------------------------------------------------------------------
// Issue URL / key helpers
// ---------------------------------------------------------------------------

var issueKeyPattern = regexp.MustCompile(`(?i)[A-Z][A-Z0-9]+-\d+`)

// ParseIssueURL extracts the base URL and issue key from a ticket URL like
// https://jira.example.com/browse/PROJ-123. A key anywhere in the path is
// accepted when the /browse/ segment is absent or does not hold a valid key.
func ParseIssueURL(raw string) (baseURL, issueKey string, err error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse issue url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", "", fmt.Errorf("parse issue url: %q is not an absolute url", raw)
	}

	baseURL = parsed.Scheme + "://" + parsed.Host

	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	for i, segment := range segments {
		if segment == "browse" && i+1 < len(segments) {
			if candidate := segments[i+1]; issueKeyPattern.FindString(candidate) == candidate {
				issueKey = strings.ToUpper(candidate)
			}
			break
		}
	}
	if issueKey == "" {
		issueKey = strings.ToUpper(issueKeyPattern.FindString(parsed.Path))
	}
	if issueKey == "" {
		return "", "", fmt.Errorf("parse issue url: no issue key in %q", raw)
	}
	return baseURL, issueKey, nil
}

// ProjectKey returns the project part of an issue key: "P2-123" -> "P2".
func ProjectKey(issueKey string) string {
	if i := strings.Index(issueKey, "-"); i > 0 {
		return issueKey[:i]
	}
	return issueKey
}

// IsIssueKey reports whether s looks like a bare issue key.
func IsIssueKey(s string) bool {
	return issueKeyPattern.MatchString(s) && !strings.Contains(s, "/")
}
