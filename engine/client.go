package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"jiratrans/glossary"
)

// BatchItem is one entry of the structured batch request sent to the
// translation service.
type BatchItem struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Text  string `json:"text"`
}

// Service is the translation backend the engine drives. Client implements
// it against an OpenAI-compatible API; tests supply fakes.
type Service interface {
	// TranslateBatch translates all items in one call and returns an
	// id-to-text map. A partial map is a valid success.
	TranslateBatch(ctx context.Context, items []BatchItem, systemMsg string) (map[string]string, error)
	// TranslateText translates a single text.
	TranslateText(ctx context.Context, text, systemMsg string) (string, error)
	// SelectGlossary narrows glossary candidates to the ids relevant to text.
	SelectGlossary(ctx context.Context, text string, candidates []glossary.Entry) ([]string, error)
}

// ---------------------------------------------------------------------------
// OpenAI-compatible client
// ---------------------------------------------------------------------------

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient builds a client for baseURL (e.g. https://api.openai.com/v1)
// with bearer auth.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetAuthToken(apiKey).
			SetTimeout(120 * time.Second).
			SetHeader("Content-Type", "application/json"),
		model: model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, systemMsg, userMsg string, jsonObject bool) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMsg},
			{Role: "user", Content: userMsg},
		},
	}
	if jsonObject {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion: service returned %s: %s", resp.Status(), truncate(resp.String(), 300))
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completion: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices in response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// TranslateText implements Service.
func (c *Client) TranslateText(ctx context.Context, text, systemMsg string) (string, error) {
	return c.complete(ctx, systemMsg, text, false)
}

const batchUserPreamble = "Translate the 'text' fields in the following JSON data. " +
	"Keep 'id' and 'field' unchanged. Use 'field' as context hint for tone/style.\n"

// TranslateBatch implements Service: one structured call for all items.
func (c *Client) TranslateBatch(ctx context.Context, items []BatchItem, systemMsg string) (map[string]string, error) {
	if len(items) == 0 {
		return map[string]string{}, nil
	}

	payload, err := json.Marshal(map[string][]BatchItem{"items": items})
	if err != nil {
		return nil, fmt.Errorf("encode batch payload: %w", err)
	}

	content, err := c.complete(ctx, systemMsg, batchUserPreamble+string(payload), true)
	if err != nil {
		return nil, err
	}
	return ParseBatchResponse(content)
}

// SelectGlossary implements Service using the structured selector prompt.
func (c *Client) SelectGlossary(ctx context.Context, text string, candidates []glossary.Entry) ([]string, error) {
	var lines []string
	for i, e := range candidates {
		line := fmt.Sprintf("%d. id=%s | en=%s | ko=%s", i+1, e.ID, e.En, e.Ko)
		if e.Note != "" {
			line += " | note: " + e.Note
		}
		if e.Category != "" {
			line += " | category: " + e.Category
		}
		lines = append(lines, line)
	}

	systemMsg := "You are a glossary selector. Given the following text and a list of glossary terms, " +
		"select ONLY the terms that are actually relevant to translating this specific text. " +
		"Return a JSON object with a 'selected_ids' field containing ONLY glossary ids to keep."
	userMsg := "TEXT:\n" + text + "\n\nGLOSSARY TERMS:\n" + strings.Join(lines, "\n")

	content, err := c.complete(ctx, systemMsg, userMsg, true)
	if err != nil {
		return nil, err
	}

	var selection struct {
		SelectedIDs []string `json:"selected_ids"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &selection); err != nil {
		return nil, fmt.Errorf("parse glossary selection: %w", err)
	}
	return selection.SelectedIDs, nil
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSONObject strips a markdown code fence if present and narrows the
// content to the outermost {...} object.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// ParseBatchResponse parses the {"translations":[{id,translated}]} contract.
// A response with zero usable translations is an error so the retry path
// treats it the same as a transport failure.
func ParseBatchResponse(content string) (map[string]string, error) {
	var parsed struct {
		Translations []struct {
			ID         string `json:"id"`
			Translated string `json:"translated"`
		} `json:"translations"`
	}
	cleaned := extractJSONObject(content)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse batch response: %w\nResponse: %s", err, truncate(cleaned, 300))
	}

	result := make(map[string]string, len(parsed.Translations))
	for _, item := range parsed.Translations {
		translated := strings.TrimSpace(item.Translated)
		if item.ID != "" && translated != "" {
			result[item.ID] = translated
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("batch response contained no translations")
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
