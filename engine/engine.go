// Package engine orchestrates a full ticket translation run: planning chunks
// per field, one batched service call with retry and per-chunk repair, and
// bilingual reassembly of each field value.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"jiratrans/bilingual"
	"jiratrans/chunk"
	"jiratrans/config"
	"jiratrans/glossary"
	"jiratrans/jira"
	"jiratrans/language"
	"jiratrans/markup"
	"jiratrans/prompt"
)

// Tickets is the issue-tracker surface the engine needs. *jira.Client
// implements it.
type Tickets interface {
	FetchFields(ctx context.Context, issueKey string, fields []string) (map[string]string, error)
	UpdateFields(ctx context.Context, issueKey string, payload map[string]string) error
	DetectStepsField(ctx context.Context, projectKey string) string
}

// Options tunes a run.
type Options struct {
	// Retries is the number of extra batch attempts after the first.
	Retries int
	// TargetLanguage forces the translation direction ("en", "ko",
	// "english", BCP-47 tags). Empty means detect from the ticket text.
	TargetLanguage string

	OnLog   func(format string, args ...any)
	OnError func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o Options) errorf(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	}
}

// RunContext carries the per-run state shared by every translation call.
// It is built once per issue and never mutated afterwards.
type RunContext struct {
	Glossary  *glossary.Glossary
	Direction prompt.Direction
}

// Engine drives translation runs against a Service and a Tickets backend.
type Engine struct {
	service Service
	tickets Tickets
	cfg     *config.Config
	opts    Options
}

// New builds an engine. Options are taken as given: a zero Retries means a
// single batch attempt. The configured default lives in config.Load, so
// callers wire cfg.BatchRetries through explicitly.
func New(service Service, tickets Tickets, cfg *config.Config, opts Options) *Engine {
	return &Engine{service: service, tickets: tickets, cfg: cfg, opts: opts}
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// FieldResult is one field's before/after pair.
type FieldResult struct {
	Original  string
	Formatted string
}

// IssueResult is everything a run produced.
type IssueResult struct {
	IssueKey string
	// Fields holds the formatted bilingual value per translated field.
	Fields map[string]FieldResult
	// Skipped maps already-bilingual or empty fields to the reason they
	// were left alone.
	Skipped map[string]string
	// Payload is what was (or would be) written back to Jira.
	Payload map[string]string
	Updated bool
}

// ---------------------------------------------------------------------------
// Issue-level run
// ---------------------------------------------------------------------------

// TranslateIssue runs the whole pipeline for one issue key. An empty fields
// list means summary, description, and the project's reproduction-steps
// field. With update set, the resulting payload is written back to Jira;
// otherwise the run is a preview.
func (e *Engine) TranslateIssue(ctx context.Context, issueKey string, fields []string, update bool) (*IssueResult, error) {
	projectKey := jira.ProjectKey(issueKey)
	profile := e.cfg.Profile(projectKey)

	stepsField := e.tickets.DetectStepsField(ctx, projectKey)
	if stepsField == "" {
		stepsField = profile.StepsField
	}

	if len(fields) == 0 {
		fields = []string{"summary", "description"}
		if stepsField != "" {
			fields = append(fields, stepsField)
		}
	}

	e.opts.logf("fetching %s (fields: %s)", issueKey, strings.Join(fields, ", "))
	values, err := e.tickets.FetchFields(ctx, issueKey, fields)
	if err != nil {
		return nil, err
	}

	result := &IssueResult{
		IssueKey: issueKey,
		Fields:   make(map[string]FieldResult),
		Skipped:  make(map[string]string),
		Payload:  make(map[string]string),
	}

	// Plan jobs for fields that are present and not already bilingual.
	var jobs []*chunk.FieldJob
	var pooled []chunk.Chunk
	for _, field := range fields {
		value, ok := values[field]
		if !ok || strings.TrimSpace(value) == "" {
			result.Skipped[field] = "empty"
			continue
		}
		if reason := skipReason(field, value); reason != "" {
			result.Skipped[field] = reason
			e.opts.logf("skipping %s: %s", field, reason)
			continue
		}
		job := chunk.Plan(field, value)
		if job == nil {
			result.Skipped[field] = "nothing to translate"
			continue
		}
		jobs = append(jobs, job)
		pooled = append(pooled, job.Chunks...)
	}
	if len(jobs) == 0 {
		e.opts.logf("%s: nothing to translate", issueKey)
		return result, nil
	}

	rc := e.newRunContext(profile, pooled)
	e.opts.logf("translating %d chunk(s), direction %s", len(pooled), rc.Direction)

	translations, err := e.TranslateBatch(ctx, rc, pooled)
	if err != nil {
		// Last-resort fallback: translate every chunk individually.
		e.opts.errorf("batch translation failed, falling back to per-chunk calls: %v", err)
		translations = e.translateChunksIndividually(ctx, rc, pooled)
	}

	for _, job := range jobs {
		formatted := e.assembleField(job, translations)
		if formatted == "" {
			result.Skipped[job.Field] = "translation unavailable"
			continue
		}
		result.Fields[job.Field] = FieldResult{Original: job.OriginalValue, Formatted: formatted}
		result.Payload[job.Field] = formatted
	}

	if update && len(result.Payload) > 0 {
		if err := e.tickets.UpdateFields(ctx, issueKey, result.Payload); err != nil {
			return result, err
		}
		result.Updated = true
		e.opts.logf("updated %s (%d field(s))", issueKey, len(result.Payload))
	}
	return result, nil
}

// skipReason reports why a field needs no translation, or "" if it does.
func skipReason(field, value string) string {
	switch {
	case field == "summary":
		if language.IsBilingualSummary(value, markup.SplitBracketPrefix) {
			return "summary already bilingual"
		}
	case field == "description":
		if language.IsDescriptionTranslated(value) {
			return "description already translated"
		}
	case strings.HasPrefix(field, "customfield_"):
		if language.IsStepsBilingual(value) {
			return "steps already bilingual"
		}
	}
	return ""
}

// newRunContext loads the project glossary and resolves the direction from
// the pooled translatable text. A glossary that fails to load degrades to an
// empty one.
func (e *Engine) newRunContext(profile config.ProjectProfile, chunks []chunk.Chunk) RunContext {
	g, err := glossary.Load(filepath.Join(e.cfg.GlossaryDir, profile.GlossaryFile), profile.GlossaryName)
	if err != nil {
		e.opts.errorf("glossary %s unavailable, continuing without: %v", profile.GlossaryFile, err)
		g = &glossary.Glossary{Name: profile.GlossaryName}
	}

	var combined strings.Builder
	for _, c := range chunks {
		if c.Kind == chunk.Translatable {
			combined.WriteString(c.CleanText)
			combined.WriteString("\n")
		}
	}
	detected := language.Detect(combined.String())

	return RunContext{
		Glossary:  g,
		Direction: prompt.Resolve(detected, e.opts.TargetLanguage),
	}
}

// ---------------------------------------------------------------------------
// Batch orchestration
// ---------------------------------------------------------------------------

// TranslateBatch translates all translatable chunks in one batched call with
// bounded retries, then repairs any ids the batch response missed with
// individual calls. The last batch error is returned only when not a single
// chunk was ever translated.
func (e *Engine) TranslateBatch(ctx context.Context, rc RunContext, chunks []chunk.Chunk) (map[string]string, error) {
	var translatable []chunk.Chunk
	for _, c := range chunks {
		if c.Kind == chunk.Translatable {
			translatable = append(translatable, c)
		}
	}
	if len(translatable) == 0 {
		return map[string]string{}, nil
	}

	result := make(map[string]string)
	var lastErr error
	for attempt := 0; attempt <= e.opts.Retries; attempt++ {
		batch, err := e.translateBatchOnce(ctx, rc, translatable)
		if err == nil {
			result = batch
			break
		}
		lastErr = err
		e.opts.errorf("batch attempt %d/%d failed: %v", attempt+1, e.opts.Retries+1, err)
	}
	if len(result) == 0 && lastErr != nil {
		return nil, lastErr
	}

	var missing []chunk.Chunk
	for _, c := range translatable {
		if _, ok := result[c.ID]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		e.opts.logf("batch response missing %d chunk(s), repairing individually", len(missing))
		for _, c := range missing {
			translated, err := e.translateChunk(ctx, rc, c)
			if err != nil {
				e.opts.errorf("repair of %s failed: %v", c.ID, err)
				continue
			}
			result[c.ID] = translated
		}
	}
	return result, nil
}

func (e *Engine) translateBatchOnce(ctx context.Context, rc RunContext, chunks []chunk.Chunk) (map[string]string, error) {
	items := make([]BatchItem, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		items = append(items, BatchItem{ID: c.ID, Field: chunk.FieldHint(c.ID), Text: c.CleanText})
		texts = append(texts, c.CleanText)
	}

	instruction := e.glossaryInstruction(ctx, rc, texts)
	systemMsg := prompt.System(rc.Direction, instruction, true)
	return e.service.TranslateBatch(ctx, items, systemMsg)
}

func (e *Engine) translateChunk(ctx context.Context, rc RunContext, c chunk.Chunk) (string, error) {
	instruction := e.glossaryInstruction(ctx, rc, []string{c.CleanText})
	systemMsg := prompt.System(rc.Direction, instruction, false)
	translated, err := e.service.TranslateText(ctx, c.CleanText, systemMsg)
	if err != nil {
		return "", err
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", fmt.Errorf("empty translation for %s", c.ID)
	}
	return translated, nil
}

// translateChunksIndividually is the whole-job fallback after batch
// exhaustion. Per-chunk failures are logged and skipped.
func (e *Engine) translateChunksIndividually(ctx context.Context, rc RunContext, chunks []chunk.Chunk) map[string]string {
	result := make(map[string]string)
	for _, c := range chunks {
		if c.Kind != chunk.Translatable {
			continue
		}
		translated, err := e.translateChunk(ctx, rc, c)
		if err != nil {
			e.opts.errorf("chunk %s failed: %v", c.ID, err)
			continue
		}
		result[c.ID] = translated
	}
	return result
}

// glossaryInstruction runs the two-stage glossary pipeline: lexical
// candidate matching, then selector-based narrowing when the candidate list
// is large. Selector failures fall back to the full candidate list.
func (e *Engine) glossaryInstruction(ctx context.Context, rc RunContext, texts []string) string {
	if rc.Glossary == nil || len(rc.Glossary.Entries) == 0 {
		return ""
	}
	candidates := rc.Glossary.Candidates(texts)
	if len(candidates) == 0 {
		return ""
	}

	selector := &selectorAdapter{ctx: ctx, service: e.service}
	selected := glossary.Filter(candidates, strings.Join(texts, "\n"), selector, e.opts.errorf)
	return glossary.Instruction(rc.Glossary.Name, selected, rc.Direction == prompt.KoToEn)
}

// selectorAdapter bridges the context-free glossary.Selector interface to
// the Service call.
type selectorAdapter struct {
	ctx     context.Context
	service Service
}

func (s *selectorAdapter) SelectGlossaryIDs(text string, candidates []glossary.Entry) ([]string, error) {
	return s.service.SelectGlossary(s.ctx, text, candidates)
}

// ---------------------------------------------------------------------------
// Field assembly
// ---------------------------------------------------------------------------

// assembleField turns translated chunks back into the bilingual field value.
// Returns "" when no chunk of the job produced output.
func (e *Engine) assembleField(job *chunk.FieldJob, translations map[string]string) string {
	switch job.Field {
	case "summary":
		translated, ok := translations["summary"]
		if !ok {
			return ""
		}
		core := markup.Restore(translated, job.Chunks[0].Attachments)
		return bilingual.FormatSummary(job.OriginalValue, core)

	case "description":
		builder := &bilingual.Builder{Warnf: func(format string, args ...any) {
			e.opts.errorf(format, args...)
		}}
		// Pass-through and untranslated chunks legitimately have no
		// translated lines; the mismatch warning stays quiet for them.
		quiet := &bilingual.Builder{}

		var blocks []string
		translatedAny := false
		for _, c := range job.Chunks {
			translated := ""
			if c.Kind == chunk.Translatable {
				raw, ok := translations[c.ID]
				if ok {
					translated = markup.Restore(raw, c.Attachments)
					translatedAny = true
				}
			}
			b := builder
			if translated == "" {
				b = quiet
			}
			block := b.Reconstruct(c.OriginalText, translated, c.Header)
			if block != "" {
				blocks = append(blocks, block)
			}
		}
		if !translatedAny {
			return ""
		}
		return strings.Join(blocks, "\n\n")

	default:
		translated, ok := translations[job.Chunks[0].ID]
		if !ok {
			return ""
		}
		restored := markup.Restore(translated, job.Chunks[0].Attachments)
		return bilingual.FormatSteps(job.OriginalValue, restored)
	}
}
