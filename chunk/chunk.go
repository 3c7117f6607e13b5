// Package chunk turns Jira field values into translation units with
// batch-wide unique ids.
package chunk

import (
	"fmt"
	"strings"

	"jiratrans/markup"
	"jiratrans/section"
)

// Kind says how the orchestrator and reconstructor treat a chunk.
type Kind int

const (
	// Translatable chunks are sent to the translation service.
	Translatable Kind = iota
	// PassThrough chunks keep their original text untouched (skip-labeled
	// sections such as a QA environment block).
	PassThrough
)

func (k Kind) String() string {
	if k == PassThrough {
		return "pass-through"
	}
	return "translatable"
}

// Chunk is one unit of translation work. CleanText is OriginalText with
// media markup swapped for placeholders; Attachments holds the originals for
// restoration after translation.
type Chunk struct {
	ID           string
	Field        string
	Kind         Kind
	OriginalText string
	CleanText    string
	Attachments  []string
	Header       string
}

// New builds a chunk, extracting media markup into placeholders.
func New(id, field, originalText, header string, kind Kind) Chunk {
	attachments, clean := markup.Extract(originalText)
	return Chunk{
		ID:           id,
		Field:        field,
		Kind:         kind,
		OriginalText: originalText,
		CleanText:    clean,
		Attachments:  attachments,
		Header:       header,
	}
}

// FieldJob groups the chunks of one field together with the raw value they
// came from, which payload formatting needs again later (the bracket prefix
// stripped off a summary, for example, lives only in OriginalValue).
type FieldJob struct {
	Field         string
	OriginalValue string
	Chunks        []Chunk
}

// FieldHint maps a chunk id to the role hint sent with each batch item so
// the service can match tone per field type.
func FieldHint(id string) string {
	switch {
	case id == "summary":
		return "summary"
	case strings.HasPrefix(id, "description"):
		return "description"
	case strings.HasPrefix(id, "customfield_"):
		return "steps"
	default:
		return "other"
	}
}

// Plan maps one field value to a job. Returns nil when there is nothing to
// translate.
//
//   - summary: the leading bracket-tag run is stripped first (those tags are
//     never translated); the remainder becomes a single "summary" chunk.
//   - description: one chunk per segmented section, carrying the section
//     header and a PassThrough kind for skip-labeled sections. A description
//     with no section structure becomes one "<field>__full" chunk.
//   - anything else: one chunk under the field's own name.
func Plan(field, value string) *FieldJob {
	if value == "" {
		return nil
	}

	switch field {
	case "summary":
		_, core := markup.SplitBracketPrefix(value)
		if strings.TrimSpace(core) == "" {
			return nil
		}
		return &FieldJob{
			Field:         field,
			OriginalValue: value,
			Chunks:        []Chunk{New("summary", field, core, "", Translatable)},
		}

	case "description":
		var chunks []Chunk
		if sections := section.Segment(value); len(sections) > 0 {
			for i, sec := range sections {
				if strings.TrimSpace(sec.Content) == "" {
					continue
				}
				kind := Translatable
				if section.ShouldSkipTranslation(sec.Header) {
					kind = PassThrough
				}
				id := fmt.Sprintf("%s__section_%d", field, i)
				chunks = append(chunks, New(id, field, sec.Content, sec.Header, kind))
			}
		} else {
			chunks = append(chunks, New(field+"__full", field, value, "", Translatable))
		}
		if len(chunks) == 0 {
			return nil
		}
		return &FieldJob{Field: field, OriginalValue: value, Chunks: chunks}

	default:
		return &FieldJob{
			Field:         field,
			OriginalValue: value,
			Chunks:        []Chunk{New(field, field, value, "", Translatable)},
		}
	}
}
