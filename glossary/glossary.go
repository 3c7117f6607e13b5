// Package glossary loads project terminology files and narrows them to the
// entries relevant to a given text before they are handed to the prompt
// builder.
//
// Narrowing runs in two stages. Stage 1 is lexical: word-boundary matching
// for English forms and for short Korean tokens, substring containment for
// longer Korean tokens (particles attach without a delimiter, so boundary
// matching would miss most real occurrences). Stage 2 asks the translation
// service to pick the truly relevant entries, but only when stage 1 leaves
// more candidates than FilterThreshold; it fails open to the full stage-1
// set on any error.
package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// FilterThreshold is the stage-1 candidate count above which the LLM
// refinement pass runs. At or below it, stage 2 is skipped to avoid a
// pointless API round trip.
const FilterThreshold = 30

// Entry is one glossary term pair with optional aliases and a
// disambiguation note.
type Entry struct {
	ID        string   `json:"id"`
	En        string   `json:"en"`
	Ko        string   `json:"ko"`
	Note      string   `json:"note,omitempty"`
	Category  string   `json:"category,omitempty"`
	AliasesEn []string `json:"aliases_en,omitempty"`
	AliasesKo []string `json:"aliases_ko,omitempty"`
}

// Glossary is a loaded, read-only terminology set.
type Glossary struct {
	Name    string
	Entries []Entry
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Three accepted file shapes, tried in order.
type glossaryFile struct {
	Entries []rawEntry            `json:"entries"`
	Terms   map[string]string     `json:"terms"`
	Grouped map[string][]rawEntry `json:"glossary"`
}

type rawEntry struct {
	ID        string   `json:"id"`
	En        string   `json:"en"`
	Ko        string   `json:"ko"`
	Note      string   `json:"note"`
	Category  string   `json:"category"`
	AliasesEn []string `json:"aliases_en"`
	AliasesKo []string `json:"aliases_ko"`
}

var trailingParen = regexp.MustCompile(`\s*\(([^)]*)\)\s*$`)

// splitValueNote splits a flat-format value "한글 (disambiguation)" into the
// Korean term and its note.
func splitValueNote(value string) (ko, note string) {
	value = strings.TrimSpace(value)
	if m := trailingParen.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(trailingParen.ReplaceAllString(value, "")), strings.TrimSpace(m[1])
	}
	return value, ""
}

// baseEnglish strips a trailing parenthetical qualifier from a flat-format
// key: "Save (button)" -> "Save".
func baseEnglish(key string) string {
	return strings.TrimSpace(trailingParen.ReplaceAllString(strings.TrimSpace(key), ""))
}

func normalizeAliases(values []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range values {
		alias := strings.TrimSpace(raw)
		if alias == "" {
			continue
		}
		key := strings.ToLower(alias)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, alias)
	}
	return out
}

// uniqueID disambiguates duplicate ids with a numeric suffix so every entry
// stays addressable by the stage-2 selector.
func uniqueID(base string, used map[string]struct{}) string {
	if _, taken := used[base]; !taken {
		used[base] = struct{}{}
		return base
	}
	for suffix := 2; ; suffix++ {
		candidate := fmt.Sprintf("%s__%d", base, suffix)
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}
}

// Load reads a glossary file in any of the three accepted shapes. A missing
// file is not an error: translation proceeds without terminology guidance.
func Load(path, name string) (*Glossary, error) {
	g := &Glossary{Name: name}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("read glossary %s: %w", path, err)
	}

	var file glossaryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", path, err)
	}

	used := make(map[string]struct{})

	switch {
	case file.Entries != nil:
		for _, raw := range file.Entries {
			en := strings.TrimSpace(raw.En)
			ko := strings.TrimSpace(raw.Ko)
			if en == "" || ko == "" {
				continue
			}
			base := strings.TrimSpace(raw.ID)
			if base == "" {
				base = en
			}
			g.Entries = append(g.Entries, Entry{
				ID:        uniqueID(base, used),
				En:        en,
				Ko:        ko,
				Note:      strings.TrimSpace(raw.Note),
				Category:  strings.TrimSpace(raw.Category),
				AliasesEn: normalizeAliases(raw.AliasesEn),
				AliasesKo: normalizeAliases(raw.AliasesKo),
			})
		}

	case file.Terms != nil:
		for key, value := range file.Terms {
			id := strings.TrimSpace(key)
			if id == "" {
				continue
			}
			en := baseEnglish(id)
			ko, note := splitValueNote(value)
			if en == "" || ko == "" {
				continue
			}
			g.Entries = append(g.Entries, Entry{
				ID:   uniqueID(id, used),
				En:   en,
				Ko:   ko,
				Note: note,
			})
		}

	case file.Grouped != nil:
		for category, list := range file.Grouped {
			for _, raw := range list {
				en := strings.TrimSpace(raw.En)
				ko := strings.TrimSpace(raw.Ko)
				if en == "" || ko == "" {
					continue
				}
				g.Entries = append(g.Entries, Entry{
					ID:        uniqueID(en, used),
					En:        en,
					Ko:        ko,
					Note:      strings.TrimSpace(raw.Note),
					Category:  strings.TrimSpace(category),
					AliasesEn: normalizeAliases(raw.AliasesEn),
					AliasesKo: normalizeAliases(raw.AliasesKo),
				})
			}
		}
	}

	return g, nil
}

// ---------------------------------------------------------------------------
// Stage 1: lexical candidate matching
// ---------------------------------------------------------------------------

func isHangul(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

// containsEnglishForm tests for a true word-boundary occurrence of form, so
// "key" never fires inside "monkey".
func containsEnglishForm(text, form string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(form) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// containsKoreanForm tests for an occurrence of a Korean form. Short tokens
// (two runes or fewer) require non-Hangul neighbors on both sides; longer
// tokens use plain containment because particles attach directly.
func containsKoreanForm(text, form string) bool {
	if form == "" {
		return false
	}
	if len([]rune(form)) > 2 {
		return strings.Contains(text, form)
	}

	runes := []rune(text)
	formRunes := []rune(form)
	for i := 0; i+len(formRunes) <= len(runes); i++ {
		if string(runes[i:i+len(formRunes)]) != form {
			continue
		}
		if i > 0 && isHangul(runes[i-1]) {
			continue
		}
		if after := i + len(formRunes); after < len(runes) && isHangul(runes[after]) {
			continue
		}
		return true
	}
	return false
}

func matchesEntry(text string, e Entry) bool {
	for _, form := range append([]string{e.En}, e.AliasesEn...) {
		if form != "" && containsEnglishForm(text, form) {
			return true
		}
	}
	for _, form := range append([]string{e.Ko}, e.AliasesKo...) {
		if containsKoreanForm(text, form) {
			return true
		}
	}
	return false
}

// Candidates returns the entries whose English or Korean forms occur in any
// of texts. Matching is direction-agnostic: an entry qualifies when either
// side appears, and the active direction only affects how the instruction is
// rendered later.
func (g *Glossary) Candidates(texts []string) []Entry {
	if g == nil || len(g.Entries) == 0 {
		return nil
	}
	combined := strings.Join(texts, "\n")
	if strings.TrimSpace(combined) == "" {
		return nil
	}

	var out []Entry
	for _, e := range g.Entries {
		if matchesEntry(combined, e) {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Stage 2: LLM refinement
// ---------------------------------------------------------------------------

// Selector narrows a candidate list to the entries relevant to text. The
// engine's translation client implements it; tests supply fakes.
type Selector interface {
	SelectGlossaryIDs(text string, candidates []Entry) ([]string, error)
}

// Filter applies the stage-2 refinement when candidates exceed
// FilterThreshold. Errors and unknown ids fail open: the full candidate set
// is returned rather than losing terminology guidance. warnf receives a
// human-readable notice when the fallback triggers; it may be nil.
func Filter(candidates []Entry, text string, selector Selector, warnf func(format string, args ...any)) []Entry {
	if len(candidates) <= FilterThreshold || selector == nil {
		return candidates
	}

	ids, err := selector.SelectGlossaryIDs(text, candidates)
	if err != nil {
		if warnf != nil {
			warnf("glossary refinement failed, keeping all %d candidates: %v", len(candidates), err)
		}
		return candidates
	}

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	var out []Entry
	for _, e := range candidates {
		if _, ok := keep[e.ID]; ok {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}

// ---------------------------------------------------------------------------
// Instruction rendering
// ---------------------------------------------------------------------------

// Instruction renders entries as "source-form | target-form | note" lines
// oriented to the translation direction given by koToEn. An empty entry set
// renders as the empty string.
func Instruction(name string, entries []Entry, koToEn bool) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	title := name
	if title == "" {
		title = "project"
	}
	fmt.Fprintf(&b, "Use the following %s terminology (source term | required translation | note):\n", title)
	for _, e := range entries {
		source, target := e.Ko, e.En
		if !koToEn {
			source, target = e.En, e.Ko
		}
		line := source + " | " + target
		if e.Note != "" {
			line += " | note: " + e.Note
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
