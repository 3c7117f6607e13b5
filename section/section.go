// Package section splits a Jira description into labeled sections so each
// can be translated as its own unit.
//
// Two header shapes are recognized: a fixed English label set ("Observed",
// "Expected Result", ...) possibly carrying a mixed-language suffix
// ("Expected/기대 결과:"), and the standalone bold-bracket label form
// "*[ko / en]*" used for custom markers like the QA environment block.
package section

import (
	"regexp"
	"strings"
)

// Labels is the fixed header label set for bug-report descriptions.
var Labels = []string{"Observed", "Expected", "Expected Result", "Note", "Notes", "Video", "Etc."}

// SkipLabels names sections whose content is passed through untranslated.
// Matched against the English side of a *[ko / en]* bracket label.
var SkipLabels = []string{"QA Environment"}

// Section is one labeled region of a description. Header keeps the original
// header line verbatim; a caller that segments text with no headers at all
// gets an empty result and treats the value as a single unsegmented block.
type Section struct {
	Header  string
	Content string
}

var (
	colorMarkup   = regexp.MustCompile(`\{color:[^}]+\}|\{color\}`)
	bracketHeader = regexp.MustCompile(`^\*\[[^\]]+\]\*\s*$`)
	bracketLabel  = regexp.MustCompile(`^\*\[([^\]]+)\]\*`)
	labelCut      = regexp.MustCompile(`[([]`)
)

// matchBracketHeader returns the trimmed line when it is a standalone
// *[label]* header.
func matchBracketHeader(stripped string) (string, bool) {
	if stripped == "" {
		return "", false
	}
	if bracketHeader.MatchString(stripped) {
		return stripped, true
	}
	return "", false
}

// MatchHeader reports whether line is a section header and returns the
// header text as it appeared (color markup removed, colon kept).
func MatchHeader(line string) (string, bool) {
	stripped := strings.TrimSpace(colorMarkup.ReplaceAllString(line, ""))

	if h, ok := matchBracketHeader(stripped); ok {
		return h, true
	}

	// Normalize for label matching only: drop the trailing colon and any
	// surrounding emphasis markers, then keep the part before a "/" or a
	// parenthetical so mixed labels like "Video/영상:" still match.
	candidate := strings.Trim(strings.TrimRight(stripped, ":"), "*_ ")
	candidate = strings.ToLower(candidate)
	if i := strings.Index(candidate, "/"); i >= 0 {
		candidate = strings.TrimSpace(candidate[:i])
	}
	if loc := labelCut.FindStringIndex(candidate); loc != nil {
		candidate = strings.TrimSpace(candidate[:loc[0]])
	}

	for _, label := range Labels {
		normalized := strings.ToLower(label)
		if candidate == normalized || strings.HasPrefix(candidate, normalized+" ") {
			return stripped, true
		}
	}
	return "", false
}

// IsHeaderLine reports whether line is a section header.
func IsHeaderLine(line string) bool {
	_, ok := MatchHeader(line)
	return ok
}

// ShouldSkipTranslation reports whether a header marks a section that must
// be passed through untranslated. For *[ko / en]* labels the English half is
// compared case-insensitively against SkipLabels; a single-part label is
// compared whole.
func ShouldSkipTranslation(header string) bool {
	if header == "" {
		return false
	}
	m := bracketLabel.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return false
	}
	label := m[1]
	english := label
	if i := strings.Index(label, "/"); i >= 0 {
		english = label[i+1:]
	}
	english = strings.ToLower(strings.TrimSpace(english))
	for _, keyword := range SkipLabels {
		if strings.Contains(english, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Segment partitions text into header-labeled sections. Lines before the
// first header are dropped; the caller treats an empty result as "this text
// has no section structure" and handles the value whole. Consecutive
// non-header lines accumulate verbatim (blank lines included) until the next
// header or end of input. Sections whose trimmed content is empty are
// excluded.
func Segment(text string) []Section {
	if text == "" {
		return nil
	}

	var sections []Section
	var header string
	var buffer []string
	seenHeader := false

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		content := strings.Trim(strings.Join(buffer, "\n"), "\n")
		buffer = buffer[:0]
		if !seenHeader || strings.TrimSpace(content) == "" {
			return
		}
		sections = append(sections, Section{Header: header, Content: content})
	}

	for _, line := range strings.Split(text, "\n") {
		if h, ok := MatchHeader(line); ok {
			flush()
			header = h
			seenHeader = true
			continue
		}
		buffer = append(buffer, line)
	}
	flush()

	return sections
}
