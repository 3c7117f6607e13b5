// Package markup recognizes the fixed set of Jira wiki tokens this pipeline
// must keep intact across a translation round trip: image and attachment
// references, color spans, code fences, table rows, and bullet prefixes.
//
// Two groups of helpers live here:
//
//   - Extract/Restore replace media markup with index-addressed placeholder
//     tokens before translation and substitute the originals back afterwards.
//
//   - The line classifier tags each line of a block with a LineKind so the
//     bilingual reconstructor can drive an explicit state machine instead of
//     ad hoc pattern tests.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// ---------------------------------------------------------------------------
// Placeholder extraction / restoration
// ---------------------------------------------------------------------------

const (
	imagePlaceholderPrefix      = "__IMAGE_PLACEHOLDER_"
	attachmentPlaceholderPrefix = "__ATTACHMENT_PLACEHOLDER_"
	placeholderSuffix           = "__"
)

var (
	// imageToken matches !file.png!, !file.png|thumbnail!, !file.png|width=300!.
	imageToken = regexp.MustCompile(`!([^!]+?)(?:\|[^!]*)?!`)
	// attachmentToken matches [^attachment.pdf].
	attachmentToken = regexp.MustCompile(`\[\^([^\]]+?)\]`)
)

// Extract pulls image and attachment markup out of text, replacing each
// occurrence with an index-addressed placeholder. The returned slice holds
// the original markup strings in placeholder-index order: images first
// (left to right), then attachments. Restore performs the exact inverse.
func Extract(text string) ([]string, string) {
	if text == "" {
		return nil, ""
	}

	var attachments []string

	text = imageToken.ReplaceAllStringFunc(text, func(m string) string {
		attachments = append(attachments, m)
		return fmt.Sprintf("%s%d%s", imagePlaceholderPrefix, len(attachments)-1, placeholderSuffix)
	})
	text = attachmentToken.ReplaceAllStringFunc(text, func(m string) string {
		attachments = append(attachments, m)
		return fmt.Sprintf("%s%d%s", attachmentPlaceholderPrefix, len(attachments)-1, placeholderSuffix)
	})

	return attachments, text
}

// Restore substitutes extracted markup back into translated text. Each index
// is tried under both placeholder families because Extract shares one list.
func Restore(text string, attachments []string) string {
	for i, m := range attachments {
		text = strings.ReplaceAll(text, fmt.Sprintf("%s%d%s", imagePlaceholderPrefix, i, placeholderSuffix), m)
		text = strings.ReplaceAll(text, fmt.Sprintf("%s%d%s", attachmentPlaceholderPrefix, i, placeholderSuffix), m)
	}
	return text
}

// ContainsPlaceholder reports whether text still carries a placeholder token.
func ContainsPlaceholder(text string) bool {
	return strings.Contains(text, imagePlaceholderPrefix) ||
		strings.Contains(text, attachmentPlaceholderPrefix)
}

// ---------------------------------------------------------------------------
// Bullet / bracket prefixes
// ---------------------------------------------------------------------------

var (
	bulletPrefix = regexp.MustCompile(`^(\s*(?:[-*#]+|\d+[.)])\s+)(.*)`)
	bulletStrip  = regexp.MustCompile(`^\s*(?:[-*#]+|\d+[.)])\s*`)
	leadingSpace = regexp.MustCompile(`^(\s*)`)
	// bracketRun matches a run of leading [Tag] blocks, e.g. "[Test] [Menu] ".
	bracketRun = regexp.MustCompile(`^(\s*(?:\[[^\]]*\]\s*)+)(.*)`)
)

// MatchBulletPrefix returns the bullet/number prefix of line (including its
// indentation and trailing space) and true when line starts a list item.
func MatchBulletPrefix(line string) (string, bool) {
	m := bulletPrefix.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StripBulletPrefix removes a leading bullet or number marker from text.
func StripBulletPrefix(text string) string {
	return strings.TrimSpace(bulletStrip.ReplaceAllString(text, ""))
}

// LeadingIndent returns the leading whitespace of line.
func LeadingIndent(line string) string {
	return leadingSpace.FindString(line)
}

// SplitBracketPrefix splits a leading run of [Tag] blocks off a summary so
// the run itself is never sent for translation.
// "[Test] [System Menu] broken editor" -> ("[Test] [System Menu] ", "broken editor").
func SplitBracketPrefix(text string) (prefix, rest string) {
	if text == "" {
		return "", ""
	}
	if m := bracketRun.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	return "", text
}

// ---------------------------------------------------------------------------
// Color spans
// ---------------------------------------------------------------------------

// TranslatedColor is the fixed span color that marks a translated line.
const TranslatedColor = "#4c9aff"

var colorSpan = regexp.MustCompile(`\{color:[^}]+\}|\{color\}`)

// StripColor removes color span tags (open and close) from line.
func StripColor(line string) string {
	return colorSpan.ReplaceAllString(line, "")
}

// HasColor reports whether line carries any color span tag.
func HasColor(line string) bool {
	return strings.Contains(line, "{color:") || strings.Contains(line, "{color}")
}

// ColorizeTranslated wraps text in the translated-line color span.
func ColorizeTranslated(text string) string {
	return "{color:" + TranslatedColor + "}" + text + "{color}"
}

// ---------------------------------------------------------------------------
// Code fences
// ---------------------------------------------------------------------------

var codeTag = regexp.MustCompile(`\{code(?::[^}]*)?\}`)

// IsFenceLine reports whether line carries a {code}, {code:lang} or
// {noformat} tag anywhere on it.
func IsFenceLine(line string) bool {
	if line == "" {
		return false
	}
	stripped := strings.TrimSpace(line)
	if strings.Contains(stripped, "{noformat}") {
		return true
	}
	return codeTag.MatchString(stripped)
}

// ScanFence advances the code-fence state machine by one line. It returns
// verbatim=true when the line must be emitted unchanged (a fence tag line or
// a line inside an open fenced region) and the updated in-fence state.
// An odd number of tags on one line toggles the state; an even number
// (open and close on the same line) leaves it unchanged.
func ScanFence(line string, inFence bool) (verbatim bool, next bool) {
	if line == "" {
		return inFence, inFence
	}
	stripped := strings.TrimSpace(line)

	if n := strings.Count(stripped, "{noformat}"); n > 0 {
		if n%2 == 1 {
			return true, !inFence
		}
		return true, inFence
	}

	if tags := codeTag.FindAllString(stripped, -1); len(tags) > 0 {
		if len(tags)%2 == 1 {
			return true, !inFence
		}
		return true, inFence
	}

	return inFence, inFence
}

// ---------------------------------------------------------------------------
// Media lines
// ---------------------------------------------------------------------------

var mediaMeta = regexp.MustCompile(`(width|height|alt)=.*!$`)

// IsMediaLine reports whether a (trimmed) line is an image/attachment
// reference, a placeholder for one, or image metadata. A bullet prefix in
// front of the media token does not disqualify the line.
func IsMediaLine(stripped string) bool {
	if stripped == "" {
		return false
	}
	for _, candidate := range []string{stripped, StripBulletPrefix(stripped)} {
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(candidate, "!") {
			return true
		}
		if strings.HasPrefix(candidate, "[^") {
			return true
		}
		if mediaMeta.MatchString(candidate) {
			return true
		}
	}
	return ContainsPlaceholder(stripped)
}

// ---------------------------------------------------------------------------
// Table rows
// ---------------------------------------------------------------------------

// IsTableRow reports whether a (trimmed) line is a table row: starts and
// ends with the pipe delimiter.
func IsTableRow(stripped string) bool {
	return len(stripped) > 1 && strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|")
}

// IsTableHeaderRow reports whether a (trimmed) table row uses the
// double-pipe header cell delimiter.
func IsTableHeaderRow(stripped string) bool {
	return strings.HasPrefix(stripped, "||")
}

// ---------------------------------------------------------------------------
// Line classification
// ---------------------------------------------------------------------------

// LineKind tags a line of a block for the reconstruction state machine.
type LineKind int

const (
	// KindPlain is translatable free text.
	KindPlain LineKind = iota
	// KindBlank is an empty (whitespace-only) line.
	KindBlank
	// KindMedia is an image/attachment reference line.
	KindMedia
	// KindHeader is a recognized section header line.
	KindHeader
	// KindTableRow is a |cell|cell| table line.
	KindTableRow
	// KindFence is a line carrying a code-fence tag.
	KindFence
	// KindFenceBody is a line inside an open fenced region.
	KindFenceBody
)

// Classifier tags lines while tracking code-fence state. The header test is
// injected so this package stays independent of the section label set.
type Classifier struct {
	// IsHeader reports whether a line is a section header. Nil means no
	// line is ever classified as a header.
	IsHeader func(line string) bool

	inFence bool
}

// Classify tags one line and advances the fence state.
func (c *Classifier) Classify(line string) LineKind {
	verbatim, next := ScanFence(line, c.inFence)
	wasFence := c.inFence
	c.inFence = next
	if verbatim {
		if wasFence && !IsFenceLine(line) {
			return KindFenceBody
		}
		return KindFence
	}

	stripped := strings.TrimSpace(line)
	switch {
	case stripped == "":
		return KindBlank
	case IsTableRow(stripped):
		return KindTableRow
	case IsMediaLine(stripped):
		return KindMedia
	case c.IsHeader != nil && c.IsHeader(stripped):
		return KindHeader
	default:
		return KindPlain
	}
}

// Reset clears the fence state so the classifier can scan a new block.
func (c *Classifier) Reset() { c.inFence = false }
