// Package language detects whether Jira field text is Korean or English and
// decides when a field is already bilingual, which makes a second translation
// pass a no-op.
//
// Detection is heuristic and tuned for bug-report prose: Korean particles and
// sentence endings are near-certain Korean signals even when the text is full
// of English product names, so they outrank raw character counts.
package language

import (
	"regexp"
	"strings"
)

// Lang is a detected language code.
type Lang string

const (
	Korean  Lang = "ko"
	English Lang = "en"
	Unknown Lang = "unknown"
)

// ---------------------------------------------------------------------------
// Detection patterns
// ---------------------------------------------------------------------------

var hangulChar = regexp.MustCompile(`[\x{ac00}-\x{d7a3}]`)
var latinChar = regexp.MustCompile(`[A-Za-z]`)

// Particles attach either to Hangul or to Latin product names ("Tab으로").
var koreanParticlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}][이가](?:\s|$|[^\x{ac00}-\x{d7a3}])`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}][을를](?:\s|$|[^\x{ac00}-\x{d7a3}])`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}][은는](?:\s|$|[^\x{ac00}-\x{d7a3}])`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}]에서(?:\s|$)`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}]에(?:\s|$)`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}]으?로(?:\s|$)`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}][와과](?:\s|$)`),
	regexp.MustCompile(`[\x{ac00}-\x{d7a3}]의(?:\s|$)`),
	regexp.MustCompile(`[A-Za-z]에서(?:\s|$)`),
	regexp.MustCompile(`[A-Za-z]으?로(?:\s|$)`),
	regexp.MustCompile(`[A-Za-z][을를](?:\s|$)`),
	regexp.MustCompile(`[A-Za-z][이가](?:\s|$)`),
	regexp.MustCompile(`[A-Za-z][은는](?:\s|$)`),
	regexp.MustCompile(`[A-Za-z]와(?:\s|$)`),
}

// Sentence-final endings, including the clipped report style ("발생함").
var koreanEndingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)입니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)습니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)됩니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)있습니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)없습니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)했습니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)합니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)집니다[.!?\s]?$`),
	regexp.MustCompile(`(?m)입니까[.!?\s]?$`),
	regexp.MustCompile(`(?m)습니까[.!?\s]?$`),
	regexp.MustCompile(`(?m)세요[.!?\s]?$`),
	regexp.MustCompile(`(?m)해요[.!?\s]?$`),
	regexp.MustCompile(`(?m)돼요[.!?\s]?$`),
	regexp.MustCompile(`(?m)[다음임함됨없음있음][.!?\s]?$`),
	regexp.MustCompile(`현상입니다`),
	regexp.MustCompile(`현상임`),
	regexp.MustCompile(`발생함`),
	regexp.MustCompile(`확인됨`),
	regexp.MustCompile(`느립니다`),
	regexp.MustCompile(`빠릅니다`),
	regexp.MustCompile(`많습니다`),
	regexp.MustCompile(`적습니다`),
	regexp.MustCompile(`않습니다`),
	regexp.MustCompile(`못합니다`),
}

// Function-word patterns that only show up in real English sentences, as
// opposed to bare identifiers or menu labels. Matched against lowered text.
var englishSentencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(the|a|an)\s+\w+`),
	regexp.MustCompile(`\b(is|are|was|were|be)\s+`),
	regexp.MustCompile(`\b(have|has|had)\s+(been|to)`),
	regexp.MustCompile(`\b(to|for|from|with|by|at|in|on)\s+\w+`),
	regexp.MustCompile(`\b(when|where|what|who|why|how)\s+`),
	regexp.MustCompile(`\b(if|then|else|because|although)\s+`),
	regexp.MustCompile(`\bshould\s+(be|not|have)`),
	regexp.MustCompile(`\bcan\s+(be|not|have)`),
	regexp.MustCompile(`\bwill\s+(be|not|have)`),
}

var detectableStrips = []*regexp.Regexp{
	regexp.MustCompile(`![^!]+!`),
	regexp.MustCompile(`\[\^[^\]]+\]`),
	regexp.MustCompile(`__.*?__`),
	regexp.MustCompile(`\{color:[^}]+\}|\{color\}`),
	regexp.MustCompile("`[^`]+`"),
}

var nonLetter = regexp.MustCompile(`[^A-Za-z\x{ac00}-\x{d7a3}]`)

// ExtractDetectableText removes markup (media references, placeholders, color
// spans, inline code) and every non-letter character, leaving only the letters
// character counting should see.
func ExtractDetectableText(text string) string {
	cleaned := text
	for _, re := range detectableStrips {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	return nonLetter.ReplaceAllString(cleaned, "")
}

// Detect classifies text as Korean, English, or Unknown.
//
// The precedence chain, strongest signal first:
//
//  1. any Korean particle or sentence ending -> Korean
//  2. Hangul present and no English sentence pattern -> Korean
//  3. more Hangul than Latin letters -> Korean
//  4. English sentence pattern and no Hangul -> English
//  5. no Hangul, some Latin -> English
//  6. any Hangul at all -> Korean
//  7. otherwise Unknown
//
// Structure patterns (1, 4) run against the raw text so markup does not break
// particle adjacency; character counts (2, 3, 5, 6) use the sanitized text.
func Detect(text string) Lang {
	if text == "" {
		return Unknown
	}

	sanitized := ExtractDetectableText(text)
	if sanitized == "" {
		return Unknown
	}

	koreanChars := len(hangulChar.FindAllString(sanitized, -1))
	latinChars := len(latinChar.FindAllString(sanitized, -1))

	structureScore := 0
	for _, re := range koreanParticlePatterns {
		structureScore += len(re.FindAllString(text, -1))
	}
	for _, re := range koreanEndingPatterns {
		if re.MatchString(text) {
			structureScore++
		}
	}

	englishCount := 0
	lowered := strings.ToLower(text)
	for _, re := range englishSentencePatterns {
		englishCount += len(re.FindAllString(lowered, -1))
	}

	switch {
	case structureScore >= 1:
		return Korean
	case koreanChars >= 1 && englishCount == 0:
		return Korean
	case koreanChars > latinChars:
		return Korean
	case englishCount >= 1 && koreanChars == 0:
		return English
	case koreanChars == 0 && latinChars > 0:
		return English
	case koreanChars > 0:
		return Korean
	default:
		return Unknown
	}
}

// ---------------------------------------------------------------------------
// Idempotence checks
// ---------------------------------------------------------------------------

const bilingualSeparator = " / "

// IsBilingualSummary reports whether a summary is already in
// "original / translated" form. The leading bracket-tag run is excluded via
// splitBracket before the halves are language-tested; both halves must detect
// as known, different languages.
func IsBilingualSummary(summary string, splitBracket func(string) (string, string)) bool {
	_, core := splitBracket(summary)
	before, after, found := strings.Cut(core, bilingualSeparator)
	if !found {
		return false
	}
	left := Detect(before)
	right := Detect(after)
	if left == Unknown || right == Unknown {
		return false
	}
	return left != right
}

var translatedSpanOpen = regexp.MustCompile(`\{color:#4c9aff\}`)
var emptyOrDelimiterSpan = regexp.MustCompile(`^\s*\|?\s*\{color\}`)

// IsDescriptionTranslated reports whether a description already carries a
// translated line: a {color:#4c9aff} span with real content after the opening
// tag. Spans holding only a table delimiter ({color:#4c9aff}|{color}) do not
// count.
func IsDescriptionTranslated(value string) bool {
	if value == "" {
		return false
	}
	for _, loc := range translatedSpanOpen.FindAllStringIndex(value, -1) {
		rest := value[loc[1]:]
		if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
			rest = rest[:idx]
		}
		if rest == "" {
			continue
		}
		if emptyOrDelimiterSpan.MatchString(rest) {
			continue
		}
		return true
	}
	return false
}

// IsStepsBilingual reports whether a steps field already holds an original
// block followed by a translated block: the first two non-empty paragraph
// blocks detect as known, different languages.
func IsStepsBilingual(value string) bool {
	if value == "" {
		return false
	}
	var parts []string
	for _, p := range strings.Split(value, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) < 2 {
		return false
	}
	first := Detect(parts[0])
	second := Detect(parts[1])
	if first == Unknown || second == Unknown {
		return false
	}
	return first != second
}
