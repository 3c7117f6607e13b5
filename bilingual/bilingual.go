// Package bilingual merges original and translated field text into the
// combined representation written back to Jira: interleaved original plus
// color-marked translated lines for descriptions, a capped
// "original / translated" line for summaries, and stacked paragraph blocks
// for reproduction steps.
package bilingual

import (
	"strings"

	"jiratrans/markup"
	"jiratrans/section"
)

// ---------------------------------------------------------------------------
// Line formatting
// ---------------------------------------------------------------------------

// FormatTranslatedLine shapes one translated line to sit under its original:
// the original's bullet/number prefix or indentation is re-applied, and the
// translated content is wrapped in the translated-line color span unless the
// original already carried a color tag.
func FormatTranslatedLine(originalLine, translatedLine string) string {
	translation := strings.TrimSpace(translatedLine)
	if translation == "" {
		return ""
	}

	hasColor := markup.HasColor(originalLine)

	if prefix, ok := markup.MatchBulletPrefix(originalLine); ok {
		cleaned := markup.StripBulletPrefix(translation)
		if hasColor {
			return prefix + cleaned
		}
		return prefix + markup.ColorizeTranslated(cleaned)
	}

	indent := markup.LeadingIndent(originalLine)
	if hasColor {
		return indent + translation
	}
	return indent + markup.ColorizeTranslated(translation)
}

// ---------------------------------------------------------------------------
// Block reconstruction
// ---------------------------------------------------------------------------

// Builder reconstructs bilingual blocks. Warnf, when set, receives a notice
// whenever the translated text does not line up with the original and the
// merge degrades to positional pairing up to the shorter side.
type Builder struct {
	Warnf func(format string, args ...any)
}

// newClassifier builds the shared line classifier with the section header
// test plugged in. Both the pool filter and the reconstruction loop run off
// it so the two can never disagree on what a line is.
func newClassifier() *markup.Classifier {
	return &markup.Classifier{IsHeader: section.IsHeaderLine}
}

// eligibleLines returns the lines of text that participate in positional
// pairing: code-fenced, blank, media, and header lines are excluded up
// front so they can never be consumed as the translation of unrelated
// content. Table rows stay in.
func eligibleLines(text string) []string {
	classifier := newClassifier()
	var out []string
	for _, line := range strings.Split(text, "\n") {
		switch classifier.Classify(line) {
		case markup.KindPlain, markup.KindTableRow:
			out = append(out, line)
		}
	}
	return out
}

// Reconstruct merges original and translated text into one bilingual block.
// An optional header is emitted first. Pairing is positional: the n-th
// eligible original line gets the n-th line from the translated pool. When
// the pool runs out, remaining original lines keep no translation; when the
// counts differ at all, the mismatch is reported through Warnf and the merge
// proceeds up to the shorter side.
func (b *Builder) Reconstruct(original, translated, header string) string {
	original = strings.Trim(original, "\n")
	translated = strings.TrimSpace(translated)

	var lines []string
	if header != "" {
		lines = append(lines, header)
	}

	if original == "" {
		if translated != "" {
			lines = append(lines, markup.ColorizeTranslated(translated))
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	pool := eligibleLines(translated)
	if want := len(eligibleLines(original)); want != len(pool) && b.Warnf != nil {
		b.Warnf("translated line count %d does not match original %d; pairing positionally", len(pool), want)
	}

	poolIndex := 0
	nextTranslation := func() string {
		if poolIndex < len(pool) {
			line := pool[poolIndex]
			poolIndex++
			return line
		}
		return ""
	}

	var buffer []string
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		lines = append(lines, buffer...)

		var block []string
		for _, origLine := range buffer {
			if strings.TrimSpace(origLine) == "" {
				continue
			}
			if t := strings.TrimSpace(nextTranslation()); t != "" {
				if formatted := FormatTranslatedLine(origLine, t); formatted != "" {
					block = append(block, formatted)
				}
			}
		}
		if len(block) > 0 {
			lines = append(lines, "")
			lines = append(lines, block...)
		}
		buffer = buffer[:0]
	}

	classifier := newClassifier()
	for _, line := range strings.Split(original, "\n") {
		switch classifier.Classify(line) {
		case markup.KindFence, markup.KindFenceBody:
			flush()
			lines = append(lines, line)

		case markup.KindTableRow:
			flush()
			// Jira needs a blank line before a table to render it.
			lines = append(lines, "")
			lines = append(lines, mergeTableRow(line, nextTranslation()))

		case markup.KindMedia:
			flush()
			lines = append(lines, line)

		case markup.KindHeader:
			flush()
			lines = append(lines, line)

		default:
			buffer = append(buffer, line)
		}
	}
	flush()

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// mergeTableRow combines one original table row with its translated
// counterpart cell by cell. Header rows (double-pipe cells) render as
// "*orig/trans*", data rows as "orig/trans"; media cells and cells without
// a usable translated counterpart pass through unchanged.
func mergeTableRow(line, translatedLine string) string {
	stripped := strings.TrimSpace(line)
	header := markup.IsTableHeaderRow(stripped)

	delim := "|"
	if header {
		delim = "||"
	}

	origCells := strings.Split(line, delim)
	var transCells []string
	if translatedLine != "" {
		transCells = strings.Split(translatedLine, delim)
	}

	merged := make([]string, len(origCells))
	for i, origCell := range origCells {
		// The first and last split results are the text outside the
		// outer delimiters; keep them untouched.
		if i == 0 || i == len(origCells)-1 {
			merged[i] = origCell
			continue
		}

		var origContent string
		if header {
			origContent = strings.TrimSpace(strings.Trim(strings.TrimSpace(origCell), "*"))
		} else {
			origContent = strings.TrimSpace(origCell)
		}
		if origContent == "" {
			merged[i] = origCell
			continue
		}
		if !header && markup.IsMediaLine(origContent) {
			merged[i] = origCell
			continue
		}

		if i >= len(transCells) {
			merged[i] = origCell
			continue
		}
		var transContent string
		if header {
			transContent = strings.TrimSpace(strings.Trim(strings.TrimSpace(transCells[i]), "*"))
		} else {
			transContent = strings.TrimSpace(transCells[i])
		}
		if transContent == "" || (!header && markup.IsMediaLine(transContent)) {
			merged[i] = origCell
			continue
		}

		if header {
			merged[i] = "*" + origContent + "/" + transContent + "*"
		} else {
			merged[i] = origContent + "/" + transContent
		}
	}

	return strings.Join(merged, delim)
}

// ---------------------------------------------------------------------------
// Field value formatting
// ---------------------------------------------------------------------------

const (
	summaryMaxLen    = 255
	summarySeparator = " / "
)

func normalizeSummaryHalf(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return strings.TrimRight(string(runes[:limit-1]), " ") + "…"
}

// FormatSummary renders "original / translated" within Jira's 255-character
// summary limit. The original is never cut; only the translated half is
// truncated, with a trailing ellipsis when shortened. Newlines are
// flattened to spaces since summaries are single-line.
func FormatSummary(original, translated string) string {
	original = normalizeSummaryHalf(original)
	translated = normalizeSummaryHalf(translated)

	if original == "" {
		return truncateRunes(translated, summaryMaxLen)
	}
	if translated == "" {
		return original
	}

	remaining := summaryMaxLen - len([]rune(original)) - len(summarySeparator)
	if remaining <= 0 {
		return original
	}
	truncated := truncateRunes(translated, remaining)
	if truncated == "" {
		return original
	}
	return original + summarySeparator + truncated
}

// FormatSteps renders a reproduction-steps field as the original block
// followed by the translated block, separated by one blank line.
func FormatSteps(original, translated string) string {
	original = strings.TrimSpace(original)
	translated = strings.TrimSpace(translated)
	if original != "" && translated != "" {
		return original + "\n\n" + translated
	}
	if original != "" {
		return original
	}
	return translated
}
