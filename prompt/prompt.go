// Package prompt resolves the translation direction for a run and renders
// the system instruction the translation service receives.
package prompt

import (
	"strings"

	xlang "golang.org/x/text/language"

	"jiratrans/language"
)

// Direction is the source-to-target orientation of one translation run.
type Direction int

const (
	KoToEn Direction = iota
	EnToKo
)

func (d Direction) String() string {
	if d == KoToEn {
		return "ko->en"
	}
	return "en->ko"
}

// ForcedDirection maps an explicit target-language override to the direction
// it implies: asking for English output forces Korean as the source and vice
// versa. Accepts plain names ("english", "korean"), ISO codes, and BCP-47
// tags ("en-US", "ko-KR"). Unrecognized values force nothing.
func ForcedDirection(target string) (Direction, bool) {
	normalized := strings.ToLower(strings.TrimSpace(target))
	switch normalized {
	case "":
		return 0, false
	case "english", "en":
		return KoToEn, true
	case "korean", "ko":
		return EnToKo, true
	}

	tag, err := xlang.Parse(normalized)
	if err != nil {
		return 0, false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return KoToEn, true
	case "ko":
		return EnToKo, true
	}
	return 0, false
}

// Resolve combines the detected source language with an optional target
// override. The override wins; otherwise detected Korean means Korean to
// English, and anything else (including unknown) conservatively falls back
// to English to Korean.
func Resolve(detected language.Lang, target string) Direction {
	if forced, ok := ForcedDirection(target); ok {
		return forced
	}
	if detected == language.Korean {
		return KoToEn
	}
	return EnToKo
}

// ---------------------------------------------------------------------------
// System messages
// ---------------------------------------------------------------------------

const koToEnBatch = "You are a professional Korean to English translator. " +
	"Translate each provided Korean text to English. " +
	"The output MUST be 100% in English - do NOT leave any Korean words. " +
	"Preserve Jira markup (*bold*, _italic_, {code}, etc.), bullet indentation, " +
	"and placeholder tokens like __IMAGE_PLACEHOLDER__. " +
	"IMPORTANT: Keep the exact same number of lines as the source text. " +
	"Do not add commentary. " +
	"Title rule: When translating titles/summaries, start with the symptom directly. " +
	"Do NOT start with 'There is an issue where...', 'An issue where...', or 'This is an issue...'. " +
	"Prefer patterns like 'Error occurs when ...', 'Crash when ...', 'UI does not ...', 'Cannot ...'. " +
	"Observation rule: When translating '확인하다' in reproduction steps, " +
	"prefer 'observe' or 'notice' over 'confirm' " +
	"(e.g., '에러가 발생하는 것을 확인' → 'Observe that the error occurs')."

const koToEnSingle = "You are a professional Korean to English translator. " +
	"Translate the following Korean text to English. " +
	"The output MUST be 100% in English - do NOT leave any Korean words. " +
	"Preserve Jira markup (*bold*, _italic_, {code}, etc.) " +
	"and placeholder tokens like __IMAGE_PLACEHOLDER__. " +
	"Title rule: When translating titles/summaries, start with the symptom directly. " +
	"Do NOT start with 'There is an issue where...', 'An issue where...', or 'This is an issue...'. " +
	"Prefer patterns like 'Error occurs when ...', 'Crash when ...', 'UI does not ...', 'Cannot ...'. " +
	"Observation rule: When translating '확인하다' in reproduction steps, " +
	"prefer 'observe' or 'notice' over 'confirm' " +
	"(e.g., '에러가 발생하는 것을 확인' → 'Observe that the error occurs')."

const enToKoBatch = "You are a professional English to Korean translator. " +
	"Translate each provided English text to Korean. " +
	"Keep proper nouns and game-specific terms in English. " +
	"Concise noun phrases for titles/summaries. " +
	"Preserve Jira markup (*bold*, _italic_, {code}, etc.), bullet indentation, " +
	"and placeholder tokens like __IMAGE_PLACEHOLDER__. " +
	"IMPORTANT: Keep the exact same number of lines as the source text. " +
	"Do not add commentary."

const enToKoSingle = "You are a professional English to Korean translator. " +
	"Translate the following English text to Korean. " +
	"Keep proper nouns and game-specific terms in English. " +
	"Favor noun phrases like '하이드아웃 진입', '이슈 확인'. " +
	"Preserve Jira markup (*bold*, _italic_, {code}, etc.) " +
	"and placeholder tokens like __IMAGE_PLACEHOLDER__."

const glossaryNoteRule = "GLOSSARY NOTE RULE:\n" +
	"- In glossary lines, any 'note:' segment is a description for disambiguation only.\n" +
	"- Use the note to choose the correct meaning, but DO NOT include the note text in the translation output.\n" +
	"- Example: '저격수 | Marksman | note: player role/class' => output 'Marksman' (omit the note)."

// System renders the system instruction for one run. A non-empty glossary
// instruction is appended together with the fixed rule keeping glossary
// notes out of the output.
func System(d Direction, glossaryInstruction string, batch bool) string {
	var msg string
	switch {
	case d == KoToEn && batch:
		msg = koToEnBatch
	case d == KoToEn:
		msg = koToEnSingle
	case batch:
		msg = enToKoBatch
	default:
		msg = enToKoSingle
	}

	if glossaryInstruction != "" {
		msg = msg + "\n\n" + glossaryInstruction + "\n\n" + glossaryNoteRule
	}
	return msg
}
